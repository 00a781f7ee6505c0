//go:build vulkan

package gfx

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// VulkanAdapters enumerates the physical devices of the system's Vulkan
// loader. Presentation support cannot be queried without a native window,
// so every graphics family of a device exposing the swapchain extension
// is reported as able to present.
func VulkanAdapters() ([]AdapterInfo, error) {
	if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
		return nil, fmt.Errorf("vulkan loader: %w", err)
	}
	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("vulkan init: %w", err)
	}

	var instance vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
			ApplicationVersion: uint32(vk.MakeVersion(0, 1, 0)),
			PApplicationName:   "woody\x00",
			PEngineName:        "woody\x00",
		},
	}, nil, &instance)
	if ret != vk.Success {
		return nil, fmt.Errorf("vkCreateInstance: %w", vk.Error(ret))
	}
	defer vk.DestroyInstance(instance, nil)
	if err := vk.InitInstance(instance); err != nil {
		return nil, fmt.Errorf("vulkan instance: %w", err)
	}

	var count uint32
	if ret := vk.EnumeratePhysicalDevices(instance, &count, nil); ret != vk.Success {
		return nil, fmt.Errorf("vkEnumeratePhysicalDevices: %w", vk.Error(ret))
	}
	gpus := make([]vk.PhysicalDevice, count)
	if ret := vk.EnumeratePhysicalDevices(instance, &count, gpus); ret != vk.Success {
		return nil, fmt.Errorf("vkEnumeratePhysicalDevices: %w", vk.Error(ret))
	}

	adapters := make([]AdapterInfo, 0, len(gpus))
	for _, gpu := range gpus {
		adapters = append(adapters, describeGPU(gpu))
	}
	return adapters, nil
}

func describeGPU(gpu vk.PhysicalDevice) AdapterInfo {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(gpu, &props)
	props.Deref()

	info := AdapterInfo{
		Name:     vk.ToString(props.DeviceName[:]),
		Kind:     adapterKind(props.DeviceType),
		VendorID: props.VendorID,
	}

	var extCount uint32
	vk.EnumerateDeviceExtensionProperties(gpu, "", &extCount, nil)
	exts := make([]vk.ExtensionProperties, extCount)
	vk.EnumerateDeviceExtensionProperties(gpu, "", &extCount, exts)
	swapchain := false
	for _, ext := range exts {
		ext.Deref()
		name := vk.ToString(ext.ExtensionName[:])
		info.Extensions = append(info.Extensions, name)
		swapchain = swapchain || name == ExtSwapchain
	}

	var famCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &famCount, nil)
	families := make([]vk.QueueFamilyProperties, famCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &famCount, families)
	for i, fam := range families {
		fam.Deref()
		var flags QueueFlags
		if fam.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			flags |= QueueGraphics
			if swapchain {
				flags |= QueuePresent
			}
		}
		if fam.QueueFlags&vk.QueueFlags(vk.QueueComputeBit) != 0 {
			flags |= QueueCompute
		}
		if fam.QueueFlags&vk.QueueFlags(vk.QueueTransferBit) != 0 {
			flags |= QueueTransfer
		}
		info.QueueFamilies = append(info.QueueFamilies, QueueFamily{
			Index: i,
			Flags: flags,
			Count: int(fam.QueueCount),
		})
	}
	return info
}

func adapterKind(t vk.PhysicalDeviceType) AdapterKind {
	switch t {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return KindDiscrete
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return KindIntegrated
	case vk.PhysicalDeviceTypeVirtualGpu:
		return KindVirtual
	case vk.PhysicalDeviceTypeCpu:
		return KindSoftware
	}
	return KindOther
}
