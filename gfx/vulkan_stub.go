//go:build !vulkan

package gfx

import "errors"

// VulkanAdapters reports that this build cannot talk to a Vulkan loader.
// Build with -tags vulkan to enumerate physical devices.
func VulkanAdapters() ([]AdapterInfo, error) {
	return nil, errors.New("gfx: built without vulkan support")
}
