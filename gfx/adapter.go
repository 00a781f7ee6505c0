package gfx

import (
	"fmt"
	"slices"
	"strings"
)

// ExtSwapchain is the device extension required for presentation.
const ExtSwapchain = "VK_KHR_swapchain"

type AdapterKind int

const (
	KindOther AdapterKind = iota
	KindSoftware
	KindVirtual
	KindIntegrated
	KindDiscrete
)

func (k AdapterKind) String() string {
	switch k {
	case KindSoftware:
		return "software"
	case KindVirtual:
		return "virtual"
	case KindIntegrated:
		return "integrated"
	case KindDiscrete:
		return "discrete"
	}
	return "other"
}

// rank orders adapter kinds by preference, higher first.
func (k AdapterKind) rank() int {
	switch k {
	case KindDiscrete:
		return 3
	case KindIntegrated:
		return 2
	}
	return 1
}

type QueueFlags uint32

const (
	QueueGraphics QueueFlags = 1 << iota
	QueueCompute
	QueueTransfer
	QueuePresent
)

func (f QueueFlags) Has(flags QueueFlags) bool {
	return f&flags == flags
}

func (f QueueFlags) String() string {
	var names []string
	for _, n := range []struct {
		flag QueueFlags
		name string
	}{
		{QueueGraphics, "graphics"},
		{QueueCompute, "compute"},
		{QueueTransfer, "transfer"},
		{QueuePresent, "present"},
	} {
		if f.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

type QueueFamily struct {
	Index int
	Flags QueueFlags
	Count int
}

// AdapterInfo describes a physical device that may back a Device.
type AdapterInfo struct {
	Name          string
	Kind          AdapterKind
	VendorID      uint32
	QueueFamilies []QueueFamily
	Extensions    []string
}

func (a AdapterInfo) String() string {
	return fmt.Sprintf("%s [%s]", a.Name, a.Kind)
}

// QueueSelection names the queue families a device submits and presents on.
// Both may be the same family.
type QueueSelection struct {
	Graphics int
	Present  int
}

// SoftwareAdapter returns the built-in CPU adapter. It has a single queue
// family that draws and presents.
func SoftwareAdapter() AdapterInfo {
	return AdapterInfo{
		Name: "woody software rasterizer",
		Kind: KindSoftware,
		QueueFamilies: []QueueFamily{
			{Index: 0, Flags: QueueGraphics | QueueCompute | QueueTransfer | QueuePresent, Count: 1},
		},
		Extensions: []string{ExtSwapchain},
	}
}

// SelectAdapter picks the most preferred adapter able to draw and present:
// discrete over integrated over everything else, list order breaking ties.
// When none qualifies the error lists why each one was rejected.
func SelectAdapter(adapters []AdapterInfo) (AdapterInfo, QueueSelection, error) {
	if len(adapters) == 0 {
		return AdapterInfo{}, QueueSelection{}, DeviceInitError{Reason: "no adapters available"}
	}

	type candidate struct {
		info   AdapterInfo
		queues QueueSelection
	}
	var (
		candidates []candidate
		rejected   []AdapterRejection
	)
	for _, a := range adapters {
		queues, reason := qualify(a)
		if reason != "" {
			rejected = append(rejected, AdapterRejection{Adapter: a.String(), Reason: reason})
			logger.Debug("adapter rejected", "adapter", a.String(), "reason", reason)
			continue
		}
		candidates = append(candidates, candidate{info: a, queues: queues})
	}
	if len(candidates) == 0 {
		return AdapterInfo{}, QueueSelection{}, DeviceInitError{
			Reason:   "no compatible adapter",
			Rejected: rejected,
		}
	}

	best := slices.MaxFunc(candidates, func(a, b candidate) int {
		return a.info.Kind.rank() - b.info.Kind.rank()
	})
	// MaxFunc returns the first maximal element, so list order breaks ties.
	return best.info, best.queues, nil
}

func qualify(a AdapterInfo) (QueueSelection, string) {
	graphics, present := -1, -1
	for _, fam := range a.QueueFamilies {
		if fam.Count < 1 {
			continue
		}
		// Prefer one family doing both
		if fam.Flags.Has(QueueGraphics | QueuePresent) {
			graphics, present = fam.Index, fam.Index
			break
		}
		if graphics < 0 && fam.Flags.Has(QueueGraphics) {
			graphics = fam.Index
		}
		if present < 0 && fam.Flags.Has(QueuePresent) {
			present = fam.Index
		}
	}
	switch {
	case graphics < 0:
		return QueueSelection{}, "no graphics queue family"
	case present < 0:
		return QueueSelection{}, "no present queue family"
	case !slices.Contains(a.Extensions, ExtSwapchain):
		return QueueSelection{}, "missing " + ExtSwapchain
	}
	return QueueSelection{Graphics: graphics, Present: present}, ""
}
