package gfx

import (
	"fmt"
	"image"
)

// Swapchain is the ring of images presented to a surface. All images share
// one depth buffer; the queue renders one submission at a time.
type Swapchain struct {
	width, height int
	images        []*target
	next          int
	generation    int
}

func newSwapchain(surface Surface, imageCount, generation int) (*Swapchain, error) {
	width, height := surface.Extent()
	if width <= 0 || height <= 0 {
		return nil, SurfaceLostError{Reason: fmt.Sprintf("surface extent is %dx%d", width, height)}
	}
	if err := surface.Configure(width, height); err != nil {
		return nil, SurfaceLostError{Reason: err.Error()}
	}
	sc := &Swapchain{
		width:      width,
		height:     height,
		images:     make([]*target, imageCount),
		generation: generation,
	}
	depth := make([]float32, width*height)
	for i := range sc.images {
		sc.images[i] = &target{
			color: image.NewRGBA(image.Rect(0, 0, width, height)),
			depth: depth,
		}
	}
	return sc, nil
}

func (sc *Swapchain) Extent() (int, int) {
	return sc.width, sc.height
}

func (sc *Swapchain) ImageCount() int {
	return len(sc.images)
}

// Generation counts swapchain recreations on the owning device.
func (sc *Swapchain) Generation() int {
	return sc.generation
}

// acquire hands out the next image in the ring, failing when the surface
// no longer matches the swapchain.
func (sc *Swapchain) acquire(surface Surface) (int, error) {
	if surface.OutOfDate() {
		return -1, SurfaceLostError{Reason: "surface out of date"}
	}
	if w, h := surface.Extent(); w != sc.width || h != sc.height {
		return -1, SurfaceLostError{Reason: fmt.Sprintf("extent changed from %dx%d to %dx%d", sc.width, sc.height, w, h)}
	}
	idx := sc.next
	sc.next = (sc.next + 1) % len(sc.images)
	return idx, nil
}
