package gfx

import (
	"errors"
	"image"
	"sync"
)

// Surface is where presented images end up: a terminal, a window or memory.
type Surface interface {
	// Extent reports the current drawable size in pixels.
	Extent() (width, height int)
	// Configure binds the surface to swapchain images of the given size
	// and clears its out-of-date state.
	Configure(width, height int) error
	// OutOfDate reports whether the surface changed since Configure.
	OutOfDate() bool
	// Present shows img. The surface must not retain img after returning.
	Present(img *image.RGBA) error
	Close() error
}

var errSurfaceClosed = errors.New("surface closed")

// HeadlessSurface keeps presented images in memory.
type HeadlessSurface struct {
	mu        sync.Mutex
	width     int
	height    int
	outOfDate bool
	closed    bool
	last      *image.RGBA
	presented int
}

func NewHeadlessSurface(width, height int) *HeadlessSurface {
	return &HeadlessSurface{width: width, height: height}
}

func (s *HeadlessSurface) Extent() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Resize changes the extent and marks the surface out of date.
func (s *HeadlessSurface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
	s.outOfDate = true
}

func (s *HeadlessSurface) Configure(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSurfaceClosed
	}
	s.outOfDate = false
	return nil
}

func (s *HeadlessSurface) OutOfDate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outOfDate
}

func (s *HeadlessSurface) Present(img *image.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSurfaceClosed
	}
	if s.last == nil || s.last.Bounds() != img.Bounds() {
		s.last = image.NewRGBA(img.Bounds())
	}
	copy(s.last.Pix, img.Pix)
	s.presented++
	return nil
}

// LastImage returns a copy of the most recently presented image, or nil.
func (s *HeadlessSurface) LastImage() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	out := image.NewRGBA(s.last.Bounds())
	copy(out.Pix, s.last.Pix)
	return out
}

func (s *HeadlessSurface) Presented() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presented
}

func (s *HeadlessSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
