package render

import (
	"io"
	"log/slog"

	"github.com/TheBitDrifter/bark"
	"github.com/go-gl/mathgl/mgl32"
)

// Config holds renderer settings read on every frame
var Config config = config{
	clearColor: mgl32.Vec4{0, 0, 0, 1},
	fov:        45,
	near:       0.1,
	far:        1000,
}

type config struct {
	clearColor mgl32.Vec4
	fov        float32
	near, far  float32
}

var logger = bark.For("render")

func (c *config) SetClearColor(color mgl32.Vec4) {
	c.clearColor = color
}

// SetFieldOfView sets the vertical field of view in degrees
func (c *config) SetFieldOfView(degrees float32) {
	c.fov = mgl32.Clamp(degrees, 1, 179)
}

// SetDepthRange sets the near and far clip planes
func (c *config) SetDepthRange(near, far float32) {
	if near <= 0 || far <= near {
		return
	}
	c.near, c.far = near, far
}

// SetLogger replaces the package logger
func (c *config) SetLogger(l *slog.Logger) {
	logger = l
}

// SetLogOutput replaces the package logger with a text logger writing to w
func (c *config) SetLogOutput(w io.Writer) {
	logger = slog.New(slog.NewTextHandler(w, nil)).With(bark.KeyComponent, "render")
}

func (c *config) ClearColor() mgl32.Vec4 {
	return c.clearColor
}

func (c *config) FieldOfView() float32 {
	return c.fov
}

func (c *config) DepthRange() (near, far float32) {
	return c.near, c.far
}
