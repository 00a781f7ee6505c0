package gfx

import (
	"io"
	"log/slog"
	"time"

	"github.com/TheBitDrifter/bark"
)

// Config holds the device settings read by Initialize
var Config config = config{
	framesInFlight:  2,
	swapchainImages: 3,
	fenceTimeout:    time.Second,
}

type config struct {
	framesInFlight  int
	swapchainImages int
	fenceTimeout    time.Duration
}

var logger = bark.For("gfx")

// SetFramesInFlight sets how many frames may be recorded while earlier ones execute
func (c *config) SetFramesInFlight(n int) {
	if n < 1 {
		n = 1
	}
	c.framesInFlight = n
}

// SetSwapchainImages sets the number of images in newly created swapchains
func (c *config) SetSwapchainImages(n int) {
	if n < 1 {
		n = 1
	}
	c.swapchainImages = n
}

// SetFenceTimeout bounds how long BeginFrame and WaitIdle block on the queue
func (c *config) SetFenceTimeout(d time.Duration) {
	c.fenceTimeout = d
}

// SetLogger replaces the package logger
func (c *config) SetLogger(l *slog.Logger) {
	logger = l
}

// SetLogOutput replaces the package logger with a text logger writing to w
func (c *config) SetLogOutput(w io.Writer) {
	logger = slog.New(slog.NewTextHandler(w, nil)).With(bark.KeyComponent, "gfx")
}

func (c *config) FramesInFlight() int {
	return c.framesInFlight
}

func (c *config) SwapchainImages() int {
	return c.swapchainImages
}

func (c *config) FenceTimeout() time.Duration {
	return c.fenceTimeout
}
