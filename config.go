package woody

import (
	"io"
	"log/slog"

	"github.com/TheBitDrifter/bark"
)

// Config holds application loop settings read by Run
var Config config = config{
	targetFPS: 60,
}

type config struct {
	targetFPS int
	maxFrames uint64
}

var logger = bark.For("woody")

// SetTargetFPS caps the tick rate; 0 runs uncapped
func (c *config) SetTargetFPS(fps int) {
	c.targetFPS = max(fps, 0)
}

// SetMaxFrames makes Run return after n ticks; 0 runs until cancelled
func (c *config) SetMaxFrames(n uint64) {
	c.maxFrames = n
}

// SetLogger replaces the package logger
func (c *config) SetLogger(l *slog.Logger) {
	logger = l
}

// SetLogOutput replaces the package logger with a text logger writing to w
func (c *config) SetLogOutput(w io.Writer) {
	logger = slog.New(slog.NewTextHandler(w, nil)).With(bark.KeyComponent, "woody")
}

func (c *config) TargetFPS() int {
	return c.targetFPS
}

func (c *config) MaxFrames() uint64 {
	return c.maxFrames
}
