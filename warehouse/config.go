package warehouse

import (
	"io"
	"log/slog"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/table"
)

// Config is the package-wide configuration. Set it before creating storages.
var Config = config{
	logger: bark.For("warehouse"),
}

type config struct {
	tableEvents table.TableEvents
	logger      *slog.Logger
}

// SetTableEvents installs callbacks fired by every archetype table created
// afterwards.
func (c *config) SetTableEvents(te table.TableEvents) {
	c.tableEvents = te
}

func (c *config) SetLogger(l *slog.Logger) {
	c.logger = l
}

// SetLogOutput replaces the logger with a text logger writing to w.
func (c *config) SetLogOutput(w io.Writer) {
	c.logger = slog.New(slog.NewTextHandler(w, nil)).With(bark.KeyComponent, "warehouse")
}
