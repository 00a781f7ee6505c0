package woody

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/table"
	"github.com/TheBitDrifter/woody/components"
	"github.com/TheBitDrifter/woody/gfx"
	"github.com/TheBitDrifter/woody/render"
	"github.com/TheBitDrifter/woody/shader"
	"github.com/TheBitDrifter/woody/warehouse"
)

// App ties a storage, its systems and a renderer into a frame loop. It is
// driven by one goroutine.
type App struct {
	Storage  warehouse.Storage
	Systems  Systems
	Renderer *render.Renderer

	cameras   warehouse.QueryNode
	frame     uint64
	created   bool
	suspended bool
}

// New initializes a device on surface and a renderer with the built-in
// pipelines.
func New(surface gfx.Surface, adapters ...gfx.AdapterInfo) (*App, error) {
	device, err := gfx.Initialize(surface, adapters...)
	if err != nil {
		return nil, err
	}
	renderer, err := render.New(device, shader.NewManager(16))
	if err != nil {
		device.Destroy()
		return nil, err
	}
	query := warehouse.Factory.NewQuery()
	return &App{
		Storage:  warehouse.Factory.NewStorage(table.Factory.NewSchema()),
		Renderer: renderer,
		cameras:  query.And(components.CameraComponent),
	}, nil
}

func (a *App) Resources() *warehouse.Resources {
	return a.Storage.Resources()
}

func (a *App) Device() *gfx.Device {
	return a.Renderer.Device()
}

// Frame is the number of ticks run so far.
func (a *App) Frame() uint64 {
	return a.frame
}

// Suspended reports whether rendering waits for the surface to regain an
// area.
func (a *App) Suspended() bool {
	return a.suspended
}

// Run ticks until ctx is cancelled, Config's frame limit is reached or a
// system or the renderer fails. Cancellation is not an error.
func (a *App) Run(ctx context.Context) error {
	if !a.created {
		if err := a.Systems.runCreate(a); err != nil {
			return err
		}
		a.created = true
	}

	var pace <-chan time.Time
	if fps := Config.TargetFPS(); fps > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(fps))
		defer ticker.Stop()
		pace = ticker.C
	}
	logger.Info("running", "systems", a.Systems.Len(), "target_fps", Config.TargetFPS())
	defer func() { logger.Info("stopped", "frames", a.frame) }()

	start := a.frame
	last := time.Now()
	for {
		if ctx.Err() != nil {
			return nil
		}
		if limit := Config.MaxFrames(); limit > 0 && a.frame-start >= limit {
			return nil
		}
		now := time.Now()
		state := GameState{DeltaTime: now.Sub(last), Frame: a.frame}
		last = now

		if err := a.tick(ctx, state); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if pace != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-pace:
			}
		}
	}
}

// tick updates the systems with the storage locked, then renders.
func (a *App) tick(ctx context.Context, state GameState) error {
	a.Storage.Lock()
	err := a.Systems.runUpdate(a, state)
	a.Storage.Unlock()
	a.frame++
	if err != nil {
		return fmt.Errorf("frame %d: %w", state.Frame, err)
	}

	if a.suspended {
		if w, h := a.Device().Surface().Extent(); w <= 0 || h <= 0 {
			return nil
		}
		if err := a.recreate(ctx); err != nil || a.suspended {
			return err
		}
		logger.Info("rendering resumed", "frame", state.Frame)
	}

	err = a.Renderer.Frame(ctx, a.Storage, a.cameraUniform())
	var lost gfx.SurfaceLostError
	if errors.As(err, &lost) {
		return a.recreate(ctx)
	}
	return err
}

// recreate rebuilds the swapchain, suspending rendering while the surface
// has no area.
func (a *App) recreate(ctx context.Context) error {
	err := a.Renderer.Recreate(ctx)
	var lost gfx.SurfaceLostError
	switch {
	case err == nil:
		a.suspended = false
		return nil
	case errors.As(err, &lost):
		if !a.suspended {
			logger.Warn("rendering suspended", bark.KeyError, lost)
		}
		a.suspended = true
		return nil
	}
	return err
}

// cameraUniform derives the camera block from the first entity with a
// Camera and publishes it as a resource.
func (a *App) cameraUniform() components.CameraUniform {
	uniform := components.NewCameraUniform()
	uniform.Projection = a.Renderer.Projection()
	for en := range warehouse.Select(a.Storage, a.cameras) {
		uniform.View = components.CameraComponent.GetFromEntity(en).View()
		break
	}
	warehouse.SetResource(a.Resources(), uniform)
	return uniform
}

// Close waits for the device to finish and destroys it. The surface is
// left to its owner.
func (a *App) Close() error {
	device := a.Device()
	ctx, cancel := context.WithTimeout(context.Background(), gfx.Config.FenceTimeout())
	defer cancel()
	waitErr := device.WaitIdle(ctx)
	if errors.Is(waitErr, gfx.ErrDeviceLost) {
		waitErr = nil
	}
	return errors.Join(waitErr, device.Destroy())
}
