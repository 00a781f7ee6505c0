// Command woody renders a small scene of spinning shapes, in the terminal
// by default.
//
//	woody -surface=terminal -log=woody.log
//	woody -surface=headless -frames=120 -profile=cpu
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/woody"
	"github.com/TheBitDrifter/woody/components"
	"github.com/TheBitDrifter/woody/gfx"
	"github.com/TheBitDrifter/woody/render"
	"github.com/TheBitDrifter/woody/warehouse"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/profile"
)

type options struct {
	surface string
	width   int
	height  int
	frames  uint64
	fps     int
	profile string
	logPath string
	vulkan  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.surface, "surface", "terminal", "where frames are presented: terminal or headless")
	flag.IntVar(&opts.width, "width", 160, "headless surface width in pixels")
	flag.IntVar(&opts.height, "height", 90, "headless surface height in pixels")
	flag.Uint64Var(&opts.frames, "frames", 0, "stop after this many frames, 0 runs until interrupted")
	flag.IntVar(&opts.fps, "fps", 30, "target frames per second, 0 is uncapped")
	flag.StringVar(&opts.profile, "profile", "", "write a cpu or mem profile to the working directory")
	flag.StringVar(&opts.logPath, "log", "", "log file; terminal runs discard logs without one")
	flag.BoolVar(&opts.vulkan, "vulkan", false, "probe Vulkan adapters, needs a build with -tags vulkan")
	flag.Parse()

	if err := run(opts); err != nil {
		logger.Error("exiting", bark.KeyError, err)
		fmt.Fprintln(os.Stderr, "woody:", err)
		os.Exit(1)
	}
}

var logger = bark.For("cmd")

func run(opts options) error {
	if err := setupLogging(opts); err != nil {
		return err
	}
	switch opts.profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return fmt.Errorf("unknown profile %q", opts.profile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		surface gfx.Surface
		quit    <-chan struct{}
	)
	switch opts.surface {
	case "terminal":
		term, err := gfx.OpenTerminal()
		if err != nil {
			return err
		}
		surface, quit = term, term.Quit()
	case "headless":
		surface = gfx.NewHeadlessSurface(opts.width, opts.height)
	default:
		return fmt.Errorf("unknown surface %q", opts.surface)
	}
	defer surface.Close()

	if quit != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		go func() {
			select {
			case <-quit:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	var adapters []gfx.AdapterInfo
	if opts.vulkan {
		found, err := gfx.VulkanAdapters()
		if err != nil {
			logger.Warn("vulkan adapters unavailable", bark.KeyError, err)
		}
		// The software adapter stays available as a fallback.
		adapters = append(found, gfx.SoftwareAdapter())
	}

	woody.Config.SetTargetFPS(opts.fps)
	woody.Config.SetMaxFrames(opts.frames)
	render.Config.SetClearColor(mgl32.Vec4{0.05, 0.05, 0.1, 1})

	app, err := woody.New(surface, adapters...)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Systems.OnCreate(populate)
	app.Systems.OnUpdate(woody.UpdateSystem(spin, 0))
	app.Systems.OnUpdate(woody.UpdateSystem(orbit, 1))
	return app.Run(ctx)
}

func setupLogging(opts options) error {
	var out io.Writer = os.Stderr
	switch {
	case opts.logPath != "":
		f, err := os.OpenFile(opts.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		out = f
	case opts.surface == "terminal":
		out = io.Discard
	}
	base := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: logLevel()}))
	logger = base.With(bark.KeyComponent, "cmd")
	woody.Config.SetLogger(base.With(bark.KeyComponent, "woody"))
	gfx.Config.SetLogger(base.With(bark.KeyComponent, "gfx"))
	render.Config.SetLogger(base.With(bark.KeyComponent, "render"))
	warehouse.Config.SetLogger(base.With(bark.KeyComponent, "warehouse"))
	return nil
}

// logLevel reads LOG_LEVEL the way bark does for its own loggers.
func logLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv("LOG_LEVEL"))); err != nil {
		return bark.LevelInfo
	}
	return level
}

// Spinning marks entities turned by the spin system.
type Spinning struct {
	Axis  mgl32.Vec3
	Speed float32
}

var spinningComponent = warehouse.FactoryNewComponent[Spinning]()

func populate(app *woody.App) error {
	dev := app.Device()
	sto := app.Storage

	camera, err := warehouse.Spawn(sto, components.CameraComponent)
	if err != nil {
		return err
	}
	if err := warehouse.Attach(camera, components.CameraComponent, components.Camera{Position: mgl32.Vec3{0, 0.5, 4}, Pitch: -0.1}); err != nil {
		return err
	}

	cube, err := components.NewCubeMesh(dev)
	if err != nil {
		return err
	}
	rect, err := components.NewRectangleMesh(dev, mgl32.Vec2{1.2, 0.6})
	if err != nil {
		return err
	}
	glyph, err := components.NewGlyphMesh(dev, mgl32.Vec2{1, 1}, [4]float32{0, 1, 1, 0})
	if err != nil {
		return err
	}

	shapes := []struct {
		mesh     components.Mesh
		position mgl32.Vec3
		material components.Material
		spin     Spinning
	}{
		{cube, mgl32.Vec3{0, 0, 0}, components.Material{Pipeline: "object", Color: mgl32.Vec4{0.9, 0.4, 0.2, 1}}, Spinning{mgl32.Vec3{0.3, 1, 0}.Normalize(), 1}},
		{rect, mgl32.Vec3{-2, -0.3, -1}, components.Material{Pipeline: "object", Color: mgl32.Vec4{0.2, 0.6, 0.9, 1}}, Spinning{mgl32.Vec3{0, 0, 1}, 0.5}},
		{glyph, mgl32.Vec3{1.3, -0.5, 0}, components.Material{Pipeline: "glyph"}, Spinning{mgl32.Vec3{0, 1, 0}, -0.8}},
	}
	for _, s := range shapes {
		en, err := warehouse.Spawn(sto, components.TransformComponent, components.MeshComponent, components.MaterialComponent, spinningComponent)
		if err != nil {
			return err
		}
		errs := errors.Join(
			warehouse.Attach(en, components.TransformComponent, components.NewTransform(s.position)),
			warehouse.Attach(en, components.MeshComponent, s.mesh),
			warehouse.Attach(en, components.MaterialComponent, s.material),
			warehouse.Attach(en, spinningComponent, s.spin),
		)
		if errs != nil {
			return errs
		}
	}
	return nil
}

var spinners = warehouse.Factory.NewQuery().And(components.TransformComponent, spinningComponent)

func spin(app *woody.App, state woody.GameState) error {
	dt := float32(state.DeltaTime.Seconds())
	for en := range warehouse.Select(app.Storage, spinners) {
		s := spinningComponent.GetFromEntity(en)
		t := components.TransformComponent.GetFromEntity(en)
		t.Rotation = mgl32.QuatRotate(s.Speed*dt, s.Axis).Mul(t.Rotation).Normalize()
	}
	return nil
}

var cameras = warehouse.Factory.NewQuery().And(components.CameraComponent)

// orbit sways the camera from side to side.
func orbit(app *woody.App, state woody.GameState) error {
	for en := range warehouse.Select(app.Storage, cameras) {
		c := components.CameraComponent.GetFromEntity(en)
		phase := float32(state.Frame%240) / 240
		c.YawBy(0.003 * mgl32.Abs(phase*2-1) * sign(phase-0.5))
	}
	return nil
}

func sign(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}
