package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/TheBitDrifter/woody/components"
	"github.com/TheBitDrifter/woody/gfx"
	"github.com/TheBitDrifter/woody/shader"
	"github.com/TheBitDrifter/woody/warehouse"
	"github.com/go-gl/mathgl/mgl32"
)

// Stats counts renderer work since creation.
type Stats struct {
	Frames      uint64
	Draws       uint64
	Recreations uint64
}

type drawItem struct {
	model mgl32.Mat4
	color mgl32.Vec4
	mesh  components.Mesh
}

// Renderer draws every entity with a Transform and a Mesh, grouped by the
// pipeline its Material names.
type Renderer struct {
	device   *gfx.Device
	shaders  *shader.Manager
	query    warehouse.QueryNode
	groups   map[string][]drawItem
	unknown  map[string]bool
	// meshless holds pipelines already warned about entities without
	// vertex data.
	meshless map[string]bool
	stats    Stats
}

// New returns a renderer drawing on device. Pipelines compiled by shaders
// are drawn in compile order; the built-in ones are compiled when shaders
// holds none.
func New(device *gfx.Device, shaders *shader.Manager) (*Renderer, error) {
	if device == nil || shaders == nil {
		return nil, errors.New("renderer needs a device and a shader manager")
	}
	if len(shaders.Pipelines()) == 0 {
		if err := shaders.CompileBuiltins(); err != nil {
			return nil, err
		}
	}
	for _, name := range shaders.Pipelines() {
		logger.Debug("pipeline ready", "pipeline", name)
	}
	query := warehouse.Factory.NewQuery()
	return &Renderer{
		device:   device,
		shaders:  shaders,
		query:    query.And(components.TransformComponent, components.MeshComponent),
		groups:   make(map[string][]drawItem),
		unknown:  make(map[string]bool),
		meshless: make(map[string]bool),
	}, nil
}

func (r *Renderer) Device() *gfx.Device {
	return r.device
}

func (r *Renderer) Shaders() *shader.Manager {
	return r.shaders
}

func (r *Renderer) Stats() Stats {
	return r.stats
}

// Aspect is the swapchain's width over height.
func (r *Renderer) Aspect() float32 {
	w, h := r.device.Extent()
	if w <= 0 || h <= 0 {
		return 1
	}
	return float32(w) / float32(h)
}

// Projection is the perspective projection for the current swapchain.
func (r *Renderer) Projection() mgl32.Mat4 {
	near, far := Config.DepthRange()
	return components.Perspective(Config.FieldOfView(), r.Aspect(), near, far)
}

// Recreate rebuilds the swapchain after the surface changed. It returns
// gfx.SurfaceLostError while the surface has no area.
func (r *Renderer) Recreate(ctx context.Context) error {
	if err := r.device.RecreateSwapchain(ctx); err != nil {
		return err
	}
	r.stats.Recreations++
	w, h := r.device.Extent()
	logger.Info("swapchain recreated", "width", w, "height", h)
	return nil
}

// Frame records, submits and presents one frame of sto as seen through
// camera. gfx.SurfaceLostError is returned unwrapped so callers can
// recreate and carry on; any other error is fatal.
func (r *Renderer) Frame(ctx context.Context, sto warehouse.Storage, camera components.CameraUniform) error {
	frame, err := r.device.BeginFrame(ctx)
	if err != nil {
		return frameError("beginning frame", err)
	}
	defer frame.End()

	r.collect(sto)
	cmd := frame.Commands()
	cmd.BeginRenderPass(Config.ClearColor())
	uniform := camera.Floats()
	for _, name := range r.shaders.Pipelines() {
		items := r.groups[name]
		if len(items) == 0 {
			continue
		}
		p, _ := r.shaders.Pipeline(name)
		record(cmd, p, uniform, items)
	}
	cmd.EndRenderPass()

	draws := cmd.Draws()
	if err := frame.Submit(); err != nil {
		return fmt.Errorf("submitting frame %d: %w", frame.Number(), err)
	}
	if err := frame.Present(); err != nil {
		return frameError(fmt.Sprintf("presenting frame %d", frame.Number()), err)
	}
	r.stats.Frames++
	r.stats.Draws += uint64(draws)
	return nil
}

func frameError(op string, err error) error {
	var lost gfx.SurfaceLostError
	if errors.As(err, &lost) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

// collect groups renderables by pipeline in query order.
func (r *Renderer) collect(sto warehouse.Storage) {
	for name, items := range r.groups {
		r.groups[name] = items[:0]
	}
	for en := range warehouse.Select(sto, r.query) {
		material := components.DefaultMaterial()
		if ok, m := components.MaterialComponent.GetFromEntitySafe(en); ok {
			material = *m
			if material.Pipeline == "" {
				material.Pipeline = components.DefaultPipeline
			}
		}
		p, ok := r.shaders.Pipeline(material.Pipeline)
		if !ok {
			if !r.unknown[material.Pipeline] {
				r.unknown[material.Pipeline] = true
				logger.Warn("skipping entities using unknown pipeline", "pipeline", material.Pipeline)
			}
			continue
		}
		mesh := *components.MeshComponent.GetFromEntity(en)
		if mesh.Vertices == nil && p.Layout.Stride > 0 {
			if !r.meshless[material.Pipeline] {
				r.meshless[material.Pipeline] = true
				logger.Warn("skipping entities without vertex data", "pipeline", material.Pipeline, "entity", en.ID())
			}
			continue
		}
		r.groups[material.Pipeline] = append(r.groups[material.Pipeline], drawItem{
			model: components.TransformComponent.GetFromEntity(en).Model(),
			color: material.Color,
			mesh:  mesh,
		})
	}
}

func record(cmd *gfx.CommandBuffer, p *gfx.Pipeline, uniform []float32, items []drawItem) {
	cmd.BindPipeline(p)
	for _, u := range p.Uniforms {
		if u.Binding == 0 && u.Size == shader.CameraUniformSize {
			cmd.BindUniform(0, uniform)
		}
	}
	model, pushModel := p.PushMember("model")
	pushModel = pushModel && model.Type == "mat4"
	color, pushColor := p.PushMember("color")
	pushColor = pushColor && color.Type == "vec4"
	for _, item := range items {
		if pushModel {
			cmd.PushConstants(model.Offset, item.model[:])
		}
		if pushColor {
			cmd.PushConstants(color.Offset, item.color[:])
		}
		if item.mesh.Indexed() {
			cmd.DrawIndexed(item.mesh.Vertices, item.mesh.Indices, item.mesh.IndexCount)
		} else {
			cmd.Draw(item.mesh.Vertices, item.mesh.VertexCount, 0)
		}
	}
}
