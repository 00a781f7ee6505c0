package render

import (
	"context"
	"errors"
	"image/color"
	"io"
	"os"
	"testing"

	"github.com/TheBitDrifter/table"
	"github.com/TheBitDrifter/woody/components"
	"github.com/TheBitDrifter/woody/gfx"
	"github.com/TheBitDrifter/woody/shader"
	"github.com/TheBitDrifter/woody/warehouse"
	"github.com/go-gl/mathgl/mgl32"
)

func TestMain(m *testing.M) {
	gfx.Config.SetLogOutput(io.Discard)
	Config.SetLogOutput(io.Discard)
	os.Exit(m.Run())
}

var (
	red  = mgl32.Vec4{1, 0, 0, 1}
	blue = mgl32.Vec4{0, 0, 1, 1}
)

type fixture struct {
	surface  *gfx.HeadlessSurface
	device   *gfx.Device
	renderer *Renderer
	storage  warehouse.Storage
	camera   components.CameraUniform
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	surface := gfx.NewHeadlessSurface(8, 8)
	device, err := gfx.Initialize(surface)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { device.Destroy() })
	renderer, err := New(device, shader.NewManager(8))
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{
		surface:  surface,
		device:   device,
		renderer: renderer,
		storage:  warehouse.Factory.NewStorage(table.Factory.NewSchema()),
		camera:   components.NewCameraUniform(),
	}
}

// quad spawns a rectangle covering clip space at depth z.
func (f *fixture) quad(t *testing.T, z float32, material *components.Material) warehouse.Entity {
	t.Helper()
	mesh, err := components.NewRectangleMesh(f.device, mgl32.Vec2{2, 2})
	if err != nil {
		t.Fatal(err)
	}
	en, err := warehouse.Spawn(f.storage, components.TransformComponent, components.MeshComponent)
	if err != nil {
		t.Fatal(err)
	}
	if err := warehouse.Attach(en, components.TransformComponent, components.NewTransform(mgl32.Vec3{-1, -1, z})); err != nil {
		t.Fatal(err)
	}
	if err := warehouse.Attach(en, components.MeshComponent, mesh); err != nil {
		t.Fatal(err)
	}
	if material != nil {
		if err := warehouse.Attach(en, components.MaterialComponent, *material); err != nil {
			t.Fatal(err)
		}
	}
	return en
}

func (f *fixture) frame(t *testing.T) {
	t.Helper()
	if err := f.renderer.Frame(context.Background(), f.storage, f.camera); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) pixel(x, y int) color.RGBA {
	return f.surface.LastImage().RGBAAt(x, y)
}

func TestFrameDrawsRenderables(t *testing.T) {
	f := newFixture(t)
	f.quad(t, 0, &components.Material{Pipeline: "object", Color: red})
	f.frame(t)

	if got := f.pixel(4, 4); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("Expected red, got %v", got)
	}
	if stats := f.renderer.Stats(); stats.Frames != 1 || stats.Draws != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestFrameDefaultsToWhiteObject(t *testing.T) {
	f := newFixture(t)
	f.quad(t, 0, nil)
	f.frame(t)
	if got := f.pixel(0, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("Expected white, got %v", got)
	}
}

func TestFrameSkipsIncompleteEntities(t *testing.T) {
	f := newFixture(t)
	if _, err := warehouse.Spawn(f.storage, components.TransformComponent); err != nil {
		t.Fatal(err)
	}
	if _, err := warehouse.Spawn(f.storage, components.MeshComponent, components.MaterialComponent); err != nil {
		t.Fatal(err)
	}
	Config.SetClearColor(mgl32.Vec4{0, 1, 0, 1})
	defer Config.SetClearColor(mgl32.Vec4{0, 0, 0, 1})

	f.frame(t)
	if stats := f.renderer.Stats(); stats.Draws != 0 {
		t.Errorf("Expected no draws, got %d", stats.Draws)
	}
	if got := f.pixel(3, 3); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("Expected the clear color, got %v", got)
	}
}

func TestFrameSkipsMeshesWithoutVertices(t *testing.T) {
	f := newFixture(t)
	if _, err := warehouse.Spawn(f.storage, components.TransformComponent, components.MeshComponent); err != nil {
		t.Fatal(err)
	}
	f.quad(t, 0, &components.Material{Pipeline: "object", Color: blue})

	for range 2 {
		f.frame(t)
	}
	if stats := f.renderer.Stats(); stats.Frames != 2 || stats.Draws != 2 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if got := f.pixel(4, 4); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("Expected blue, got %v", got)
	}
}

func TestFrameDepthOrdersAcrossDraws(t *testing.T) {
	f := newFixture(t)
	f.quad(t, -0.5, &components.Material{Pipeline: "object", Color: blue})
	f.quad(t, 0.5, &components.Material{Pipeline: "object", Color: red})
	f.frame(t)
	if got := f.pixel(4, 4); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("Expected the nearer blue quad, got %v", got)
	}
}

func TestFrameGroupsByPipeline(t *testing.T) {
	f := newFixture(t)
	f.quad(t, 0, &components.Material{Pipeline: "triangle"})
	f.quad(t, 0, &components.Material{Pipeline: "object", Color: red})
	f.quad(t, 0, &components.Material{Pipeline: "missing"})
	f.frame(t)

	if stats := f.renderer.Stats(); stats.Draws != 2 {
		t.Errorf("Expected two draws, got %d", stats.Draws)
	}
	// triangle draws after object without a depth test.
	if got := f.pixel(4, 1); got == (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("Expected the triangle pipeline to draw after object, got %v", got)
	}
}

const reorderedPush = `layout(push_constant) uniform Push {
    vec4 color;
    mat4 model;
} push;
`

func TestFramePushesByMemberName(t *testing.T) {
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(shader.Register("reordered.vert", shader.VertexKernel(func(b *gfx.Bindings, in *gfx.VertexInput, out *gfx.VertexOutput) {
		out.Position = b.PushMat4(16).Mul4x1(in.Attributes[0].Vec3().Vec4(1))
	})))
	must(shader.Register("reordered.frag", shader.FragmentKernel(func(b *gfx.Bindings, _ *gfx.FragmentInput) (mgl32.Vec4, bool) {
		return b.PushVec4(0), true
	})))

	f := newFixture(t)
	shaders := f.renderer.Shaders()
	must(shaders.AddSource("reordered.vert", []byte("#version 450\nlayout(location = 0) in vec3 position;\n"+reorderedPush+
		"void main() {\n    gl_Position = push.model * vec4(position, 1.0);\n}\n")))
	must(shaders.AddSource("reordered.frag", []byte("#version 450\n"+reorderedPush+
		"layout(location = 0) out vec4 outColor;\nvoid main() {\n    outColor = push.color;\n}\n")))
	p, err := shaders.Compile(shader.PipelineDesc{Name: "reordered", Vertex: "reordered.vert", Fragment: "reordered.frag"})
	must(err)
	if m, ok := p.PushMember("model"); !ok || m.Offset != 16 {
		t.Fatalf("Expected model at offset 16, got %+v", m)
	}

	f.quad(t, 0, &components.Material{Pipeline: "reordered", Color: red})
	f.frame(t)
	if got := f.pixel(4, 4); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("Expected red, got %v", got)
	}
}

func TestFrameSurfaceLost(t *testing.T) {
	f := newFixture(t)
	f.quad(t, 0, nil)
	f.frame(t)

	f.surface.Resize(16, 8)
	err := f.renderer.Frame(context.Background(), f.storage, f.camera)
	if _, ok := err.(gfx.SurfaceLostError); !ok {
		t.Fatalf("Expected an unwrapped SurfaceLostError, got %v", err)
	}
	if err := f.renderer.Recreate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if aspect := f.renderer.Aspect(); aspect != 2 {
		t.Errorf("Expected aspect 2, got %v", aspect)
	}
	f.frame(t)

	if stats := f.renderer.Stats(); stats.Frames != 2 || stats.Recreations != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if img := f.surface.LastImage(); img.Bounds().Dx() != 16 {
		t.Errorf("Expected a 16 pixel wide image, got %v", img.Bounds())
	}
}

func TestRecreateZeroExtent(t *testing.T) {
	f := newFixture(t)
	f.surface.Resize(0, 0)
	err := f.renderer.Recreate(context.Background())
	var lost gfx.SurfaceLostError
	if !errors.As(err, &lost) {
		t.Errorf("Expected SurfaceLostError, got %v", err)
	}
}

func TestFrameFatalErrorsAreWrapped(t *testing.T) {
	f := newFixture(t)
	f.device.Destroy()
	err := f.renderer.Frame(context.Background(), f.storage, f.camera)
	if !errors.Is(err, gfx.ErrDeviceLost) {
		t.Errorf("Expected ErrDeviceLost, got %v", err)
	}
}

func TestProjectionFollowsConfig(t *testing.T) {
	f := newFixture(t)
	Config.SetFieldOfView(90)
	defer Config.SetFieldOfView(45)
	want := mgl32.Perspective(mgl32.DegToRad(90), 1, 0.1, 1000)
	if !f.renderer.Projection().ApproxEqual(want) {
		t.Errorf("Expected %v, got %v", want, f.renderer.Projection())
	}
}

func BenchmarkFrame(b *testing.B) {
	gfx.Config.SetLogOutput(io.Discard)
	surface := gfx.NewHeadlessSurface(64, 32)
	device, err := gfx.Initialize(surface)
	if err != nil {
		b.Fatal(err)
	}
	defer device.Destroy()
	renderer, err := New(device, shader.NewManager(8))
	if err != nil {
		b.Fatal(err)
	}
	sto := warehouse.Factory.NewStorage(table.Factory.NewSchema())
	cube, _ := components.NewCubeMesh(device)
	entities, _ := sto.NewEntities(100, components.TransformComponent, components.MeshComponent)
	for i, en := range entities {
		*components.TransformComponent.GetFromEntity(en) = components.NewTransform(mgl32.Vec3{float32(i%10) - 5, float32(i/10) - 5, -10})
		*components.MeshComponent.GetFromEntity(en) = cube
	}
	camera := components.CameraUniform{Projection: renderer.Projection(), View: mgl32.Ident4()}

	b.ResetTimer()
	for range b.N {
		if err := renderer.Frame(context.Background(), sto, camera); err != nil {
			b.Fatal(err)
		}
	}
}
