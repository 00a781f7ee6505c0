package components

import (
	"github.com/TheBitDrifter/woody/gfx"
	"github.com/TheBitDrifter/woody/warehouse"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	TransformComponent = warehouse.FactoryNewComponent[Transform]()
	MeshComponent      = warehouse.FactoryNewComponent[Mesh]()
	MaterialComponent  = warehouse.FactoryNewComponent[Material]()
	CameraComponent    = warehouse.FactoryNewComponent[Camera]()
)

// Transform places an entity in the world.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform(position mgl32.Vec3) Transform {
	return Transform{
		Position: position,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Model returns translate * rotate * scale. The zero Transform yields the
// identity.
func (t Transform) Model() mgl32.Mat4 {
	rotation := t.Rotation
	if rotation == (mgl32.Quat{}) {
		rotation = mgl32.QuatIdent()
	}
	scale := t.Scale
	if scale == (mgl32.Vec3{}) {
		scale = mgl32.Vec3{1, 1, 1}
	}
	return mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2]).
		Mul4(rotation.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

// Mesh references device buffers. Indices is nil for non-indexed meshes.
type Mesh struct {
	Vertices    *gfx.Buffer
	Indices     *gfx.Buffer
	VertexCount int
	IndexCount  int
}

// Indexed reports whether the mesh draws through its index buffer.
func (m Mesh) Indexed() bool {
	return m.Indices != nil && m.IndexCount > 0
}

// DefaultPipeline draws entities without a Material.
const DefaultPipeline = "object"

// Material selects the pipeline an entity draws with and its flat color.
type Material struct {
	Pipeline string
	Color    mgl32.Vec4
}

func DefaultMaterial() Material {
	return Material{Pipeline: DefaultPipeline, Color: mgl32.Vec4{1, 1, 1, 1}}
}

// CameraUniform is the per-frame camera block shared by every pipeline,
// kept as a resource rather than on an entity.
type CameraUniform struct {
	Projection mgl32.Mat4
	View       mgl32.Mat4
}

func NewCameraUniform() CameraUniform {
	return CameraUniform{Projection: mgl32.Ident4(), View: mgl32.Ident4()}
}

// Floats lays the block out as two column-major matrices.
func (u CameraUniform) Floats() []float32 {
	out := make([]float32, 32)
	copy(out[:16], u.Projection[:])
	copy(out[16:], u.View[:])
	return out
}
