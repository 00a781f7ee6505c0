package shader

import (
	"github.com/TheBitDrifter/woody/gfx"
	"github.com/go-gl/mathgl/mgl32"
)

// Byte offsets shared by the built-in stages.
const (
	CameraProjectionOffset = 0
	CameraViewOffset       = 64
	CameraUniformSize      = 128
	ModelPushOffset        = 0
	ColorPushOffset        = 64
)

var (
	trianglePositions = [3]mgl32.Vec2{{1, 1}, {-1, 1}, {0, -1}}
	triangleColors    = [3]mgl32.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
)

func init() {
	builtin := map[string]Kernel{
		"object.vert":   VertexKernel(objectVertex),
		"object.frag":   FragmentKernel(objectFragment),
		"camera.vert":   VertexKernel(cameraVertex),
		"sdf.frag":      FragmentKernel(sdfFragment),
		"triangle.vert": VertexKernel(triangleVertex),
		"triangle.frag": FragmentKernel(triangleFragment),
	}
	for name, k := range builtin {
		if err := Register(name, k); err != nil {
			panic(err)
		}
	}
}

func viewProjection(b *gfx.Bindings) mgl32.Mat4 {
	return b.UniformMat4(0, CameraProjectionOffset).Mul4(b.UniformMat4(0, CameraViewOffset))
}

func objectVertex(b *gfx.Bindings, in *gfx.VertexInput, out *gfx.VertexOutput) {
	model := b.PushMat4(ModelPushOffset)
	out.Position = viewProjection(b).Mul4(model).Mul4x1(in.Attributes[0].Vec3().Vec4(1))
}

func objectFragment(b *gfx.Bindings, _ *gfx.FragmentInput) (mgl32.Vec4, bool) {
	return b.PushVec4(ColorPushOffset), true
}

func cameraVertex(b *gfx.Bindings, in *gfx.VertexInput, out *gfx.VertexOutput) {
	out.Position = viewProjection(b).Mul4x1(in.Attributes[0].Vec3().Vec4(1))
	out.Varyings[0] = in.Attributes[1].Vec3().Vec4(0)
}

// sdfFragment shades a signed distance field carried in the red channel,
// with the edge at 0.5 antialiased over one pixel.
func sdfFragment(_ *gfx.Bindings, in *gfx.FragmentInput) (mgl32.Vec4, bool) {
	d := in.Varyings[0][0]
	w := in.Fwidth(0)[0]
	return mgl32.Vec4{1, 1, 1, Smoothstep(0.5-w, 0.5+w, d)}, true
}

func triangleVertex(_ *gfx.Bindings, in *gfx.VertexInput, out *gfx.VertexOutput) {
	i := in.Index % 3
	out.Position = mgl32.Vec4{trianglePositions[i][0], trianglePositions[i][1], 0, 1}
	out.Varyings[0] = triangleColors[i].Vec4(0)
}

func triangleFragment(_ *gfx.Bindings, in *gfx.FragmentInput) (mgl32.Vec4, bool) {
	return in.Varyings[0].Vec3().Vec4(1), true
}

// Smoothstep is GLSL's smoothstep. When edge0 == edge1 it is a step that
// yields 0.5 at the edge itself.
func Smoothstep(edge0, edge1, x float32) float32 {
	if edge0 == edge1 {
		switch {
		case x < edge0:
			return 0
		case x > edge0:
			return 1
		}
		return 0.5
	}
	t := mgl32.Clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}
