package gfx

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MaxLocations bounds vertex attribute and varying locations.
	MaxLocations = 8
	// MaxBindings bounds uniform buffer bindings.
	MaxBindings = 4
	// MaxPushConstantSize is the push constant budget in bytes.
	MaxPushConstantSize = 128
)

type ShaderStage int

const (
	StageVertex ShaderStage = iota
	StageFragment
)

func (s ShaderStage) String() string {
	if s == StageFragment {
		return "fragment"
	}
	return "vertex"
}

// VertexShader transforms one vertex. Missing attribute components read
// as (0, 0, 0, 1).
type VertexShader func(b *Bindings, in *VertexInput, out *VertexOutput)

// FragmentShader shades one pixel. Returning false discards it.
type FragmentShader func(b *Bindings, in *FragmentInput) (mgl32.Vec4, bool)

type VertexInput struct {
	Index      int
	Attributes [MaxLocations]mgl32.Vec4
}

type VertexOutput struct {
	Position mgl32.Vec4
	Varyings [MaxLocations]mgl32.Vec4
}

// FragmentInput carries interpolated varyings for one pixel and their
// screen-space derivatives.
type FragmentInput struct {
	X, Y     int
	Depth    float32
	Varyings [MaxLocations]mgl32.Vec4
	Dx, Dy   [MaxLocations]mgl32.Vec4
}

// Fwidth returns abs(dFdx) + abs(dFdy) of the varying at loc.
func (in *FragmentInput) Fwidth(loc int) mgl32.Vec4 {
	var w mgl32.Vec4
	for i := range w {
		w[i] = abs32(in.Dx[loc][i]) + abs32(in.Dy[loc][i])
	}
	return w
}

// Bindings are the resources visible to shader invocations of one draw.
type Bindings struct {
	Uniforms [MaxBindings][]float32
	Push     [MaxPushConstantSize / 4]float32
}

// UniformMat4 reads a column-major mat4 at byte offset of a uniform binding.
func (b *Bindings) UniformMat4(binding, offset int) mgl32.Mat4 {
	var m mgl32.Mat4
	data := b.Uniforms[binding]
	if start := offset / 4; start+16 <= len(data) {
		copy(m[:], data[start:start+16])
	}
	return m
}

func (b *Bindings) PushMat4(offset int) mgl32.Mat4 {
	var m mgl32.Mat4
	copy(m[:], b.Push[offset/4:])
	return m
}

func (b *Bindings) PushVec4(offset int) mgl32.Vec4 {
	var v mgl32.Vec4
	copy(v[:], b.Push[offset/4:])
	return v
}

// VertexAttribute places one vertex input inside an interleaved vertex.
// Offset and Components count floats.
type VertexAttribute struct {
	Location   int
	Offset     int
	Components int
}

type VertexLayout struct {
	Stride     int
	Attributes []VertexAttribute
}

type UniformBinding struct {
	Binding int
	Size    int
}

// PushConstantRange is a byte range of push constants read by a stage.
type PushConstantRange struct {
	Stage  ShaderStage
	Offset int
	Size   int
}

// PushConstantMember is a named member of a stage's push constant block.
type PushConstantMember struct {
	Name   string
	Type   string
	Offset int
	Size   int
}

// Pipeline is a compiled pair of shader stages plus fixed function state.
type Pipeline struct {
	Name          string
	Vertex        VertexShader
	Fragment      FragmentShader
	Layout        VertexLayout
	Uniforms      []UniformBinding
	PushConstants []PushConstantRange
	PushMembers   []PushConstantMember
	Varyings      int
	Derivatives   bool
	Blend         bool
	DepthTest     bool
}

// PushConstantSize is the end of the furthest push constant range in bytes.
func (p *Pipeline) PushConstantSize() int {
	size := 0
	for _, r := range p.PushConstants {
		size = max(size, r.Offset+r.Size)
	}
	return size
}

// PushMember finds a push constant member by name.
func (p *Pipeline) PushMember(name string) (PushConstantMember, bool) {
	for _, m := range p.PushMembers {
		if m.Name == name {
			return m, true
		}
	}
	return PushConstantMember{}, false
}

func (p *Pipeline) uniform(binding int) (UniformBinding, bool) {
	for _, u := range p.Uniforms {
		if u.Binding == binding {
			return u, true
		}
	}
	return UniformBinding{}, false
}

// Validate checks the pipeline fits the device limits.
func (p *Pipeline) Validate() error {
	switch {
	case p.Vertex == nil:
		return fmt.Errorf("pipeline %q has no vertex stage", p.Name)
	case p.Fragment == nil:
		return fmt.Errorf("pipeline %q has no fragment stage", p.Name)
	case p.PushConstantSize() > MaxPushConstantSize:
		return fmt.Errorf("pipeline %q needs %d bytes of push constants, limit is %d", p.Name, p.PushConstantSize(), MaxPushConstantSize)
	case p.Varyings > MaxLocations:
		return fmt.Errorf("pipeline %q uses %d varyings, limit is %d", p.Name, p.Varyings, MaxLocations)
	}
	for _, u := range p.Uniforms {
		if u.Binding < 0 || u.Binding >= MaxBindings {
			return fmt.Errorf("pipeline %q uses uniform binding %d, limit is %d", p.Name, u.Binding, MaxBindings)
		}
	}
	for _, a := range p.Layout.Attributes {
		if a.Location < 0 || a.Location >= MaxLocations {
			return fmt.Errorf("pipeline %q uses attribute location %d, limit is %d", p.Name, a.Location, MaxLocations)
		}
	}
	return nil
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
