package shader

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/TheBitDrifter/woody/gfx"
)

func TestCompileBuiltins(t *testing.T) {
	m := NewManager(8)
	if err := m.CompileBuiltins(); err != nil {
		t.Fatal(err)
	}
	if got := m.Pipelines(); !slices.Equal(got, []string{"object", "glyph", "triangle"}) {
		t.Errorf("Unexpected pipeline order %v", got)
	}

	t.Run("object", func(t *testing.T) {
		p, ok := m.Pipeline("object")
		if !ok {
			t.Fatal("object pipeline missing")
		}
		if p.Layout.Stride != 3 || len(p.Layout.Attributes) != 1 {
			t.Errorf("Unexpected layout %+v", p.Layout)
		}
		if len(p.Uniforms) != 1 || p.Uniforms[0] != (gfx.UniformBinding{Binding: 0, Size: CameraUniformSize}) {
			t.Errorf("Unexpected uniforms %+v", p.Uniforms)
		}
		want := []gfx.PushConstantRange{
			{Stage: gfx.StageVertex, Offset: 0, Size: 64},
			{Stage: gfx.StageFragment, Offset: 64, Size: 16},
		}
		if !slices.Equal(p.PushConstants, want) {
			t.Errorf("Expected push ranges %v, got %v", want, p.PushConstants)
		}
		if p.PushConstantSize() != 80 || !p.DepthTest || p.Blend {
			t.Errorf("Unexpected fixed state %+v", p)
		}
	})

	t.Run("glyph", func(t *testing.T) {
		p, _ := m.Pipeline("glyph")
		if p.Layout.Stride != 6 || p.Layout.Attributes[1] != (gfx.VertexAttribute{Location: 1, Offset: 3, Components: 3}) {
			t.Errorf("Unexpected layout %+v", p.Layout)
		}
		if !p.Blend || !p.Derivatives || p.Varyings != 1 {
			t.Errorf("Unexpected glyph state %+v", p)
		}
		if len(p.PushConstants) != 0 {
			t.Errorf("Expected no push constants, got %v", p.PushConstants)
		}
	})

	t.Run("triangle", func(t *testing.T) {
		p, _ := m.Pipeline("triangle")
		if p.Layout.Stride != 0 || len(p.Uniforms) != 0 {
			t.Errorf("Expected no inputs or uniforms, got %+v", p)
		}
	})
}

func TestCompileIsCached(t *testing.T) {
	m := NewManager(4)
	first, err := m.Compile(ObjectPipeline)
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.Compile(ObjectPipeline)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("Expected the cached pipeline")
	}
	if len(m.Pipelines()) != 1 || m.Index("object") != 0 || m.Index("glyph") != -1 {
		t.Errorf("Unexpected pipelines %v", m.Pipelines())
	}
}

func TestCompileErrors(t *testing.T) {
	const vert = `#version 450
layout(location = 0) in vec3 position;
layout(location = 0) out vec3 fragColor;
void main() {}
`
	tests := []struct {
		name    string
		sources map[string]string
		desc    PipelineDesc
		message string
	}{
		{
			name: "type mismatch",
			sources: map[string]string{
				"link.vert": vert,
				"link.frag": "#version 450\nlayout(location = 0) in vec4 fragColor;\nlayout(location = 0) out vec4 outColor;\nvoid main() {}\n",
			},
			desc:    PipelineDesc{Name: "link", Vertex: "link.vert", Fragment: "link.frag"},
			message: "link.frag:2:1: input 'fragColor' is vec4",
		},
		{
			name: "unwritten input",
			sources: map[string]string{
				"link.vert": vert,
				"link.frag": "#version 450\nlayout(location = 3) in vec3 uv;\nlayout(location = 0) out vec4 outColor;\nvoid main() {}\n",
			},
			desc:    PipelineDesc{Name: "link", Vertex: "link.vert", Fragment: "link.frag"},
			message: "not written by link.vert",
		},
		{
			name: "missing color output",
			sources: map[string]string{
				"link.vert": vert,
				"link.frag": "#version 450\nlayout(location = 0) out vec3 outColor;\nvoid main() {}\n",
			},
			desc:    PipelineDesc{Name: "link", Vertex: "link.vert", Fragment: "link.frag"},
			message: "must write a vec4 color",
		},
		{
			name: "missing kernel",
			sources: map[string]string{
				"nokernel.vert": vert,
			},
			desc:    PipelineDesc{Name: "nokernel", Vertex: "nokernel.vert", Fragment: "triangle.frag"},
			message: "no vertex kernel registered",
		},
		{
			name:    "missing source",
			desc:    PipelineDesc{Name: "nosource", Vertex: "nosource.vert", Fragment: "object.frag"},
			message: "source not found",
		},
		{
			name:    "swapped stages",
			desc:    PipelineDesc{Name: "swapped", Vertex: "object.frag", Fragment: "object.vert"},
			message: "not a vertex stage source",
		},
		{
			name: "conflicting uniform blocks",
			sources: map[string]string{
				"tint.frag": `#version 450
layout(location = 0) in vec3 fragColor;
layout(binding = 0) uniform Tint { vec4 color; } tint;
layout(location = 0) out vec4 outColor;
void main() {}
`,
			},
			desc:    PipelineDesc{Name: "tint", Vertex: "camera.vert", Fragment: "tint.frag"},
			message: "differs from 'CameraUniform'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(4)
			for name, src := range tt.sources {
				if err := m.AddSource(name, []byte(src)); err != nil {
					t.Fatal(err)
				}
			}
			_, err := m.Compile(tt.desc)
			var compileErr ShaderCompileError
			if !errors.As(err, &compileErr) {
				t.Fatalf("Expected ShaderCompileError, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("Expected %q in %q", tt.message, err.Error())
			}
			if len(m.Pipelines()) != 0 {
				t.Errorf("Failed pipeline was cached: %v", m.Pipelines())
			}
		})
	}
}

func TestAddSourceShadowsBuiltin(t *testing.T) {
	m := NewManager(4)
	if err := m.AddSource("object.frag", []byte("#version 450\nvoid main() {\n")); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Compile(ObjectPipeline); err == nil {
		t.Error("Expected the shadowing source to fail")
	}
	if err := m.AddSource("object.glsl", nil); err == nil {
		t.Error("Expected extension error")
	}
}

func TestCompileCapacity(t *testing.T) {
	m := NewManager(1)
	if _, err := m.Compile(ObjectPipeline); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Compile(TrianglePipeline); err == nil {
		t.Error("Expected capacity error")
	}
}
