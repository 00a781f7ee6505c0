package shader

import (
	"fmt"
	"slices"

	"github.com/TheBitDrifter/woody/gfx"
	"github.com/TheBitDrifter/woody/warehouse"
)

// PipelineDesc names the two stages of a pipeline and its fixed function
// state.
type PipelineDesc struct {
	Name      string
	Vertex    string
	Fragment  string
	Blend     bool
	DepthTest bool
}

var (
	ObjectPipeline = PipelineDesc{
		Name:      "object",
		Vertex:    "object.vert",
		Fragment:  "object.frag",
		DepthTest: true,
	}
	GlyphPipeline = PipelineDesc{
		Name:      "glyph",
		Vertex:    "camera.vert",
		Fragment:  "sdf.frag",
		Blend:     true,
		DepthTest: true,
	}
	TrianglePipeline = PipelineDesc{
		Name:     "triangle",
		Vertex:   "triangle.vert",
		Fragment: "triangle.frag",
	}
)

// Manager compiles and caches pipelines. Pipelines keep the order they were
// first compiled in. A Manager is not safe for concurrent use.
type Manager struct {
	sources map[string][]byte
	cache   warehouse.Cache[*gfx.Pipeline]
}

// NewManager returns a manager holding at most capacity pipelines. Sources
// added with AddSource shadow the embedded ones.
func NewManager(capacity int) *Manager {
	return &Manager{
		sources: make(map[string][]byte),
		cache:   warehouse.FactoryNewCache[*gfx.Pipeline](capacity),
	}
}

func (m *Manager) AddSource(name string, src []byte) error {
	if _, ok := StageFor(name); !ok {
		return fmt.Errorf("source %s: extension must be .vert or .frag", name)
	}
	m.sources[name] = slices.Clone(src)
	return nil
}

func (m *Manager) source(name string) ([]byte, bool) {
	if src, ok := m.sources[name]; ok {
		return src, true
	}
	return builtinSource(name)
}

// Pipeline returns a compiled pipeline by name.
func (m *Manager) Pipeline(name string) (*gfx.Pipeline, bool) {
	idx, ok := m.cache.GetIndex(name)
	if !ok {
		return nil, false
	}
	return *m.cache.GetItem(idx), true
}

// Pipelines returns pipeline names in compile order.
func (m *Manager) Pipelines() []string {
	return m.cache.Keys()
}

// Index is a pipeline's position in compile order, or -1.
func (m *Manager) Index(name string) int {
	idx, ok := m.cache.GetIndex(name)
	if !ok {
		return -1
	}
	return idx - 1
}

// CompileBuiltins compiles the object, glyph and triangle pipelines.
func (m *Manager) CompileBuiltins() error {
	for _, desc := range []PipelineDesc{ObjectPipeline, GlyphPipeline, TrianglePipeline} {
		if _, err := m.Compile(desc); err != nil {
			return err
		}
	}
	return nil
}

// Compile parses and links the stages of desc. A pipeline already compiled
// under desc.Name is returned from the cache.
func (m *Manager) Compile(desc PipelineDesc) (*gfx.Pipeline, error) {
	if p, ok := m.Pipeline(desc.Name); ok {
		return p, nil
	}
	vs, err := m.parseStage(desc.Vertex, Vertex)
	if err != nil {
		return nil, err
	}
	fs, err := m.parseStage(desc.Fragment, Fragment)
	if err != nil {
		return nil, err
	}
	if err := link(vs, fs); err != nil {
		return nil, err
	}

	layout, err := vertexLayout(vs)
	if err != nil {
		return nil, err
	}
	uniforms, err := mergeUniforms(vs, fs)
	if err != nil {
		return nil, err
	}

	// Kernels are bound once the stage interfaces are known to agree.
	vk, ok := lookupKernel(desc.Vertex)
	vertex, isVertex := vk.(VertexKernel)
	if !ok || !isVertex {
		return nil, missingKernel(desc.Vertex, Vertex)
	}
	fk, ok := lookupKernel(desc.Fragment)
	fragment, isFragment := fk.(FragmentKernel)
	if !ok || !isFragment {
		return nil, missingKernel(desc.Fragment, Fragment)
	}

	p := &gfx.Pipeline{
		Name:          desc.Name,
		Vertex:        gfx.VertexShader(vertex),
		Fragment:      gfx.FragmentShader(fragment),
		Layout:        layout,
		Uniforms:      uniforms,
		PushConstants: pushRanges(vs, fs),
		PushMembers:   pushMembers(vs, fs),
		Blend:         desc.Blend,
		DepthTest:     desc.DepthTest,
		Derivatives:   fs.UsesDerivatives,
	}
	for _, out := range vs.Outputs {
		p.Varyings = max(p.Varyings, out.Location+1)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if _, err := m.cache.Register(desc.Name, p); err != nil {
		return nil, fmt.Errorf("caching pipeline %s: %w", desc.Name, err)
	}
	return p, nil
}

func (m *Manager) parseStage(name string, stage Stage) (*Module, error) {
	if got, ok := StageFor(name); !ok || got != stage {
		return nil, ShaderCompileError{Name: name, Stage: stage, Diagnostics: []Diagnostic{
			{Source: name, Line: 1, Column: 1, Message: fmt.Sprintf("not a %s stage source", stage)},
		}}
	}
	src, ok := m.source(name)
	if !ok {
		return nil, ShaderCompileError{Name: name, Stage: stage, Diagnostics: []Diagnostic{
			{Source: name, Line: 1, Column: 1, Message: "source not found"},
		}}
	}
	return Parse(name, stage, src)
}

func missingKernel(name string, stage Stage) error {
	return ShaderCompileError{Name: name, Stage: stage, Diagnostics: []Diagnostic{
		{Source: name, Line: 1, Column: 1, Message: fmt.Sprintf("no %s kernel registered", stage)},
	}}
}

// link checks every fragment input is written by the vertex stage and the
// fragment stage writes a color.
func link(vs, fs *Module) error {
	var diags []Diagnostic
	for _, in := range fs.Inputs {
		out, ok := vs.Output(in.Location)
		switch {
		case !ok:
			diags = append(diags, Diagnostic{Source: fs.Name, Line: in.Line, Column: 1,
				Message: fmt.Sprintf("input '%s' at location %d is not written by %s", in.Name, in.Location, vs.Name)})
		case out.Type != in.Type || out.ArrayLen != in.ArrayLen:
			diags = append(diags, Diagnostic{Source: fs.Name, Line: in.Line, Column: 1,
				Message: fmt.Sprintf("input '%s' is %s, %s writes %s at location %d", in.Name, in.Type, vs.Name, out.Type, in.Location)})
		}
	}
	if out, ok := fs.Output(0); !ok || out.Type != "vec4" {
		diags = append(diags, Diagnostic{Source: fs.Name, Line: 1, Column: 1,
			Message: "fragment stage must write a vec4 color at location 0"})
	}
	if len(diags) > 0 {
		return ShaderCompileError{Name: fs.Name, Stage: Fragment, Diagnostics: diags}
	}
	return nil
}

// vertexLayout packs vertex inputs in location order.
func vertexLayout(vs *Module) (gfx.VertexLayout, error) {
	inputs := slices.Clone(vs.Inputs)
	slices.SortFunc(inputs, func(a, b Variable) int { return a.Location - b.Location })

	var layout gfx.VertexLayout
	for _, in := range inputs {
		if in.ArrayLen > 0 {
			return layout, ShaderCompileError{Name: vs.Name, Stage: Vertex, Diagnostics: []Diagnostic{
				{Source: vs.Name, Line: in.Line, Column: 1, Message: fmt.Sprintf("array vertex input '%s' is not supported", in.Name)},
			}}
		}
		n := builtinTypes[in.Type].components
		layout.Attributes = append(layout.Attributes, gfx.VertexAttribute{
			Location:   in.Location,
			Offset:     layout.Stride,
			Components: n,
		})
		layout.Stride += n
	}
	return layout, nil
}

func mergeUniforms(vs, fs *Module) ([]gfx.UniformBinding, error) {
	var bindings []gfx.UniformBinding
	for _, b := range vs.Uniforms {
		bindings = append(bindings, gfx.UniformBinding{Binding: b.Binding, Size: b.Size})
	}
	for i := range fs.Uniforms {
		b := &fs.Uniforms[i]
		if other, ok := vs.Uniform(b.Binding); ok {
			if !other.sameLayout(b) {
				return nil, ShaderCompileError{Name: fs.Name, Stage: Fragment, Diagnostics: []Diagnostic{
					{Source: fs.Name, Line: b.Line, Column: 1, Message: fmt.Sprintf("block '%s' at binding %d differs from '%s' in %s", b.Name, b.Binding, other.Name, vs.Name)},
				}}
			}
			continue
		}
		bindings = append(bindings, gfx.UniformBinding{Binding: b.Binding, Size: b.Size})
	}
	slices.SortFunc(bindings, func(a, b gfx.UniformBinding) int { return a.Binding - b.Binding })
	return bindings, nil
}

// pushMembers lists the push constant members of both stages, the vertex
// stage's declaration first when both name a member.
func pushMembers(vs, fs *Module) []gfx.PushConstantMember {
	var members []gfx.PushConstantMember
	seen := make(map[string]bool)
	for _, mod := range []*Module{vs, fs} {
		if mod.PushConstant == nil {
			continue
		}
		for _, m := range mod.PushConstant.Members {
			if seen[m.Name] {
				continue
			}
			seen[m.Name] = true
			members = append(members, gfx.PushConstantMember{Name: m.Name, Type: m.Type, Offset: m.Offset, Size: m.Size})
		}
	}
	return members
}

func pushRanges(vs, fs *Module) []gfx.PushConstantRange {
	var ranges []gfx.PushConstantRange
	for _, mod := range []*Module{vs, fs} {
		if mod.PushConstant == nil {
			continue
		}
		offset, size := mod.PushConstant.Range()
		if size == 0 {
			continue
		}
		ranges = append(ranges, gfx.PushConstantRange{Stage: mod.Stage, Offset: offset, Size: size})
	}
	return ranges
}
