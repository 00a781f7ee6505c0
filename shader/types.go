package shader

import "github.com/TheBitDrifter/woody/gfx"

// Stage is the pipeline stage a source compiles for.
type Stage = gfx.ShaderStage

const (
	Vertex   = gfx.StageVertex
	Fragment = gfx.StageFragment
)

type layoutRule int

const (
	std140 layoutRule = iota
	std430
)

// typeInfo is the size and base alignment of a GLSL type in bytes.
// components counts floats for interface variables; zero marks types that
// cannot be used as vertex inputs or varyings.
type typeInfo struct {
	size       int
	align      int
	components int
	opaque     bool
}

var builtinTypes = map[string]typeInfo{
	"float": {size: 4, align: 4, components: 1},
	"int":   {size: 4, align: 4, components: 1},
	"uint":  {size: 4, align: 4, components: 1},
	"bool":  {size: 4, align: 4},
	"vec2":  {size: 8, align: 8, components: 2},
	"vec3":  {size: 12, align: 16, components: 3},
	"vec4":  {size: 16, align: 16, components: 4},
	"ivec2": {size: 8, align: 8, components: 2},
	"ivec3": {size: 12, align: 16, components: 3},
	"ivec4": {size: 16, align: 16, components: 4},
	"uvec2": {size: 8, align: 8, components: 2},
	"uvec3": {size: 12, align: 16, components: 3},
	"uvec4": {size: 16, align: 16, components: 4},
	// Matrices are arrays of column vectors padded to vec4.
	"mat2":      {size: 32, align: 16},
	"mat3":      {size: 48, align: 16},
	"mat4":      {size: 64, align: 16},
	"sampler2D": {opaque: true},
}

func alignUp(v, align int) int {
	if align <= 1 {
		return v
	}
	return (v + align - 1) / align * align
}

// arrayStride is the distance between array elements under rule.
func arrayStride(t typeInfo, rule layoutRule) int {
	stride := alignUp(t.size, t.align)
	if rule == std140 {
		stride = alignUp(stride, 16)
	}
	return stride
}
