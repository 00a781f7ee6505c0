package shader

import (
	"fmt"
	"sync"

	"github.com/TheBitDrifter/woody/gfx"
	"github.com/go-gl/mathgl/mgl32"
)

// Kernel is the executable body of a shader stage.
type Kernel interface {
	Stage() Stage
}

// VertexKernel runs once per vertex.
type VertexKernel func(b *gfx.Bindings, in *gfx.VertexInput, out *gfx.VertexOutput)

func (VertexKernel) Stage() Stage { return Vertex }

// FragmentKernel runs once per covered pixel. Returning false discards it.
type FragmentKernel func(b *gfx.Bindings, in *gfx.FragmentInput) (mgl32.Vec4, bool)

func (FragmentKernel) Stage() Stage { return Fragment }

var kernels = struct {
	sync.RWMutex
	byName map[string]Kernel
}{byName: make(map[string]Kernel)}

// Register binds k to the shader source called name, such as
// "object.vert". Registering a name twice replaces the earlier kernel.
func Register(name string, k Kernel) error {
	if k == nil {
		return fmt.Errorf("kernel %s is nil", name)
	}
	if stage, ok := StageFor(name); ok && stage != k.Stage() {
		return fmt.Errorf("kernel %s is a %s kernel, source is a %s stage", name, k.Stage(), stage)
	}
	kernels.Lock()
	defer kernels.Unlock()
	kernels.byName[name] = k
	return nil
}

func lookupKernel(name string) (Kernel, bool) {
	kernels.RLock()
	defer kernels.RUnlock()
	k, ok := kernels.byName[name]
	return k, ok
}
