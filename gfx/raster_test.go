package gfx

import (
	"image/color"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func drawCommands(p *Pipeline, clear mgl32.Vec4, draws ...func() []command) []command {
	cmds := []command{
		{op: cmdBeginRenderPass, clear: clear},
		{op: cmdBindPipeline, pipeline: p},
	}
	for _, d := range draws {
		cmds = append(cmds, d()...)
	}
	return append(cmds, command{op: cmdEndRenderPass})
}

func quad(color mgl32.Vec4, z float32, x0, y0, x1, y1 float32) func() []command {
	return func() []command {
		v := &Buffer{usage: UsageVertex, floats: []float32{
			x0, y0, z,
			x1, y0, z,
			x1, y1, z,
			x0, y1, z,
		}}
		i := &Buffer{usage: UsageIndex, indices: []uint16{0, 1, 2, 0, 2, 3}}
		return []command{
			{op: cmdPushConstants, offset: 0, data: color[:]},
			{op: cmdDrawIndexed, vertices: v, indices: i, count: 6},
		}
	}
}

func TestRasterDepthTest(t *testing.T) {
	tests := []struct {
		name    string
		firstZ  float32
		secondZ float32
		want    color.RGBA
	}{
		{"Nearer second wins", 0.5, 0, color.RGBA{0, 255, 0, 255}},
		{"Farther second loses", 0, 0.5, color.RGBA{255, 0, 0, 255}},
		{"Equal depth keeps first", 0.2, 0.2, color.RGBA{255, 0, 0, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tgt := newTarget(4, 4)
			r := &rasterizer{}
			cmds := drawCommands(flatPipeline(), mgl32.Vec4{},
				quad(mgl32.Vec4{1, 0, 0, 1}, tt.firstZ, -1, -1, 1, 1),
				quad(mgl32.Vec4{0, 1, 0, 1}, tt.secondZ, -1, -1, 1, 1),
			)
			if err := r.execute(cmds, tgt); err != nil {
				t.Fatalf("execute() error = %v", err)
			}
			if got := tgt.color.RGBAAt(1, 1); got != tt.want {
				t.Errorf("pixel = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRasterBlendSharedEdge(t *testing.T) {
	p := flatPipeline()
	p.Blend = true
	p.DepthTest = false

	tgt := newTarget(16, 16)
	r := &rasterizer{}
	cmds := drawCommands(p, mgl32.Vec4{0, 0, 0, 1},
		quad(mgl32.Vec4{1, 1, 1, 0.5}, 0, -1, -1, 1, 1),
	)
	if err := r.execute(cmds, tgt); err != nil {
		t.Fatalf("execute() error = %v", err)
	}

	// Pixels on the diagonal shared by both triangles are blended once.
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			got := tgt.color.RGBAAt(x, y)
			if got.R != 128 || got.G != 128 || got.B != 128 {
				t.Fatalf("pixel (%d,%d) = %v, want half grey", x, y, got)
			}
		}
	}
}

func TestRasterDropsBehindCamera(t *testing.T) {
	p := flatPipeline()
	p.Vertex = func(b *Bindings, in *VertexInput, out *VertexOutput) {
		out.Position = in.Attributes[0]
		out.Position[3] = -1
	}
	tgt := newTarget(4, 4)
	r := &rasterizer{}
	cmds := drawCommands(p, mgl32.Vec4{0, 0, 0, 1}, quad(mgl32.Vec4{1, 1, 1, 1}, 0, -1, -1, 1, 1))
	if err := r.execute(cmds, tgt); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if got := tgt.color.RGBAAt(2, 2); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("pixel = %v, want untouched clear color", got)
	}
}

func TestRasterViewportOrientation(t *testing.T) {
	tgt := newTarget(4, 4)
	r := &rasterizer{}
	// Lower half of NDC y maps to the first rows of the image.
	cmds := drawCommands(flatPipeline(), mgl32.Vec4{0, 0, 0, 1},
		quad(mgl32.Vec4{1, 0, 0, 1}, 0, -1, -1, 1, 0),
	)
	if err := r.execute(cmds, tgt); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if got := tgt.color.RGBAAt(1, 0); got.R != 255 {
		t.Errorf("row 0 = %v, want red", got)
	}
	if got := tgt.color.RGBAAt(1, 3); got.R != 0 {
		t.Errorf("row 3 = %v, want clear", got)
	}
}

// gradientPipeline passes x through as varying 0 and writes its derivative.
func gradientPipeline(out *[]FragmentInput) *Pipeline {
	return &Pipeline{
		Name: "gradient",
		Vertex: func(b *Bindings, in *VertexInput, o *VertexOutput) {
			o.Position = mgl32.Vec4{in.Attributes[0][0], in.Attributes[0][1], 0, in.Attributes[0][2]}
			o.Position[0] *= o.Position[3]
			o.Position[1] *= o.Position[3]
			o.Varyings[0] = mgl32.Vec4{in.Attributes[1][0], 0, 0, 0}
		},
		Fragment: func(b *Bindings, in *FragmentInput) (mgl32.Vec4, bool) {
			*out = append(*out, *in)
			return mgl32.Vec4{}, true
		},
		Layout: VertexLayout{
			Stride: 4,
			Attributes: []VertexAttribute{
				{Location: 0, Offset: 0, Components: 3},
				{Location: 1, Offset: 3, Components: 1},
			},
		},
		Varyings:    1,
		Derivatives: true,
	}
}

func TestRasterDerivatives(t *testing.T) {
	var frags []FragmentInput
	p := gradientPipeline(&frags)

	// Varying runs from 0 at the left edge to 1 at the right, all w = 1.
	v := &Buffer{usage: UsageVertex, floats: []float32{
		-1, -1, 1, 0,
		1, -1, 1, 1,
		1, 1, 1, 1,
		-1, 1, 1, 0,
	}}
	i := &Buffer{usage: UsageIndex, indices: []uint16{0, 1, 2, 0, 2, 3}}
	tgt := newTarget(10, 10)
	r := &rasterizer{}
	cmds := []command{
		{op: cmdBeginRenderPass},
		{op: cmdBindPipeline, pipeline: p},
		{op: cmdDrawIndexed, vertices: v, indices: i, count: 6},
		{op: cmdEndRenderPass},
	}
	if err := r.execute(cmds, tgt); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if len(frags) != 100 {
		t.Fatalf("shaded %d fragments, want 100", len(frags))
	}
	for _, f := range frags {
		wantV := (float32(f.X) + 0.5) / 10
		if !close32(f.Varyings[0][0], wantV) {
			t.Fatalf("fragment (%d,%d) varying = %v, want %v", f.X, f.Y, f.Varyings[0][0], wantV)
		}
		if !close32(f.Dx[0][0], 0.1) || !close32(f.Dy[0][0], 0) {
			t.Fatalf("fragment (%d,%d) derivatives = %v, %v; want 0.1, 0", f.X, f.Y, f.Dx[0][0], f.Dy[0][0])
		}
		if !close32(f.Fwidth(0)[0], 0.1) {
			t.Fatalf("fwidth = %v, want 0.1", f.Fwidth(0)[0])
		}
	}
}

func TestRasterPerspectiveCorrect(t *testing.T) {
	var frags []FragmentInput
	p := gradientPipeline(&frags)

	// Right edge four times farther away: the varying midpoint moves toward
	// the near edge in screen space.
	v := &Buffer{usage: UsageVertex, floats: []float32{
		-1, -1, 1, 0,
		1, -1, 4, 1,
		1, 1, 4, 1,
		-1, 1, 1, 0,
	}}
	i := &Buffer{usage: UsageIndex, indices: []uint16{0, 1, 2, 0, 2, 3}}
	tgt := newTarget(64, 2)
	r := &rasterizer{}
	cmds := []command{
		{op: cmdBeginRenderPass},
		{op: cmdBindPipeline, pipeline: p},
		{op: cmdDrawIndexed, vertices: v, indices: i, count: 6},
		{op: cmdEndRenderPass},
	}
	if err := r.execute(cmds, tgt); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	for _, f := range frags {
		if f.X != 32 || f.Y != 0 {
			continue
		}
		// Screen fraction s = 32.5/64; perspective-correct value is
		// (s/4) / ((1-s) + s/4).
		s := float32(32.5) / 64
		want := (s / 4) / ((1 - s) + s/4)
		if !close32(f.Varyings[0][0], want) {
			t.Errorf("varying at screen midpoint = %v, want %v", f.Varyings[0][0], want)
		}
		return
	}
	t.Fatalf("pixel (32,0) not shaded")
}

func TestRasterFaultBecomesError(t *testing.T) {
	p := flatPipeline()
	p.Fragment = func(b *Bindings, in *FragmentInput) (mgl32.Vec4, bool) {
		panic("bad kernel")
	}
	r := &rasterizer{}
	cmds := drawCommands(p, mgl32.Vec4{}, quad(mgl32.Vec4{}, 0, -1, -1, 1, 1))
	if err := r.execute(cmds, newTarget(2, 2)); err == nil {
		t.Errorf("execute() with a panicking kernel returned nil")
	}
}

func close32(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func BenchmarkRasterFullscreen(b *testing.B) {
	tgt := newTarget(320, 200)
	r := &rasterizer{}
	cmds := drawCommands(flatPipeline(), mgl32.Vec4{}, quad(mgl32.Vec4{1, 1, 1, 1}, 0, -1, -1, 1, 1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := r.execute(cmds, tgt); err != nil {
			b.Fatal(err)
		}
	}
}
