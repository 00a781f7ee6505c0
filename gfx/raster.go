package gfx

import (
	"fmt"
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// target is the attachment set a render pass draws into.
type target struct {
	color *image.RGBA
	depth []float32
}

func newTarget(width, height int) *target {
	return &target{
		color: image.NewRGBA(image.Rect(0, 0, width, height)),
		depth: make([]float32, width*height),
	}
}

func (t *target) size() (int, int) {
	b := t.color.Bounds()
	return b.Dx(), b.Dy()
}

// rasterizer executes recorded commands against a target.
type rasterizer struct {
	target   *target
	pipeline *Pipeline
	bindings Bindings
	verts    []VertexOutput
}

func (r *rasterizer) execute(commands []command, t *target) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("rasterizer fault: %v", p)
		}
	}()
	r.target = t
	r.pipeline = nil
	r.bindings = Bindings{}

	for i := range commands {
		cmd := &commands[i]
		switch cmd.op {
		case cmdBeginRenderPass:
			r.clear(cmd.clear)
		case cmdEndRenderPass:
			r.pipeline = nil
		case cmdBindPipeline:
			r.pipeline = cmd.pipeline
		case cmdBindUniform:
			r.bindings.Uniforms[cmd.binding] = cmd.data
		case cmdPushConstants:
			copy(r.bindings.Push[cmd.offset/4:], cmd.data)
		case cmdDraw:
			if err := r.draw(cmd.vertices, nil, cmd.first, cmd.count); err != nil {
				return err
			}
		case cmdDrawIndexed:
			if err := r.draw(cmd.vertices, cmd.indices, 0, cmd.count); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *rasterizer) clear(c mgl32.Vec4) {
	px := toRGBA(c)
	pix := r.target.color.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = px[0], px[1], px[2], px[3]
	}
	for i := range r.target.depth {
		r.target.depth[i] = 1
	}
}

// draw shades the vertices a draw references, then assembles and fills
// triangles in list order.
func (r *rasterizer) draw(vertices, indices *Buffer, first, count int) error {
	p := r.pipeline
	layout := p.Layout

	vertexCount := count
	if indices != nil {
		vertexCount = 0
		for _, idx := range indices.indices[:count] {
			vertexCount = max(vertexCount, int(idx)+1)
		}
		first = 0
	}
	if vertices != nil && layout.Stride > 0 && (first+vertexCount)*layout.Stride > vertices.Len() {
		return fmt.Errorf("pipeline %s: vertex %d out of buffer range", p.Name, first+vertexCount-1)
	}

	r.verts = r.verts[:0]
	for v := first; v < first+vertexCount; v++ {
		in := VertexInput{Index: v}
		for loc := range in.Attributes {
			in.Attributes[loc] = mgl32.Vec4{0, 0, 0, 1}
		}
		if vertices != nil {
			base := v * layout.Stride
			for _, a := range layout.Attributes {
				copy(in.Attributes[a.Location][:a.Components], vertices.floats[base+a.Offset:])
			}
		}
		var out VertexOutput
		p.Vertex(&r.bindings, &in, &out)
		r.verts = append(r.verts, out)
	}

	for i := 0; i+2 < count; i += 3 {
		if indices != nil {
			a, b, c := indices.indices[i], indices.indices[i+1], indices.indices[i+2]
			r.triangle(&r.verts[a], &r.verts[b], &r.verts[c])
		} else {
			r.triangle(&r.verts[i], &r.verts[i+1], &r.verts[i+2])
		}
	}
	return nil
}

// screenVertex is a vertex after the perspective divide and viewport transform.
type screenVertex struct {
	x, y, z float32
	invW    float32
	out     *VertexOutput
}

func (r *rasterizer) project(v *VertexOutput, width, height int) (screenVertex, bool) {
	w := v.Position[3]
	if w <= 0 {
		return screenVertex{}, false
	}
	invW := 1 / w
	ndcX, ndcY, ndcZ := v.Position[0]*invW, v.Position[1]*invW, v.Position[2]*invW
	return screenVertex{
		x:    (ndcX + 1) / 2 * float32(width),
		y:    (ndcY + 1) / 2 * float32(height),
		z:    (ndcZ + 1) / 2,
		invW: invW,
		out:  v,
	}, true
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// owns reports whether the directed edge a->b keeps pixels lying exactly on
// it. Exactly one of a->b and b->a owns any non-degenerate edge, so pixels
// on edges shared by two triangles are filled once.
func owns(a, b screenVertex) bool {
	return b.y < a.y || (a.y == b.y && b.x < a.x)
}

func (r *rasterizer) triangle(a, b, c *VertexOutput) {
	width, height := r.target.size()
	v0, ok0 := r.project(a, width, height)
	v1, ok1 := r.project(b, width, height)
	v2, ok2 := r.project(c, width, height)
	if !ok0 || !ok1 || !ok2 {
		return
	}

	area := edge(v0.x, v0.y, v1.x, v1.y, v2.x, v2.y)
	if area == 0 {
		return
	}
	// No culling: wind every triangle the same way.
	if area < 0 {
		v1, v2 = v2, v1
		area = -area
	}

	minX := max(0, int(math.Floor(float64(min(v0.x, v1.x, v2.x)))))
	maxX := min(width-1, int(math.Ceil(float64(max(v0.x, v1.x, v2.x)))))
	minY := max(0, int(math.Floor(float64(min(v0.y, v1.y, v2.y)))))
	maxY := min(height-1, int(math.Ceil(float64(max(v0.y, v1.y, v2.y)))))

	own0, own1, own2 := owns(v1, v2), owns(v2, v0), owns(v0, v1)
	p := r.pipeline
	var in FragmentInput

	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			w0 := edge(v1.x, v1.y, v2.x, v2.y, px, py)
			w1 := edge(v2.x, v2.y, v0.x, v0.y, px, py)
			w2 := edge(v0.x, v0.y, v1.x, v1.y, px, py)
			if w0 < 0 || w1 < 0 || w2 < 0 ||
				(w0 == 0 && !own0) || (w1 == 0 && !own1) || (w2 == 0 && !own2) {
				continue
			}
			l0, l1, l2 := w0/area, w1/area, w2/area

			depth := l0*v0.z + l1*v1.z + l2*v2.z
			if depth < 0 || depth > 1 {
				continue
			}
			di := y*width + x
			if p.DepthTest && !(depth < r.target.depth[di]) {
				continue
			}

			in.X, in.Y, in.Depth = x, y, depth
			interpolate(&in.Varyings, p.Varyings, v0, v1, v2, l0, l1, l2)
			if p.Derivatives {
				r.derivatives(&in, v0, v1, v2, area, px, py)
			}

			color, keep := p.Fragment(&r.bindings, &in)
			if !keep {
				continue
			}
			if p.DepthTest {
				r.target.depth[di] = depth
			}
			r.write(x, y, color, p.Blend)
		}
	}
}

// interpolate fills dst with perspective-correct varyings for the screen
// barycentrics l0, l1, l2.
func interpolate(dst *[MaxLocations]mgl32.Vec4, n int, v0, v1, v2 screenVertex, l0, l1, l2 float32) {
	p0, p1, p2 := l0*v0.invW, l1*v1.invW, l2*v2.invW
	sum := p0 + p1 + p2
	if sum == 0 {
		return
	}
	p0, p1, p2 = p0/sum, p1/sum, p2/sum
	for loc := 0; loc < n; loc++ {
		a, b, c := v0.out.Varyings[loc], v1.out.Varyings[loc], v2.out.Varyings[loc]
		for i := range dst[loc] {
			dst[loc][i] = p0*a[i] + p1*b[i] + p2*c[i]
		}
	}
}

// derivatives evaluates the varyings at the right and lower neighbour pixel
// centres and stores the differences as dFdx and dFdy.
func (r *rasterizer) derivatives(in *FragmentInput, v0, v1, v2 screenVertex, area, px, py float32) {
	n := r.pipeline.Varyings
	var right, below [MaxLocations]mgl32.Vec4

	bary := func(x, y float32) (float32, float32, float32) {
		return edge(v1.x, v1.y, v2.x, v2.y, x, y) / area,
			edge(v2.x, v2.y, v0.x, v0.y, x, y) / area,
			edge(v0.x, v0.y, v1.x, v1.y, x, y) / area
	}
	l0, l1, l2 := bary(px+1, py)
	interpolate(&right, n, v0, v1, v2, l0, l1, l2)
	l0, l1, l2 = bary(px, py+1)
	interpolate(&below, n, v0, v1, v2, l0, l1, l2)

	for loc := 0; loc < n; loc++ {
		in.Dx[loc] = right[loc].Sub(in.Varyings[loc])
		in.Dy[loc] = below[loc].Sub(in.Varyings[loc])
	}
}

func (r *rasterizer) write(x, y int, c mgl32.Vec4, blend bool) {
	img := r.target.color
	i := img.PixOffset(x, y)
	if blend {
		a := clamp01(c[3])
		for ch := 0; ch < 3; ch++ {
			dst := float32(img.Pix[i+ch]) / 255
			c[ch] = clamp01(c[ch])*a + dst*(1-a)
		}
		dstA := float32(img.Pix[i+3]) / 255
		c[3] = a + dstA*(1-a)
	}
	px := toRGBA(c)
	img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = px[0], px[1], px[2], px[3]
}

func toRGBA(c mgl32.Vec4) [4]uint8 {
	var px [4]uint8
	for i := range px {
		px[i] = uint8(clamp01(c[i])*255 + 0.5)
	}
	return px
}

func clamp01(v float32) float32 {
	return mgl32.Clamp(v, 0, 1)
}
