package components

import (
	"errors"
	"fmt"

	"github.com/TheBitDrifter/woody/gfx"
	"github.com/go-gl/mathgl/mgl32"
)

// BufferAllocator creates device buffers. *gfx.Device implements it.
type BufferAllocator interface {
	CreateBuffer(usage gfx.BufferUsage, data []float32) (*gfx.Buffer, error)
	CreateIndexBuffer(data []uint16) (*gfx.Buffer, error)
}

var _ BufferAllocator = (*gfx.Device)(nil)

// NewMesh uploads position-only vertices and optional indices.
func NewMesh(alloc BufferAllocator, positions []mgl32.Vec3, indices []uint16) (Mesh, error) {
	if len(positions) == 0 {
		return Mesh{}, errors.New("mesh has no vertices")
	}
	data := make([]float32, 0, len(positions)*3)
	for _, p := range positions {
		data = append(data, p[:]...)
	}
	return upload(alloc, data, len(positions), indices)
}

// NewColoredMesh interleaves positions with per-vertex colors for pipelines
// reading a color at location 1.
func NewColoredMesh(alloc BufferAllocator, positions, colors []mgl32.Vec3, indices []uint16) (Mesh, error) {
	if len(positions) != len(colors) {
		return Mesh{}, fmt.Errorf("mesh has %d positions but %d colors", len(positions), len(colors))
	}
	if len(positions) == 0 {
		return Mesh{}, errors.New("mesh has no vertices")
	}
	data := make([]float32, 0, len(positions)*6)
	for i := range positions {
		data = append(data, positions[i][:]...)
		data = append(data, colors[i][:]...)
	}
	return upload(alloc, data, len(positions), indices)
}

func upload(alloc BufferAllocator, data []float32, vertexCount int, indices []uint16) (Mesh, error) {
	for _, idx := range indices {
		if int(idx) >= vertexCount {
			return Mesh{}, fmt.Errorf("index %d out of range for %d vertices", idx, vertexCount)
		}
	}
	vertices, err := alloc.CreateBuffer(gfx.UsageVertex, data)
	if err != nil {
		return Mesh{}, err
	}
	mesh := Mesh{Vertices: vertices, VertexCount: vertexCount}
	if len(indices) > 0 {
		if mesh.Indices, err = alloc.CreateIndexBuffer(indices); err != nil {
			return Mesh{}, err
		}
		mesh.IndexCount = len(indices)
	}
	return mesh, nil
}

func NewTriangleMesh(alloc BufferAllocator, corners [3]mgl32.Vec3) (Mesh, error) {
	return NewMesh(alloc, corners[:], []uint16{0, 1, 2})
}

// NewRectangleMesh spans size on the XY plane from the origin.
func NewRectangleMesh(alloc BufferAllocator, size mgl32.Vec2) (Mesh, error) {
	return NewMesh(alloc, rectangle(size), []uint16{0, 1, 2, 0, 2, 3})
}

func rectangle(size mgl32.Vec2) []mgl32.Vec3 {
	return []mgl32.Vec3{
		{0, 0, 0},
		{0, size[1], 0},
		{size[0], size[1], 0},
		{size[0], 0, 0},
	}
}

// NewGlyphMesh is a rectangle for the glyph pipeline whose corners carry the
// signed distances in the red channel of their color.
func NewGlyphMesh(alloc BufferAllocator, size mgl32.Vec2, distances [4]float32) (Mesh, error) {
	colors := make([]mgl32.Vec3, 4)
	for i, d := range distances {
		colors[i] = mgl32.Vec3{d, 0, 0}
	}
	return NewColoredMesh(alloc, rectangle(size), colors, []uint16{0, 1, 2, 0, 2, 3})
}

// NewCubeMesh is a unit cube centered on the origin.
func NewCubeMesh(alloc BufferAllocator) (Mesh, error) {
	positions := []mgl32.Vec3{
		{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5},
		{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5},
	}
	indices := []uint16{
		0, 1, 2, 0, 2, 3, // front
		5, 4, 7, 5, 7, 6, // back
		4, 0, 3, 4, 3, 7, // left
		1, 5, 6, 1, 6, 2, // right
		3, 2, 6, 3, 6, 7, // top
		4, 5, 1, 4, 1, 0, // bottom
	}
	return NewMesh(alloc, positions, indices)
}
