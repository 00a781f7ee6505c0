package gfx

import "fmt"

type BufferUsage int

const (
	UsageVertex BufferUsage = iota
	UsageIndex
	UsageUniform
)

func (u BufferUsage) String() string {
	switch u {
	case UsageVertex:
		return "vertex"
	case UsageIndex:
		return "index"
	case UsageUniform:
		return "uniform"
	}
	return fmt.Sprintf("usage(%d)", int(u))
}

// Buffer is device memory holding vertex floats or 16-bit indices.
type Buffer struct {
	usage   BufferUsage
	floats  []float32
	indices []uint16
}

func (b *Buffer) Usage() BufferUsage {
	return b.usage
}

// Len returns the number of elements: floats for vertex and uniform
// buffers, indices for index buffers.
func (b *Buffer) Len() int {
	if b.usage == UsageIndex {
		return len(b.indices)
	}
	return len(b.floats)
}

// Floats exposes the contents of a vertex or uniform buffer.
func (b *Buffer) Floats() []float32 {
	return b.floats
}

// Indices exposes the contents of an index buffer.
func (b *Buffer) Indices() []uint16 {
	return b.indices
}

// Write copies data into the buffer starting at element offset. The buffer
// must not be in use by a pending submission.
func (b *Buffer) Write(offset int, data []float32) error {
	if b.usage == UsageIndex {
		return fmt.Errorf("write of floats into %s buffer", b.usage)
	}
	if offset < 0 || offset+len(data) > len(b.floats) {
		return fmt.Errorf("write of %d floats at %d overflows buffer of %d", len(data), offset, len(b.floats))
	}
	copy(b.floats[offset:], data)
	return nil
}

func (b *Buffer) WriteIndices(offset int, data []uint16) error {
	if b.usage != UsageIndex {
		return fmt.Errorf("write of indices into %s buffer", b.usage)
	}
	if offset < 0 || offset+len(data) > len(b.indices) {
		return fmt.Errorf("write of %d indices at %d overflows buffer of %d", len(data), offset, len(b.indices))
	}
	copy(b.indices[offset:], data)
	return nil
}
