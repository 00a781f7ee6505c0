package gfx

import (
	"github.com/go-gl/mathgl/mgl32"
)

type commandOp int

const (
	cmdBeginRenderPass commandOp = iota
	cmdEndRenderPass
	cmdBindPipeline
	cmdBindUniform
	cmdPushConstants
	cmdDraw
	cmdDrawIndexed
)

type command struct {
	op       commandOp
	clear    mgl32.Vec4
	pipeline *Pipeline
	binding  int
	offset   int
	data     []float32
	vertices *Buffer
	indices  *Buffer
	count    int
	first    int
}

// CommandBuffer records work for the queue. Misuse is remembered and
// reported when the buffer is submitted.
type CommandBuffer struct {
	commands []command
	err      error
	inPass   bool
	pipeline *Pipeline
	draws    int
}

func newCommandBuffer() *CommandBuffer {
	return &CommandBuffer{}
}

// Reset clears recorded commands so the buffer can be recorded again.
func (c *CommandBuffer) Reset() {
	clear(c.commands)
	c.commands = c.commands[:0]
	c.err = nil
	c.inPass = false
	c.pipeline = nil
	c.draws = 0
}

// Err returns the first recording error.
func (c *CommandBuffer) Err() error {
	return c.err
}

// Draws counts the draw commands recorded since the last Reset.
func (c *CommandBuffer) Draws() int {
	return c.draws
}

func (c *CommandBuffer) fail(op, reason string) {
	if c.err == nil {
		c.err = recordError{op: op, reason: reason}
	}
}

func (c *CommandBuffer) record(cmd command) {
	if c.err != nil {
		return
	}
	c.commands = append(c.commands, cmd)
}

// BeginRenderPass clears the color target to clear and the depth buffer to 1.
func (c *CommandBuffer) BeginRenderPass(clear mgl32.Vec4) {
	if c.inPass {
		c.fail("BeginRenderPass", "render pass already begun")
		return
	}
	c.inPass = true
	c.record(command{op: cmdBeginRenderPass, clear: clear})
}

func (c *CommandBuffer) EndRenderPass() {
	if !c.inPass {
		c.fail("EndRenderPass", "no render pass begun")
		return
	}
	c.inPass = false
	c.pipeline = nil
	c.record(command{op: cmdEndRenderPass})
}

func (c *CommandBuffer) BindPipeline(p *Pipeline) {
	switch {
	case !c.inPass:
		c.fail("BindPipeline", "outside a render pass")
		return
	case p == nil:
		c.fail("BindPipeline", "nil pipeline")
		return
	}
	if err := p.Validate(); err != nil {
		c.fail("BindPipeline", err.Error())
		return
	}
	c.pipeline = p
	c.record(command{op: cmdBindPipeline, pipeline: p})
}

// BindUniform copies data into the uniform binding of the bound pipeline.
// Its size must match the binding's declared block.
func (c *CommandBuffer) BindUniform(binding int, data []float32) {
	if c.pipeline == nil {
		c.fail("BindUniform", "no pipeline bound")
		return
	}
	u, ok := c.pipeline.uniform(binding)
	if !ok {
		c.fail("BindUniform", "pipeline "+c.pipeline.Name+" declares no such binding")
		return
	}
	if len(data)*4 != u.Size {
		c.fail("BindUniform", "data size does not match the uniform block")
		return
	}
	c.record(command{op: cmdBindUniform, binding: binding, data: clone(data)})
}

// PushConstants writes data at byte offset of the push constant block.
func (c *CommandBuffer) PushConstants(offset int, data []float32) {
	if c.pipeline == nil {
		c.fail("PushConstants", "no pipeline bound")
		return
	}
	if offset < 0 || offset%4 != 0 {
		c.fail("PushConstants", "offset must be a non-negative multiple of 4")
		return
	}
	if end := offset + len(data)*4; end > c.pipeline.PushConstantSize() {
		c.fail("PushConstants", "range exceeds the push constant block of "+c.pipeline.Name)
		return
	}
	c.record(command{op: cmdPushConstants, offset: offset, data: clone(data)})
}

// Draw draws vertexCount vertices starting at firstVertex. vertices may be
// nil for pipelines without vertex inputs.
func (c *CommandBuffer) Draw(vertices *Buffer, vertexCount, firstVertex int) {
	if !c.checkDraw("Draw", vertices) {
		return
	}
	if vertices != nil && c.pipeline.Layout.Stride > 0 &&
		(firstVertex+vertexCount)*c.pipeline.Layout.Stride > vertices.Len() {
		c.fail("Draw", "vertex range exceeds buffer")
		return
	}
	c.draws++
	c.record(command{op: cmdDraw, vertices: vertices, count: vertexCount, first: firstVertex})
}

func (c *CommandBuffer) DrawIndexed(vertices, indices *Buffer, indexCount int) {
	if !c.checkDraw("DrawIndexed", vertices) {
		return
	}
	if indices == nil || indices.Usage() != UsageIndex {
		c.fail("DrawIndexed", "index buffer required")
		return
	}
	if indexCount > indices.Len() {
		c.fail("DrawIndexed", "index count exceeds buffer")
		return
	}
	c.draws++
	c.record(command{op: cmdDrawIndexed, vertices: vertices, indices: indices, count: indexCount})
}

func (c *CommandBuffer) checkDraw(op string, vertices *Buffer) bool {
	switch {
	case !c.inPass:
		c.fail(op, "outside a render pass")
		return false
	case c.pipeline == nil:
		c.fail(op, "no pipeline bound")
		return false
	case c.pipeline.Layout.Stride > 0 && vertices == nil:
		c.fail(op, "pipeline "+c.pipeline.Name+" needs a vertex buffer")
		return false
	case vertices != nil && vertices.Usage() != UsageVertex:
		c.fail(op, "vertex buffer has "+vertices.Usage().String()+" usage")
		return false
	}
	return true
}

// finish checks the buffer is complete before submission.
func (c *CommandBuffer) finish() error {
	if c.err == nil && c.inPass {
		c.fail("Submit", "render pass not ended")
	}
	return c.err
}

func clone(data []float32) []float32 {
	out := make([]float32, len(data))
	copy(out, data)
	return out
}
