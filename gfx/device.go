package gfx

import (
	"context"
	"errors"
	"fmt"

	"github.com/TheBitDrifter/bark"
)

// Device owns the queue, the swapchain and the per-frame synchronization
// of one surface. It is not safe for concurrent use; one goroutine records
// and submits frames.
type Device struct {
	adapter    AdapterInfo
	queues     QueueSelection
	surface    Surface
	swapchain  *Swapchain
	queue      *queue
	slots      []*frameSlot
	current    int
	frames     uint64
	generation int
	destroyed  bool
}

// frameSlot is the set of resources one frame in flight records into.
type frameSlot struct {
	inFlight       *Fence
	imageAvailable *Semaphore
	renderFinished *Semaphore
	commands       *CommandBuffer
}

// Initialize selects an adapter and creates a device presenting to surface.
// With no adapters the built-in software adapter is used.
func Initialize(surface Surface, adapters ...AdapterInfo) (*Device, error) {
	if surface == nil {
		return nil, DeviceInitError{Reason: "no surface"}
	}
	if w, h := surface.Extent(); w <= 0 || h <= 0 {
		return nil, DeviceInitError{Reason: fmt.Sprintf("surface extent is %dx%d", w, h)}
	}
	if len(adapters) == 0 {
		adapters = []AdapterInfo{SoftwareAdapter()}
	}
	adapter, queues, err := SelectAdapter(adapters)
	if err != nil {
		return nil, err
	}
	logger.Info("adapter selected",
		"adapter", adapter.String(), "graphics_queue", queues.Graphics, "present_queue", queues.Present)

	dev := &Device{
		adapter: adapter,
		queues:  queues,
		surface: surface,
		queue:   newQueue(Config.framesInFlight + 1),
		slots:   make([]*frameSlot, Config.framesInFlight),
	}
	for i := range dev.slots {
		dev.slots[i] = &frameSlot{
			inFlight:       newFence(true),
			imageAvailable: newSemaphore(),
			renderFinished: newSemaphore(),
			commands:       newCommandBuffer(),
		}
	}
	if err := dev.createSwapchain(); err != nil {
		dev.queue.stop()
		return nil, DeviceInitError{Reason: fmt.Sprintf("swapchain creation failed: %v", err)}
	}
	return dev, nil
}

// Adapter is the adapter the device was created on.
func (d *Device) Adapter() AdapterInfo {
	return d.adapter
}

// Queues reports the graphics and present queue families in use.
func (d *Device) Queues() QueueSelection {
	return d.queues
}

func (d *Device) Surface() Surface {
	return d.surface
}

func (d *Device) Swapchain() *Swapchain {
	return d.swapchain
}

// Extent returns the swapchain size.
func (d *Device) Extent() (int, int) {
	if d.swapchain == nil {
		return 0, 0
	}
	return d.swapchain.Extent()
}

// FramesInFlight is the number of frame slots.
func (d *Device) FramesInFlight() int {
	return len(d.slots)
}

// CreateBuffer returns a vertex or uniform buffer holding a copy of data.
func (d *Device) CreateBuffer(usage BufferUsage, data []float32) (*Buffer, error) {
	if d.destroyed {
		return nil, ErrDeviceLost
	}
	if usage == UsageIndex {
		return nil, errors.New("index buffers hold uint16, use CreateIndexBuffer")
	}
	return &Buffer{usage: usage, floats: clone(data)}, nil
}

// CreateIndexBuffer returns an index buffer holding a copy of data.
func (d *Device) CreateIndexBuffer(data []uint16) (*Buffer, error) {
	if d.destroyed {
		return nil, ErrDeviceLost
	}
	indices := make([]uint16, len(data))
	copy(indices, data)
	return &Buffer{usage: UsageIndex, indices: indices}, nil
}

func (d *Device) createSwapchain() error {
	sc, err := newSwapchain(d.surface, Config.swapchainImages, d.generation)
	if err != nil {
		return err
	}
	d.swapchain = sc
	d.generation++
	logger.Info("swapchain created",
		"generation", sc.generation, "width", sc.width, "height", sc.height, "images", len(sc.images))
	return nil
}

// RecreateSwapchain waits for the queue to go idle and rebuilds the
// swapchain at the surface's current extent. A zero extent surface
// returns SurfaceLostError and leaves the old swapchain in place.
func (d *Device) RecreateSwapchain(ctx context.Context) error {
	if d.destroyed {
		return ErrDeviceLost
	}
	if err := d.WaitIdle(ctx); err != nil {
		return err
	}
	return d.createSwapchain()
}

// BeginFrame waits for the next frame slot to be free and acquires a
// swapchain image for it.
func (d *Device) BeginFrame(ctx context.Context) (*Frame, error) {
	if d.destroyed {
		return nil, ErrDeviceLost
	}
	if err := d.queue.Err(); err != nil {
		return nil, err
	}
	slot := d.slots[d.current]

	ok, err := slot.inFlight.Wait(ctx, Config.fenceTimeout)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, FenceTimeoutError{Frame: d.frames}
	}
	// The queue is done with this slot; drop signals nobody consumed.
	slot.imageAvailable.Reset()
	slot.renderFinished.Reset()

	image, err := d.swapchain.acquire(d.surface)
	if err != nil {
		logger.Warn("acquiring image", "frame", d.frames, bark.KeyError, err)
		return nil, err
	}
	slot.imageAvailable.Signal()
	slot.inFlight.Reset()
	slot.commands.Reset()

	frame := &Frame{
		ctx:    ctx,
		dev:    d,
		slot:   slot,
		image:  image,
		number: d.frames,
	}
	d.frames++
	return frame, nil
}

// WaitIdle blocks until every submitted frame has executed.
func (d *Device) WaitIdle(ctx context.Context) error {
	if d.destroyed {
		return ErrDeviceLost
	}
	fence := newFence(false)
	d.queue.submit(submission{frame: d.frames, fence: fence})
	ok, err := fence.Wait(ctx, Config.fenceTimeout)
	if err != nil {
		return err
	}
	if !ok {
		return FenceTimeoutError{Frame: d.frames}
	}
	return d.queue.Err()
}

// Destroy drains the queue and stops it. The surface stays open; it
// belongs to the caller.
func (d *Device) Destroy() error {
	if d.destroyed {
		return nil
	}
	d.queue.stop()
	d.destroyed = true
	d.swapchain = nil
	logger.Info("device destroyed", "frames", d.frames)
	return nil
}

type frameState int

const (
	frameRecording frameState = iota
	frameSubmitted
	framePresented
	frameEnded
)

// Frame is one acquired swapchain image and the command buffer recording
// into it. End must be called on every path once BeginFrame succeeded.
type Frame struct {
	ctx    context.Context
	dev    *Device
	slot   *frameSlot
	image  int
	number uint64
	state  frameState
}

// Commands is the frame slot's command buffer, reset by BeginFrame.
func (f *Frame) Commands() *CommandBuffer {
	return f.slot.commands
}

// Number is the zero-based count of frames begun before this one.
func (f *Frame) Number() uint64 {
	return f.number
}

// ImageIndex is the swapchain image this frame renders into.
func (f *Frame) ImageIndex() int {
	return f.image
}

// Submit hands the recorded commands to the queue. Errors are SubmitError
// and leave the device unusable.
func (f *Frame) Submit() error {
	if f.state != frameRecording {
		return SubmitError{Frame: f.number, Err: errors.New("frame already submitted")}
	}
	if err := f.dev.queue.Err(); err != nil {
		return err
	}
	if err := f.slot.commands.finish(); err != nil {
		return SubmitError{Frame: f.number, Err: err}
	}
	f.dev.queue.submit(submission{
		frame:  f.number,
		cmd:    f.slot.commands,
		target: f.dev.swapchain.images[f.image],
		wait:   f.slot.imageAvailable,
		signal: f.slot.renderFinished,
		fence:  f.slot.inFlight,
	})
	f.state = frameSubmitted
	return nil
}

// Present waits for rendering to finish and shows the image.
func (f *Frame) Present() error {
	if f.state != frameSubmitted {
		return SubmitError{Frame: f.number, Err: errors.New("present before submit")}
	}
	if err := f.slot.renderFinished.Wait(f.ctx); err != nil {
		return err
	}
	f.state = framePresented
	if err := f.dev.queue.Err(); err != nil {
		return err
	}
	if f.dev.surface.OutOfDate() {
		return SurfaceLostError{Reason: "surface out of date at present"}
	}
	if err := f.dev.surface.Present(f.dev.swapchain.images[f.image].color); err != nil {
		return SurfaceLostError{Reason: err.Error()}
	}
	return nil
}

// End releases the frame slot. It is safe to call more than once and on
// every exit path; a frame that never reached the queue signals its own
// fence so the slot can be reused.
func (f *Frame) End() {
	if f.state == frameEnded {
		return
	}
	if f.state == frameRecording {
		f.slot.commands.Reset()
		f.slot.imageAvailable.Reset()
		f.slot.renderFinished.Reset()
		f.slot.inFlight.Signal()
	}
	f.state = frameEnded
	f.dev.current = (f.dev.current + 1) % len(f.dev.slots)
}
