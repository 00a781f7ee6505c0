package gfx

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDeviceLost is returned by every operation on a destroyed device.
var ErrDeviceLost = errors.New("gfx: device lost")

// AdapterRejection records why an adapter could not be used.
type AdapterRejection struct {
	Adapter string
	Reason  string
}

// DeviceInitError reports that no usable device could be created.
type DeviceInitError struct {
	Reason   string
	Rejected []AdapterRejection
}

func (e DeviceInitError) Error() string {
	if len(e.Rejected) == 0 {
		return fmt.Sprintf("device init failed: %s", e.Reason)
	}
	parts := make([]string, len(e.Rejected))
	for i, r := range e.Rejected {
		parts[i] = fmt.Sprintf("%s (%s)", r.Adapter, r.Reason)
	}
	return fmt.Sprintf("device init failed: %s: %s", e.Reason, strings.Join(parts, "; "))
}

// SurfaceLostError reports that the swapchain no longer matches its surface.
// It is recovered by recreating the swapchain.
type SurfaceLostError struct {
	Reason string
}

func (e SurfaceLostError) Error() string {
	return fmt.Sprintf("surface lost: %s", e.Reason)
}

// SubmitError reports a failure recording, submitting or executing a
// command buffer. The device cannot continue after it.
type SubmitError struct {
	Frame uint64
	Err   error
}

func (e SubmitError) Error() string {
	return fmt.Sprintf("submit of frame %d failed: %v", e.Frame, e.Err)
}

func (e SubmitError) Unwrap() error {
	return e.Err
}

// FenceTimeoutError reports a fence that was not signalled in time.
type FenceTimeoutError struct {
	Frame uint64
}

func (e FenceTimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for frame %d", e.Frame)
}

// recordError is a command buffer misuse found while recording.
type recordError struct {
	op     string
	reason string
}

func (e recordError) Error() string {
	return fmt.Sprintf("%s: %s", e.op, e.reason)
}
