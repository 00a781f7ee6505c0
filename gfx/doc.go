/*
Package gfx is woody's graphics device: a software implementation of the
Vulkan execution model.

A Device is created from a Surface and a list of adapters. Adapter
selection follows the usual Vulkan rules: the adapter needs a queue family
that can draw, one that can present, and the swapchain extension. Without
explicit adapters the built-in software adapter is used; builds with the
vulkan tag can feed real physical devices in through VulkanAdapters.

Each frame goes through a fixed set of slots (frames in flight). A slot
owns a fence, two semaphores and a command buffer:

	frame, err := dev.BeginFrame(ctx)
	if err != nil {
		// SurfaceLostError: recreate the swapchain and try again
		return err
	}
	defer frame.End()

	cmd := frame.Commands()
	cmd.BeginRenderPass(clear)
	cmd.BindPipeline(pipeline)
	cmd.Draw(vertices, 3, 0)
	cmd.EndRenderPass()

	if err := frame.Submit(); err != nil {
		return err
	}
	return frame.Present()

Submitted command buffers are executed on the device's queue goroutine by
a triangle rasterizer with a depth buffer, alpha blending and screen-space
derivatives.
*/
package gfx
