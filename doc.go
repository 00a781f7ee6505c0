// Package woody is a small entity component engine that renders through a
// Vulkan-style software device.
//
// An App owns a warehouse storage, the systems updating it and a renderer.
// Every tick runs the update systems with the storage locked, so structural
// changes they make are applied together once they finish, then draws the
// entities holding a Transform and a Mesh as seen from the first Camera.
//
//	app, err := woody.New(gfx.NewHeadlessSurface(320, 240))
//	if err != nil {
//		return err
//	}
//	defer app.Close()
//	app.Systems.OnUpdate(woody.UpdateSystem(spin, 0))
//	return app.Run(ctx)
//
// Losing the surface to a resize recreates the swapchain; a surface with no
// area suspends rendering until it has one again.
package woody
