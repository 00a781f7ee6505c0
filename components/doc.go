// Package components declares the components the renderer and the
// application loop understand, plus builders for common meshes.
//
// An entity is drawn when it has both a Transform and a Mesh:
//
//	cube, _ := components.NewCubeMesh(device)
//	entity, _ := warehouse.Spawn(storage, components.TransformComponent, components.MeshComponent)
//	warehouse.Attach(entity, components.MeshComponent, cube)
package components
