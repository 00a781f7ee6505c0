// Package render draws the renderable entities of a warehouse storage on a
// gfx device.
//
// Each frame acquires a swapchain image, clears it, and draws every entity
// holding a components.Transform and a components.Mesh. Entities are grouped
// by the pipeline their components.Material names and the groups are drawn
// in the shader manager's compile order. The camera block is uploaded once
// per group, the model matrix and color are pushed per entity.
package render
