// Package shader compiles GLSL stage pairs into gfx pipelines.
//
// GLSL sources are parsed for their interface only: version, extensions,
// in/out variables, uniform and push constant blocks with std140/std430
// layouts, global arrays and the entry point. The executable body of each
// stage is a Go kernel registered under the source's name, which the
// software device runs per vertex and per fragment. Compile links both
// stages, checks they agree with each other and with their kernels, and
// caches the resulting pipeline by name.
package shader
