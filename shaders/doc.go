// Package shaders holds the GLSL sources of the playground's pipeline. The compiled SPIR-V in
// res/ is checked in; regenerate it with go generate after editing a source.
package shaders

//go:generate glslc basic.vert -o ../res/basic_vert.spv
//go:generate glslc basic.frag -o ../res/basic_frag.spv
