// Package shaders holds the GLSL sources of the material pipelines. The
// compiled SPIR-V is written to the asset directory, where the renderer
// loads it from at startup.
package shaders

//go:generate glslc -O --target-env=vulkan1.2 opaque.vert -o ../assets/shaders/opaque.vert.spv
//go:generate glslc -O --target-env=vulkan1.2 opaque.frag -o ../assets/shaders/opaque.frag.spv
//go:generate glslc -O --target-env=vulkan1.2 translucent.vert -o ../assets/shaders/translucent.vert.spv
//go:generate glslc -O --target-env=vulkan1.2 translucent.frag -o ../assets/shaders/translucent.frag.spv
//go:generate glslc -O --target-env=vulkan1.2 particle.vert -o ../assets/shaders/particle.vert.spv
//go:generate glslc -O --target-env=vulkan1.2 particle.frag -o ../assets/shaders/particle.frag.spv
