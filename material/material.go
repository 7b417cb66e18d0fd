// Package material describes the closed set of material kinds the renderer
// draws and the per-object uniform payload each of them carries.
package material

import (
	"github.com/vkngwrapper/particles/driver"
)

type Kind int

const (
	Opaque Kind = iota
	Translucent
	Particle
)

// Kinds lists every material kind in draw order. Translucent and particle
// geometry is blended over what the opaque pass left behind.
var Kinds = [...]Kind{Opaque, Translucent, Particle}

func (k Kind) String() string {
	switch k {
	case Opaque:
		return "opaque"
	case Translucent:
		return "translucent"
	case Particle:
		return "particle"
	}
	return "unknown"
}

// Config is the data that sets one material kind's pipeline apart from the
// others.
type Config struct {
	Kind           Kind
	VertexShader   string
	FragmentShader string
	Blend          driver.BlendMode
	DepthTest      bool
	DepthWrite     bool
	Cull           driver.CullMode
	// PayloadSize is the packed size of the kind's payload in bytes.
	PayloadSize int
}

var configs = [...]Config{
	Opaque: {
		Kind:           Opaque,
		VertexShader:   "shaders/opaque.vert.spv",
		FragmentShader: "shaders/opaque.frag.spv",
		Blend:          driver.BlendNone,
		DepthTest:      true,
		DepthWrite:     true,
		Cull:           driver.CullBack,
		PayloadSize:    OpaquePayloadSize,
	},
	// Depth writes stay on for translucent geometry, so overlapping
	// translucent surfaces blend in submission order.
	Translucent: {
		Kind:           Translucent,
		VertexShader:   "shaders/translucent.vert.spv",
		FragmentShader: "shaders/translucent.frag.spv",
		Blend:          driver.BlendAlpha,
		DepthTest:      true,
		DepthWrite:     true,
		Cull:           driver.CullBack,
		PayloadSize:    TranslucentPayloadSize,
	},
	Particle: {
		Kind:           Particle,
		VertexShader:   "shaders/particle.vert.spv",
		FragmentShader: "shaders/particle.frag.spv",
		Blend:          driver.BlendAlpha,
		DepthTest:      true,
		DepthWrite:     false,
		Cull:           driver.CullNone,
		PayloadSize:    ParticlePayloadSize,
	},
}

// ConfigOf returns the pipeline configuration of a material kind.
func ConfigOf(k Kind) Config {
	return configs[k]
}
