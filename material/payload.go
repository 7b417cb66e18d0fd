package material

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/common"
)

// Packed payload sizes, std140 layout.
const (
	OpaquePayloadSize      = 16
	TranslucentPayloadSize = 16
	ParticlePayloadSize    = 32
)

// Payload is the material-specific uniform data of one drawable. The set
// of implementations is closed: OpaquePayload, TranslucentPayload and
// ParticlePayload.
type Payload interface {
	Kind() Kind
	// Pack writes the payload into dst, which is at least the kind's
	// PayloadSize long.
	Pack(dst []byte)

	payload()
}

// OpaquePayload samples one texture from the texture table.
type OpaquePayload struct {
	Texture int
}

func (OpaquePayload) Kind() Kind { return Opaque }
func (OpaquePayload) payload()   {}

func (p OpaquePayload) Pack(dst []byte) {
	_ = dst[OpaquePayloadSize-1]
	common.ByteOrder.PutUint32(dst[0:], uint32(p.Texture))
	clear(dst[4:OpaquePayloadSize])
}

// TranslucentPayload samples a texture and scales its alpha by Opacity.
type TranslucentPayload struct {
	Texture int
	Opacity float32
}

func (TranslucentPayload) Kind() Kind { return Translucent }
func (TranslucentPayload) payload()   {}

func (p TranslucentPayload) Pack(dst []byte) {
	_ = dst[TranslucentPayloadSize-1]
	common.ByteOrder.PutUint32(dst[0:], uint32(p.Texture))
	common.ByteOrder.PutUint32(dst[4:], math.Float32bits(p.Opacity))
	clear(dst[8:TranslucentPayloadSize])
}

// ParticlePayload tints a billboard texture.
type ParticlePayload struct {
	Texture int
	Color   mgl32.Vec4
}

func (ParticlePayload) Kind() Kind { return Particle }
func (ParticlePayload) payload()   {}

func (p ParticlePayload) Pack(dst []byte) {
	_ = dst[ParticlePayloadSize-1]
	common.ByteOrder.PutUint32(dst[0:], uint32(p.Texture))
	clear(dst[4:16])
	for i, c := range p.Color {
		common.ByteOrder.PutUint32(dst[16+4*i:], math.Float32bits(c))
	}
}
