package material

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/particles/driver"
)

func TestKindsDrawOrder(t *testing.T) {
	require.Equal(t, [...]Kind{Opaque, Translucent, Particle}, Kinds)
	assert.Equal(t, "translucent", Translucent.String())
	assert.Equal(t, "unknown", Kind(42).String())
}

func TestConfigs(t *testing.T) {
	opaque := ConfigOf(Opaque)
	assert.Equal(t, driver.BlendNone, opaque.Blend)
	assert.True(t, opaque.DepthWrite)

	translucent := ConfigOf(Translucent)
	assert.Equal(t, driver.BlendAlpha, translucent.Blend)
	assert.True(t, translucent.DepthTest)
	assert.True(t, translucent.DepthWrite)

	particle := ConfigOf(Particle)
	assert.Equal(t, driver.BlendAlpha, particle.Blend)
	assert.True(t, particle.DepthTest)
	assert.False(t, particle.DepthWrite)
	assert.Equal(t, driver.CullNone, particle.Cull)

	for _, k := range Kinds {
		assert.Equal(t, k, ConfigOf(k).Kind)
		assert.Zero(t, ConfigOf(k).PayloadSize%16, "payload of %s is not vec4-aligned", k)
	}
}

func TestPayloadKinds(t *testing.T) {
	payloads := []Payload{OpaquePayload{}, TranslucentPayload{}, ParticlePayload{}}
	for i, p := range payloads {
		assert.Equal(t, Kinds[i], p.Kind())
	}
}

func TestOpaquePack(t *testing.T) {
	dst := make([]byte, OpaquePayloadSize)
	for i := range dst {
		dst[i] = 0xff
	}

	OpaquePayload{Texture: 3}.Pack(dst)

	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(dst))
	assert.Equal(t, make([]byte, 12), dst[4:])
}

func TestTranslucentPack(t *testing.T) {
	dst := make([]byte, TranslucentPayloadSize)

	TranslucentPayload{Texture: 1, Opacity: 0.5}.Pack(dst)

	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(dst))
	assert.Equal(t, float32(0.5), math.Float32frombits(binary.LittleEndian.Uint32(dst[4:])))
}

func TestParticlePack(t *testing.T) {
	dst := make([]byte, ParticlePayloadSize)

	ParticlePayload{Texture: 2, Color: mgl32.Vec4{0.25, 0.5, 0.75, 1}}.Pack(dst)

	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(dst))
	var color mgl32.Vec4
	for i := range color {
		color[i] = math.Float32frombits(binary.LittleEndian.Uint32(dst[16+4*i:]))
	}
	assert.Equal(t, mgl32.Vec4{0.25, 0.5, 0.75, 1}, color)
}

func TestPackShortBufferPanics(t *testing.T) {
	assert.Panics(t, func() {
		ParticlePayload{}.Pack(make([]byte, ParticlePayloadSize-1))
	})
}
