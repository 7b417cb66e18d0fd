package engine

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/particles/driver"
	"github.com/vkngwrapper/particles/driver/drivertest"
	"github.com/vkngwrapper/particles/material"
)

func unpackMat4(src []byte) mgl32.Mat4 {
	var m mgl32.Mat4
	for i := range m {
		m[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[4*i:]))
	}
	return m
}

type uniformsFixture struct {
	*fixture
	ctx       *Context
	pass      driver.RenderPass
	pipelines PipelineSet
	textures  textureTable
}

func newUniformsFixture(t *testing.T) *uniformsFixture {
	f := &uniformsFixture{fixture: newFixture(800, 600)}
	f.ctx = f.context(t, false)
	extent := driver.Extent{Width: 800, Height: 600}

	var err error
	f.pass, err = CreateRenderPass(f.ctx, extent, driver.FormatB8G8R8A8SRGB, driver.Samples1, driver.FormatD32SFloat)
	require.NoError(t, err)
	require.NoError(t, f.textures.init(f.ctx))
	f.pipelines, err = CreatePipelineSet(f.ctx, f.pass, extent, driver.Samples1, f.textures.count(), testShaders())
	require.NoError(t, err)
	return f
}

func (f *uniformsFixture) close(t *testing.T) {
	f.pipelines.Destroy()
	f.pass.Destroy()
	f.textures.destroy()
	f.ctx.Destroy()
	f.assertClean(t)
}

func TestMaterialUniformsEmpty(t *testing.T) {
	f := newUniformsFixture(t)

	u, err := CreateMaterialUniforms(f.ctx, f.pipelines[material.Translucent], 3, 0, f.textures.samplers())
	require.NoError(t, err)

	assert.Equal(t, 256, u.ModelStride)
	assert.Equal(t, 256, u.SpecificStride)
	assert.Equal(t, 256, u.ModelsSize())
	assert.Equal(t, 256, u.SpecificSize())
	require.Len(t, u.Sets, 3)

	// Dynamic ranges reference one stride of the one-slot buffers.
	for _, w := range f.device().Writes {
		for _, r := range w.Buffers {
			assert.Positive(t, r.Range)
			if w.Type == driver.DescriptorUniformBufferDynamic {
				assert.Equal(t, 256, r.Range)
				assert.Equal(t, 256, r.Buffer.Size())
			}
		}
	}
	// Four writes per image: scene, models, specific and samplers.
	assert.Len(t, f.device().Writes, 12)

	pool := u.pool.(*drivertest.DescriptorPool)
	assert.Equal(t, 9, pool.MaxSets)
	assert.Len(t, pool.Sets, 9)
	assert.Equal(t, []driver.DescriptorPoolSize{
		{Type: driver.DescriptorUniformBuffer, Count: 3},
		{Type: driver.DescriptorUniformBufferDynamic, Count: 6},
		{Type: driver.DescriptorCombinedImageSampler, Count: 3},
	}, pool.Sizes)

	u.Destroy()
	f.close(t)
}

func TestMaterialUniformsSizedByCount(t *testing.T) {
	f := newUniformsFixture(t)
	f.ctx.Properties.Limits.MinUniformBufferOffsetAlignment = 16

	u, err := CreateMaterialUniforms(f.ctx, f.pipelines[material.Particle], 2, 5, f.textures.samplers())
	require.NoError(t, err)

	assert.Equal(t, 64, u.ModelStride)
	assert.Equal(t, material.ParticlePayloadSize, u.SpecificStride)
	assert.Equal(t, 5*64, u.ModelsSize())
	assert.Equal(t, 5*material.ParticlePayloadSize, u.SpecificSize())
	assert.Equal(t, 6, f.tracker.LiveOf(drivertest.KindBuffer))

	u.Destroy()
	f.close(t)
}

func TestUpdateScene(t *testing.T) {
	f := newUniformsFixture(t)
	u, err := CreateMaterialUniforms(f.ctx, f.pipelines[material.Opaque], 2, 1, f.textures.samplers())
	require.NoError(t, err)

	camera := &testCamera{eye: mgl32.Vec3{0, 0, 5}}
	extent := driver.Extent{Width: 800, Height: 600}
	scene := u.images[0].scene.(*drivertest.Buffer).Bytes()

	u.UpdateScene(0, camera, extent)
	assert.Equal(t, camera.View(), unpackMat4(scene))
	assert.Equal(t, camera.Projection(800.0/600.0), unpackMat4(scene[mat4Size:]))

	// Without a new version the buffer is left alone.
	camera.eye = mgl32.Vec3{5, 0, 0}
	u.UpdateScene(0, camera, extent)
	assert.NotEqual(t, camera.View(), unpackMat4(scene))

	camera.version++
	u.UpdateScene(0, camera, extent)
	assert.Equal(t, camera.View(), unpackMat4(scene))

	// Each image tracks its own version.
	other := u.images[1].scene.(*drivertest.Buffer).Bytes()
	assert.Equal(t, make([]byte, SceneUniformSize), other)
	u.UpdateScene(1, camera, extent)
	assert.Equal(t, camera.View(), unpackMat4(other))

	u.Destroy()
	f.close(t)
}

func TestUpdateModelsAndSpecific(t *testing.T) {
	f := newUniformsFixture(t)
	u, err := CreateMaterialUniforms(f.ctx, f.pipelines[material.Particle], 1, 3, f.textures.samplers())
	require.NoError(t, err)

	var drawables []Drawable
	for i := range 4 {
		drawables = append(drawables, Drawable{
			Model:   mgl32.Translate3D(float32(i), 2, 3),
			Payload: material.ParticlePayload{Texture: i, Color: mgl32.Vec4{1, 1, 1, float32(i) / 4}},
		})
	}

	u.UpdateModels(0, drawables)
	require.NoError(t, u.UpdateSpecific(0, drawables))

	models := u.images[0].models.(*drivertest.Buffer).Bytes()
	specific := u.images[0].specific.(*drivertest.Buffer).Bytes()
	require.Len(t, models, 3*256)

	for i := range 3 {
		assert.Equal(t, drawables[i].Model, unpackMat4(models[i*u.ModelStride:]), "slot %d", i)
		assert.Equal(t, uint32(i), binary.LittleEndian.Uint32(specific[i*u.SpecificStride:]), "slot %d", i)
		alpha := math.Float32frombits(binary.LittleEndian.Uint32(specific[i*u.SpecificStride+28:]))
		assert.Equal(t, float32(i)/4, alpha)
	}

	drawables[1].Payload = material.OpaquePayload{}
	assert.Error(t, u.UpdateSpecific(0, drawables))
	drawables[1].Payload = nil
	assert.Error(t, u.UpdateSpecific(0, drawables))

	u.Destroy()
	f.close(t)
}

func TestCreateUniformSet(t *testing.T) {
	f := newUniformsFixture(t)

	set, err := CreateUniformSet(f.ctx, f.pipelines, 3, [len(material.Kinds)]int{2, 0, 7}, f.textures.samplers())
	require.NoError(t, err)
	require.Len(t, set, len(material.Kinds))

	for _, kind := range material.Kinds {
		assert.Equal(t, kind, set[kind].Kind)
		assert.Len(t, set[kind].Sets, 3)
	}
	assert.Equal(t, 7*256, set[material.Particle].ModelsSize())
	assert.Equal(t, 256, set[material.Translucent].SpecificSize())

	set.Destroy()
	assert.Zero(t, f.tracker.LiveOf(drivertest.KindDescriptorPool))
	f.close(t)
}
