package engine

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/vkngwrapper/core/v3/common"

	"github.com/vkngwrapper/particles/driver"
	"github.com/vkngwrapper/particles/material"
)

const (
	mat4Size = 64
	// SceneUniformSize holds the view and projection matrices.
	SceneUniformSize = 2 * mat4Size
)

func packMat4(dst []byte, m mgl32.Mat4) {
	for i, f := range m {
		common.ByteOrder.PutUint32(dst[4*i:], math.Float32bits(f))
	}
}

type imageUniforms struct {
	scene    driver.Buffer
	models   driver.Buffer
	specific driver.Buffer

	sceneMap    []byte
	modelsMap   []byte
	specificMap []byte

	// sceneStamp is the camera version last written plus one, so that zero
	// means never written.
	sceneStamp uint64
}

// MaterialUniforms owns the uniform buffers and descriptor sets of one
// material kind, one of each per swapchain image. Every buffer stays
// mapped until Destroy.
type MaterialUniforms struct {
	Kind           material.Kind
	Count          int
	ModelStride    int
	SpecificStride int

	// Sets holds the scene, models and specific sets of each image.
	Sets [][setCount]driver.DescriptorSet

	pool     driver.DescriptorPool
	images   []imageUniforms
	models   *DynamicArray
	specific *DynamicArray
}

// UniformSet holds the uniforms of every material kind, indexed by kind.
type UniformSet []*MaterialUniforms

// CreateUniformSet creates the uniforms of every pipeline in pipelines for
// imageCount swapchain images, sized for counts[kind] drawables. It returns
// nil without error when there are no pipelines or no images.
func CreateUniformSet(ctx *Context, pipelines PipelineSet, imageCount int, counts [len(material.Kinds)]int, textures []driver.ImageSampler) (UniformSet, error) {
	if len(pipelines) == 0 || imageCount == 0 {
		return nil, nil
	}

	set := make(UniformSet, 0, len(pipelines))
	for _, p := range pipelines {
		u, err := CreateMaterialUniforms(ctx, p, imageCount, counts[p.Kind], textures)
		if err != nil {
			set.Destroy()
			return nil, errors.Wrapf(err, "create %s uniforms", p.Kind)
		}
		set = append(set, u)
	}
	return set, nil
}

// CreateMaterialUniforms creates the scene, models and specific buffers of
// a material kind for each swapchain image, allocates the descriptor sets
// from pipeline's set layouts and points them at the buffers and textures.
func CreateMaterialUniforms(ctx *Context, pipeline *MaterialPipeline, imageCount, count int, textures []driver.ImageSampler) (*MaterialUniforms, error) {
	align := ctx.Properties.Limits.MinUniformBufferOffsetAlignment
	u := &MaterialUniforms{
		Kind:           pipeline.Kind,
		Count:          count,
		ModelStride:    AlignedStride(mat4Size, align),
		SpecificStride: AlignedStride(material.ConfigOf(pipeline.Kind).PayloadSize, align),
	}
	u.models = NewDynamicArray(count, u.ModelStride)
	u.specific = NewDynamicArray(count, u.SpecificStride)

	for range imageCount {
		img, err := u.createImageUniforms(ctx)
		u.images = append(u.images, img)
		if err != nil {
			u.Destroy()
			return nil, err
		}
	}

	if err := u.createDescriptorSets(ctx, pipeline, textures); err != nil {
		u.Destroy()
		return nil, err
	}
	return u, nil
}

func newMappedBuffer(ctx *Context, size int) (driver.Buffer, []byte, error) {
	buffer, err := ctx.Logical.NewBuffer(driver.BufferInfo{
		Size:        size,
		Usage:       driver.BufferUsageUniform,
		HostVisible: true,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "create uniform buffer")
	}

	mapped, err := buffer.Map()
	if err != nil {
		buffer.Destroy()
		return nil, nil, errors.Wrap(err, "map uniform buffer")
	}
	return buffer, mapped, nil
}

func (u *MaterialUniforms) createImageUniforms(ctx *Context) (imageUniforms, error) {
	var img imageUniforms
	var err error

	img.scene, img.sceneMap, err = newMappedBuffer(ctx, SceneUniformSize)
	if err != nil {
		return img, err
	}
	img.models, img.modelsMap, err = newMappedBuffer(ctx, u.ModelsSize())
	if err != nil {
		return img, err
	}
	img.specific, img.specificMap, err = newMappedBuffer(ctx, u.SpecificSize())
	return img, err
}

func (u *MaterialUniforms) createDescriptorSets(ctx *Context, pipeline *MaterialPipeline, textures []driver.ImageSampler) error {
	images := len(u.images)

	var err error
	u.pool, err = ctx.Logical.NewDescriptorPool(setCount*images, []driver.DescriptorPoolSize{
		{Type: driver.DescriptorUniformBuffer, Count: images},
		{Type: driver.DescriptorUniformBufferDynamic, Count: 2 * images},
		{Type: driver.DescriptorCombinedImageSampler, Count: images * len(textures)},
	})
	if err != nil {
		return errors.Wrap(err, "create descriptor pool")
	}

	var writes []driver.DescriptorWrite
	for _, img := range u.images {
		allocated, err := u.pool.Allocate(pipeline.SetLayouts[:])
		if err != nil {
			return errors.Wrap(err, "allocate descriptor sets")
		}

		var sets [setCount]driver.DescriptorSet
		copy(sets[:], allocated)
		u.Sets = append(u.Sets, sets)

		writes = append(writes,
			driver.DescriptorWrite{
				Set:     sets[SetScene],
				Binding: 0,
				Type:    driver.DescriptorUniformBuffer,
				Buffers: []driver.BufferRange{{Buffer: img.scene, Range: SceneUniformSize}},
			},
			driver.DescriptorWrite{
				Set:     sets[SetModels],
				Binding: 0,
				Type:    driver.DescriptorUniformBufferDynamic,
				Buffers: []driver.BufferRange{{Buffer: img.models, Range: u.ModelStride}},
			},
			driver.DescriptorWrite{
				Set:     sets[SetSpecific],
				Binding: 0,
				Type:    driver.DescriptorUniformBufferDynamic,
				Buffers: []driver.BufferRange{{Buffer: img.specific, Range: u.SpecificStride}},
			},
			driver.DescriptorWrite{
				Set:     sets[SetSpecific],
				Binding: 1,
				Type:    driver.DescriptorCombinedImageSampler,
				Images:  textures,
			},
		)
	}

	if err := ctx.Logical.UpdateDescriptorSets(writes); err != nil {
		return errors.Wrap(err, "update descriptor sets")
	}
	return nil
}

// ModelsSize is the byte size of each image's models buffer.
func (u *MaterialUniforms) ModelsSize() int {
	return DynamicBufferSize(u.Count, u.ModelStride)
}

// SpecificSize is the byte size of each image's specific buffer.
func (u *MaterialUniforms) SpecificSize() int {
	return DynamicBufferSize(u.Count, u.SpecificStride)
}

// UpdateScene writes the camera matrices into the scene buffer of image
// unless that buffer already holds the camera's current version.
func (u *MaterialUniforms) UpdateScene(image int, camera Camera, extent driver.Extent) {
	img := &u.images[image]
	stamp := camera.Version() + 1
	if img.sceneStamp == stamp {
		return
	}

	aspect := float32(extent.Width) / float32(extent.Height)
	packMat4(img.sceneMap[0:], camera.View())
	packMat4(img.sceneMap[mat4Size:], camera.Projection(aspect))
	img.sceneStamp = stamp
}

// UpdateModels packs the model matrix of each drawable into its slot and
// copies the slots into the models buffer of image. Drawables beyond the
// count the buffers were sized for are ignored.
func (u *MaterialUniforms) UpdateModels(image int, drawables []Drawable) {
	dst := u.images[image].modelsMap
	for i := range min(len(drawables), u.Count) {
		slot := u.models.Slot(i)
		packMat4(slot, drawables[i].Model)
		copy(dst[i*u.ModelStride:], slot)
	}
}

// UpdateSpecific packs the payload of each drawable into its slot and
// copies the slots into the specific buffer of image.
func (u *MaterialUniforms) UpdateSpecific(image int, drawables []Drawable) error {
	dst := u.images[image].specificMap
	for i := range min(len(drawables), u.Count) {
		payload := drawables[i].Payload
		if payload == nil || payload.Kind() != u.Kind {
			return errors.Newf("drawable %d of the %s material has a payload of another kind", i, u.Kind)
		}
		slot := u.specific.Slot(i)
		payload.Pack(slot)
		copy(dst[i*u.SpecificStride:], slot)
	}
	return nil
}

// Destroy unmaps and releases every buffer, then the descriptor pool and
// with it the sets.
func (u *MaterialUniforms) Destroy() {
	for _, img := range u.images {
		for _, buffer := range []driver.Buffer{img.scene, img.models, img.specific} {
			if buffer != nil {
				buffer.Unmap()
				buffer.Destroy()
			}
		}
	}
	u.images = nil
	u.Sets = nil

	if u.pool != nil {
		u.pool.Destroy()
		u.pool = nil
	}
}

func (s UniformSet) Destroy() {
	for _, u := range s {
		u.Destroy()
	}
}
