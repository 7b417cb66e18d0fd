package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/particles/driver"
	"github.com/vkngwrapper/particles/driver/drivertest"
	"github.com/vkngwrapper/particles/material"
)

func TestRenderPassDescMultisampled(t *testing.T) {
	desc := renderPassDesc(driver.FormatB8G8R8A8SRGB, driver.Samples4, driver.FormatD32SFloat)

	require.Len(t, desc.Attachments, 3)
	color, depth, resolve := desc.Attachments[0], desc.Attachments[1], desc.Attachments[2]

	assert.Equal(t, driver.Samples4, color.Samples)
	assert.Equal(t, driver.LoadOpClear, color.Load)
	assert.Equal(t, driver.StoreOpStore, color.Store)
	assert.Equal(t, driver.LayoutColorAttachmentOptimal, color.FinalLayout)

	assert.Equal(t, driver.FormatD32SFloat, depth.Format)
	assert.Equal(t, driver.LoadOpClear, depth.Load)
	assert.Equal(t, driver.StoreOpDontCare, depth.Store)

	assert.Equal(t, driver.Samples1, resolve.Samples)
	assert.Equal(t, driver.LoadOpDontCare, resolve.Load)
	assert.Equal(t, driver.StoreOpStore, resolve.Store)
	assert.Equal(t, driver.LayoutPresentSrc, resolve.FinalLayout)

	require.Len(t, desc.Subpasses, 1)
	assert.Equal(t, []driver.AttachmentRef{{Attachment: 2, Layout: driver.LayoutColorAttachmentOptimal}}, desc.Subpasses[0].Resolve)

	require.Len(t, desc.Dependencies, 1)
	dep := desc.Dependencies[0]
	assert.Equal(t, driver.External, dep.SrcSubpass)
	assert.Equal(t, 0, dep.DstSubpass)
	assert.Equal(t, driver.StageColorAttachmentOutput|driver.StageEarlyFragmentTests, dep.SrcStages)
	assert.Equal(t, driver.AccessColorAttachmentWrite|driver.AccessDepthAttachmentWrite, dep.DstAccess)
}

func TestRenderPassDescSingleSample(t *testing.T) {
	desc := renderPassDesc(driver.FormatB8G8R8A8SRGB, driver.Samples1, driver.FormatD32SFloat)

	require.Len(t, desc.Attachments, 2)
	assert.Equal(t, driver.LayoutPresentSrc, desc.Attachments[0].FinalLayout)
	assert.Empty(t, desc.Subpasses[0].Resolve)
}

func TestCreateRenderPassZeroExtent(t *testing.T) {
	f := newFixture(800, 600)
	ctx := f.context(t, false)

	pass, err := CreateRenderPass(ctx, driver.Extent{Height: 600}, driver.FormatB8G8R8A8SRGB, driver.Samples1, driver.FormatD32SFloat)
	require.NoError(t, err)
	assert.Nil(t, pass)

	pipelines, err := CreatePipelineSet(ctx, pass, driver.Extent{Height: 600}, driver.Samples1, 1, testShaders())
	require.NoError(t, err)
	assert.Nil(t, pipelines)

	framebuffers, err := CreateFramebuffers(ctx, pass, &Attachments{}, nil, driver.Extent{Height: 600})
	require.NoError(t, err)
	assert.Nil(t, framebuffers)

	uniforms, err := CreateUniformSet(ctx, pipelines, 0, [len(material.Kinds)]int{}, nil)
	require.NoError(t, err)
	assert.Nil(t, uniforms)

	commands, err := RecordCommandBuffers(ctx, pass, framebuffers, driver.Extent{}, pipelines, uniforms, DrawLists{})
	require.NoError(t, err)
	assert.Nil(t, commands)

	ctx.Destroy()
	assert.Zero(t, f.tracker.Created(drivertest.KindRenderPass))
	f.assertClean(t)
}

func TestCreatePipelineSet(t *testing.T) {
	f := newFixture(800, 600)
	ctx := f.context(t, true)
	extent := driver.Extent{Width: 800, Height: 600}

	pass, err := CreateRenderPass(ctx, extent, driver.FormatB8G8R8A8SRGB, ctx.Samples, driver.FormatD32SFloat)
	require.NoError(t, err)

	pipelines, err := CreatePipelineSet(ctx, pass, extent, ctx.Samples, 3, testShaders())
	require.NoError(t, err)
	require.Len(t, pipelines, len(material.Kinds))

	for _, kind := range material.Kinds {
		p := pipelines[kind]
		assert.Equal(t, kind, p.Kind)

		layout := p.Layout.(*drivertest.PipelineLayout)
		require.Len(t, layout.Sets, 3)
		for slot, set := range p.SetLayouts {
			assert.Same(t, set, layout.Sets[slot])
		}

		scene := p.SetLayouts[SetScene].(*drivertest.DescriptorSetLayout).Bindings
		assert.Equal(t, driver.DescriptorUniformBuffer, scene[0].Type)
		models := p.SetLayouts[SetModels].(*drivertest.DescriptorSetLayout).Bindings
		assert.Equal(t, driver.DescriptorUniformBufferDynamic, models[0].Type)
		specific := p.SetLayouts[SetSpecific].(*drivertest.DescriptorSetLayout).Bindings
		require.Len(t, specific, 2)
		assert.Equal(t, driver.DescriptorUniformBufferDynamic, specific[0].Type)
		assert.Equal(t, driver.DescriptorCombinedImageSampler, specific[1].Type)
		assert.Equal(t, 3, specific[1].Count)

		desc := p.Pipeline.(*drivertest.Pipeline).Desc
		cfg := material.ConfigOf(kind)
		assert.Equal(t, cfg.Blend, desc.Blend, kind.String())
		assert.Equal(t, cfg.DepthTest, desc.DepthTest, kind.String())
		assert.Equal(t, cfg.DepthWrite, desc.DepthWrite, kind.String())
		assert.Equal(t, cfg.Cull, desc.Cull, kind.String())
		assert.Equal(t, driver.Samples4, desc.Samples)
		require.Len(t, desc.Stages, 2)
		assert.Empty(t, desc.Stages[0].Specialization)
		assert.Equal(t, map[uint32]int32{0: 3}, desc.Stages[1].Specialization)
		assert.Equal(t, 32, desc.Vertex.Stride)
	}

	// Shader modules only live while the pipelines are created.
	assert.Zero(t, f.tracker.LiveOf(drivertest.KindShaderModule))
	assert.Equal(t, 2*len(material.Kinds), f.tracker.Created(drivertest.KindShaderModule))

	pipelines.Destroy()
	pass.Destroy()
	ctx.Destroy()
	f.assertClean(t)
}

func TestCreatePipelineSetBadShader(t *testing.T) {
	f := newFixture(800, 600)
	ctx := f.context(t, false)
	extent := driver.Extent{Width: 800, Height: 600}

	pass, err := CreateRenderPass(ctx, extent, driver.FormatB8G8R8A8SRGB, ctx.Samples, driver.FormatD32SFloat)
	require.NoError(t, err)

	shaders := testShaders()
	shaders[material.Particle] = ShaderCode{Vertex: spirvStub, Fragment: []byte{1, 2, 3}}

	_, err = CreatePipelineSet(ctx, pass, extent, ctx.Samples, 1, shaders)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "particle")

	pass.Destroy()
	ctx.Destroy()
	f.assertClean(t)
}
