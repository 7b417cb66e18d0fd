package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/particles/driver"
)

func (d *device) NewRenderPass(desc driver.RenderPassDesc) (driver.RenderPass, error) {
	attachments := make([]core1_0.AttachmentDescription, len(desc.Attachments))
	for i, a := range desc.Attachments {
		attachments[i] = core1_0.AttachmentDescription{
			Format:         core1_0.Format(a.Format),
			Samples:        core1_0.SampleCountFlags(a.Samples),
			LoadOp:         core1_0.AttachmentLoadOp(a.Load),
			StoreOp:        core1_0.AttachmentStoreOp(a.Store),
			StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
			StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
			InitialLayout:  core1_0.ImageLayout(a.InitialLayout),
			FinalLayout:    core1_0.ImageLayout(a.FinalLayout),
		}
	}

	subpasses := make([]core1_0.SubpassDescription, len(desc.Subpasses))
	for i, s := range desc.Subpasses {
		subpasses[i] = core1_0.SubpassDescription{
			PipelineBindPoint:  core1_0.PipelineBindPointGraphics,
			ColorAttachments:   attachmentRefs(s.Color),
			ResolveAttachments: attachmentRefs(s.Resolve),
		}
		if s.Depth != nil {
			subpasses[i].DepthStencilAttachment = &core1_0.AttachmentReference{
				Attachment: s.Depth.Attachment,
				Layout:     core1_0.ImageLayout(s.Depth.Layout),
			}
		}
	}

	dependencies := make([]core1_0.SubpassDependency, len(desc.Dependencies))
	for i, dep := range desc.Dependencies {
		dependencies[i] = core1_0.SubpassDependency{
			SrcSubpass:    subpassIndex(dep.SrcSubpass),
			DstSubpass:    subpassIndex(dep.DstSubpass),
			SrcStageMask:  core1_0.PipelineStageFlags(dep.SrcStages),
			SrcAccessMask: core1_0.AccessFlags(dep.SrcAccess),
			DstStageMask:  core1_0.PipelineStageFlags(dep.DstStages),
			DstAccessMask: core1_0.AccessFlags(dep.DstAccess),
		}
	}

	handle, _, err := d.driver.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments:         attachments,
		Subpasses:           subpasses,
		SubpassDependencies: dependencies,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create render pass")
	}
	return &renderPass{device: d, handle: handle}, nil
}

func attachmentRefs(refs []driver.AttachmentRef) []core1_0.AttachmentReference {
	if len(refs) == 0 {
		return nil
	}
	out := make([]core1_0.AttachmentReference, len(refs))
	for i, r := range refs {
		out[i] = core1_0.AttachmentReference{
			Attachment: r.Attachment,
			Layout:     core1_0.ImageLayout(r.Layout),
		}
	}
	return out
}

func subpassIndex(i int) int {
	if i == driver.External {
		return core1_0.SubpassExternal
	}
	return i
}

func (d *device) NewDescriptorSetLayout(bindings []driver.DescriptorBinding) (driver.DescriptorSetLayout, error) {
	info := core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: make([]core1_0.DescriptorSetLayoutBinding, len(bindings)),
	}
	for i, b := range bindings {
		info.Bindings[i] = core1_0.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  core1_0.DescriptorType(b.Type),
			DescriptorCount: b.Count,
			StageFlags:      core1_0.ShaderStageFlags(b.Stages),
		}
	}
	handle, _, err := d.driver.CreateDescriptorSetLayout(nil, info)
	if err != nil {
		return nil, errors.Wrap(err, "create descriptor set layout")
	}
	return &descriptorSetLayout{device: d, handle: handle}, nil
}

func setLayoutHandles(layouts []driver.DescriptorSetLayout) []core1_0.DescriptorSetLayout {
	out := make([]core1_0.DescriptorSetLayout, len(layouts))
	for i, l := range layouts {
		out[i] = l.(*descriptorSetLayout).handle
	}
	return out
}

func (d *device) NewPipelineLayout(sets []driver.DescriptorSetLayout) (driver.PipelineLayout, error) {
	handle, _, err := d.driver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		SetLayouts: setLayoutHandles(sets),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create pipeline layout")
	}
	return &pipelineLayout{device: d, handle: handle}, nil
}

func (d *device) NewGraphicsPipeline(desc driver.PipelineDesc) (driver.Pipeline, error) {
	stages := make([]core1_0.PipelineShaderStageCreateInfo, len(desc.Stages))
	for i, s := range desc.Stages {
		stages[i] = core1_0.PipelineShaderStageCreateInfo{
			Stage:  core1_0.ShaderStageFlags(s.Stage),
			Module: s.Module.(*shaderModule).handle,
			Name:   s.Entry,
		}
		if len(s.Specialization) > 0 {
			constants := make(map[uint32]any, len(s.Specialization))
			for id, v := range s.Specialization {
				constants[id] = v
			}
			stages[i].SpecializationInfo = constants
		}
	}

	vertexInput := &core1_0.PipelineVertexInputStateCreateInfo{
		VertexBindingDescriptions: []core1_0.VertexInputBindingDescription{
			{
				Binding:   0,
				Stride:    desc.Vertex.Stride,
				InputRate: core1_0.VertexInputRateVertex,
			},
		},
		VertexAttributeDescriptions: make([]core1_0.VertexInputAttributeDescription, len(desc.Vertex.Attributes)),
	}
	for i, a := range desc.Vertex.Attributes {
		vertexInput.VertexAttributeDescriptions[i] = core1_0.VertexInputAttributeDescription{
			Binding:  0,
			Location: uint32(a.Location),
			Format:   core1_0.Format(a.Format),
			Offset:   a.Offset,
		}
	}

	viewport := &core1_0.PipelineViewportStateCreateInfo{
		Viewports: []core1_0.Viewport{
			{
				X:        0,
				Y:        0,
				Width:    float32(desc.Extent.Width),
				Height:   float32(desc.Extent.Height),
				MinDepth: 0,
				MaxDepth: 1,
			},
		},
		Scissors: []core1_0.Rect2D{
			{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: extent2D(desc.Extent),
			},
		},
	}

	pipelines, _, err := d.driver.CreateGraphicsPipelines(nil, nil,
		core1_0.GraphicsPipelineCreateInfo{
			Stages:           stages,
			VertexInputState: vertexInput,
			InputAssemblyState: &core1_0.PipelineInputAssemblyStateCreateInfo{
				Topology: core1_0.PrimitiveTopologyTriangleList,
			},
			ViewportState: viewport,
			RasterizationState: &core1_0.PipelineRasterizationStateCreateInfo{
				PolygonMode: core1_0.PolygonModeFill,
				CullMode:    core1_0.CullModeFlags(desc.Cull),
				FrontFace:   core1_0.FrontFaceCounterClockwise,
				LineWidth:   1.0,
			},
			MultisampleState: &core1_0.PipelineMultisampleStateCreateInfo{
				RasterizationSamples: core1_0.SampleCountFlags(desc.Samples),
				MinSampleShading:     1.0,
			},
			DepthStencilState: &core1_0.PipelineDepthStencilStateCreateInfo{
				DepthTestEnable:  desc.DepthTest,
				DepthWriteEnable: desc.DepthWrite,
				DepthCompareOp:   core1_0.CompareOpLess,
			},
			ColorBlendState: &core1_0.PipelineColorBlendStateCreateInfo{
				LogicOp:     core1_0.LogicOpCopy,
				Attachments: []core1_0.PipelineColorBlendAttachmentState{blendAttachment(desc.Blend)},
			},
			Layout:            desc.Layout.(*pipelineLayout).handle,
			RenderPass:        desc.RenderPass.(*renderPass).handle,
			Subpass:           0,
			BasePipelineIndex: -1,
		})
	if err != nil {
		return nil, errors.Wrap(err, "create graphics pipeline")
	}
	return &pipeline{device: d, handle: pipelines[0]}, nil
}

func blendAttachment(mode driver.BlendMode) core1_0.PipelineColorBlendAttachmentState {
	state := core1_0.PipelineColorBlendAttachmentState{
		ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
	}
	if mode == driver.BlendAlpha {
		state.BlendEnabled = true
		state.SrcColorBlendFactor = core1_0.BlendFactorSrcAlpha
		state.DstColorBlendFactor = core1_0.BlendFactorOneMinusSrcAlpha
		state.ColorBlendOp = core1_0.BlendOpAdd
		state.SrcAlphaBlendFactor = core1_0.BlendFactorOne
		state.DstAlphaBlendFactor = core1_0.BlendFactorOneMinusSrcAlpha
		state.AlphaBlendOp = core1_0.BlendOpAdd
	}
	return state
}

func (d *device) NewDescriptorPool(maxSets int, sizes []driver.DescriptorPoolSize) (driver.DescriptorPool, error) {
	info := core1_0.DescriptorPoolCreateInfo{
		MaxSets:   maxSets,
		PoolSizes: make([]core1_0.DescriptorPoolSize, len(sizes)),
	}
	for i, s := range sizes {
		info.PoolSizes[i] = core1_0.DescriptorPoolSize{
			Type:            core1_0.DescriptorType(s.Type),
			DescriptorCount: s.Count,
		}
	}
	handle, _, err := d.driver.CreateDescriptorPool(nil, info)
	if err != nil {
		return nil, errors.Wrap(err, "create descriptor pool")
	}
	return &descriptorPool{device: d, handle: handle}, nil
}

func (d *device) UpdateDescriptorSets(writes []driver.DescriptorWrite) error {
	out := make([]core1_0.WriteDescriptorSet, len(writes))
	for i, w := range writes {
		out[i] = core1_0.WriteDescriptorSet{
			DstSet:          w.Set.(*descriptorSet).handle,
			DstBinding:      w.Binding,
			DstArrayElement: 0,
			DescriptorType:  core1_0.DescriptorType(w.Type),
		}
		for _, b := range w.Buffers {
			out[i].BufferInfo = append(out[i].BufferInfo, core1_0.DescriptorBufferInfo{
				Buffer: b.Buffer.(*buffer).handle,
				Offset: b.Offset,
				Range:  b.Range,
			})
		}
		for _, img := range w.Images {
			out[i].ImageInfo = append(out[i].ImageInfo, core1_0.DescriptorImageInfo{
				ImageView:   img.View.(*imageView).handle,
				Sampler:     img.Sampler.(*sampler).handle,
				ImageLayout: core1_0.ImageLayout(img.Layout),
			})
		}
	}
	return errors.Wrap(d.driver.UpdateDescriptorSets(out, nil), "update descriptor sets")
}

type descriptorPool struct {
	device *device
	handle core1_0.DescriptorPool
}

func (p *descriptorPool) Allocate(layouts []driver.DescriptorSetLayout) ([]driver.DescriptorSet, error) {
	handles, _, err := p.device.driver.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: p.handle,
		SetLayouts:     setLayoutHandles(layouts),
	})
	if err != nil {
		return nil, errors.Wrap(err, "allocate descriptor sets")
	}
	sets := make([]driver.DescriptorSet, len(handles))
	for i, h := range handles {
		sets[i] = &descriptorSet{handle: h, layout: layouts[i]}
	}
	return sets, nil
}

func (p *descriptorPool) Destroy() {
	if !p.handle.Initialized() {
		return
	}
	p.device.driver.DestroyDescriptorPool(p.handle, nil)
	p.handle = core1_0.DescriptorPool{}
}

type descriptorSet struct {
	handle core1_0.DescriptorSet
	layout driver.DescriptorSetLayout
}

func (s *descriptorSet) Layout() driver.DescriptorSetLayout {
	return s.layout
}
