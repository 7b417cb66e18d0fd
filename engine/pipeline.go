package engine

import (
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/particles/driver"
	"github.com/vkngwrapper/particles/material"
)

// Descriptor set slots shared by every material pipeline. The draw loop
// binds all three sets starting at SetScene.
const (
	SetScene = iota
	SetModels
	SetSpecific
	setCount
)

// ShaderCode is the SPIR-V of one material kind's shader stages.
type ShaderCode struct {
	Vertex   []byte
	Fragment []byte
}

// MaterialPipeline is the pipeline of one material kind together with the
// layouts it was created with.
type MaterialPipeline struct {
	Kind       material.Kind
	SetLayouts [setCount]driver.DescriptorSetLayout
	Layout     driver.PipelineLayout
	Pipeline   driver.Pipeline
}

// PipelineSet holds one pipeline per material kind, indexed by kind.
type PipelineSet []*MaterialPipeline

// setBindings returns the bindings of the scene, models and specific
// descriptor sets. The specific set samples a texture array of
// textureCount entries.
func setBindings(textureCount int) [setCount][]driver.DescriptorBinding {
	return [setCount][]driver.DescriptorBinding{
		SetScene: {
			{Binding: 0, Type: driver.DescriptorUniformBuffer, Count: 1, Stages: driver.ShaderVertex},
		},
		SetModels: {
			{Binding: 0, Type: driver.DescriptorUniformBufferDynamic, Count: 1, Stages: driver.ShaderVertex},
		},
		SetSpecific: {
			{Binding: 0, Type: driver.DescriptorUniformBufferDynamic, Count: 1, Stages: driver.ShaderVertex | driver.ShaderFragment},
			{Binding: 1, Type: driver.DescriptorCombinedImageSampler, Count: textureCount, Stages: driver.ShaderFragment},
		},
	}
}

// CreatePipelineSet creates the pipeline of every material kind for pass.
// It returns nil without error when extent is zero or there is no pass.
func CreatePipelineSet(ctx *Context, pass driver.RenderPass, extent driver.Extent, samples driver.SampleCount, textureCount int, shaders map[material.Kind]ShaderCode) (PipelineSet, error) {
	if extent.Zero() || pass == nil {
		return nil, nil
	}

	set := make(PipelineSet, 0, len(material.Kinds))
	for _, kind := range material.Kinds {
		p, err := createMaterialPipeline(ctx, kind, pass, extent, samples, textureCount, shaders[kind])
		if err != nil {
			set.Destroy()
			return nil, errors.Wrapf(err, "create %s pipeline", kind)
		}
		set = append(set, p)
	}
	return set, nil
}

func createMaterialPipeline(ctx *Context, kind material.Kind, pass driver.RenderPass, extent driver.Extent, samples driver.SampleCount, textureCount int, code ShaderCode) (*MaterialPipeline, error) {
	p := &MaterialPipeline{Kind: kind}

	var err error
	for slot, bindings := range setBindings(textureCount) {
		p.SetLayouts[slot], err = ctx.Logical.NewDescriptorSetLayout(bindings)
		if err != nil {
			p.Destroy()
			return nil, errors.Wrap(err, "create descriptor set layout")
		}
	}

	p.Layout, err = ctx.Logical.NewPipelineLayout(p.SetLayouts[:])
	if err != nil {
		p.Destroy()
		return nil, errors.Wrap(err, "create pipeline layout")
	}

	vertShader, err := ctx.Logical.NewShaderModule(code.Vertex)
	if err != nil {
		p.Destroy()
		return nil, errors.Wrap(err, "create vertex shader module")
	}
	defer vertShader.Destroy()

	fragShader, err := ctx.Logical.NewShaderModule(code.Fragment)
	if err != nil {
		p.Destroy()
		return nil, errors.Wrap(err, "create fragment shader module")
	}
	defer fragShader.Destroy()

	cfg := material.ConfigOf(kind)
	p.Pipeline, err = ctx.Logical.NewGraphicsPipeline(driver.PipelineDesc{
		Stages: []driver.ShaderStageDesc{
			{
				Stage:  driver.ShaderVertex,
				Module: vertShader,
				Entry:  "main",
			},
			{
				Stage:          driver.ShaderFragment,
				Module:         fragShader,
				Entry:          "main",
				Specialization: map[uint32]int32{0: int32(textureCount)},
			},
		},
		Vertex:     vertexLayout(),
		Extent:     extent,
		Samples:    samples,
		Cull:       cfg.Cull,
		Blend:      cfg.Blend,
		DepthTest:  cfg.DepthTest,
		DepthWrite: cfg.DepthWrite,
		Layout:     p.Layout,
		RenderPass: pass,
	})
	if err != nil {
		p.Destroy()
		return nil, errors.Wrap(err, "create graphics pipeline")
	}

	ctx.Logger.Debug("created material pipeline",
		slog.String("Kind", kind.String()),
		slog.Int("Textures", textureCount))
	return p, nil
}

// Destroy releases the pipeline, its layout and its set layouts.
func (p *MaterialPipeline) Destroy() {
	if p.Pipeline != nil {
		p.Pipeline.Destroy()
		p.Pipeline = nil
	}
	if p.Layout != nil {
		p.Layout.Destroy()
		p.Layout = nil
	}
	for slot, layout := range p.SetLayouts {
		if layout != nil {
			layout.Destroy()
			p.SetLayouts[slot] = nil
		}
	}
}

func (s PipelineSet) Destroy() {
	for _, p := range s {
		p.Destroy()
	}
}
