package vulkan

import (
	"github.com/vkngwrapper/core/v3/core1_0"
)

type imageView struct {
	device *device
	handle core1_0.ImageView
}

func (v *imageView) Destroy() {
	if !v.handle.Initialized() {
		return
	}
	v.device.driver.DestroyImageView(v.handle, nil)
	v.handle = core1_0.ImageView{}
}

type sampler struct {
	device *device
	handle core1_0.Sampler
}

func (s *sampler) Destroy() {
	if !s.handle.Initialized() {
		return
	}
	s.device.driver.DestroySampler(s.handle, nil)
	s.handle = core1_0.Sampler{}
}

type shaderModule struct {
	device *device
	handle core1_0.ShaderModule
}

func (m *shaderModule) Destroy() {
	if !m.handle.Initialized() {
		return
	}
	m.device.driver.DestroyShaderModule(m.handle, nil)
	m.handle = core1_0.ShaderModule{}
}

type renderPass struct {
	device *device
	handle core1_0.RenderPass
}

func (p *renderPass) Destroy() {
	if !p.handle.Initialized() {
		return
	}
	p.device.driver.DestroyRenderPass(p.handle, nil)
	p.handle = core1_0.RenderPass{}
}

type descriptorSetLayout struct {
	device *device
	handle core1_0.DescriptorSetLayout
}

func (l *descriptorSetLayout) Destroy() {
	if !l.handle.Initialized() {
		return
	}
	l.device.driver.DestroyDescriptorSetLayout(l.handle, nil)
	l.handle = core1_0.DescriptorSetLayout{}
}

type pipelineLayout struct {
	device *device
	handle core1_0.PipelineLayout
}

func (l *pipelineLayout) Destroy() {
	if !l.handle.Initialized() {
		return
	}
	l.device.driver.DestroyPipelineLayout(l.handle, nil)
	l.handle = core1_0.PipelineLayout{}
}

type pipeline struct {
	device *device
	handle core1_0.Pipeline
}

func (p *pipeline) Destroy() {
	if !p.handle.Initialized() {
		return
	}
	p.device.driver.DestroyPipeline(p.handle, nil)
	p.handle = core1_0.Pipeline{}
}

type framebuffer struct {
	device *device
	handle core1_0.Framebuffer
}

func (f *framebuffer) Destroy() {
	if !f.handle.Initialized() {
		return
	}
	f.device.driver.DestroyFramebuffer(f.handle, nil)
	f.handle = core1_0.Framebuffer{}
}

type semaphore struct {
	device *device
	handle core1_0.Semaphore
}

func (s *semaphore) Destroy() {
	if !s.handle.Initialized() {
		return
	}
	s.device.driver.DestroySemaphore(s.handle, nil)
	s.handle = core1_0.Semaphore{}
}

type fence struct {
	device *device
	handle core1_0.Fence
}

func (f *fence) Destroy() {
	if !f.handle.Initialized() {
		return
	}
	f.device.driver.DestroyFence(f.handle, nil)
	f.handle = core1_0.Fence{}
}
