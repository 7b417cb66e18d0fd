// Package driver defines the GPU object model the renderer is written
// against. A backend (package driver/vulkan) implements these interfaces
// on top of a real graphics API; package driver/drivertest implements them
// in memory for tests.
//
// Objects that implement Destroyer own memory outside the Go heap and must
// be destroyed explicitly, exactly once.
package driver

// Destroyer is the interface that wraps the Destroy method.
type Destroyer interface {
	Destroy()
}

// Instance is the entry point of a backend. It owns the presentation
// surface it was created for.
type Instance interface {
	Destroyer

	// PhysicalDevices enumerates the accelerators visible to the instance.
	PhysicalDevices() ([]PhysicalDevice, error)
}

// PhysicalDevice is an accelerator that can be queried and opened.
type PhysicalDevice interface {
	Properties() (DeviceProperties, error)
	Features() Features
	QueueFamilies() ([]QueueFamily, error)
	Extensions() (map[string]struct{}, error)

	// SurfaceSupport queries the instance surface against this device.
	// Capabilities reflect the current surface size.
	SurfaceSupport() (SurfaceSupport, error)
	FormatProperties(format Format) FormatProperties

	// Open creates the logical device.
	Open(info DeviceInfo) (Device, error)
}

// Device is a logical device and the factory for every other object.
type Device interface {
	Destroyer

	Queue(family int) Queue
	WaitIdle() error

	NewSwapchain(info SwapchainInfo) (Swapchain, error)
	NewImage(info ImageInfo) (Image, error)
	NewImageView(image Image, format Format, aspect ImageAspect, mipLevels int) (ImageView, error)
	NewBuffer(info BufferInfo) (Buffer, error)
	NewSampler(info SamplerInfo) (Sampler, error)
	NewShaderModule(code []byte) (ShaderModule, error)
	NewRenderPass(desc RenderPassDesc) (RenderPass, error)
	NewDescriptorSetLayout(bindings []DescriptorBinding) (DescriptorSetLayout, error)
	NewPipelineLayout(sets []DescriptorSetLayout) (PipelineLayout, error)
	NewGraphicsPipeline(desc PipelineDesc) (Pipeline, error)
	NewFramebuffer(info FramebufferInfo) (Framebuffer, error)
	NewDescriptorPool(maxSets int, sizes []DescriptorPoolSize) (DescriptorPool, error)
	NewCommandPool(family int) (CommandPool, error)
	NewSemaphore() (Semaphore, error)
	NewFence(signaled bool) (Fence, error)

	// WaitForFences blocks without timeout until every fence is signaled.
	WaitForFences(fences ...Fence) error
	ResetFences(fences ...Fence) error
	UpdateDescriptorSets(writes []DescriptorWrite) error
}

// Queue is an execution queue of a Device.
type Queue interface {
	Submit(info SubmitInfo, signal Fence) error
	// Present returns StatusOutOfDate and StatusSuboptimal without an error.
	Present(info PresentInfo) (Status, error)
	WaitIdle() error
}

// Swapchain is the ring of presentable images backing the surface.
type Swapchain interface {
	Destroyer

	// Images returns the presentable images. They belong to the swapchain
	// and must not be destroyed individually.
	Images() ([]Image, error)

	// AcquireNextImage waits without timeout for the next presentable image
	// and signals the semaphore once it is available. StatusOutOfDate is
	// returned without an error.
	AcquireNextImage(signal Semaphore) (int, Status, error)
}

// Image is a device image together with its backing memory.
type Image interface {
	Destroyer
	Format() Format
}

// Buffer is a device buffer together with its backing memory.
type Buffer interface {
	Destroyer
	Size() int

	// Map returns the host view of a HostVisible buffer. The mapping stays
	// valid until Unmap or Destroy.
	Map() ([]byte, error)
	Unmap()
}

// CommandPool allocates primary command buffers for one queue family.
type CommandPool interface {
	Destroyer
	Allocate(count int) ([]CommandBuffer, error)
	Free(buffers ...CommandBuffer)
}

// CommandBuffer records commands for later submission.
type CommandBuffer interface {
	Begin(oneTimeSubmit bool) error
	End() error

	BeginRenderPass(info RenderPassBegin) error
	EndRenderPass()
	BindPipeline(pipeline Pipeline)
	BindVertexBuffers(buffers []Buffer, offsets []int)
	BindIndexBuffer(buffer Buffer, offset int)
	BindDescriptorSets(layout PipelineLayout, firstSet int, sets []DescriptorSet, dynamicOffsets []int)
	DrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance int)

	PipelineBarrier(src, dst PipelineStage, barriers []ImageBarrier) error
	CopyBuffer(src, dst Buffer, size int) error
	CopyBufferToImage(src Buffer, dst Image, layout ImageLayout, extent Extent) error
}

// DescriptorPool allocates descriptor sets. Sets are released with the pool.
type DescriptorPool interface {
	Destroyer
	Allocate(layouts []DescriptorSetLayout) ([]DescriptorSet, error)
}

// DescriptorSet is owned by the pool it was allocated from.
type DescriptorSet interface {
	Layout() DescriptorSetLayout
}

type ImageView interface{ Destroyer }

type Sampler interface{ Destroyer }

type ShaderModule interface{ Destroyer }

type RenderPass interface{ Destroyer }

type DescriptorSetLayout interface{ Destroyer }

type PipelineLayout interface{ Destroyer }

type Pipeline interface{ Destroyer }

type Framebuffer interface{ Destroyer }

type Semaphore interface{ Destroyer }

type Fence interface{ Destroyer }
