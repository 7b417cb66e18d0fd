package driver

// DeviceInfo describes the logical device opened by PhysicalDevice.Open.
type DeviceInfo struct {
	// QueueFamilies lists each family index once; one queue is
	// created per family.
	QueueFamilies []int
	Extensions    []string
	Features      Features
}

type SwapchainInfo struct {
	Format        SurfaceFormat
	PresentMode   PresentMode
	Extent        Extent
	MinImageCount int
	Transform     uint32

	// SharedFamilies is empty for exclusive sharing; otherwise it
	// lists the families the images are shared between.
	SharedFamilies []int
}

type ImageInfo struct {
	Extent    Extent
	Format    Format
	MipLevels int
	Samples   SampleCount
	Tiling    ImageTiling
	Usage     ImageUsage
}

type BufferInfo struct {
	Size  int
	Usage BufferUsage
	// HostVisible buffers are host-coherent and can be mapped.
	HostVisible bool
}

type SamplerInfo struct {
	Anisotropy float32
	MaxLod     float32
}

type AttachmentDesc struct {
	Format        Format
	Samples       SampleCount
	Load          LoadOp
	Store         StoreOp
	InitialLayout ImageLayout
	FinalLayout   ImageLayout
}

type AttachmentRef struct {
	Attachment int
	Layout     ImageLayout
}

type SubpassDesc struct {
	Color   []AttachmentRef
	Resolve []AttachmentRef
	Depth   *AttachmentRef
}

// External is the subpass index used for the implicit subpass outside the
// render pass.
const External = -1

type SubpassDependency struct {
	SrcSubpass, DstSubpass int
	SrcStages, DstStages   PipelineStage
	SrcAccess, DstAccess   Access
}

type RenderPassDesc struct {
	Attachments  []AttachmentDesc
	Subpasses    []SubpassDesc
	Dependencies []SubpassDependency
}

type DescriptorBinding struct {
	Binding int
	Type    DescriptorType
	Count   int
	Stages  ShaderStage
}

type DescriptorPoolSize struct {
	Type  DescriptorType
	Count int
}

type BufferRange struct {
	Buffer Buffer
	Offset int
	Range  int
}

type ImageSampler struct {
	View    ImageView
	Sampler Sampler
	Layout  ImageLayout
}

type DescriptorWrite struct {
	Set     DescriptorSet
	Binding int
	Type    DescriptorType
	Buffers []BufferRange
	Images  []ImageSampler
}

type ShaderStageDesc struct {
	Stage  ShaderStage
	Module ShaderModule
	Entry  string
	// Specialization maps constant ids to 32-bit integer values.
	Specialization map[uint32]int32
}

type VertexAttribute struct {
	Location int
	Format   Format
	Offset   int
}

type VertexLayout struct {
	Stride     int
	Attributes []VertexAttribute
}

type BlendMode int

const (
	BlendNone BlendMode = iota
	// BlendAlpha is standard source-over alpha blending.
	BlendAlpha
)

type PipelineDesc struct {
	Stages     []ShaderStageDesc
	Vertex     VertexLayout
	Extent     Extent
	Samples    SampleCount
	Cull       CullMode
	Blend      BlendMode
	DepthTest  bool
	DepthWrite bool
	Layout     PipelineLayout
	RenderPass RenderPass
}

type FramebufferInfo struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Extent      Extent
}

type SubmitInfo struct {
	WaitSemaphores   []Semaphore
	WaitStages       []PipelineStage
	CommandBuffers   []CommandBuffer
	SignalSemaphores []Semaphore
}

type PresentInfo struct {
	WaitSemaphores []Semaphore
	Swapchain      Swapchain
	ImageIndex     int
}

type RenderPassBegin struct {
	RenderPass   RenderPass
	Framebuffer  Framebuffer
	Extent       Extent
	ClearColor   [4]float32
	ClearDepth   float32
	ClearStencil uint32
}

type ImageBarrier struct {
	Image     Image
	Aspect    ImageAspect
	MipLevels int
	OldLayout ImageLayout
	NewLayout ImageLayout
	SrcAccess Access
	DstAccess Access
}
