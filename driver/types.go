package driver

import (
	"github.com/google/uuid"
)

// Enumerations in this file share their numeric values with the matching
// Vulkan enums so that backends can convert them with a plain cast.

type Format int32

const (
	FormatUndefined       Format = 0
	FormatR8G8B8A8SRGB    Format = 43
	FormatB8G8R8A8UNorm   Format = 44
	FormatB8G8R8A8SRGB    Format = 50
	FormatR32G32SFloat    Format = 103
	FormatR32G32B32SFloat Format = 106
	FormatD32SFloat       Format = 126
	FormatD24UNormS8UInt  Format = 129
	FormatD32SFloatS8UInt Format = 130
)

// HasStencil reports whether a depth format carries a stencil component.
func (f Format) HasStencil() bool {
	return f == FormatD32SFloatS8UInt || f == FormatD24UNormS8UInt
}

type ColorSpace int32

const ColorSpaceSRGBNonlinear ColorSpace = 0

type PresentMode int32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFIFO        PresentMode = 2
	PresentModeFIFORelaxed PresentMode = 3
)

type SampleCount uint32

const (
	Samples1  SampleCount = 0x1
	Samples2  SampleCount = 0x2
	Samples4  SampleCount = 0x4
	Samples8  SampleCount = 0x8
	Samples16 SampleCount = 0x10
	Samples32 SampleCount = 0x20
	Samples64 SampleCount = 0x40
)

type ImageTiling int32

const (
	TilingOptimal ImageTiling = 0
	TilingLinear  ImageTiling = 1
)

type FormatFeatures uint32

const (
	FormatFeatureSampledImage           FormatFeatures = 0x1
	FormatFeatureColorAttachment        FormatFeatures = 0x80
	FormatFeatureDepthStencilAttachment FormatFeatures = 0x200
	FormatFeatureSampledImageFilterLin  FormatFeatures = 0x1000
)

type ImageLayout int32

const (
	LayoutUndefined              ImageLayout = 0
	LayoutColorAttachmentOptimal ImageLayout = 2
	LayoutDepthAttachmentOptimal ImageLayout = 3
	LayoutShaderReadOnlyOptimal  ImageLayout = 5
	LayoutTransferDstOptimal     ImageLayout = 7
	LayoutPresentSrc             ImageLayout = 1000001002
)

type ImageAspect uint32

const (
	AspectColor   ImageAspect = 0x1
	AspectDepth   ImageAspect = 0x2
	AspectStencil ImageAspect = 0x4
)

type ImageUsage uint32

const (
	ImageUsageTransferSrc         ImageUsage = 0x1
	ImageUsageTransferDst         ImageUsage = 0x2
	ImageUsageSampled             ImageUsage = 0x4
	ImageUsageColorAttachment     ImageUsage = 0x10
	ImageUsageDepthAttachment     ImageUsage = 0x20
	ImageUsageTransientAttachment ImageUsage = 0x40
)

type BufferUsage uint32

const (
	BufferUsageTransferSrc BufferUsage = 0x1
	BufferUsageTransferDst BufferUsage = 0x2
	BufferUsageUniform     BufferUsage = 0x10
	BufferUsageIndex       BufferUsage = 0x40
	BufferUsageVertex      BufferUsage = 0x80
)

type PipelineStage uint32

const (
	StageTopOfPipe             PipelineStage = 0x1
	StageFragmentShader        PipelineStage = 0x80
	StageEarlyFragmentTests    PipelineStage = 0x100
	StageColorAttachmentOutput PipelineStage = 0x400
	StageTransfer              PipelineStage = 0x1000
)

type Access uint32

const (
	AccessShaderRead           Access = 0x20
	AccessColorAttachmentWrite Access = 0x100
	AccessDepthAttachmentRead  Access = 0x200
	AccessDepthAttachmentWrite Access = 0x400
	AccessTransferWrite        Access = 0x1000
)

type ShaderStage uint32

const (
	ShaderVertex   ShaderStage = 0x1
	ShaderFragment ShaderStage = 0x10
)

type DescriptorType int32

const (
	DescriptorCombinedImageSampler DescriptorType = 1
	DescriptorUniformBuffer        DescriptorType = 6
	DescriptorUniformBufferDynamic DescriptorType = 8
)

type LoadOp int32

const (
	LoadOpLoad     LoadOp = 0
	LoadOpClear    LoadOp = 1
	LoadOpDontCare LoadOp = 2
)

type StoreOp int32

const (
	StoreOpStore    StoreOp = 0
	StoreOpDontCare StoreOp = 1
)

type CullMode uint32

const (
	CullNone CullMode = 0
	CullBack CullMode = 0x2
)

// Status is the non-error outcome of acquire and present operations.
type Status int

const (
	StatusSuccess Status = iota
	StatusSuboptimal
	StatusOutOfDate
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusSuboptimal:
		return "suboptimal"
	case StatusOutOfDate:
		return "out-of-date"
	}
	return "unknown"
}

// UndefinedExtent is the width reported in SurfaceCapabilities.CurrentExtent
// when the surface size is decided by the swapchain.
const UndefinedExtent = -1

type Extent struct {
	Width, Height int
}

// Zero reports whether either dimension is zero, as for a minimized window.
func (e Extent) Zero() bool {
	return e.Width <= 0 || e.Height <= 0
}

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

type SurfaceCapabilities struct {
	MinImageCount    int
	MaxImageCount    int
	CurrentExtent    Extent
	MinImageExtent   Extent
	MaxImageExtent   Extent
	CurrentTransform uint32
}

type SurfaceSupport struct {
	Capabilities SurfaceCapabilities
	Formats      []SurfaceFormat
	PresentModes []PresentMode
}

type QueueFamily struct {
	Graphics bool
	Present  bool
}

type Features struct {
	SamplerAnisotropy bool
}

type Limits struct {
	MinUniformBufferOffsetAlignment int
	MaxSamplerAnisotropy            float32
	FramebufferColorSampleCounts    SampleCount
	FramebufferDepthSampleCounts    SampleCount
}

type DeviceProperties struct {
	Name              string
	PipelineCacheUUID uuid.UUID
	Limits            Limits
}

type FormatProperties struct {
	LinearTiling  FormatFeatures
	OptimalTiling FormatFeatures
}

// Supports reports whether the given tiling provides every bit of features.
func (p FormatProperties) Supports(tiling ImageTiling, features FormatFeatures) bool {
	switch tiling {
	case TilingLinear:
		return p.LinearTiling&features == features
	case TilingOptimal:
		return p.OptimalTiling&features == features
	}
	return false
}
