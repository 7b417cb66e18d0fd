package vulkan

import (
	"log/slog"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/particles/driver"
)

type device struct {
	logger   *slog.Logger
	instance *Instance
	driver   core1_0.CoreDeviceDriver
	memory   *core1_0.PhysicalDeviceMemoryProperties

	// Nil unless the swapchain extension was enabled.
	swapchainExtension khr_swapchain.ExtensionDriver

	queues map[int]*queue
}

var _ driver.Device = (*device)(nil)

func (d *device) Destroy() {
	if d.driver == nil {
		return
	}
	d.driver.DestroyDevice(nil)
	d.driver = nil
}

func (d *device) Queue(family int) driver.Queue {
	if q, ok := d.queues[family]; ok {
		return q
	}
	if d.queues == nil {
		d.queues = make(map[int]*queue)
	}
	q := &queue{device: d, handle: d.driver.GetQueue(family, 0)}
	d.queues[family] = q
	return q
}

func (d *device) WaitIdle() error {
	_, err := d.driver.DeviceWaitIdle()
	return errors.Wrap(err, "wait for device idle")
}

func (d *device) NewSwapchain(info driver.SwapchainInfo) (driver.Swapchain, error) {
	if d.swapchainExtension == nil {
		return nil, errors.Newf("device opened without %s", khr_swapchain.ExtensionName)
	}

	sharing := core1_0.SharingModeExclusive
	if len(info.SharedFamilies) > 0 {
		sharing = core1_0.SharingModeConcurrent
	}

	handle, _, err := d.swapchainExtension.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: d.instance.surface,

		MinImageCount:    info.MinImageCount,
		ImageFormat:      core1_0.Format(info.Format.Format),
		ImageColorSpace:  khr_surface.ColorSpace(info.Format.ColorSpace),
		ImageExtent:      extent2D(info.Extent),
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharing,
		QueueFamilyIndices: info.SharedFamilies,

		PreTransform:   khr_surface.SurfaceTransformFlags(info.Transform),
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    khr_surface.PresentMode(info.PresentMode),
		Clipped:        true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create swapchain")
	}
	return &swapchain{device: d, handle: handle, format: info.Format.Format}, nil
}

func (d *device) NewImage(info driver.ImageInfo) (driver.Image, error) {
	handle, _, err := d.driver.CreateImage(nil, core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
			Depth:  1,
		},
		MipLevels:     info.MipLevels,
		ArrayLayers:   1,
		Format:        core1_0.Format(info.Format),
		Tiling:        core1_0.ImageTiling(info.Tiling),
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         core1_0.ImageUsageFlags(info.Usage),
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       core1_0.SampleCountFlags(info.Samples),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create image")
	}

	requirements := d.driver.GetImageMemoryRequirements(handle)
	memory, err := d.allocate(requirements.MemoryTypeBits, requirements.Size, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		d.driver.DestroyImage(handle, nil)
		return nil, errors.Wrap(err, "allocate image memory")
	}
	if _, err := d.driver.BindImageMemory(handle, memory, 0); err != nil {
		d.driver.DestroyImage(handle, nil)
		d.driver.FreeMemory(memory, nil)
		return nil, errors.Wrap(err, "bind image memory")
	}
	return &image{device: d, handle: handle, memory: memory, format: info.Format}, nil
}

func (d *device) NewImageView(img driver.Image, format driver.Format, aspect driver.ImageAspect, mipLevels int) (driver.ImageView, error) {
	handle, _, err := d.driver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    img.(*image).handle,
		ViewType: core1_0.ImageViewType2D,
		Format:   core1_0.Format(format),
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     core1_0.ImageAspectFlags(aspect),
			BaseMipLevel:   0,
			LevelCount:     mipLevels,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create image view")
	}
	return &imageView{device: d, handle: handle}, nil
}

func (d *device) NewBuffer(info driver.BufferInfo) (driver.Buffer, error) {
	handle, _, err := d.driver.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        info.Size,
		Usage:       core1_0.BufferUsageFlags(info.Usage),
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create buffer")
	}

	properties := core1_0.MemoryPropertyDeviceLocal
	if info.HostVisible {
		properties = core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent
	}
	requirements := d.driver.GetBufferMemoryRequirements(handle)
	memory, err := d.allocate(requirements.MemoryTypeBits, requirements.Size, properties)
	if err != nil {
		d.driver.DestroyBuffer(handle, nil)
		return nil, errors.Wrap(err, "allocate buffer memory")
	}
	if _, err := d.driver.BindBufferMemory(handle, memory, 0); err != nil {
		d.driver.DestroyBuffer(handle, nil)
		d.driver.FreeMemory(memory, nil)
		return nil, errors.Wrap(err, "bind buffer memory")
	}
	return &buffer{
		device:      d,
		handle:      handle,
		memory:      memory,
		size:        info.Size,
		hostVisible: info.HostVisible,
	}, nil
}

func (d *device) allocate(typeBits uint32, size int, properties core1_0.MemoryPropertyFlags) (core1_0.DeviceMemory, error) {
	typeIndex, err := findMemoryType(d.memory, typeBits, properties)
	if err != nil {
		return core1_0.DeviceMemory{}, err
	}
	memory, _, err := d.driver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  size,
		MemoryTypeIndex: typeIndex,
	})
	return memory, err
}

func (d *device) NewSampler(info driver.SamplerInfo) (driver.Sampler, error) {
	handle, _, err := d.driver.CreateSampler(nil, core1_0.SamplerCreateInfo{
		MagFilter:    core1_0.FilterLinear,
		MinFilter:    core1_0.FilterLinear,
		AddressModeU: core1_0.SamplerAddressModeRepeat,
		AddressModeV: core1_0.SamplerAddressModeRepeat,
		AddressModeW: core1_0.SamplerAddressModeRepeat,

		AnisotropyEnable: info.Anisotropy > 1,
		MaxAnisotropy:    info.Anisotropy,

		BorderColor: core1_0.BorderColorIntOpaqueBlack,
		MipmapMode:  core1_0.SamplerMipmapModeLinear,
		MinLod:      0,
		MaxLod:      info.MaxLod,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create sampler")
	}
	return &sampler{device: d, handle: handle}, nil
}

func (d *device) NewShaderModule(code []byte) (driver.ShaderModule, error) {
	if len(code)%4 != 0 {
		return nil, errors.Newf("shader code of %d bytes is not a whole number of words", len(code))
	}
	handle, _, err := d.driver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: bytesToBytecode(code),
	})
	if err != nil {
		return nil, errors.Wrap(err, "create shader module")
	}
	return &shaderModule{device: d, handle: handle}, nil
}

func (d *device) NewFramebuffer(info driver.FramebufferInfo) (driver.Framebuffer, error) {
	attachments := make([]core1_0.ImageView, len(info.Attachments))
	for i, v := range info.Attachments {
		attachments[i] = v.(*imageView).handle
	}
	handle, _, err := d.driver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass:  info.RenderPass.(*renderPass).handle,
		Layers:      1,
		Attachments: attachments,
		Width:       info.Extent.Width,
		Height:      info.Extent.Height,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create framebuffer")
	}
	return &framebuffer{device: d, handle: handle}, nil
}

func (d *device) NewCommandPool(family int) (driver.CommandPool, error) {
	handle, _, err := d.driver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: family,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create command pool")
	}
	return &commandPool{device: d, handle: handle}, nil
}

func (d *device) NewSemaphore() (driver.Semaphore, error) {
	handle, _, err := d.driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return nil, errors.Wrap(err, "create semaphore")
	}
	return &semaphore{device: d, handle: handle}, nil
}

func (d *device) NewFence(signaled bool) (driver.Fence, error) {
	var info core1_0.FenceCreateInfo
	if signaled {
		info.Flags = core1_0.FenceCreateSignaled
	}
	handle, _, err := d.driver.CreateFence(nil, info)
	if err != nil {
		return nil, errors.Wrap(err, "create fence")
	}
	return &fence{device: d, handle: handle}, nil
}

func (d *device) WaitForFences(fences ...driver.Fence) error {
	_, err := d.driver.WaitForFences(true, common.NoTimeout, fenceHandles(fences)...)
	return errors.Wrap(err, "wait for fences")
}

func (d *device) ResetFences(fences ...driver.Fence) error {
	_, err := d.driver.ResetFences(fenceHandles(fences)...)
	return errors.Wrap(err, "reset fences")
}

func fenceHandles(fences []driver.Fence) []core1_0.Fence {
	out := make([]core1_0.Fence, len(fences))
	for i, f := range fences {
		out[i] = f.(*fence).handle
	}
	return out
}

func semaphoreHandles(semaphores []driver.Semaphore) []core1_0.Semaphore {
	out := make([]core1_0.Semaphore, len(semaphores))
	for i, s := range semaphores {
		out[i] = s.(*semaphore).handle
	}
	return out
}

type queue struct {
	device *device
	handle core1_0.Queue
}

func (q *queue) Submit(info driver.SubmitInfo, signal driver.Fence) error {
	stages := make([]core1_0.PipelineStageFlags, len(info.WaitStages))
	for i, s := range info.WaitStages {
		stages[i] = core1_0.PipelineStageFlags(s)
	}
	buffers := make([]core1_0.CommandBuffer, len(info.CommandBuffers))
	for i, b := range info.CommandBuffers {
		buffers[i] = b.(*commandBuffer).handle
	}

	var f *core1_0.Fence
	if signal != nil {
		f = &signal.(*fence).handle
	}
	_, err := q.device.driver.QueueSubmit(q.handle, f, core1_0.SubmitInfo{
		WaitSemaphores:   semaphoreHandles(info.WaitSemaphores),
		WaitDstStageMask: stages,
		CommandBuffers:   buffers,
		SignalSemaphores: semaphoreHandles(info.SignalSemaphores),
	})
	return errors.Wrap(err, "submit")
}

func (q *queue) Present(info driver.PresentInfo) (driver.Status, error) {
	sc := info.Swapchain.(*swapchain)
	res, err := q.device.swapchainExtension.QueuePresent(q.handle, khr_swapchain.PresentInfo{
		WaitSemaphores: semaphoreHandles(info.WaitSemaphores),
		Swapchains:     []khr_swapchain.Swapchain{sc.handle},
		ImageIndices:   []int{info.ImageIndex},
	})
	return presentStatus(res, err, "present")
}

func (q *queue) WaitIdle() error {
	_, err := q.device.driver.QueueWaitIdle(q.handle)
	return errors.Wrap(err, "wait for queue idle")
}

type swapchain struct {
	device *device
	handle khr_swapchain.Swapchain
	format driver.Format
}

func (s *swapchain) Images() ([]driver.Image, error) {
	handles, _, err := s.device.swapchainExtension.GetSwapchainImages(s.handle)
	if err != nil {
		return nil, errors.Wrap(err, "get swapchain images")
	}
	images := make([]driver.Image, len(handles))
	for i, h := range handles {
		images[i] = &image{device: s.device, handle: h, format: s.format, borrowed: true}
	}
	return images, nil
}

func (s *swapchain) AcquireNextImage(signal driver.Semaphore) (int, driver.Status, error) {
	sem := signal.(*semaphore).handle
	index, res, err := s.device.swapchainExtension.AcquireNextImage(s.handle, common.NoTimeout, &sem, nil)
	status, err := presentStatus(res, err, "acquire next image")
	return index, status, err
}

func (s *swapchain) Destroy() {
	if !s.handle.Initialized() {
		return
	}
	s.device.swapchainExtension.DestroySwapchain(s.handle, nil)
	s.handle = khr_swapchain.Swapchain{}
}

type image struct {
	device *device
	handle core1_0.Image
	memory core1_0.DeviceMemory
	format driver.Format
	// Swapchain images are owned by their swapchain.
	borrowed bool
}

func (i *image) Format() driver.Format {
	return i.format
}

func (i *image) Destroy() {
	if i.borrowed || !i.handle.Initialized() {
		return
	}
	i.device.driver.DestroyImage(i.handle, nil)
	i.device.driver.FreeMemory(i.memory, nil)
	i.handle = core1_0.Image{}
}

type buffer struct {
	device      *device
	handle      core1_0.Buffer
	memory      core1_0.DeviceMemory
	size        int
	hostVisible bool
	mapped      []byte
}

func (b *buffer) Size() int {
	return b.size
}

func (b *buffer) Map() ([]byte, error) {
	if !b.hostVisible {
		return nil, errors.New("map a device-local buffer")
	}
	if b.mapped != nil {
		return b.mapped, nil
	}
	ptr, _, err := b.device.driver.MapMemory(b.memory, 0, b.size, 0)
	if err != nil {
		return nil, errors.Wrap(err, "map buffer memory")
	}
	b.mapped = unsafe.Slice((*byte)(ptr), b.size)
	return b.mapped, nil
}

func (b *buffer) Unmap() {
	if b.mapped == nil {
		return
	}
	b.device.driver.UnmapMemory(b.memory)
	b.mapped = nil
}

func (b *buffer) Destroy() {
	if !b.handle.Initialized() {
		return
	}
	b.Unmap()
	b.device.driver.DestroyBuffer(b.handle, nil)
	b.device.driver.FreeMemory(b.memory, nil)
	b.handle = core1_0.Buffer{}
}
