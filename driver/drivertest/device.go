package drivertest

import (
	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/particles/driver"
)

// Device is a fake driver.Device.
type Device struct {
	object
	physical *PhysicalDevice
	Info     driver.DeviceInfo
	queues   map[int]*Queue

	acquireScript []driver.Status
	presentScript []driver.Status

	// Counters inspected by tests.
	WaitIdleCalls int
	Submits       int
	Presents      int
	Acquires      int
	Swapchains    []*Swapchain
	Writes        []driver.DescriptorWrite
	// FenceWaits holds the fences of every WaitForFences call in order.
	FenceWaits [][]driver.Fence
	// Recorded holds a copy of the commands of every submitted buffer.
	Recorded [][]Command
}

var _ driver.Device = (*Device)(nil)

func newDevice(physical *PhysicalDevice, info driver.DeviceInfo) *Device {
	d := &Device{
		object:   physical.tracker.track(KindDevice),
		physical: physical,
		Info:     info,
		queues:   make(map[int]*Queue),
	}
	for _, family := range info.QueueFamilies {
		d.queues[family] = &Queue{device: d, Family: family}
	}
	return d
}

// ScriptAcquire queues the statuses returned by the next acquires. Acquires
// past the end of the script succeed unless the surface was resized, in
// which case they report out-of-date. Presents behave the same way.
func (d *Device) ScriptAcquire(statuses ...driver.Status) {
	d.acquireScript = append(d.acquireScript, statuses...)
}

// ScriptPresent queues the statuses returned by the next presents.
func (d *Device) ScriptPresent(statuses ...driver.Status) {
	d.presentScript = append(d.presentScript, statuses...)
}

func pop(script *[]driver.Status) driver.Status {
	if len(*script) == 0 {
		return driver.StatusSuccess
	}
	s := (*script)[0]
	*script = (*script)[1:]
	return s
}

func (d *Device) Queue(family int) driver.Queue {
	q, ok := d.queues[family]
	if !ok {
		return nil
	}
	return q
}

func (d *Device) WaitIdle() error {
	d.WaitIdleCalls++
	return d.alive()
}

func (d *Device) NewSwapchain(info driver.SwapchainInfo) (driver.Swapchain, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	if info.Extent.Zero() {
		return nil, errors.Newf("swapchain extent %dx%d is empty", info.Extent.Width, info.Extent.Height)
	}
	caps := d.physical.Surface.support().Capabilities
	if info.MinImageCount < caps.MinImageCount || (caps.MaxImageCount > 0 && info.MinImageCount > caps.MaxImageCount) {
		return nil, errors.Newf("image count %d outside [%d, %d]", info.MinImageCount, caps.MinImageCount, caps.MaxImageCount)
	}
	if len(info.SharedFamilies) == 1 {
		return nil, errors.New("concurrent sharing needs at least two families")
	}

	sc := &Swapchain{
		object: d.tracker.track(KindSwapchain),
		device: d,
		Info:   info,
	}
	for i := 0; i < info.MinImageCount; i++ {
		sc.images = append(sc.images, &Image{
			swapchain: sc,
			Info: driver.ImageInfo{
				Extent:    info.Extent,
				Format:    info.Format.Format,
				MipLevels: 1,
				Samples:   driver.Samples1,
				Usage:     driver.ImageUsageColorAttachment,
			},
		})
	}
	d.Swapchains = append(d.Swapchains, sc)
	return sc, nil
}

func (d *Device) NewImage(info driver.ImageInfo) (driver.Image, error) {
	if info.Extent.Zero() {
		return nil, errors.New("image extent is empty")
	}
	if info.MipLevels < 1 {
		return nil, errors.New("image needs at least one mip level")
	}
	return &Image{object: d.tracker.track(KindImage), Info: info}, nil
}

func (d *Device) NewImageView(image driver.Image, format driver.Format, aspect driver.ImageAspect, mipLevels int) (driver.ImageView, error) {
	img, ok := image.(*Image)
	if !ok || img == nil {
		return nil, errors.New("image view of a foreign image")
	}
	if err := img.alive(); err != nil {
		return nil, err
	}
	return &ImageView{object: d.tracker.track(KindImageView), Image: img, Aspect: aspect}, nil
}

func (d *Device) NewBuffer(info driver.BufferInfo) (driver.Buffer, error) {
	if info.Size <= 0 {
		return nil, errors.Newf("buffer size %d is not positive", info.Size)
	}
	return &Buffer{
		object: d.tracker.track(KindBuffer),
		Info:   info,
		data:   make([]byte, info.Size),
	}, nil
}

func (d *Device) NewSampler(info driver.SamplerInfo) (driver.Sampler, error) {
	if info.Anisotropy > d.physical.Props.Limits.MaxSamplerAnisotropy {
		return nil, errors.New("sampler anisotropy above device limit")
	}
	return &handle{object: d.tracker.track(KindSampler)}, nil
}

func (d *Device) NewShaderModule(code []byte) (driver.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, errors.Newf("shader code length %d is not a positive multiple of 4", len(code))
	}
	return &handle{object: d.tracker.track(KindShaderModule)}, nil
}

func (d *Device) NewRenderPass(desc driver.RenderPassDesc) (driver.RenderPass, error) {
	if len(desc.Subpasses) == 0 {
		return nil, errors.New("render pass without subpasses")
	}
	for _, sub := range desc.Subpasses {
		refs := append(append([]driver.AttachmentRef(nil), sub.Color...), sub.Resolve...)
		if sub.Depth != nil {
			refs = append(refs, *sub.Depth)
		}
		for _, ref := range refs {
			if ref.Attachment < 0 || ref.Attachment >= len(desc.Attachments) {
				return nil, errors.Newf("attachment reference %d out of range", ref.Attachment)
			}
		}
	}
	return &RenderPass{object: d.tracker.track(KindRenderPass), Desc: desc}, nil
}

func (d *Device) NewDescriptorSetLayout(bindings []driver.DescriptorBinding) (driver.DescriptorSetLayout, error) {
	for _, b := range bindings {
		if b.Count < 1 {
			return nil, errors.Newf("binding %d has no descriptors", b.Binding)
		}
	}
	return &DescriptorSetLayout{object: d.tracker.track(KindDescriptorSetLayout), Bindings: bindings}, nil
}

func (d *Device) NewPipelineLayout(sets []driver.DescriptorSetLayout) (driver.PipelineLayout, error) {
	for _, s := range sets {
		if err := s.(*DescriptorSetLayout).alive(); err != nil {
			return nil, err
		}
	}
	return &PipelineLayout{object: d.tracker.track(KindPipelineLayout), Sets: sets}, nil
}

func (d *Device) NewGraphicsPipeline(desc driver.PipelineDesc) (driver.Pipeline, error) {
	if desc.Layout == nil || desc.RenderPass == nil {
		return nil, errors.New("pipeline without layout or render pass")
	}
	if err := desc.RenderPass.(*RenderPass).alive(); err != nil {
		return nil, err
	}
	for _, stage := range desc.Stages {
		if err := stage.Module.(*handle).alive(); err != nil {
			return nil, err
		}
	}
	return &Pipeline{object: d.tracker.track(KindPipeline), Desc: desc}, nil
}

func (d *Device) NewFramebuffer(info driver.FramebufferInfo) (driver.Framebuffer, error) {
	pass, ok := info.RenderPass.(*RenderPass)
	if !ok {
		return nil, errors.New("framebuffer without render pass")
	}
	if len(info.Attachments) != len(pass.Desc.Attachments) {
		return nil, errors.Newf("framebuffer has %d attachments, render pass expects %d",
			len(info.Attachments), len(pass.Desc.Attachments))
	}
	for _, view := range info.Attachments {
		v, ok := view.(*ImageView)
		if !ok || v == nil {
			return nil, errors.New("framebuffer attachment is not a view")
		}
		if err := v.alive(); err != nil {
			return nil, err
		}
	}
	return &Framebuffer{object: d.tracker.track(KindFramebuffer), Info: info}, nil
}

func (d *Device) NewDescriptorPool(maxSets int, sizes []driver.DescriptorPoolSize) (driver.DescriptorPool, error) {
	if maxSets < 1 {
		return nil, errors.New("descriptor pool without sets")
	}
	return &DescriptorPool{object: d.tracker.track(KindDescriptorPool), MaxSets: maxSets, Sizes: sizes}, nil
}

func (d *Device) NewCommandPool(family int) (driver.CommandPool, error) {
	if _, ok := d.queues[family]; !ok {
		return nil, errors.Newf("no queue for family %d", family)
	}
	return &CommandPool{object: d.tracker.track(KindCommandPool)}, nil
}

func (d *Device) NewSemaphore() (driver.Semaphore, error) {
	return &Semaphore{object: d.tracker.track(KindSemaphore)}, nil
}

func (d *Device) NewFence(signaled bool) (driver.Fence, error) {
	return &Fence{object: d.tracker.track(KindFence), Signaled: signaled}, nil
}

func (d *Device) WaitForFences(fences ...driver.Fence) error {
	d.FenceWaits = append(d.FenceWaits, append([]driver.Fence(nil), fences...))
	for _, f := range fences {
		fence := f.(*Fence)
		if err := fence.alive(); err != nil {
			return err
		}
		if !fence.Signaled {
			return errors.Newf("waiting on %s, which was never submitted, would block forever", fence)
		}
	}
	return nil
}

func (d *Device) ResetFences(fences ...driver.Fence) error {
	for _, f := range fences {
		fence := f.(*Fence)
		if err := fence.alive(); err != nil {
			return err
		}
		fence.Signaled = false
	}
	return nil
}

func (d *Device) UpdateDescriptorSets(writes []driver.DescriptorWrite) error {
	for _, w := range writes {
		if w.Set == nil {
			return errors.New("descriptor write without set")
		}
		if err := w.Set.(*DescriptorSet).pool.alive(); err != nil {
			return err
		}
		for _, r := range w.Buffers {
			if r.Range <= 0 {
				return errors.Newf("descriptor range %d at binding %d is empty", r.Range, w.Binding)
			}
			b := r.Buffer.(*Buffer)
			if err := b.alive(); err != nil {
				return err
			}
			if r.Offset+r.Range > b.Info.Size {
				return errors.Newf("descriptor range [%d, %d) exceeds buffer size %d", r.Offset, r.Offset+r.Range, b.Info.Size)
			}
		}
	}
	d.Writes = append(d.Writes, writes...)
	return nil
}

// Queue is a fake driver.Queue. Submitted work completes immediately.
type Queue struct {
	device *Device
	Family int
}

var _ driver.Queue = (*Queue)(nil)

func (q *Queue) Submit(info driver.SubmitInfo, signal driver.Fence) error {
	if len(info.WaitSemaphores) != len(info.WaitStages) {
		return errors.New("wait semaphores and wait stages differ in length")
	}
	for _, s := range info.WaitSemaphores {
		if s == nil {
			return errors.New("waiting on a nil semaphore")
		}
	}
	for _, cb := range info.CommandBuffers {
		buf := cb.(*CommandBuffer)
		if err := buf.alive(); err != nil {
			return err
		}
		if buf.recording {
			return errors.Newf("submitting %s while it is still recording", buf)
		}
	}
	var fence *Fence
	if signal != nil {
		fence = signal.(*Fence)
		if err := fence.alive(); err != nil {
			return err
		}
		if fence.Signaled {
			return errors.Newf("submitting with %s still signaled", fence)
		}
	}

	for _, cb := range info.CommandBuffers {
		q.device.Recorded = append(q.device.Recorded, append([]Command(nil), cb.(*CommandBuffer).Commands...))
	}
	if fence != nil {
		fence.Signaled = true
	}
	q.device.Submits++
	return nil
}

func (q *Queue) Present(info driver.PresentInfo) (driver.Status, error) {
	sc := info.Swapchain.(*Swapchain)
	if err := sc.alive(); err != nil {
		return 0, err
	}
	if info.ImageIndex < 0 || info.ImageIndex >= len(sc.images) {
		return 0, errors.Newf("present of image %d out of range", info.ImageIndex)
	}
	q.device.Presents++
	status := pop(&q.device.presentScript)
	if status == driver.StatusSuccess && sc.stale() {
		status = driver.StatusOutOfDate
	}
	return status, nil
}

func (q *Queue) WaitIdle() error {
	return nil
}

// Swapchain is a fake driver.Swapchain. Images are handed out round-robin.
type Swapchain struct {
	object
	device *Device
	Info   driver.SwapchainInfo
	images []*Image
	next   int
}

var _ driver.Swapchain = (*Swapchain)(nil)

func (s *Swapchain) Images() ([]driver.Image, error) {
	if err := s.alive(); err != nil {
		return nil, err
	}
	images := make([]driver.Image, 0, len(s.images))
	for _, img := range s.images {
		images = append(images, img)
	}
	return images, nil
}

func (s *Swapchain) AcquireNextImage(signal driver.Semaphore) (int, driver.Status, error) {
	if err := s.alive(); err != nil {
		return 0, 0, err
	}
	if err := signal.(*Semaphore).alive(); err != nil {
		return 0, 0, err
	}
	s.device.Acquires++

	status := pop(&s.device.acquireScript)
	if status == driver.StatusSuccess && s.stale() {
		status = driver.StatusOutOfDate
	}
	if status == driver.StatusOutOfDate {
		return 0, status, nil
	}
	index := s.next
	s.next = (s.next + 1) % len(s.images)
	return index, status, nil
}

// stale reports whether the surface no longer matches the swapchain extent,
// as after a resize the swapchain was not told about.
func (s *Swapchain) stale() bool {
	surface := s.device.physical.Surface
	if surface.UndefinedExtent {
		return false
	}
	return surface.Width != s.Info.Extent.Width || surface.Height != s.Info.Extent.Height
}

// Image is a fake driver.Image. Swapchain images are not tracked.
type Image struct {
	object
	Info      driver.ImageInfo
	swapchain *Swapchain
}

func (i *Image) Format() driver.Format { return i.Info.Format }

func (i *Image) Destroy() {
	if i.swapchain != nil {
		panic("swapchain images are destroyed with their swapchain")
	}
	i.release()
}

func (i *Image) alive() error {
	if i.swapchain != nil {
		return i.swapchain.alive()
	}
	return i.object.alive()
}

type ImageView struct {
	object
	Image  *Image
	Aspect driver.ImageAspect
}

// Buffer is a fake driver.Buffer backed by a byte slice.
type Buffer struct {
	object
	Info   driver.BufferInfo
	data   []byte
	mapped bool
}

func (b *Buffer) Size() int { return b.Info.Size }

func (b *Buffer) Map() ([]byte, error) {
	if err := b.alive(); err != nil {
		return nil, err
	}
	if !b.Info.HostVisible {
		return nil, errors.New("mapping a buffer that is not host visible")
	}
	if b.mapped {
		return nil, errors.New("buffer is already mapped")
	}
	b.mapped = true
	return b.data, nil
}

func (b *Buffer) Unmap() { b.mapped = false }

// Bytes returns the buffer contents.
func (b *Buffer) Bytes() []byte { return b.data }

type RenderPass struct {
	object
	Desc driver.RenderPassDesc
}

type DescriptorSetLayout struct {
	object
	Bindings []driver.DescriptorBinding
}

type PipelineLayout struct {
	object
	Sets []driver.DescriptorSetLayout
}

type Pipeline struct {
	object
	Desc driver.PipelineDesc
}

type Framebuffer struct {
	object
	Info driver.FramebufferInfo
}

// DescriptorPool is a fake driver.DescriptorPool. Its sets are not tracked.
type DescriptorPool struct {
	object
	MaxSets int
	Sizes   []driver.DescriptorPoolSize
	Sets    []*DescriptorSet
}

func (p *DescriptorPool) Allocate(layouts []driver.DescriptorSetLayout) ([]driver.DescriptorSet, error) {
	if err := p.alive(); err != nil {
		return nil, err
	}
	if len(p.Sets)+len(layouts) > p.MaxSets {
		return nil, errors.Newf("descriptor pool exhausted: %d sets in use, %d requested, %d max",
			len(p.Sets), len(layouts), p.MaxSets)
	}
	sets := make([]driver.DescriptorSet, 0, len(layouts))
	for _, l := range layouts {
		set := &DescriptorSet{pool: p, layout: l}
		p.Sets = append(p.Sets, set)
		sets = append(sets, set)
	}
	return sets, nil
}

type DescriptorSet struct {
	pool   *DescriptorPool
	layout driver.DescriptorSetLayout
}

func (s *DescriptorSet) Layout() driver.DescriptorSetLayout { return s.layout }

type Semaphore struct {
	object
}

type Fence struct {
	object
	Signaled bool
}

// handle is a tracked object with no state of its own.
type handle struct {
	object
}
