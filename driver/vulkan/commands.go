package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/particles/driver"
)

type commandPool struct {
	device *device
	handle core1_0.CommandPool
}

func (p *commandPool) Allocate(count int) ([]driver.CommandBuffer, error) {
	handles, _, err := p.device.driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        p.handle,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, errors.Wrap(err, "allocate command buffers")
	}
	buffers := make([]driver.CommandBuffer, len(handles))
	for i, h := range handles {
		buffers[i] = &commandBuffer{device: p.device, handle: h}
	}
	return buffers, nil
}

func (p *commandPool) Free(buffers ...driver.CommandBuffer) {
	if len(buffers) == 0 {
		return
	}
	handles := make([]core1_0.CommandBuffer, len(buffers))
	for i, b := range buffers {
		handles[i] = b.(*commandBuffer).handle
	}
	p.device.driver.FreeCommandBuffers(handles...)
}

// Destroy releases the pool together with any buffers still allocated
// from it.
func (p *commandPool) Destroy() {
	if !p.handle.Initialized() {
		return
	}
	p.device.driver.DestroyCommandPool(p.handle, nil)
	p.handle = core1_0.CommandPool{}
}

type commandBuffer struct {
	device *device
	handle core1_0.CommandBuffer
}

func (b *commandBuffer) vk() core1_0.CoreDeviceDriver {
	return b.device.driver
}

func (b *commandBuffer) Begin(oneTimeSubmit bool) error {
	var info core1_0.CommandBufferBeginInfo
	if oneTimeSubmit {
		info.Flags = core1_0.CommandBufferUsageOneTimeSubmit
	}
	_, err := b.vk().BeginCommandBuffer(b.handle, info)
	return errors.Wrap(err, "begin command buffer")
}

func (b *commandBuffer) End() error {
	_, err := b.vk().EndCommandBuffer(b.handle)
	return errors.Wrap(err, "end command buffer")
}

func (b *commandBuffer) BeginRenderPass(info driver.RenderPassBegin) error {
	err := b.vk().CmdBeginRenderPass(b.handle, core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  info.RenderPass.(*renderPass).handle,
			Framebuffer: info.Framebuffer.(*framebuffer).handle,
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: extent2D(info.Extent),
			},
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat(info.ClearColor),
				core1_0.ClearValueDepthStencil{Depth: info.ClearDepth, Stencil: info.ClearStencil},
			},
		})
	return errors.Wrap(err, "begin render pass")
}

func (b *commandBuffer) EndRenderPass() {
	b.vk().CmdEndRenderPass(b.handle)
}

func (b *commandBuffer) BindPipeline(p driver.Pipeline) {
	b.vk().CmdBindPipeline(b.handle, core1_0.PipelineBindPointGraphics, p.(*pipeline).handle)
}

func (b *commandBuffer) BindVertexBuffers(buffers []driver.Buffer, offsets []int) {
	handles := make([]core1_0.Buffer, len(buffers))
	for i, buf := range buffers {
		handles[i] = buf.(*buffer).handle
	}
	b.vk().CmdBindVertexBuffers(b.handle, 0, handles, offsets)
}

func (b *commandBuffer) BindIndexBuffer(buf driver.Buffer, offset int) {
	b.vk().CmdBindIndexBuffer(b.handle, buf.(*buffer).handle, offset, core1_0.IndexTypeUInt32)
}

func (b *commandBuffer) BindDescriptorSets(layout driver.PipelineLayout, firstSet int, sets []driver.DescriptorSet, dynamicOffsets []int) {
	handles := make([]core1_0.DescriptorSet, len(sets))
	for i, s := range sets {
		handles[i] = s.(*descriptorSet).handle
	}
	b.vk().CmdBindDescriptorSets(b.handle, core1_0.PipelineBindPointGraphics,
		layout.(*pipelineLayout).handle, firstSet, handles, dynamicOffsets)
}

func (b *commandBuffer) DrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance int) {
	b.vk().CmdDrawIndexed(b.handle, indexCount, instanceCount, uint32(firstIndex), vertexOffset, uint32(firstInstance))
}

func (b *commandBuffer) PipelineBarrier(src, dst driver.PipelineStage, barriers []driver.ImageBarrier) error {
	converted := make([]core1_0.ImageMemoryBarrier, len(barriers))
	for i, barrier := range barriers {
		converted[i] = core1_0.ImageMemoryBarrier{
			OldLayout:           core1_0.ImageLayout(barrier.OldLayout),
			NewLayout:           core1_0.ImageLayout(barrier.NewLayout),
			SrcQueueFamilyIndex: -1,
			DstQueueFamilyIndex: -1,
			Image:               barrier.Image.(*image).handle,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     core1_0.ImageAspectFlags(barrier.Aspect),
				BaseMipLevel:   0,
				LevelCount:     barrier.MipLevels,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			SrcAccessMask: core1_0.AccessFlags(barrier.SrcAccess),
			DstAccessMask: core1_0.AccessFlags(barrier.DstAccess),
		}
	}
	err := b.vk().CmdPipelineBarrier(b.handle, core1_0.PipelineStageFlags(src), core1_0.PipelineStageFlags(dst),
		0, nil, nil, converted)
	return errors.Wrap(err, "record pipeline barrier")
}

func (b *commandBuffer) CopyBuffer(src, dst driver.Buffer, size int) error {
	err := b.vk().CmdCopyBuffer(b.handle, src.(*buffer).handle, dst.(*buffer).handle,
		core1_0.BufferCopy{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      size,
		})
	return errors.Wrap(err, "record buffer copy")
}

func (b *commandBuffer) CopyBufferToImage(src driver.Buffer, dst driver.Image, layout driver.ImageLayout, e driver.Extent) error {
	err := b.vk().CmdCopyBufferToImage(b.handle, src.(*buffer).handle, dst.(*image).handle, core1_0.ImageLayout(layout),
		core1_0.BufferImageCopy{
			ImageSubresource: core1_0.ImageSubresourceLayers{
				AspectMask:     core1_0.ImageAspectColor,
				MipLevel:       0,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			ImageOffset: core1_0.Offset3D{X: 0, Y: 0, Z: 0},
			ImageExtent: core1_0.Extent3D{Width: e.Width, Height: e.Height, Depth: 1},
		})
	return errors.Wrap(err, "record buffer to image copy")
}
