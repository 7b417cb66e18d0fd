package drivertest

import (
	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/particles/driver"
)

// Op names a recorded command.
type Op string

const (
	OpBeginRenderPass    Op = "BeginRenderPass"
	OpEndRenderPass      Op = "EndRenderPass"
	OpBindPipeline       Op = "BindPipeline"
	OpBindVertexBuffers  Op = "BindVertexBuffers"
	OpBindIndexBuffer    Op = "BindIndexBuffer"
	OpBindDescriptorSets Op = "BindDescriptorSets"
	OpDrawIndexed        Op = "DrawIndexed"
	OpPipelineBarrier    Op = "PipelineBarrier"
	OpCopyBuffer         Op = "CopyBuffer"
	OpCopyBufferToImage  Op = "CopyBufferToImage"
)

// Command is one recorded command. Only the fields relevant to Op are set.
type Command struct {
	Op             Op
	Pipeline       driver.Pipeline
	Framebuffer    driver.Framebuffer
	Sets           []driver.DescriptorSet
	FirstSet       int
	DynamicOffsets []int
	IndexCount     int
	Barriers       []driver.ImageBarrier
}

// CommandPool is a fake driver.CommandPool. Destroying the pool frees the
// buffers still allocated from it.
type CommandPool struct {
	object
	buffers map[*CommandBuffer]struct{}
}

func (p *CommandPool) Allocate(count int) ([]driver.CommandBuffer, error) {
	if err := p.alive(); err != nil {
		return nil, err
	}
	if count < 1 {
		return nil, errors.New("allocating no command buffers")
	}
	if p.buffers == nil {
		p.buffers = make(map[*CommandBuffer]struct{})
	}
	buffers := make([]driver.CommandBuffer, 0, count)
	for i := 0; i < count; i++ {
		cb := &CommandBuffer{object: p.tracker.track(KindCommandBuffer), pool: p}
		p.buffers[cb] = struct{}{}
		buffers = append(buffers, cb)
	}
	return buffers, nil
}

func (p *CommandPool) Free(buffers ...driver.CommandBuffer) {
	for _, b := range buffers {
		cb := b.(*CommandBuffer)
		if cb.pool != p {
			panic("command buffer freed to a foreign pool")
		}
		delete(p.buffers, cb)
		cb.release()
	}
}

func (p *CommandPool) Destroy() {
	for cb := range p.buffers {
		cb.release()
	}
	p.buffers = nil
	p.release()
}

// CommandBuffer is a fake driver.CommandBuffer that records what it is told.
type CommandBuffer struct {
	object
	pool         *CommandPool
	recording    bool
	inRenderPass bool
	OneTime      bool
	Commands     []Command
}

var _ driver.CommandBuffer = (*CommandBuffer)(nil)

func (c *CommandBuffer) Begin(oneTimeSubmit bool) error {
	if err := c.alive(); err != nil {
		return err
	}
	if c.recording {
		return errors.Newf("%s is already recording", c)
	}
	c.recording = true
	c.OneTime = oneTimeSubmit
	c.Commands = nil
	return nil
}

func (c *CommandBuffer) End() error {
	if !c.recording {
		return errors.Newf("%s is not recording", c)
	}
	if c.inRenderPass {
		return errors.Newf("%s ended inside a render pass", c)
	}
	c.recording = false
	return nil
}

func (c *CommandBuffer) record(cmd Command) {
	if !c.recording {
		panic("command recorded outside Begin/End")
	}
	c.Commands = append(c.Commands, cmd)
}

func (c *CommandBuffer) BeginRenderPass(info driver.RenderPassBegin) error {
	if c.inRenderPass {
		return errors.New("nested render pass")
	}
	if err := info.Framebuffer.(*Framebuffer).alive(); err != nil {
		return err
	}
	c.inRenderPass = true
	c.record(Command{Op: OpBeginRenderPass, Framebuffer: info.Framebuffer})
	return nil
}

func (c *CommandBuffer) EndRenderPass() {
	c.inRenderPass = false
	c.record(Command{Op: OpEndRenderPass})
}

func (c *CommandBuffer) BindPipeline(pipeline driver.Pipeline) {
	c.record(Command{Op: OpBindPipeline, Pipeline: pipeline})
}

func (c *CommandBuffer) BindVertexBuffers(buffers []driver.Buffer, offsets []int) {
	c.record(Command{Op: OpBindVertexBuffers})
}

func (c *CommandBuffer) BindIndexBuffer(buffer driver.Buffer, offset int) {
	c.record(Command{Op: OpBindIndexBuffer})
}

func (c *CommandBuffer) BindDescriptorSets(layout driver.PipelineLayout, firstSet int, sets []driver.DescriptorSet, dynamicOffsets []int) {
	c.record(Command{
		Op:             OpBindDescriptorSets,
		Sets:           sets,
		FirstSet:       firstSet,
		DynamicOffsets: append([]int(nil), dynamicOffsets...),
	})
}

func (c *CommandBuffer) DrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance int) {
	c.record(Command{Op: OpDrawIndexed, IndexCount: indexCount})
}

func (c *CommandBuffer) PipelineBarrier(src, dst driver.PipelineStage, barriers []driver.ImageBarrier) error {
	c.record(Command{Op: OpPipelineBarrier, Barriers: barriers})
	return nil
}

func (c *CommandBuffer) CopyBuffer(src, dst driver.Buffer, size int) error {
	if size > src.Size() || size > dst.Size() {
		return errors.Newf("copy of %d bytes overruns a buffer", size)
	}
	copy(dst.(*Buffer).data[:size], src.(*Buffer).data[:size])
	c.record(Command{Op: OpCopyBuffer})
	return nil
}

func (c *CommandBuffer) CopyBufferToImage(src driver.Buffer, dst driver.Image, layout driver.ImageLayout, extent driver.Extent) error {
	if layout != driver.LayoutTransferDstOptimal {
		return errors.New("buffer to image copy needs the transfer destination layout")
	}
	if extent.Width*extent.Height*4 > src.Size() {
		return errors.New("buffer to image copy overruns the source buffer")
	}
	c.record(Command{Op: OpCopyBufferToImage})
	return nil
}

// Ops returns the recorded command names in order.
func (c *CommandBuffer) Ops() []Op {
	ops := make([]Op, 0, len(c.Commands))
	for _, cmd := range c.Commands {
		ops = append(ops, cmd.Op)
	}
	return ops
}
