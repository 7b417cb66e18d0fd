package engine

import (
	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/particles/driver"
)

// submitOnce records a command buffer with record, submits it to the
// graphics queue and blocks until the queue is idle. It is meant for setup
// work only.
func (c *Context) submitOnce(record func(driver.CommandBuffer) error) error {
	buffers, err := c.pool.Allocate(1)
	if err != nil {
		return errors.Wrap(err, "allocate one-shot command buffer")
	}
	buffer := buffers[0]
	defer c.pool.Free(buffer)

	if err := buffer.Begin(true); err != nil {
		return err
	}
	if err := record(buffer); err != nil {
		return err
	}
	if err := buffer.End(); err != nil {
		return err
	}

	err = c.Graphics.Submit(driver.SubmitInfo{CommandBuffers: []driver.CommandBuffer{buffer}}, nil)
	if err != nil {
		return errors.Wrap(err, "submit one-shot command buffer")
	}
	return c.Graphics.WaitIdle()
}

type transitionScope struct {
	srcStage, dstStage   driver.PipelineStage
	srcAccess, dstAccess driver.Access
}

// layoutTransition returns the synchronization scope of the image layout
// transitions the engine performs.
func layoutTransition(oldLayout, newLayout driver.ImageLayout) (transitionScope, error) {
	switch {
	case oldLayout == driver.LayoutUndefined && newLayout == driver.LayoutTransferDstOptimal:
		return transitionScope{
			srcStage:  driver.StageTopOfPipe,
			dstStage:  driver.StageTransfer,
			dstAccess: driver.AccessTransferWrite,
		}, nil
	case oldLayout == driver.LayoutTransferDstOptimal && newLayout == driver.LayoutShaderReadOnlyOptimal:
		return transitionScope{
			srcStage:  driver.StageTransfer,
			dstStage:  driver.StageFragmentShader,
			srcAccess: driver.AccessTransferWrite,
			dstAccess: driver.AccessShaderRead,
		}, nil
	case oldLayout == driver.LayoutUndefined && newLayout == driver.LayoutDepthAttachmentOptimal:
		return transitionScope{
			srcStage:  driver.StageTopOfPipe,
			dstStage:  driver.StageEarlyFragmentTests,
			dstAccess: driver.AccessDepthAttachmentRead | driver.AccessDepthAttachmentWrite,
		}, nil
	}
	return transitionScope{}, errors.Wrapf(ErrUnsupportedTransition, "%d -> %d", oldLayout, newLayout)
}

func (c *Context) transitionImageLayout(image driver.Image, format driver.Format, oldLayout, newLayout driver.ImageLayout, mipLevels int) error {
	scope, err := layoutTransition(oldLayout, newLayout)
	if err != nil {
		return err
	}

	aspect := driver.AspectColor
	if newLayout == driver.LayoutDepthAttachmentOptimal {
		aspect = driver.AspectDepth
		if format.HasStencil() {
			aspect |= driver.AspectStencil
		}
	}

	return c.submitOnce(func(buffer driver.CommandBuffer) error {
		return buffer.PipelineBarrier(scope.srcStage, scope.dstStage, []driver.ImageBarrier{
			{
				Image:     image,
				Aspect:    aspect,
				MipLevels: mipLevels,
				OldLayout: oldLayout,
				NewLayout: newLayout,
				SrcAccess: scope.srcAccess,
				DstAccess: scope.dstAccess,
			},
		})
	})
}

func (c *Context) copyBuffer(src, dst driver.Buffer, size int) error {
	return c.submitOnce(func(buffer driver.CommandBuffer) error {
		return buffer.CopyBuffer(src, dst, size)
	})
}

func (c *Context) copyBufferToImage(src driver.Buffer, dst driver.Image, extent driver.Extent) error {
	return c.submitOnce(func(buffer driver.CommandBuffer) error {
		return buffer.CopyBufferToImage(src, dst, driver.LayoutTransferDstOptimal, extent)
	})
}

// stage copies data into a new host-visible transfer source buffer.
func (c *Context) stage(data []byte) (driver.Buffer, error) {
	staging, err := c.Logical.NewBuffer(driver.BufferInfo{
		Size:        len(data),
		Usage:       driver.BufferUsageTransferSrc,
		HostVisible: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create staging buffer")
	}

	mapped, err := staging.Map()
	if err != nil {
		staging.Destroy()
		return nil, errors.Wrap(err, "map staging buffer")
	}
	copy(mapped, data)
	staging.Unmap()
	return staging, nil
}
