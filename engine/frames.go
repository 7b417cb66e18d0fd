package engine

import (
	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/particles/driver"
	"github.com/vkngwrapper/particles/material"
)

// CreateFramebuffers creates one framebuffer per swapchain image view. With
// a color attachment the view is the resolve target; otherwise it is the
// color attachment itself. It returns nil without error when extent is
// zero.
func CreateFramebuffers(ctx *Context, pass driver.RenderPass, att *Attachments, views []driver.ImageView, extent driver.Extent) ([]driver.Framebuffer, error) {
	if extent.Zero() || pass == nil {
		return nil, nil
	}

	framebuffers := make([]driver.Framebuffer, 0, len(views))
	for _, view := range views {
		attachments := []driver.ImageView{view, att.DepthView}
		if att.ColorView != nil {
			attachments = []driver.ImageView{att.ColorView, att.DepthView, view}
		}

		fb, err := ctx.Logical.NewFramebuffer(driver.FramebufferInfo{
			RenderPass:  pass,
			Attachments: attachments,
			Extent:      extent,
		})
		if err != nil {
			destroyFramebuffers(framebuffers)
			return nil, errors.Wrap(err, "create framebuffer")
		}
		framebuffers = append(framebuffers, fb)
	}
	return framebuffers, nil
}

func destroyFramebuffers(framebuffers []driver.Framebuffer) {
	for _, fb := range framebuffers {
		fb.Destroy()
	}
}

// DrawCall is one indexed draw of a mesh.
type DrawCall struct {
	Vertices   driver.Buffer
	Indices    driver.Buffer
	IndexCount int
}

// DrawLists holds the draw calls of each material kind, in the same order
// as the drawables whose uniforms fill the dynamic buffers.
type DrawLists [len(material.Kinds)][]DrawCall

// RecordCommandBuffers records one command buffer per framebuffer. Each
// draws the material kinds in order, binding the three descriptor sets of
// the image with dynamic offsets selecting the drawable's slots. It returns
// nil without error when there are no framebuffers.
func RecordCommandBuffers(ctx *Context, pass driver.RenderPass, framebuffers []driver.Framebuffer, extent driver.Extent, pipelines PipelineSet, uniforms UniformSet, draws DrawLists) ([]driver.CommandBuffer, error) {
	if len(framebuffers) == 0 {
		return nil, nil
	}

	buffers, err := ctx.pool.Allocate(len(framebuffers))
	if err != nil {
		return nil, errors.Wrap(err, "allocate command buffers")
	}

	for i, buffer := range buffers {
		err := recordCommandBuffer(buffer, driver.RenderPassBegin{
			RenderPass:   pass,
			Framebuffer:  framebuffers[i],
			Extent:       extent,
			ClearColor:   [4]float32{0, 0, 0, 1},
			ClearDepth:   1,
			ClearStencil: 0,
		}, i, pipelines, uniforms, draws)
		if err != nil {
			ctx.pool.Free(buffers...)
			return nil, errors.Wrapf(err, "record command buffer %d", i)
		}
	}
	return buffers, nil
}

func recordCommandBuffer(buffer driver.CommandBuffer, begin driver.RenderPassBegin, image int, pipelines PipelineSet, uniforms UniformSet, draws DrawLists) error {
	if err := buffer.Begin(false); err != nil {
		return err
	}
	if err := buffer.BeginRenderPass(begin); err != nil {
		return err
	}

	for _, kind := range material.Kinds {
		p := pipelines[kind]
		u := uniforms[kind]
		sets := u.Sets[image]

		buffer.BindPipeline(p.Pipeline)
		for j, call := range draws[kind][:min(len(draws[kind]), u.Count)] {
			buffer.BindVertexBuffers([]driver.Buffer{call.Vertices}, []int{0})
			buffer.BindIndexBuffer(call.Indices, 0)
			buffer.BindDescriptorSets(p.Layout, SetScene, sets[:], []int{j * u.ModelStride, j * u.SpecificStride})
			buffer.DrawIndexed(call.IndexCount, 1, 0, 0, 0)
		}
	}

	buffer.EndRenderPass()
	return buffer.End()
}
