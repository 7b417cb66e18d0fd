package engine

import (
	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/particles/driver"
)

// renderPassDesc describes the single-subpass pass the engine draws with.
// With more than one sample the attachments are a multisampled color
// attachment, depth, and the swapchain image as resolve target. With one
// sample the swapchain image is the color attachment and nothing resolves.
func renderPassDesc(format driver.Format, samples driver.SampleCount, depthFormat driver.Format) driver.RenderPassDesc {
	msaa := samples > driver.Samples1

	color := driver.AttachmentDesc{
		Format:        format,
		Samples:       samples,
		Load:          driver.LoadOpClear,
		Store:         driver.StoreOpStore,
		InitialLayout: driver.LayoutUndefined,
		FinalLayout:   driver.LayoutColorAttachmentOptimal,
	}
	if !msaa {
		color.FinalLayout = driver.LayoutPresentSrc
	}

	depth := driver.AttachmentDesc{
		Format:        depthFormat,
		Samples:       samples,
		Load:          driver.LoadOpClear,
		Store:         driver.StoreOpDontCare,
		InitialLayout: driver.LayoutUndefined,
		FinalLayout:   driver.LayoutDepthAttachmentOptimal,
	}

	subpass := driver.SubpassDesc{
		Color: []driver.AttachmentRef{{Attachment: 0, Layout: driver.LayoutColorAttachmentOptimal}},
		Depth: &driver.AttachmentRef{Attachment: 1, Layout: driver.LayoutDepthAttachmentOptimal},
	}

	attachments := []driver.AttachmentDesc{color, depth}
	if msaa {
		attachments = append(attachments, driver.AttachmentDesc{
			Format:        format,
			Samples:       driver.Samples1,
			Load:          driver.LoadOpDontCare,
			Store:         driver.StoreOpStore,
			InitialLayout: driver.LayoutUndefined,
			FinalLayout:   driver.LayoutPresentSrc,
		})
		subpass.Resolve = []driver.AttachmentRef{{Attachment: 2, Layout: driver.LayoutColorAttachmentOptimal}}
	}

	return driver.RenderPassDesc{
		Attachments: attachments,
		Subpasses:   []driver.SubpassDesc{subpass},
		Dependencies: []driver.SubpassDependency{
			{
				SrcSubpass: driver.External,
				DstSubpass: 0,
				SrcStages:  driver.StageColorAttachmentOutput | driver.StageEarlyFragmentTests,
				DstStages:  driver.StageColorAttachmentOutput | driver.StageEarlyFragmentTests,
				DstAccess:  driver.AccessColorAttachmentWrite | driver.AccessDepthAttachmentWrite,
			},
		},
	}
}

// CreateRenderPass creates the render pass for a swapchain format. It
// returns nil without error when extent is zero.
func CreateRenderPass(ctx *Context, extent driver.Extent, format driver.Format, samples driver.SampleCount, depthFormat driver.Format) (driver.RenderPass, error) {
	if extent.Zero() {
		return nil, nil
	}

	pass, err := ctx.Logical.NewRenderPass(renderPassDesc(format, samples, depthFormat))
	if err != nil {
		return nil, errors.Wrap(err, "create render pass")
	}
	return pass, nil
}
