package engine

import (
	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/particles/driver"
)

var depthCandidates = []driver.Format{
	driver.FormatD32SFloat,
	driver.FormatD32SFloatS8UInt,
	driver.FormatD24UNormS8UInt,
}

// FindDepthFormat probes the depth candidates against optimal tiling, then
// against linear tiling, and returns the first supported pair.
func FindDepthFormat(physical driver.PhysicalDevice) (DepthFormat, error) {
	for _, tiling := range []driver.ImageTiling{driver.TilingOptimal, driver.TilingLinear} {
		for _, format := range depthCandidates {
			props := physical.FormatProperties(format)
			if props.Supports(tiling, driver.FormatFeatureDepthStencilAttachment) {
				return DepthFormat{Format: format, Tiling: tiling}, nil
			}
		}
	}
	return DepthFormat{}, errors.Wrap(ErrNoSupportedFormat, "no depth attachment format")
}

// Attachments holds the color and depth images shared by every framebuffer
// of one swapchain generation. The color image only exists when rendering
// with more than one sample.
type Attachments struct {
	Color     driver.Image
	ColorView driver.ImageView
	Depth     driver.Image
	DepthView driver.ImageView
}

// Empty reports whether no attachment image exists.
func (a *Attachments) Empty() bool {
	return a.Color == nil && a.Depth == nil
}

// DepthFormat is a depth format together with the tiling it was found for.
type DepthFormat struct {
	Format driver.Format
	Tiling driver.ImageTiling
}

// CreateAttachments creates the attachments for extent. A zero extent
// yields an empty set. The depth image is transitioned to the depth
// attachment layout before returning.
func CreateAttachments(ctx *Context, extent driver.Extent, samples driver.SampleCount, colorFormat driver.Format, depth DepthFormat) (*Attachments, error) {
	a := &Attachments{}
	if extent.Zero() {
		return a, nil
	}

	if samples > driver.Samples1 {
		if err := a.createColor(ctx, extent, samples, colorFormat); err != nil {
			a.Destroy()
			return nil, err
		}
	}

	if err := a.createDepth(ctx, extent, samples, depth); err != nil {
		a.Destroy()
		return nil, err
	}
	return a, nil
}

func (a *Attachments) createColor(ctx *Context, extent driver.Extent, samples driver.SampleCount, format driver.Format) error {
	var err error
	a.Color, err = ctx.Logical.NewImage(driver.ImageInfo{
		Extent:    extent,
		Format:    format,
		MipLevels: 1,
		Samples:   samples,
		Tiling:    driver.TilingOptimal,
		Usage:     driver.ImageUsageTransientAttachment | driver.ImageUsageColorAttachment,
	})
	if err != nil {
		return errors.Wrap(err, "create color attachment")
	}

	a.ColorView, err = ctx.Logical.NewImageView(a.Color, format, driver.AspectColor, 1)
	if err != nil {
		return errors.Wrap(err, "create color attachment view")
	}
	return nil
}

func (a *Attachments) createDepth(ctx *Context, extent driver.Extent, samples driver.SampleCount, depth DepthFormat) error {
	var err error
	a.Depth, err = ctx.Logical.NewImage(driver.ImageInfo{
		Extent:    extent,
		Format:    depth.Format,
		MipLevels: 1,
		Samples:   samples,
		Tiling:    depth.Tiling,
		Usage:     driver.ImageUsageDepthAttachment,
	})
	if err != nil {
		return errors.Wrap(err, "create depth attachment")
	}

	a.DepthView, err = ctx.Logical.NewImageView(a.Depth, depth.Format, driver.AspectDepth, 1)
	if err != nil {
		return errors.Wrap(err, "create depth attachment view")
	}

	err = ctx.transitionImageLayout(a.Depth, depth.Format, driver.LayoutUndefined, driver.LayoutDepthAttachmentOptimal, 1)
	if err != nil {
		return errors.Wrap(err, "transition depth attachment")
	}
	return nil
}

// Destroy releases every attachment, views before images. It may be called
// more than once.
func (a *Attachments) Destroy() {
	if a.ColorView != nil {
		a.ColorView.Destroy()
		a.ColorView = nil
	}
	if a.Color != nil {
		a.Color.Destroy()
		a.Color = nil
	}
	if a.DepthView != nil {
		a.DepthView.Destroy()
		a.DepthView = nil
	}
	if a.Depth != nil {
		a.Depth.Destroy()
		a.Depth = nil
	}
}
