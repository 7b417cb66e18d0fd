package engine

import (
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/particles/driver"
)

// TextureID is an index into the texture table, as sampled by the fragment
// shaders. DefaultTexture is a 1x1 opaque white texture that always exists.
type TextureID int

const DefaultTexture TextureID = 0

const textureFormat = driver.FormatR8G8B8A8SRGB

type texture struct {
	image driver.Image
	view  driver.ImageView
}

type textureTable struct {
	textures []texture
	sampler  driver.Sampler
}

func (t *textureTable) init(ctx *Context) error {
	props := ctx.Physical.FormatProperties(textureFormat)
	if !props.Supports(driver.TilingOptimal, driver.FormatFeatureSampledImage) {
		return errors.Wrap(ErrNoSupportedFormat, "textures cannot be sampled as R8G8B8A8 sRGB")
	}

	sampler, err := ctx.Logical.NewSampler(driver.SamplerInfo{
		Anisotropy: ctx.Properties.Limits.MaxSamplerAnisotropy,
		MaxLod:     1,
	})
	if err != nil {
		return errors.Wrap(err, "create texture sampler")
	}
	t.sampler = sampler

	_, err = t.upload(ctx, []byte{0xff, 0xff, 0xff, 0xff}, 1, 1)
	return err
}

// count is never zero once init succeeded.
func (t *textureTable) count() int {
	return len(t.textures)
}

func (t *textureTable) upload(ctx *Context, pixels []byte, width, height int) (TextureID, error) {
	if width <= 0 || height <= 0 {
		return 0, errors.Newf("texture size %dx%d is empty", width, height)
	}
	if len(pixels) != width*height*4 {
		return 0, errors.Newf("texture of %dx%d needs %d bytes of RGBA, got %d", width, height, width*height*4, len(pixels))
	}
	extent := driver.Extent{Width: width, Height: height}

	staging, err := ctx.stage(pixels)
	if err != nil {
		return 0, err
	}
	defer staging.Destroy()

	image, err := ctx.Logical.NewImage(driver.ImageInfo{
		Extent:    extent,
		Format:    textureFormat,
		MipLevels: 1,
		Samples:   driver.Samples1,
		Tiling:    driver.TilingOptimal,
		Usage:     driver.ImageUsageTransferDst | driver.ImageUsageSampled,
	})
	if err != nil {
		return 0, errors.Wrap(err, "create texture image")
	}

	err = ctx.transitionImageLayout(image, textureFormat, driver.LayoutUndefined, driver.LayoutTransferDstOptimal, 1)
	if err == nil {
		err = ctx.copyBufferToImage(staging, image, extent)
	}
	if err == nil {
		err = ctx.transitionImageLayout(image, textureFormat, driver.LayoutTransferDstOptimal, driver.LayoutShaderReadOnlyOptimal, 1)
	}
	if err != nil {
		image.Destroy()
		return 0, errors.Wrap(err, "fill texture image")
	}

	view, err := ctx.Logical.NewImageView(image, textureFormat, driver.AspectColor, 1)
	if err != nil {
		image.Destroy()
		return 0, errors.Wrap(err, "create texture view")
	}

	t.textures = append(t.textures, texture{image: image, view: view})
	ctx.Logger.Debug("uploaded texture",
		slog.Int("ID", len(t.textures)-1),
		slog.Int("Width", width),
		slog.Int("Height", height))
	return TextureID(len(t.textures) - 1), nil
}

// samplers describes every texture for a combined image sampler array.
func (t *textureTable) samplers() []driver.ImageSampler {
	infos := make([]driver.ImageSampler, 0, len(t.textures))
	for _, tex := range t.textures {
		infos = append(infos, driver.ImageSampler{
			View:    tex.view,
			Sampler: t.sampler,
			Layout:  driver.LayoutShaderReadOnlyOptimal,
		})
	}
	return infos
}

func (t *textureTable) destroy() {
	for _, tex := range t.textures {
		tex.view.Destroy()
		tex.image.Destroy()
	}
	t.textures = nil

	if t.sampler != nil {
		t.sampler.Destroy()
		t.sampler = nil
	}
}
