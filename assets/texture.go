package assets

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"

	"github.com/cockroachdb/errors"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/vkngwrapper/particles/engine"
)

// LoadTexture decodes a PNG, JPEG, BMP, TIFF or WebP image into
// non-premultiplied RGBA8 pixels.
func LoadTexture(fsys fs.FS, name string) (engine.TextureData, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return engine.TextureData{}, errors.Wrapf(err, "open texture %s", name)
	}
	defer f.Close()

	src, format, err := image.Decode(f)
	if err != nil {
		return engine.TextureData{}, errors.Wrapf(err, "decode texture %s", name)
	}

	bounds := src.Bounds()
	if bounds.Empty() {
		return engine.TextureData{}, errors.Newf("texture %s (%s) is empty", name, format)
	}
	return toRGBA(src), nil
}

func toRGBA(src image.Image) engine.TextureData {
	bounds := src.Bounds()
	dst, ok := src.(*image.NRGBA)
	if !ok || dst.Stride != 4*bounds.Dx() || bounds.Min != (image.Point{}) {
		dst = image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Copy(dst, image.Point{}, src, bounds, draw.Src, nil)
	}
	return engine.TextureData{
		Pixels: dst.Pix,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}
}
