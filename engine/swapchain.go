package engine

import (
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/particles/driver"
)

// ChooseSurfaceFormat prefers 32-bit BGRA sRGB with the nonlinear sRGB color
// space and falls back to the first format offered.
func ChooseSurfaceFormat(formats []driver.SurfaceFormat) driver.SurfaceFormat {
	for _, format := range formats {
		if format.Format == driver.FormatB8G8R8A8SRGB && format.ColorSpace == driver.ColorSpaceSRGBNonlinear {
			return format
		}
	}
	return formats[0]
}

// ChoosePresentMode prefers mailbox and falls back to FIFO, which every
// device supports.
func ChoosePresentMode(modes []driver.PresentMode) driver.PresentMode {
	for _, mode := range modes {
		if mode == driver.PresentModeMailbox {
			return mode
		}
	}
	return driver.PresentModeFIFO
}

// ChooseExtent uses the surface's current extent unless it is undefined, in
// which case the window size is clamped into the supported range.
func ChooseExtent(caps driver.SurfaceCapabilities, window driver.Extent) driver.Extent {
	if caps.CurrentExtent.Width != driver.UndefinedExtent {
		return caps.CurrentExtent
	}

	return driver.Extent{
		Width:  clamp(window.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(window.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}

// ChooseImageCount asks for one image more than the minimum, within the
// maximum when there is one.
func ChooseImageCount(caps driver.SurfaceCapabilities) int {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && caps.MaxImageCount < count {
		count = caps.MaxImageCount
	}
	return count
}

// SwapchainManager owns the swapchain and one view per swapchain image. A
// manager without a swapchain is paused: the surface has no area to
// present to.
type SwapchainManager struct {
	ctx *Context

	Swapchain   driver.Swapchain
	Format      driver.SurfaceFormat
	PresentMode driver.PresentMode
	Extent      driver.Extent
	Images      []driver.Image
	Views       []driver.ImageView
}

func NewSwapchainManager(ctx *Context) *SwapchainManager {
	return &SwapchainManager{ctx: ctx}
}

// Paused reports whether no swapchain exists.
func (m *SwapchainManager) Paused() bool {
	return m.Swapchain == nil
}

// Create builds the swapchain for the given window size. A zero hint, or a
// zero extent chosen from the surface capabilities, leaves the manager
// paused without creating anything.
func (m *SwapchainManager) Create(hint driver.Extent) error {
	if m.Swapchain != nil {
		return errors.New("swapchain already exists")
	}
	m.Extent = driver.Extent{}
	if hint.Zero() {
		return nil
	}

	support, err := m.ctx.Physical.SurfaceSupport()
	if err != nil {
		return errors.Wrap(err, "query surface support")
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return errors.Wrap(ErrNoSupportedFormat, "surface offers no format or present mode")
	}

	extent := ChooseExtent(support.Capabilities, hint)
	if extent.Zero() {
		return nil
	}

	format := ChooseSurfaceFormat(support.Formats)
	presentMode := ChoosePresentMode(support.PresentModes)
	imageCount := ChooseImageCount(support.Capabilities)

	var shared []int
	if m.ctx.GraphicsFamily != m.ctx.PresentFamily {
		shared = m.ctx.UniqueFamilies()
	}

	swapchain, err := m.ctx.Logical.NewSwapchain(driver.SwapchainInfo{
		Format:         format,
		PresentMode:    presentMode,
		Extent:         extent,
		MinImageCount:  imageCount,
		Transform:      support.Capabilities.CurrentTransform,
		SharedFamilies: shared,
	})
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}
	m.Swapchain = swapchain
	m.Format = format
	m.PresentMode = presentMode
	m.Extent = extent

	images, err := swapchain.Images()
	if err != nil {
		return errors.Wrap(err, "get swapchain images")
	}
	m.Images = images

	for _, image := range images {
		view, err := m.ctx.Logical.NewImageView(image, format.Format, driver.AspectColor, 1)
		if err != nil {
			return errors.Wrap(err, "create swapchain image view")
		}
		m.Views = append(m.Views, view)
	}

	m.ctx.Logger.Info("created swapchain",
		slog.Int("Format", int(format.Format)),
		slog.Int("PresentMode", int(presentMode)),
		slog.Int("Width", extent.Width),
		slog.Int("Height", extent.Height),
		slog.Int("Images", len(images)))
	return nil
}

// Destroy releases the image views and then the swapchain, which owns its
// images. It is safe to call on a paused or partially created manager.
func (m *SwapchainManager) Destroy() {
	for _, view := range m.Views {
		view.Destroy()
	}
	m.Views = nil
	m.Images = nil

	if m.Swapchain != nil {
		m.Swapchain.Destroy()
		m.Swapchain = nil
	}
	m.Extent = driver.Extent{}
}
