package engine

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/particles/driver"
	"github.com/vkngwrapper/particles/driver/drivertest"
)

func TestChooseSurfaceFormat(t *testing.T) {
	preferred := driver.SurfaceFormat{Format: driver.FormatB8G8R8A8SRGB, ColorSpace: driver.ColorSpaceSRGBNonlinear}
	unorm := driver.SurfaceFormat{Format: driver.FormatB8G8R8A8UNorm, ColorSpace: driver.ColorSpaceSRGBNonlinear}
	rgba := driver.SurfaceFormat{Format: driver.FormatR8G8B8A8SRGB, ColorSpace: driver.ColorSpaceSRGBNonlinear}

	assert.Equal(t, preferred, ChooseSurfaceFormat([]driver.SurfaceFormat{unorm, preferred}))
	assert.Equal(t, rgba, ChooseSurfaceFormat([]driver.SurfaceFormat{rgba, unorm}))

	// The right format in another color space does not count.
	wideGamut := driver.SurfaceFormat{Format: driver.FormatB8G8R8A8SRGB, ColorSpace: 1000104001}
	assert.Equal(t, unorm, ChooseSurfaceFormat([]driver.SurfaceFormat{unorm, wideGamut}))
}

func TestChoosePresentMode(t *testing.T) {
	assert.Equal(t, driver.PresentModeMailbox, ChoosePresentMode([]driver.PresentMode{driver.PresentModeFIFO, driver.PresentModeMailbox}))
	assert.Equal(t, driver.PresentModeFIFO, ChoosePresentMode([]driver.PresentMode{driver.PresentModeImmediate, driver.PresentModeFIFORelaxed}))
	assert.Equal(t, driver.PresentModeFIFO, ChoosePresentMode(nil))
}

func TestChooseExtent(t *testing.T) {
	caps := driver.SurfaceCapabilities{
		CurrentExtent:  driver.Extent{Width: 1024, Height: 768},
		MinImageExtent: driver.Extent{Width: 16, Height: 16},
		MaxImageExtent: driver.Extent{Width: 2048, Height: 2048},
	}
	assert.Equal(t, driver.Extent{Width: 1024, Height: 768}, ChooseExtent(caps, driver.Extent{Width: 800, Height: 600}))

	caps.CurrentExtent = driver.Extent{Width: driver.UndefinedExtent, Height: driver.UndefinedExtent}
	assert.Equal(t, driver.Extent{Width: 800, Height: 600}, ChooseExtent(caps, driver.Extent{Width: 800, Height: 600}))
	assert.Equal(t, driver.Extent{Width: 16, Height: 2048}, ChooseExtent(caps, driver.Extent{Width: 1, Height: 5000}))
}

func TestChooseImageCount(t *testing.T) {
	assert.Equal(t, 3, ChooseImageCount(driver.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 8}))
	assert.Equal(t, 2, ChooseImageCount(driver.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 2}))
	assert.Equal(t, 4, ChooseImageCount(driver.SurfaceCapabilities{MinImageCount: 3}))
}

func TestSwapchainCreate(t *testing.T) {
	f := newFixture(800, 600)
	ctx := f.context(t, false)

	m := NewSwapchainManager(ctx)
	require.NoError(t, m.Create(driver.Extent{Width: 800, Height: 600}))
	assert.False(t, m.Paused())
	assert.Equal(t, driver.Extent{Width: 800, Height: 600}, m.Extent)
	assert.Equal(t, driver.FormatB8G8R8A8SRGB, m.Format.Format)
	assert.Equal(t, driver.PresentModeMailbox, m.PresentMode)
	assert.Len(t, m.Images, 3)
	assert.Len(t, m.Views, 3)

	sc := f.device().Swapchains[0]
	assert.Empty(t, sc.Info.SharedFamilies)
	assert.Error(t, m.Create(driver.Extent{Width: 800, Height: 600}), "second swapchain without Destroy")

	m.Destroy()
	m.Destroy()
	assert.True(t, m.Paused())

	ctx.Destroy()
	f.assertClean(t)
}

func TestSwapchainConcurrentSharing(t *testing.T) {
	f := newFixture(800, 600)
	f.physical.Families = []driver.QueueFamily{{Graphics: true}, {Present: true}}
	ctx := f.context(t, false)

	m := NewSwapchainManager(ctx)
	require.NoError(t, m.Create(driver.Extent{Width: 800, Height: 600}))
	assert.Equal(t, []int{0, 1}, f.device().Swapchains[0].Info.SharedFamilies)

	m.Destroy()
	ctx.Destroy()
	f.assertClean(t)
}

func TestSwapchainZeroExtent(t *testing.T) {
	f := newFixture(0, 0)
	ctx := f.context(t, false)
	m := NewSwapchainManager(ctx)

	for range 2 {
		require.NoError(t, m.Create(driver.Extent{Width: 0, Height: 600}))
		assert.True(t, m.Paused())
		assert.Empty(t, m.Views)
		assert.True(t, m.Extent.Zero())
		m.Destroy()
	}
	assert.Zero(t, f.tracker.Created(drivertest.KindSwapchain))

	// A nonzero window can still map to a zero surface extent.
	require.NoError(t, m.Create(driver.Extent{Width: 800, Height: 600}))
	assert.True(t, m.Paused())

	ctx.Destroy()
	f.assertClean(t)
}

func TestSwapchainNoFormats(t *testing.T) {
	f := newFixture(800, 600)
	ctx := f.context(t, false)
	f.surface.PresentModes = nil

	err := NewSwapchainManager(ctx).Create(driver.Extent{Width: 800, Height: 600})
	assert.True(t, errors.Is(err, ErrNoSupportedFormat))

	ctx.Destroy()
	f.assertClean(t)
}
