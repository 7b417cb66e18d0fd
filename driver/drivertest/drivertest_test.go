package drivertest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/particles/driver"
)

type rig struct {
	tracker  *Tracker
	surface  *Surface
	instance *Instance
	dev      *Device
}

func openDevice(t *testing.T) rig {
	t.Helper()

	r := rig{tracker: NewTracker(), surface: NewSurface(640, 480)}
	physical := NewPhysicalDevice("gpu", r.surface)
	r.instance = NewInstance(r.tracker, physical)

	dev, err := physical.Open(driver.DeviceInfo{QueueFamilies: []int{0}, Extensions: []string{SwapchainExtension}})
	require.NoError(t, err)
	r.dev = dev.(*Device)
	return r
}

func TestTrackerLeaksAndDoubleDestroys(t *testing.T) {
	r := openDevice(t)
	tracker, dev := r.tracker, r.dev

	a, err := dev.NewSemaphore()
	require.NoError(t, err)
	b, err := dev.NewFence(false)
	require.NoError(t, err)

	assert.Equal(t, 4, tracker.Live())
	assert.Equal(t, []string{"1 device", "1 fence", "1 instance", "1 semaphore"}, tracker.Leaks())

	a.Destroy()
	a.Destroy()
	b.Destroy()
	dev.Destroy()
	r.instance.Destroy()

	assert.Empty(t, tracker.Leaks())
	assert.Equal(t, []string{a.(*Semaphore).String()}, tracker.DoubleDestroys())
	assert.Equal(t, 1, tracker.Created(KindSemaphore))
}

func TestOpenValidatesFamilies(t *testing.T) {
	tracker := NewTracker()
	physical := NewPhysicalDevice("gpu", NewSurface(1, 1))
	NewInstance(tracker, physical)

	_, err := physical.Open(driver.DeviceInfo{QueueFamilies: []int{0, 0}})
	assert.Error(t, err)
	_, err = physical.Open(driver.DeviceInfo{QueueFamilies: []int{1}})
	assert.Error(t, err)
	_, err = physical.Open(driver.DeviceInfo{QueueFamilies: []int{0}, Extensions: []string{"VK_KHR_nope"}})
	assert.Error(t, err)
	assert.Zero(t, tracker.Created(KindDevice))
}

func TestSwapchainImagesFollowSwapchain(t *testing.T) {
	r := openDevice(t)
	dev := r.dev

	sc, err := dev.NewSwapchain(driver.SwapchainInfo{
		Extent:        driver.Extent{Width: 640, Height: 480},
		MinImageCount: 3,
	})
	require.NoError(t, err)

	images, err := sc.Images()
	require.NoError(t, err)
	require.Len(t, images, 3)
	assert.Panics(t, func() { images[0].Destroy() })

	view, err := dev.NewImageView(images[0], driver.FormatB8G8R8A8SRGB, driver.AspectColor, 1)
	require.NoError(t, err)
	view.Destroy()

	sem, err := dev.NewSemaphore()
	require.NoError(t, err)
	for want := range 4 {
		index, status, err := sc.AcquireNextImage(sem)
		require.NoError(t, err)
		assert.Equal(t, driver.StatusSuccess, status)
		assert.Equal(t, want%3, index)
	}

	r.surface.Resize(800, 600)
	_, status, err := sc.AcquireNextImage(sem)
	require.NoError(t, err)
	assert.Equal(t, driver.StatusOutOfDate, status)

	sc.Destroy()
	_, err = dev.NewImageView(images[1], driver.FormatB8G8R8A8SRGB, driver.AspectColor, 1)
	assert.Error(t, err)

	sem.Destroy()
	dev.Destroy()
	r.instance.Destroy()
	assert.Empty(t, r.tracker.Leaks())
}

func TestSwapchainValidation(t *testing.T) {
	dev := openDevice(t).dev

	_, err := dev.NewSwapchain(driver.SwapchainInfo{Extent: driver.Extent{Width: 640}, MinImageCount: 2})
	assert.Error(t, err)
	_, err = dev.NewSwapchain(driver.SwapchainInfo{Extent: driver.Extent{Width: 640, Height: 480}, MinImageCount: 9})
	assert.Error(t, err)
	_, err = dev.NewSwapchain(driver.SwapchainInfo{
		Extent:         driver.Extent{Width: 640, Height: 480},
		MinImageCount:  2,
		SharedFamilies: []int{0},
	})
	assert.Error(t, err)
}

func TestScriptedStatuses(t *testing.T) {
	dev := openDevice(t).dev
	sc, err := dev.NewSwapchain(driver.SwapchainInfo{Extent: driver.Extent{Width: 640, Height: 480}, MinImageCount: 2})
	require.NoError(t, err)
	sem, err := dev.NewSemaphore()
	require.NoError(t, err)

	dev.ScriptAcquire(driver.StatusSuboptimal, driver.StatusOutOfDate)
	_, status, err := sc.AcquireNextImage(sem)
	require.NoError(t, err)
	assert.Equal(t, driver.StatusSuboptimal, status)
	_, status, err = sc.AcquireNextImage(sem)
	require.NoError(t, err)
	assert.Equal(t, driver.StatusOutOfDate, status)

	dev.ScriptPresent(driver.StatusOutOfDate)
	q := dev.Queue(0)
	status, err = q.Present(driver.PresentInfo{Swapchain: sc, ImageIndex: 1})
	require.NoError(t, err)
	assert.Equal(t, driver.StatusOutOfDate, status)
	status, err = q.Present(driver.PresentInfo{Swapchain: sc, ImageIndex: 1})
	require.NoError(t, err)
	assert.Equal(t, driver.StatusSuccess, status)

	_, err = q.Present(driver.PresentInfo{Swapchain: sc, ImageIndex: 2})
	assert.Error(t, err)
	assert.Equal(t, 2, dev.Presents)
}

func TestFencesAndSubmit(t *testing.T) {
	dev := openDevice(t).dev

	fence, err := dev.NewFence(false)
	require.NoError(t, err)
	assert.Error(t, dev.WaitForFences(fence), "unsubmitted fence blocks forever")

	pool, err := dev.NewCommandPool(0)
	require.NoError(t, err)
	buffers, err := pool.Allocate(1)
	require.NoError(t, err)
	cb := buffers[0]

	q := dev.Queue(0)
	require.NoError(t, cb.Begin(false))
	assert.Error(t, q.Submit(driver.SubmitInfo{CommandBuffers: buffers}, fence), "still recording")
	require.NoError(t, cb.End())

	require.NoError(t, q.Submit(driver.SubmitInfo{CommandBuffers: buffers}, fence))
	require.NoError(t, dev.WaitForFences(fence))
	assert.Equal(t, [][]driver.Fence{{fence}, {fence}}, dev.FenceWaits, "failed waits are recorded too")
	assert.Error(t, q.Submit(driver.SubmitInfo{CommandBuffers: buffers}, fence), "fence still signaled")

	require.NoError(t, dev.ResetFences(fence))
	require.NoError(t, q.Submit(driver.SubmitInfo{CommandBuffers: buffers}, fence))

	assert.Error(t, q.Submit(driver.SubmitInfo{
		WaitSemaphores: []driver.Semaphore{nil},
	}, nil))
	assert.Equal(t, 2, dev.Submits)
	assert.Len(t, dev.Recorded, 2)
}

func TestCommandRecording(t *testing.T) {
	r := openDevice(t)
	dev := r.dev

	pool, err := dev.NewCommandPool(0)
	require.NoError(t, err)
	buffers, err := pool.Allocate(2)
	require.NoError(t, err)
	cb := buffers[0].(*CommandBuffer)

	assert.Panics(t, func() { cb.BindPipeline(nil) })

	src, err := dev.NewBuffer(driver.BufferInfo{Size: 4, HostVisible: true})
	require.NoError(t, err)
	dst, err := dev.NewBuffer(driver.BufferInfo{Size: 8})
	require.NoError(t, err)

	mapped, err := src.Map()
	require.NoError(t, err)
	copy(mapped, []byte{1, 2, 3, 4})
	_, err = src.Map()
	assert.Error(t, err, "already mapped")
	src.Unmap()
	_, err = dst.Map()
	assert.Error(t, err, "not host visible")

	require.NoError(t, cb.Begin(true))
	require.NoError(t, cb.CopyBuffer(src, dst, 4))
	assert.Error(t, cb.CopyBuffer(src, dst, 8))
	require.NoError(t, cb.End())

	assert.Equal(t, []Op{OpCopyBuffer}, cb.Ops())
	assert.Equal(t, []byte{1, 2, 3, 4, 0, 0, 0, 0}, dst.(*Buffer).Bytes())

	// The second buffer goes away with the pool.
	pool.Free(cb)
	pool.Destroy()
	src.Destroy()
	dst.Destroy()
	dev.Destroy()
	r.instance.Destroy()
	assert.Empty(t, r.tracker.Leaks())
	assert.Empty(t, r.tracker.DoubleDestroys())
}

func TestDescriptorValidation(t *testing.T) {
	dev := openDevice(t).dev

	layout, err := dev.NewDescriptorSetLayout([]driver.DescriptorBinding{{Binding: 0, Type: driver.DescriptorUniformBuffer, Count: 1}})
	require.NoError(t, err)
	_, err = dev.NewDescriptorSetLayout([]driver.DescriptorBinding{{Binding: 1, Count: 0}})
	assert.Error(t, err)

	pool, err := dev.NewDescriptorPool(1, nil)
	require.NoError(t, err)
	sets, err := pool.Allocate([]driver.DescriptorSetLayout{layout})
	require.NoError(t, err)
	_, err = pool.Allocate([]driver.DescriptorSetLayout{layout})
	assert.Error(t, err, "pool exhausted")

	buffer, err := dev.NewBuffer(driver.BufferInfo{Size: 64})
	require.NoError(t, err)

	write := func(offset, size int) error {
		return dev.UpdateDescriptorSets([]driver.DescriptorWrite{{
			Set:     sets[0],
			Type:    driver.DescriptorUniformBuffer,
			Buffers: []driver.BufferRange{{Buffer: buffer, Offset: offset, Range: size}},
		}})
	}
	assert.NoError(t, write(0, 64))
	assert.Error(t, write(0, 0))
	assert.Error(t, write(32, 64))
	assert.Len(t, dev.Writes, 1)
}
