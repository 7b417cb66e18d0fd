package engine

import (
	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/particles/driver"
)

// FrameSync holds the synchronization objects of the frames in flight.
// They live as long as the device; only the per-image fence table follows
// the swapchain.
type FrameSync struct {
	ImageAvailable [MaxFramesInFlight]driver.Semaphore
	RenderFinished [MaxFramesInFlight]driver.Semaphore
	InFlight       [MaxFramesInFlight]driver.Fence

	// ImagesInFlight maps each swapchain image to the fence of the frame
	// slot that last rendered to it, or nil when no frame has.
	ImagesInFlight []driver.Fence
}

// CreateSyncObjects creates one semaphore pair and one signaled fence per
// frame slot, and an empty fence table for imageCount images.
func CreateSyncObjects(dev driver.Device, imageCount int) (*FrameSync, error) {
	s := &FrameSync{}
	for i := range MaxFramesInFlight {
		var err error
		s.ImageAvailable[i], err = dev.NewSemaphore()
		if err != nil {
			s.Destroy()
			return nil, errors.Wrap(err, "create image available semaphore")
		}

		s.RenderFinished[i], err = dev.NewSemaphore()
		if err != nil {
			s.Destroy()
			return nil, errors.Wrap(err, "create render finished semaphore")
		}

		s.InFlight[i], err = dev.NewFence(true)
		if err != nil {
			s.Destroy()
			return nil, errors.Wrap(err, "create in flight fence")
		}
	}
	s.ResizeImageTable(imageCount)
	return s, nil
}

// ResizeImageTable replaces the fence table with n unused entries.
func (s *FrameSync) ResizeImageTable(n int) {
	s.ImagesInFlight = make([]driver.Fence, n)
}

func (s *FrameSync) Destroy() {
	for i := range MaxFramesInFlight {
		if s.ImageAvailable[i] != nil {
			s.ImageAvailable[i].Destroy()
			s.ImageAvailable[i] = nil
		}
		if s.RenderFinished[i] != nil {
			s.RenderFinished[i].Destroy()
			s.RenderFinished[i] = nil
		}
		if s.InFlight[i] != nil {
			s.InFlight[i].Destroy()
			s.InFlight[i] = nil
		}
	}
	s.ImagesInFlight = nil
}
