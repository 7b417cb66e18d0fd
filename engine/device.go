package engine

import (
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/particles/driver"
)

// SwapchainExtension is the device extension every suitable device must
// support.
const SwapchainExtension = "VK_KHR_swapchain"

// Requirements lists what a physical device must offer to be selected.
type Requirements struct {
	Extensions []string
	// MSAA selects the highest sample count usable for both color and
	// depth. Without it the renderer draws with one sample.
	MSAA bool
}

// DeviceContext is the physical device chosen by SelectDevice and, once
// OpenContext succeeds, its logical device and queues.
type DeviceContext struct {
	Physical   driver.PhysicalDevice
	Properties driver.DeviceProperties
	Extensions []string
	Samples    driver.SampleCount

	GraphicsFamily int
	PresentFamily  int

	Logical  driver.Device
	Graphics driver.Queue
	Present  driver.Queue
}

type queueFamilyIndices struct {
	graphics, present int
}

func (i queueFamilyIndices) complete() bool {
	return i.graphics >= 0 && i.present >= 0
}

func findQueueFamilies(families []driver.QueueFamily) queueFamilyIndices {
	indices := queueFamilyIndices{graphics: -1, present: -1}
	for idx, family := range families {
		if indices.graphics < 0 && family.Graphics {
			indices.graphics = idx
		}
		if indices.present < 0 && family.Present {
			indices.present = idx
		}
		if indices.complete() {
			break
		}
	}
	return indices
}

// SelectDevice returns the first physical device of the instance that has a
// graphics and a present queue family, supports every required extension,
// offers at least one surface format and present mode, and supports
// anisotropic sampling. Devices are not ranked.
func SelectDevice(instance driver.Instance, req Requirements, logger *slog.Logger) (*DeviceContext, error) {
	if logger == nil {
		logger = slog.Default()
	}

	devices, err := instance.PhysicalDevices()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}

	for _, device := range devices {
		indices, ok := isDeviceSuitable(device, req.Extensions)
		if !ok {
			continue
		}

		props, err := device.Properties()
		if err != nil {
			return nil, errors.Wrap(err, "query device properties")
		}

		samples := driver.Samples1
		if req.MSAA {
			samples = maxUsableSampleCount(props.Limits)
		}

		logger.Info("selected physical device",
			slog.String("Name", props.Name),
			slog.String("PipelineCacheUUID", props.PipelineCacheUUID.String()),
			slog.Int("GraphicsFamily", indices.graphics),
			slog.Int("PresentFamily", indices.present),
			slog.Int("Samples", int(samples)))

		return &DeviceContext{
			Physical:       device,
			Properties:     props,
			Extensions:     append([]string(nil), req.Extensions...),
			Samples:        samples,
			GraphicsFamily: indices.graphics,
			PresentFamily:  indices.present,
		}, nil
	}

	return nil, ErrNoSuitableDevice
}

func isDeviceSuitable(device driver.PhysicalDevice, extensions []string) (queueFamilyIndices, bool) {
	families, err := device.QueueFamilies()
	if err != nil {
		return queueFamilyIndices{}, false
	}
	indices := findQueueFamilies(families)
	if !indices.complete() {
		return indices, false
	}

	available, err := device.Extensions()
	if err != nil {
		return indices, false
	}
	for _, ext := range extensions {
		if _, ok := available[ext]; !ok {
			return indices, false
		}
	}

	support, err := device.SurfaceSupport()
	if err != nil || len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return indices, false
	}

	return indices, device.Features().SamplerAnisotropy
}

func maxUsableSampleCount(limits driver.Limits) driver.SampleCount {
	counts := limits.FramebufferColorSampleCounts & limits.FramebufferDepthSampleCounts
	for _, samples := range []driver.SampleCount{
		driver.Samples64, driver.Samples32, driver.Samples16,
		driver.Samples8, driver.Samples4, driver.Samples2,
	} {
		if counts&samples != 0 {
			return samples
		}
	}
	return driver.Samples1
}

// UniqueFamilies returns the graphics family, followed by the present
// family when the two differ.
func (dc *DeviceContext) UniqueFamilies() []int {
	if dc.GraphicsFamily == dc.PresentFamily {
		return []int{dc.GraphicsFamily}
	}
	return []int{dc.GraphicsFamily, dc.PresentFamily}
}

// OpenContext creates the logical device with one queue per unique family,
// anisotropic sampling and the required extensions enabled.
func OpenContext(dc *DeviceContext) error {
	device, err := dc.Physical.Open(driver.DeviceInfo{
		QueueFamilies: dc.UniqueFamilies(),
		Extensions:    dc.Extensions,
		Features:      driver.Features{SamplerAnisotropy: true},
	})
	if err != nil {
		return errors.Mark(errors.Wrap(err, "open logical device"), ErrContextCreationFailed)
	}

	dc.Logical = device
	dc.Graphics = device.Queue(dc.GraphicsFamily)
	dc.Present = device.Queue(dc.PresentFamily)
	return nil
}
