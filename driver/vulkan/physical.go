package vulkan

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/particles/driver"
)

type physicalDevice struct {
	instance *Instance
	handle   core1_0.PhysicalDevice
}

func (p *physicalDevice) Properties() (driver.DeviceProperties, error) {
	props, err := p.instance.instanceDriver.GetPhysicalDeviceProperties(p.handle)
	if err != nil {
		return driver.DeviceProperties{}, errors.Wrap(err, "query device properties")
	}
	return driver.DeviceProperties{
		Name:              props.DeviceName,
		PipelineCacheUUID: props.PipelineCacheUUID,
		Limits: driver.Limits{
			MinUniformBufferOffsetAlignment: props.Limits.MinUniformBufferOffsetAlignment,
			MaxSamplerAnisotropy:            props.Limits.MaxSamplerAnisotropy,
			FramebufferColorSampleCounts:    driver.SampleCount(props.Limits.FramebufferColorSampleCounts),
			FramebufferDepthSampleCounts:    driver.SampleCount(props.Limits.FramebufferDepthSampleCounts),
		},
	}, nil
}

func (p *physicalDevice) Features() driver.Features {
	features := p.instance.instanceDriver.GetPhysicalDeviceFeatures(p.handle)
	return driver.Features{SamplerAnisotropy: features.SamplerAnisotropy}
}

func (p *physicalDevice) QueueFamilies() ([]driver.QueueFamily, error) {
	families := p.instance.instanceDriver.GetPhysicalDeviceQueueFamilyProperties(p.handle)
	out := make([]driver.QueueFamily, len(families))
	for i, family := range families {
		present, _, err := p.instance.surfaceExtension.GetPhysicalDeviceSurfaceSupport(p.instance.surface, p.handle, i)
		if err != nil {
			return nil, errors.Wrapf(err, "query present support of family %d", i)
		}
		out[i] = driver.QueueFamily{
			Graphics: family.QueueFlags&core1_0.QueueGraphics != 0,
			Present:  present,
		}
	}
	return out, nil
}

func (p *physicalDevice) Extensions() (map[string]struct{}, error) {
	extensions, _, err := p.instance.instanceDriver.EnumerateDeviceExtensionProperties(p.handle)
	if err != nil {
		return nil, errors.Wrap(err, "enumerate device extensions")
	}
	out := make(map[string]struct{}, len(extensions))
	for name := range extensions {
		out[name] = struct{}{}
	}
	return out, nil
}

func (p *physicalDevice) SurfaceSupport() (driver.SurfaceSupport, error) {
	ext, surface := p.instance.surfaceExtension, p.instance.surface

	caps, _, err := ext.GetPhysicalDeviceSurfaceCapabilities(surface, p.handle)
	if err != nil {
		return driver.SurfaceSupport{}, errors.Wrap(err, "query surface capabilities")
	}
	formats, _, err := ext.GetPhysicalDeviceSurfaceFormats(surface, p.handle)
	if err != nil {
		return driver.SurfaceSupport{}, errors.Wrap(err, "query surface formats")
	}
	modes, _, err := ext.GetPhysicalDeviceSurfacePresentModes(surface, p.handle)
	if err != nil {
		return driver.SurfaceSupport{}, errors.Wrap(err, "query present modes")
	}

	support := driver.SurfaceSupport{
		Capabilities: driver.SurfaceCapabilities{
			MinImageCount:    caps.MinImageCount,
			MaxImageCount:    caps.MaxImageCount,
			CurrentExtent:    extent(caps.CurrentExtent),
			MinImageExtent:   extent(caps.MinImageExtent),
			MaxImageExtent:   extent(caps.MaxImageExtent),
			CurrentTransform: uint32(caps.CurrentTransform),
		},
		Formats:      make([]driver.SurfaceFormat, len(formats)),
		PresentModes: make([]driver.PresentMode, len(modes)),
	}
	for i, f := range formats {
		support.Formats[i] = driver.SurfaceFormat{
			Format:     driver.Format(f.Format),
			ColorSpace: driver.ColorSpace(f.ColorSpace),
		}
	}
	for i, m := range modes {
		support.PresentModes[i] = driver.PresentMode(m)
	}
	return support, nil
}

func (p *physicalDevice) FormatProperties(format driver.Format) driver.FormatProperties {
	props := p.instance.instanceDriver.GetPhysicalDeviceFormatProperties(p.handle, core1_0.Format(format))
	return driver.FormatProperties{
		LinearTiling:  driver.FormatFeatures(props.LinearTilingFeatures),
		OptimalTiling: driver.FormatFeatures(props.OptimalTilingFeatures),
	}
}

// Open creates the logical device. The portability subset extension is
// enabled whenever the device offers it.
func (p *physicalDevice) Open(info driver.DeviceInfo) (driver.Device, error) {
	queues := make([]core1_0.DeviceQueueCreateInfo, len(info.QueueFamilies))
	for i, family := range info.QueueFamilies {
		queues[i] = core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: family,
			QueuePriorities:  []float32{1.0},
		}
	}

	extensionNames := append([]string(nil), info.Extensions...)
	available, err := p.Extensions()
	if err != nil {
		return nil, err
	}
	if _, ok := available[khr_portability_subset.ExtensionName]; ok {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	deviceDriver, _, err := p.instance.instanceDriver.CreateDevice(p.handle, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos: queues,
		EnabledFeatures: &core1_0.PhysicalDeviceFeatures{
			SamplerAnisotropy: info.Features.SamplerAnisotropy,
		},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create device")
	}

	d := &device{
		logger:   p.instance.logger,
		instance: p.instance,
		driver:   deviceDriver,
		memory:   p.instance.instanceDriver.GetPhysicalDeviceMemoryProperties(p.handle),
	}
	for _, name := range extensionNames {
		if name == khr_swapchain.ExtensionName {
			d.swapchainExtension = khr_swapchain.CreateExtensionDriverFromCoreDriver(deviceDriver)
		}
	}
	p.instance.logger.Debug("opened device",
		slog.Any("families", info.QueueFamilies),
		slog.Any("extensions", extensionNames))
	return d, nil
}
