package drivertest

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/vkngwrapper/particles/driver"
)

// SwapchainExtension is the device extension every default device offers.
const SwapchainExtension = "VK_KHR_swapchain"

// Surface is a fake presentation surface whose size follows the window.
// It also serves as the window in engine tests.
type Surface struct {
	Width, Height int

	// UndefinedExtent makes the capabilities report the undefined current
	// extent, leaving the choice to the swapchain.
	UndefinedExtent bool

	MinImageCount, MaxImageCount int
	MinExtent, MaxExtent         driver.Extent
	Formats                      []driver.SurfaceFormat
	PresentModes                 []driver.PresentMode
}

// NewSurface returns a surface of the given size with common capabilities.
func NewSurface(width, height int) *Surface {
	return &Surface{
		Width:         width,
		Height:        height,
		MinImageCount: 2,
		MaxImageCount: 3,
		MinExtent:     driver.Extent{Width: 1, Height: 1},
		MaxExtent:     driver.Extent{Width: 4096, Height: 4096},
		Formats: []driver.SurfaceFormat{
			{Format: driver.FormatB8G8R8A8UNorm, ColorSpace: driver.ColorSpaceSRGBNonlinear},
			{Format: driver.FormatB8G8R8A8SRGB, ColorSpace: driver.ColorSpaceSRGBNonlinear},
		},
		PresentModes: []driver.PresentMode{driver.PresentModeFIFO, driver.PresentModeMailbox},
	}
}

// Resize changes the window size.
func (s *Surface) Resize(width, height int) {
	s.Width, s.Height = width, height
}

func (s *Surface) FramebufferSize() (int, int) {
	return s.Width, s.Height
}

func (s *Surface) support() driver.SurfaceSupport {
	current := driver.Extent{Width: s.Width, Height: s.Height}
	if s.UndefinedExtent {
		current = driver.Extent{Width: driver.UndefinedExtent, Height: driver.UndefinedExtent}
	}
	return driver.SurfaceSupport{
		Capabilities: driver.SurfaceCapabilities{
			MinImageCount:  s.MinImageCount,
			MaxImageCount:  s.MaxImageCount,
			CurrentExtent:  current,
			MinImageExtent: s.MinExtent,
			MaxImageExtent: s.MaxExtent,
		},
		Formats:      append([]driver.SurfaceFormat(nil), s.Formats...),
		PresentModes: append([]driver.PresentMode(nil), s.PresentModes...),
	}
}

// Instance is a fake driver.Instance.
type Instance struct {
	object
	Devices []*PhysicalDevice
}

var _ driver.Instance = (*Instance)(nil)

// NewInstance creates an instance exposing the given physical devices.
func NewInstance(tracker *Tracker, devices ...*PhysicalDevice) *Instance {
	instance := &Instance{object: tracker.track(KindInstance), Devices: devices}
	for _, d := range devices {
		d.tracker = tracker
	}
	return instance
}

func (i *Instance) PhysicalDevices() ([]driver.PhysicalDevice, error) {
	if err := i.alive(); err != nil {
		return nil, err
	}
	devices := make([]driver.PhysicalDevice, 0, len(i.Devices))
	for _, d := range i.Devices {
		devices = append(devices, d)
	}
	return devices, nil
}

// PhysicalDevice is a fake driver.PhysicalDevice. Its exported fields may be
// changed freely before the device is opened.
type PhysicalDevice struct {
	tracker *Tracker

	Props       driver.DeviceProperties
	Feats       driver.Features
	Families    []driver.QueueFamily
	Exts        map[string]struct{}
	Surface     *Surface
	FormatProps map[driver.Format]driver.FormatProperties
	OpenErr     error
	OpenedWith  *driver.DeviceInfo
	LastOpened  *Device
}

var _ driver.PhysicalDevice = (*PhysicalDevice)(nil)

// NewPhysicalDevice returns a device that passes every suitability check,
// presenting to the given surface.
func NewPhysicalDevice(name string, surface *Surface) *PhysicalDevice {
	return &PhysicalDevice{
		Props: driver.DeviceProperties{
			Name:              name,
			PipelineCacheUUID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)),
			Limits: driver.Limits{
				MinUniformBufferOffsetAlignment: 256,
				MaxSamplerAnisotropy:            16,
				FramebufferColorSampleCounts:    driver.Samples1 | driver.Samples2 | driver.Samples4 | driver.Samples8,
				FramebufferDepthSampleCounts:    driver.Samples1 | driver.Samples2 | driver.Samples4,
			},
		},
		Feats:    driver.Features{SamplerAnisotropy: true},
		Families: []driver.QueueFamily{{Graphics: true, Present: true}},
		Exts:     map[string]struct{}{SwapchainExtension: {}},
		Surface:  surface,
		FormatProps: map[driver.Format]driver.FormatProperties{
			driver.FormatD32SFloat: {
				OptimalTiling: driver.FormatFeatureDepthStencilAttachment,
			},
			driver.FormatR8G8B8A8SRGB: {
				OptimalTiling: driver.FormatFeatureSampledImage | driver.FormatFeatureSampledImageFilterLin,
			},
		},
	}
}

func (p *PhysicalDevice) Properties() (driver.DeviceProperties, error) {
	return p.Props, nil
}

func (p *PhysicalDevice) Features() driver.Features {
	return p.Feats
}

func (p *PhysicalDevice) QueueFamilies() ([]driver.QueueFamily, error) {
	return append([]driver.QueueFamily(nil), p.Families...), nil
}

func (p *PhysicalDevice) Extensions() (map[string]struct{}, error) {
	exts := make(map[string]struct{}, len(p.Exts))
	for name := range p.Exts {
		exts[name] = struct{}{}
	}
	return exts, nil
}

func (p *PhysicalDevice) SurfaceSupport() (driver.SurfaceSupport, error) {
	if p.Surface == nil {
		return driver.SurfaceSupport{}, errors.New("no surface")
	}
	return p.Surface.support(), nil
}

func (p *PhysicalDevice) FormatProperties(format driver.Format) driver.FormatProperties {
	return p.FormatProps[format]
}

func (p *PhysicalDevice) Open(info driver.DeviceInfo) (driver.Device, error) {
	if p.OpenErr != nil {
		return nil, p.OpenErr
	}
	if p.tracker == nil {
		return nil, errors.New("physical device is not attached to an instance")
	}

	seen := make(map[int]bool)
	for _, family := range info.QueueFamilies {
		if family < 0 || family >= len(p.Families) {
			return nil, errors.New("queue family out of range")
		}
		if seen[family] {
			return nil, errors.New("queue family requested twice")
		}
		seen[family] = true
	}
	for _, ext := range info.Extensions {
		if _, ok := p.Exts[ext]; !ok {
			return nil, errors.New("extension not present: " + ext)
		}
	}

	infoCopy := info
	p.OpenedWith = &infoCopy

	device := newDevice(p, info)
	p.LastOpened = device
	return device, nil
}
