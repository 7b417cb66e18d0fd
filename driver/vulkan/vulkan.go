// Package vulkan implements the driver interfaces on Vulkan, presenting to
// an SDL2 window.
package vulkan

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"

	"github.com/vkngwrapper/particles/driver"
)

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}

// ErrNoMemoryType is returned when no memory type satisfies an allocation.
var ErrNoMemoryType = errors.New("failed to find a suitable memory type")

type Options struct {
	AppName string
	// Validation enables the Khronos validation layer and forwards its
	// messages to Logger.
	Validation bool
	Logger     *slog.Logger
}

// Instance is a Vulkan instance together with the surface of the window it
// was opened for.
type Instance struct {
	logger *slog.Logger

	globalDriver   core1_0.GlobalDriver
	instanceDriver core1_0.CoreInstanceDriver

	debugDriver    ext_debug_utils.ExtensionDriver
	debugMessenger ext_debug_utils.DebugUtilsMessenger

	surfaceExtension khr_surface.ExtensionDriver
	surface          khr_surface.Surface
}

var _ driver.Instance = (*Instance)(nil)

// Open creates an instance with the extensions window needs and a surface
// for window. SDL video must already be initialized.
func Open(window *sdl.Window, opts Options) (*Instance, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	inst := &Instance{logger: logger}

	var err error
	inst.globalDriver, err = core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return nil, errors.Wrap(err, "load vulkan")
	}

	if err := inst.createInstance(window, opts); err != nil {
		return nil, err
	}

	if opts.Validation {
		inst.debugDriver = ext_debug_utils.CreateExtensionDriverFromCoreDriver(inst.instanceDriver)
		inst.debugMessenger, _, err = inst.debugDriver.CreateDebugUtilsMessenger(nil, inst.debugMessengerOptions())
		if err != nil {
			inst.Destroy()
			return nil, errors.Wrap(err, "create debug messenger")
		}
	}

	inst.surfaceExtension = khr_surface.CreateExtensionDriverFromCoreDriver(inst.instanceDriver)
	inst.surface, err = vkng_sdl2.CreateSurface(inst.instanceDriver.Instance(), inst.surfaceExtension, window)
	if err != nil {
		inst.Destroy()
		return nil, errors.Wrap(err, "create surface")
	}
	return inst, nil
}

func (inst *Instance) createInstance(window *sdl.Window, opts Options) error {
	info := core1_0.InstanceCreateInfo{
		ApplicationName:    opts.AppName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "particles",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	extensions, _, err := inst.globalDriver.AvailableExtensions()
	if err != nil {
		return errors.Wrap(err, "enumerate instance extensions")
	}
	for _, ext := range window.VulkanGetInstanceExtensions() {
		if _, ok := extensions[ext]; !ok {
			return errors.Newf("missing instance extension %s", ext)
		}
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, ext)
	}

	if _, ok := extensions[khr_portability_enumeration.ExtensionName]; ok {
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		info.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if opts.Validation {
		layers, _, err := inst.globalDriver.AvailableLayers()
		if err != nil {
			return errors.Wrap(err, "enumerate layers")
		}
		for _, layer := range validationLayers {
			if _, ok := layers[layer]; !ok {
				return errors.Newf("validation layer %s not available, install the Vulkan SDK", layer)
			}
			info.EnabledLayerNames = append(info.EnabledLayerNames, layer)
		}
		info.EnabledExtensionNames = append(info.EnabledExtensionNames, ext_debug_utils.ExtensionName)
		// Also covers messages from instance creation and destruction.
		info.Next = inst.debugMessengerOptions()
	}

	inst.instanceDriver, _, err = inst.globalDriver.CreateInstance(nil, info)
	if err != nil {
		return errors.Wrap(err, "create instance")
	}
	inst.logger.Debug("created instance",
		slog.Int("extensions", len(info.EnabledExtensionNames)),
		slog.Bool("validation", opts.Validation))
	return nil
}

func (inst *Instance) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    inst.logDebug,
	}
}

func (inst *Instance) logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	inst.logger.Log(context.Background(), severityLevel(severity), data.Message,
		slog.Any("type", msgType))
	return false
}

// PhysicalDevices enumerates the devices visible to the instance.
func (inst *Instance) PhysicalDevices() ([]driver.PhysicalDevice, error) {
	devices, _, err := inst.instanceDriver.EnumeratePhysicalDevices()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}
	out := make([]driver.PhysicalDevice, len(devices))
	for i, d := range devices {
		out[i] = &physicalDevice{instance: inst, handle: d}
	}
	return out, nil
}

func (inst *Instance) Destroy() {
	if inst.surface.Initialized() {
		inst.surfaceExtension.DestroySurface(inst.surface, nil)
		inst.surface = khr_surface.Surface{}
	}
	if inst.debugMessenger.Initialized() {
		inst.debugDriver.DestroyDebugUtilsMessenger(inst.debugMessenger, nil)
		inst.debugMessenger = ext_debug_utils.DebugUtilsMessenger{}
	}
	if inst.instanceDriver != nil {
		inst.instanceDriver.DestroyInstance(nil)
		inst.instanceDriver = nil
	}
}
