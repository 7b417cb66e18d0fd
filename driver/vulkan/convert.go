package vulkan

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/particles/driver"
)

func extent(e core1_0.Extent2D) driver.Extent {
	return driver.Extent{Width: e.Width, Height: e.Height}
}

func extent2D(e driver.Extent) core1_0.Extent2D {
	return core1_0.Extent2D{Width: e.Width, Height: e.Height}
}

// bytesToBytecode reinterprets SPIR-V bytes as host-order words. A trailing
// partial word is dropped.
func bytesToBytecode(b []byte) []uint32 {
	code := make([]uint32, len(b)/4)
	for i := range code {
		code[i] = common.ByteOrder.Uint32(b[i*4:])
	}
	return code
}

func findMemoryType(props *core1_0.PhysicalDeviceMemoryProperties, typeBits uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	for i, memoryType := range props.MemoryTypes {
		if typeBits&(1<<i) != 0 && memoryType.PropertyFlags&properties == properties {
			return i, nil
		}
	}
	return 0, errors.Wrapf(ErrNoMemoryType, "type bits %#x, properties %v", typeBits, properties)
}

// presentStatus folds the out-of-date and suboptimal results of acquire and
// present into a driver.Status. Any other failure is an error.
func presentStatus(res common.VkResult, err error, op string) (driver.Status, error) {
	switch res {
	case khr_swapchain.VKErrorOutOfDate:
		return driver.StatusOutOfDate, nil
	case khr_swapchain.VKSuboptimal:
		return driver.StatusSuboptimal, nil
	}
	if err != nil {
		return driver.StatusSuccess, errors.Wrap(err, op)
	}
	return driver.StatusSuccess, nil
}

func severityLevel(severity ext_debug_utils.DebugUtilsMessageSeverityFlags) slog.Level {
	switch {
	case severity&ext_debug_utils.SeverityError != 0:
		return slog.LevelError
	case severity&ext_debug_utils.SeverityWarning != 0:
		return slog.LevelWarn
	}
	return slog.LevelDebug
}
