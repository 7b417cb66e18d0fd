package vulkan

import (
	"log/slog"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/particles/driver"
)

func TestBytesToBytecode(t *testing.T) {
	b := make([]byte, 9)
	common.ByteOrder.PutUint32(b, 0x07230203)
	common.ByteOrder.PutUint32(b[4:], 42)

	code := bytesToBytecode(b)
	assert.Equal(t, []uint32{0x07230203, 42}, code)
}

func TestFindMemoryType(t *testing.T) {
	props := &core1_0.PhysicalDeviceMemoryProperties{
		MemoryTypes: []core1_0.MemoryType{
			{PropertyFlags: core1_0.MemoryPropertyDeviceLocal},
			{PropertyFlags: core1_0.MemoryPropertyHostVisible},
			{PropertyFlags: core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent},
		},
	}
	hostCoherent := core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent

	index, err := findMemoryType(props, 0b111, hostCoherent)
	require.NoError(t, err)
	assert.Equal(t, 2, index)

	index, err = findMemoryType(props, 0b111, core1_0.MemoryPropertyDeviceLocal)
	require.NoError(t, err)
	assert.Equal(t, 0, index)

	// The type filter excludes the only coherent type.
	_, err = findMemoryType(props, 0b011, hostCoherent)
	assert.True(t, errors.Is(err, ErrNoMemoryType))
}

func TestPresentStatus(t *testing.T) {
	status, err := presentStatus(khr_swapchain.VKErrorOutOfDate, errors.New("out of date"), "present")
	require.NoError(t, err)
	assert.Equal(t, driver.StatusOutOfDate, status)

	status, err = presentStatus(khr_swapchain.VKSuboptimal, nil, "present")
	require.NoError(t, err)
	assert.Equal(t, driver.StatusSuboptimal, status)

	status, err = presentStatus(core1_0.VKSuccess, nil, "present")
	require.NoError(t, err)
	assert.Equal(t, driver.StatusSuccess, status)

	_, err = presentStatus(core1_0.VKErrorDeviceLost, errors.New("device lost"), "present")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "present")
}

func TestSeverityLevel(t *testing.T) {
	assert.Equal(t, slog.LevelError, severityLevel(ext_debug_utils.SeverityError))
	assert.Equal(t, slog.LevelError, severityLevel(ext_debug_utils.SeverityError|ext_debug_utils.SeverityWarning))
	assert.Equal(t, slog.LevelWarn, severityLevel(ext_debug_utils.SeverityWarning))
	assert.Equal(t, slog.LevelDebug, severityLevel(0))
}

func TestBlendAttachment(t *testing.T) {
	opaque := blendAttachment(driver.BlendNone)
	assert.False(t, opaque.BlendEnabled)
	assert.NotZero(t, opaque.ColorWriteMask)

	alpha := blendAttachment(driver.BlendAlpha)
	assert.True(t, alpha.BlendEnabled)
	assert.Equal(t, core1_0.BlendFactorSrcAlpha, alpha.SrcColorBlendFactor)
	assert.Equal(t, core1_0.BlendFactorOneMinusSrcAlpha, alpha.DstColorBlendFactor)
	assert.Equal(t, opaque.ColorWriteMask, alpha.ColorWriteMask)
}

func TestRenderPassConversions(t *testing.T) {
	assert.Equal(t, core1_0.SubpassExternal, subpassIndex(driver.External))
	assert.Equal(t, 0, subpassIndex(0))

	assert.Nil(t, attachmentRefs(nil))
	refs := attachmentRefs([]driver.AttachmentRef{{Attachment: 2, Layout: driver.LayoutColorAttachmentOptimal}})
	require.Len(t, refs, 1)
	assert.Equal(t, 2, refs[0].Attachment)
	assert.Equal(t, core1_0.ImageLayoutColorAttachmentOptimal, refs[0].Layout)
}

func TestEnumsShareVulkanValues(t *testing.T) {
	assert.EqualValues(t, core1_0.FormatB8G8R8A8SRGB, driver.FormatB8G8R8A8SRGB)
	assert.EqualValues(t, core1_0.FormatD32SignedFloat, driver.FormatD32SFloat)
	assert.EqualValues(t, core1_0.ImageLayoutShaderReadOnlyOptimal, driver.LayoutShaderReadOnlyOptimal)
	assert.EqualValues(t, khr_swapchain.ImageLayoutPresentSrc, driver.LayoutPresentSrc)
	assert.EqualValues(t, core1_0.Samples4, driver.Samples4)
	assert.EqualValues(t, core1_0.DescriptorTypeUniformBufferDynamic, driver.DescriptorUniformBufferDynamic)
	assert.EqualValues(t, core1_0.PipelineStageColorAttachmentOutput, driver.StageColorAttachmentOutput)
}
