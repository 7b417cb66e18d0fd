package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/particles/driver"
	"github.com/vkngwrapper/particles/driver/drivertest"
)

func TestUploadBuffer(t *testing.T) {
	f := newFixture(800, 600)
	ctx := f.context(t, false)

	buf, err := uploadBuffer(ctx, []uint32{0, 1, 2}, driver.BufferUsageIndex)
	require.NoError(t, err)
	assert.Equal(t, 1, f.tracker.LiveOf(drivertest.KindBuffer), "staging buffer is released")
	buf.Destroy()

	// int has no fixed size, so it cannot be written as buffer data.
	_, err = uploadBuffer(ctx, []int{1}, driver.BufferUsageVertex)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode buffer data")
	assert.Zero(t, f.tracker.LiveOf(drivertest.KindBuffer))

	ctx.Destroy()
	f.assertClean(t)
}
