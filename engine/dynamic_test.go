package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignedStride(t *testing.T) {
	for align := 1; align <= 4096; align *= 2 {
		stride := AlignedStride(mat4Size, align)
		assert.Zero(t, stride%align, "alignment %d", align)
		assert.GreaterOrEqual(t, stride, mat4Size, "alignment %d", align)
		assert.Less(t, stride, mat4Size+align, "alignment %d", align)

		for count := 0; count < 8; count++ {
			size := DynamicBufferSize(count, stride)
			assert.Positive(t, size)
			assert.Equal(t, max(1, count)*stride, size)
		}
	}

	assert.Equal(t, 64, AlignedStride(64, 0))
	assert.Equal(t, 256, AlignedStride(16, 256))
	assert.Equal(t, 32, AlignedStride(32, 16))
}

func TestDynamicArray(t *testing.T) {
	a := NewDynamicArray(3, 256)
	require.Len(t, a.Bytes(), 768)
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, 256, a.Stride())

	slot := a.Slot(2)
	require.Len(t, slot, 256)
	slot[0] = 7
	assert.Equal(t, byte(7), a.Bytes()[512])

	// Appending to a slot never spills into the next one.
	first := append(a.Slot(0), 9)
	first[0] = 1
	assert.Zero(t, a.Bytes()[0])
}

func TestDynamicArrayEmpty(t *testing.T) {
	a := NewDynamicArray(0, 64)
	assert.Zero(t, a.Len())
	assert.Len(t, a.Bytes(), 64)
}
