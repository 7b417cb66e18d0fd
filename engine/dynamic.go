package engine

// AlignedStride rounds size up to a multiple of alignment, which must be a
// power of two. A non-positive alignment leaves size unchanged.
func AlignedStride(size, alignment int) int {
	if alignment <= 0 {
		return size
	}
	return (size + alignment - 1) &^ (alignment - 1)
}

// DynamicBufferSize is the byte size of a dynamic uniform buffer holding
// count slots. An empty buffer still holds one slot so that descriptor
// ranges never reference zero bytes.
func DynamicBufferSize(count, stride int) int {
	return max(1, count) * stride
}

// DynamicArray is a CPU-side arena of fixed-stride slots laid out exactly
// like the dynamic uniform buffer it is copied into.
type DynamicArray struct {
	data   []byte
	stride int
	count  int
}

func NewDynamicArray(count, stride int) *DynamicArray {
	return &DynamicArray{
		data:   make([]byte, DynamicBufferSize(count, stride)),
		stride: stride,
		count:  count,
	}
}

// Slot returns the bytes of slot i. The returned slice is stride bytes long
// and aliases the arena.
func (a *DynamicArray) Slot(i int) []byte {
	offset := i * a.stride
	return a.data[offset : offset+a.stride : offset+a.stride]
}

func (a *DynamicArray) Len() int    { return a.count }
func (a *DynamicArray) Stride() int { return a.stride }

// Bytes returns the whole arena, including the padding slot of an empty
// array.
func (a *DynamicArray) Bytes() []byte {
	return a.data
}
