package alloc

// Bitmap tracks one resource per byte: 0 is free and anything else is used.
// The one-byte-per-flag representation is also what gets persisted.
type Bitmap struct {
	bytes []byte
}

func New(size int) Bitmap { return Bitmap{make([]byte, size)} }

// FromBytes wraps `bytes` without copying.
func FromBytes(bytes []byte) Bitmap { return Bitmap{bytes} }

// Alloc claims the first free flag at or after `start`.
func (bm Bitmap) Alloc(start uint64) (uint64, bool) {
	for i := start; i < uint64(len(bm.bytes)); i++ {
		if bm.bytes[i] == 0 {
			bm.bytes[i] = 1
			return i, true
		}
	}
	return 0, false
}

// Free clears the flag and reports whether it was previously set. Out of
// range values are ignored.
func (bm Bitmap) Free(value uint64) bool {
	if value >= uint64(len(bm.bytes)) || bm.bytes[value] == 0 {
		return false
	}
	bm.bytes[value] = 0
	return true
}

func (bm Bitmap) Reserve(value uint64) {
	bm.bytes[value] = 1
}

func (bm Bitmap) IsSet(value uint64) bool {
	return value < uint64(len(bm.bytes)) && bm.bytes[value] != 0
}

// Zeros counts the free flags.
func (bm Bitmap) Zeros() uint64 {
	var n uint64
	for _, b := range bm.bytes {
		if b == 0 {
			n++
		}
	}
	return n
}

func (bm Bitmap) Len() int { return len(bm.bytes) }

func (bm Bitmap) Bytes() []byte { return bm.bytes }
