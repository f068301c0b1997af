package alloc

type Allocator interface {
	Alloc(start uint64) (uint64, bool)
	Reserve(uint64)
	Free(uint64) bool
}

var _ Allocator = Bitmap{}
