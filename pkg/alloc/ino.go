package alloc

import . "github.com/weberc2/sfs/pkg/types"

// InoAllocator hands out inode ids. Slot 0 is never handed out.
type InoAllocator struct {
	Allocator
}

func (ia InoAllocator) Alloc() (Ino, bool) {
	if ino, ok := ia.Allocator.Alloc(uint64(InoRoot)); ok {
		return Ino(ino), true
	}
	return InoNil, false
}

func (ia InoAllocator) Free(ino Ino) bool {
	if ino == InoNil {
		return false
	}
	return ia.Allocator.Free(uint64(ino))
}

func (ia InoAllocator) Reserve(ino Ino) { ia.Allocator.Reserve(uint64(ino)) }
