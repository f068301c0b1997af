package alloc

import . "github.com/weberc2/sfs/pkg/types"

// BlockAllocator hands out data blocks at or after `First`. Blocks before it
// hold metadata and are reserved at format time.
type BlockAllocator struct {
	Allocator
	First Block
}

func (ba BlockAllocator) Alloc() (Block, bool) {
	if b, ok := ba.Allocator.Alloc(uint64(ba.First)); ok {
		return Block(b), true
	}
	return BlockNil, false
}

func (ba BlockAllocator) Free(b Block) bool {
	if b < ba.First {
		return false
	}
	return ba.Allocator.Free(uint64(b))
}

func (ba BlockAllocator) Reserve(b Block) { ba.Allocator.Reserve(uint64(b)) }
