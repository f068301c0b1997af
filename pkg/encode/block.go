package encode

import (
	"fmt"

	. "github.com/weberc2/sfs/pkg/types"
)

// EncodeBlock writes the block header followed by its data into `p`, which
// must be one block long.
func EncodeBlock(block *DataBlock, p []byte) {
	clear(p[:BlockHeaderSize])
	putBlock(p, blockNumberStart, block.Number)
	if block.InUse {
		putU8(p, blockInUseStart, 1)
	}
	putU32(p, blockBytesUsedStart, uint32(block.BytesUsed))
	copy(p[BlockHeaderSize:], block.Data)
}

// DecodeBlock populates `block` from `p`. `block.Data` must already be sized
// to the usable block size.
func DecodeBlock(block *DataBlock, p []byte) error {
	block.Number = getBlock(p, blockNumberStart)
	block.InUse = getU8(p, blockInUseStart) != 0
	block.BytesUsed = Byte(getU32(p, blockBytesUsedStart))
	if block.BytesUsed > Byte(len(block.Data)) {
		return fmt.Errorf(
			"decoding block `%d`: `%d` bytes used exceeds capacity `%d`: %w",
			block.Number,
			block.BytesUsed,
			len(block.Data),
			CorruptImageErr,
		)
	}
	copy(block.Data, p[BlockHeaderSize:])
	return nil
}

const (
	blockNumberStart = 0
	blockNumberSize  = 4
	blockNumberEnd   = blockNumberStart + blockNumberSize

	blockInUseStart = blockNumberEnd
	blockInUseSize  = 4 // one flag byte plus padding
	blockInUseEnd   = blockInUseStart + blockInUseSize

	blockBytesUsedStart = blockInUseEnd
	blockBytesUsedSize  = 4
	blockBytesUsedEnd   = blockBytesUsedStart + blockBytesUsedSize
)

var _ = [1]struct{}{}[blockBytesUsedEnd-BlockHeaderSize]
