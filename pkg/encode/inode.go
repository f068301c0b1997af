package encode

import (
	"fmt"

	. "github.com/weberc2/sfs/pkg/types"
)

// EncodeInode writes `inode` into `p`, which must be `Geometry.InodeSize()`
// bytes long. `inode.Ino` is not encoded; it is implied by the slot.
func EncodeInode(inode *Inode, p []byte) {
	clear(p)
	putU16(p, inodeFileTypeStart, uint16(inode.FileType))
	putU16(p, inodeModeStart, uint16(inode.Mode))
	putU32(p, inodeSizeStart, uint32(inode.Size))
	putBlock(p, inodeBlockCountStart, inode.BlockCount)
	putTimestamp(p, inodeCTimeStart, inode.CTime)
	putTimestamp(p, inodeMTimeStart, inode.MTime)
	putTimestamp(p, inodeATimeStart, inode.ATime)
	for i, b := range inode.DirectBlocks {
		putBlock(p, inodeDirectBlocksStart+Byte(i)*BlockPointerSize, b)
	}
}

// DecodeInode populates `inode` from `p`. `inode.DirectBlocks` must already
// have one slot per direct pointer.
func DecodeInode(inode *Inode, p []byte) error {
	if want := inodeDirectBlocksStart +
		Byte(len(inode.DirectBlocks))*BlockPointerSize; Byte(len(p)) < want {
		return fmt.Errorf(
			"decoding inode: wanted at least `%d` bytes; found `%d`: %w",
			want,
			len(p),
			CorruptImageErr,
		)
	}
	inode.FileType = FileType(getU16(p, inodeFileTypeStart))
	inode.Mode = Mode(getU16(p, inodeModeStart))
	inode.Size = Byte(getU32(p, inodeSizeStart))
	inode.BlockCount = getBlock(p, inodeBlockCountStart)
	inode.CTime = getTimestamp(p, inodeCTimeStart)
	inode.MTime = getTimestamp(p, inodeMTimeStart)
	inode.ATime = getTimestamp(p, inodeATimeStart)
	for i := range inode.DirectBlocks {
		inode.DirectBlocks[i] = getBlock(
			p,
			inodeDirectBlocksStart+Byte(i)*BlockPointerSize,
		)
	}
	return nil
}

const (
	inodeFileTypeStart = 0
	inodeFileTypeSize  = 2
	inodeFileTypeEnd   = inodeFileTypeStart + inodeFileTypeSize

	inodeModeStart = inodeFileTypeEnd
	inodeModeSize  = 2
	inodeModeEnd   = inodeModeStart + inodeModeSize

	inodeSizeStart = inodeModeEnd
	inodeSizeSize  = 4
	inodeSizeEnd   = inodeSizeStart + inodeSizeSize

	inodeBlockCountStart = inodeSizeEnd
	inodeBlockCountSize  = 4
	inodeBlockCountEnd   = inodeBlockCountStart + inodeBlockCountSize

	inodeReservedStart = inodeBlockCountEnd
	inodeReservedSize  = 4
	inodeReservedEnd   = inodeReservedStart + inodeReservedSize

	inodeCTimeStart = inodeReservedEnd
	inodeCTimeSize  = 8
	inodeCTimeEnd   = inodeCTimeStart + inodeCTimeSize

	inodeMTimeStart = inodeCTimeEnd
	inodeMTimeSize  = 8
	inodeMTimeEnd   = inodeMTimeStart + inodeMTimeSize

	inodeATimeStart = inodeMTimeEnd
	inodeATimeSize  = 8
	inodeATimeEnd   = inodeATimeStart + inodeATimeSize

	inodeDirectBlocksStart Byte = inodeATimeEnd
)

var _ = [1]struct{}{}[inodeDirectBlocksStart-InodeHeaderSize]
