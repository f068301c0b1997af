package encode

import (
	"fmt"

	. "github.com/weberc2/sfs/pkg/types"
)

func EncodeSuperblock(sb *Superblock, b *[SuperblockSize]byte) {
	p := b[:]
	putU32(p, superblockMagicStart, sb.Magic)
	putU32(p, superblockVersionStart, sb.Version)
	putBlock(p, superblockBlockCountStart, sb.Geometry.BlockCount)
	putIno(p, superblockInodeCountStart, sb.Geometry.InodeCount)
	putU32(p, superblockBlockSizeStart, uint32(sb.Geometry.BlockSize))
	putBlock(p, superblockFreeBlocksStart, sb.FreeBlocks)
	putIno(p, superblockFreeInodesStart, sb.FreeInodes)
	putBlock(p, superblockInodeBitmapStart, sb.Layout.InodeBitmapStart)
	putBlock(p, superblockBlockBitmapStart, sb.Layout.BlockBitmapStart)
	putBlock(p, superblockInodeTableStart, sb.Layout.InodeTableStart)
	putBlock(p, superblockFirstDataBlockStart, sb.Layout.FirstDataBlock)
	putIno(p, superblockRootInoStart, sb.RootIno)
	putU32(p, superblockDirectPointersStart, sb.Geometry.DirectPointers)
	putU32(p, superblockNameSizeStart, uint32(sb.Geometry.NameSize))
	putTimestamp(p, superblockCreatedStart, sb.Created)
	copy(p[superblockVolumeIDStart:superblockVolumeIDEnd], sb.VolumeID[:])
}

// DecodeMagic reads the leading signature of an encoded image.
func DecodeMagic(p []byte) (uint32, error) {
	if Byte(len(p)) < superblockMagicEnd {
		return 0, fmt.Errorf(
			"decoding magic: image is only `%d` bytes: %w",
			len(p),
			CorruptImageErr,
		)
	}
	return getU32(p, superblockMagicStart), nil
}

func DecodeSuperblock(sb *Superblock, b *[SuperblockSize]byte) error {
	p := b[:]
	if magic := getU32(p, superblockMagicStart); magic != SuperblockMagic {
		return fmt.Errorf(
			"decoding superblock: decoded magic `%#x`: %w",
			magic,
			CorruptImageErr,
		)
	}
	*sb = Superblock{
		Magic:   getU32(p, superblockMagicStart),
		Version: getU32(p, superblockVersionStart),
		Geometry: Geometry{
			BlockSize:      Byte(getU32(p, superblockBlockSizeStart)),
			BlockCount:     getBlock(p, superblockBlockCountStart),
			InodeCount:     getIno(p, superblockInodeCountStart),
			DirectPointers: getU32(p, superblockDirectPointersStart),
			NameSize:       Byte(getU32(p, superblockNameSizeStart)),
		},
		FreeBlocks: getBlock(p, superblockFreeBlocksStart),
		FreeInodes: getIno(p, superblockFreeInodesStart),
		Layout: Layout{
			InodeBitmapStart: getBlock(p, superblockInodeBitmapStart),
			BlockBitmapStart: getBlock(p, superblockBlockBitmapStart),
			InodeTableStart:  getBlock(p, superblockInodeTableStart),
			FirstDataBlock:   getBlock(p, superblockFirstDataBlockStart),
		},
		RootIno: getIno(p, superblockRootInoStart),
		Created: getTimestamp(p, superblockCreatedStart),
	}
	copy(sb.VolumeID[:], p[superblockVolumeIDStart:superblockVolumeIDEnd])
	if sb.Version != SuperblockVersion {
		return fmt.Errorf(
			"decoding superblock: unsupported version `%d`: %w",
			sb.Version,
			CorruptImageErr,
		)
	}
	return nil
}

const (
	superblockMagicStart = 0
	superblockMagicSize  = 4
	superblockMagicEnd   = superblockMagicStart + superblockMagicSize

	superblockVersionStart = superblockMagicEnd
	superblockVersionSize  = 4
	superblockVersionEnd   = superblockVersionStart + superblockVersionSize

	superblockBlockCountStart = superblockVersionEnd
	superblockBlockCountSize  = 4
	superblockBlockCountEnd   = superblockBlockCountStart + superblockBlockCountSize

	superblockInodeCountStart = superblockBlockCountEnd
	superblockInodeCountSize  = 4
	superblockInodeCountEnd   = superblockInodeCountStart + superblockInodeCountSize

	superblockBlockSizeStart = superblockInodeCountEnd
	superblockBlockSizeSize  = 4
	superblockBlockSizeEnd   = superblockBlockSizeStart + superblockBlockSizeSize

	superblockFreeBlocksStart = superblockBlockSizeEnd
	superblockFreeBlocksSize  = 4
	superblockFreeBlocksEnd   = superblockFreeBlocksStart + superblockFreeBlocksSize

	superblockFreeInodesStart = superblockFreeBlocksEnd
	superblockFreeInodesSize  = 4
	superblockFreeInodesEnd   = superblockFreeInodesStart + superblockFreeInodesSize

	superblockInodeBitmapStart = superblockFreeInodesEnd
	superblockInodeBitmapSize  = 4
	superblockInodeBitmapEnd   = superblockInodeBitmapStart + superblockInodeBitmapSize

	superblockBlockBitmapStart = superblockInodeBitmapEnd
	superblockBlockBitmapSize  = 4
	superblockBlockBitmapEnd   = superblockBlockBitmapStart + superblockBlockBitmapSize

	superblockInodeTableStart = superblockBlockBitmapEnd
	superblockInodeTableSize  = 4
	superblockInodeTableEnd   = superblockInodeTableStart + superblockInodeTableSize

	superblockFirstDataBlockStart = superblockInodeTableEnd
	superblockFirstDataBlockSize  = 4
	superblockFirstDataBlockEnd   = superblockFirstDataBlockStart + superblockFirstDataBlockSize

	superblockRootInoStart = superblockFirstDataBlockEnd
	superblockRootInoSize  = 4
	superblockRootInoEnd   = superblockRootInoStart + superblockRootInoSize

	superblockDirectPointersStart = superblockRootInoEnd
	superblockDirectPointersSize  = 4
	superblockDirectPointersEnd   = superblockDirectPointersStart + superblockDirectPointersSize

	superblockNameSizeStart = superblockDirectPointersEnd
	superblockNameSizeSize  = 4
	superblockNameSizeEnd   = superblockNameSizeStart + superblockNameSizeSize

	superblockCreatedStart = superblockNameSizeEnd
	superblockCreatedSize  = 8
	superblockCreatedEnd   = superblockCreatedStart + superblockCreatedSize

	superblockVolumeIDStart = superblockCreatedEnd
	superblockVolumeIDSize  = 16
	superblockVolumeIDEnd   = superblockVolumeIDStart + superblockVolumeIDSize
)

// the encoded superblock must exactly fill `SuperblockSize`
var _ = [1]struct{}{}[superblockVolumeIDEnd-SuperblockSize]
