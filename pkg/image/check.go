package image

import (
	"errors"
	"fmt"

	"github.com/weberc2/sfs/pkg/math"
	. "github.com/weberc2/sfs/pkg/types"
)

// Check validates the allocation invariants of the image: counters match the
// bitmaps, every allocated inode's pointers are well formed, and every
// allocated data block is referenced by exactly one inode. Every violation is
// reported; the returned error wraps `CorruptImageErr`.
func (img *Image) Check() error {
	var errs []error
	report := func(format string, v ...interface{}) {
		errs = append(errs, fmt.Errorf(format, v...))
	}

	sb := &img.Superblock
	if sb.Magic != SuperblockMagic {
		report("superblock magic `%#x` is not `%#x`", sb.Magic, SuperblockMagic)
	}
	if zeros := Ino(img.InodeBitmap.Zeros()); zeros != sb.FreeInodes {
		report(
			"superblock counts `%d` free inodes; bitmap has `%d`",
			sb.FreeInodes,
			zeros,
		)
	}
	if zeros := Block(img.BlockBitmap.Zeros()); zeros != sb.FreeBlocks {
		report(
			"superblock counts `%d` free blocks; bitmap has `%d`",
			sb.FreeBlocks,
			zeros,
		)
	}
	if !img.InodeBitmap.IsSet(uint64(InoNil)) {
		report("reserved inode `0` is marked free")
	}
	for b := Block(0); b < sb.Layout.FirstDataBlock; b++ {
		if !img.BlockBitmap.IsSet(uint64(b)) {
			report("metadata block `%d` is marked free", b)
		}
	}

	owners := make(map[Block]Ino)
	usable := sb.Geometry.UsableBlockSize()
	for i := range img.Inodes.Inodes {
		ino := Ino(i)
		if ino == InoNil || !img.InodeBitmap.IsSet(uint64(ino)) {
			continue
		}
		inode := &img.Inodes.Inodes[i]
		if err := inode.FileType.Validate(); err != nil {
			report("inode `%d`: %v", ino, err)
		}

		var attached Block
		var payload Byte
		ended := false
		for slot, b := range inode.DirectBlocks {
			if b == BlockNil {
				ended = true
				continue
			}
			if ended {
				report("inode `%d`: pointer slot `%d` follows an empty slot", ino, slot)
			}
			attached++
			block, err := img.Blocks.Get(b)
			if err != nil {
				report("inode `%d`: slot `%d`: %v", ino, slot, err)
				continue
			}
			if !img.BlockBitmap.IsSet(uint64(b)) {
				report("inode `%d`: slot `%d` points at free block `%d`", ino, slot, b)
			}
			if owner, found := owners[b]; found {
				report("block `%d` is referenced by inodes `%d` and `%d`", b, owner, ino)
			}
			owners[b] = ino
			payload += block.BytesUsed
		}

		if attached != inode.BlockCount {
			report(
				"inode `%d`: block count is `%d`; `%d` blocks attached",
				ino,
				inode.BlockCount,
				attached,
			)
		}
		if wanted := Block(math.DivRoundUp(inode.Size, usable)); wanted != attached {
			report(
				"inode `%d`: size `%d` needs `%d` blocks; `%d` attached",
				ino,
				inode.Size,
				wanted,
				attached,
			)
		}
		if payload != inode.Size {
			report(
				"inode `%d`: size is `%d`; blocks hold `%d` bytes",
				ino,
				inode.Size,
				payload,
			)
		}
	}

	for b := sb.Layout.FirstDataBlock; b < sb.Geometry.BlockCount; b++ {
		if _, found := owners[b]; img.BlockBitmap.IsSet(uint64(b)) && !found {
			report("block `%d` is allocated but unreferenced", b)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(
			"checking image: %w: %w",
			CorruptImageErr,
			errors.Join(errs...),
		)
	}
	return nil
}
