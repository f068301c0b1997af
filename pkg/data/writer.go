package data

import (
	"fmt"

	"github.com/weberc2/sfs/pkg/image"
	"github.com/weberc2/sfs/pkg/math"
	. "github.com/weberc2/sfs/pkg/types"
)

// Write replaces the inode's whole content with `p`. The write either
// succeeds or leaves the inode and the allocator untouched: capacity and free
// space are checked before any block is released.
func Write(img *image.Image, ino Ino, p []byte, now Timestamp) (Byte, error) {
	inode, err := img.Inode(ino)
	if err != nil {
		return 0, fmt.Errorf("writing inode `%d`: %w", ino, err)
	}

	g := img.Geometry()
	size := Byte(len(p))
	needed := Block(math.DivRoundUp(size, g.UsableBlockSize()))
	if needed > Block(len(inode.DirectBlocks)) {
		return 0, fmt.Errorf(
			"writing `%d` bytes to inode `%d`: needs `%d` blocks; max `%d`: %w",
			size,
			ino,
			needed,
			len(inode.DirectBlocks),
			FileTooLargeErr,
		)
	}

	held := heldBlocks(inode)
	if available := img.Superblock.FreeBlocks + held; needed > available {
		return 0, fmt.Errorf(
			"writing `%d` bytes to inode `%d`: needs `%d` blocks; `%d` "+
				"available: %w",
			size,
			ino,
			needed,
			available,
			OutOfBlocksErr,
		)
	}

	release(img, inode)

	var written Byte
	for i := Block(0); i < needed; i++ {
		b, err := img.AllocBlock()
		if err != nil {
			// Only reachable if the free counter disagrees with the bitmap.
			release(img, inode)
			inode.Size = 0
			inode.MTime = now
			return 0, fmt.Errorf(
				"writing `%d` bytes to inode `%d`: allocating block `%d` of "+
					"`%d`: %w",
				size,
				ino,
				i,
				needed,
				err,
			)
		}
		inode.DirectBlocks[i] = b
		inode.BlockCount++

		n, err := img.Blocks.Fill(b, p[written:])
		if err != nil {
			release(img, inode)
			inode.Size = 0
			return 0, fmt.Errorf("writing inode `%d`: %w", ino, err)
		}
		written += n
	}

	inode.Size = written
	inode.MTime = now
	return written, nil
}

// Truncate releases every block the inode holds and sets its size to zero.
func Truncate(img *image.Image, ino Ino, now Timestamp) error {
	inode, err := img.Inode(ino)
	if err != nil {
		return fmt.Errorf("truncating inode `%d`: %w", ino, err)
	}
	release(img, inode)
	inode.Size = 0
	inode.MTime = now
	return nil
}

func heldBlocks(inode *Inode) Block {
	var n Block
	for _, b := range inode.DirectBlocks {
		if b != BlockNil {
			n++
		}
	}
	return n
}

func release(img *image.Image, inode *Inode) {
	for i, b := range inode.DirectBlocks {
		if b != BlockNil {
			img.FreeBlock(b)
			inode.DirectBlocks[i] = BlockNil
		}
	}
	inode.BlockCount = 0
}
