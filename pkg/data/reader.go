package data

import (
	"fmt"

	"github.com/weberc2/sfs/pkg/image"
	"github.com/weberc2/sfs/pkg/math"
	. "github.com/weberc2/sfs/pkg/types"
)

// Read returns up to `max` bytes of the inode's content by walking its direct
// pointers in order. It stops at the first empty pointer and copies only the
// valid prefix of each block. The access time is set to `now`.
func Read(img *image.Image, ino Ino, max Byte, now Timestamp) ([]byte, error) {
	inode, err := img.Inode(ino)
	if err != nil {
		return nil, fmt.Errorf("reading inode `%d`: %w", ino, err)
	}

	want := math.Max(math.Min(max, inode.Size), 0)
	out := make([]byte, 0, want)
	for _, b := range inode.DirectBlocks {
		if Byte(len(out)) >= want || b == BlockNil {
			break
		}
		block, err := img.Block(b)
		if err != nil {
			return nil, fmt.Errorf(
				"reading up to `%d` bytes from inode `%d`: %w",
				max,
				ino,
				err,
			)
		}
		chunk := math.Min(want-Byte(len(out)), block.BytesUsed)
		out = append(out, block.Data[:chunk]...)
	}

	inode.ATime = now
	return out, nil
}

// ReadAll reads the inode's whole logical content.
func ReadAll(img *image.Image, ino Ino, now Timestamp) ([]byte, error) {
	inode, err := img.Inode(ino)
	if err != nil {
		return nil, fmt.Errorf("reading inode `%d`: %w", ino, err)
	}
	return Read(img, ino, inode.Size, now)
}
