package encode

import (
	"fmt"

	"github.com/weberc2/sfs/pkg/image"
	. "github.com/weberc2/sfs/pkg/types"
)

// EncodeImage serializes the whole image into one blob of
// `BlockCount * BlockSize` bytes. Every region starts at the block offset
// recorded in the superblock.
func EncodeImage(img *image.Image) []byte {
	sb := &img.Superblock
	g := &sb.Geometry
	out := make([]byte, g.ImageSize())

	EncodeSuperblock(sb, (*[SuperblockSize]byte)(out[:SuperblockSize]))
	copy(out[blockOffset(g, sb.Layout.InodeBitmapStart):], img.InodeBitmap.Bytes())
	copy(out[blockOffset(g, sb.Layout.BlockBitmapStart):], img.BlockBitmap.Bytes())

	inodeSize := g.InodeSize()
	table := blockOffset(g, sb.Layout.InodeTableStart)
	for i := range img.Inodes.Inodes {
		start := table + Byte(i)*inodeSize
		EncodeInode(&img.Inodes.Inodes[i], out[start:start+inodeSize])
	}

	for b := sb.Layout.FirstDataBlock; b < g.BlockCount; b++ {
		start := blockOffset(g, b)
		EncodeBlock(&img.Blocks.Blocks[b], out[start:start+g.BlockSize])
	}
	return out
}

// DecodeImage parses a blob produced by `EncodeImage` into a new image. It
// validates the signature before anything else and never mutates state other
// than the returned image.
func DecodeImage(data []byte) (*image.Image, error) {
	magic, err := DecodeMagic(data)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	if magic != SuperblockMagic {
		return nil, fmt.Errorf(
			"decoding image: bad magic `%#x`: %w",
			magic,
			CorruptImageErr,
		)
	}
	if Byte(len(data)) < SuperblockSize {
		return nil, fmt.Errorf(
			"decoding image: truncated superblock: %w",
			CorruptImageErr,
		)
	}

	var sb Superblock
	if err := DecodeSuperblock(
		&sb,
		(*[SuperblockSize]byte)(data[:SuperblockSize]),
	); err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	g := sb.Geometry
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("decoding image: %w: %w", CorruptImageErr, err)
	}
	if layout := g.Layout(); layout != sb.Layout {
		return nil, fmt.Errorf(
			"decoding image: layout `%+v` does not match geometry (`%+v`): %w",
			sb.Layout,
			layout,
			CorruptImageErr,
		)
	}
	if size := Byte(len(data)); size != g.ImageSize() {
		return nil, fmt.Errorf(
			"decoding image: wanted `%d` bytes; found `%d`: %w",
			g.ImageSize(),
			size,
			CorruptImageErr,
		)
	}

	img, err := image.Empty(g)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	img.Superblock = sb

	start := blockOffset(&g, sb.Layout.InodeBitmapStart)
	copy(img.InodeBitmap.Bytes(), data[start:start+Byte(g.InodeCount)])
	start = blockOffset(&g, sb.Layout.BlockBitmapStart)
	copy(img.BlockBitmap.Bytes(), data[start:start+Byte(g.BlockCount)])

	inodeSize := g.InodeSize()
	table := blockOffset(&g, sb.Layout.InodeTableStart)
	for i := range img.Inodes.Inodes {
		start := table + Byte(i)*inodeSize
		if err := DecodeInode(
			&img.Inodes.Inodes[i],
			data[start:start+inodeSize],
		); err != nil {
			return nil, fmt.Errorf("decoding image: inode `%d`: %w", i, err)
		}
	}

	for b := sb.Layout.FirstDataBlock; b < g.BlockCount; b++ {
		start := blockOffset(&g, b)
		if err := DecodeBlock(
			&img.Blocks.Blocks[b],
			data[start:start+g.BlockSize],
		); err != nil {
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}
	return img, nil
}

func blockOffset(g *Geometry, b Block) Byte { return Byte(b) * g.BlockSize }
