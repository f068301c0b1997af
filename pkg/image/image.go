package image

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/weberc2/sfs/pkg/alloc"
	"github.com/weberc2/sfs/pkg/blockstore"
	"github.com/weberc2/sfs/pkg/inode"
	. "github.com/weberc2/sfs/pkg/types"
)

// Image is the unit of persistence: superblock, both bitmaps, the inode table
// and the block store.
type Image struct {
	Superblock  Superblock
	InodeBitmap alloc.Bitmap
	BlockBitmap alloc.Bitmap
	Inodes      inode.Table
	Blocks      blockstore.Store
}

// New returns an empty image for `g` with inode 0 and the metadata blocks
// reserved. The root directory is not created.
func New(g Geometry, created Timestamp, id uuid.UUID) (*Image, error) {
	img, err := Empty(g)
	if err != nil {
		return nil, err
	}
	img.Superblock = NewSuperblock(g, created, id)
	img.InodeBitmap.Reserve(uint64(InoNil))
	for b := Block(0); b < img.Superblock.Layout.FirstDataBlock; b++ {
		img.BlockBitmap.Reserve(uint64(b))
	}
	return img, nil
}

// Empty allocates the in-memory structures for `g` without reserving
// anything. Decoding fills them in.
func Empty(g Geometry) (*Image, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("creating image: %w", err)
	}
	return &Image{
		Superblock:  Superblock{Geometry: g, Layout: g.Layout()},
		InodeBitmap: alloc.New(int(g.InodeCount)),
		BlockBitmap: alloc.New(int(g.BlockCount)),
		Inodes:      inode.NewTable(&g),
		Blocks:      blockstore.New(&g),
	}, nil
}

func (img *Image) Geometry() *Geometry { return &img.Superblock.Geometry }

func (img *Image) inos() alloc.InoAllocator {
	return alloc.InoAllocator{Allocator: img.InodeBitmap}
}

func (img *Image) blocks() alloc.BlockAllocator {
	return alloc.BlockAllocator{
		Allocator: img.BlockBitmap,
		First:     img.Superblock.Layout.FirstDataBlock,
	}
}

// AllocInode claims the lowest free ino and initializes its record.
func (img *Image) AllocInode(now Timestamp) (Ino, error) {
	ino, ok := img.inos().Alloc()
	if !ok {
		return InoNil, OutOfInodesErr
	}
	img.Superblock.FreeInodes--
	if err := img.Inodes.Init(ino, now); err != nil {
		return InoNil, fmt.Errorf("allocating inode: %w", err)
	}
	return ino, nil
}

// FreeInode is idempotent: freeing ino 0, an out-of-range ino or a free ino
// does nothing.
func (img *Image) FreeInode(ino Ino) {
	if int(ino) >= img.InodeBitmap.Len() {
		return
	}
	if img.inos().Free(ino) {
		img.Superblock.FreeInodes++
		img.Inodes.Zero(ino)
	}
}

func (img *Image) AllocBlock() (Block, error) {
	b, ok := img.blocks().Alloc()
	if !ok {
		return BlockNil, OutOfBlocksErr
	}
	img.Superblock.FreeBlocks--
	if err := img.Blocks.Claim(b); err != nil {
		return BlockNil, fmt.Errorf("allocating block: %w", err)
	}
	return b, nil
}

// FreeBlock is idempotent and ignores blocks outside the data region.
func (img *Image) FreeBlock(b Block) {
	if img.blocks().Free(b) {
		img.Superblock.FreeBlocks++
		img.Blocks.Zero(b)
	}
}

// Inode returns the record for an allocated ino.
func (img *Image) Inode(ino Ino) (*Inode, error) {
	if !img.InodeBitmap.IsSet(uint64(ino)) || ino == InoNil {
		return nil, fmt.Errorf("fetching inode `%d`: %w", ino, InvalidInodeErr)
	}
	return img.Inodes.Get(ino)
}

func (img *Image) Block(b Block) (*DataBlock, error) {
	return img.Blocks.Get(b)
}

func (img *Image) UsedBlocks() Block {
	return img.Superblock.Geometry.BlockCount - img.Superblock.FreeBlocks
}

func (img *Image) UsedInodes() Ino {
	return img.Superblock.Geometry.InodeCount - img.Superblock.FreeInodes
}
