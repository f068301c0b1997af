package types

import (
	"fmt"
	stdmath "math"

	"github.com/google/uuid"
	"github.com/weberc2/sfs/pkg/math"
)

const (
	SuperblockMagic   uint32 = 0xED123456
	SuperblockVersion uint32 = 1
	SuperblockSize    Byte   = 80

	DefaultBlockSize      Byte   = 512
	DefaultBlockCount     Block  = 2048
	DefaultInodeCount     Ino    = 256
	DefaultDirectPointers uint32 = 10
	DefaultNameSize       Byte   = 64
)

// Geometry holds the format-compatibility constants of an image. Changing any
// of them changes the on-disk layout.
type Geometry struct {
	BlockSize      Byte   `json:"blockSize"`
	BlockCount     Block  `json:"blockCount"`
	InodeCount     Ino    `json:"inodeCount"`
	DirectPointers uint32 `json:"directPointers"`
	NameSize       Byte   `json:"nameSize"`
}

func DefaultGeometry() Geometry {
	return Geometry{
		BlockSize:      DefaultBlockSize,
		BlockCount:     DefaultBlockCount,
		InodeCount:     DefaultInodeCount,
		DirectPointers: DefaultDirectPointers,
		NameSize:       DefaultNameSize,
	}
}

// UsableBlockSize is the payload capacity of one data block.
func (g *Geometry) UsableBlockSize() Byte { return g.BlockSize - BlockHeaderSize }

func (g *Geometry) MaxFileSize() Byte {
	return Byte(g.DirectPointers) * g.UsableBlockSize()
}

// MaxNameLen leaves room for the terminating NUL in the name buffer.
func (g *Geometry) MaxNameLen() int { return int(g.NameSize) - 1 }

func (g *Geometry) InodeSize() Byte {
	return math.AlignUp(
		InodeHeaderSize+Byte(g.DirectPointers)*BlockPointerSize,
		8,
	)
}

func (g *Geometry) DirEntrySize() Byte { return DirEntryHeaderSize + g.NameSize }

func (g *Geometry) ImageSize() Byte { return Byte(g.BlockCount) * g.BlockSize }

func (g *Geometry) blocksFor(size Byte) Block {
	return Block(math.DivRoundUp(size, g.BlockSize))
}

// Layout computes the block offset of every metadata region. Block 0 always
// holds the superblock.
func (g *Geometry) Layout() Layout {
	var l Layout
	l.InodeBitmapStart = 1
	l.BlockBitmapStart = l.InodeBitmapStart + g.blocksFor(Byte(g.InodeCount))
	l.InodeTableStart = l.BlockBitmapStart + g.blocksFor(Byte(g.BlockCount))
	l.FirstDataBlock = l.InodeTableStart + g.blocksFor(
		Byte(g.InodeCount)*g.InodeSize(),
	)
	return l
}

func (g *Geometry) Validate() error {
	if msg := g.validate(); msg != "" {
		return fmt.Errorf(
			"validating geometry `%+v`: %s: %w",
			*g,
			msg,
			InvalidGeometryErr,
		)
	}
	return nil
}

func (g *Geometry) validate() string {
	if g.BlockSize < SuperblockSize {
		return "block size smaller than the superblock"
	}
	if g.BlockSize > stdmath.MaxUint32 {
		return "block size exceeds 32 bits"
	}
	if g.UsableBlockSize() < g.DirEntrySize() {
		return "block cannot hold a directory entry"
	}
	if g.InodeCount < 2 {
		return "need at least one inode besides the reserved slot"
	}
	if g.DirectPointers < 1 {
		return "need at least one direct pointer"
	}
	if g.NameSize < Byte(len(DotDotName))+1 || g.NameSize > stdmath.MaxUint16 {
		return "name size out of range"
	}
	if g.MaxFileSize() < 2*g.DirEntrySize() {
		return "directories cannot hold their self and parent entries"
	}
	if g.Layout().FirstDataBlock >= g.BlockCount {
		return "metadata leaves no data blocks"
	}
	return ""
}

type Layout struct {
	InodeBitmapStart Block `json:"inodeBitmapStart"`
	BlockBitmapStart Block `json:"blockBitmapStart"`
	InodeTableStart  Block `json:"inodeTableStart"`
	FirstDataBlock   Block `json:"firstDataBlock"`
}

type Superblock struct {
	Magic      uint32    `json:"magic"`
	Version    uint32    `json:"version"`
	Geometry   Geometry  `json:"geometry"`
	FreeBlocks Block     `json:"freeBlocks"`
	FreeInodes Ino       `json:"freeInodes"`
	Layout     Layout    `json:"layout"`
	RootIno    Ino       `json:"rootIno"`
	Created    Timestamp `json:"created"`
	VolumeID   uuid.UUID `json:"volumeID"`
}

// NewSuperblock returns the superblock of a freshly formatted image before
// any inode is allocated: inode 0 and the metadata blocks are already
// counted as used.
func NewSuperblock(g Geometry, created Timestamp, id uuid.UUID) Superblock {
	layout := g.Layout()
	return Superblock{
		Magic:      SuperblockMagic,
		Version:    SuperblockVersion,
		Geometry:   g,
		FreeBlocks: g.BlockCount - layout.FirstDataBlock,
		FreeInodes: g.InodeCount - 1,
		Layout:     layout,
		RootIno:    InoNil,
		Created:    created,
		VolumeID:   id,
	}
}
