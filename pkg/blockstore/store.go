package blockstore

import (
	"fmt"

	"github.com/weberc2/sfs/pkg/math"
	. "github.com/weberc2/sfs/pkg/types"
)

// Store is the fixed array of data blocks. Blocks before `First` are the
// metadata region and can never be addressed.
type Store struct {
	Blocks []DataBlock
	First  Block
	Usable Byte
}

func New(g *Geometry) Store {
	blocks := make([]DataBlock, g.BlockCount)
	usable := g.UsableBlockSize()
	first := g.Layout().FirstDataBlock
	backing := make([]byte, Byte(g.BlockCount-first)*usable)
	for i := first; i < g.BlockCount; i++ {
		off := Byte(i-first) * usable
		blocks[i].Data = backing[off : off+usable : off+usable]
	}
	return Store{Blocks: blocks, First: first, Usable: usable}
}

func (s *Store) Valid(b Block) bool {
	return b >= s.First && int(b) < len(s.Blocks)
}

func (s *Store) Get(b Block) (*DataBlock, error) {
	if !s.Valid(b) {
		return nil, fmt.Errorf("fetching block `%d`: %w", b, InvalidBlockErr)
	}
	return &s.Blocks[b], nil
}

// Claim resets the block as freshly allocated.
func (s *Store) Claim(b Block) error {
	block, err := s.Get(b)
	if err != nil {
		return fmt.Errorf("claiming block: %w", err)
	}
	clear(block.Data)
	block.Number = b
	block.InUse = true
	block.BytesUsed = 0
	return nil
}

// Zero wipes the block, including its header.
func (s *Store) Zero(b Block) {
	if !s.Valid(b) {
		return
	}
	block := &s.Blocks[b]
	clear(block.Data)
	block.Number = 0
	block.InUse = false
	block.BytesUsed = 0
}

// Fill copies as much of `p` as fits into the block and returns the number of
// bytes copied.
func (s *Store) Fill(b Block, p []byte) (Byte, error) {
	block, err := s.Get(b)
	if err != nil {
		return 0, fmt.Errorf("filling block: %w", err)
	}
	n := math.Min(Byte(len(p)), s.Usable)
	copy(block.Data, p[:n])
	clear(block.Data[n:])
	block.BytesUsed = n
	return n, nil
}
