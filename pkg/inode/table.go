package inode

import (
	"fmt"

	. "github.com/weberc2/sfs/pkg/types"
)

// Table is the fixed array of inode records indexed by ino. Slot 0 exists but
// is never valid.
type Table struct {
	Inodes []Inode
}

func NewTable(g *Geometry) Table {
	inodes := make([]Inode, g.InodeCount)
	pointers := make([]Block, int(g.InodeCount)*int(g.DirectPointers))
	for i := range inodes {
		off := i * int(g.DirectPointers)
		inodes[i].Ino = Ino(i)
		inodes[i].DirectBlocks = pointers[off : off+int(g.DirectPointers) : off+int(g.DirectPointers)]
	}
	return Table{Inodes: inodes}
}

func (t *Table) Get(ino Ino) (*Inode, error) {
	if ino == InoNil || int(ino) >= len(t.Inodes) {
		return nil, fmt.Errorf("fetching inode `%d`: %w", ino, InvalidInodeErr)
	}
	return &t.Inodes[ino], nil
}

// Init zero-initializes the record and stamps all three timestamps.
func (t *Table) Init(ino Ino, now Timestamp) error {
	inode, err := t.Get(ino)
	if err != nil {
		return fmt.Errorf("initializing inode: %w", err)
	}
	inode.Reset()
	inode.Ino = ino
	inode.CTime = now
	inode.MTime = now
	inode.ATime = now
	return nil
}

func (t *Table) Zero(ino Ino) {
	if inode, err := t.Get(ino); err == nil {
		inode.Reset()
		inode.Ino = ino
	}
}
