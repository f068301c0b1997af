package blockstore

import (
	"bytes"
	"errors"
	"testing"

	. "github.com/weberc2/sfs/pkg/types"
)

func TestStoreFill(t *testing.T) {
	g := DefaultGeometry()
	s := New(&g)
	first := g.Layout().FirstDataBlock

	if err := s.Claim(first); err != nil {
		t.Fatalf("Store.Claim(): unexpected err: %v", err)
	}

	data := bytes.Repeat([]byte{'x'}, 600)
	n, err := s.Fill(first, data)
	if err != nil {
		t.Fatalf("Store.Fill(): unexpected err: %v", err)
	}
	if n != 500 {
		t.Fatalf("Store.Fill(): wanted `500`; found `%d`", n)
	}

	block, err := s.Get(first)
	if err != nil {
		t.Fatalf("Store.Get(): unexpected err: %v", err)
	}
	if !block.InUse || block.Number != first {
		t.Fatalf("wanted in-use block `%d`; found `%+v`", first, block.Number)
	}
	if !bytes.Equal(block.Payload(), data[:500]) {
		t.Fatal("Store.Fill(): payload mismatch")
	}

	s.Zero(first)
	if block.InUse || block.BytesUsed != 0 || block.Data[0] != 0 {
		t.Fatal("Store.Zero(): block not wiped")
	}
}

func TestStoreRejectsMetadataBlocks(t *testing.T) {
	g := DefaultGeometry()
	s := New(&g)
	for _, b := range []Block{0, g.Layout().FirstDataBlock - 1, g.BlockCount} {
		if _, err := s.Get(b); !errors.Is(err, InvalidBlockErr) {
			t.Fatalf("Store.Get(%d): wanted `%v`; found `%v`", b, InvalidBlockErr, err)
		}
	}
}
