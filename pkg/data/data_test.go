package data

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/weberc2/sfs/pkg/image"
	. "github.com/weberc2/sfs/pkg/types"
)

func newFile(t *testing.T, g Geometry) (*image.Image, Ino) {
	img, err := image.New(g, 0, uuid.Nil)
	require.NoError(t, err)
	ino, err := img.AllocInode(0)
	require.NoError(t, err)
	inode, err := img.Inode(ino)
	require.NoError(t, err)
	inode.FileType = FileTypeRegular
	return img, ino
}

func TestWriteRead(t *testing.T) {
	for _, tc := range []struct {
		name         string
		size         int
		wantedBlocks Block
	}{
		{name: "empty", size: 0, wantedBlocks: 0},
		{name: "one-byte", size: 1, wantedBlocks: 1},
		{name: "one-block", size: 500, wantedBlocks: 1},
		{name: "spills", size: 501, wantedBlocks: 2},
		{name: "max", size: 5000, wantedBlocks: 10},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require := require.New(t)
			img, ino := newFile(t, DefaultGeometry())
			free := img.Superblock.FreeBlocks

			p := bytes.Repeat([]byte("abcdefg"), tc.size/7+1)[:tc.size]
			n, err := Write(img, ino, p, 10)
			require.NoError(err)
			require.Equal(Byte(tc.size), n)

			inode, err := img.Inode(ino)
			require.NoError(err)
			require.Equal(Byte(tc.size), inode.Size)
			require.Equal(tc.wantedBlocks, inode.BlockCount)
			require.Equal(Timestamp(10), inode.MTime)
			require.Equal(free-tc.wantedBlocks, img.Superblock.FreeBlocks)

			found, err := ReadAll(img, ino, 20)
			require.NoError(err)
			require.Equal(p, found)
			require.Equal(Timestamp(20), inode.ATime)
			require.NoError(img.Check())
		})
	}
}

func TestReadMax(t *testing.T) {
	img, ino := newFile(t, DefaultGeometry())
	p := bytes.Repeat([]byte{'z'}, 1200)
	_, err := Write(img, ino, p, 0)
	require.NoError(t, err)

	found, err := Read(img, ino, 700, 0)
	require.NoError(t, err)
	require.Equal(t, p[:700], found)

	found, err = Read(img, ino, 99999, 0)
	require.NoError(t, err)
	require.Equal(t, p, found)
}

func TestWriteReplacesContent(t *testing.T) {
	require := require.New(t)
	img, ino := newFile(t, DefaultGeometry())
	free := img.Superblock.FreeBlocks

	_, err := Write(img, ino, bytes.Repeat([]byte{'a'}, 2000), 0)
	require.NoError(err)
	_, err = Write(img, ino, []byte("short"), 0)
	require.NoError(err)

	found, err := ReadAll(img, ino, 0)
	require.NoError(err)
	require.Equal([]byte("short"), found)
	require.Equal(free-1, img.Superblock.FreeBlocks)
	require.NoError(img.Check())
}

func TestWriteTooLarge(t *testing.T) {
	require := require.New(t)
	img, ino := newFile(t, DefaultGeometry())
	_, err := Write(img, ino, []byte("keep me"), 0)
	require.NoError(err)
	free := img.Superblock.FreeBlocks

	g := img.Geometry()
	_, err = Write(img, ino, make([]byte, g.MaxFileSize()+1), 0)
	require.ErrorIs(err, FileTooLargeErr)

	found, err := ReadAll(img, ino, 0)
	require.NoError(err)
	require.Equal([]byte("keep me"), found)
	require.Equal(free, img.Superblock.FreeBlocks)
}

func TestWriteOutOfBlocksLeavesStateUntouched(t *testing.T) {
	require := require.New(t)
	g := DefaultGeometry()
	g.BlockCount = 64
	g.BlockCount = g.Layout().FirstDataBlock + 3
	img, ino := newFile(t, g)

	_, err := Write(img, ino, []byte("original"), 0)
	require.NoError(err)
	free := img.Superblock.FreeBlocks
	require.Equal(Block(2), free)

	// one held block plus two free blocks cannot hold four blocks
	_, err = Write(img, ino, make([]byte, 4*g.UsableBlockSize()), 0)
	require.ErrorIs(err, OutOfBlocksErr)

	found, err := ReadAll(img, ino, 0)
	require.NoError(err)
	require.Equal([]byte("original"), found)
	require.Equal(free, img.Superblock.FreeBlocks)
	require.NoError(img.Check())

	// ...but can hold three by reusing the held block
	_, err = Write(img, ino, make([]byte, 3*g.UsableBlockSize()), 0)
	require.NoError(err)
	require.Equal(Block(0), img.Superblock.FreeBlocks)
	require.NoError(img.Check())
}

func TestReadInvalidInode(t *testing.T) {
	img, _ := newFile(t, DefaultGeometry())
	for _, ino := range []Ino{InoNil, 5, 100000} {
		_, err := Read(img, ino, 10, 0)
		require.ErrorIs(t, err, InvalidInodeErr)
	}
}

func TestTruncate(t *testing.T) {
	img, ino := newFile(t, DefaultGeometry())
	free := img.Superblock.FreeBlocks
	_, err := Write(img, ino, make([]byte, 1500), 0)
	require.NoError(t, err)

	require.NoError(t, Truncate(img, ino, 3))
	require.Equal(t, free, img.Superblock.FreeBlocks)
	require.NoError(t, img.Check())
}
