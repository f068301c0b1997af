package types

import (
	"fmt"
	"strconv"
)

type Ino uint32

const (
	InoNil  Ino = 0
	InoRoot Ino = 1

	// InodeHeaderSize is the fixed part of an encoded inode; the direct
	// pointers follow it.
	InodeHeaderSize Byte = 40
)

type Inode struct {
	Ino          Ino       `json:"ino"`
	FileType     FileType  `json:"fileType"`
	Mode         Mode      `json:"mode"`
	Size         Byte      `json:"size"`
	BlockCount   Block     `json:"blockCount"`
	CTime        Timestamp `json:"ctime"`
	MTime        Timestamp `json:"mtime"`
	ATime        Timestamp `json:"atime"`
	DirectBlocks []Block   `json:"directBlocks"`
}

// Reset zeroes the inode in place while keeping its pointer slice.
func (inode *Inode) Reset() {
	blocks := inode.DirectBlocks
	for i := range blocks {
		blocks[i] = BlockNil
	}
	*inode = Inode{DirectBlocks: blocks}
}

func (inode *Inode) IsDir() bool { return inode.FileType == FileTypeDir }

type Mode uint16

const (
	ModeRegular Mode = 0644
	ModeDir     Mode = 0755
)

func (m Mode) String() string { return fmt.Sprintf("%04o", uint16(m)) }

func (m Mode) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

type FileType uint8

const (
	FileTypeInvalid FileType = iota
	FileTypeRegular
	FileTypeDir
)

func (ft FileType) String() string {
	switch ft {
	case FileTypeInvalid:
		return "Invalid"
	case FileTypeRegular:
		return "Regular"
	case FileTypeDir:
		return "Dir"
	default:
		return fmt.Sprintf("FileType(%d)", uint8(ft))
	}
}

func (ft FileType) MarshalJSON() ([]byte, error) {
	s := ft.String()
	out := make([]byte, len(s)+2)
	out[0] = '"'
	out[len(out)-1] = '"'
	copy(out[1:], s)
	return out, nil
}

func (ft FileType) Validate() error {
	if ft <= FileTypeInvalid || ft > FileTypeDir {
		return fmt.Errorf(
			"validating file type `%d`: %w",
			ft,
			InvalidFileTypeErr,
		)
	}
	return nil
}
