package encode

import (
	"bytes"
	"fmt"

	. "github.com/weberc2/sfs/pkg/types"
)

// EncodeDirEntry writes `entry` into `p`, which must be
// `DirEntryHeaderSize + nameSize` bytes long. The name is NUL padded and must
// leave room for at least one NUL.
func EncodeDirEntry(entry *DirEntry, nameSize Byte, p []byte) error {
	if Byte(len(entry.Name)) >= nameSize {
		return fmt.Errorf(
			"encoding dir entry `%s`: `%d` bytes exceeds `%d`: %w",
			entry.Name,
			len(entry.Name),
			nameSize-1,
			NameTooLongErr,
		)
	}
	clear(p[:DirEntryHeaderSize+nameSize])
	putIno(p, dirEntryInoStart, entry.Ino)
	putU16(p, dirEntryNameLenStart, uint16(len(entry.Name)))
	putU8(p, dirEntryFileTypeStart, uint8(entry.FileType))
	copy(p[DirEntryHeaderSize:], entry.Name)
	return nil
}

func DecodeDirEntry(entry *DirEntry, nameSize Byte, p []byte) error {
	nameLen := Byte(getU16(p, dirEntryNameLenStart))
	if nameLen >= nameSize {
		return fmt.Errorf(
			"decoding dir entry: name length `%d` exceeds `%d`: %w",
			nameLen,
			nameSize-1,
			CorruptImageErr,
		)
	}
	name := p[DirEntryHeaderSize : DirEntryHeaderSize+nameLen]
	if bytes.IndexByte(name, 0) >= 0 {
		return fmt.Errorf(
			"decoding dir entry: name contains NUL: %w",
			CorruptImageErr,
		)
	}
	*entry = DirEntry{
		Ino:      getIno(p, dirEntryInoStart),
		FileType: FileType(getU8(p, dirEntryFileTypeStart)),
		Name:     string(name),
	}
	return nil
}

const (
	dirEntryInoStart = 0
	dirEntryInoSize  = 4
	dirEntryInoEnd   = dirEntryInoStart + dirEntryInoSize

	dirEntryNameLenStart = dirEntryInoEnd
	dirEntryNameLenSize  = 2
	dirEntryNameLenEnd   = dirEntryNameLenStart + dirEntryNameLenSize

	dirEntryFileTypeStart = dirEntryNameLenEnd
	dirEntryFileTypeSize  = 1
	dirEntryFileTypeEnd   = dirEntryFileTypeStart + dirEntryFileTypeSize

	dirEntryReservedStart = dirEntryFileTypeEnd
	dirEntryReservedSize  = 1
	dirEntryReservedEnd   = dirEntryReservedStart + dirEntryReservedSize
)

var _ = [1]struct{}{}[dirEntryReservedEnd-DirEntryHeaderSize]
