package directory

import (
	"fmt"

	"github.com/weberc2/sfs/pkg/encode"
	. "github.com/weberc2/sfs/pkg/types"
)

// Decode splits a directory's byte stream into fixed-width entry records.
// A stream whose length is not a whole number of records is corrupt.
func Decode(g *Geometry, p []byte) ([]DirEntry, error) {
	width := g.DirEntrySize()
	if Byte(len(p))%width != 0 {
		return nil, fmt.Errorf(
			"decoding directory: size `%d` is not a multiple of the `%d`-byte "+
				"entry width: %w",
			len(p),
			width,
			CorruptImageErr,
		)
	}
	entries := make([]DirEntry, Byte(len(p))/width)
	for i := range entries {
		start := Byte(i) * width
		if err := encode.DecodeDirEntry(
			&entries[i],
			g.NameSize,
			p[start:start+width],
		); err != nil {
			return nil, fmt.Errorf("decoding directory entry `%d`: %w", i, err)
		}
	}
	return entries, nil
}

func Encode(g *Geometry, entries []DirEntry) ([]byte, error) {
	width := g.DirEntrySize()
	out := make([]byte, Byte(len(entries))*width)
	for i := range entries {
		start := Byte(i) * width
		if err := encode.EncodeDirEntry(
			&entries[i],
			g.NameSize,
			out[start:start+width],
		); err != nil {
			return nil, fmt.Errorf("encoding directory: %w", err)
		}
	}
	return out, nil
}

// ValidateName rejects names that cannot be stored as a single directory
// entry.
func ValidateName(g *Geometry, name string) error {
	if name == "" {
		return fmt.Errorf("validating name: empty name: %w", InvalidNameErr)
	}
	for i := 0; i < len(name); i++ {
		if name[i] == '/' || name[i] == 0 {
			return fmt.Errorf(
				"validating name `%s`: illegal byte `%#x`: %w",
				name,
				name[i],
				InvalidNameErr,
			)
		}
	}
	if len(name) > g.MaxNameLen() {
		return fmt.Errorf(
			"validating name `%s`: `%d` bytes exceeds `%d`: %w",
			name,
			len(name),
			g.MaxNameLen(),
			NameTooLongErr,
		)
	}
	return nil
}
