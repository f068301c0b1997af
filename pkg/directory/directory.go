package directory

import (
	"fmt"

	"github.com/weberc2/sfs/pkg/data"
	"github.com/weberc2/sfs/pkg/image"
	. "github.com/weberc2/sfs/pkg/types"
)

func open(img *image.Image, dir Ino, now Timestamp) ([]byte, error) {
	inode, err := img.Inode(dir)
	if err != nil {
		return nil, err
	}
	if !inode.IsDir() {
		return nil, fmt.Errorf("inode `%d`: %w", dir, NotADirErr)
	}
	return data.ReadAll(img, dir, now)
}

// Entries returns the directory's entries in storage order.
func Entries(img *image.Image, dir Ino, now Timestamp) ([]DirEntry, error) {
	raw, err := open(img, dir, now)
	if err != nil {
		return nil, fmt.Errorf("listing dir `%d`: %w", dir, err)
	}
	entries, err := Decode(img.Geometry(), raw)
	if err != nil {
		return nil, fmt.Errorf("listing dir `%d`: %w", dir, err)
	}
	return entries, nil
}

func Lookup(
	img *image.Image,
	dir Ino,
	name string,
	now Timestamp,
) (DirEntry, error) {
	entries, err := Entries(img, dir, now)
	if err != nil {
		return DirEntry{}, fmt.Errorf(
			"looking up `%s` in dir `%d`: %w",
			name,
			dir,
			err,
		)
	}
	if i := index(entries, name); i >= 0 {
		return entries[i], nil
	}
	return DirEntry{}, fmt.Errorf(
		"looking up `%s` in dir `%d`: %w",
		name,
		dir,
		NotFoundErr,
	)
}

// Insert appends `entry` to the directory and writes the whole stream back.
func Insert(img *image.Image, dir Ino, entry DirEntry, now Timestamp) error {
	if err := ValidateName(img.Geometry(), entry.Name); err != nil {
		return fmt.Errorf("adding entry into dir `%d`: %w", dir, err)
	}
	raw, err := open(img, dir, now)
	if err != nil {
		return fmt.Errorf(
			"adding entry `%d` into dir `%d` with name `%s`: %w",
			entry.Ino,
			dir,
			entry.Name,
			err,
		)
	}
	entries, err := Decode(img.Geometry(), raw)
	if err != nil {
		return fmt.Errorf(
			"adding entry `%d` into dir `%d` with name `%s`: %w",
			entry.Ino,
			dir,
			entry.Name,
			err,
		)
	}
	if index(entries, entry.Name) >= 0 {
		return fmt.Errorf(
			"adding entry `%d` into dir `%d` with name `%s`: %w",
			entry.Ino,
			dir,
			entry.Name,
			AlreadyExistsErr,
		)
	}

	record, err := Encode(img.Geometry(), []DirEntry{entry})
	if err != nil {
		return fmt.Errorf("adding entry into dir `%d`: %w", dir, err)
	}
	if _, err := data.Write(img, dir, append(raw, record...), now); err != nil {
		return fmt.Errorf(
			"adding entry `%d` into dir `%d` with name `%s`: %w",
			entry.Ino,
			dir,
			entry.Name,
			err,
		)
	}
	return nil
}

// Remove deletes the named entry by shifting every later record left by one
// record width. The relative order of the remaining entries is unchanged.
func Remove(
	img *image.Image,
	dir Ino,
	name string,
	now Timestamp,
) (DirEntry, error) {
	raw, err := open(img, dir, now)
	if err != nil {
		return DirEntry{}, fmt.Errorf(
			"removing `%s` from dir `%d`: %w",
			name,
			dir,
			err,
		)
	}
	g := img.Geometry()
	entries, err := Decode(g, raw)
	if err != nil {
		return DirEntry{}, fmt.Errorf(
			"removing `%s` from dir `%d`: %w",
			name,
			dir,
			err,
		)
	}
	i := index(entries, name)
	if i < 0 {
		return DirEntry{}, fmt.Errorf(
			"removing `%s` from dir `%d`: %w",
			name,
			dir,
			NotFoundErr,
		)
	}

	width := g.DirEntrySize()
	start := Byte(i) * width
	copy(raw[start:], raw[start+width:])
	if _, err := data.Write(
		img,
		dir,
		raw[:Byte(len(raw))-width],
		now,
	); err != nil {
		return DirEntry{}, fmt.Errorf(
			"removing `%s` from dir `%d`: %w",
			name,
			dir,
			err,
		)
	}
	return entries[i], nil
}

// Init writes the self and parent entries into an empty directory. The root
// directory is its own parent.
func Init(img *image.Image, dir, parent Ino, now Timestamp) error {
	inode, err := img.Inode(dir)
	if err != nil {
		return fmt.Errorf("initializing dir `%d`: %w", dir, err)
	}
	inode.FileType = FileTypeDir
	inode.Mode = ModeDir

	raw, err := Encode(img.Geometry(), []DirEntry{
		{Ino: dir, FileType: FileTypeDir, Name: DotName},
		{Ino: parent, FileType: FileTypeDir, Name: DotDotName},
	})
	if err != nil {
		return fmt.Errorf(
			"initializing dir `%d` with parent `%d`: %w",
			dir,
			parent,
			err,
		)
	}
	if _, err := data.Write(img, dir, raw, now); err != nil {
		return fmt.Errorf(
			"initializing dir `%d` with parent `%d`: %w",
			dir,
			parent,
			err,
		)
	}
	return nil
}

// IsEmpty reports whether a directory holds nothing besides "." and "..".
func IsEmpty(entries []DirEntry) bool {
	for i := range entries {
		if entries[i].Name != DotName && entries[i].Name != DotDotName {
			return false
		}
	}
	return true
}

func index(entries []DirEntry, name string) int {
	for i := range entries {
		if entries[i].Name == name {
			return i
		}
	}
	return -1
}
