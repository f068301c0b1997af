package filesystem

import (
	"errors"
	"fmt"

	"github.com/weberc2/sfs/pkg/data"
	"github.com/weberc2/sfs/pkg/directory"
	. "github.com/weberc2/sfs/pkg/types"
)

// Create adds an empty regular file.
func (fs *FileSystem) Create(path string) error {
	return fs.createNode(path, FileTypeRegular)
}

// Mkdir adds a directory holding only "." and "..".
func (fs *FileSystem) Mkdir(path string) error {
	return fs.createNode(path, FileTypeDir)
}

func (fs *FileSystem) createNode(path string, fileType FileType) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	img, err := fs.mounted(fmt.Sprintf("creating %s `%s`", fileType, path))
	if err != nil {
		return err
	}
	now := fs.timestamp()
	parent, name, err := fs.resolveParent(path, now)
	if err != nil {
		return fmt.Errorf("creating %s: %w", fileType, err)
	}
	if err := validateName(img.Geometry(), name); err != nil {
		return fmt.Errorf("creating %s `%s`: %w", fileType, path, err)
	}
	if _, err := directory.Lookup(img, parent, name, now); err == nil {
		return fmt.Errorf(
			"creating %s `%s`: %w",
			fileType,
			path,
			AlreadyExistsErr,
		)
	} else if !errors.Is(err, NotFoundErr) {
		return fmt.Errorf("creating %s `%s`: %w", fileType, path, err)
	}

	ino, err := img.AllocInode(now)
	if err != nil {
		return fmt.Errorf("creating %s `%s`: %w", fileType, path, err)
	}
	inode, err := img.Inode(ino)
	if err != nil {
		return fmt.Errorf("creating %s `%s`: %w", fileType, path, err)
	}
	inode.FileType = fileType
	inode.Mode = ModeRegular

	if fileType == FileTypeDir {
		if err := directory.Init(img, ino, parent, now); err != nil {
			fs.discard(ino, now)
			return fmt.Errorf("creating %s `%s`: %w", fileType, path, err)
		}
	}

	if err := directory.Insert(
		img,
		parent,
		DirEntry{Ino: ino, FileType: fileType, Name: name},
		now,
	); err != nil {
		fs.discard(ino, now)
		return fmt.Errorf("creating %s `%s`: %w", fileType, path, err)
	}

	fs.logger.Debug(
		"created node",
		"path", path,
		"ino", ino,
		"fileType", fileType,
		"parent", parent,
	)
	return fs.flush()
}

// discard releases a half-created inode and its blocks.
func (fs *FileSystem) discard(ino Ino, now Timestamp) {
	if err := data.Truncate(fs.image, ino, now); err != nil {
		fs.logger.Warn("failed to release blocks", "ino", ino, "err", err)
	}
	fs.image.FreeInode(ino)
}

func validateName(g *Geometry, name string) error {
	if name == DotName || name == DotDotName {
		return fmt.Errorf("name `%s` is reserved: %w", name, InvalidNameErr)
	}
	return directory.ValidateName(g, name)
}

// file resolves `path` to a regular file's inode.
func (fs *FileSystem) file(path string, now Timestamp) (Ino, error) {
	ino, err := fs.resolve(path, now)
	if err != nil {
		return InoNil, err
	}
	inode, err := fs.image.Inode(ino)
	if err != nil {
		return InoNil, err
	}
	if inode.IsDir() {
		return InoNil, fmt.Errorf("path `%s`: %w", path, IsADirErr)
	}
	return ino, nil
}

// Write replaces the file's content with `p`. A failed write leaves the file
// and the free space unchanged.
func (fs *FileSystem) Write(path string, p []byte) (Byte, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	img, err := fs.mounted(fmt.Sprintf("writing file `%s`", path))
	if err != nil {
		return 0, err
	}
	now := fs.timestamp()
	ino, err := fs.file(path, now)
	if err != nil {
		return 0, fmt.Errorf("writing file: %w", err)
	}
	n, err := data.Write(img, ino, p, now)
	if err != nil {
		fs.logger.Warn("write failed", "path", path, "ino", ino, "err", err)
		return 0, fmt.Errorf("writing file `%s`: %w", path, err)
	}
	fs.logger.Debug(
		"wrote file",
		"path", path,
		"ino", ino,
		"bytes", n,
		"freeBlocks", img.Superblock.FreeBlocks,
	)
	return n, fs.flush()
}

// Read returns the file's whole content.
func (fs *FileSystem) Read(path string) ([]byte, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	img, err := fs.mounted(fmt.Sprintf("reading file `%s`", path))
	if err != nil {
		return nil, err
	}
	now := fs.timestamp()
	ino, err := fs.file(path, now)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	p, err := data.ReadAll(img, ino, now)
	if err != nil {
		return nil, fmt.Errorf("reading file `%s`: %w", path, err)
	}
	return p, nil
}

// Delete unlinks a file or an empty directory and releases its inode and
// blocks. "." and ".." can't be deleted.
func (fs *FileSystem) Delete(path string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	img, err := fs.mounted(fmt.Sprintf("deleting `%s`", path))
	if err != nil {
		return err
	}
	now := fs.timestamp()
	parent, name, err := fs.resolveParent(path, now)
	if err != nil {
		return fmt.Errorf("deleting: %w", err)
	}
	if name == DotName || name == DotDotName {
		return fmt.Errorf("deleting `%s`: %w", path, InvalidNameErr)
	}
	entry, err := directory.Lookup(img, parent, name, now)
	if err != nil {
		return fmt.Errorf("deleting `%s`: %w", path, err)
	}

	inode, err := img.Inode(entry.Ino)
	if err != nil {
		return fmt.Errorf("deleting `%s`: %w", path, err)
	}
	if inode.IsDir() {
		entries, err := directory.Entries(img, entry.Ino, now)
		if err != nil {
			return fmt.Errorf("deleting `%s`: %w", path, err)
		}
		if !directory.IsEmpty(entries) {
			return fmt.Errorf("deleting `%s`: %w", path, DirNotEmptyErr)
		}
	}

	if _, err := directory.Remove(img, parent, name, now); err != nil {
		return fmt.Errorf("deleting `%s`: %w", path, err)
	}
	fs.discard(entry.Ino, now)
	if fs.cwd == entry.Ino {
		fs.cwd = parent
	}

	fs.logger.Debug(
		"deleted node",
		"path", path,
		"ino", entry.Ino,
		"freeBlocks", img.Superblock.FreeBlocks,
		"freeInodes", img.Superblock.FreeInodes,
	)
	return fs.flush()
}
