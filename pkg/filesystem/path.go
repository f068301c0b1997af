package filesystem

import (
	"fmt"
	"strings"

	"github.com/weberc2/sfs/pkg/directory"
	"github.com/weberc2/sfs/pkg/image"
	. "github.com/weberc2/sfs/pkg/types"
)

// components splits a path on "/" and drops empty chunks, so "a//b/" and
// "a/b" are the same path. "." and ".." are left for the directories to
// resolve since they are ordinary entries.
func components(path string) []string {
	chunks := strings.Split(path, "/")
	out := chunks[:0]
	for _, chunk := range chunks {
		if chunk != "" {
			out = append(out, chunk)
		}
	}
	return out
}

// start returns the inode path resolution begins at: the root for absolute
// paths and the current directory otherwise.
func (fs *FileSystem) start(path string) Ino {
	if strings.HasPrefix(path, "/") {
		return fs.image.Superblock.RootIno
	}
	return fs.cwd
}

// walk resolves `chunks` starting at `ino`.
func walk(img *image.Image, ino Ino, chunks []string, now Timestamp) (Ino, error) {
	for _, chunk := range chunks {
		entry, err := directory.Lookup(img, ino, chunk, now)
		if err != nil {
			return InoNil, err
		}
		ino = entry.Ino
	}
	return ino, nil
}

// resolve returns the inode `path` names. An empty path is the current
// directory.
func (fs *FileSystem) resolve(path string, now Timestamp) (Ino, error) {
	ino, err := walk(fs.image, fs.start(path), components(path), now)
	if err != nil {
		return InoNil, fmt.Errorf("resolving path `%s`: %w", path, err)
	}
	return ino, nil
}

// resolveParent resolves every component but the last and returns the
// containing directory's inode together with the final name.
func (fs *FileSystem) resolveParent(
	path string,
	now Timestamp,
) (Ino, string, error) {
	chunks := components(path)
	if len(chunks) < 1 {
		return InoNil, "", fmt.Errorf(
			"resolving parent of path `%s`: %w",
			path,
			InvalidNameErr,
		)
	}
	parent, err := walk(fs.image, fs.start(path), chunks[:len(chunks)-1], now)
	if err != nil {
		return InoNil, "", fmt.Errorf(
			"resolving parent of path `%s`: %w",
			path,
			err,
		)
	}
	return parent, chunks[len(chunks)-1], nil
}

// pathOf rebuilds the absolute path of a directory by following ".." up to
// the root and looking up each child's name in its parent.
func pathOf(img *image.Image, dir Ino, now Timestamp) (string, error) {
	root := img.Superblock.RootIno
	var names []string
	for seen := 0; dir != root; seen++ {
		if seen > int(img.Superblock.Geometry.InodeCount) {
			return "", fmt.Errorf(
				"building path of dir `%d`: parent chain loops: %w",
				dir,
				CorruptImageErr,
			)
		}
		parent, err := directory.Lookup(img, dir, DotDotName, now)
		if err != nil {
			return "", fmt.Errorf("building path of dir `%d`: %w", dir, err)
		}
		entries, err := directory.Entries(img, parent.Ino, now)
		if err != nil {
			return "", fmt.Errorf("building path of dir `%d`: %w", dir, err)
		}
		name := ""
		for i := range entries {
			if entries[i].Ino == dir &&
				entries[i].Name != DotName &&
				entries[i].Name != DotDotName {
				name = entries[i].Name
				break
			}
		}
		if name == "" {
			return "", fmt.Errorf(
				"building path of dir `%d`: not linked from parent `%d`: %w",
				dir,
				parent.Ino,
				CorruptImageErr,
			)
		}
		names = append(names, name)
		dir = parent.Ino
	}

	var sb strings.Builder
	for i := len(names) - 1; i >= 0; i-- {
		sb.WriteByte('/')
		sb.WriteString(names[i])
	}
	if sb.Len() < 1 {
		return "/", nil
	}
	return sb.String(), nil
}

func (fs *FileSystem) Chdir(path string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if _, err := fs.mounted("changing directory"); err != nil {
		return err
	}
	now := fs.timestamp()
	ino, err := fs.resolve(path, now)
	if err != nil {
		return fmt.Errorf("changing directory: %w", err)
	}
	inode, err := fs.image.Inode(ino)
	if err != nil {
		return fmt.Errorf("changing directory to `%s`: %w", path, err)
	}
	if !inode.IsDir() {
		return fmt.Errorf("changing directory to `%s`: %w", path, NotADirErr)
	}
	fs.cwd = ino
	return nil
}

// Cwd returns the absolute path of the current directory.
func (fs *FileSystem) Cwd() (string, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	img, err := fs.mounted("fetching current directory")
	if err != nil {
		return "", err
	}
	return pathOf(img, fs.cwd, fs.timestamp())
}
