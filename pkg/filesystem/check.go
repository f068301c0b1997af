package filesystem

import (
	"errors"
	"fmt"

	"github.com/weberc2/sfs/pkg/directory"
	"github.com/weberc2/sfs/pkg/image"
	. "github.com/weberc2/sfs/pkg/types"
)

// Check validates the mounted image: the allocation invariants checked by
// `image.Check` plus the directory tree. Every directory must decode cleanly
// and hold correct "." and ".." entries, every entry must point at an
// allocated inode of the recorded type, and every allocated inode must be
// reachable from the root.
func (fs *FileSystem) Check() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	img, err := fs.mounted("checking filesystem")
	if err != nil {
		return err
	}

	var errs []error
	if err := img.Check(); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, checkTree(img, fs.timestamp())...)
	if len(errs) > 0 {
		fs.logger.Warn("filesystem check failed", "problems", len(errs))
		return fmt.Errorf(
			"checking filesystem: %w: %w",
			CorruptImageErr,
			errors.Join(errs...),
		)
	}
	return nil
}

func checkTree(img *image.Image, now Timestamp) []error {
	var errs []error
	report := func(format string, v ...interface{}) {
		errs = append(errs, fmt.Errorf(format, v...))
	}

	root := img.Superblock.RootIno
	reached := map[Ino]bool{root: true}
	type frame struct{ dir, parent Ino }
	stack := []frame{{root, root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := directory.Entries(img, f.dir, now)
		if err != nil {
			report("dir `%d`: %v", f.dir, err)
			continue
		}
		var dot, dotdot bool
		for _, entry := range entries {
			switch entry.Name {
			case DotName:
				dot = true
				if entry.Ino != f.dir {
					report("dir `%d`: `.` points at `%d`", f.dir, entry.Ino)
				}
				continue
			case DotDotName:
				dotdot = true
				if entry.Ino != f.parent {
					report(
						"dir `%d`: `..` points at `%d`; wanted `%d`",
						f.dir,
						entry.Ino,
						f.parent,
					)
				}
				continue
			}

			inode, err := img.Inode(entry.Ino)
			if err != nil {
				report("dir `%d`: entry `%s`: dangling: %v", f.dir, entry.Name, err)
				continue
			}
			if inode.FileType != entry.FileType {
				report(
					"dir `%d`: entry `%s` records type `%s`; inode `%d` is `%s`",
					f.dir,
					entry.Name,
					entry.FileType,
					entry.Ino,
					inode.FileType,
				)
			}
			if reached[entry.Ino] {
				report(
					"dir `%d`: entry `%s`: inode `%d` is linked more than once",
					f.dir,
					entry.Name,
					entry.Ino,
				)
				continue
			}
			reached[entry.Ino] = true
			if inode.IsDir() {
				stack = append(stack, frame{entry.Ino, f.dir})
			}
		}
		if !dot {
			report("dir `%d`: missing `.` entry", f.dir)
		}
		if !dotdot {
			report("dir `%d`: missing `..` entry", f.dir)
		}
	}

	for i := 1; i < img.InodeBitmap.Len(); i++ {
		ino := Ino(i)
		if img.InodeBitmap.IsSet(uint64(ino)) && !reached[ino] {
			report("inode `%d` is allocated but unreachable", ino)
		}
	}
	return errs
}
