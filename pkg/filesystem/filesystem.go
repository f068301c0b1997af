package filesystem

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/weberc2/sfs/pkg/directory"
	"github.com/weberc2/sfs/pkg/encode"
	"github.com/weberc2/sfs/pkg/image"
	"github.com/weberc2/sfs/pkg/imagestore"
	"github.com/weberc2/sfs/pkg/log"
	. "github.com/weberc2/sfs/pkg/types"
)

// FileSystem owns the mounted image. It starts out unmounted; `Format` or
// `Mount` installs an image and every other operation requires one.
// Operations are serialized by an internal mutex.
type FileSystem struct {
	store    imagestore.ImageStore
	geometry Geometry
	logger   *slog.Logger
	now      func() time.Time

	lock  sync.Mutex
	image *image.Image
	cwd   Ino
}

type Params struct {
	Store imagestore.ImageStore

	// Geometry is used by `Format`. A zero value means `DefaultGeometry()`.
	// Mounted images carry their own geometry.
	Geometry Geometry

	Logger *slog.Logger
	Now    func() time.Time
}

func New(params *Params) *FileSystem {
	fs := FileSystem{
		store:    params.Store,
		geometry: params.Geometry,
		logger:   params.Logger,
		now:      params.Now,
	}
	if fs.geometry == (Geometry{}) {
		fs.geometry = DefaultGeometry()
	}
	if fs.logger == nil {
		fs.logger = log.Discard()
	}
	if fs.now == nil {
		fs.now = time.Now
	}
	return &fs
}

func (fs *FileSystem) timestamp() Timestamp { return NewTimestamp(fs.now()) }

func (fs *FileSystem) Mounted() bool {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return fs.image != nil
}

func (fs *FileSystem) mounted(op string) (*image.Image, error) {
	if fs.image == nil {
		return nil, fmt.Errorf("%s: %w", op, NotMountedErr)
	}
	return fs.image, nil
}

// Format builds a fresh image with an empty root directory, mounts it and
// persists it. Any previously mounted image is discarded.
func (fs *FileSystem) Format() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	now := fs.timestamp()
	img, err := image.New(fs.geometry, now, uuid.New())
	if err != nil {
		return fmt.Errorf("formatting: %w", err)
	}
	root, err := img.AllocInode(now)
	if err != nil {
		return fmt.Errorf("formatting: allocating root inode: %w", err)
	}
	if err := directory.Init(img, root, root, now); err != nil {
		return fmt.Errorf("formatting: %w", err)
	}
	img.Superblock.RootIno = root

	fs.image = img
	fs.cwd = root
	fs.logger.Info(
		"formatted image",
		"volumeID", img.Superblock.VolumeID,
		"blocks", img.Superblock.Geometry.BlockCount,
		"inodes", img.Superblock.Geometry.InodeCount,
		"firstDataBlock", img.Superblock.Layout.FirstDataBlock,
	)
	return fs.flush()
}

// Mount loads the image from the store. The decoded image replaces the
// mounted one only if decoding succeeds, so a failed mount leaves the current
// state untouched.
func (fs *FileSystem) Mount() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	data, err := fs.store.GetImage()
	if err != nil {
		fs.logger.Warn("failed to fetch image", "err", err)
		return fmt.Errorf("mounting: %w", err)
	}
	img, err := encode.DecodeImage(data)
	if err != nil {
		fs.logger.Warn("failed to decode image", "err", err)
		return fmt.Errorf("mounting: %w", err)
	}
	root := img.Superblock.RootIno
	if inode, err := img.Inode(root); err != nil || !inode.IsDir() {
		return fmt.Errorf(
			"mounting: root inode `%d` is not an allocated directory: %w",
			root,
			CorruptImageErr,
		)
	}

	fs.image = img
	fs.cwd = root
	fs.logger.Debug(
		"mounted image",
		"volumeID", img.Superblock.VolumeID,
		"bytes", len(data),
		"freeBlocks", img.Superblock.FreeBlocks,
		"freeInodes", img.Superblock.FreeInodes,
	)
	return nil
}

// Unmount persists and then drops the mounted image.
func (fs *FileSystem) Unmount() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if _, err := fs.mounted("unmounting"); err != nil {
		return err
	}
	if err := fs.flush(); err != nil {
		return fmt.Errorf("unmounting: %w", err)
	}
	fs.image = nil
	fs.cwd = InoNil
	return nil
}

func (fs *FileSystem) Flush() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if _, err := fs.mounted("flushing"); err != nil {
		return err
	}
	return fs.flush()
}

func (fs *FileSystem) flush() error {
	data := encode.EncodeImage(fs.image)
	if err := fs.store.PutImage(data); err != nil {
		fs.logger.Warn("failed to flush image", "err", err)
		return fmt.Errorf("flushing image: %w", err)
	}
	fs.logger.Debug("flushed image", "bytes", len(data))
	return nil
}

// Superblock returns a copy of the mounted image's superblock.
func (fs *FileSystem) Superblock() (Superblock, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	img, err := fs.mounted("fetching superblock")
	if err != nil {
		return Superblock{}, err
	}
	return img.Superblock, nil
}
