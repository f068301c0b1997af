package filesystem

import (
	"fmt"

	"github.com/weberc2/sfs/pkg/directory"
	. "github.com/weberc2/sfs/pkg/types"
)

type ListEntry struct {
	Name     string    `json:"name"`
	Ino      Ino       `json:"ino"`
	FileType FileType  `json:"fileType"`
	Size     Byte      `json:"size"`
	Blocks   Block     `json:"blocks"`
	MTime    Timestamp `json:"mtime"`
}

// List returns a directory's entries, "." and ".." included, in storage
// order. An empty path lists the current directory.
func (fs *FileSystem) List(path string) ([]ListEntry, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	img, err := fs.mounted(fmt.Sprintf("listing `%s`", path))
	if err != nil {
		return nil, err
	}
	now := fs.timestamp()
	dir, err := fs.resolve(path, now)
	if err != nil {
		return nil, fmt.Errorf("listing: %w", err)
	}
	entries, err := directory.Entries(img, dir, now)
	if err != nil {
		return nil, fmt.Errorf("listing `%s`: %w", path, err)
	}

	out := make([]ListEntry, len(entries))
	for i := range entries {
		inode, err := img.Inode(entries[i].Ino)
		if err != nil {
			return nil, fmt.Errorf(
				"listing `%s`: entry `%s`: %w",
				path,
				entries[i].Name,
				err,
			)
		}
		out[i] = ListEntry{
			Name:     entries[i].Name,
			Ino:      entries[i].Ino,
			FileType: inode.FileType,
			Size:     inode.Size,
			Blocks:   inode.BlockCount,
			MTime:    inode.MTime,
		}
	}
	return out, nil
}

type BlockUsage struct {
	Block     Block `json:"block"`
	BytesUsed Byte  `json:"bytesUsed"`
}

type FileStat struct {
	Path   string       `json:"path"`
	Inode  Inode        `json:"inode"`
	Blocks []BlockUsage `json:"blocks"`
}

// Stat returns a copy of the inode `path` names along with the fill level of
// each attached block.
func (fs *FileSystem) Stat(path string) (*FileStat, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	img, err := fs.mounted(fmt.Sprintf("stat `%s`", path))
	if err != nil {
		return nil, err
	}
	ino, err := fs.resolve(path, fs.timestamp())
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	inode, err := img.Inode(ino)
	if err != nil {
		return nil, fmt.Errorf("stat `%s`: %w", path, err)
	}

	stat := FileStat{Path: path, Inode: *inode, Blocks: []BlockUsage{}}
	stat.Inode.DirectBlocks = append([]Block(nil), inode.DirectBlocks...)
	for _, b := range inode.DirectBlocks {
		if b == BlockNil {
			break
		}
		block, err := img.Block(b)
		if err != nil {
			return nil, fmt.Errorf("stat `%s`: %w", path, err)
		}
		stat.Blocks = append(
			stat.Blocks,
			BlockUsage{Block: b, BytesUsed: block.BytesUsed},
		)
	}
	return &stat, nil
}

type Counts struct {
	Total uint32 `json:"total"`
	Used  uint32 `json:"used"`
	Free  uint32 `json:"free"`
}

type Usage struct {
	Blocks      Counts  `json:"blocks"`
	Inodes      Counts  `json:"inodes"`
	TotalBytes  Byte    `json:"totalBytes"`
	UsedBytes   Byte    `json:"usedBytes"`
	FreeBytes   Byte    `json:"freeBytes"`
	PercentUsed float64 `json:"percentUsed"`
}

// Usage reports block and inode consumption. Block counts include the
// metadata region, so a freshly formatted image is not at zero percent.
func (fs *FileSystem) Usage() (*Usage, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	img, err := fs.mounted("fetching usage")
	if err != nil {
		return nil, err
	}
	sb := &img.Superblock
	g := &sb.Geometry
	usage := Usage{
		Blocks: Counts{
			Total: uint32(g.BlockCount),
			Used:  uint32(img.UsedBlocks()),
			Free:  uint32(sb.FreeBlocks),
		},
		Inodes: Counts{
			Total: uint32(g.InodeCount),
			Used:  uint32(img.UsedInodes()),
			Free:  uint32(sb.FreeInodes),
		},
		TotalBytes: Byte(g.BlockCount) * g.BlockSize,
		UsedBytes:  Byte(img.UsedBlocks()) * g.BlockSize,
		FreeBytes:  Byte(sb.FreeBlocks) * g.BlockSize,
	}
	if usage.TotalBytes > 0 {
		usage.PercentUsed = 100 * float64(usage.UsedBytes) /
			float64(usage.TotalBytes)
	}
	return &usage, nil
}
