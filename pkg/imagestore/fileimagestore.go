package imagestore

import (
	"fmt"
	"os"
	"path/filepath"

	. "github.com/weberc2/sfs/pkg/types"
)

// FileImageStore keeps the image in a local file. Puts go to a temporary file
// in the same directory which is then renamed over the image, so a crash
// mid-write leaves the previous image intact.
type FileImageStore struct {
	Path string
}

func (fis *FileImageStore) PutImage(data []byte) error {
	dir, base := filepath.Split(fis.Path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp*")
	if err != nil {
		return fmt.Errorf("writing image `%s`: %w", fis.Path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing image `%s`: %w", fis.Path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("writing image `%s`: syncing: %w", fis.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing image `%s`: %w", fis.Path, err)
	}
	if err := os.Rename(tmp.Name(), fis.Path); err != nil {
		return fmt.Errorf("writing image `%s`: %w", fis.Path, err)
	}
	return nil
}

func (fis *FileImageStore) GetImage() ([]byte, error) {
	data, err := os.ReadFile(fis.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("reading image `%s`: %w", fis.Path, NoImageErr)
		}
		return nil, fmt.Errorf("reading image `%s`: %w", fis.Path, err)
	}
	return data, nil
}
