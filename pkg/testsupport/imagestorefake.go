package testsupport

import (
	"fmt"

	. "github.com/weberc2/sfs/pkg/types"
)

// ImageStoreFake keeps the last image in memory and counts writes. When
// `PutErr` is set, every put fails with it.
type ImageStoreFake struct {
	Data   []byte
	Puts   int
	PutErr error
}

func (isf *ImageStoreFake) PutImage(data []byte) error {
	if isf.PutErr != nil {
		return isf.PutErr
	}
	isf.Data = append([]byte(nil), data...)
	isf.Puts++
	return nil
}

func (isf *ImageStoreFake) GetImage() ([]byte, error) {
	if isf.Data == nil {
		return nil, fmt.Errorf("fetching image from fake: %w", NoImageErr)
	}
	return append([]byte(nil), isf.Data...), nil
}
