package imagestore

import (
	"bytes"
	"fmt"

	. "github.com/weberc2/sfs/pkg/types"
	"golang.org/x/crypto/blake2b"
)

// ChecksumImageStore appends a BLAKE2b-256 digest to every image it stores
// and verifies it on the way out. A mismatch is reported as
// `CorruptImageErr`, catching damage the signature check alone would miss.
type ChecksumImageStore struct {
	ImageStore
}

func (cis *ChecksumImageStore) PutImage(data []byte) error {
	sum := blake2b.Sum256(data)
	out := make([]byte, 0, len(data)+len(sum))
	out = append(out, data...)
	out = append(out, sum[:]...)
	return cis.ImageStore.PutImage(out)
}

func (cis *ChecksumImageStore) GetImage() ([]byte, error) {
	data, err := cis.ImageStore.GetImage()
	if err != nil {
		return nil, err
	}
	if len(data) < blake2b.Size256 {
		return nil, fmt.Errorf(
			"verifying image checksum: image shorter than digest: %w",
			CorruptImageErr,
		)
	}
	body, trailer := data[:len(data)-blake2b.Size256], data[len(data)-blake2b.Size256:]
	if sum := blake2b.Sum256(body); !bytes.Equal(sum[:], trailer) {
		return nil, fmt.Errorf(
			"verifying image checksum: digest mismatch: %w",
			CorruptImageErr,
		)
	}
	return body, nil
}
