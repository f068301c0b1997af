package imagestore

// ImageStore persists one encoded image as an opaque unit. `GetImage` fails
// with `NoImageErr` when nothing has been stored yet.
type ImageStore interface {
	PutImage(data []byte) error
	GetImage() ([]byte, error)
}

const DefaultImagePath = "sfs_disco.bin"
