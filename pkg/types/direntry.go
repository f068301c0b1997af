package types

// DirEntryHeaderSize covers the child ino, name length, file type and one
// reserved byte. The name buffer follows.
const DirEntryHeaderSize Byte = 8

type DirEntry struct {
	Ino      Ino      `json:"ino"`
	FileType FileType `json:"fileType"`
	Name     string   `json:"name"`
}

const (
	DotName    = "."
	DotDotName = ".."
)
