package types

type ConstError string

func (err ConstError) Error() string { return string(err) }

const (
	NotMountedErr      ConstError = "filesystem not mounted"
	NotFoundErr        ConstError = "not found"
	AlreadyExistsErr   ConstError = "already exists"
	NotADirErr         ConstError = "not a directory"
	IsADirErr          ConstError = "is a directory"
	FileTooLargeErr    ConstError = "file too large"
	OutOfBlocksErr     ConstError = "out of blocks"
	OutOfInodesErr     ConstError = "out of inodes"
	NoImageErr         ConstError = "no image"
	CorruptImageErr    ConstError = "corrupt image"
	DirNotEmptyErr     ConstError = "directory not empty"
	NameTooLongErr     ConstError = "name too long"
	InvalidNameErr     ConstError = "invalid name"
	InvalidInodeErr    ConstError = "invalid inode"
	InvalidBlockErr    ConstError = "invalid block"
	InvalidFileTypeErr ConstError = "invalid file type"
	InvalidGeometryErr ConstError = "invalid geometry"
)
