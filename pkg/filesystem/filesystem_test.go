package filesystem

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/weberc2/sfs/pkg/testsupport"
	. "github.com/weberc2/sfs/pkg/types"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newFS(t *testing.T, g Geometry) (*FileSystem, *testsupport.ImageStoreFake) {
	t.Helper()
	store := testsupport.ImageStoreFake{}
	fs := New(&Params{
		Store:    &store,
		Geometry: g,
		Now:      func() time.Time { return now },
	})
	require.NoError(t, fs.Format())
	return fs, &store
}

// requireConsistent asserts the counter and exclusivity properties that must
// hold after every operation.
func requireConsistent(t *testing.T, fs *FileSystem) {
	t.Helper()
	usage, err := fs.Usage()
	require.NoError(t, err)
	require.Equal(t, usage.Blocks.Total, usage.Blocks.Used+usage.Blocks.Free)
	require.Equal(t, usage.Inodes.Total, usage.Inodes.Used+usage.Inodes.Free)
	require.NoError(t, fs.Check())
}

func TestNotMounted(t *testing.T) {
	fs := New(&Params{Store: &testsupport.ImageStoreFake{}})
	for _, testCase := range []struct {
		name string
		op   func() error
	}{
		{"create", func() error { return fs.Create("a") }},
		{"mkdir", func() error { return fs.Mkdir("a") }},
		{"write", func() error { _, err := fs.Write("a", nil); return err }},
		{"read", func() error { _, err := fs.Read("a"); return err }},
		{"delete", func() error { return fs.Delete("a") }},
		{"list", func() error { _, err := fs.List(""); return err }},
		{"stat", func() error { _, err := fs.Stat("a"); return err }},
		{"usage", func() error { _, err := fs.Usage(); return err }},
		{"chdir", func() error { return fs.Chdir("a") }},
		{"cwd", func() error { _, err := fs.Cwd(); return err }},
		{"flush", fs.Flush},
		{"check", fs.Check},
		{"unmount", fs.Unmount},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			if err := testCase.op(); !errors.Is(err, NotMountedErr) {
				t.Fatalf("wanted `%v`; found `%v`", NotMountedErr, err)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	fs, store := newFS(t, Geometry{})
	require.Equal(t, 1, store.Puts)
	g := DefaultGeometry()
	require.Len(t, store.Data, int(g.ImageSize()))

	entries, err := fs.List("/")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, DotName, entries[0].Name)
	require.Equal(t, DotDotName, entries[1].Name)
	require.Equal(t, InoRoot, entries[0].Ino)
	require.Equal(t, InoRoot, entries[1].Ino)

	usage, err := fs.Usage()
	require.NoError(t, err)
	require.Equal(t, uint32(2), usage.Inodes.Used)
	layout := g.Layout()
	require.Equal(t, uint32(layout.FirstDataBlock)+1, usage.Blocks.Used)
	requireConsistent(t, fs)
}

func TestRoundTripPersistence(t *testing.T) {
	fs, store := newFS(t, Geometry{})
	payload := bytes.Repeat([]byte("0123456789"), 123)

	require.NoError(t, fs.Create("a"))
	n, err := fs.Write("a", payload)
	require.NoError(t, err)
	require.Equal(t, Byte(len(payload)), n)

	reloaded := New(&Params{Store: store})
	require.NoError(t, reloaded.Mount())
	found, err := reloaded.Read("a")
	require.NoError(t, err)
	require.Equal(t, payload, found)
	requireConsistent(t, reloaded)
}

func TestMountNoImage(t *testing.T) {
	fs := New(&Params{Store: &testsupport.ImageStoreFake{}})
	require.ErrorIs(t, fs.Mount(), NoImageErr)
	require.False(t, fs.Mounted())
}

func TestMountCorruptSignature(t *testing.T) {
	fs, store := newFS(t, Geometry{})
	require.NoError(t, fs.Create("a"))
	_, err := fs.Write("a", []byte("still here"))
	require.NoError(t, err)

	store.Data[0] ^= 0xff
	require.ErrorIs(t, fs.Mount(), CorruptImageErr)

	// the previously mounted state is untouched
	found, err := fs.Read("a")
	require.NoError(t, err)
	require.Equal(t, "still here", string(found))
	requireConsistent(t, fs)
}

func TestMountTruncatedImage(t *testing.T) {
	fs, store := newFS(t, Geometry{})
	store.Data = store.Data[:len(store.Data)/2]
	require.ErrorIs(t, fs.Mount(), CorruptImageErr)
	require.True(t, fs.Mounted())
}

func TestDeleteTwice(t *testing.T) {
	fs, store := newFS(t, Geometry{})
	require.NoError(t, fs.Create("a"))
	require.NoError(t, fs.Delete("a"))

	before := append([]byte(nil), store.Data...)
	puts := store.Puts
	require.ErrorIs(t, fs.Delete("a"), NotFoundErr)
	require.Equal(t, puts, store.Puts)
	require.Equal(t, before, store.Data)
	requireConsistent(t, fs)
}

func TestDeleteReleasesResources(t *testing.T) {
	fs, _ := newFS(t, Geometry{})
	before, err := fs.Usage()
	require.NoError(t, err)

	require.NoError(t, fs.Create("a"))
	_, err = fs.Write("a", make([]byte, 1234))
	require.NoError(t, err)
	require.NoError(t, fs.Delete("a"))

	after, err := fs.Usage()
	require.NoError(t, err)
	require.Equal(t, before.Blocks, after.Blocks)
	require.Equal(t, before.Inodes, after.Inodes)
	requireConsistent(t, fs)
}

func TestDirectoryEmptiness(t *testing.T) {
	fs, _ := newFS(t, Geometry{})
	require.NoError(t, fs.Mkdir("empty"))
	require.NoError(t, fs.Delete("empty"))

	require.NoError(t, fs.Mkdir("full"))
	require.NoError(t, fs.Create("full/child"))
	require.ErrorIs(t, fs.Delete("full"), DirNotEmptyErr)

	require.NoError(t, fs.Delete("full/child"))
	require.NoError(t, fs.Delete("full"))
	requireConsistent(t, fs)
}

func TestDeleteDotEntries(t *testing.T) {
	fs, _ := newFS(t, Geometry{})
	require.NoError(t, fs.Mkdir("d"))
	for _, path := range []string{".", "..", "d/.", "d/..", "/"} {
		t.Run(path, func(t *testing.T) {
			require.ErrorIs(t, fs.Delete(path), InvalidNameErr)
		})
	}
	requireConsistent(t, fs)
}

func TestCapacityBoundary(t *testing.T) {
	fs, _ := newFS(t, Geometry{})
	g := DefaultGeometry()
	require.NoError(t, fs.Create("big"))

	_, err := fs.Write("big", make([]byte, g.MaxFileSize()+1))
	require.ErrorIs(t, err, FileTooLargeErr)

	payload := bytes.Repeat([]byte{0xab}, int(g.MaxFileSize()))
	n, err := fs.Write("big", payload)
	require.NoError(t, err)
	require.Equal(t, g.MaxFileSize(), n)

	stat, err := fs.Stat("big")
	require.NoError(t, err)
	require.Len(t, stat.Blocks, int(g.DirectPointers))
	for _, usage := range stat.Blocks {
		require.Equal(t, g.UsableBlockSize(), usage.BytesUsed)
	}
	require.Equal(t, Block(g.DirectPointers), stat.Inode.BlockCount)

	found, err := fs.Read("big")
	require.NoError(t, err)
	require.Equal(t, payload, found)
	requireConsistent(t, fs)
}

func TestNameUniqueness(t *testing.T) {
	fs, _ := newFS(t, Geometry{})
	require.NoError(t, fs.Create("x"))
	before, err := fs.List("")
	require.NoError(t, err)

	require.ErrorIs(t, fs.Create("x"), AlreadyExistsErr)
	require.ErrorIs(t, fs.Mkdir("x"), AlreadyExistsErr)

	after, err := fs.List("")
	require.NoError(t, err)
	require.Len(t, after, len(before))
	requireConsistent(t, fs)
}

func TestCreateInvalidNames(t *testing.T) {
	fs, _ := newFS(t, Geometry{})
	g := DefaultGeometry()
	for _, testCase := range []struct {
		name   string
		path   string
		wanted error
	}{
		{name: "empty", path: "", wanted: InvalidNameErr},
		{name: "root", path: "/", wanted: InvalidNameErr},
		{name: "dot", path: ".", wanted: InvalidNameErr},
		{name: "dotdot", path: "..", wanted: InvalidNameErr},
		{
			name:   "too long",
			path:   string(bytes.Repeat([]byte("n"), g.MaxNameLen()+1)),
			wanted: NameTooLongErr,
		},
		{name: "missing parent", path: "nope/a", wanted: NotFoundErr},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			if err := fs.Create(testCase.path); !errors.Is(err, testCase.wanted) {
				t.Fatalf("wanted `%v`; found `%v`", testCase.wanted, err)
			}
		})
	}

	longest := string(bytes.Repeat([]byte("n"), g.MaxNameLen()))
	require.NoError(t, fs.Create(longest))
	requireConsistent(t, fs)
}

func TestFileOpsOnDirectories(t *testing.T) {
	fs, _ := newFS(t, Geometry{})
	require.NoError(t, fs.Mkdir("d"))
	require.NoError(t, fs.Create("f"))

	_, err := fs.Write("d", []byte("x"))
	require.ErrorIs(t, err, IsADirErr)
	_, err = fs.Read("d")
	require.ErrorIs(t, err, IsADirErr)

	require.ErrorIs(t, fs.Create("f/child"), NotADirErr)
	_, err = fs.List("f")
	require.ErrorIs(t, err, NotADirErr)
	require.ErrorIs(t, fs.Chdir("f"), NotADirErr)
}

func TestNestedPaths(t *testing.T) {
	fs, _ := newFS(t, Geometry{})
	require.NoError(t, fs.Mkdir("a"))
	require.NoError(t, fs.Mkdir("/a/b"))
	require.NoError(t, fs.Create("a/b/c"))
	_, err := fs.Write("/a/b/c", []byte("nested"))
	require.NoError(t, err)

	found, err := fs.Read("a/./b/../b/c")
	require.NoError(t, err)
	require.Equal(t, "nested", string(found))

	require.NoError(t, fs.Chdir("a/b"))
	cwd, err := fs.Cwd()
	require.NoError(t, err)
	require.Equal(t, "/a/b", cwd)

	found, err = fs.Read("c")
	require.NoError(t, err)
	require.Equal(t, "nested", string(found))

	require.NoError(t, fs.Chdir(".."))
	cwd, err = fs.Cwd()
	require.NoError(t, err)
	require.Equal(t, "/a", cwd)

	entries, err := fs.List("b")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "c", entries[2].Name)
	require.Equal(t, FileTypeRegular, entries[2].FileType)
	require.Equal(t, Byte(len("nested")), entries[2].Size)
	requireConsistent(t, fs)
}

func TestCwdResetsOnMount(t *testing.T) {
	fs, _ := newFS(t, Geometry{})
	require.NoError(t, fs.Mkdir("a"))
	require.NoError(t, fs.Chdir("a"))
	require.NoError(t, fs.Mount())

	cwd, err := fs.Cwd()
	require.NoError(t, err)
	require.Equal(t, "/", cwd)
}

func TestDeleteCurrentDirectory(t *testing.T) {
	fs, _ := newFS(t, Geometry{})
	require.NoError(t, fs.Mkdir("a"))
	require.NoError(t, fs.Chdir("a"))
	require.NoError(t, fs.Delete("/a"))

	cwd, err := fs.Cwd()
	require.NoError(t, err)
	require.Equal(t, "/", cwd)
	requireConsistent(t, fs)
}

func TestModes(t *testing.T) {
	fs, _ := newFS(t, Geometry{})
	require.NoError(t, fs.Create("f"))
	require.NoError(t, fs.Mkdir("d"))

	stat, err := fs.Stat("f")
	require.NoError(t, err)
	require.Equal(t, ModeRegular, stat.Inode.Mode)
	require.Equal(t, NewTimestamp(now), stat.Inode.CTime)

	stat, err = fs.Stat("d")
	require.NoError(t, err)
	require.Equal(t, ModeDir, stat.Inode.Mode)
	require.Equal(t, FileTypeDir, stat.Inode.FileType)
}

func TestOutOfInodes(t *testing.T) {
	g := DefaultGeometry()
	g.BlockCount = 64
	g.InodeCount = 4
	fs, _ := newFS(t, g)

	require.NoError(t, fs.Create("a"))
	require.NoError(t, fs.Create("b"))
	require.ErrorIs(t, fs.Create("c"), OutOfInodesErr)

	entries, err := fs.List("/")
	require.NoError(t, err)
	require.Len(t, entries, 4)
	requireConsistent(t, fs)
}

func TestOutOfBlocks(t *testing.T) {
	g := DefaultGeometry()
	g.BlockCount = 64
	g.BlockCount = g.Layout().FirstDataBlock + 3
	fs, _ := newFS(t, g)

	// the root directory holds one of the three data blocks
	require.NoError(t, fs.Create("a"))
	_, err := fs.Write("a", make([]byte, 2*g.UsableBlockSize()))
	require.NoError(t, err)

	require.ErrorIs(t, fs.Mkdir("d"), OutOfBlocksErr)
	require.NoError(t, fs.Create("b"))
	_, err = fs.Write("b", []byte("x"))
	require.ErrorIs(t, err, OutOfBlocksErr)

	// a failed write leaves the previous content in place
	found, err := fs.Read("a")
	require.NoError(t, err)
	require.Len(t, found, int(2*g.UsableBlockSize()))
	requireConsistent(t, fs)

	// rewriting a file may reuse its own blocks
	_, err = fs.Write("a", make([]byte, g.UsableBlockSize()))
	require.NoError(t, err)
	_, err = fs.Write("b", []byte("x"))
	require.NoError(t, err)
	requireConsistent(t, fs)
}

func TestFlushFailureKeepsState(t *testing.T) {
	fs, store := newFS(t, Geometry{})
	store.PutErr = errors.New("disk on fire")

	require.Error(t, fs.Create("a"))
	store.PutErr = nil

	_, err := fs.Stat("a")
	require.NoError(t, err)
}

func TestUnmount(t *testing.T) {
	fs, store := newFS(t, Geometry{})
	require.NoError(t, fs.Create("a"))
	puts := store.Puts
	require.NoError(t, fs.Unmount())
	require.Equal(t, puts+1, store.Puts)
	require.False(t, fs.Mounted())

	require.NoError(t, fs.Mount())
	_, err := fs.Stat("a")
	require.NoError(t, err)
}

func TestUsage(t *testing.T) {
	fs, _ := newFS(t, Geometry{})
	g := DefaultGeometry()
	usage, err := fs.Usage()
	require.NoError(t, err)
	require.Equal(t, Byte(g.BlockCount)*g.BlockSize, usage.TotalBytes)
	require.Equal(t, usage.TotalBytes, usage.UsedBytes+usage.FreeBytes)
	require.InDelta(
		t,
		100*float64(usage.Blocks.Used)/float64(usage.Blocks.Total),
		usage.PercentUsed,
		1e-9,
	)
}
