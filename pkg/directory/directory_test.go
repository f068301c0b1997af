package directory

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/weberc2/sfs/pkg/data"
	"github.com/weberc2/sfs/pkg/image"
	. "github.com/weberc2/sfs/pkg/types"
)

func newRoot(t *testing.T) *image.Image {
	img, err := image.New(DefaultGeometry(), 0, uuid.Nil)
	if err != nil {
		t.Fatalf("image.New(): unexpected err: %v", err)
	}
	root, err := img.AllocInode(0)
	if err != nil {
		t.Fatalf("Image.AllocInode(): unexpected err: %v", err)
	}
	if err := Init(img, root, root, 0); err != nil {
		t.Fatalf("Init(): unexpected err: %v", err)
	}
	img.Superblock.RootIno = root
	return img
}

func newChild(t *testing.T, img *image.Image, fileType FileType) Ino {
	ino, err := img.AllocInode(0)
	if err != nil {
		t.Fatalf("Image.AllocInode(): unexpected err: %v", err)
	}
	inode, _ := img.Inode(ino)
	inode.FileType = fileType
	return ino
}

func wantedError(wanted error) func(error) error {
	return func(found error) error {
		if !errors.Is(found, wanted) {
			return fmt.Errorf("wanted error `%v`; found `%v`", wanted, found)
		}
		return nil
	}
}

func TestInsert(t *testing.T) {
	type testCase struct {
		name          string
		state         *image.Image
		inputDir      Ino
		inputEntry    DirEntry
		wantedError   func(err error) error
		wantedEntries []DirEntry
	}

	testCases := []testCase{func() testCase {
		img := newRoot(t)
		child := newChild(t, img, FileTypeRegular)
		return testCase{
			name:       "simple",
			state:      img,
			inputDir:   InoRoot,
			inputEntry: DirEntry{Ino: child, FileType: FileTypeRegular, Name: "a"},
			wantedEntries: []DirEntry{
				{Ino: InoRoot, FileType: FileTypeDir, Name: "."},
				{Ino: InoRoot, FileType: FileTypeDir, Name: ".."},
				{Ino: child, FileType: FileTypeRegular, Name: "a"},
			},
		}
	}(), func() testCase {
		img := newRoot(t)
		child := newChild(t, img, FileTypeRegular)
		if err := Insert(img, InoRoot, DirEntry{
			Ino:      child,
			FileType: FileTypeRegular,
			Name:     "x",
		}, 0); err != nil {
			t.Fatalf("Insert(): unexpected err: %v", err)
		}
		return testCase{
			name:        "duplicate",
			state:       img,
			inputDir:    InoRoot,
			inputEntry:  DirEntry{Ino: child, FileType: FileTypeRegular, Name: "x"},
			wantedError: wantedError(AlreadyExistsErr),
			wantedEntries: []DirEntry{
				{Ino: InoRoot, FileType: FileTypeDir, Name: "."},
				{Ino: InoRoot, FileType: FileTypeDir, Name: ".."},
				{Ino: child, FileType: FileTypeRegular, Name: "x"},
			},
		}
	}(), func() testCase {
		img := newRoot(t)
		file := newChild(t, img, FileTypeRegular)
		return testCase{
			name:        "not-a-dir",
			state:       img,
			inputDir:    file,
			inputEntry:  DirEntry{Ino: InoRoot, FileType: FileTypeDir, Name: "y"},
			wantedError: wantedError(NotADirErr),
			wantedEntries: []DirEntry{
				{Ino: InoRoot, FileType: FileTypeDir, Name: "."},
				{Ino: InoRoot, FileType: FileTypeDir, Name: ".."},
			},
		}
	}(), func() testCase {
		img := newRoot(t)
		name := make([]byte, img.Geometry().NameSize)
		for i := range name {
			name[i] = 'n'
		}
		return testCase{
			name:        "name-too-long",
			state:       img,
			inputDir:    InoRoot,
			inputEntry:  DirEntry{Ino: 2, FileType: FileTypeRegular, Name: string(name)},
			wantedError: wantedError(NameTooLongErr),
			wantedEntries: []DirEntry{
				{Ino: InoRoot, FileType: FileTypeDir, Name: "."},
				{Ino: InoRoot, FileType: FileTypeDir, Name: ".."},
			},
		}
	}(), func() testCase {
		img := newRoot(t)
		return testCase{
			name:        "slash",
			state:       img,
			inputDir:    InoRoot,
			inputEntry:  DirEntry{Ino: 2, FileType: FileTypeRegular, Name: "a/b"},
			wantedError: wantedError(InvalidNameErr),
			wantedEntries: []DirEntry{
				{Ino: InoRoot, FileType: FileTypeDir, Name: "."},
				{Ino: InoRoot, FileType: FileTypeDir, Name: ".."},
			},
		}
	}()}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := Insert(
				tc.state,
				tc.inputDir,
				tc.inputEntry,
				0,
			); err != nil {
				if tc.wantedError == nil {
					t.Fatalf("Insert(): unexpected err: %v", err)
				}
				if err := tc.wantedError(err); err != nil {
					t.Fatal(err)
				}
			} else if tc.wantedError != nil {
				t.Fatal("Insert(): wanted error; found `nil`")
			}

			found, err := Entries(tc.state, InoRoot, 0)
			if err != nil {
				t.Fatalf("Entries(): unexpected err: %v", err)
			}
			compareEntries(t, tc.wantedEntries, found)
		})
	}
}

func TestRemove(t *testing.T) {
	img := newRoot(t)
	var inos []Ino
	for _, name := range []string{"a", "b", "c"} {
		ino := newChild(t, img, FileTypeRegular)
		inos = append(inos, ino)
		if err := Insert(img, InoRoot, DirEntry{
			Ino:      ino,
			FileType: FileTypeRegular,
			Name:     name,
		}, 0); err != nil {
			t.Fatalf("Insert(): unexpected err: %v", err)
		}
	}

	removed, err := Remove(img, InoRoot, "b", 0)
	if err != nil {
		t.Fatalf("Remove(): unexpected err: %v", err)
	}
	if removed.Ino != inos[1] {
		t.Fatalf("Remove(): wanted ino `%d`; found `%d`", inos[1], removed.Ino)
	}

	found, err := Entries(img, InoRoot, 0)
	if err != nil {
		t.Fatalf("Entries(): unexpected err: %v", err)
	}
	compareEntries(t, []DirEntry{
		{Ino: InoRoot, FileType: FileTypeDir, Name: "."},
		{Ino: InoRoot, FileType: FileTypeDir, Name: ".."},
		{Ino: inos[0], FileType: FileTypeRegular, Name: "a"},
		{Ino: inos[2], FileType: FileTypeRegular, Name: "c"},
	}, found)

	if _, err := Remove(img, InoRoot, "b", 0); !errors.Is(err, NotFoundErr) {
		t.Fatalf("Remove(): wanted `%v`; found `%v`", NotFoundErr, err)
	}
}

func TestLookup(t *testing.T) {
	img := newRoot(t)
	ino := newChild(t, img, FileTypeDir)
	if err := Init(img, ino, InoRoot, 0); err != nil {
		t.Fatalf("Init(): unexpected err: %v", err)
	}
	if err := Insert(img, InoRoot, DirEntry{
		Ino:      ino,
		FileType: FileTypeDir,
		Name:     "docs",
	}, 0); err != nil {
		t.Fatalf("Insert(): unexpected err: %v", err)
	}

	entry, err := Lookup(img, InoRoot, "docs", 0)
	if err != nil {
		t.Fatalf("Lookup(): unexpected err: %v", err)
	}
	if entry.Ino != ino || entry.FileType != FileTypeDir {
		t.Fatalf("Lookup(): wanted dir `%d`; found `%+v`", ino, entry)
	}

	parent, err := Lookup(img, ino, "..", 0)
	if err != nil {
		t.Fatalf("Lookup(): unexpected err: %v", err)
	}
	if parent.Ino != InoRoot {
		t.Fatalf("Lookup(`..`): wanted `%d`; found `%d`", InoRoot, parent.Ino)
	}

	if _, err := Lookup(img, InoRoot, "doc", 0); !errors.Is(err, NotFoundErr) {
		t.Fatalf("Lookup(): wanted `%v`; found `%v`", NotFoundErr, err)
	}
}

func TestEntriesRejectsMisalignedDirectory(t *testing.T) {
	img := newRoot(t)
	raw, err := data.ReadAll(img, InoRoot, 0)
	if err != nil {
		t.Fatalf("ReadAll(): unexpected err: %v", err)
	}
	if _, err := data.Write(img, InoRoot, raw[:len(raw)-1], 0); err != nil {
		t.Fatalf("Write(): unexpected err: %v", err)
	}
	if _, err := Entries(img, InoRoot, 0); !errors.Is(err, CorruptImageErr) {
		t.Fatalf("Entries(): wanted `%v`; found `%v`", CorruptImageErr, err)
	}
}

func TestInsertFullDirectory(t *testing.T) {
	img := newRoot(t)
	g := img.Geometry()
	capacity := int(g.MaxFileSize() / g.DirEntrySize())
	for i := 2; i < capacity; i++ {
		if err := Insert(img, InoRoot, DirEntry{
			Ino:      InoRoot,
			FileType: FileTypeDir,
			Name:     fmt.Sprintf("e%d", i),
		}, 0); err != nil {
			t.Fatalf("Insert(%d): unexpected err: %v", i, err)
		}
	}
	if err := Insert(img, InoRoot, DirEntry{
		Ino:      InoRoot,
		FileType: FileTypeDir,
		Name:     "overflow",
	}, 0); !errors.Is(err, FileTooLargeErr) {
		t.Fatalf("Insert(): wanted `%v`; found `%v`", FileTooLargeErr, err)
	}
}

func TestIsEmpty(t *testing.T) {
	if !IsEmpty([]DirEntry{{Name: "."}, {Name: ".."}}) {
		t.Fatal("IsEmpty(): wanted `true`; found `false`")
	}
	if IsEmpty([]DirEntry{{Name: "."}, {Name: ".."}, {Name: "x"}}) {
		t.Fatal("IsEmpty(): wanted `false`; found `true`")
	}
}

func compareEntries(t *testing.T, wanted, found []DirEntry) {
	t.Helper()
	if len(wanted) == len(found) {
		equal := true
		for i := range wanted {
			if wanted[i] != found[i] {
				equal = false
				break
			}
		}
		if equal {
			return
		}
	}
	w, err := json.Marshal(wanted)
	if err != nil {
		t.Fatalf("marshaling entries: %v", err)
	}
	f, err := json.Marshal(found)
	if err != nil {
		t.Fatalf("marshaling entries: %v", err)
	}
	t.Fatalf("wanted entries `%s`; found `%s`", w, f)
}
