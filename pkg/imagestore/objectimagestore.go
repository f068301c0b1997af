package imagestore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/weberc2/sfs/pkg/objectstore"
	. "github.com/weberc2/sfs/pkg/types"
)

// ObjectImageStore keeps the image as a single object. Snapshots are copies
// of the image stored under `<Key>.snapshots/<id>`.
type ObjectImageStore struct {
	ObjectStore objectstore.ObjectStore
	Bucket      string
	Key         string
}

// NewObjectImageStore derives the object key from a human volume name, e.g.
// "My Disk" is stored at "my-disk.img".
func NewObjectImageStore(
	store objectstore.ObjectStore,
	bucket string,
	volume string,
) *ObjectImageStore {
	return &ObjectImageStore{
		ObjectStore: store,
		Bucket:      bucket,
		Key:         VolumeKey(volume),
	}
}

func VolumeKey(volume string) string { return slug.Make(volume) + ".img" }

func (ois *ObjectImageStore) PutImage(data []byte) error {
	if err := ois.ObjectStore.PutObject(
		ois.Bucket,
		ois.Key,
		bytes.NewReader(data),
	); err != nil {
		return fmt.Errorf("storing image: %w", err)
	}
	return nil
}

func (ois *ObjectImageStore) GetImage() ([]byte, error) {
	data, err := ois.get(ois.Key)
	if err != nil {
		return nil, fmt.Errorf("fetching image: %w", err)
	}
	return data, nil
}

func (ois *ObjectImageStore) get(key string) ([]byte, error) {
	body, err := ois.ObjectStore.GetObject(ois.Bucket, key)
	if err != nil {
		var notFound *objectstore.ObjectNotFoundErr
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %w", NoImageErr, err)
		}
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading object `%s`: %w", key, err)
	}
	return data, nil
}

func (ois *ObjectImageStore) snapshotPrefix() string {
	return ois.Key + ".snapshots/"
}

// Snapshot copies the current image and returns the snapshot id.
func (ois *ObjectImageStore) Snapshot() (string, error) {
	data, err := ois.get(ois.Key)
	if err != nil {
		return "", fmt.Errorf("snapshotting image: %w", err)
	}
	id := uuid.New().String()
	if err := ois.ObjectStore.PutObject(
		ois.Bucket,
		ois.snapshotPrefix()+id,
		bytes.NewReader(data),
	); err != nil {
		return "", fmt.Errorf("snapshotting image: %w", err)
	}
	return id, nil
}

// Snapshots lists snapshot ids in lexical order.
func (ois *ObjectImageStore) Snapshots() ([]string, error) {
	keys, err := ois.ObjectStore.ListObjects(ois.Bucket, ois.snapshotPrefix())
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, strings.TrimPrefix(key, ois.snapshotPrefix()))
	}
	sort.Strings(ids)
	return ids, nil
}

// RestoreSnapshot replaces the current image with the snapshot's contents.
func (ois *ObjectImageStore) RestoreSnapshot(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("restoring snapshot `%s`: %w", id, NotFoundErr)
	}
	data, err := ois.get(ois.snapshotPrefix() + id)
	if err != nil {
		return fmt.Errorf("restoring snapshot `%s`: %w", id, err)
	}
	if err := ois.PutImage(data); err != nil {
		return fmt.Errorf("restoring snapshot `%s`: %w", id, err)
	}
	return nil
}

func (ois *ObjectImageStore) DeleteSnapshot(id string) error {
	if err := ois.ObjectStore.DeleteObject(
		ois.Bucket,
		ois.snapshotPrefix()+id,
	); err != nil {
		var notFound *objectstore.ObjectNotFoundErr
		if errors.As(err, &notFound) {
			return fmt.Errorf("deleting snapshot `%s`: %w", id, NotFoundErr)
		}
		return fmt.Errorf("deleting snapshot `%s`: %w", id, err)
	}
	return nil
}
