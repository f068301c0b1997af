package objectstore

import (
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

type S3ObjectStore struct {
	Client s3iface.S3API
}

// NewS3ObjectStore builds a store from the default AWS credential chain.
func NewS3ObjectStore() (*S3ObjectStore, error) {
	sess, err := session.NewSession()
	if err != nil {
		return nil, fmt.Errorf("creating AWS session: %w", err)
	}
	return &S3ObjectStore{Client: s3.New(sess)}, nil
}

func (os *S3ObjectStore) PutObject(
	bucket string,
	key string,
	data io.ReadSeeker,
) error {
	if _, err := os.Client.PutObject(&s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   data,
	}); err != nil {
		return fmt.Errorf(
			"putting object in bucket `%s` at key `%s`: %w",
			bucket,
			key,
			err,
		)
	}
	return nil
}

func (os *S3ObjectStore) GetObject(bucket, key string) (io.ReadCloser, error) {
	rsp, err := os.Client.GetObject(&s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, &ObjectNotFoundErr{Bucket: bucket, Key: key}
		}
		return nil, fmt.Errorf(
			"getting object from bucket `%s` at key `%s`: %w",
			bucket,
			key,
			err,
		)
	}
	return rsp.Body, nil
}

func (os *S3ObjectStore) ListObjects(bucket, prefix string) ([]string, error) {
	var keys []string
	if err := os.Client.ListObjectsPages(
		&s3.ListObjectsInput{
			Bucket: &bucket,
			Prefix: &prefix,
		},
		func(rsp *s3.ListObjectsOutput, lastPage bool) bool {
			for _, object := range rsp.Contents {
				keys = append(keys, *object.Key)
			}
			return true
		},
	); err != nil {
		return keys, fmt.Errorf(
			"listing objects in bucket `%s` with prefix `%s`: %w",
			bucket,
			prefix,
			err,
		)
	}
	return keys, nil
}

// DeleteObject reports `ObjectNotFoundErr` when the key is absent. S3 itself
// treats deleting a missing key as success, so the key is probed first.
func (os *S3ObjectStore) DeleteObject(bucket, key string) error {
	if _, err := os.Client.HeadObject(&s3.HeadObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}); err != nil {
		if isNoSuchKey(err) {
			return &ObjectNotFoundErr{Bucket: bucket, Key: key}
		}
		return fmt.Errorf(
			"deleting object from bucket `%s` at key `%s`: %w",
			bucket,
			key,
			err,
		)
	}
	if _, err := os.Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}); err != nil {
		return fmt.Errorf(
			"deleting object from bucket `%s` at key `%s`: %w",
			bucket,
			key,
			err,
		)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	if err, ok := err.(awserr.Error); ok {
		// HeadObject has no body to carry `NoSuchKey` and reports `NotFound`.
		return err.Code() == s3.ErrCodeNoSuchKey || err.Code() == "NotFound"
	}
	return false
}
