package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"pantry-service/internal/apperr"
)

// GCSStore keeps images in a public Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{client: client, bucket: bucket}
}

func (s *GCSStore) Save(ctx context.Context, key, contentType string, data []byte) (string, string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", "", err
	}
	wc := s.client.Bucket(s.bucket).Object(cleanKey).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", "", apperr.Wrap(err, "storage: writing object")
	}
	// Upload errors surface on Close.
	if err := wc.Close(); err != nil {
		return "", "", apperr.Wrap(err, "storage: closing object writer")
	}
	return cleanKey, fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, cleanKey), nil
}

func (s *GCSStore) Read(ctx context.Context, ref string) ([]byte, error) {
	rc, err := s.client.Bucket(s.bucket).Object(ref).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, apperr.Wrapf(apperr.ErrNotFound, "storage: %s", ref)
		}
		return nil, apperr.Wrap(err, "storage: opening object")
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, apperr.Wrap(err, "storage: reading object")
	}
	return data, nil
}
