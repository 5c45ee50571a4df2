// Package storage persists uploaded images where the detection worker and
// clients can reach them.
package storage

import "context"

// ImageStore saves bytes under a key and reads them back by the returned
// reference. The URL is what clients are shown.
type ImageStore interface {
	Save(ctx context.Context, key, contentType string, data []byte) (ref, url string, err error)
	Read(ctx context.Context, ref string) ([]byte, error)
}
