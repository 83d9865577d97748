// Package storage provides blob storage for indiagram media files.
package storage

import "context"

// BlobStore holds media blobs keyed by bucket and object key. Objects are
// write-once: uploading over an existing key fails with ErrorConflict, and
// downloading an absent key fails with ErrorNotFound.
type BlobStore interface {
	Upload(ctx context.Context, bucket, key string, content []byte) error
	Download(ctx context.Context, bucket, key string) ([]byte, error)
}
