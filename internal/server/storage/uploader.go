// Package storage implements the media-upload collaborator: staged local
// files are persisted to S3-compatible object storage and exposed by URL.
package storage

import "context"

// Uploader persists a staged local media file to durable storage and returns
// its public URL. Implementations must delete the local file on both success
// and failure so abandoned uploads cannot accumulate on disk.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}
