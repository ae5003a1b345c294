package port

import (
	"context"
	"io"
)

// ArtifactStore uploads run artifacts to remote storage.
type ArtifactStore interface {
	UploadArchive(ctx context.Context, objectKey string, reader io.Reader, size int64) error
}
