package port

import "context"

// Archiver bundles files into a single archive at outputPath.
type Archiver interface {
	CreateZip(ctx context.Context, filePaths []string, outputPath string) error
}
