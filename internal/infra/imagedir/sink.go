// Package imagedir persists selected frames as JPEG files in the project's
// images folder, named so lexical order matches temporal order.
package imagedir

import (
	"context"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/noy-dayan/Photogrammetry-CLI/internal/domain/entity"
)

const jpegQuality = 95

type Sink struct {
	dir string
}

// NewSink creates the output directory if needed and returns a sink writing
// into it.
func NewSink(dir string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory %s: %w", dir, err)
	}
	return &Sink{dir: dir}, nil
}

// WriteFrame encodes the frame to <dir>/frame_NNNN.jpg. seq is the position
// in the selection set, so files sort in acceptance order.
func (s *Sink) WriteFrame(ctx context.Context, seq int, frame *entity.Frame) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	path := filepath.Join(s.dir, fmt.Sprintf("frame_%04d.jpg", seq))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := jpeg.Encode(f, frame.Image, &jpeg.Options{Quality: jpegQuality}); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// WrittenFrames lists the image files currently in the sink directory.
func (s *Sink) WrittenFrames() ([]string, error) {
	pattern := filepath.Join(s.dir, "frame_*.jpg")
	frames, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob frames: %w", err)
	}
	return frames, nil
}
