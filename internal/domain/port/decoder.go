package port

import (
	"context"

	"github.com/noy-dayan/Photogrammetry-CLI/internal/domain/entity"
)

// FrameStream is a lazy, finite, forward-only sequence of decoded frames.
// Next returns io.EOF once the source is exhausted. Streams cannot be
// rewound; a frame not retained by the caller is gone.
type FrameStream interface {
	Next() (*entity.Frame, error)
	Close() error
}

// VideoDecoder opens a video file as a frame stream. Open fails if the file
// is unreadable or not a supported container.
type VideoDecoder interface {
	Open(ctx context.Context, videoPath string) (FrameStream, error)
}
