package port

import (
	"context"

	"github.com/noy-dayan/Photogrammetry-CLI/internal/domain/entity"
)

// FrameSink persists accepted frames. WriteFrame is called once per
// acceptance, in acceptance order; seq is the position within the selection
// set (0-based) and determines the artifact name.
type FrameSink interface {
	WriteFrame(ctx context.Context, seq int, frame *entity.Frame) error
}
