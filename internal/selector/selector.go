// Package selector implements the frame-selection pass behind video2images:
// a single greedy forward walk over a decoded frame stream that admits a
// bounded, low-redundancy subset of frames for photogrammetric
// reconstruction.
package selector

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/noy-dayan/Photogrammetry-CLI/internal/domain/entity"
	"github.com/noy-dayan/Photogrammetry-CLI/internal/domain/port"
)

// Selector walks a frame stream and writes every accepted frame to the
// sink. Candidates are always compared against the last accepted frame, not
// the last seen one, so the redundancy bound holds between consecutive
// selections even across long rejection runs.
type Selector struct {
	policy entity.SelectionPolicy
	sink   port.FrameSink
	logger *zap.Logger
}

func New(policy entity.SelectionPolicy, sink port.FrameSink, logger *zap.Logger) (*Selector, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid selection policy: %w", err)
	}
	return &Selector{policy: policy, sink: sink, logger: logger}, nil
}

// Run consumes the stream until the frame budget is filled or the stream
// ends. Mid-stream decode or write failures return the partial result
// alongside the error; frames already written stay on disk.
func (s *Selector) Run(ctx context.Context, stream port.FrameStream) (entity.SelectionResult, error) {
	result := entity.SelectionResult{}

	// Budget of zero exhausts the selection before the seed step.
	if s.policy.MaxFrames == 0 {
		return result, nil
	}

	seed, err := stream.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			// Zero decodable frames is a successful empty run.
			return result, nil
		}
		return result, fmt.Errorf("decode first frame: %w", err)
	}
	result.Scanned++

	if err := s.sink.WriteFrame(ctx, 0, seed); err != nil {
		return result, fmt.Errorf("write seed frame: %w", err)
	}
	result.SelectedIndices = append(result.SelectedIndices, seed.Index)
	reference := grayscale(seed.Image)
	s.logger.Debug("seed frame accepted", zap.Int("frame_index", seed.Index))

	for result.Selected() < s.policy.MaxFrames {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		candidate, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return result, nil
			}
			return result, fmt.Errorf("decode frame after %d selected: %w", result.Selected(), err)
		}
		result.Scanned++

		candGray := grayscale(candidate.Image)
		if !candGray.Bounds().Eq(reference.Bounds()) {
			return result, fmt.Errorf("frame %d dimensions %v differ from reference %v",
				candidate.Index, candGray.Bounds().Size(), reference.Bounds().Size())
		}

		dissimilarity := 1 - Clamp01(SSIM(candGray, reference))
		overlap := OverlapPercent(candGray, reference)

		if !Admit(dissimilarity, overlap, s.policy) {
			if dissimilarity < 1-s.policy.SSIMThreshold {
				result.RejectedBySSIM++
			} else {
				result.RejectedByOverlap++
			}
			s.logger.Debug("frame rejected",
				zap.Int("frame_index", candidate.Index),
				zap.Float64("dissimilarity", dissimilarity),
				zap.Float64("overlap_pct", overlap),
			)
			continue
		}

		if err := s.sink.WriteFrame(ctx, result.Selected(), candidate); err != nil {
			return result, fmt.Errorf("write frame %d: %w", candidate.Index, err)
		}
		result.SelectedIndices = append(result.SelectedIndices, candidate.Index)
		reference = candGray

		s.logger.Debug("frame accepted",
			zap.Int("frame_index", candidate.Index),
			zap.Int("selected", result.Selected()),
			zap.Float64("dissimilarity", dissimilarity),
			zap.Float64("overlap_pct", overlap),
		)
	}

	// Budget filled before the stream ended; a normal outcome.
	return result, nil
}
