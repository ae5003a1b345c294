package entity

import "errors"

var (
	ErrInvalidMaxFrames     = errors.New("max_frames must be non-negative")
	ErrInvalidOverlap       = errors.New("max_overlap_percentage must be in [0,100]")
	ErrInvalidSSIMThreshold = errors.New("ssim_threshold must be in [0,1]")
)
