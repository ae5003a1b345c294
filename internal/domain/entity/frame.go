package entity

import "image"

// Frame is a single decoded video frame. Index is the ordinal position in
// the source video, starting at 0 and strictly increasing along the stream.
type Frame struct {
	Index int
	Image *image.RGBA
}

// SelectionPolicy holds the admission parameters for one frame-selection
// run. Immutable once the run starts.
type SelectionPolicy struct {
	// MaxFrames caps the size of the selection set. Zero means nothing is
	// selected, not even the seed frame.
	MaxFrames int

	// MaxOverlapPercent is the largest estimated spatial overlap, in
	// [0,100], a candidate may have with the reference frame.
	MaxOverlapPercent float64

	// SSIMThreshold is the structural similarity above which a candidate is
	// considered redundant, in [0,1].
	SSIMThreshold float64
}

// DefaultSelectionPolicy returns the policy used when the caller supplies no
// overrides.
func DefaultSelectionPolicy() SelectionPolicy {
	return SelectionPolicy{
		MaxFrames:         100,
		MaxOverlapPercent: 6,
		SSIMThreshold:     0.95,
	}
}

// Validate checks the policy ranges.
func (p SelectionPolicy) Validate() error {
	if p.MaxFrames < 0 {
		return ErrInvalidMaxFrames
	}
	if p.MaxOverlapPercent < 0 || p.MaxOverlapPercent > 100 {
		return ErrInvalidOverlap
	}
	if p.SSIMThreshold < 0 || p.SSIMThreshold > 1 {
		return ErrInvalidSSIMThreshold
	}
	return nil
}

// SelectionResult reports the outcome of one frame-selection run.
type SelectionResult struct {
	// SelectedIndices are the source ordinals of the accepted frames, in
	// acceptance order.
	SelectedIndices []int

	// Scanned is the total number of frames pulled from the decoder.
	Scanned int

	// RejectedBySSIM counts candidates that failed the structural
	// dissimilarity condition.
	RejectedBySSIM int

	// RejectedByOverlap counts candidates that passed the dissimilarity
	// condition but exceeded the overlap bound.
	RejectedByOverlap int
}

// Selected is the number of frames accepted into the selection set.
func (r SelectionResult) Selected() int {
	return len(r.SelectedIndices)
}
