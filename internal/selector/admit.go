package selector

import "github.com/noy-dayan/Photogrammetry-CLI/internal/domain/entity"

// Admit is the admission rule for a candidate frame: accept only when the
// candidate is structurally dissimilar enough from the reference AND its
// estimated spatial overlap stays within bounds. dissimilarity is
// 1 - clamped SSIM, in [0,1]; overlapPct is in [0,100].
func Admit(dissimilarity, overlapPct float64, policy entity.SelectionPolicy) bool {
	if dissimilarity < 1-policy.SSIMThreshold {
		return false
	}
	return overlapPct <= policy.MaxOverlapPercent
}
