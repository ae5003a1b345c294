package selector

import "image"

// overlapTolerance is the per-pixel luma delta below which two pixels count
// as showing the same content. Lossy video codecs jitter flat regions by a
// couple of gray levels, which a strict non-zero test would misread as new
// content.
const overlapTolerance = 2

// OverlapPercent estimates, in [0,100], how much of the candidate's visible
// content spatially overlaps the reference. The estimate is the share of
// pixels whose luma difference stays within overlapTolerance: unchanged
// pixels mean the camera is still looking at the same scene region.
func OverlapPercent(a, b *image.Gray) float64 {
	w := a.Bounds().Dx()
	h := a.Bounds().Dy()
	total := w * h
	if total == 0 {
		return 0
	}

	changed := 0
	for y := 0; y < h; y++ {
		rowA := a.Pix[y*a.Stride : y*a.Stride+w]
		rowB := b.Pix[y*b.Stride : y*b.Stride+w]
		for i := 0; i < w; i++ {
			d := int(rowA[i]) - int(rowB[i])
			if d < 0 {
				d = -d
			}
			if d > overlapTolerance {
				changed++
			}
		}
	}

	return float64(total-changed) / float64(total) * 100
}
