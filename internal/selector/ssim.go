package selector

import "image"

// Structural similarity index over 8x8 windows with the standard
// K1=0.01, K2=0.03 stabilizers for 8-bit dynamic range.
const (
	ssimWindow = 8
	ssimC1     = 6.5025  // (0.01 * 255)^2
	ssimC2     = 58.5225 // (0.03 * 255)^2
)

// SSIM computes the mean structural similarity of two equally-sized
// grayscale images. The raw index lies in [-1,1]; callers clamp to [0,1]
// before applying the admission policy.
func SSIM(a, b *image.Gray) float64 {
	w := a.Bounds().Dx()
	h := a.Bounds().Dy()
	if w == 0 || h == 0 {
		return 1
	}

	var sum float64
	var windows int

	for y := 0; y < h; y += ssimWindow {
		for x := 0; x < w; x += ssimWindow {
			ww := min(ssimWindow, w-x)
			wh := min(ssimWindow, h-y)
			sum += windowSSIM(a, b, x, y, ww, wh)
			windows++
		}
	}

	return sum / float64(windows)
}

// Clamp01 maps the raw SSIM range onto the [0,1] similarity scale used by
// the admission rule.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func windowSSIM(a, b *image.Gray, x0, y0, w, h int) float64 {
	n := float64(w * h)

	var sumA, sumB float64
	for y := y0; y < y0+h; y++ {
		rowA := a.Pix[y*a.Stride+x0 : y*a.Stride+x0+w]
		rowB := b.Pix[y*b.Stride+x0 : y*b.Stride+x0+w]
		for i := 0; i < w; i++ {
			sumA += float64(rowA[i])
			sumB += float64(rowB[i])
		}
	}
	muA := sumA / n
	muB := sumB / n

	var varA, varB, cov float64
	for y := y0; y < y0+h; y++ {
		rowA := a.Pix[y*a.Stride+x0 : y*a.Stride+x0+w]
		rowB := b.Pix[y*b.Stride+x0 : y*b.Stride+x0+w]
		for i := 0; i < w; i++ {
			da := float64(rowA[i]) - muA
			db := float64(rowB[i]) - muB
			varA += da * da
			varB += db * db
			cov += da * db
		}
	}
	varA /= n
	varB /= n
	cov /= n

	num := (2*muA*muB + ssimC1) * (2*cov + ssimC2)
	den := (muA*muA + muB*muB + ssimC1) * (varA + varB + ssimC2)
	return num / den
}
