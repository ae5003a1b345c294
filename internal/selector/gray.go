package selector

import (
	"image"
	"image/color"
)

// grayscale converts a decoded frame to 8-bit luma. Both admission metrics
// operate on luma, matching the grayscale comparison the policy is tuned
// for.
func grayscale(src *image.RGBA) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dst.Set(x, y, color.GrayModel.Convert(src.At(x, y)))
		}
	}
	return dst
}
