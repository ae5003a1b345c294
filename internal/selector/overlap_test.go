package selector

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverlapIdenticalImages(t *testing.T) {
	img := noiseGray(64, 48, 10)
	assert.Equal(t, 100.0, OverlapPercent(img, img))
}

func TestOverlapWithinTolerance(t *testing.T) {
	// Codec-level jitter of up to two gray levels still counts as the
	// same content.
	a := uniformGray(64, 48, 100)
	b := uniformGray(64, 48, 102)
	assert.Equal(t, 100.0, OverlapPercent(a, b))
}

func TestOverlapFullyDifferent(t *testing.T) {
	a := uniformGray(64, 48, 0)
	b := uniformGray(64, 48, 255)
	assert.Equal(t, 0.0, OverlapPercent(a, b))
}

func TestOverlapHalfChanged(t *testing.T) {
	a := uniformGray(64, 48, 50)
	b := uniformGray(64, 48, 50)
	for y := 0; y < 24; y++ {
		for x := 0; x < 64; x++ {
			b.SetGray(x, y, color.Gray{Y: 200})
		}
	}
	assert.InDelta(t, 50.0, OverlapPercent(a, b), 0.01)
}
