package selector

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noy-dayan/Photogrammetry-CLI/internal/domain/entity"
)

// fakeStream serves frames from a slice, optionally failing after a given
// number of pulls.
type fakeStream struct {
	frames   []*entity.Frame
	pos      int
	failAt   int
	failWith error
	closed   bool
}

func (s *fakeStream) Next() (*entity.Frame, error) {
	if s.failWith != nil && s.pos == s.failAt {
		return nil, s.failWith
	}
	if s.pos >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

// fakeSink records writes, optionally failing from a given sequence number.
type fakeSink struct {
	writes  []int // frame indices in write order
	seqs    []int
	failSeq int // -1 disables
}

func (s *fakeSink) WriteFrame(_ context.Context, seq int, frame *entity.Frame) error {
	if s.failSeq >= 0 && seq >= s.failSeq {
		return errors.New("disk full")
	}
	s.writes = append(s.writes, frame.Index)
	s.seqs = append(s.seqs, seq)
	return nil
}

func newFakeSink() *fakeSink {
	return &fakeSink{failSeq: -1}
}

func uniformFrame(index int, value uint8) *entity.Frame {
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = value
		img.Pix[i+1] = value
		img.Pix[i+2] = value
		img.Pix[i+3] = 255
	}
	return &entity.Frame{Index: index, Image: img}
}

func noiseFrame(index int, seed int64) *entity.Frame {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 255
	}
	return &entity.Frame{Index: index, Image: img}
}

func defaultPolicy() entity.SelectionPolicy {
	return entity.DefaultSelectionPolicy()
}

func runSelector(t *testing.T, policy entity.SelectionPolicy, stream *fakeStream, sink *fakeSink) (entity.SelectionResult, error) {
	t.Helper()
	sel, err := New(policy, sink, zap.NewNop())
	require.NoError(t, err)
	return sel.Run(context.Background(), stream)
}

func TestIdenticalFramesOnlySeedSelected(t *testing.T) {
	// Ten pixel-identical frames: everything after the seed fails the
	// dissimilarity test.
	frames := make([]*entity.Frame, 10)
	for i := range frames {
		frames[i] = uniformFrame(i, 128)
	}

	sink := newFakeSink()
	result, err := runSelector(t, defaultPolicy(), &fakeStream{frames: frames}, sink)
	require.NoError(t, err)

	assert.Equal(t, []int{0}, result.SelectedIndices)
	assert.Equal(t, 10, result.Scanned)
	assert.Equal(t, 9, result.RejectedBySSIM)
	assert.Equal(t, []int{0}, sink.writes)
}

func TestUnrelatedNoiseFramesAllSelected(t *testing.T) {
	// Successive frames of unrelated noise: pairwise SSIM near zero and
	// almost no stable pixels, so every frame is admitted in order.
	frames := make([]*entity.Frame, 10)
	for i := range frames {
		frames[i] = noiseFrame(i, int64(i)*7919+1)
	}

	sink := newFakeSink()
	result, err := runSelector(t, defaultPolicy(), &fakeStream{frames: frames}, sink)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, result.SelectedIndices)
	assert.Equal(t, 10, result.Scanned)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, sink.writes)
}

func TestBudgetStopsScanEarly(t *testing.T) {
	// 1000 admissible frames with max_frames=3: exactly three selections
	// and the stream is not scanned to the end.
	frames := make([]*entity.Frame, 1000)
	for i := range frames {
		frames[i] = noiseFrame(i, int64(i)*104729+3)
	}

	policy := defaultPolicy()
	policy.MaxFrames = 3

	stream := &fakeStream{frames: frames}
	result, err := runSelector(t, policy, stream, newFakeSink())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Selected())
	assert.Equal(t, []int{0, 1, 2}, result.SelectedIndices)
	assert.Less(t, result.Scanned, 1000)
}

func TestEmptyStreamIsSuccess(t *testing.T) {
	result, err := runSelector(t, defaultPolicy(), &fakeStream{}, newFakeSink())
	require.NoError(t, err)
	assert.Empty(t, result.SelectedIndices)
	assert.Zero(t, result.Scanned)
}

func TestSingleFrameYieldsSeed(t *testing.T) {
	stream := &fakeStream{frames: []*entity.Frame{uniformFrame(0, 50)}}
	result, err := runSelector(t, defaultPolicy(), stream, newFakeSink())
	require.NoError(t, err)
	assert.Equal(t, []int{0}, result.SelectedIndices)
}

func TestZeroBudgetSkipsSeed(t *testing.T) {
	policy := defaultPolicy()
	policy.MaxFrames = 0

	stream := &fakeStream{frames: []*entity.Frame{uniformFrame(0, 50)}}
	result, err := runSelector(t, policy, stream, newFakeSink())
	require.NoError(t, err)

	assert.Empty(t, result.SelectedIndices)
	assert.Zero(t, result.Scanned, "budget of zero must not pull any frames")
}

func TestReferenceOnlyAdvancesOnAcceptance(t *testing.T) {
	// Frame 1 is near-identical to the seed and is rejected; frame 2 is a
	// different uniform level and is accepted; frame 3 repeats frame 2's
	// content and must be rejected against the new reference.
	frames := []*entity.Frame{
		uniformFrame(0, 100),
		uniformFrame(1, 101),
		uniformFrame(2, 200),
		uniformFrame(3, 200),
	}

	result, err := runSelector(t, defaultPolicy(), &fakeStream{frames: frames}, newFakeSink())
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2}, result.SelectedIndices)
}

func TestSelectedIndicesStrictlyIncreasing(t *testing.T) {
	frames := make([]*entity.Frame, 50)
	for i := range frames {
		if i%3 == 0 {
			frames[i] = noiseFrame(i, int64(i)+11)
		} else {
			frames[i] = uniformFrame(i, 128)
		}
	}

	result, err := runSelector(t, defaultPolicy(), &fakeStream{frames: frames}, newFakeSink())
	require.NoError(t, err)

	require.NotEmpty(t, result.SelectedIndices)
	assert.Equal(t, 0, result.SelectedIndices[0], "first selection is always the seed")
	for i := 1; i < len(result.SelectedIndices); i++ {
		assert.Greater(t, result.SelectedIndices[i], result.SelectedIndices[i-1])
	}
	assert.LessOrEqual(t, result.Selected(), 100)
}

func TestIdempotentAcrossRuns(t *testing.T) {
	makeFrames := func() []*entity.Frame {
		frames := make([]*entity.Frame, 30)
		for i := range frames {
			frames[i] = noiseFrame(i, int64(i)*31+5)
		}
		return frames
	}

	first, err := runSelector(t, defaultPolicy(), &fakeStream{frames: makeFrames()}, newFakeSink())
	require.NoError(t, err)
	second, err := runSelector(t, defaultPolicy(), &fakeStream{frames: makeFrames()}, newFakeSink())
	require.NoError(t, err)

	assert.Equal(t, first.SelectedIndices, second.SelectedIndices)
}

func TestMidStreamDecodeErrorReportsPartialProgress(t *testing.T) {
	frames := make([]*entity.Frame, 5)
	for i := range frames {
		frames[i] = noiseFrame(i, int64(i)*13+2)
	}

	stream := &fakeStream{
		frames:   frames,
		failAt:   3,
		failWith: errors.New("corrupt packet"),
	}

	sink := newFakeSink()
	result, err := runSelector(t, defaultPolicy(), stream, sink)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt packet")

	// Everything accepted before the failure stays written.
	assert.Equal(t, []int{0, 1, 2}, result.SelectedIndices)
	assert.Equal(t, []int{0, 1, 2}, sink.writes)
}

func TestSinkWriteErrorReportsPartialProgress(t *testing.T) {
	frames := make([]*entity.Frame, 5)
	for i := range frames {
		frames[i] = noiseFrame(i, int64(i)*17+9)
	}

	sink := newFakeSink()
	sink.failSeq = 2

	result, err := runSelector(t, defaultPolicy(), &fakeStream{frames: frames}, sink)
	require.Error(t, err)
	assert.Equal(t, []int{0, 1}, result.SelectedIndices)
}

func TestMismatchedFrameDimensionsFail(t *testing.T) {
	small := &entity.Frame{Index: 1, Image: image.NewRGBA(image.Rect(0, 0, 32, 32))}
	frames := []*entity.Frame{uniformFrame(0, 100), small}

	_, err := runSelector(t, defaultPolicy(), &fakeStream{frames: frames}, newFakeSink())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimensions")
}

func TestOverlapConditionRejectsIndependently(t *testing.T) {
	// A frame can be dissimilar enough yet still overlap too much: keep
	// most pixels identical to the seed and scramble a thin band hard
	// enough to drag SSIM down.
	seed := uniformFrame(0, 100)

	band := uniformFrame(1, 100)
	rng := rand.New(rand.NewSource(99))
	for y := 0; y < 10; y++ {
		for x := 0; x < 64; x++ {
			off := band.Image.PixOffset(x, y)
			v := uint8(rng.Intn(256))
			band.Image.Pix[off] = v
			band.Image.Pix[off+1] = v
			band.Image.Pix[off+2] = v
		}
	}

	policy := defaultPolicy()
	policy.SSIMThreshold = 0.999 // dissimilarity condition trivially satisfied

	result, err := runSelector(t, policy, &fakeStream{frames: []*entity.Frame{seed, band}}, newFakeSink())
	require.NoError(t, err)

	assert.Equal(t, []int{0}, result.SelectedIndices)
	assert.Equal(t, 1, result.RejectedByOverlap)
	assert.Zero(t, result.RejectedBySSIM)
}

func TestInvalidPolicyRejected(t *testing.T) {
	cases := []entity.SelectionPolicy{
		{MaxFrames: -1, MaxOverlapPercent: 6, SSIMThreshold: 0.95},
		{MaxFrames: 10, MaxOverlapPercent: 101, SSIMThreshold: 0.95},
		{MaxFrames: 10, MaxOverlapPercent: 6, SSIMThreshold: 1.5},
	}
	for i, policy := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			_, err := New(policy, newFakeSink(), zap.NewNop())
			assert.Error(t, err)
		})
	}
}
