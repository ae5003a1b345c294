package ffmpeg

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawFrames(count, width, height int) []byte {
	frameSize := width * height * 4
	buf := make([]byte, count*frameSize)
	for f := 0; f < count; f++ {
		for i := 0; i < frameSize; i++ {
			buf[f*frameSize+i] = byte(f)
		}
	}
	return buf
}

func TestRawStreamParsesFrames(t *testing.T) {
	data := rawFrames(2, 4, 3)
	s := &rawStream{r: bytes.NewReader(data), width: 4, height: 3}

	first, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, 4, first.Image.Bounds().Dx())
	assert.Equal(t, 3, first.Image.Bounds().Dy())
	assert.Equal(t, uint8(0), first.Image.Pix[0])

	second, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, second.Index)
	assert.Equal(t, uint8(1), second.Image.Pix[0])

	_, err = s.Next()
	assert.True(t, errors.Is(err, io.EOF))

	// Exhausted streams stay exhausted.
	_, err = s.Next()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestRawStreamTruncatedFrame(t *testing.T) {
	data := rawFrames(1, 4, 3)
	data = append(data, 0x01, 0x02) // trailing partial frame

	s := &rawStream{r: bytes.NewReader(data), width: 4, height: 3}

	_, err := s.Next()
	require.NoError(t, err)

	_, err = s.Next()
	require.Error(t, err)
	assert.False(t, errors.Is(err, io.EOF))
	assert.Contains(t, err.Error(), "read frame 1")
}

func TestRawStreamEmpty(t *testing.T) {
	s := &rawStream{r: bytes.NewReader(nil), width: 4, height: 3}
	_, err := s.Next()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestRawStreamCloseWithoutProcess(t *testing.T) {
	s := &rawStream{r: bytes.NewReader(nil), width: 1, height: 1}
	assert.NoError(t, s.Close())
}
