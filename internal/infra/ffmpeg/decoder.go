// Package ffmpeg adapts the ffmpeg/ffprobe binaries into the video decoder
// port: a lazy, forward-only stream of decoded RGBA frames read off an
// image pipe.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"

	"go.uber.org/zap"

	"github.com/noy-dayan/Photogrammetry-CLI/internal/domain/entity"
	"github.com/noy-dayan/Photogrammetry-CLI/internal/domain/port"
)

type Decoder struct {
	ffmpegPath  string
	ffprobePath string
	logger      *zap.Logger
}

func NewDecoder(ffmpegPath, ffprobePath string, logger *zap.Logger) *Decoder {
	return &Decoder{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath, logger: logger}
}

// Open validates the video and starts an ffmpeg process that writes raw
// RGBA frames to stdout. Frames are decoded one at a time as the caller
// pulls them; the stream cannot be rewound.
func (d *Decoder) Open(ctx context.Context, videoPath string) (port.FrameStream, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("video file %s: %w", videoPath, err)
	}

	info, err := probeVideo(ctx, d.ffprobePath, videoPath)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, d.ffmpegPath,
		"-i", videoPath,
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	d.logger.Debug("decoder started",
		zap.String("video", videoPath),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height),
	)

	return &rawStream{
		r:      stdout,
		width:  info.Width,
		height: info.Height,
		close: func() error {
			stdout.Close()
			if err := cmd.Wait(); err != nil {
				return fmt.Errorf("ffmpeg: %w, stderr: %s", err, stderr.String())
			}
			return nil
		},
	}, nil
}

// rawStream parses fixed-size RGBA frames off a byte stream.
type rawStream struct {
	r      io.Reader
	width  int
	height int
	next   int
	done   bool
	close  func() error
}

func (s *rawStream) Next() (*entity.Frame, error) {
	if s.done {
		return nil, io.EOF
	}

	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	n, err := io.ReadFull(s.r, img.Pix)
	if err != nil {
		if err == io.EOF || (err == io.ErrUnexpectedEOF && n == 0) {
			s.done = true
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame %d: %w", s.next, err)
	}

	frame := &entity.Frame{Index: s.next, Image: img}
	s.next++
	return frame, nil
}

func (s *rawStream) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
