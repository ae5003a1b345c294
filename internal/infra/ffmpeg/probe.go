package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// VideoInfo describes the first video stream of a container.
type VideoInfo struct {
	Width  int
	Height int
}

// probeVideo asks ffprobe for the dimensions of the first video stream.
// A file without a video stream, or one ffprobe cannot read, is rejected
// here before any decoding starts.
func probeVideo(ctx context.Context, ffprobePath, videoPath string) (VideoInfo, error) {
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return VideoInfo{}, fmt.Errorf("ffprobe %s: %w", videoPath, err)
	}

	dims := strings.TrimSpace(string(output))
	parts := strings.Split(dims, "x")
	if len(parts) != 2 {
		return VideoInfo{}, fmt.Errorf("no video stream found in %s", videoPath)
	}

	width, err := strconv.Atoi(parts[0])
	if err != nil {
		return VideoInfo{}, fmt.Errorf("parse stream width %q: %w", parts[0], err)
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil {
		return VideoInfo{}, fmt.Errorf("parse stream height %q: %w", parts[1], err)
	}
	if width <= 0 || height <= 0 {
		return VideoInfo{}, fmt.Errorf("invalid stream dimensions %dx%d in %s", width, height, videoPath)
	}

	return VideoInfo{Width: width, Height: height}, nil
}
