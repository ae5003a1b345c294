// Package cloudcompare adapts the CloudCompare binary into the alignment
// engine port: ICP registration of two point clouds followed by a merge.
package cloudcompare

import (
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

type Engine struct {
	binPath string
	logger  *zap.Logger
}

func NewEngine(binPath string, logger *zap.Logger) *Engine {
	return &Engine{binPath: binPath, logger: logger}
}

func (e *Engine) CombinePointClouds(ctx context.Context, cloud1Path, cloud2Path, outputPath string) error {
	e.logger.Info("aligning point clouds",
		zap.String("cloud1", cloud1Path),
		zap.String("cloud2", cloud2Path),
		zap.String("output", outputPath),
	)

	cmd := exec.CommandContext(ctx, e.binPath,
		"-SILENT",
		"-O", cloud1Path,
		"-O", cloud2Path,
		"-ICP",
		"-MERGE_CLOUDS",
		"-C_EXPORT_FMT", "PLY",
		"-SAVE_CLOUDS", "FILE", outputPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("cloudcompare icp merge: %w, output: %s", err, string(output))
	}

	e.logger.Info("combined point cloud saved", zap.String("output", outputPath))
	return nil
}
