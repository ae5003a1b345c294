package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/noy-dayan/Photogrammetry-CLI/internal/domain/port"
	"github.com/noy-dayan/Photogrammetry-CLI/internal/infra/metrics"
)

// CombinePointCloudsUseCase validates the input clouds and delegates the
// ICP merge wholesale to the external alignment engine.
type CombinePointCloudsUseCase struct {
	engine port.AlignmentEngine
	logger *zap.Logger
}

func NewCombinePointCloudsUseCase(engine port.AlignmentEngine, logger *zap.Logger) *CombinePointCloudsUseCase {
	return &CombinePointCloudsUseCase{engine: engine, logger: logger}
}

func (uc *CombinePointCloudsUseCase) Execute(ctx context.Context, cloud1Path, cloud2Path, outputPath string) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "CombinePointCloudsUseCase.Execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("cloud1.path", cloud1Path),
		attribute.String("cloud2.path", cloud2Path),
	)

	for _, p := range []string{cloud1Path, cloud2Path} {
		if err := checkReadable(p); err != nil {
			return err
		}
	}

	outDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("output directory %s: %w", outDir, err)
	}

	start := time.Now()
	err := uc.engine.CombinePointClouds(ctx, cloud1Path, cloud2Path, outputPath)
	metrics.StageDuration.WithLabelValues("align").Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("alignment engine: %w", err)
	}

	uc.logger.Info("point clouds combined", zap.String("output", outputPath))
	return nil
}

func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("point cloud %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("point cloud %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("point cloud %s is a directory", path)
	}
	return nil
}
