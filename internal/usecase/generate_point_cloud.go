package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/noy-dayan/Photogrammetry-CLI/internal/domain/port"
	"github.com/noy-dayan/Photogrammetry-CLI/internal/infra/metrics"
)

// minReconstructionImages is the fewest frames the reconstruction engine
// can triangulate from.
const minReconstructionImages = 2

// GeneratePointCloudUseCase validates a project's images folder and
// delegates the reconstruction wholesale to the external engine.
type GeneratePointCloudUseCase struct {
	engine port.ReconstructionEngine
	logger *zap.Logger
}

func NewGeneratePointCloudUseCase(engine port.ReconstructionEngine, logger *zap.Logger) *GeneratePointCloudUseCase {
	return &GeneratePointCloudUseCase{engine: engine, logger: logger}
}

func (uc *GeneratePointCloudUseCase) Execute(ctx context.Context, projectPath string) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "GeneratePointCloudUseCase.Execute")
	defer span.End()
	span.SetAttributes(attribute.String("project.path", projectPath))

	imagesDir := filepath.Join(projectPath, "images")
	count, err := countImages(imagesDir)
	if err != nil {
		return err
	}
	if count < minReconstructionImages {
		return fmt.Errorf("images folder %s holds %d image(s), need at least %d for reconstruction",
			imagesDir, count, minReconstructionImages)
	}

	uc.logger.Info("reconstruction starting",
		zap.String("project", projectPath),
		zap.Int("images", count),
	)

	start := time.Now()
	err = uc.engine.GeneratePointCloud(ctx, projectPath)
	metrics.StageDuration.WithLabelValues("reconstruct").Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("reconstruction engine: %w", err)
	}

	uc.logger.Info("reconstruction completed", zap.String("project", projectPath))
	return nil
}

func countImages(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read images folder %s: %w", dir, err)
	}

	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			count++
		}
	}
	return count, nil
}
