package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/noy-dayan/Photogrammetry-CLI/internal/domain/entity"
)

type RunRepository interface {
	Create(ctx context.Context, run *entity.ExtractionRun) error
	Update(ctx context.Context, run *entity.ExtractionRun) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ExtractionRun, error)
}
