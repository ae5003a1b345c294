package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noy-dayan/Photogrammetry-CLI/internal/domain/entity"
)

type RunRepository struct {
	pool *pgxpool.Pool
}

func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

func (r *RunRepository) Create(ctx context.Context, run *entity.ExtractionRun) error {
	query := `
		INSERT INTO extraction_runs (
			id, video_path, project_path, status, frames_selected,
			frames_scanned, max_frames, max_overlap, ssim_threshold,
			archive_key, error_message, created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`

	_, err := r.pool.Exec(ctx, query,
		run.ID, run.VideoPath, run.ProjectPath, string(run.Status),
		run.FramesSelected, run.FramesScanned,
		run.MaxFrames, run.MaxOverlap, run.SSIMThreshold,
		run.ArchiveKey, run.ErrorMessage,
		run.CreatedAt, run.UpdatedAt, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (r *RunRepository) Update(ctx context.Context, run *entity.ExtractionRun) error {
	query := `
		UPDATE extraction_runs SET
			status=$2, frames_selected=$3, frames_scanned=$4,
			archive_key=$5, error_message=$6, updated_at=$7, completed_at=$8
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		run.ID, string(run.Status), run.FramesSelected, run.FramesScanned,
		run.ArchiveKey, run.ErrorMessage, run.UpdatedAt, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

func (r *RunRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ExtractionRun, error) {
	query := `
		SELECT id, video_path, project_path, status, frames_selected,
			frames_scanned, max_frames, max_overlap, ssim_threshold,
			archive_key, error_message, created_at, updated_at, completed_at
		FROM extraction_runs WHERE id=$1`

	run := &entity.ExtractionRun{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&run.ID, &run.VideoPath, &run.ProjectPath, &status,
		&run.FramesSelected, &run.FramesScanned,
		&run.MaxFrames, &run.MaxOverlap, &run.SSIMThreshold,
		&run.ArchiveKey, &run.ErrorMessage,
		&run.CreatedAt, &run.UpdatedAt, &run.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find run by id: %w", err)
	}
	run.Status = entity.RunStatus(status)
	return run, nil
}
