package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/noy-dayan/Photogrammetry-CLI/internal/domain/entity"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcpostgres.WithDatabase("photogrammetry_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, RunMigrations(connStr, "../../../migrations"))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestRunRepositoryRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()
	repo := NewRunRepository(setupPool(t))

	run := entity.NewExtractionRun("video.mp4", "/tmp/project", entity.DefaultSelectionPolicy())
	require.NoError(t, repo.Create(ctx, run))

	found, err := repo.FindByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, found.ID)
	assert.Equal(t, "video.mp4", found.VideoPath)
	assert.Equal(t, entity.RunStatusRunning, found.Status)
	assert.Equal(t, run.MaxFrames, found.MaxFrames)
	assert.InDelta(t, run.SSIMThreshold, found.SSIMThreshold, 1e-9)
	assert.Nil(t, found.CompletedAt)

	run.MarkCompleted(entity.SelectionResult{SelectedIndices: []int{0, 5, 11}, Scanned: 30})
	run.ArchiveKey = run.ID.String() + "/frames.zip"
	require.NoError(t, repo.Update(ctx, run))

	found, err = repo.FindByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusCompleted, found.Status)
	assert.Equal(t, 3, found.FramesSelected)
	assert.Equal(t, 30, found.FramesScanned)
	assert.Equal(t, run.ArchiveKey, found.ArchiveKey)
	require.NotNil(t, found.CompletedAt)
}

func TestRunRepositoryRecordsFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()
	repo := NewRunRepository(setupPool(t))

	run := entity.NewExtractionRun("broken.mp4", "/tmp/project", entity.DefaultSelectionPolicy())
	require.NoError(t, repo.Create(ctx, run))

	run.MarkFailed("decoder died", entity.SelectionResult{SelectedIndices: []int{0}, Scanned: 4})
	require.NoError(t, repo.Update(ctx, run))

	found, err := repo.FindByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusFailed, found.Status)
	assert.Equal(t, "decoder died", found.ErrorMessage)
	assert.Equal(t, 1, found.FramesSelected)
	assert.Equal(t, 4, found.FramesScanned)
}
