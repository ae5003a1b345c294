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

	"github.com/noy-dayan/Photogrammetry-CLI/internal/domain/entity"
	"github.com/noy-dayan/Photogrammetry-CLI/internal/domain/port"
	"github.com/noy-dayan/Photogrammetry-CLI/internal/infra/metrics"
	"github.com/noy-dayan/Photogrammetry-CLI/internal/selector"
)

// ExtractFramesUseCase runs the frame-selection pipeline for one video:
// decode, select, persist, then optionally archive, upload and notify.
// Repository, archiver, store and notifier may be nil when the matching
// feature is not configured.
type ExtractFramesUseCase struct {
	decoder  port.VideoDecoder
	sink     port.FrameSink
	repo     port.RunRepository
	archiver port.Archiver
	store    port.ArtifactStore
	notifier port.RunNotifier
	logger   *zap.Logger
}

func NewExtractFramesUseCase(
	decoder port.VideoDecoder,
	sink port.FrameSink,
	repo port.RunRepository,
	archiver port.Archiver,
	store port.ArtifactStore,
	notifier port.RunNotifier,
	logger *zap.Logger,
) *ExtractFramesUseCase {
	return &ExtractFramesUseCase{
		decoder:  decoder,
		sink:     sink,
		repo:     repo,
		archiver: archiver,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

func (uc *ExtractFramesUseCase) Execute(
	ctx context.Context,
	videoPath, projectPath string,
	policy entity.SelectionPolicy,
) (entity.SelectionResult, error) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ExtractFramesUseCase.Execute")
	defer span.End()

	span.SetAttributes(
		attribute.String("video.path", videoPath),
		attribute.Int("policy.max_frames", policy.MaxFrames),
		attribute.Float64("policy.max_overlap", policy.MaxOverlapPercent),
		attribute.Float64("policy.ssim_threshold", policy.SSIMThreshold),
	)

	sel, err := selector.New(policy, uc.sink, uc.logger)
	if err != nil {
		return entity.SelectionResult{}, err
	}

	// Opening the decoder validates the container before the run starts;
	// an unreadable or unsupported video produces no run record and no
	// output.
	openStart := time.Now()
	ctx2, spanOpen := tracer.Start(ctx, "open_video")
	stream, err := uc.decoder.Open(ctx2, videoPath)
	spanOpen.End()
	if err != nil {
		return entity.SelectionResult{}, fmt.Errorf("open video: %w", err)
	}
	metrics.StageDuration.WithLabelValues("open").Observe(time.Since(openStart).Seconds())
	defer func() {
		// The stream is torn down mid-video when the budget fills early;
		// the decoder exiting on a broken pipe is expected then.
		if cerr := stream.Close(); cerr != nil {
			uc.logger.Debug("decoder close", zap.Error(cerr))
		}
	}()

	run := entity.NewExtractionRun(videoPath, projectPath, policy)
	uc.createRun(ctx, run)

	log := uc.logger.With(zap.String("run_id", run.ID.String()), zap.String("video", videoPath))
	log.Info("frame selection starting",
		zap.Int("max_frames", policy.MaxFrames),
		zap.Float64("max_overlap_pct", policy.MaxOverlapPercent),
		zap.Float64("ssim_threshold", policy.SSIMThreshold),
	)

	selectStart := time.Now()
	ctx3, spanSel := tracer.Start(ctx, "select_frames")
	result, err := sel.Run(ctx3, stream)
	spanSel.End()
	metrics.StageDuration.WithLabelValues("select").Observe(time.Since(selectStart).Seconds())

	metrics.FramesScannedTotal.Add(float64(result.Scanned))
	metrics.FramesSelectedTotal.Add(float64(result.Selected()))
	metrics.FramesRejectedTotal.WithLabelValues("ssim").Add(float64(result.RejectedBySSIM))
	metrics.FramesRejectedTotal.WithLabelValues("overlap").Add(float64(result.RejectedByOverlap))

	if err != nil {
		return result, uc.handleFailure(ctx, run, result, err, log)
	}

	if uc.archiver != nil {
		uc.archiveFrames(ctx, run, projectPath, log)
	}

	run.MarkCompleted(result)
	uc.updateRun(ctx, run)
	metrics.RunsTotal.WithLabelValues("completed").Inc()

	if uc.notifier != nil {
		if nerr := uc.notifier.NotifyCompleted(ctx, run.ID.String(), videoPath, result.Selected()); nerr != nil {
			log.Warn("completion notification failed", zap.Error(nerr))
		}
	}

	log.Info("frame selection completed",
		zap.Int("selected", result.Selected()),
		zap.Int("scanned", result.Scanned),
		zap.Int("rejected_ssim", result.RejectedBySSIM),
		zap.Int("rejected_overlap", result.RejectedByOverlap),
	)

	return result, nil
}

// handleFailure records the partial progress; frames already on disk are
// kept, each being independently useful downstream.
func (uc *ExtractFramesUseCase) handleFailure(
	ctx context.Context,
	run *entity.ExtractionRun,
	result entity.SelectionResult,
	err error,
	log *zap.Logger,
) error {
	run.MarkFailed(err.Error(), result)
	uc.updateRun(ctx, run)
	metrics.RunsTotal.WithLabelValues("failed").Inc()

	if uc.notifier != nil {
		if nerr := uc.notifier.NotifyFailed(ctx, run.ID.String(), run.VideoPath, err.Error()); nerr != nil {
			log.Warn("failure notification failed", zap.Error(nerr))
		}
	}

	log.Error("frame selection failed",
		zap.Int("selected_before_failure", result.Selected()),
		zap.Error(err),
	)
	return fmt.Errorf("frame selection failed after %d frames selected: %w", result.Selected(), err)
}

// archiveFrames packages the selected frames and uploads the archive when a
// store is configured. Archive problems never fail a run that already
// produced its frames.
func (uc *ExtractFramesUseCase) archiveFrames(ctx context.Context, run *entity.ExtractionRun, projectPath string, log *zap.Logger) {
	tracer := otel.Tracer("usecase")

	framePaths, err := filepath.Glob(filepath.Join(projectPath, "images", "frame_*.jpg"))
	if err != nil || len(framePaths) == 0 {
		log.Warn("no frames to archive", zap.Error(err))
		return
	}

	archiveStart := time.Now()
	ctx2, spanZip := tracer.Start(ctx, "archive_frames")
	zipPath := filepath.Join(projectPath, "frames.zip")
	err = uc.archiver.CreateZip(ctx2, framePaths, zipPath)
	spanZip.End()
	metrics.StageDuration.WithLabelValues("archive").Observe(time.Since(archiveStart).Seconds())
	if err != nil {
		log.Warn("frame archive creation failed", zap.Error(err))
		return
	}
	log.Info("frame archive created", zap.String("path", zipPath), zap.Int("frames", len(framePaths)))

	if uc.store == nil {
		return
	}

	zipFile, err := os.Open(zipPath)
	if err != nil {
		log.Warn("open frame archive for upload", zap.Error(err))
		return
	}
	defer zipFile.Close()

	stat, err := zipFile.Stat()
	if err != nil {
		log.Warn("stat frame archive", zap.Error(err))
		return
	}

	uploadStart := time.Now()
	ctx3, spanUp := tracer.Start(ctx, "upload_archive")
	key := fmt.Sprintf("%s/frames.zip", run.ID.String())
	err = uc.store.UploadArchive(ctx3, key, zipFile, stat.Size())
	spanUp.End()
	metrics.StageDuration.WithLabelValues("upload").Observe(time.Since(uploadStart).Seconds())
	if err != nil {
		log.Warn("frame archive upload failed", zap.Error(err))
		return
	}

	run.ArchiveKey = key
	log.Info("frame archive uploaded", zap.String("key", key))
}

func (uc *ExtractFramesUseCase) createRun(ctx context.Context, run *entity.ExtractionRun) {
	if uc.repo == nil {
		return
	}
	if err := uc.repo.Create(ctx, run); err != nil {
		uc.logger.Warn("failed to record run start", zap.Error(err))
	}
}

func (uc *ExtractFramesUseCase) updateRun(ctx context.Context, run *entity.ExtractionRun) {
	if uc.repo == nil {
		return
	}
	if err := uc.repo.Update(ctx, run); err != nil {
		uc.logger.Warn("failed to record run outcome", zap.Error(err))
	}
}
