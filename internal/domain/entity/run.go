package entity

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// ExtractionRun is the persisted record of one video2images invocation.
type ExtractionRun struct {
	ID             uuid.UUID
	VideoPath      string
	ProjectPath    string
	Status         RunStatus
	FramesSelected int
	FramesScanned  int
	MaxFrames      int
	MaxOverlap     float64
	SSIMThreshold  float64
	ArchiveKey     string
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

func NewExtractionRun(videoPath, projectPath string, policy SelectionPolicy) *ExtractionRun {
	now := time.Now().UTC()
	return &ExtractionRun{
		ID:            uuid.New(),
		VideoPath:     videoPath,
		ProjectPath:   projectPath,
		Status:        RunStatusRunning,
		MaxFrames:     policy.MaxFrames,
		MaxOverlap:    policy.MaxOverlapPercent,
		SSIMThreshold: policy.SSIMThreshold,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (r *ExtractionRun) MarkCompleted(result SelectionResult) {
	now := time.Now().UTC()
	r.Status = RunStatusCompleted
	r.FramesSelected = result.Selected()
	r.FramesScanned = result.Scanned
	r.UpdatedAt = now
	r.CompletedAt = &now
}

// MarkFailed records a failure together with whatever partial progress the
// run made; already-written frames stay on disk.
func (r *ExtractionRun) MarkFailed(errMsg string, result SelectionResult) {
	r.Status = RunStatusFailed
	r.ErrorMessage = errMsg
	r.FramesSelected = result.Selected()
	r.FramesScanned = result.Scanned
	r.UpdatedAt = time.Now().UTC()
}
