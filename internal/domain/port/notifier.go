package port

import "context"

// RunNotifier reports a finished extraction run to an interested party.
type RunNotifier interface {
	NotifyCompleted(ctx context.Context, runID string, videoPath string, selected int) error
	NotifyFailed(ctx context.Context, runID string, videoPath string, errorMsg string) error
}
