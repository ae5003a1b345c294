package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesScannedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "photogrammetry_frames_scanned_total",
		Help: "Total number of frames pulled from the video decoder",
	})

	FramesSelectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "photogrammetry_frames_selected_total",
		Help: "Total number of frames admitted into the selection set",
	})

	FramesRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photogrammetry_frames_rejected_total",
		Help: "Total number of candidate frames rejected, by admission condition",
	}, []string{"reason"})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photogrammetry_runs_total",
		Help: "Total number of extraction runs, by outcome",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "photogrammetry_stage_duration_seconds",
		Help:    "Duration of extraction pipeline stages",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	ReconstructionStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "photogrammetry_reconstruction_stage_duration_seconds",
		Help:    "Duration of AliceVision reconstruction stages",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
	}, []string{"stage"})
)
