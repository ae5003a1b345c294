// Package alicevision drives the AliceVision photogrammetry binaries to
// turn a folder of selected frames into a point cloud. The pipeline is
// opaque to the rest of the system; stage failures surface verbatim.
package alicevision

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/noy-dayan/Photogrammetry-CLI/internal/infra/metrics"
)

type Engine struct {
	binDir       string
	cloudCompare string
	verboseLevel string
	logger       *zap.Logger
}

func NewEngine(binDir, cloudComparePath string, logger *zap.Logger) *Engine {
	return &Engine{
		binDir:       binDir,
		cloudCompare: cloudComparePath,
		verboseLevel: "error",
		logger:       logger,
	}
}

type stage struct {
	name string
	bin  string
	args func(e *Engine, projectPath, taskDir, prevDir string) []string
}

// The eleven AliceVision stages, in dependency order. Each stage reads the
// previous stage's task folder and writes its own.
var stages = []stage{
	{"cameraInit", "aliceVision_cameraInit", func(e *Engine, project, task, _ string) []string {
		return []string{
			"--imageFolder", filepath.Join(project, "images"),
			"--sensorDatabase", filepath.Join(e.binDir, "..", "share", "aliceVision", "cameraSensors.db"),
			"--allowSingleView", "1",
			"--defaultFieldOfView", "45.0",
			"--output", filepath.Join(task, "cameraInit.sfm"),
		}
	}},
	{"featureExtraction", "aliceVision_featureExtraction", func(e *Engine, project, task, prev string) []string {
		return []string{
			"--input", filepath.Join(prev, "cameraInit.sfm"),
			"--describerTypes", "sift",
			"--output", task,
		}
	}},
	{"imageMatching", "aliceVision_imageMatching", func(e *Engine, project, task, prev string) []string {
		return []string{
			"--input", filepath.Join(project, "tasks", "01_cameraInit", "cameraInit.sfm"),
			"--featuresFolders", prev,
			"--output", filepath.Join(task, "imageMatches.txt"),
		}
	}},
	{"featureMatching", "aliceVision_featureMatching", func(e *Engine, project, task, prev string) []string {
		return []string{
			"--input", filepath.Join(project, "tasks", "01_cameraInit", "cameraInit.sfm"),
			"--featuresFolders", filepath.Join(project, "tasks", "02_featureExtraction"),
			"--imagePairsList", filepath.Join(prev, "imageMatches.txt"),
			"--output", task,
		}
	}},
	{"structureFromMotion", "aliceVision_incrementalSfM", func(e *Engine, project, task, _ string) []string {
		return []string{
			"--input", filepath.Join(project, "tasks", "01_cameraInit", "cameraInit.sfm"),
			"--featuresFolders", filepath.Join(project, "tasks", "02_featureExtraction"),
			"--matchesFolders", filepath.Join(project, "tasks", "04_featureMatching"),
			"--output", filepath.Join(task, "sfm.abc"),
			"--outputViewsAndPoses", filepath.Join(task, "cameras.sfm"),
		}
	}},
	{"prepareDenseScene", "aliceVision_prepareDenseScene", func(e *Engine, project, task, prev string) []string {
		return []string{
			"--input", filepath.Join(prev, "sfm.abc"),
			"--output", task,
		}
	}},
	{"depthMapEstimation", "aliceVision_depthMapEstimation", func(e *Engine, project, task, prev string) []string {
		return []string{
			"--input", filepath.Join(project, "tasks", "05_structureFromMotion", "sfm.abc"),
			"--imagesFolder", prev,
			"--output", task,
		}
	}},
	{"depthMapFiltering", "aliceVision_depthMapFiltering", func(e *Engine, project, task, prev string) []string {
		return []string{
			"--input", filepath.Join(project, "tasks", "05_structureFromMotion", "sfm.abc"),
			"--depthMapsFolder", prev,
			"--output", task,
		}
	}},
	{"meshing", "aliceVision_meshing", func(e *Engine, project, task, prev string) []string {
		return []string{
			"--input", filepath.Join(project, "tasks", "05_structureFromMotion", "sfm.abc"),
			"--depthMapsFolder", prev,
			"--output", filepath.Join(task, "densePointCloud.abc"),
			"--outputMesh", filepath.Join(task, "mesh.obj"),
		}
	}},
	{"meshFiltering", "aliceVision_meshFiltering", func(e *Engine, project, task, prev string) []string {
		return []string{
			"--inputMesh", filepath.Join(prev, "mesh.obj"),
			"--outputMesh", filepath.Join(task, "mesh.obj"),
		}
	}},
	{"texturing", "aliceVision_texturing", func(e *Engine, project, task, prev string) []string {
		return []string{
			"--input", filepath.Join(project, "tasks", "09_meshing", "densePointCloud.abc"),
			"--inputMesh", filepath.Join(prev, "mesh.obj"),
			"--output", task,
		}
	}},
}

// GeneratePointCloud runs the full pipeline over <projectPath>/images and
// leaves pointCloud.ply in the project root.
func (e *Engine) GeneratePointCloud(ctx context.Context, projectPath string) error {
	tracer := otel.Tracer("alicevision")

	prevDir := ""
	for i, st := range stages {
		taskDir := filepath.Join(projectPath, "tasks", fmt.Sprintf("%02d_%s", i+1, st.name))
		if err := os.MkdirAll(taskDir, 0755); err != nil {
			return fmt.Errorf("create task dir %s: %w", taskDir, err)
		}

		e.logger.Info("reconstruction stage starting",
			zap.String("stage", st.name),
			zap.Int("step", i+1),
			zap.Int("total", len(stages)+1),
		)

		stageCtx, span := tracer.Start(ctx, st.name)
		start := time.Now()
		err := e.runStage(stageCtx, st, projectPath, taskDir, prevDir)
		span.End()
		metrics.ReconstructionStageDuration.WithLabelValues(st.name).Observe(time.Since(start).Seconds())
		if err != nil {
			return fmt.Errorf("stage %s: %w", st.name, err)
		}

		prevDir = taskDir
	}

	return e.convertMeshToCloud(ctx, projectPath, prevDir)
}

func (e *Engine) runStage(ctx context.Context, st stage, projectPath, taskDir, prevDir string) error {
	args := st.args(e, projectPath, taskDir, prevDir)
	args = append(args, "--verboseLevel", e.verboseLevel)

	cmd := exec.CommandContext(ctx, filepath.Join(e.binDir, st.bin), args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w, output: %s", st.bin, err, string(output))
	}
	return nil
}

// convertMeshToCloud samples the textured mesh into a point cloud with
// CloudCompare.
func (e *Engine) convertMeshToCloud(ctx context.Context, projectPath, texturingDir string) error {
	e.logger.Info("reconstruction stage starting",
		zap.String("stage", "convertMeshToCloud"),
		zap.Int("step", len(stages)+1),
		zap.Int("total", len(stages)+1),
	)

	meshPath := filepath.Join(texturingDir, "texturedMesh.obj")
	outputPath := filepath.Join(projectPath, "pointCloud.ply")

	cmd := exec.CommandContext(ctx, e.cloudCompare,
		"-SILENT",
		"-O", meshPath,
		"-SAMPLE_MESH", "POINTS", "1000000",
		"-C_EXPORT_FMT", "PLY",
		"-SAVE_CLOUDS", "FILE", outputPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("convert mesh to cloud: %w, output: %s", err, string(output))
	}

	e.logger.Info("point cloud generated", zap.String("output", outputPath))
	return nil
}
