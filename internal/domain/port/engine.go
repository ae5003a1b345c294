package port

import "context"

// ReconstructionEngine turns a folder of selected frames into a point
// cloud. The engine is an external tool; its failures surface verbatim.
type ReconstructionEngine interface {
	GeneratePointCloud(ctx context.Context, projectPath string) error
}

// AlignmentEngine registers two point clouds with ICP and writes the merged
// cloud to outputPath.
type AlignmentEngine interface {
	CombinePointClouds(ctx context.Context, cloud1Path, cloud2Path, outputPath string) error
}
