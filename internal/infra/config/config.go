package config

import (
	"github.com/caarlos0/env/v11"
)

type Config struct {
	FFmpegPath  string `env:"FFMPEG_PATH"  envDefault:"ffmpeg"`
	FFprobePath string `env:"FFPROBE_PATH" envDefault:"ffprobe"`

	AliceVisionBinDir string `env:"ALICEVISION_BIN_DIR" envDefault:"/opt/alicevision/bin"`
	CloudComparePath  string `env:"CLOUDCOMPARE_PATH"   envDefault:"CloudCompare"`

	// DatabaseURL enables run-history persistence when set.
	DatabaseURL   string `env:"DATABASE_URL"`
	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"migrations"`

	// ArchiveFrames packages the selected frames into frames.zip after a
	// successful run.
	ArchiveFrames bool `env:"ARCHIVE_FRAMES" envDefault:"false"`

	// MinIO settings only apply when ArchiveFrames is on and an endpoint is
	// configured; the archive is then uploaded after packaging.
	MinIOEndpoint  string `env:"MINIO_ENDPOINT"`
	MinIOAccessKey string `env:"MINIO_ACCESS_KEY" envDefault:"minioadmin"`
	MinIOSecretKey string `env:"MINIO_SECRET_KEY" envDefault:"minioadmin"`
	MinIOUseSSL    bool   `env:"MINIO_USE_SSL"    envDefault:"false"`
	MinIOBucket    string `env:"MINIO_BUCKET"     envDefault:"photogrammetry-frames"`

	// NotifyEmail receives a message when a run completes or fails.
	NotifyEmail string `env:"NOTIFY_EMAIL"`
	SMTPHost    string `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort    int    `env:"SMTP_PORT" envDefault:"25"`
	SMTPFrom    string `env:"SMTP_FROM" envDefault:"noreply@photogrammetry.local"`

	// MetricsPort exposes prometheus metrics during long runs; 0 disables
	// the server.
	MetricsPort  int    `env:"METRICS_PORT"  envDefault:"0"`
	OTLPEndpoint string `env:"OTLP_ENDPOINT"`
	LogLevel     string `env:"LOG_LEVEL"     envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
