package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/noy-dayan/Photogrammetry-CLI/internal/domain/entity"
	"github.com/noy-dayan/Photogrammetry-CLI/internal/domain/port"
	"github.com/noy-dayan/Photogrammetry-CLI/internal/infra/alicevision"
	"github.com/noy-dayan/Photogrammetry-CLI/internal/infra/archive"
	"github.com/noy-dayan/Photogrammetry-CLI/internal/infra/cloudcompare"
	"github.com/noy-dayan/Photogrammetry-CLI/internal/infra/config"
	"github.com/noy-dayan/Photogrammetry-CLI/internal/infra/email"
	"github.com/noy-dayan/Photogrammetry-CLI/internal/infra/ffmpeg"
	"github.com/noy-dayan/Photogrammetry-CLI/internal/infra/imagedir"
	"github.com/noy-dayan/Photogrammetry-CLI/internal/infra/metrics"
	miniostorage "github.com/noy-dayan/Photogrammetry-CLI/internal/infra/minio"
	"github.com/noy-dayan/Photogrammetry-CLI/internal/infra/postgres"
	"github.com/noy-dayan/Photogrammetry-CLI/internal/infra/tracing"
	"github.com/noy-dayan/Photogrammetry-CLI/internal/usecase"
	"github.com/noy-dayan/Photogrammetry-CLI/pkg/logger"
)

// deps is the object graph shared by all commands for one process.
type deps struct {
	cfg      *config.Config
	log      *zap.Logger
	decoder  port.VideoDecoder
	repo     port.RunRepository
	archiver port.Archiver
	store    port.ArtifactStore
	notifier port.RunNotifier
}

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing and the metrics endpoint are optional; a CLI run works the
	// same without either.
	if cfg.OTLPEndpoint != "" {
		tp, err := tracing.InitTracer(ctx, cfg.OTLPEndpoint)
		if err != nil {
			log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
		}
	}
	if cfg.MetricsPort > 0 {
		srv := metrics.StartServer(ctx, cfg.MetricsPort, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	d := buildDeps(ctx, cfg, log)

	app := newApp(d)
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

func buildDeps(ctx context.Context, cfg *config.Config, log *zap.Logger) *deps {
	d := &deps{
		cfg:     cfg,
		log:     log,
		decoder: ffmpeg.NewDecoder(cfg.FFmpegPath, cfg.FFprobePath, log),
	}

	if cfg.DatabaseURL != "" {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			log.Warn("migration warning", zap.Error(err))
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warn("run history disabled, cannot connect to postgres", zap.Error(err))
		} else {
			d.repo = postgres.NewRunRepository(pool)
		}
	}

	if cfg.ArchiveFrames {
		d.archiver = archive.NewZipper()
		if cfg.MinIOEndpoint != "" {
			store, err := miniostorage.NewStorage(miniostorage.StorageConfig{
				Endpoint:  cfg.MinIOEndpoint,
				AccessKey: cfg.MinIOAccessKey,
				SecretKey: cfg.MinIOSecretKey,
				UseSSL:    cfg.MinIOUseSSL,
				Bucket:    cfg.MinIOBucket,
			})
			if err != nil {
				log.Warn("archive upload disabled", zap.Error(err))
			} else if err := store.EnsureBucket(ctx); err != nil {
				log.Warn("archive upload disabled", zap.Error(err))
			} else {
				d.store = store
			}
		}
	}

	if cfg.NotifyEmail != "" {
		d.notifier = email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.NotifyEmail, log)
	}

	return d
}

func newApp(d *deps) *cli.App {
	return &cli.App{
		Name:  "photogrammetry",
		Usage: "turn videos into point clouds",
		Commands: []*cli.Command{
			{
				Name:      "video2images",
				Aliases:   []string{"v2i"},
				Usage:     "extract usable frames from a video",
				ArgsUsage: "<video_path> <project_path> [max_frames] [max_overlap_percentage] [ssim_threshold]",
				Action:    d.videoToImages,
			},
			{
				Name:      "generatePointCloud",
				Aliases:   []string{"gpc"},
				Usage:     "reconstruct a point cloud from a project's images folder",
				ArgsUsage: "<project_path>",
				Action:    d.generatePointCloud,
			},
			{
				Name:      "combinePointClouds",
				Aliases:   []string{"cpc"},
				Usage:     "align and merge two point clouds with ICP",
				ArgsUsage: "<cloud1_path> <cloud2_path> <output_path>",
				Action:    d.combinePointClouds,
			},
		},
		// No subcommand drops into the interactive shell, mirroring how
		// the tool is mostly driven by hand.
		Action: d.shell,
	}
}

func (d *deps) videoToImages(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.Exit("usage: video2images <video_path> <project_path> [max_frames] [max_overlap_percentage] [ssim_threshold]", 1)
	}
	videoPath := c.Args().Get(0)
	projectPath := c.Args().Get(1)

	policy, err := parsePolicy(c.Args().Slice()[2:])
	if err != nil {
		return err
	}

	sink, err := imagedir.NewSink(filepath.Join(projectPath, "images"))
	if err != nil {
		return err
	}

	uc := usecase.NewExtractFramesUseCase(
		d.decoder, sink, d.repo, d.archiver, d.store, d.notifier, d.log,
	)
	result, err := uc.Execute(c.Context, videoPath, projectPath, policy)
	if err != nil {
		return err
	}

	fmt.Printf("Selected %d of %d scanned frames into %s\n",
		result.Selected(), result.Scanned, filepath.Join(projectPath, "images"))
	return nil
}

func (d *deps) generatePointCloud(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("usage: generatePointCloud <project_path>", 1)
	}
	projectPath := c.Args().Get(0)

	engine := alicevision.NewEngine(d.cfg.AliceVisionBinDir, d.cfg.CloudComparePath, d.log)
	uc := usecase.NewGeneratePointCloudUseCase(engine, d.log)
	if err := uc.Execute(c.Context, projectPath); err != nil {
		return err
	}

	fmt.Printf("Point cloud saved to %s\n", filepath.Join(projectPath, "pointCloud.ply"))
	return nil
}

func (d *deps) combinePointClouds(c *cli.Context) error {
	if c.NArg() < 3 {
		return cli.Exit("usage: combinePointClouds <cloud1_path> <cloud2_path> <output_path>", 1)
	}

	engine := cloudcompare.NewEngine(d.cfg.CloudComparePath, d.log)
	uc := usecase.NewCombinePointCloudsUseCase(engine, d.log)
	if err := uc.Execute(c.Context, c.Args().Get(0), c.Args().Get(1), c.Args().Get(2)); err != nil {
		return err
	}

	fmt.Printf("Combined point cloud saved to %s\n", c.Args().Get(2))
	return nil
}

// parsePolicy applies optional positional overrides onto the default
// selection policy.
func parsePolicy(args []string) (entity.SelectionPolicy, error) {
	policy := entity.DefaultSelectionPolicy()

	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return policy, fmt.Errorf("parse max_frames %q: %w", args[0], err)
		}
		policy.MaxFrames = v
	}
	if len(args) > 1 {
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return policy, fmt.Errorf("parse max_overlap_percentage %q: %w", args[1], err)
		}
		policy.MaxOverlapPercent = v
	}
	if len(args) > 2 {
		v, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return policy, fmt.Errorf("parse ssim_threshold %q: %w", args[2], err)
		}
		policy.SSIMThreshold = v
	}

	if err := policy.Validate(); err != nil {
		return policy, err
	}
	return policy, nil
}

// shell reads commands from stdin until exit, dispatching each line through
// the same command set as direct invocation.
func (d *deps) shell(c *cli.Context) error {
	fmt.Println("Photogrammetry CLI. Type a command, 'help' for usage, 'exit' to quit.")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "exit", "quit", "stop":
			return nil
		case "help", "-h", "-help":
			cli.ShowAppHelp(c)
			continue
		}

		fields := strings.Fields(line)
		if c.App.Command(fields[0]) == nil {
			fmt.Fprintf(os.Stderr, "unknown command %q, type 'help' for usage\n", fields[0])
			continue
		}

		args := append([]string{c.App.Name}, fields...)
		if err := c.App.RunContext(c.Context, args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}

		if c.Context.Err() != nil {
			return c.Context.Err()
		}
	}
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
		os.Exit(1)
	}
}
