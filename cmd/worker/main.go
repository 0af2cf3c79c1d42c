package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/alignment"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/cache"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/config"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/fetch"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/jobs"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/logging"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/media"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/metrics"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/queue"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/service"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/storage"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/subtitle"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/tracing"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	boot, _ := logging.NewConsoleLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		boot.Warnf("Failed to load %s, using defaults: %v", configPath, err)
		cfg = config.Default()
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		boot.Fatalf("Failed to create logger: %v", err)
	}
	workerID := "worker-" + uuid.New().String()[:8]
	logger = logger.WithComponent("worker").WithWorkerID(workerID)

	closer, err := tracing.Init(cfg.Tracing)
	if err != nil {
		logger.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer closer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisCache, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.CacheTTL)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	stor, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	q, err := queue.New(cfg.Queue, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()

	if err := os.MkdirAll(cfg.Media.TempDir, 0o755); err != nil {
		logger.Fatalf("Failed to create temp dir: %v", err)
	}

	ffmpeg := media.NewFFmpeg(cfg.Media.FFmpegPath, cfg.Media.FFprobePath)
	store, err := subtitle.BuiltinStore(cfg.Subtitle.DefaultPreset)
	if err != nil {
		logger.WarnWithErr("Invalid default preset, using built-in default", err)
		store = subtitle.DefaultStore()
	}

	// workers only render, so the aligner has no runner
	svc := service.New(
		fetch.NewDownloader(cfg.Media.TempDir, cfg.Media.DownloadTimeout),
		ffmpeg,
		alignment.NewAligner(nil, ffmpeg, alignment.Options{TempDir: cfg.Media.TempDir}, logger),
		subtitle.NewGenerator(store, logger),
		nil,
		service.Options{MaxVideoDuration: cfg.Media.MaxVideoDuration, TempDir: cfg.Media.TempDir},
		logger,
	)

	w := &Worker{
		id:       workerID,
		renderer: svc,
		jobs:     jobs.NewStore(redisCache.Client(), cfg.Redis.JobTTL),
		uploader: stor,
		logger:   logger,
	}

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(cfg.Metrics.Port, logger)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.ErrorWithErr("Metrics server stopped", err)
			}
		}()
		defer metricsServer.Shutdown(context.Background())

		go reportQueueDepth(ctx, q, depthInterval, logger)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutting down worker gracefully")
		cancel()
	}()

	logger.Info("Worker started, waiting for render jobs")
	if err := q.ConsumeJobs(ctx, cfg.Queue.Prefetch, w.Handle); err != nil {
		logger.Fatalf("Failed to consume jobs: %v", err)
	}

	<-ctx.Done()
	logger.Info("Worker stopped")
}
