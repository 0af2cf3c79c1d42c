package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/alignment"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/cache"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/config"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/fetch"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/jobs"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/logging"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/media"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/metrics"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/middleware"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/queue"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/service"
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
	logger = logger.WithComponent("api")

	if cfg.Auth.APIKey == "change-me-in-production" {
		logger.Warn("Using the default API key, set AUTH_APIKEY before exposing the service")
	}

	closer, err := tracing.Init(cfg.Tracing)
	if err != nil {
		logger.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer closer.Close()

	if err := os.MkdirAll(cfg.Media.TempDir, 0o755); err != nil {
		logger.Fatalf("Failed to create temp dir: %v", err)
	}
	logger.Infof("Temp directory ready: %s", cfg.Media.TempDir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, ffmpeg, redisCache := buildService(cfg, logger)
	if redisCache != nil {
		defer redisCache.Close()
	}

	api := &API{
		pipeline: svc,
		ffmpeg:   ffmpeg,
		logger:   logger,
	}

	if cfg.Queue.Enabled && redisCache != nil {
		q, err := queue.New(cfg.Queue, logger)
		if err != nil {
			logger.WarnWithErr("Render queue unavailable, async rendering disabled", err)
		} else {
			defer q.Close()
			api.jobs = jobs.NewStore(redisCache.Client(), cfg.Redis.JobTTL)
			api.publisher = q
		}
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		go limiter.Cleanup(ctx)
	}

	gin.SetMode(gin.ReleaseMode)
	router := setupRouter(api, middleware.NewAuthenticator(cfg.Auth), limiter)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port != cfg.Server.Port {
		metricsServer := metrics.NewServer(cfg.Metrics.Port, logger)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.ErrorWithErr("Metrics server stopped", err)
			}
		}()
		defer metricsServer.Shutdown(context.Background())
	}

	go func() {
		logger.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithErr("Server forced to shutdown", err)
	}

	logger.Info("Server stopped")
}

// buildService wires the pipeline. The returned cache is nil when Redis is
// disabled or unreachable.
func buildService(cfg *config.Config, logger *logging.Logger) (*service.Service, *media.FFmpeg, *cache.Cache) {
	ffmpeg := media.NewFFmpeg(cfg.Media.FFmpegPath, cfg.Media.FFprobePath)

	runner := alignment.NewAeneasRunner(cfg.Aligner.PythonPath, cfg.Aligner.Module, cfg.Aligner.Timeout)
	aligner := alignment.NewAligner(runner, ffmpeg, alignment.Options{
		MaxWordsPerChunk: cfg.Aligner.MaxWordsPerChunk,
		MaxChars:         cfg.Aligner.MaxChars,
		MaxLines:         cfg.Aligner.MaxLines,
		DefaultLanguage:  cfg.Aligner.DefaultLanguage,
		TempDir:          cfg.Media.TempDir,
	}, logger)

	store, err := subtitle.BuiltinStore(cfg.Subtitle.DefaultPreset)
	if err != nil {
		logger.WarnWithErr("Invalid default preset, using built-in default", err)
		store = subtitle.DefaultStore()
	}
	generator := subtitle.NewGenerator(store, logger)

	var redisCache *cache.Cache
	var alignCache service.AlignmentCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.CacheTTL)
		if err != nil {
			logger.WarnWithErr("Redis unavailable, alignment cache disabled", err)
			redisCache = nil
		} else {
			alignCache = redisCache
		}
	}

	svc := service.New(
		fetch.NewDownloader(cfg.Media.TempDir, cfg.Media.DownloadTimeout),
		ffmpeg,
		aligner,
		generator,
		alignCache,
		service.Options{
			MaxVideoDuration: cfg.Media.MaxVideoDuration,
			TempDir:          cfg.Media.TempDir,
		},
		logger,
	)
	return svc, ffmpeg, redisCache
}
