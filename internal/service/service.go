package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/alignment"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/logging"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/media"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/metrics"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/subtitle"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/tracing"
	"github.com/therealutkarshpriyadarshi/subtitler/pkg/models"
)

// Downloader fetches a remote video into a local temp file
type Downloader interface {
	Download(ctx context.Context, url string) (string, error)
}

// MediaTool probes, extracts audio from and renders videos
type MediaTool interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
	ProbeResolution(ctx context.Context, path string) (models.Resolution, error)
	ExtractAudio(ctx context.Context, videoPath string) (string, error)
	BurnSubtitles(ctx context.Context, opts media.BurnSubtitleOptions) (string, error)
}

// ScriptAligner times script text against an audio file
type ScriptAligner interface {
	AlignWithResult(ctx context.Context, audioPath, scriptText, language string) (*alignment.Result, error)
}

// AlignmentCache stores finished alignment responses. A miss is nil, nil.
type AlignmentCache interface {
	GetAlignment(ctx context.Context, req models.AlignRequest) (*models.AlignResponse, error)
	SetAlignment(ctx context.Context, req models.AlignRequest, resp *models.AlignResponse) error
}

// Options configures pipeline limits
type Options struct {
	MaxVideoDuration float64
	TempDir          string
}

// Service runs the align and render pipelines
type Service struct {
	downloader Downloader
	media      MediaTool
	aligner    ScriptAligner
	generator  *subtitle.Generator
	cache      AlignmentCache
	opts       Options
	logger     *logging.Logger
}

// New creates a pipeline service. cache may be nil.
func New(downloader Downloader, mediaTool MediaTool, aligner ScriptAligner, generator *subtitle.Generator, cache AlignmentCache, opts Options, logger *logging.Logger) *Service {
	if generator == nil {
		generator = subtitle.NewGenerator(nil, logger)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}

	return &Service{
		downloader: downloader,
		media:      mediaTool,
		aligner:    aligner,
		generator:  generator,
		cache:      cache,
		opts:       opts,
		logger:     logger.WithComponent("service"),
	}
}

// Styles lists the available presets and the default
func (s *Service) Styles() models.StyleList {
	store := s.generator.Store()
	return models.StyleList{Presets: store.Names(), Default: store.DefaultName()}
}

// Align downloads the video, extracts its audio and aligns the script to it
func (s *Service) Align(ctx context.Context, req models.AlignRequest) (resp *models.AlignResponse, err error) {
	span, ctx := tracing.StartSpan(ctx, "service.align")
	defer func() {
		tracing.FinishSpan(span, err)
		if err != nil {
			metrics.RecordError("align", string(Classify(err).Class))
		}
	}()

	req.ApplyDefaults()
	if err := models.Validate(&req); err != nil {
		return nil, &InputError{Status: http.StatusBadRequest, Err: err}
	}

	if cached := s.cachedAlignment(ctx, req); cached != nil {
		return cached, nil
	}

	logger := s.logger.WithField("video_url", req.VideoURL)
	logger.Info("Processing align request")

	var videoPath, audioPath string
	defer func() { removeFiles(s.logger, videoPath, audioPath) }()

	videoPath, err = s.downloader.Download(ctx, req.VideoURL)
	if err != nil {
		return nil, err
	}

	duration, err := s.checkDuration(ctx, videoPath)
	if err != nil {
		return nil, err
	}

	audioPath, err = s.media.ExtractAudio(ctx, videoPath)
	if err != nil {
		return nil, &VideoError{Op: "extract audio", Err: err}
	}

	start := time.Now()
	result, err := s.aligner.AlignWithResult(ctx, audioPath, req.ScriptText, req.Language)
	if err != nil {
		return nil, err
	}
	metrics.RecordAlignment(string(result.Strategy), result.Language, time.Since(start).Seconds())
	tracing.SetTag(span, "alignment.strategy", string(result.Strategy))

	if len(result.Segments) == 0 {
		return nil, &InputError{Status: http.StatusBadRequest, Err: ErrNoSegments}
	}

	resp = &models.AlignResponse{
		Segments: result.Segments,
		Duration: duration,
		Language: req.Language,
	}
	logger.Infof("Alignment complete: %d segments", len(resp.Segments))

	if s.cache != nil {
		if cacheErr := s.cache.SetAlignment(ctx, req, resp); cacheErr != nil {
			logger.WarnWithErr("Failed to cache alignment", cacheErr)
		}
	}
	return resp, nil
}

func (s *Service) cachedAlignment(ctx context.Context, req models.AlignRequest) *models.AlignResponse {
	if s.cache == nil {
		return nil
	}

	cached, err := s.cache.GetAlignment(ctx, req)
	if err != nil {
		s.logger.WarnWithErr("Alignment cache lookup failed", err)
		return nil
	}
	metrics.RecordCacheLookup(cached != nil)
	return cached
}

// RenderResult is a rendered video plus the intermediate files behind it
type RenderResult struct {
	OutputPath   string
	SubtitlePath string
	VideoPath    string
	Resolution   models.Resolution
	Duration     float64
}

// Cleanup removes the rendered output and its intermediates
func (r *RenderResult) Cleanup(logger *logging.Logger) {
	if r == nil {
		return
	}
	removeFiles(logger, r.VideoPath, r.SubtitlePath, r.OutputPath)
}

// Render burns the segments into the video. On success the caller owns the
// returned files and must call Cleanup; on failure nothing is left behind.
func (s *Service) Render(ctx context.Context, req models.RenderRequest) (*RenderResult, error) {
	span, ctx := tracing.StartSpan(ctx, "service.render")
	start := time.Now()

	req.ApplyDefaults()
	store := s.generator.Store()
	preset := req.StylePreset
	if !store.Has(preset) {
		s.logger.Warnf("Unknown preset %q, using %q", preset, store.DefaultName())
		preset = store.DefaultName()
	}
	tracing.SetTag(span, "style.preset", preset)

	result, err := s.render(ctx, req)

	tracing.FinishSpan(span, err)
	metrics.RecordRender(preset, time.Since(start).Seconds(), err)
	if err != nil {
		metrics.RecordError("render", string(Classify(err).Class))
		result.Cleanup(s.logger)
		return nil, err
	}

	s.logger.LogRender("", preset, result.Resolution.String(), time.Since(start), nil)
	return result, nil
}

// render always returns the partially filled result so the caller can clean up
func (s *Service) render(ctx context.Context, req models.RenderRequest) (*RenderResult, error) {
	result := &RenderResult{}

	if err := models.Validate(&req); err != nil {
		return result, &InputError{Status: http.StatusBadRequest, Err: err}
	}

	s.logger.WithField("video_url", req.VideoURL).Info("Processing render request")

	var err error
	result.VideoPath, err = s.downloader.Download(ctx, req.VideoURL)
	if err != nil {
		return result, err
	}

	result.Duration, err = s.checkDuration(ctx, result.VideoPath)
	if err != nil {
		return result, err
	}

	result.Resolution, err = s.media.ProbeResolution(ctx, result.VideoPath)
	if err != nil {
		return result, err
	}

	result.SubtitlePath = replaceExt(result.VideoPath, ".ass")
	if err := s.generator.WriteFile(result.SubtitlePath, req.Segments, req.StylePreset, result.Resolution); err != nil {
		return result, err
	}

	if err := os.MkdirAll(s.opts.TempDir, 0o755); err != nil {
		return result, fmt.Errorf("failed to create temp dir: %w", err)
	}
	result.OutputPath = filepath.Join(s.opts.TempDir, uuid.New().String()+"_output.mp4")
	if _, err := s.media.BurnSubtitles(ctx, media.BurnSubtitleOptions{
		InputPath:    result.VideoPath,
		SubtitlePath: result.SubtitlePath,
		OutputPath:   result.OutputPath,
	}); err != nil {
		return result, err
	}

	return result, nil
}

func (s *Service) checkDuration(ctx context.Context, videoPath string) (float64, error) {
	duration, err := s.media.ProbeDuration(ctx, videoPath)
	if err != nil {
		return 0, err
	}
	if s.opts.MaxVideoDuration > 0 && duration > s.opts.MaxVideoDuration {
		return 0, videoTooLong(duration, s.opts.MaxVideoDuration)
	}
	return duration, nil
}

func replaceExt(path, ext string) string {
	if i := strings.LastIndexByte(path, '.'); i > strings.LastIndexAny(path, `/\`) {
		return path[:i] + ext
	}
	return path + ext
}

// removeFiles deletes each non-empty path. Missing files are not an error.
func removeFiles(logger *logging.Logger, paths ...string) {
	if logger == nil {
		logger = logging.Nop()
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.WarnWithErr("Failed to clean up "+p, err)
		}
	}
}
