package alignment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/therealutkarshpriyadarshi/subtitler/internal/logging"
	"github.com/therealutkarshpriyadarshi/subtitler/pkg/models"
)

// DurationProber reports the duration of a media file in seconds
type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Strategy names the path that produced an alignment
type Strategy string

const (
	StrategyPrecise  Strategy = "precise"
	StrategyFallback Strategy = "fallback"
)

// Options holds alignment tuning knobs
type Options struct {
	MaxWordsPerChunk int
	MaxChars         int
	MaxLines         int
	DefaultLanguage  string
	TempDir          string
}

// Result is a completed alignment together with how it was obtained
type Result struct {
	Segments []models.Segment
	Strategy Strategy
	Language string
	Chunks   int

	// FallbackCause is the aligner failure that forced the fallback, if any
	FallbackCause error
}

// Aligner orchestrates chunking, forced alignment, fallback and normalization
type Aligner struct {
	runner Runner
	prober DurationProber
	opts   Options
	logger *logging.Logger
}

// NewAligner creates an aligner. runner or prober may be nil; a nil runner
// always uses the fallback and a nil prober always estimates the duration.
func NewAligner(runner Runner, prober DurationProber, opts Options, logger *logging.Logger) *Aligner {
	if opts.MaxWordsPerChunk <= 0 {
		opts.MaxWordsPerChunk = DefaultMaxWordsPerChunk
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}
	if opts.MaxLines <= 0 {
		opts.MaxLines = DefaultMaxLines
	}
	if !IsSupportedLanguage(opts.DefaultLanguage) {
		opts.DefaultLanguage = FallbackLanguage
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if logger == nil {
		logger = logging.Nop()
	}

	return &Aligner{
		runner: runner,
		prober: prober,
		opts:   opts,
		logger: logger.WithComponent("aligner"),
	}
}

// Align returns display-ready segments for scriptText spoken in audioPath.
// It fails only with an AlignmentError, when the script has no words.
func (a *Aligner) Align(ctx context.Context, audioPath, scriptText, language string) ([]models.Segment, error) {
	result, err := a.AlignWithResult(ctx, audioPath, scriptText, language)
	if err != nil {
		return nil, err
	}
	return result.Segments, nil
}

// AlignWithResult is Align but also reports which strategy was used
func (a *Aligner) AlignWithResult(ctx context.Context, audioPath, scriptText, language string) (*Result, error) {
	start := time.Now()

	if !IsSupportedLanguage(language) {
		a.logger.Warnf("Unknown language %q, defaulting to %q", language, a.opts.DefaultLanguage)
		language = a.opts.DefaultLanguage
	}

	chunks := SplitChunks(scriptText, a.opts.MaxWordsPerChunk)
	if len(chunks) == 0 {
		return nil, &AlignmentError{Reason: "no sentences found in script text"}
	}

	a.logger.Infof("Aligning %d chunks in %s", len(chunks), language)

	result := &Result{Language: language, Chunks: len(chunks)}

	outcome := a.alignPrecise(ctx, audioPath, chunks, language)
	if outcome.needsFallback {
		a.logger.WarnWithErr("Forced aligner unavailable, using fallback alignment", outcome.cause)
		result.Strategy = StrategyFallback
		result.FallbackCause = outcome.cause
		outcome.segments = FallbackSegments(chunks, a.fallbackDuration(ctx, audioPath, len(chunks)))
	} else {
		result.Strategy = StrategyPrecise
	}

	result.Segments = Normalize(outcome.segments, a.opts.MaxChars, a.opts.MaxLines)

	a.logger.LogAlignment(string(result.Strategy), language, len(chunks), len(result.Segments), time.Since(start))
	return result, nil
}

// preciseOutcome is either a set of aligned segments or a request to fall back
type preciseOutcome struct {
	segments      []models.Segment
	needsFallback bool
	cause         error
}

func fallbackOutcome(cause error) preciseOutcome {
	return preciseOutcome{needsFallback: true, cause: cause}
}

func (a *Aligner) alignPrecise(ctx context.Context, audioPath string, chunks []string, language string) preciseOutcome {
	if a.runner == nil {
		return fallbackOutcome(fmt.Errorf("%w: no aligner configured", ErrAlignerFailed))
	}

	if err := os.MkdirAll(a.opts.TempDir, 0o755); err != nil {
		return fallbackOutcome(fmt.Errorf("%w: create temp dir: %v", ErrAlignerFailed, err))
	}

	id := uuid.New().String()
	task := Task{
		AudioPath:  audioPath,
		TextPath:   filepath.Join(a.opts.TempDir, id+"_text.txt"),
		OutputPath: filepath.Join(a.opts.TempDir, id+"_output.json"),
		Language:   language,
	}
	defer a.removeArtifacts(task.TextPath, task.OutputPath)

	if err := writeChunkFile(task.TextPath, chunks); err != nil {
		return fallbackOutcome(fmt.Errorf("%w: write chunk file: %v", ErrAlignerFailed, err))
	}

	segments, err := a.runner.Run(ctx, task)
	if err != nil {
		return fallbackOutcome(err)
	}

	return preciseOutcome{segments: segments}
}

// fallbackDuration probes the audio length, estimating it from the chunk
// count when probing fails
func (a *Aligner) fallbackDuration(ctx context.Context, audioPath string, chunkCount int) float64 {
	if a.prober != nil {
		duration, err := a.prober.ProbeDuration(ctx, audioPath)
		if err == nil && duration > 0 {
			a.logger.Infof("Using fallback alignment for %d chunks over %.3fs", chunkCount, duration)
			return duration
		}
		if err == nil {
			err = fmt.Errorf("non-positive duration %v", duration)
		}
		a.logger.WarnWithErr("Could not probe audio duration, estimating", err)
	}

	duration := EstimateDuration(chunkCount)
	a.logger.Infof("Using fallback alignment for %d chunks over estimated %.1fs", chunkCount, duration)
	return duration
}

func (a *Aligner) removeArtifacts(paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			a.logger.Warnf("Failed to remove %s: %v", path, err)
		}
	}
}

func writeChunkFile(path string, chunks []string) error {
	var b strings.Builder
	for _, chunk := range chunks {
		b.WriteString(chunk)
		b.WriteString("\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
