package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// RenderError reports a failed subtitle burn-in
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("ffmpeg render failed: %v", e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// BurnSubtitleOptions holds options for burning subtitles into video
type BurnSubtitleOptions struct {
	InputPath    string
	SubtitlePath string
	OutputPath   string // generated in OutputDir when empty
	OutputDir    string
}

// BurnSubtitles hardcodes an ASS document into the video. Audio is copied
// when possible; if that fails the whole file is re-encoded.
func (f *FFmpeg) BurnSubtitles(ctx context.Context, opts BurnSubtitleOptions) (string, error) {
	outputPath := opts.OutputPath
	if outputPath == "" {
		dir := opts.OutputDir
		if dir == "" {
			dir = os.TempDir()
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", &RenderError{Err: err}
		}
		outputPath = filepath.Join(dir, uuid.New().String()+"_output.mp4")
	}

	if err := f.run(ctx, BurnArgs(opts.InputPath, opts.SubtitlePath, outputPath, true)); err == nil {
		if _, statErr := os.Stat(outputPath); statErr == nil {
			return outputPath, nil
		}
	}

	if err := f.run(ctx, BurnArgs(opts.InputPath, opts.SubtitlePath, outputPath, false)); err != nil {
		return "", &RenderError{Err: err}
	}

	if _, err := os.Stat(outputPath); err != nil {
		return "", &RenderError{Err: fmt.Errorf("output file was not created: %w", err)}
	}

	return outputPath, nil
}

// BurnArgs builds the ffmpeg arguments for a burn-in
func BurnArgs(inputPath, subtitlePath, outputPath string, copyAudio bool) []string {
	args := []string{
		"-y",
		"-i", inputPath,
		"-vf", "ass=" + escapeFilterPath(subtitlePath),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
	}

	if copyAudio {
		args = append(args, "-c:a", "copy")
	} else {
		args = append(args, "-c:a", "aac", "-b:a", "128k")
	}

	return append(args, "-movflags", "+faststart", outputPath)
}

// escapeFilterPath escapes a path for use inside an ffmpeg filter graph
func escapeFilterPath(path string) string {
	escaped := strings.ReplaceAll(path, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, ":", "\\:")
	escaped = strings.ReplaceAll(escaped, "'", "\\'")
	return escaped
}
