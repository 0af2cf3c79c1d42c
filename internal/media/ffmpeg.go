package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/therealutkarshpriyadarshi/subtitler/pkg/models"
)

// ErrFileNotFound is returned when the media file to probe does not exist
var ErrFileNotFound = errors.New("media file not found")

// ProbeError reports that ffprobe could not determine a property of a file
type ProbeError struct {
	Path     string
	Property string
	Err      error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("could not determine %s of %s: %v", e.Property, e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// FFmpeg wraps FFmpeg operations
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpeg creates a new FFmpeg instance
func NewFFmpeg(ffmpegPath, ffprobePath string) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}
}

// VideoMetadata holds video metadata extracted from ffprobe
type VideoMetadata struct {
	Format  FormatInfo   `json:"format"`
	Streams []StreamInfo `json:"streams"`
}

// FormatInfo holds format information
type FormatInfo struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

// StreamInfo holds stream information
type StreamInfo struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// ProbeVideo extracts metadata from a media file
func (f *FFmpeg) ProbeVideo(ctx context.Context, inputPath string) (*VideoMetadata, error) {
	if _, err := os.Stat(inputPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, inputPath)
		}
		return nil, fmt.Errorf("stat %s: %w", inputPath, err)
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	}

	cmd := exec.CommandContext(ctx, f.ffprobePath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w, stderr: %s", err, stderr.String())
	}

	return ParseProbeOutput(stdout.Bytes())
}

// ParseProbeOutput decodes ffprobe's JSON report
func ParseProbeOutput(data []byte) (*VideoMetadata, error) {
	var metadata VideoMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return &metadata, nil
}

// DurationSeconds returns the container duration
func (m *VideoMetadata) DurationSeconds() (float64, error) {
	raw := strings.TrimSpace(m.Format.Duration)
	if raw == "" || raw == "N/A" {
		return 0, errors.New("duration not reported")
	}
	duration, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	return duration, nil
}

// VideoResolution returns the frame size of the first video stream
func (m *VideoMetadata) VideoResolution() (models.Resolution, error) {
	for _, stream := range m.Streams {
		if stream.CodecType == "video" {
			if stream.Width <= 0 || stream.Height <= 0 {
				return models.Resolution{}, fmt.Errorf("invalid frame size %dx%d", stream.Width, stream.Height)
			}
			return models.Resolution{Width: stream.Width, Height: stream.Height}, nil
		}
	}
	return models.Resolution{}, errors.New("no video stream")
}

// ProbeDuration returns the duration of a media file in seconds
func (f *FFmpeg) ProbeDuration(ctx context.Context, path string) (float64, error) {
	metadata, err := f.ProbeVideo(ctx, path)
	if err != nil {
		return 0, probeErr(path, "duration", err)
	}
	duration, err := metadata.DurationSeconds()
	if err != nil {
		return 0, &ProbeError{Path: path, Property: "duration", Err: err}
	}
	return duration, nil
}

// ProbeResolution returns the frame size of a video file
func (f *FFmpeg) ProbeResolution(ctx context.Context, path string) (models.Resolution, error) {
	metadata, err := f.ProbeVideo(ctx, path)
	if err != nil {
		return models.Resolution{}, probeErr(path, "resolution", err)
	}
	res, err := metadata.VideoResolution()
	if err != nil {
		return models.Resolution{}, &ProbeError{Path: path, Property: "resolution", Err: err}
	}
	return res, nil
}

func probeErr(path, property string, err error) error {
	if errors.Is(err, ErrFileNotFound) {
		return err
	}
	return &ProbeError{Path: path, Property: property, Err: err}
}

// ExtractAudio writes the audio track of a video as 16 kHz mono PCM WAV next
// to the input and returns its path
func (f *FFmpeg) ExtractAudio(ctx context.Context, videoPath string) (string, error) {
	audioPath := strings.TrimSuffix(videoPath, extension(videoPath)) + ".wav"

	args := []string{
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		audioPath,
	}

	if err := f.run(ctx, args); err != nil {
		return "", fmt.Errorf("ffmpeg audio extraction failed: %w", err)
	}

	return audioPath, nil
}

// CheckAvailable reports whether ffmpeg can be executed
func (f *FFmpeg) CheckAvailable(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, f.ffmpegPath, "-version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg not available: %w", err)
	}
	return nil
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("ffmpeg not found, please install FFmpeg: %w", err)
		}
		return fmt.Errorf("%w, stderr: %s", err, lastLines(stderr.String(), 5))
	}
	return nil
}

func extension(path string) string {
	slash := strings.LastIndexAny(path, `/\`)
	dot := strings.LastIndex(path, ".")
	if dot <= slash {
		return ""
	}
	return path[dot:]
}

// lastLines keeps the tail of ffmpeg's verbose stderr
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
