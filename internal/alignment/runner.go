package alignment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/therealutkarshpriyadarshi/subtitler/pkg/models"
)

// Task describes one forced-alignment run
type Task struct {
	AudioPath  string
	TextPath   string // one chunk per line, UTF-8
	OutputPath string
	Language   string
}

// Runner performs precise forced alignment of a chunk file against audio
type Runner interface {
	Run(ctx context.Context, task Task) ([]models.Segment, error)
}

// AeneasRunner runs the aeneas execute_task tool as a child process
type AeneasRunner struct {
	pythonPath  string
	module      string
	timeout     time.Duration
	gracePeriod time.Duration
}

// Default aeneas invocation settings
const (
	DefaultPythonPath    = "python3"
	DefaultAeneasModule  = "aeneas.tools.execute_task"
	DefaultAlignTimeout  = 120 * time.Second
	defaultGracePeriod   = 5 * time.Second
	maxStderrInErrorSize = 2048
)

// NewAeneasRunner creates a runner. Empty values fall back to defaults.
func NewAeneasRunner(pythonPath, module string, timeout time.Duration) *AeneasRunner {
	if pythonPath == "" {
		pythonPath = DefaultPythonPath
	}
	if module == "" {
		module = DefaultAeneasModule
	}
	if timeout <= 0 {
		timeout = DefaultAlignTimeout
	}
	return &AeneasRunner{
		pythonPath:  pythonPath,
		module:      module,
		timeout:     timeout,
		gracePeriod: defaultGracePeriod,
	}
}

// Args returns the command line for a task, without the executable
func (r *AeneasRunner) Args(task Task) []string {
	return []string{
		"-m", r.module,
		task.AudioPath,
		task.TextPath,
		fmt.Sprintf("task_language=%s|is_text_type=plain|os_task_file_format=json", task.Language),
		task.OutputPath,
	}
}

// Run executes the aligner and parses the JSON it writes to task.OutputPath.
// Every failure is wrapped with ErrAlignerFailed.
func (r *AeneasRunner) Run(ctx context.Context, task Task) ([]models.Segment, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.pythonPath, r.Args(task)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	configureProcessGroup(cmd)
	cmd.WaitDelay = r.gracePeriod

	if err := cmd.Run(); err != nil {
		switch {
		case errors.Is(err, exec.ErrNotFound):
			return nil, fmt.Errorf("%w: %s not installed: %v", ErrAlignerFailed, r.pythonPath, err)
		case ctx.Err() != nil:
			return nil, fmt.Errorf("%w: killed after %s: %v", ErrAlignerFailed, r.timeout, ctx.Err())
		default:
			return nil, fmt.Errorf("%w: %v, stderr: %s", ErrAlignerFailed, err, truncate(stderr.String(), maxStderrInErrorSize))
		}
	}

	data, err := os.ReadFile(task.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read output: %v", ErrAlignerFailed, err)
	}

	return ParseAeneasOutput(data)
}

// ParseAeneasOutput converts the aligner's JSON sync map into segments.
// The document must be an object; a missing fragments key means no fragments.
// begin and end may be JSON numbers or numeric strings. Fragments whose first
// text line is blank are skipped, but an empty lines list is malformed.
func ParseAeneasOutput(data []byte) ([]models.Segment, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: output is not valid JSON", ErrAlignerFailed)
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: output is not a JSON object", ErrAlignerFailed)
	}

	fragments := doc.Get("fragments")
	if !fragments.Exists() {
		return []models.Segment{}, nil
	}
	if !fragments.IsArray() {
		return nil, fmt.Errorf("%w: fragments is not a list", ErrAlignerFailed)
	}

	segments := make([]models.Segment, 0)
	var parseErr error

	fragments.ForEach(func(_, fragment gjson.Result) bool {
		lines := fragment.Get("lines")
		if lines.Exists() && (!lines.IsArray() || len(lines.Array()) == 0) {
			parseErr = fmt.Errorf("%w: fragment lines %s is not a non-empty list", ErrAlignerFailed, lines.Raw)
			return false
		}

		text := strings.TrimSpace(lines.Get("0").String())
		if text == "" {
			return true
		}

		begin, err := coerceSeconds(fragment.Get("begin"))
		if err != nil {
			parseErr = fmt.Errorf("%w: bad begin %q: %v", ErrAlignerFailed, fragment.Get("begin").Raw, err)
			return false
		}
		end, err := coerceSeconds(fragment.Get("end"))
		if err != nil {
			parseErr = fmt.Errorf("%w: bad end %q: %v", ErrAlignerFailed, fragment.Get("end").Raw, err)
			return false
		}

		segments = append(segments, models.Segment{Start: begin, End: end, Text: text})
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}

	return segments, nil
}

func coerceSeconds(value gjson.Result) (float64, error) {
	switch value.Type {
	case gjson.Null:
		return 0, nil
	case gjson.Number:
		return value.Float(), nil
	case gjson.String:
		return strconv.ParseFloat(strings.TrimSpace(value.Str), 64)
	default:
		return 0, fmt.Errorf("unexpected %s value", value.Type)
	}
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
