package subtitle

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/therealutkarshpriyadarshi/subtitler/internal/logging"
	"github.com/therealutkarshpriyadarshi/subtitler/pkg/models"
)

// EventFormat lists the dialogue fields in order
const EventFormat = "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text"

// LineBreak is the inline line-break token of the document format
const LineBreak = `\N`

// Generator serializes timed segments into an ASS subtitle document
type Generator struct {
	store  *Store
	logger *logging.Logger
}

// NewGenerator creates a generator backed by a style catalog
func NewGenerator(store *Store, logger *logging.Logger) *Generator {
	if store == nil {
		store = DefaultStore()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Generator{store: store, logger: logger.WithComponent("subtitle")}
}

// Store returns the style catalog used by the generator
func (g *Generator) Store() *Store {
	return g.store
}

// Generate builds the complete document: script info, a single style record
// and one dialogue line per segment in input order
func (g *Generator) Generate(segments []models.Segment, presetName string, res models.Resolution) string {
	if !g.store.Has(presetName) {
		g.logger.Warnf("Unknown preset %q, using %q", presetName, g.store.DefaultName())
	}
	style := g.store.Resolve(presetName, res.Width, res.Height)

	g.logger.Debugf("Generating ASS with %d segments for %s", len(segments), res)

	lines := make([]string, 0, len(segments)+16)

	lines = append(lines,
		"[Script Info]",
		"Title: Generated Subtitles",
		"ScriptType: v4.00+",
		"PlayResX: "+strconv.Itoa(res.Width),
		"PlayResY: "+strconv.Itoa(res.Height),
		"ScaledBorderAndShadow: yes",
		"YCbCr Matrix: TV.709",
		"",
	)

	lines = append(lines,
		"[V4+ Styles]",
		StyleFormat,
		style.Line(),
		"",
	)

	lines = append(lines, "[Events]", EventFormat)
	for _, seg := range segments {
		lines = append(lines, DialogueLine(seg, style.Name))
	}

	return strings.Join(lines, "\n")
}

// WriteFile generates the document and writes it to path as UTF-8
func (g *Generator) WriteFile(path string, segments []models.Segment, presetName string, res models.Resolution) error {
	content := g.Generate(segments, presetName, res)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write subtitle file: %w", err)
	}
	g.logger.Infof("ASS file saved to %s", path)
	return nil
}

// Generate builds a document with the built-in catalog
func Generate(segments []models.Segment, presetName string, res models.Resolution) string {
	return NewGenerator(nil, nil).Generate(segments, presetName, res)
}

// DialogueLine renders one segment as a 10 field event line
func DialogueLine(seg models.Segment, styleName string) string {
	return fmt.Sprintf("Dialogue: 0,%s,%s,%s,,0,0,0,,%s",
		FormatTimestamp(seg.Start),
		FormatTimestamp(seg.End),
		styleName,
		EscapeText(seg.Text),
	)
}

// FormatTimestamp converts seconds to H:MM:SS.cc, truncating to centiseconds
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}

	// Snapping to 1e-9 centiseconds absorbs representation error such as
	// 1.99*100 = 198.99999999999997 without rounding real remainders up
	scaled := math.Round(seconds*100*1e9) / 1e9
	total := int64(math.Floor(scaled))

	hours := total / 360000
	minutes := (total / 6000) % 60
	secs := (total / 100) % 60
	centis := total % 100

	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, centis)
}

// EscapeText converts line breaks to the inline break token. Override
// blocks in braces pass through untouched.
func EscapeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\n", LineBreak)
}
