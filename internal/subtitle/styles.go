package subtitle

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/therealutkarshpriyadarshi/subtitler/pkg/models"
)

// Border styles
const (
	BorderStyleOutline   = 1 // outline + drop shadow
	BorderStyleOpaqueBox = 3
)

// Alignment positions follow the numeric keypad: 1-3 bottom, 4-6 middle, 7-9 top
const (
	AlignBottomLeft   = 1
	AlignBottomCenter = 2
	AlignBottomRight  = 3
	AlignMiddleCenter = 5
	AlignTopCenter    = 8
)

// ASS boolean flag values
const (
	FlagOn  = -1
	FlagOff = 0
)

// DefaultPresetName is substituted for unknown preset names
const DefaultPresetName = "tiktok_clean"

// Style is a subtitle visual preset. Colors use the &HAABBGGRR encoding.
// FontSize, Outline, Shadow and MarginV are authored for a 1080 line frame.
type Style struct {
	Name           string
	FontName       string
	FontSize       int
	PrimaryColor   string
	SecondaryColor string
	OutlineColor   string
	BackColor      string
	Bold           int
	Italic         int
	Underline      int
	StrikeOut      int
	ScaleX         int
	ScaleY         int
	Spacing        int
	Angle          float64
	BorderStyle    int
	Outline        float64
	Shadow         float64
	Alignment      int
	MarginL        int
	MarginR        int
	MarginV        int
	Encoding       int
}

// StyleFormat lists the style record fields in order
const StyleFormat = "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, " +
	"OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, " +
	"ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, " +
	"Alignment, MarginL, MarginR, MarginV, Encoding"

// Line renders the style as a single "Style:" record of 23 fields
func (s Style) Line() string {
	fields := []string{
		s.Name,
		s.FontName,
		strconv.Itoa(s.FontSize),
		s.PrimaryColor,
		s.SecondaryColor,
		s.OutlineColor,
		s.BackColor,
		strconv.Itoa(s.Bold),
		strconv.Itoa(s.Italic),
		strconv.Itoa(s.Underline),
		strconv.Itoa(s.StrikeOut),
		strconv.Itoa(s.ScaleX),
		strconv.Itoa(s.ScaleY),
		strconv.Itoa(s.Spacing),
		formatDecimal(s.Angle),
		strconv.Itoa(s.BorderStyle),
		formatDecimal(s.Outline),
		formatDecimal(s.Shadow),
		strconv.Itoa(s.Alignment),
		strconv.Itoa(s.MarginL),
		strconv.Itoa(s.MarginR),
		strconv.Itoa(s.MarginV),
		strconv.Itoa(s.Encoding),
	}
	return "Style: " + strings.Join(fields, ",")
}

// ScaledTo returns a copy of the style sized for a frame of the given height.
// Horizontal margins, colors, alignment and flags do not depend on resolution.
func (s Style) ScaledTo(height int) Style {
	factor := float64(height) / float64(models.ReferenceHeight)

	scaled := s
	scaled.FontSize = int(math.Round(float64(s.FontSize) * factor))
	scaled.MarginV = int(math.Round(float64(s.MarginV) * factor))
	scaled.Outline = roundTenths(s.Outline * factor)
	scaled.Shadow = roundTenths(s.Shadow * factor)
	return scaled
}

// Store is a read-only catalog of named presets
type Store struct {
	presets     map[string]Style
	defaultName string
}

// NewStore builds a catalog. defaultName must be one of the presets.
func NewStore(presets map[string]Style, defaultName string) (*Store, error) {
	if _, ok := presets[defaultName]; !ok {
		return nil, fmt.Errorf("default preset %q not in catalog", defaultName)
	}
	catalog := make(map[string]Style, len(presets))
	for name, style := range presets {
		catalog[name] = style
	}
	return &Store{presets: catalog, defaultName: defaultName}, nil
}

// DefaultStore returns the built-in catalog
func DefaultStore() *Store {
	return defaultStore
}

// BuiltinStore returns the built-in presets with a different default
func BuiltinStore(defaultName string) (*Store, error) {
	return NewStore(builtinPresets(), defaultName)
}

var defaultStore = &Store{presets: builtinPresets(), defaultName: DefaultPresetName}

// Has reports whether a preset exists
func (s *Store) Has(name string) bool {
	_, ok := s.presets[name]
	return ok
}

// DefaultName returns the preset used for unknown names
func (s *Store) DefaultName() string {
	return s.defaultName
}

// Names returns the preset names in sorted order
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.presets))
	for name := range s.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the unscaled preset
func (s *Store) Lookup(name string) (Style, bool) {
	style, ok := s.presets[name]
	return style, ok
}

// Resolve returns the named preset scaled for the target frame. Unknown names
// resolve to the default preset.
func (s *Store) Resolve(name string, width, height int) Style {
	style, ok := s.presets[name]
	if !ok {
		style = s.presets[s.defaultName]
	}
	return style.ScaledTo(height)
}

// Resolve looks up a preset in the built-in catalog
func Resolve(name string, width, height int) Style {
	return defaultStore.Resolve(name, width, height)
}

func builtinPresets() map[string]Style {
	return map[string]Style{
		"tiktok_clean": {
			Name:           "Default",
			FontName:       "Inter",
			FontSize:       48,
			PrimaryColor:   "&H00FFFFFF",
			SecondaryColor: "&H000000FF",
			OutlineColor:   "&H00000000",
			BackColor:      "&H80000000",
			Bold:           FlagOn,
			Italic:         FlagOff,
			Underline:      FlagOff,
			StrikeOut:      FlagOff,
			ScaleX:         100,
			ScaleY:         100,
			Spacing:        0,
			Angle:          0,
			BorderStyle:    BorderStyleOutline,
			Outline:        2.5,
			Shadow:         1.5,
			Alignment:      AlignBottomCenter,
			MarginL:        40,
			MarginR:        40,
			MarginV:        80,
			Encoding:       1,
		},
		"tiktok_bold": {
			Name:           "Default",
			FontName:       "Inter",
			FontSize:       56,
			PrimaryColor:   "&H00FFFFFF",
			SecondaryColor: "&H000000FF",
			OutlineColor:   "&H00000000",
			BackColor:      "&H80000000",
			Bold:           FlagOn,
			Italic:         FlagOff,
			Underline:      FlagOff,
			StrikeOut:      FlagOff,
			ScaleX:         100,
			ScaleY:         100,
			Spacing:        1,
			Angle:          0,
			BorderStyle:    BorderStyleOutline,
			Outline:        3.0,
			Shadow:         2.0,
			Alignment:      AlignBottomCenter,
			MarginL:        40,
			MarginR:        40,
			MarginV:        100,
			Encoding:       1,
		},
		"minimal": {
			Name:           "Default",
			FontName:       "Arial",
			FontSize:       40,
			PrimaryColor:   "&H00FFFFFF",
			SecondaryColor: "&H000000FF",
			OutlineColor:   "&H00000000",
			BackColor:      "&H00000000",
			Bold:           FlagOff,
			Italic:         FlagOff,
			Underline:      FlagOff,
			StrikeOut:      FlagOff,
			ScaleX:         100,
			ScaleY:         100,
			Spacing:        0,
			Angle:          0,
			BorderStyle:    BorderStyleOutline,
			Outline:        1.5,
			Shadow:         0,
			Alignment:      AlignBottomCenter,
			MarginL:        20,
			MarginR:        20,
			MarginV:        60,
			Encoding:       1,
		},
	}
}

func roundTenths(v float64) float64 {
	return math.Round(v*10) / 10
}

// formatDecimal prints a float with at least one fractional digit
func formatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
