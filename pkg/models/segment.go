package models

import (
	"fmt"
	"strings"
)

// Segment is a timed piece of subtitle text. Start and End are absolute
// offsets in seconds into the source audio timeline.
type Segment struct {
	Start float64 `json:"start" validate:"gte=0"`
	End   float64 `json:"end" validate:"gte=0,gtefield=Start"`
	Text  string  `json:"text" validate:"required"`
}

// Duration returns the display length of the segment in seconds
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Lines returns the display lines of the segment text
func (s Segment) Lines() []string {
	return strings.Split(s.Text, "\n")
}

// String returns a human-readable representation for logging
func (s Segment) String() string {
	return fmt.Sprintf("[%.3f-%.3f] %q", s.Start, s.End, s.Text)
}

// AlignRequest is the request body for the align endpoint
type AlignRequest struct {
	VideoURL   string `json:"video_url" validate:"required,url"`
	ScriptText string `json:"script_text" validate:"required"`
	Language   string `json:"language,omitempty"`
}

// AlignResponse is the response body for the align endpoint
type AlignResponse struct {
	Segments []Segment `json:"segments"`
	Duration float64   `json:"duration"`
	Language string    `json:"language"`
}

// RenderRequest is the request body for the render endpoints
type RenderRequest struct {
	VideoURL    string    `json:"video_url" validate:"required,url"`
	Segments    []Segment `json:"segments" validate:"required,min=1,dive"`
	StylePreset string    `json:"style_preset,omitempty"`
}

// Default request values
const (
	DefaultLanguage    = "vie"
	DefaultStylePreset = "tiktok_clean"
)

// ApplyDefaults fills in optional fields left empty by the client
func (r *AlignRequest) ApplyDefaults() {
	if strings.TrimSpace(r.Language) == "" {
		r.Language = DefaultLanguage
	}
}

// ApplyDefaults fills in optional fields left empty by the client
func (r *RenderRequest) ApplyDefaults() {
	if strings.TrimSpace(r.StylePreset) == "" {
		r.StylePreset = DefaultStylePreset
	}
}
