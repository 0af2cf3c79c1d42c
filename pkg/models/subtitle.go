package models

// SubtitleFormat constants
const (
	SubtitleFormatVTT = "vtt"
	SubtitleFormatSRT = "srt"
	SubtitleFormatASS = "ass"
)

// StyleList is the response body for the styles endpoint
type StyleList struct {
	Presets []string `json:"presets"`
	Default string   `json:"default"`
}
