package models

import "fmt"

// ReferenceHeight is the frame height style presets are authored against
const ReferenceHeight = 1080

// Resolution is a target frame size in pixels
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Standard resolutions
var (
	Resolution1080p = Resolution{Width: 1920, Height: 1080}
	Resolution720p  = Resolution{Width: 1280, Height: 720}
	// ResolutionVertical is the 9:16 frame used by short-form video
	ResolutionVertical = Resolution{Width: 1080, Height: 1920}
)

// ScaleFactor returns the ratio of this resolution's height to the reference height
func (r Resolution) ScaleFactor() float64 {
	return float64(r.Height) / float64(ReferenceHeight)
}

// String returns the resolution as WIDTHxHEIGHT
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}
