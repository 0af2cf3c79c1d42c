package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/subtitle"
	"github.com/therealutkarshpriyadarshi/subtitler/pkg/models"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var segmentsPath string
	var preset string
	var width int
	var height int
	var outputPath string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an ASS subtitle document from segments JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if segmentsPath == "" {
				return fmt.Errorf("--segments is required")
			}
			if width <= 0 || height <= 0 {
				return fmt.Errorf("--width and --height must be positive")
			}

			segments, err := loadSegments(segmentsPath)
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := subtitle.BuiltinStore(cfg.Subtitle.DefaultPreset)
			if err != nil {
				store = subtitle.DefaultStore()
			}
			if preset == "" {
				preset = store.DefaultName()
			}

			generator := subtitle.NewGenerator(store, ctx.logger())
			doc := generator.Generate(segments, preset, models.Resolution{Width: width, Height: height})
			return writeOutput(cmd, outputPath, []byte(doc))
		},
	}

	cmd.Flags().StringVar(&segmentsPath, "segments", "", "Segments JSON (a list, or an align response)")
	cmd.Flags().StringVar(&preset, "preset", "", "Style preset name")
	cmd.Flags().IntVar(&width, "width", models.Resolution1080p.Width, "Target video width")
	cmd.Flags().IntVar(&height, "height", models.Resolution1080p.Height, "Target video height")
	cmd.Flags().StringVarP(&outputPath, "out", "o", "", "Write the document to this file instead of stdout")

	return cmd
}

// loadSegments accepts either a bare segment list or an object with a
// "segments" field
func loadSegments(path string) ([]models.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read segments: %w", err)
	}

	var segments []models.Segment
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var resp models.AlignResponse
		if err := json.Unmarshal(trimmed, &resp); err != nil {
			return nil, fmt.Errorf("decode segments: %w", err)
		}
		segments = resp.Segments
	} else if err := json.Unmarshal(data, &segments); err != nil {
		return nil, fmt.Errorf("decode segments: %w", err)
	}

	if err := models.ValidateSegments(segments); err != nil {
		return nil, err
	}
	return segments, nil
}
