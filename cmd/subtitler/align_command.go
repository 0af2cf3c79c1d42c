package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/alignment"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/media"
)

func newAlignCommand(ctx *commandContext) *cobra.Command {
	var audioPath string
	var scriptPath string
	var scriptText string
	var language string
	var outputPath string
	var pythonPath string
	var ffprobePath string

	cmd := &cobra.Command{
		Use:   "align",
		Short: "Align a script to a local audio file and print segments as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(audioPath) == "" {
				return fmt.Errorf("--audio is required")
			}
			if _, err := os.Stat(audioPath); err != nil {
				return fmt.Errorf("audio file %q: %w", audioPath, err)
			}

			text, err := readScript(scriptPath, scriptText)
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if pythonPath != "" {
				cfg.Aligner.PythonPath = pythonPath
			}
			if ffprobePath != "" {
				cfg.Media.FFprobePath = ffprobePath
			}
			if language == "" {
				language = cfg.Aligner.DefaultLanguage
			}

			logger := ctx.logger()
			runner := alignment.NewAeneasRunner(cfg.Aligner.PythonPath, cfg.Aligner.Module, cfg.Aligner.Timeout)
			prober := media.NewFFmpeg(cfg.Media.FFmpegPath, cfg.Media.FFprobePath)
			aligner := alignment.NewAligner(runner, prober, alignment.Options{
				MaxWordsPerChunk: cfg.Aligner.MaxWordsPerChunk,
				MaxChars:         cfg.Aligner.MaxChars,
				MaxLines:         cfg.Aligner.MaxLines,
				DefaultLanguage:  cfg.Aligner.DefaultLanguage,
				TempDir:          os.TempDir(),
			}, logger)

			result, err := aligner.AlignWithResult(cmd.Context(), audioPath, text, language)
			if err != nil {
				return err
			}
			logger.Infof("Aligned %d segments using %s strategy", len(result.Segments), result.Strategy)

			data, err := json.MarshalIndent(result.Segments, "", "  ")
			if err != nil {
				return fmt.Errorf("encode segments: %w", err)
			}
			return writeOutput(cmd, outputPath, data)
		},
	}

	cmd.Flags().StringVar(&audioPath, "audio", "", "Path to the audio file (WAV recommended)")
	cmd.Flags().StringVar(&scriptPath, "script", "", "Path to a UTF-8 script text file")
	cmd.Flags().StringVar(&scriptText, "text", "", "Script text given inline")
	cmd.Flags().StringVar(&language, "lang", "", "Three-letter language code (default from config)")
	cmd.Flags().StringVarP(&outputPath, "out", "o", "", "Write segments to this file instead of stdout")
	cmd.Flags().StringVar(&pythonPath, "python", "", "Python interpreter running the forced aligner")
	cmd.Flags().StringVar(&ffprobePath, "ffprobe", "", "ffprobe binary used to measure the audio")

	return cmd
}

func readScript(path, inline string) (string, error) {
	switch {
	case path != "" && inline != "":
		return "", fmt.Errorf("use either --script or --text, not both")
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read script: %w", err)
		}
		return string(data), nil
	case inline != "":
		return inline, nil
	default:
		return "", fmt.Errorf("a script is required: pass --script <file> or --text <text>")
	}
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
