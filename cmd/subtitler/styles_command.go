package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/subtitle"
	"github.com/therealutkarshpriyadarshi/subtitler/pkg/models"
)

func newStylesCommand(ctx *commandContext) *cobra.Command {
	var height int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "styles",
		Short: "List subtitle style presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := subtitle.BuiltinStore(cfg.Subtitle.DefaultPreset)
			if err != nil {
				store = subtitle.DefaultStore()
			}

			if asJSON {
				data, err := json.MarshalIndent(models.StyleList{Presets: store.Names(), Default: store.DefaultName()}, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderStyles(store, height))
			return err
		},
	}

	cmd.Flags().IntVar(&height, "height", models.ReferenceHeight, "Show sizes scaled for this frame height")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the preset list as JSON")

	return cmd
}

func renderStyles(store *subtitle.Store, height int) string {
	headers := []string{"Preset", "Font", "Size", "Outline", "Shadow", "MarginV", "Default"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft}

	rows := make([][]string, 0, len(store.Names()))
	for _, name := range store.Names() {
		style := store.Resolve(name, 0, height)
		marker := ""
		if name == store.DefaultName() {
			marker = "yes"
		}
		rows = append(rows, []string{
			name,
			style.FontName,
			strconv.Itoa(style.FontSize),
			strconv.FormatFloat(style.Outline, 'f', 1, 64),
			strconv.FormatFloat(style.Shadow, 'f', 1, 64),
			strconv.Itoa(style.MarginV),
			marker,
		})
	}
	return renderTable(headers, rows, aligns)
}
