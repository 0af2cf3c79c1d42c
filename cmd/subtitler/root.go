package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/config"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/logging"
)

type commandContext struct {
	configFlag *string
	verbose    *bool
	cfg        *config.Config
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := strings.TrimSpace(*c.configFlag)
	if path == "" {
		c.cfg = config.Default()
		return c.cfg, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	c.cfg = cfg
	return cfg, nil
}

// logger writes to stderr; stdout carries command output
func (c *commandContext) logger() *logging.Logger {
	level := "warn"
	if *c.verbose {
		level = "debug"
	}
	logger, err := logging.NewLogger(logging.Config{Level: level, Format: "console", Output: "stderr"})
	if err != nil {
		return logging.Nop()
	}
	return logger
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var verbose bool

	ctx := &commandContext{configFlag: &configFlag, verbose: &verbose}

	rootCmd := &cobra.Command{
		Use:           "subtitler",
		Short:         "Align scripts to audio and generate styled ASS subtitles",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")

	rootCmd.AddCommand(newAlignCommand(ctx))
	rootCmd.AddCommand(newGenerateCommand(ctx))
	rootCmd.AddCommand(newStylesCommand(ctx))
	rootCmd.AddCommand(newPurgeCacheCommand(ctx))

	return rootCmd
}
