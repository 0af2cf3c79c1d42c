package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/cache"
)

func newPurgeCacheCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "purge-cache",
		Short: "Remove every cached alignment from Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			c, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.CacheTTL)
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Purge(cmd.Context()); err != nil {
				return fmt.Errorf("purge alignment cache: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Alignment cache purged")
			return err
		},
	}
}
