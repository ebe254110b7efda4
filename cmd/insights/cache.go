package main

import (
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/viniciushashizume/stock-insight-hub/internal/cache"
	"github.com/viniciushashizume/stock-insight-hub/internal/config"
)

func cacheCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the shared insights cache",
		Subcommands: []*cli.Command{
			{
				Name:  "purge",
				Usage: "Delete every cached insight view from redis",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "redis-url",
						Usage: "Redis URL; defaults to the configured REDIS_* settings",
					},
				},
				Action: func(c *cli.Context) error {
					cfg := config.Load().Cache
					cfg.Enabled = true
					if url := c.String("redis-url"); url != "" {
						cfg.RedisURL = url
					}

					insightsCache, err := cache.NewInsightsCache(cfg)
					if err != nil {
						return fmt.Errorf("connect cache: %w", err)
					}
					if err := insightsCache.InvalidateAll(c.Context); err != nil {
						return err
					}
					fmt.Fprintln(out, "insights cache purged")
					return nil
				},
			},
		},
	}
}
