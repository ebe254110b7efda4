package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/viniciushashizume/stock-insight-hub/internal/analytics"
	"github.com/viniciushashizume/stock-insight-hub/internal/config"
	"github.com/viniciushashizume/stock-insight-hub/internal/domain"
	"github.com/viniciushashizume/stock-insight-hub/internal/ingest"
	"github.com/viniciushashizume/stock-insight-hub/internal/service"
	"github.com/viniciushashizume/stock-insight-hub/internal/snapshot"
	"github.com/viniciushashizume/stock-insight-hub/pkg/logger"
)

func main() {
	app := newApp(os.Stdout)
	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("insights failed")
	}
}

func newApp(out io.Writer) *cli.App {
	view := func(name, usage string, fn func(ctx context.Context, svc *service.InsightsService) (interface{}, error)) *cli.Command {
		return &cli.Command{
			Name:  name,
			Usage: usage,
			Action: func(c *cli.Context) error {
				svc, err := newService(c)
				if err != nil {
					return err
				}
				result, err := fn(c.Context, svc)
				if err != nil {
					return err
				}
				return printJSON(out, result)
			},
		}
	}

	return &cli.App{
		Name:  "insights",
		Usage: "Compute hospital inventory insights from a movement dataset",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "source",
				Usage: "Comma separated source chain (file, dir, storage, drive, postgres, synthetic)",
			},
			&cli.StringSliceFlag{
				Name:  "file",
				Usage: "Dataset file to read; implies the file source",
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Directory of dataset files; implies the dir source",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			// stdout carries the JSON result
			logger.UseConsole(os.Stderr)
			logger.SetLevel(c.String("log-level"))
			return nil
		},
		Commands: []*cli.Command{
			view("clusters", "K-means segments per material group", func(ctx context.Context, svc *service.InsightsService) (interface{}, error) {
				return svc.Clusters(ctx)
			}),
			view("risk", "Consumption variability against stock coverage", func(ctx context.Context, svc *service.InsightsService) (interface{}, error) {
				return svc.Risk(ctx)
			}),
			view("seasonality", "Seasonal and stable items", func(ctx context.Context, svc *service.InsightsService) (interface{}, error) {
				return svc.Seasonality(ctx)
			}),
			view("strategic", "ABC-XYZ matrix and immobilized capital", func(ctx context.Context, svc *service.InsightsService) (interface{}, error) {
				return svc.Strategic(ctx)
			}),
			view("inflation", "Items with the largest unit price increase", func(ctx context.Context, svc *service.InsightsService) (interface{}, error) {
				return svc.Inflation(ctx)
			}),
			view("kpis", "Headline numbers", func(ctx context.Context, svc *service.InsightsService) (interface{}, error) {
				return svc.KPIs(ctx)
			}),
			view("overview", "Every view in one document", func(ctx context.Context, svc *service.InsightsService) (interface{}, error) {
				return svc.Overview(ctx)
			}),
			view("dataset", "Loaded dataset metadata and column resolution", func(ctx context.Context, svc *service.InsightsService) (interface{}, error) {
				return svc.Dataset(ctx)
			}),
			syntheticCommand(out),
			cacheCommand(out),
		},
	}
}

// datasetConfig applies the command line overrides to a copy of the loaded
// configuration.
func datasetConfig(c *cli.Context) *config.Config {
	cfg := *config.Load()
	if src := c.String("source"); src != "" {
		cfg.Dataset.Sources = splitSources(src)
	}
	if files := c.StringSlice("file"); len(files) > 0 {
		cfg.Dataset.Files = files
		cfg.Dataset.Sources = []string{"file"}
	}
	if dir := c.String("dir"); dir != "" {
		cfg.Dataset.Dir = dir
		cfg.Dataset.Sources = []string{"dir"}
	}
	return &cfg
}

func splitSources(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func loadDataset(c *cli.Context, cfg *config.Config) (*domain.Dataset, error) {
	sources, err := ingest.BuildSources(c.Context, cfg)
	if err != nil {
		return nil, err
	}
	return ingest.NewLoader(sources...).LoadDataset(c.Context)
}

func newService(c *cli.Context) (*service.InsightsService, error) {
	cfg := datasetConfig(c)

	opts, err := analytics.OptionsFromConfig(cfg.Analytics)
	if err != nil {
		return nil, err
	}
	engine, err := analytics.NewEngine(opts)
	if err != nil {
		return nil, err
	}

	store := snapshot.NewStore()
	if err := store.Load(c.Context, func(ctx context.Context) (*domain.Dataset, error) {
		return loadDataset(c, cfg)
	}); err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return service.NewInsightsService(store, engine, nil), nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
