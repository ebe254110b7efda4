package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/viniciushashizume/stock-insight-hub/internal/config"
	"github.com/viniciushashizume/stock-insight-hub/internal/ingest"
	"github.com/viniciushashizume/stock-insight-hub/internal/storage"
)

func syntheticCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "synthetic",
		Usage: "Write the synthetic dataset to a file (.csv, .csv.gz or .xlsx)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "out",
				Usage:    "Output path",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "items",
				Value: 500,
			},
			&cli.Int64Flag{
				Name:  "seed",
				Value: 42,
			},
			&cli.StringFlag{
				Name:  "upload-key",
				Usage: "Also upload the file to the configured bucket under this key",
			},
		},
		Action: func(c *cli.Context) error {
			table := ingest.NewSynthetic(c.Int("items"), c.Int64("seed")).Generate()
			path := c.String("out")
			if err := ingest.WriteFile(table, path); err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote %d rows to %s\n", table.Len(), path)

			key := c.String("upload-key")
			if key == "" {
				return nil
			}
			return uploadFile(c, path, key, out)
		},
	}
}

func uploadFile(c *cli.Context, path, key string, out io.Writer) error {
	cfg := config.Load().Storage
	client, err := storage.NewS3Client(storage.S3Config{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		UseSSL:    cfg.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("storage client: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := client.UploadObject(c.Context, key, data); err != nil {
		return err
	}
	fmt.Fprintf(out, "uploaded %s as %s\n", filepath.Base(path), key)
	return nil
}
