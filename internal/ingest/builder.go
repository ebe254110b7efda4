package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/viniciushashizume/stock-insight-hub/internal/config"
	"github.com/viniciushashizume/stock-insight-hub/internal/drive"
	"github.com/viniciushashizume/stock-insight-hub/internal/repository"
	"github.com/viniciushashizume/stock-insight-hub/internal/repository/postgres"
	"github.com/viniciushashizume/stock-insight-hub/internal/storage"
)

// BuildSources turns the configured source names into Sources, in order.
// A remote source that cannot be set up is logged and left out so the
// chain can still fall back to the local ones.
func BuildSources(ctx context.Context, cfg *config.Config) ([]Source, error) {
	var sources []Source
	for _, name := range cfg.Dataset.Sources {
		src, err := buildSource(ctx, strings.ToLower(name), cfg)
		if err != nil {
			if isUnknownSource(err) {
				return nil, err
			}
			log.Warn().Err(err).Str("source", name).Msg("dataset source disabled")
			continue
		}
		sources = append(sources, src)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no usable source in %v", ErrNoDataset, cfg.Dataset.Sources)
	}
	return sources, nil
}

type unknownSourceError struct{ name string }

func (e unknownSourceError) Error() string {
	return fmt.Sprintf("unknown dataset source %q", e.name)
}

func isUnknownSource(err error) bool {
	_, ok := err.(unknownSourceError)
	return ok
}

func buildSource(ctx context.Context, name string, cfg *config.Config) (Source, error) {
	switch name {
	case "file":
		return &FileSource{Paths: cfg.Dataset.Files}, nil
	case "dir":
		return &DirSource{Dir: cfg.Dataset.Dir, Workers: cfg.Dataset.Workers}, nil
	case "synthetic":
		return NewSynthetic(cfg.Dataset.SyntheticItems, cfg.Dataset.SyntheticSeed), nil
	case "storage":
		client, err := storage.NewS3Client(storage.S3Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return &StorageSource{
			Client:      client,
			Key:         cfg.Storage.Key,
			Prefix:      cfg.Storage.Prefix,
			DownloadDir: cfg.Dataset.DownloadDir,
		}, nil
	case "drive":
		creds, err := driveCredentials(cfg.Drive)
		if err != nil {
			return nil, err
		}
		svc, err := drive.NewService(ctx, creds)
		if err != nil {
			return nil, err
		}
		return &DriveSource{
			Downloader:  drive.NewDownloader(svc),
			FolderID:    cfg.Drive.FolderID,
			FolderPath:  cfg.Drive.FolderPath,
			DownloadDir: cfg.Dataset.DownloadDir,
		}, nil
	case "postgres", "db":
		db, err := postgres.NewDB(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		return &PostgresSource{
			Repo:    repository.NewMovementRepository(db),
			Table:   cfg.Database.Table,
			MaxRows: cfg.Database.MaxRows,
		}, nil
	}
	return nil, unknownSourceError{name: name}
}

func driveCredentials(cfg config.DriveConfig) (string, error) {
	if cfg.CredentialsJSON != "" {
		return cfg.CredentialsJSON, nil
	}
	if cfg.CredentialsFile == "" {
		return "", fmt.Errorf("drive credentials are not configured")
	}
	raw, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return "", fmt.Errorf("read drive credentials: %w", err)
	}
	return string(raw), nil
}
