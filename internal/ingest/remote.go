package ingest

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/viniciushashizume/stock-insight-hub/internal/drive"
	"github.com/viniciushashizume/stock-insight-hub/internal/repository"
	"github.com/viniciushashizume/stock-insight-hub/internal/schema"
	"github.com/viniciushashizume/stock-insight-hub/internal/storage"
)

// StorageSource downloads one dataset object from a bucket. With Key empty
// the newest supported object under Prefix is used.
type StorageSource struct {
	Client      storage.ObjectStorage
	Key         string
	Prefix      string
	DownloadDir string
}

func (s *StorageSource) Name() string { return "storage" }

func (s *StorageSource) Load(ctx context.Context) (*schema.Table, error) {
	key := s.Key
	if key == "" {
		objects, err := s.Client.ListObjects(ctx, s.Prefix)
		if err != nil {
			return nil, fmt.Errorf("list objects under %q: %w", s.Prefix, err)
		}
		latest, ok := newestSupported(objects)
		if !ok {
			return nil, fmt.Errorf("%w: no supported object under %q", ErrNoDataset, s.Prefix)
		}
		key = latest.Key
	}

	dest := filepath.Join(downloadDir(s.DownloadDir), path.Base(key))
	if err := s.Client.DownloadObject(ctx, key, dest); err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	log.Info().Str("key", key).Str("path", dest).Msg("downloaded dataset object")

	table, err := ReadFile(dest)
	if err != nil {
		return nil, err
	}
	table.Source = "storage:" + key
	return table, nil
}

func newestSupported(objects []storage.ObjectInfo) (storage.ObjectInfo, bool) {
	var candidates []storage.ObjectInfo
	for _, o := range objects {
		if IsSupported(o.Key) {
			candidates = append(candidates, o)
		}
	}
	if len(candidates) == 0 {
		return storage.ObjectInfo{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].LastModified.Equal(candidates[j].LastModified) {
			return candidates[i].LastModified.After(candidates[j].LastModified)
		}
		return candidates[i].Key < candidates[j].Key
	})
	return candidates[0], true
}

// LatestDownloader fetches the newest matching file of a remote folder.
type LatestDownloader interface {
	DownloadLatest(ctx context.Context, opts drive.DownloadOptions) (string, error)
}

// DriveSource reads the newest supported export from a Google Drive folder.
type DriveSource struct {
	Downloader  LatestDownloader
	FolderID    string
	FolderPath  string
	DownloadDir string
}

func (s *DriveSource) Name() string { return "drive" }

func (s *DriveSource) Load(ctx context.Context) (*schema.Table, error) {
	local, err := s.Downloader.DownloadLatest(ctx, drive.DownloadOptions{
		FolderID:    s.FolderID,
		FolderPath:  s.FolderPath,
		DownloadDir: downloadDir(s.DownloadDir),
		Extensions:  SupportedExtensions,
	})
	if err != nil {
		return nil, err
	}

	table, err := ReadFile(local)
	if err != nil {
		return nil, err
	}
	table.Source = "drive:" + filepath.Base(local)
	return table, nil
}

// PostgresSource reads the movement table through the repository.
type PostgresSource struct {
	Repo    repository.MovementRepository
	Table   string
	MaxRows int
}

func (s *PostgresSource) Name() string { return "postgres" }

func (s *PostgresSource) Load(ctx context.Context) (*schema.Table, error) {
	table, err := s.Repo.LoadTable(ctx, s.Table, s.MaxRows)
	if err != nil {
		return nil, err
	}
	table.Source = "postgres:" + s.Table
	return table, nil
}

func downloadDir(dir string) string {
	if dir != "" {
		return dir
	}
	return filepath.Join(os.TempDir(), "stock-insight-hub")
}
