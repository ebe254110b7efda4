package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoFile is returned when a folder holds no file with a wanted extension.
var ErrNoFile = errors.New("drive: no matching file in folder")

// DownloadOptions controls how files are pulled from Google Drive.
type DownloadOptions struct {
	FolderID    string
	FolderPath  string
	DownloadDir string
	Extensions  []string
}

// fileLister is the subset of Service the Downloader needs.
type fileLister interface {
	ListFiles(ctx context.Context, folderID string) ([]*File, error)
	DownloadFile(ctx context.Context, fileID string, w io.Writer) error
	FindFolderByPath(ctx context.Context, path string) (string, error)
}

// Downloader pulls dataset exports out of a Drive folder.
type Downloader struct {
	service fileLister
}

func NewDownloader(s *Service) *Downloader {
	return &Downloader{service: s}
}

// DownloadLatest downloads the most recently modified file of the folder
// whose extension is in opts.Extensions and returns its local path. Files
// are matched on their full suffix so ".csv.gz" works.
func (d *Downloader) DownloadLatest(ctx context.Context, opts DownloadOptions) (string, error) {
	if opts.DownloadDir == "" {
		return "", fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(opts.DownloadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download dir: %w", err)
	}

	folderID := opts.FolderID
	if folderID == "" && opts.FolderPath != "" {
		id, err := d.service.FindFolderByPath(ctx, opts.FolderPath)
		if err != nil {
			return "", err
		}
		folderID = id
	}

	files, err := d.service.ListFiles(ctx, folderID)
	if err != nil {
		return "", err
	}

	var latest *File
	for _, f := range files {
		if !hasExtension(f.Name, opts.Extensions) {
			continue
		}
		// RFC 3339 timestamps compare correctly as strings.
		if latest == nil || f.ModifiedTime > latest.ModifiedTime {
			latest = f
		}
	}
	if latest == nil {
		return "", fmt.Errorf("%w: folder %s", ErrNoFile, folderID)
	}

	localPath := filepath.Join(opts.DownloadDir, filepath.Base(latest.Name))
	out, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create local file %s: %w", localPath, err)
	}
	if err := d.service.DownloadFile(ctx, latest.ID, out); err != nil {
		out.Close()
		_ = os.Remove(localPath)
		return "", fmt.Errorf("failed to download %s: %w", latest.Name, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", localPath, err)
	}

	return localPath, nil
}

func hasExtension(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
