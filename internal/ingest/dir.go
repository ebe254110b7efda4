package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/viniciushashizume/stock-insight-hub/internal/schema"
)

// DirSource reads every supported file of a directory in parallel and
// concatenates them into one table.
type DirSource struct {
	Dir     string
	Workers int
}

func (s *DirSource) Name() string { return "dir" }

func (s *DirSource) Load(ctx context.Context) (*schema.Table, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("read dataset dir %s: %w", s.Dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsSupported(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(s.Dir, e.Name()))
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no supported files in %s", ErrNoDataset, s.Dir)
	}

	tables, err := readFilesParallel(ctx, files, s.Workers)
	if err != nil {
		return nil, err
	}

	merged := MergeTables(tables...)
	merged.Source = "dir:" + s.Dir
	return merged, nil
}

type fileJob struct {
	index int
	path  string
}

// readFilesParallel parses files with a bounded worker pool. Results keep
// the input order; the first parse error aborts the batch.
func readFilesParallel(ctx context.Context, files []string, workerCount int) ([]*schema.Table, error) {
	if workerCount < 1 {
		workerCount = 1
	}

	results := make([]*schema.Table, len(files))
	jobChan := make(chan fileJob, len(files))
	errChan := make(chan error, workerCount)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobChan {
				if ctx.Err() != nil {
					return
				}
				start := time.Now()
				table, err := ReadFile(job.path)
				if err != nil {
					log.Error().Err(err).Int("worker", workerID).Str("file", job.path).Msg("failed to parse dataset file")
					select {
					case errChan <- fmt.Errorf("parse %s: %w", job.path, err):
					default:
					}
					continue
				}
				results[job.index] = table
				log.Debug().
					Int("worker", workerID).
					Str("file", job.path).
					Int("rows", table.Len()).
					Dur("took", time.Since(start)).
					Msg("parsed dataset file")
			}
		}(i)
	}

	// Enqueue jobs
	for i, f := range files {
		jobChan <- fileJob{index: i, path: f}
	}
	close(jobChan)

	// Wait for all workers
	wg.Wait()
	close(errChan)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := <-errChan; err != nil {
		return nil, err
	}
	return results, nil
}

// MergeTables concatenates tables, aligning columns by normalized header
// name. Columns missing from a table read as empty cells.
func MergeTables(tables ...*schema.Table) *schema.Table {
	merged := &schema.Table{}
	position := make(map[string]int)

	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, c := range t.Columns {
			key := schema.NormalizeColumnName(c)
			if _, ok := position[key]; !ok {
				position[key] = len(merged.Columns)
				merged.Columns = append(merged.Columns, c)
			}
		}
	}

	for _, t := range tables {
		if t == nil {
			continue
		}
		mapping := make([]int, len(t.Columns))
		for i, c := range t.Columns {
			mapping[i] = position[schema.NormalizeColumnName(c)]
		}
		for _, row := range t.Rows {
			out := make([]string, len(merged.Columns))
			for i, v := range row {
				if i < len(mapping) {
					out[mapping[i]] = v
				}
			}
			merged.Rows = append(merged.Rows, out)
		}
	}
	return merged
}
