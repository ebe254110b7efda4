package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/viniciushashizume/stock-insight-hub/internal/domain"
	"github.com/viniciushashizume/stock-insight-hub/internal/schema"
)

var (
	// ErrNoDataset is returned when no source produced a usable table.
	ErrNoDataset = errors.New("ingest: no dataset available")
	// ErrUnsupportedFormat is returned for files the reader cannot parse.
	ErrUnsupportedFormat = errors.New("ingest: unsupported file format")
)

// Source yields one raw table.
type Source interface {
	Name() string
	Load(ctx context.Context) (*schema.Table, error)
}

// Loader tries its sources in order and keeps the first non-empty table.
type Loader struct {
	sources []Source
}

func NewLoader(sources ...Source) *Loader {
	return &Loader{sources: sources}
}

// Load returns the first non-empty table. Source failures are logged and the
// next source is tried.
func (l *Loader) Load(ctx context.Context) (*schema.Table, error) {
	for _, src := range l.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		table, err := src.Load(ctx)
		if err != nil {
			log.Warn().Err(err).Str("source", src.Name()).Msg("dataset source failed, trying next")
			continue
		}
		if table.Len() == 0 {
			log.Warn().Str("source", src.Name()).Msg("dataset source returned no rows, trying next")
			continue
		}

		if table.Source == "" {
			table.Source = src.Name()
		}
		log.Info().
			Str("source", table.Source).
			Int("rows", table.Len()).
			Int("columns", len(table.Columns)).
			Msg("dataset loaded")
		return table, nil
	}
	return nil, ErrNoDataset
}

// LoadDataset loads and normalizes the first available table.
func (l *Loader) LoadDataset(ctx context.Context) (*domain.Dataset, error) {
	table, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	ds, err := schema.Normalize(table)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", table.Source, err)
	}
	return ds, nil
}
