package snapshot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/viniciushashizume/stock-insight-hub/internal/domain"
)

// ErrNotLoaded is returned while no dataset has been loaded yet.
var ErrNotLoaded = errors.New("snapshot: dataset not loaded")

// LoadFunc produces a dataset, usually ingest.Loader.LoadDataset.
type LoadFunc func(ctx context.Context) (*domain.Dataset, error)

// Store holds the current dataset. Once set, a dataset is never mutated;
// Set swaps the pointer.
type Store struct {
	mu      sync.RWMutex
	ds      *domain.Dataset
	loadErr error
	loading bool
}

func NewStore() *Store {
	return &Store{}
}

// Get returns the loaded dataset or ErrNotLoaded.
func (s *Store) Get() (*domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ds == nil {
		return nil, ErrNotLoaded
	}
	return s.ds, nil
}

// Set replaces the dataset and ends any pending load.
func (s *Store) Set(ds *domain.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ds != nil && ds.LoadedAt.IsZero() {
		ds.LoadedAt = time.Now().UTC()
	}
	s.ds = ds
	s.loading = false
	s.loadErr = nil
}

// Status reports whether a load is running and the last load error.
func (s *Store) Status() (loaded, loading bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds != nil, s.loading, s.loadErr
}

// Load runs fn synchronously and stores its result.
func (s *Store) Load(ctx context.Context, fn LoadFunc) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	start := time.Now()
	ds, err := fn(ctx)

	if err != nil {
		s.mu.Lock()
		s.loading = false
		s.loadErr = err
		s.mu.Unlock()
		log.Error().Err(err).Msg("dataset load failed")
		return err
	}
	s.Set(ds)
	log.Info().
		Str("source", ds.Source).
		Int("records", len(ds.Records)).
		Dur("took", time.Since(start)).
		Msg("dataset snapshot ready")
	return nil
}

// LoadAsync runs Load in a goroutine. The returned channel receives the
// result and is then closed.
func (s *Store) LoadAsync(ctx context.Context, fn LoadFunc) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- s.Load(ctx, fn)
	}()
	return done
}
