package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/viniciushashizume/stock-insight-hub/internal/analytics"
	"github.com/viniciushashizume/stock-insight-hub/internal/cache"
	"github.com/viniciushashizume/stock-insight-hub/internal/domain"
)

const (
	viewClusters    = "clusters"
	viewRisk        = "risk"
	viewSeasonality = "seasonality"
	viewStrategic   = "strategic"
	viewInflation   = "inflation"
)

// emptyDataset makes the generators return their empty payload shape.
var emptyDataset = &domain.Dataset{}

// DatasetStore is the read side of snapshot.Store.
type DatasetStore interface {
	Get() (*domain.Dataset, error)
}

// InsightsService serves the insight views over the current snapshot.
type InsightsService struct {
	store   DatasetStore
	engine  *analytics.Engine
	cache   cache.InsightsCache
	options string
}

func NewInsightsService(store DatasetStore, engine *analytics.Engine, cacheImpl cache.InsightsCache) *InsightsService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopInsightsCache()
	}
	return &InsightsService{
		store:   store,
		engine:  engine,
		cache:   cacheImpl,
		options: engine.Options().Digest(),
	}
}

func (s *InsightsService) Dataset(ctx context.Context) (domain.DatasetInfo, error) {
	ds, err := s.store.Get()
	if err != nil {
		return domain.DatasetInfo{}, err
	}
	return analytics.Describe(ds), nil
}

func (s *InsightsService) Clusters(ctx context.Context) ([]domain.ClusterRow, error) {
	ds, err := s.store.Get()
	if err != nil {
		return nil, err
	}
	return s.clusters(ctx, ds), nil
}

func (s *InsightsService) Risk(ctx context.Context) (domain.RiskResult, error) {
	ds, err := s.store.Get()
	if err != nil {
		return domain.RiskResult{}, err
	}
	return s.risk(ctx, ds), nil
}

func (s *InsightsService) Seasonality(ctx context.Context) ([]domain.SeasonalityRow, error) {
	ds, err := s.store.Get()
	if err != nil {
		return nil, err
	}
	return s.seasonality(ctx, ds), nil
}

func (s *InsightsService) Strategic(ctx context.Context) (domain.StrategicResult, error) {
	ds, err := s.store.Get()
	if err != nil {
		return domain.StrategicResult{}, err
	}
	return s.strategic(ctx, ds), nil
}

func (s *InsightsService) Inflation(ctx context.Context) (domain.InflationResult, error) {
	ds, err := s.store.Get()
	if err != nil {
		return domain.InflationResult{}, err
	}
	return s.inflation(ctx, ds), nil
}

func (s *InsightsService) KPIs(ctx context.Context) (domain.KPIs, error) {
	ds, err := s.store.Get()
	if err != nil {
		return domain.KPIs{}, err
	}

	var (
		clusters []domain.ClusterRow
		risk     domain.RiskResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		clusters = s.clusters(gctx, ds)
		return nil
	})
	g.Go(func() error {
		risk = s.risk(gctx, ds)
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.KPIs{}, err
	}
	return s.engine.KPIs(ds, clusters, risk), nil
}

// Overview computes every view concurrently over the same snapshot.
func (s *InsightsService) Overview(ctx context.Context) (*domain.Overview, error) {
	ds, err := s.store.Get()
	if err != nil {
		return nil, err
	}

	out := &domain.Overview{Dataset: analytics.Describe(ds)}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.Clusters = s.clusters(gctx, ds)
		return nil
	})
	g.Go(func() error {
		out.Risk = s.risk(gctx, ds)
		return nil
	})
	g.Go(func() error {
		out.Seasonality = s.seasonality(gctx, ds)
		return nil
	})
	g.Go(func() error {
		out.Strategic = s.strategic(gctx, ds)
		return nil
	})
	g.Go(func() error {
		out.Inflation = s.inflation(gctx, ds)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("overview: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out.KPIs = s.engine.KPIs(ds, out.Clusters, out.Risk)
	return out, nil
}

func (s *InsightsService) clusters(ctx context.Context, ds *domain.Dataset) []domain.ClusterRow {
	return cached(ctx, s.cache, viewClusters, s.scope(ds), ds, []domain.ClusterRow{}, s.engine.Clusters)
}

func (s *InsightsService) risk(ctx context.Context, ds *domain.Dataset) domain.RiskResult {
	return cached(ctx, s.cache, viewRisk, s.scope(ds), ds, s.engine.Risk(emptyDataset), s.engine.Risk)
}

func (s *InsightsService) seasonality(ctx context.Context, ds *domain.Dataset) []domain.SeasonalityRow {
	return cached(ctx, s.cache, viewSeasonality, s.scope(ds), ds, []domain.SeasonalityRow{}, s.engine.Seasonality)
}

func (s *InsightsService) strategic(ctx context.Context, ds *domain.Dataset) domain.StrategicResult {
	return cached(ctx, s.cache, viewStrategic, s.scope(ds), ds, s.engine.Strategic(emptyDataset), s.engine.Strategic)
}

func (s *InsightsService) inflation(ctx context.Context, ds *domain.Dataset) domain.InflationResult {
	return cached(ctx, s.cache, viewInflation, s.scope(ds), ds, s.engine.Inflation(emptyDataset), s.engine.Inflation)
}

// scope ties cache entries to both the dataset and the engine options, so
// instances configured differently never read each other's results.
func (s *InsightsService) scope(ds *domain.Dataset) string {
	return ds.Fingerprint + ":" + s.options
}

// cached serves a view from the cache or computes it behind a recover
// boundary. A panicking generator yields the empty result and is not cached.
func cached[T any](ctx context.Context, c cache.InsightsCache, view, scope string, ds *domain.Dataset, empty T, fn func(*domain.Dataset) T) T {
	var hit T
	if ok, err := c.Get(ctx, view, scope, &hit); err == nil && ok {
		return hit
	} else if err != nil {
		log.Warn().Err(err).Str("view", view).Msg("insights: cache get failed")
	}

	result, ok := safely(view, empty, func() T { return fn(ds) })
	if !ok {
		return result
	}

	if err := c.Set(ctx, view, scope, result); err != nil {
		log.Warn().Err(err).Str("view", view).Msg("insights: cache set failed")
	}
	return result
}

func safely[T any](view string, empty T, fn func() T) (result T, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("view", view).Msg("insights: generator panicked, serving empty result")
			result, ok = empty, false
		}
	}()
	return fn(), true
}
