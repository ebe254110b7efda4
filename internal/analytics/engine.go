package analytics

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/viniciushashizume/stock-insight-hub/internal/config"
	"github.com/viniciushashizume/stock-insight-hub/internal/domain"
)

// SeasonalityPolicy selects the seasonality classification strategy.
type SeasonalityPolicy string

const (
	// PolicyThreshold labels every eligible item by fixed peak and cv cut-offs.
	PolicyThreshold SeasonalityPolicy = "threshold"
	// PolicyTopN keeps only the top peak items and the steadiest high-volume ones.
	PolicyTopN SeasonalityPolicy = "top_n"
)

// ParseSeasonalityPolicy maps a configuration value onto a policy.
func ParseSeasonalityPolicy(s string) (SeasonalityPolicy, error) {
	switch SeasonalityPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyThreshold:
		return PolicyThreshold, nil
	case PolicyTopN, "topn":
		return PolicyTopN, nil
	}
	return "", fmt.Errorf("unknown seasonality policy %q", s)
}

// Options holds every threshold the generators use.
type Options struct {
	ClusterK     int
	ClusterNInit int
	ClusterSeed  int64
	MinGroupSize int

	RiskCVMin       float64
	RiskCoverageMax float64
	RiskZoomMax     float64

	SeasonalityPolicy   SeasonalityPolicy
	SeasonalityKeyword  string
	SeasonalityMinMonth int
	SeasonalityMinMean  float64
	SeasonalPeakRatio   float64
	StableMaxCV         float64
	SeasonalityTopN     int
	StableVolumeQ       float64

	ABCCutA        float64
	ABCCutB        float64
	XYZCutX        float64
	XYZCutY        float64
	ScatterMaxDays float64
	ZombieMinDays  float64
	ZombieLimit    int

	InflationMinPrice float64
	InflationMaxPct   float64
	InflationTopN     int
}

// DefaultOptions returns the production thresholds.
func DefaultOptions() Options {
	return Options{
		ClusterK:     3,
		ClusterNInit: 10,
		ClusterSeed:  42,
		MinGroupSize: 10,

		RiskCVMin:       0.8,
		RiskCoverageMax: 1.0,
		RiskZoomMax:     3.0,

		SeasonalityPolicy:   PolicyThreshold,
		SeasonalityKeyword:  "MEDICAMENTO",
		SeasonalityMinMonth: 6,
		SeasonalityMinMean:  10,
		SeasonalPeakRatio:   3.0,
		StableMaxCV:         0.3,
		SeasonalityTopN:     10,
		StableVolumeQ:       0.4,

		ABCCutA:        0.80,
		ABCCutB:        0.95,
		XYZCutX:        0.5,
		XYZCutY:        1.0,
		ScatterMaxDays: 365,
		ZombieMinDays:  90,
		ZombieLimit:    5,

		InflationMinPrice: 0.01,
		InflationMaxPct:   1000,
		InflationTopN:     5,
	}
}

// OptionsFromConfig overlays the configured values on DefaultOptions. Zero
// values keep the default, except the seed which is applied whenever set.
func OptionsFromConfig(cfg config.AnalyticsConfig) (Options, error) {
	opts := DefaultOptions()
	if cfg.ClusterK != 0 {
		opts.ClusterK = cfg.ClusterK
	}
	if cfg.ClusterNInit != 0 {
		opts.ClusterNInit = cfg.ClusterNInit
	}
	if cfg.ClusterSeed != nil {
		opts.ClusterSeed = *cfg.ClusterSeed
	}
	if cfg.MinGroupSize != 0 {
		opts.MinGroupSize = cfg.MinGroupSize
	}

	policy, err := ParseSeasonalityPolicy(cfg.SeasonalityPolicy)
	if err != nil {
		return Options{}, err
	}
	opts.SeasonalityPolicy = policy
	if cfg.SeasonalityKeyword != "" {
		opts.SeasonalityKeyword = cfg.SeasonalityKeyword
	}
	if cfg.SeasonalityMinMean != 0 {
		opts.SeasonalityMinMean = cfg.SeasonalityMinMean
	}
	if cfg.SeasonalityMinMonth != 0 {
		opts.SeasonalityMinMonth = cfg.SeasonalityMinMonth
	}
	if cfg.SeasonalityTopN != 0 {
		opts.SeasonalityTopN = cfg.SeasonalityTopN
	}

	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Validate rejects option sets the generators cannot honor.
func (o Options) Validate() error {
	switch {
	case o.ClusterK < 2 || o.ClusterK > InsufficientDataLabel:
		return fmt.Errorf("cluster k must be between 2 and %d, got %d", InsufficientDataLabel, o.ClusterK)
	case o.ClusterNInit < 1:
		return fmt.Errorf("cluster n_init must be positive, got %d", o.ClusterNInit)
	case o.MinGroupSize < 2:
		return fmt.Errorf("min group size must be at least 2, got %d", o.MinGroupSize)
	case o.SeasonalityMinMonth < 2:
		return fmt.Errorf("seasonality min months must be at least 2, got %d", o.SeasonalityMinMonth)
	case o.SeasonalityPolicy != PolicyThreshold && o.SeasonalityPolicy != PolicyTopN:
		return fmt.Errorf("unknown seasonality policy %q", o.SeasonalityPolicy)
	case o.SeasonalityTopN < 1:
		return fmt.Errorf("seasonality top n must be at least 1, got %d", o.SeasonalityTopN)
	case o.SeasonalityMinMean < 0:
		return fmt.Errorf("seasonality min mean must not be negative, got %.2f", o.SeasonalityMinMean)
	case o.InflationTopN < 1:
		return fmt.Errorf("inflation top n must be at least 1, got %d", o.InflationTopN)
	case o.ZombieLimit < 1:
		return fmt.Errorf("zombie limit must be at least 1, got %d", o.ZombieLimit)
	case o.ABCCutA <= 0 || o.ABCCutA > o.ABCCutB || o.ABCCutB > 1:
		return fmt.Errorf("abc cut-offs must satisfy 0 < A <= B <= 1, got %.2f/%.2f", o.ABCCutA, o.ABCCutB)
	}
	return nil
}

// Digest identifies the option set. Results computed under different options
// never share a digest.
func (o Options) Digest() string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%+v", o)))
	return hex.EncodeToString(sum[:8])
}

// Engine computes every insight view over an immutable dataset. It holds no
// per-request state and is safe for concurrent use.
type Engine struct {
	opts Options
}

// NewEngine validates opts and builds an engine.
func NewEngine(opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analytics options: %w", err)
	}
	return &Engine{opts: opts}, nil
}

// Options returns the thresholds in effect.
func (e *Engine) Options() Options {
	return e.opts
}

// KPIs summarizes the dataset for the overview header. Clusters and risk are
// passed in so callers that already computed them do not pay twice.
func (e *Engine) KPIs(ds *domain.Dataset, clusters []domain.ClusterRow, risk domain.RiskResult) domain.KPIs {
	summaries := Consolidate(ds, []Rule{
		{Field: domain.FieldTotalCost, Reducers: []Reducer{ReduceSum}},
		{Field: domain.FieldConsumption, Reducers: []Reducer{ReduceSum}},
	})

	k := domain.KPIs{TotalItems: len(summaries), CriticalItems: risk.Meta.TotalCritical}
	for _, s := range summaries {
		k.StockValue += finiteOr(s.ValueOr(domain.FieldTotalCost, ReduceSum), 0)
		k.TotalConsumption += finiteOr(s.ValueOr(domain.FieldConsumption, ReduceSum), 0)
	}
	k.StockValue = round2(k.StockValue)
	k.TotalConsumption = round2(k.TotalConsumption)

	seen := make(map[string]struct{})
	for _, c := range clusters {
		if c.ClusterID == InsufficientDataLabel {
			continue
		}
		seen[fmt.Sprintf("%s/%d", c.Group, c.ClusterID)] = struct{}{}
	}
	k.ClusterCount = len(seen)
	return k
}

// Describe builds the dataset metadata view.
func Describe(ds *domain.Dataset) domain.DatasetInfo {
	if ds == nil {
		return domain.DatasetInfo{}
	}
	items := make(map[string]struct{})
	for _, r := range ds.Records {
		items[r.ItemID] = struct{}{}
	}
	order := []domain.Field{
		domain.FieldItemID, domain.FieldName, domain.FieldGroup, domain.FieldClass,
		domain.FieldStock, domain.FieldConsumption, domain.FieldTotalCost,
		domain.FieldUnitCost, domain.FieldMonthlyConsumption, domain.FieldDate,
	}
	fields := make([]domain.Resolution, 0, len(order))
	for _, f := range order {
		if r, ok := ds.Schema.Resolutions[f]; ok {
			fields = append(fields, r)
		}
	}
	return domain.DatasetInfo{
		Source:      ds.Source,
		LoadedAt:    ds.LoadedAt,
		Fingerprint: ds.Fingerprint,
		Rows:        len(ds.Records),
		Items:       len(items),
		Fields:      fields,
	}
}
