package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viniciushashizume/stock-insight-hub/internal/domain"
)

var datedFields = []domain.Field{domain.FieldStock, domain.FieldConsumption, domain.FieldTotalCost, domain.FieldDate}

func seasonalityDataset(series map[string][]float64, group string) *domain.Dataset {
	var records []domain.Record
	for id, values := range series {
		records = append(records, monthlyMovements(id, group, values...)...)
	}
	return dataset(records, datedFields...)
}

func TestSeasonality_ThresholdPolicy(t *testing.T) {
	e := newEngine(t)
	ds := seasonalityDataset(map[string][]float64{
		"peak":    append(repeat(10, 11), 100),
		"stable":  {20, 22, 20, 21, 20, 22},
		"neutral": {10, 30, 10, 30, 10, 30},
		"short":   repeat(50, 5),
		"tiny":    repeat(5, 6),
	}, "MEDICAMENTOS")

	rows := e.Seasonality(ds)
	require.Len(t, rows, 3)

	assert.Equal(t, "peak", rows[0].ItemID)
	assert.Equal(t, domain.SeasonalPeak, rows[0].Classification)
	assert.InDelta(t, 100/17.5, rows[0].PeakRatio, 1e-9)
	assert.InDelta(t, 17.5, rows[0].Mean, 1e-9)
	require.Len(t, rows[0].History, 12)
	assert.Equal(t, "2023-01", rows[0].History[0].Period)
	assert.Equal(t, "2023-12", rows[0].History[11].Period)
	assert.Equal(t, 100.0, rows[0].History[11].Consumption)

	assert.Equal(t, "stable", rows[1].ItemID)
	assert.Equal(t, domain.StableLinear, rows[1].Classification)

	assert.Equal(t, "neutral", rows[2].ItemID)
	assert.Equal(t, domain.SeasonNeutral, rows[2].Classification)
}

func TestSeasonality_MonthBoundary(t *testing.T) {
	e := newEngine(t)
	ds := seasonalityDataset(map[string][]float64{
		"five": repeat(50, 5),
		"six":  repeat(50, 6),
	}, "MEDICAMENTOS")

	rows := e.Seasonality(ds)
	require.Len(t, rows, 1)
	assert.Equal(t, "six", rows[0].ItemID)
	assert.Equal(t, domain.StableLinear, rows[0].Classification)
}

func TestSeasonality_SumsMovementsWithinMonth(t *testing.T) {
	e := newEngine(t)
	records := monthlyMovements("1", "MEDICAMENTOS", repeat(10, 6)...)
	extra := records[0]
	extra.Consumption = 90
	records = append(records, extra)

	rows := e.Seasonality(dataset(records, datedFields...))
	require.Len(t, rows, 1)
	assert.Equal(t, 100.0, rows[0].History[0].Consumption)
	assert.Len(t, rows[0].History, 6)
}

func TestSeasonality_PharmaFilterAndFallback(t *testing.T) {
	e := newEngine(t)
	records := append(
		monthlyMovements("med", "Medicamentos Orais", repeat(20, 6)...),
		monthlyMovements("mat", "MATERIAL", repeat(20, 6)...)...,
	)
	rows := e.Seasonality(dataset(records, datedFields...))
	require.Len(t, rows, 1)
	assert.Equal(t, "med", rows[0].ItemID)

	fallback := e.Seasonality(dataset(monthlyMovements("mat", "MATERIAL", repeat(20, 6)...), datedFields...))
	require.Len(t, fallback, 1, "no pharmaceutical rows falls back to the full dataset")
	assert.Equal(t, "mat", fallback[0].ItemID)
}

func TestSeasonality_ClassColumnMatchesKeyword(t *testing.T) {
	e := newEngine(t)
	records := monthlyMovements("1", "Geral", repeat(20, 6)...)
	for i := range records {
		records[i].Class = "medicamento"
	}
	records = append(records, monthlyMovements("2", "Geral", repeat(20, 6)...)...)

	rows := e.Seasonality(dataset(records, append(datedFields, domain.FieldClass)...))
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0].ItemID)
}

func TestSeasonality_NoDateColumn(t *testing.T) {
	e := newEngine(t)
	records := monthlyMovements("1", "MEDICAMENTOS", repeat(20, 6)...)
	rows := e.Seasonality(dataset(records, domain.FieldConsumption))
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestSeasonality_TopNPolicy(t *testing.T) {
	e := newEngine(t, func(o *Options) {
		o.SeasonalityPolicy = PolicyTopN
		o.SeasonalityTopN = 1
	})
	ds := seasonalityDataset(map[string][]float64{
		"p1": append(repeat(10, 11), 100),
		"p2": append(repeat(10, 5), 40),
		"s1": {100, 101, 100, 101, 100, 101},
		"s2": {20, 20, 20, 20, 20, 21},
	}, "MEDICAMENTOS")

	rows := e.Seasonality(ds)
	require.Len(t, rows, 2, "unselected items are dropped")
	assert.Equal(t, "p1", rows[0].ItemID)
	assert.Equal(t, domain.SeasonalPeak, rows[0].Classification)
	assert.Equal(t, "s1", rows[1].ItemID)
	assert.Equal(t, domain.StableLinear, rows[1].Classification)
}

func TestSeasonality_TopNWithFewItemsLabelsAllSeasonal(t *testing.T) {
	e := newEngine(t, func(o *Options) {
		o.SeasonalityPolicy = PolicyTopN
		o.SeasonalityTopN = 10
	})
	ds := seasonalityDataset(map[string][]float64{
		"a": repeat(10, 6),
		"b": repeat(10, 6),
	}, "MEDICAMENTOS")

	rows := e.Seasonality(ds)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, domain.SeasonalPeak, r.Classification)
	}
}

func TestParseSeasonalityPolicy(t *testing.T) {
	p, err := ParseSeasonalityPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyThreshold, p)

	p, err = ParseSeasonalityPolicy("TOP_N")
	require.NoError(t, err)
	assert.Equal(t, PolicyTopN, p)

	_, err = ParseSeasonalityPolicy("weekly")
	assert.Error(t, err)
}
