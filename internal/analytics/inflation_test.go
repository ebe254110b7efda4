package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viniciushashizume/stock-insight-hub/internal/domain"
)

// priced emits one dated movement per price with consumption 1, so the
// derived unit price equals the total cost.
func priced(id string, prices ...float64) []domain.Record {
	out := make([]domain.Record, len(prices))
	start := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	for i, p := range prices {
		r := movement(id, "G", 1, 1, p)
		r.Date = start.AddDate(0, i, 0)
		out[i] = r
	}
	return out
}

func TestInflation_FirstLastChange(t *testing.T) {
	e := newEngine(t)
	var records []domain.Record
	records = append(records, priced("up", 10, 11, 12)...)
	records = append(records, priced("floor", 0.005, 0.008)...)
	records = append(records, priced("artifact", 1, 20)...)
	records = append(records, priced("single", 5)...)

	res := e.Inflation(dataset(records, datedFields...))
	require.Len(t, res.TopItems, 2)

	assert.Equal(t, "up", res.TopItems[0].ItemID)
	assert.InDelta(t, 20.0, res.TopItems[0].InflationPct, 1e-9)
	assert.Equal(t, 3, res.TopItems[0].Months)
	assert.Equal(t, 10.0, res.TopItems[0].FirstPrice)
	assert.Equal(t, 12.0, res.TopItems[0].LastPrice)

	assert.Equal(t, "floor", res.TopItems[1].ItemID)
	assert.Equal(t, 0.0, res.TopItems[1].InflationPct, "first price under the floor yields 0%%")

	require.Len(t, res.History, 5)
	assert.Equal(t, "2024-01", res.History[0].Period)
	assert.Equal(t, "up", res.History[0].ItemID)
}

func TestInflation_MonthlyMeanAndPositiveRowsOnly(t *testing.T) {
	e := newEngine(t)
	records := priced("1", 10, 20)
	extra := records[0]
	extra.TotalCost = 14
	zero := records[1]
	zero.Consumption = 0
	zero.TotalCost = 999
	records = append(records, extra, zero)

	res := e.Inflation(dataset(records, datedFields...))
	require.Len(t, res.TopItems, 1)
	assert.Equal(t, 12.0, res.TopItems[0].FirstPrice)
	assert.InDelta(t, 66.67, res.TopItems[0].InflationPct, 1e-9)
}

func TestInflation_PrefersUnitCostColumn(t *testing.T) {
	e := newEngine(t)
	records := priced("1", 100, 100)
	records[0].UnitCost = 2
	records[1].UnitCost = 3

	res := e.Inflation(dataset(records, append(datedFields, domain.FieldUnitCost)...))
	require.Len(t, res.TopItems, 1)
	assert.InDelta(t, 50.0, res.TopItems[0].InflationPct, 1e-9)
}

func TestInflation_TopFive(t *testing.T) {
	e := newEngine(t)
	var records []domain.Record
	for i := 1; i <= 7; i++ {
		records = append(records, priced(string(rune('a'+i-1)), 10, 10+float64(i))...)
	}

	res := e.Inflation(dataset(records, datedFields...))
	require.Len(t, res.TopItems, 5)
	assert.Equal(t, "g", res.TopItems[0].ItemID)
	assert.Len(t, res.History, 10)
}

func TestInflation_NoDateColumn(t *testing.T) {
	e := newEngine(t)
	res := e.Inflation(dataset(priced("1", 1, 2), domain.FieldConsumption, domain.FieldTotalCost))
	assert.Empty(t, res.TopItems)
	assert.Empty(t, res.History)
}
