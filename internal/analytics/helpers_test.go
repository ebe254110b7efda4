package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/viniciushashizume/stock-insight-hub/internal/domain"
)

func newEngine(t *testing.T, mutate ...func(*Options)) *Engine {
	t.Helper()
	opts := DefaultOptions()
	for _, m := range mutate {
		m(&opts)
	}
	e, err := NewEngine(opts)
	require.NoError(t, err)
	return e
}

// dataset wraps records with canonical resolutions for the identity fields
// plus the given measure fields.
func dataset(records []domain.Record, fields ...domain.Field) *domain.Dataset {
	res := make(map[domain.Field]domain.Resolution)
	for _, f := range append([]domain.Field{domain.FieldItemID, domain.FieldName, domain.FieldGroup}, fields...) {
		res[f] = domain.Resolution{Field: f, Kind: domain.ResolutionCanonical, Column: string(f)}
	}
	return &domain.Dataset{Source: "test", Schema: domain.Schema{Resolutions: res}, Records: records}
}

func movement(id, group string, stock, consumption, cost float64) domain.Record {
	return domain.Record{
		ItemID:             id,
		Name:               "Item " + id,
		Group:              group,
		Stock:              stock,
		Consumption:        consumption,
		TotalCost:          cost,
		UnitCost:           math.NaN(),
		MonthlyConsumption: math.NaN(),
	}
}

// monthlyMovements emits one dated record per value, one month apart,
// starting January 2023.
func monthlyMovements(id, group string, consumption ...float64) []domain.Record {
	out := make([]domain.Record, len(consumption))
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range consumption {
		r := movement(id, group, 1, c, c)
		r.Date = start.AddDate(0, i, 0)
		out[i] = r
	}
	return out
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
