package ingest

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/viniciushashizume/stock-insight-hub/internal/domain"
	"github.com/viniciushashizume/stock-insight-hub/internal/schema"
)

// SyntheticGroups are the material groups the generator draws from.
var SyntheticGroups = []string{"Medicamentos", "Materiais Hospitalares", "Ortopedia", "Dietas", "OPME"}

// Synthetic generates a deterministic movement history. It never fails and
// is the last resort of the source chain.
type Synthetic struct {
	Items  int
	Seed   int64
	Months int
	Start  time.Time
}

// NewSynthetic returns a generator with the default shape: 500 items over
// twelve months starting January 2024.
func NewSynthetic(items int, seed int64) *Synthetic {
	if items <= 0 {
		items = 500
	}
	return &Synthetic{
		Items:  items,
		Seed:   seed,
		Months: 12,
		Start:  time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *Synthetic) Name() string { return "synthetic" }

func (s *Synthetic) Load(ctx context.Context) (*schema.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Generate(), nil
}

// Generate builds the table. Each item gets exponential base features; one
// item in seven has a consumption spike in one month and one in five has a
// drifting price.
func (s *Synthetic) Generate() *schema.Table {
	months := s.Months
	if months <= 0 {
		months = 12
	}
	start := s.Start
	if start.IsZero() {
		start = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	}

	rng := rand.New(rand.NewSource(s.Seed))
	table := &schema.Table{
		Source: "synthetic",
		Columns: []string{
			string(domain.FieldItemID),
			string(domain.FieldName),
			string(domain.FieldGroup),
			string(domain.FieldDate),
			string(domain.FieldStock),
			string(domain.FieldConsumption),
			string(domain.FieldTotalCost),
			string(domain.FieldUnitCost),
			string(domain.FieldMonthlyConsumption),
		},
	}

	for i := 0; i < s.Items; i++ {
		id := 1000 + i
		group := SyntheticGroups[rng.Intn(len(SyntheticGroups))]
		stock := rng.ExpFloat64() * 100
		consumption := rng.ExpFloat64() * 200 / float64(months)
		price := rng.ExpFloat64() * 50
		monthlyMean := rng.ExpFloat64() * 20

		spikeMonth := -1
		if i%7 == 0 {
			spikeMonth = rng.Intn(months)
		}
		drift := 0.0
		if i%5 == 0 {
			drift = rng.Float64() * 0.05
		}

		for m := 0; m < months; m++ {
			qty := consumption * (0.8 + 0.4*rng.Float64())
			if m == spikeMonth {
				qty *= 6
			}
			unit := price * (1 + drift*float64(m))
			table.Rows = append(table.Rows, []string{
				strconv.Itoa(id),
				fmt.Sprintf("Material Médico %d", i),
				group,
				start.AddDate(0, m, 0).Format("2006-01-02"),
				formatFloat(stock * (0.9 + 0.2*rng.Float64())),
				formatFloat(qty),
				formatFloat(qty * unit),
				formatFloat(unit),
				formatFloat(monthlyMean),
			})
		}
	}
	return table
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
