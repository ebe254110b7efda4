package analytics

import (
	"math"
	"sort"

	"github.com/viniciushashizume/stock-insight-hub/internal/domain"
)

// Inflation compares each item's first and last monthly mean unit price and
// returns the top movers together with their monthly price history.
func (e *Engine) Inflation(ds *domain.Dataset) domain.InflationResult {
	res := domain.InflationResult{TopItems: []domain.InflationRow{}, History: []domain.PricePoint{}}
	if !ds.HasDate() || !ds.Schema.Has(domain.FieldConsumption) || !ds.Schema.Has(domain.FieldTotalCost) {
		return res
	}

	useUnitCost := ds.Schema.Has(domain.FieldUnitCost)
	series := buildMonthlySeries(ds.Records, func(r domain.Record) (float64, bool) {
		if !(r.Consumption > 0) || !(r.TotalCost > 0) {
			return 0, false
		}
		price := r.TotalCost / r.Consumption
		if useUnitCost {
			price = r.UnitCost
		}
		if math.IsNaN(price) || math.IsInf(price, 0) {
			return 0, false
		}
		return price, true
	}, true)

	rows := make([]domain.InflationRow, 0, len(series))
	bySeries := make(map[string]monthlySeries, len(series))
	for _, s := range series {
		if len(s.values) < 2 {
			continue
		}
		first, last := s.values[0], s.values[len(s.values)-1]
		pct := 0.0
		if first >= e.opts.InflationMinPrice {
			pct = (last - first) / first * 100
		}
		if pct >= e.opts.InflationMaxPct {
			continue
		}
		rows = append(rows, domain.InflationRow{
			ItemID:       s.itemID,
			Name:         s.name,
			Group:        s.group,
			FirstPrice:   round2(first),
			LastPrice:    round2(last),
			Months:       len(s.values),
			InflationPct: round2(pct),
		})
		bySeries[s.itemID] = s
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].InflationPct != rows[j].InflationPct {
			return rows[i].InflationPct > rows[j].InflationPct
		}
		return lessID(rows[i].ItemID, rows[j].ItemID)
	})
	if len(rows) > e.opts.InflationTopN {
		rows = rows[:e.opts.InflationTopN]
	}
	res.TopItems = rows

	for _, r := range rows {
		s := bySeries[r.ItemID]
		for i, m := range s.months {
			res.History = append(res.History, domain.PricePoint{
				ItemID:    s.itemID,
				Name:      s.name,
				Period:    m.String(),
				UnitPrice: round2(s.values[i]),
			})
		}
	}
	return res
}
