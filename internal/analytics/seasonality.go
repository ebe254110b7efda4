package analytics

import (
	"math"
	"sort"
	"strings"

	"github.com/viniciushashizume/stock-insight-hub/internal/domain"
)

// classifier assigns seasonality classes to eligible rows and returns the
// rows to publish.
type classifier func(rows []domain.SeasonalityRow, opts Options) []domain.SeasonalityRow

var classifiers = map[SeasonalityPolicy]classifier{
	PolicyThreshold: classifyByThreshold,
	PolicyTopN:      classifyTopN,
}

var classRank = map[string]int{
	domain.SeasonalPeak:  0,
	domain.StableLinear:  1,
	domain.SeasonNeutral: 2,
}

// Seasonality classifies the monthly demand shape of pharmaceutical items,
// or of every item when none match the keyword. Without a usable date
// column the result is empty.
func (e *Engine) Seasonality(ds *domain.Dataset) []domain.SeasonalityRow {
	if !ds.HasDate() || !ds.Schema.Has(domain.FieldConsumption) {
		return []domain.SeasonalityRow{}
	}

	records := filterByKeyword(ds.Records, e.opts.SeasonalityKeyword)
	series := buildMonthlySeries(records, func(r domain.Record) (float64, bool) {
		return r.Consumption, !math.IsNaN(r.Consumption)
	}, false)

	eligible := make([]domain.SeasonalityRow, 0, len(series))
	for _, s := range series {
		if len(s.values) < e.opts.SeasonalityMinMonth {
			continue
		}
		mu := mean(s.values)
		if mu < e.opts.SeasonalityMinMean || mu <= 0 {
			continue
		}
		eligible = append(eligible, domain.SeasonalityRow{
			ItemID:    s.itemID,
			Name:      s.name,
			Group:     s.group,
			PeakRatio: ratio(maxOf(s.values), mu),
			CV:        ratio(finiteOr(sampleStd(s.values), 0), mu),
			Mean:      mu,
			History:   history(s),
		})
	}
	if len(eligible) == 0 {
		return []domain.SeasonalityRow{}
	}

	classify, ok := classifiers[e.opts.SeasonalityPolicy]
	if !ok {
		classify = classifyByThreshold
	}
	out := classify(eligible, e.opts)

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := classRank[out[i].Classification], classRank[out[j].Classification]
		if ri != rj {
			return ri < rj
		}
		if out[i].PeakRatio != out[j].PeakRatio {
			return out[i].PeakRatio > out[j].PeakRatio
		}
		return lessID(out[i].ItemID, out[j].ItemID)
	})
	return out
}

// filterByKeyword keeps records whose group or class contains keyword,
// case-insensitively. An empty match falls back to every record.
func filterByKeyword(records []domain.Record, keyword string) []domain.Record {
	keyword = strings.ToUpper(strings.TrimSpace(keyword))
	if keyword == "" {
		return records
	}
	out := make([]domain.Record, 0)
	for _, r := range records {
		if strings.Contains(strings.ToUpper(r.Group), keyword) || strings.Contains(strings.ToUpper(r.Class), keyword) {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return records
	}
	return out
}

func history(s monthlySeries) []domain.MonthlyPoint {
	out := make([]domain.MonthlyPoint, len(s.months))
	for i, m := range s.months {
		out[i] = domain.MonthlyPoint{
			Period:      m.String(),
			Year:        m.year,
			Month:       int(m.mon),
			Consumption: s.values[i],
		}
	}
	return out
}

func classifyByThreshold(rows []domain.SeasonalityRow, opts Options) []domain.SeasonalityRow {
	for i := range rows {
		switch {
		case rows[i].PeakRatio > opts.SeasonalPeakRatio:
			rows[i].Classification = domain.SeasonalPeak
		case rows[i].CV < opts.StableMaxCV:
			rows[i].Classification = domain.StableLinear
		default:
			rows[i].Classification = domain.SeasonNeutral
		}
	}
	return rows
}

// classifyTopN labels the SeasonalityTopN highest peak ratios as seasonal
// and, among the remaining items with mean volume above the StableVolumeQ
// quantile, the SeasonalityTopN lowest cv as stable. Everything else is
// dropped.
func classifyTopN(rows []domain.SeasonalityRow, opts Options) []domain.SeasonalityRow {
	byPeak := make([]int, len(rows))
	for i := range byPeak {
		byPeak[i] = i
	}
	sort.SliceStable(byPeak, func(a, b int) bool {
		ra, rb := rows[byPeak[a]], rows[byPeak[b]]
		if ra.PeakRatio != rb.PeakRatio {
			return ra.PeakRatio > rb.PeakRatio
		}
		return lessID(ra.ItemID, rb.ItemID)
	})

	out := make([]domain.SeasonalityRow, 0, 2*opts.SeasonalityTopN)
	seasonal := make(map[int]bool)
	for _, i := range byPeak {
		if len(seasonal) == opts.SeasonalityTopN {
			break
		}
		seasonal[i] = true
		r := rows[i]
		r.Classification = domain.SeasonalPeak
		out = append(out, r)
	}

	means := make([]float64, len(rows))
	for i, r := range rows {
		means[i] = r.Mean
	}
	cut := quantile(means, opts.StableVolumeQ)

	candidates := make([]int, 0)
	for i, r := range rows {
		if !seasonal[i] && r.Mean > cut {
			candidates = append(candidates, i)
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		ra, rb := rows[candidates[a]], rows[candidates[b]]
		if ra.CV != rb.CV {
			return ra.CV < rb.CV
		}
		return lessID(ra.ItemID, rb.ItemID)
	})
	for n, i := range candidates {
		if n == opts.SeasonalityTopN {
			break
		}
		r := rows[i]
		r.Classification = domain.StableLinear
		out = append(out, r)
	}
	return out
}
