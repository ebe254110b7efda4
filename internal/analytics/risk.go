package analytics

import (
	"math"
	"sort"

	"github.com/viniciushashizume/stock-insight-hub/internal/domain"
)

var riskRules = []Rule{
	{Field: domain.FieldConsumption, Reducers: []Reducer{ReduceMean, ReduceStd, ReduceSum}},
	{Field: domain.FieldStock, Reducers: []Reducer{ReduceMean}},
	{Field: domain.FieldTotalCost, Reducers: []Reducer{ReduceSum}},
}

// Risk scores consumption variability against stock coverage. Only items
// with coverage up to RiskZoomMax months are returned; the critical flag
// needs high cv, low coverage and a total cost above the median cost of all
// items with positive mean consumption.
func (e *Engine) Risk(ds *domain.Dataset) domain.RiskResult {
	res := domain.RiskResult{
		Data: []domain.RiskRow{},
		Meta: domain.RiskMeta{
			ZoomCoverageMax: e.opts.RiskZoomMax,
			Zone:            domain.RiskZone{CVMin: e.opts.RiskCVMin, CoverageMax: e.opts.RiskCoverageMax},
		},
	}
	if ds == nil || !ds.Schema.Has(domain.FieldConsumption) {
		return res
	}

	eligible := make([]domain.RiskRow, 0)
	for _, s := range Consolidate(ds, riskRules) {
		meanCons := s.ValueOr(domain.FieldConsumption, ReduceMean)
		if math.IsNaN(meanCons) || meanCons <= 0 {
			continue
		}
		std := finiteOr(s.ValueOr(domain.FieldConsumption, ReduceStd), 0)
		meanStock := finiteOr(s.ValueOr(domain.FieldStock, ReduceMean), 0)

		eligible = append(eligible, domain.RiskRow{
			ItemID:           s.ItemID,
			Name:             s.Name,
			Group:            s.Group,
			MeanConsumption:  meanCons,
			StdConsumption:   std,
			TotalConsumption: finiteOr(s.ValueOr(domain.FieldConsumption, ReduceSum), 0),
			MeanStock:        meanStock,
			TotalCost:        finiteOr(s.ValueOr(domain.FieldTotalCost, ReduceSum), 0),
			CV:               ratio(std, meanCons),
			CoverageMonths:   ratio(meanStock, meanCons),
		})
	}
	res.Meta.TotalItems = len(eligible)
	if len(eligible) == 0 {
		return res
	}

	costs := make([]float64, len(eligible))
	for i, r := range eligible {
		costs[i] = r.TotalCost
	}
	threshold := median(costs)
	res.Meta.CostThreshold = threshold

	for _, r := range eligible {
		if r.CoverageMonths > e.opts.RiskZoomMax {
			continue
		}
		r.IsCritical = r.CV > e.opts.RiskCVMin &&
			r.CoverageMonths < e.opts.RiskCoverageMax &&
			r.TotalCost > threshold
		if r.IsCritical {
			res.Meta.TotalCritical++
		}
		res.Data = append(res.Data, r)
	}

	sort.SliceStable(res.Data, func(i, j int) bool {
		if res.Data[i].IsCritical != res.Data[j].IsCritical {
			return res.Data[i].IsCritical
		}
		return res.Data[i].CV > res.Data[j].CV
	})
	return res
}
