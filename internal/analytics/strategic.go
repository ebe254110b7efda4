package analytics

import (
	"math"
	"sort"

	"github.com/viniciushashizume/stock-insight-hub/internal/domain"
)

var strategicRules = []Rule{
	{Field: domain.FieldTotalCost, Reducers: []Reducer{ReduceSum}},
	{Field: domain.FieldConsumption, Reducers: []Reducer{ReduceMean, ReduceStd}},
	{Field: domain.FieldStock, Reducers: []Reducer{ReduceMean}},
}

// Strategic crosses ABC cost classes with XYZ variability classes and
// estimates how much capital each item keeps immobilized in stock.
func (e *Engine) Strategic(ds *domain.Dataset) domain.StrategicResult {
	res := domain.StrategicResult{
		Matrix:      emptyMatrix(),
		ScatterData: []domain.StrategicRow{},
		Zombies:     []domain.StrategicRow{},
	}

	summaries := Consolidate(ds, strategicRules)
	if len(summaries) == 0 {
		return res
	}

	rows := make([]domain.StrategicRow, len(summaries))
	total := 0.0
	for i, s := range summaries {
		cost := finiteOr(s.ValueOr(domain.FieldTotalCost, ReduceSum), 0)
		meanCons := s.ValueOr(domain.FieldConsumption, ReduceMean)
		std := finiteOr(s.ValueOr(domain.FieldConsumption, ReduceStd), 0)
		meanStock := s.ValueOr(domain.FieldStock, ReduceMean)

		days := meanStock / meanCons * 30
		unit := finiteOr(cost/(meanCons*12), 0)
		rows[i] = domain.StrategicRow{
			ItemID:            s.ItemID,
			Name:              s.Name,
			Group:             s.Group,
			TotalCost:         cost,
			MeanConsumption:   finiteOr(meanCons, 0),
			CV:                ratio(std, meanCons),
			MeanStock:         finiteOr(meanStock, 0),
			DaysOfCoverage:    days,
			EstimatedUnitCost: unit,
			ImmobilizedValue:  finiteOr(finiteOr(meanStock, 0)*unit, 0),
		}
		total += cost
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TotalCost != rows[j].TotalCost {
			return rows[i].TotalCost > rows[j].TotalCost
		}
		return lessID(rows[i].ItemID, rows[j].ItemID)
	})

	cumulative := 0.0
	for i := range rows {
		cumulative += rows[i].TotalCost
		if total > 0 {
			rows[i].CumulativeShare = cumulative / total
			rows[i].ABC = e.abcClass(rows[i].CumulativeShare)
		} else {
			rows[i].ABC = domain.ClassC
		}
		rows[i].XYZ = e.xyzClass(rows[i].CV)
		rows[i].Segment = rows[i].ABC + rows[i].XYZ
		res.Matrix[rows[i].ABC][rows[i].XYZ]++
	}

	zombies := make([]domain.StrategicRow, 0)
	for _, r := range rows {
		d := r.DaysOfCoverage
		if math.IsNaN(d) || math.IsInf(d, 0) || d >= e.opts.ScatterMaxDays {
			continue
		}
		res.ScatterData = append(res.ScatterData, r)
		if d > e.opts.ZombieMinDays {
			zombies = append(zombies, r)
		}
	}

	sort.SliceStable(zombies, func(i, j int) bool {
		return zombies[i].ImmobilizedValue > zombies[j].ImmobilizedValue
	})
	if len(zombies) > e.opts.ZombieLimit {
		zombies = zombies[:e.opts.ZombieLimit]
	}
	res.Zombies = zombies
	return res
}

func (e *Engine) abcClass(share float64) string {
	switch {
	case share <= e.opts.ABCCutA:
		return domain.ClassA
	case share <= e.opts.ABCCutB:
		return domain.ClassB
	}
	return domain.ClassC
}

func (e *Engine) xyzClass(cv float64) string {
	switch {
	case cv <= e.opts.XYZCutX:
		return domain.ClassX
	case cv <= e.opts.XYZCutY:
		return domain.ClassY
	}
	return domain.ClassZ
}

func emptyMatrix() map[string]map[string]int {
	m := make(map[string]map[string]int, 3)
	for _, abc := range []string{domain.ClassA, domain.ClassB, domain.ClassC} {
		m[abc] = map[string]int{domain.ClassX: 0, domain.ClassY: 0, domain.ClassZ: 0}
	}
	return m
}
