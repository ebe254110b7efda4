package analytics

import (
	"math"
	"sort"
	"strconv"

	"github.com/viniciushashizume/stock-insight-hub/internal/domain"
)

// Reducer names an aggregation applied to one numeric field.
type Reducer string

const (
	ReduceMean  Reducer = "mean"
	ReduceSum   Reducer = "sum"
	ReduceCount Reducer = "count"
	ReduceStd   Reducer = "std"
)

// Rule maps one numeric field to the reducers to compute over it.
type Rule struct {
	Field    domain.Field
	Reducers []Reducer
}

// ClusterRules are the consolidation rules feeding the clustering features.
var ClusterRules = []Rule{
	{Field: domain.FieldStock, Reducers: []Reducer{ReduceMean}},
	{Field: domain.FieldConsumption, Reducers: []Reducer{ReduceSum}},
	{Field: domain.FieldTotalCost, Reducers: []Reducer{ReduceSum}},
	{Field: domain.FieldUnitCost, Reducers: []Reducer{ReduceMean}},
	{Field: domain.FieldMonthlyConsumption, Reducers: []Reducer{ReduceMean}},
}

// Summary is one consolidated item.
type Summary struct {
	ItemID string
	Name   string
	Group  string
	Class  string
	Rows   int
	values map[domain.Field]map[Reducer]float64
}

// Value returns the reduced value and whether it was computed at all.
func (s Summary) Value(f domain.Field, r Reducer) (float64, bool) {
	byReducer, ok := s.values[f]
	if !ok {
		return math.NaN(), false
	}
	v, ok := byReducer[r]
	if !ok {
		return math.NaN(), false
	}
	return v, true
}

// ValueOr returns the reduced value or NaN when it was not computed.
func (s Summary) ValueOr(f domain.Field, r Reducer) float64 {
	v, _ := s.Value(f, r)
	return v
}

type itemAccumulator struct {
	id      string
	rows    int
	names   map[string]int
	groups  map[string]int
	classes map[string]int
	fields  map[domain.Field][]float64
}

// Consolidate reduces raw movements to one Summary per item id. Reducers for
// columns the dataset does not carry are omitted. The result does not depend
// on record order: labels are the most frequent value per item (lexically
// smallest on ties), values are reduced in sorted order, and rows are sorted
// by item id.
func Consolidate(ds *domain.Dataset, rules []Rule) []Summary {
	if ds == nil || len(ds.Records) == 0 {
		return nil
	}

	active := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if ds.Schema.Has(r.Field) && len(r.Reducers) > 0 {
			active = append(active, r)
		}
	}

	acc := make(map[string]*itemAccumulator)
	for _, rec := range ds.Records {
		a, ok := acc[rec.ItemID]
		if !ok {
			a = &itemAccumulator{
				id:      rec.ItemID,
				names:   make(map[string]int),
				groups:  make(map[string]int),
				classes: make(map[string]int),
				fields:  make(map[domain.Field][]float64, len(active)),
			}
			acc[rec.ItemID] = a
		}
		a.rows++
		a.names[rec.Name]++
		a.groups[rec.Group]++
		a.classes[rec.Class]++
		for _, r := range active {
			if v := rec.Value(r.Field); !math.IsNaN(v) {
				a.fields[r.Field] = append(a.fields[r.Field], v)
			}
		}
	}

	out := make([]Summary, 0, len(acc))
	for _, a := range acc {
		s := Summary{
			ItemID: a.id,
			Name:   mostFrequent(a.names),
			Group:  mostFrequent(a.groups),
			Class:  mostFrequent(a.classes),
			Rows:   a.rows,
			values: make(map[domain.Field]map[Reducer]float64, len(active)),
		}
		for _, r := range active {
			vals := a.fields[r.Field]
			sort.Float64s(vals)
			reduced := make(map[Reducer]float64, len(r.Reducers))
			for _, red := range r.Reducers {
				reduced[red] = reduce(red, vals)
			}
			s.values[r.Field] = reduced
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return lessID(out[i].ItemID, out[j].ItemID) })
	return out
}

func reduce(r Reducer, vals []float64) float64 {
	switch r {
	case ReduceMean:
		return mean(vals)
	case ReduceSum:
		return sum(vals)
	case ReduceCount:
		return float64(len(vals))
	case ReduceStd:
		return sampleStd(vals)
	}
	return math.NaN()
}

func mostFrequent(counts map[string]int) string {
	best, bestN := "", -1
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best
}

// lessID orders numeric ids numerically and everything else lexically, with
// numeric ids first.
func lessID(a, b string) bool {
	na, errA := strconv.ParseFloat(a, 64)
	nb, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil && na != nb:
		return na < nb
	case errA == nil && errB != nil:
		return true
	case errA != nil && errB == nil:
		return false
	}
	return a < b
}
