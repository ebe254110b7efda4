package analytics

import (
	"math"
	"math/rand"
	"sort"

	"github.com/viniciushashizume/stock-insight-hub/internal/domain"
)

// InsufficientDataLabel marks items of groups too small to cluster.
const InsufficientDataLabel = 4

// Cluster descriptions.
const (
	DescHighCost         = "High Cost / Critical"
	DescHighTurnover     = "High Turnover / Mass Consumption"
	DescLowRelevance     = "Low Relevance / Obsolete?"
	DescIntermediate     = "Intermediate Turnover / Standard"
	DescInsufficientData = "Insufficient Data"
)

type clusterFeature struct {
	field   domain.Field
	reducer Reducer
}

var clusterFeatures = []clusterFeature{
	{domain.FieldStock, ReduceMean},
	{domain.FieldConsumption, ReduceSum},
	{domain.FieldTotalCost, ReduceSum},
	{domain.FieldUnitCost, ReduceMean},
	{domain.FieldMonthlyConsumption, ReduceMean},
}

type labeledItem struct {
	summary Summary
	label   int
}

// Clusters segments items per material group. Groups below MinGroupSize get
// the reserved label 4; labels of other groups are local to that group.
func (e *Engine) Clusters(ds *domain.Dataset) []domain.ClusterRow {
	summaries := Consolidate(ds, ClusterRules)
	if len(summaries) == 0 {
		return []domain.ClusterRow{}
	}

	features := make([]clusterFeature, 0, len(clusterFeatures))
	for _, f := range clusterFeatures {
		if ds.Schema.Has(f.field) {
			features = append(features, f)
		}
	}

	byGroup := make(map[string][]Summary)
	for _, s := range summaries {
		byGroup[s.Group] = append(byGroup[s.Group], s)
	}
	groups := make([]string, 0, len(byGroup))
	for g := range byGroup {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	out := make([]domain.ClusterRow, 0, len(summaries))
	for _, g := range groups {
		items := completeItems(byGroup[g], features)
		if len(items) == 0 {
			continue
		}
		labeled := e.clusterGroup(items, features)
		descriptions := describeClusters(labeled)
		for _, li := range labeled {
			out = append(out, clusterRow(li, descriptions[li.label]))
		}
	}
	return out
}

// completeItems drops items with a missing or infinite value in any feature.
func completeItems(items []Summary, features []clusterFeature) []Summary {
	out := make([]Summary, 0, len(items))
	for _, s := range items {
		ok := true
		for _, f := range features {
			if v := s.ValueOr(f.field, f.reducer); math.IsNaN(v) || math.IsInf(v, 0) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, s)
		}
	}
	return out
}

func (e *Engine) clusterGroup(items []Summary, features []clusterFeature) []labeledItem {
	labeled := make([]labeledItem, len(items))
	for i, s := range items {
		labeled[i] = labeledItem{summary: s, label: InsufficientDataLabel}
	}
	if len(items) < e.opts.MinGroupSize || len(features) == 0 {
		return labeled
	}

	points := scaledFeatures(items, features)
	k := e.opts.ClusterK
	if k > len(items) {
		k = len(items)
	}
	if k < 2 {
		k = 2
	}

	rng := rand.New(rand.NewSource(e.opts.ClusterSeed))
	res := kmeans(points, k, e.opts.ClusterNInit, rng)
	for i := range labeled {
		labeled[i].label = res.labels[i]
	}
	return labeled
}

// scaledFeatures builds the feature matrix: log1p on non-negative columns,
// then a population z-score per column.
func scaledFeatures(items []Summary, features []clusterFeature) [][]float64 {
	points := make([][]float64, len(items))
	for i := range points {
		points[i] = make([]float64, len(features))
	}

	col := make([]float64, len(items))
	for j, f := range features {
		nonNegative := true
		for i, s := range items {
			col[i] = s.ValueOr(f.field, f.reducer)
			if col[i] < 0 {
				nonNegative = false
			}
		}
		if nonNegative {
			for i := range col {
				col[i] = math.Log1p(col[i])
			}
		}

		mu := mean(col)
		sigma := popStd(col)
		if sigma == 0 || math.IsNaN(sigma) {
			sigma = 1
		}
		for i := range col {
			points[i][j] = (col[i] - mu) / sigma
		}
	}
	return points
}

// describeClusters names each label from the cluster means of total cost and
// consumption, ranked against quantiles of those means within the group.
func describeClusters(items []labeledItem) map[int]string {
	type acc struct {
		cost, consumption float64
		n                 int
	}
	stats := make(map[int]*acc)
	for _, li := range items {
		a, ok := stats[li.label]
		if !ok {
			a = &acc{}
			stats[li.label] = a
		}
		a.cost += finiteOr(li.summary.ValueOr(domain.FieldTotalCost, ReduceSum), 0)
		a.consumption += finiteOr(li.summary.ValueOr(domain.FieldConsumption, ReduceSum), 0)
		a.n++
	}

	labels := make([]int, 0, len(stats))
	for l := range stats {
		labels = append(labels, l)
	}
	sort.Ints(labels)

	costMeans := make([]float64, 0, len(labels))
	consMeans := make([]float64, 0, len(labels))
	for _, l := range labels {
		costMeans = append(costMeans, stats[l].cost/float64(stats[l].n))
		consMeans = append(consMeans, stats[l].consumption/float64(stats[l].n))
	}
	costQ80, costQ30 := quantile(costMeans, 0.8), quantile(costMeans, 0.3)
	consQ80, consQ30 := quantile(consMeans, 0.8), quantile(consMeans, 0.3)

	out := make(map[int]string, len(labels))
	for i, l := range labels {
		switch {
		case l == InsufficientDataLabel:
			out[l] = DescInsufficientData
		case costMeans[i] > costQ80:
			out[l] = DescHighCost
		case consMeans[i] > consQ80:
			out[l] = DescHighTurnover
		case consMeans[i] < consQ30 && costMeans[i] < costQ30:
			out[l] = DescLowRelevance
		default:
			out[l] = DescIntermediate
		}
	}
	return out
}

func clusterRow(li labeledItem, description string) domain.ClusterRow {
	s := li.summary
	return domain.ClusterRow{
		ItemID:             s.ItemID,
		Name:               s.Name,
		Group:              s.Group,
		Class:              s.Class,
		Stock:              round2(s.ValueOr(domain.FieldStock, ReduceMean)),
		Consumption:        round2(s.ValueOr(domain.FieldConsumption, ReduceSum)),
		TotalCost:          round2(s.ValueOr(domain.FieldTotalCost, ReduceSum)),
		UnitCost:           round2(s.ValueOr(domain.FieldUnitCost, ReduceMean)),
		MonthlyConsumption: round2(s.ValueOr(domain.FieldMonthlyConsumption, ReduceMean)),
		ClusterID:          li.label,
		Description:        description,
	}
}
