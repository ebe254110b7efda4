package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viniciushashizume/stock-insight-hub/internal/domain"
)

var strategicFields = []domain.Field{domain.FieldStock, domain.FieldConsumption, domain.FieldTotalCost}

func TestStrategic_ABCIsMonotonicInCost(t *testing.T) {
	e := newEngine(t)
	costs := map[string]float64{"1": 500, "2": 300, "3": 100, "4": 50, "5": 30, "6": 20}
	var records []domain.Record
	for id, c := range costs {
		records = append(records, movement(id, "G", 10, 10, c))
	}

	res := e.Strategic(dataset(records, strategicFields...))
	require.Len(t, res.ScatterData, 6)

	want := map[string]string{"1": "A", "2": "A", "3": "B", "4": "B", "5": "C", "6": "C"}
	rank := map[string]int{"A": 0, "B": 1, "C": 2}
	prev := -1
	for _, r := range res.ScatterData {
		assert.Equal(t, want[r.ItemID], r.ABC, "item %s", r.ItemID)
		assert.GreaterOrEqual(t, rank[r.ABC], prev)
		prev = rank[r.ABC]
	}
	assert.InDelta(t, 1.0, res.ScatterData[5].CumulativeShare, 1e-12)
}

func TestStrategic_MatrixHasAllCellsAndCountsEveryItem(t *testing.T) {
	e := newEngine(t)
	ds := dataset([]domain.Record{
		movement("1", "G", 10, 10, 100),
		movement("2", "G", 10000, 1, 1),
		movement("3", "G", 10, 0, 1),
	}, strategicFields...)

	res := e.Strategic(ds)

	total := 0
	for _, abc := range []string{"A", "B", "C"} {
		require.Contains(t, res.Matrix, abc)
		for _, xyz := range []string{"X", "Y", "Z"} {
			require.Contains(t, res.Matrix[abc], xyz)
			total += res.Matrix[abc][xyz]
		}
	}
	assert.Equal(t, 3, total)
	assert.Len(t, res.ScatterData, 1, "non-finite and year-long coverage stay out of the scatter")
}

func TestStrategic_XYZByVariability(t *testing.T) {
	e := newEngine(t)
	ds := dataset([]domain.Record{
		movement("x", "G", 1, 10, 10), movement("x", "G", 1, 10, 10),
		movement("y", "G", 1, 4, 10), movement("y", "G", 1, 12, 10),
		movement("z", "G", 1, 1, 10), movement("z", "G", 1, 29, 10),
	}, strategicFields...)

	res := e.Strategic(ds)
	got := make(map[string]string)
	for _, r := range res.ScatterData {
		got[r.ItemID] = r.XYZ
	}
	assert.Equal(t, map[string]string{"x": "X", "y": "Y", "z": "Z"}, got)
}

func TestStrategic_ImmobilizedValueAndZombies(t *testing.T) {
	e := newEngine(t)
	ds := dataset([]domain.Record{
		movement("edge", "G", 30, 10, 1200),
		movement("zombie", "G", 31, 10, 1200),
		movement("stale", "G", 400, 10, 1200),
		movement("idle", "G", 5, 0, 1200),
	}, strategicFields...)

	res := e.Strategic(ds)

	byID := make(map[string]domain.StrategicRow)
	for _, r := range res.ScatterData {
		byID[r.ItemID] = r
	}
	require.Contains(t, byID, "edge")
	edge := byID["edge"]
	assert.Equal(t, 90.0, edge.DaysOfCoverage)
	assert.Equal(t, 10.0, edge.EstimatedUnitCost)
	assert.Equal(t, 300.0, edge.ImmobilizedValue)
	assert.NotContains(t, byID, "stale")
	assert.NotContains(t, byID, "idle")

	require.Len(t, res.Zombies, 1, "exactly 90 days is not a zombie")
	assert.Equal(t, "zombie", res.Zombies[0].ItemID)
	assert.InDelta(t, 93.0, res.Zombies[0].DaysOfCoverage, 1e-9)
	assert.InDelta(t, 310.0, res.Zombies[0].ImmobilizedValue, 1e-9)
}

func TestStrategic_ZombiesCappedAndOrdered(t *testing.T) {
	e := newEngine(t)
	var records []domain.Record
	for i, stock := range []float64{40, 50, 60, 70, 80, 90, 100} {
		records = append(records, movement(string(rune('a'+i)), "G", stock, 10, 1200))
	}

	res := e.Strategic(dataset(records, strategicFields...))
	require.Len(t, res.Zombies, 5)
	assert.Equal(t, "g", res.Zombies[0].ItemID)
	for i := 1; i < len(res.Zombies); i++ {
		assert.GreaterOrEqual(t, res.Zombies[i-1].ImmobilizedValue, res.Zombies[i].ImmobilizedValue)
	}
}

func TestStrategic_Empty(t *testing.T) {
	e := newEngine(t)
	res := e.Strategic(dataset(nil, strategicFields...))
	assert.Empty(t, res.ScatterData)
	assert.Empty(t, res.Zombies)
	assert.Len(t, res.Matrix, 3)
}
