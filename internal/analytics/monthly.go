package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/viniciushashizume/stock-insight-hub/internal/domain"
)

// month is a calendar month key.
type month struct {
	year int
	mon  time.Month
}

func monthOf(t time.Time) month {
	return month{year: t.Year(), mon: t.Month()}
}

func (m month) before(o month) bool {
	if m.year != o.year {
		return m.year < o.year
	}
	return m.mon < o.mon
}

func (m month) String() string {
	return fmt.Sprintf("%04d-%02d", m.year, int(m.mon))
}

// monthlySeries is one item's chronologically ordered monthly aggregate.
type monthlySeries struct {
	itemID string
	name   string
	group  string
	months []month
	values []float64
}

// monthlyAggregate selects a value from a record and whether to keep it.
type monthlyAggregate func(r domain.Record) (float64, bool)

// buildMonthlySeries groups dated records by item and month. Values of one
// month are summed when average is false and averaged otherwise. Records
// without a date are skipped. Series are returned sorted by item id.
func buildMonthlySeries(records []domain.Record, pick monthlyAggregate, average bool) []monthlySeries {
	type cell struct {
		sum float64
		n   int
	}
	type itemAcc struct {
		names  map[string]int
		groups map[string]int
		cells  map[month]*cell
	}

	items := make(map[string]*itemAcc)
	for _, r := range records {
		if r.Date.IsZero() {
			continue
		}
		v, ok := pick(r)
		if !ok {
			continue
		}
		a, found := items[r.ItemID]
		if !found {
			a = &itemAcc{names: make(map[string]int), groups: make(map[string]int), cells: make(map[month]*cell)}
			items[r.ItemID] = a
		}
		a.names[r.Name]++
		a.groups[r.Group]++
		m := monthOf(r.Date)
		c, found := a.cells[m]
		if !found {
			c = &cell{}
			a.cells[m] = c
		}
		c.sum += v
		c.n++
	}

	out := make([]monthlySeries, 0, len(items))
	for id, a := range items {
		s := monthlySeries{itemID: id, name: mostFrequent(a.names), group: mostFrequent(a.groups)}
		for m := range a.cells {
			s.months = append(s.months, m)
		}
		sort.Slice(s.months, func(i, j int) bool { return s.months[i].before(s.months[j]) })
		s.values = make([]float64, len(s.months))
		for i, m := range s.months {
			c := a.cells[m]
			if average {
				s.values[i] = c.sum / float64(c.n)
			} else {
				s.values[i] = c.sum
			}
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[i].itemID, out[j].itemID) })
	return out
}
