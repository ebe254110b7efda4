package schema

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// Table is a raw tabular dataset as read from any source. Rows may be ragged;
// missing trailing cells read as empty strings.
type Table struct {
	Source  string
	Columns []string
	Rows    [][]string
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Cell returns the trimmed value at (row, col) or "" when out of range.
func (t *Table) Cell(row, col int) string {
	if col < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[col])
}

// Fingerprint returns a stable sha1 digest of header and rows.
func (t *Table) Fingerprint() string {
	h := sha1.New()
	for _, c := range t.Columns {
		h.Write([]byte(c))
		h.Write([]byte{0x1f})
	}
	h.Write([]byte{0x1e})
	for _, row := range t.Rows {
		for _, c := range row {
			h.Write([]byte(c))
			h.Write([]byte{0x1f})
		}
		h.Write([]byte{0x1e})
	}
	return hex.EncodeToString(h.Sum(nil))
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

// NormalizeColumnName lower-cases a header and strips separators so that
// "Qt Consumo", "qt_consumo" and "QT-CONSUMO" compare equal.
func NormalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	name = strings.TrimPrefix(name, "\ufeff")
	return columnNameSanitizer.Replace(name)
}

// columnIndex maps normalized header names to their first position.
type columnIndex map[string]int

func newColumnIndex(columns []string) columnIndex {
	idx := make(columnIndex, len(columns))
	for i, c := range columns {
		key := NormalizeColumnName(c)
		if key == "" {
			continue
		}
		if _, ok := idx[key]; !ok {
			idx[key] = i
		}
	}
	return idx
}

func (ci columnIndex) lookup(names ...string) int {
	for _, n := range names {
		if i, ok := ci[NormalizeColumnName(n)]; ok {
			return i
		}
	}
	return -1
}
