// internal/domain/movement.go
package domain

import (
	"math"
	"time"
)

// Field names a canonical column of the movement dataset.
type Field string

const (
	FieldItemID             Field = "id_item"
	FieldName               Field = "ds_material_hospital"
	FieldGroup              Field = "ds_grupo_material"
	FieldClass              Field = "ds_classe_material"
	FieldStock              Field = "qt_estoque"
	FieldConsumption        Field = "qt_consumo"
	FieldTotalCost          Field = "custo_total"
	FieldUnitCost           Field = "custo_unitario"
	FieldMonthlyConsumption Field = "consumo_medio_mensal"
	FieldDate               Field = "dt_movimento_estoque"
)

// NumericFields lists the measure columns in their canonical order.
var NumericFields = []Field{
	FieldStock,
	FieldConsumption,
	FieldTotalCost,
	FieldUnitCost,
	FieldMonthlyConsumption,
}

// DefaultGroup is assigned to rows without a usable group value.
const DefaultGroup = "Geral"

// ResolutionKind tells how a canonical field was bound to the source table.
type ResolutionKind string

const (
	ResolutionCanonical ResolutionKind = "canonical"
	ResolutionAlias     ResolutionKind = "alias"
	ResolutionInferred  ResolutionKind = "inferred"
	ResolutionDefault   ResolutionKind = "default"
	ResolutionAbsent    ResolutionKind = "absent"
)

// Resolution records the source column chosen for a canonical field.
type Resolution struct {
	Field  Field          `json:"field"`
	Kind   ResolutionKind `json:"kind"`
	Column string         `json:"column,omitempty"`
}

// Present reports whether the field is backed by a real source column.
func (r Resolution) Present() bool {
	return r.Kind == ResolutionCanonical || r.Kind == ResolutionAlias || r.Kind == ResolutionInferred
}

// Schema is the typed presence map produced by the column normalizer.
type Schema struct {
	Resolutions map[Field]Resolution `json:"resolutions"`
}

// Has reports whether field f was found in the source table.
func (s Schema) Has(f Field) bool {
	r, ok := s.Resolutions[f]
	return ok && r.Present()
}

// Record is one normalized inventory movement. Missing measures are NaN and a
// missing or unparsable date is the zero time.
type Record struct {
	ItemID             string
	Name               string
	Group              string
	Class              string
	Stock              float64
	Consumption        float64
	TotalCost          float64
	UnitCost           float64
	MonthlyConsumption float64
	Date               time.Time
}

// Value returns the measure stored under f, NaN for non-numeric fields.
func (r Record) Value(f Field) float64 {
	switch f {
	case FieldStock:
		return r.Stock
	case FieldConsumption:
		return r.Consumption
	case FieldTotalCost:
		return r.TotalCost
	case FieldUnitCost:
		return r.UnitCost
	case FieldMonthlyConsumption:
		return r.MonthlyConsumption
	}
	return math.NaN()
}

// Dataset is the immutable snapshot every generator reads from.
type Dataset struct {
	Source      string
	LoadedAt    time.Time
	Fingerprint string
	Schema      Schema
	Records     []Record
}

// HasDate reports whether movements carry a usable date column.
func (d *Dataset) HasDate() bool {
	return d != nil && d.Schema.Has(FieldDate)
}

// DatasetInfo describes the loaded snapshot for the dashboard.
type DatasetInfo struct {
	Source      string       `json:"source"`
	LoadedAt    time.Time    `json:"loaded_at"`
	Fingerprint string       `json:"fingerprint"`
	Rows        int          `json:"rows"`
	Items       int          `json:"items"`
	Fields      []Resolution `json:"fields"`
}
