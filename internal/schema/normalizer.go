package schema

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/viniciushashizume/stock-insight-hub/internal/domain"
)

// ErrEmptyTable is returned when a table has no header at all.
var ErrEmptyTable = errors.New("schema: table has no columns")

// fieldRule describes how one canonical field is located in a source table.
type fieldRule struct {
	field    domain.Field
	aliases  []string
	inferred bool
}

var (
	nameRule = fieldRule{
		field:    domain.FieldName,
		aliases:  []string{"ds_item", "nome", "ds_material", "ds_produto", "descricao"},
		inferred: true,
	}
	groupRule = fieldRule{
		field:   domain.FieldGroup,
		aliases: []string{"ds_grupo", "ds_classe_material", "grupo"},
	}
	classRule = fieldRule{
		field:   domain.FieldClass,
		aliases: []string{"ds_classe", "classe"},
	}
	idRule = fieldRule{
		field:   domain.FieldItemID,
		aliases: []string{"id_produto", "cd_item", "cd_material", "cd_produto", "codigo"},
	}
	dateRule = fieldRule{
		field:   domain.FieldDate,
		aliases: []string{"data", "dt_movimento", "dt_referencia"},
	}

	numericRules = []fieldRule{
		{field: domain.FieldStock, aliases: []string{"estoque", "qt_estoque_atual", "quantidade_estoque"}},
		{field: domain.FieldConsumption, aliases: []string{"consumo", "qt_consumida", "quantidade_consumo"}},
		{field: domain.FieldTotalCost, aliases: []string{"vl_total", "valor_total", "custo"}},
		{field: domain.FieldUnitCost, aliases: []string{"vl_unitario", "preco_unitario", "custo_medio"}},
		{field: domain.FieldMonthlyConsumption, aliases: []string{"cmm", "consumo_mensal"}},
	}
)

// resolver carries the per-table state shared by the resolution strategies.
type resolver struct {
	table *Table
	index columnIndex
	used  map[int]bool
}

// strategy attempts to bind a field to a column. ok=false hands over to the
// next strategy in the chain.
type strategy func(r *resolver, rule fieldRule) (res domain.Resolution, col int, ok bool)

func canonicalStrategy(r *resolver, rule fieldRule) (domain.Resolution, int, bool) {
	i := r.index.lookup(string(rule.field))
	if i < 0 {
		return domain.Resolution{}, -1, false
	}
	return domain.Resolution{Field: rule.field, Kind: domain.ResolutionCanonical, Column: r.table.Columns[i]}, i, true
}

func aliasStrategy(r *resolver, rule fieldRule) (domain.Resolution, int, bool) {
	for _, alias := range rule.aliases {
		i := r.index.lookup(alias)
		if i < 0 {
			continue
		}
		return domain.Resolution{Field: rule.field, Kind: domain.ResolutionAlias, Column: r.table.Columns[i]}, i, true
	}
	return domain.Resolution{}, -1, false
}

// inferTextStrategy picks the first unclaimed column holding non-numeric
// text. Only rules flagged as inferable use it.
func inferTextStrategy(r *resolver, rule fieldRule) (domain.Resolution, int, bool) {
	if !rule.inferred {
		return domain.Resolution{}, -1, false
	}
	for i, c := range r.table.Columns {
		if r.used[i] || !r.isTextColumn(i) {
			continue
		}
		return domain.Resolution{Field: rule.field, Kind: domain.ResolutionInferred, Column: c}, i, true
	}
	return domain.Resolution{}, -1, false
}

var defaultChain = []strategy{canonicalStrategy, aliasStrategy, inferTextStrategy}

func (r *resolver) resolve(rule fieldRule) (domain.Resolution, int) {
	for _, s := range defaultChain {
		if res, col, ok := s(r, rule); ok {
			r.used[col] = true
			return res, col
		}
	}
	return domain.Resolution{Field: rule.field, Kind: domain.ResolutionAbsent}, -1
}

func (r *resolver) isTextColumn(col int) bool {
	seen := false
	for row := range r.table.Rows {
		v := r.table.Cell(row, col)
		if v == "" {
			continue
		}
		seen = true
		if isNumeric(v) || !ParseDate(v).IsZero() {
			return false
		}
	}
	return seen
}

// Normalize maps a raw table onto the canonical movement schema. It never
// mutates t and never fails for missing optional columns; each field's
// resolution is reported on the returned dataset.
func Normalize(t *Table) (*domain.Dataset, error) {
	if t == nil || len(t.Columns) == 0 {
		return nil, ErrEmptyTable
	}

	r := &resolver{table: t, index: newColumnIndex(t.Columns), used: make(map[int]bool)}
	resolutions := make(map[domain.Field]domain.Resolution, 10)

	// Bind every explicitly named column before text inference runs so that
	// inference never steals a column that belongs to another field.
	idRes, idCol := r.resolve(idRule)
	groupRes, groupCol := r.resolve(groupRule)
	classRes, classCol := r.resolve(classRule)
	dateRes, dateCol := r.resolve(dateRule)

	numCols := make(map[domain.Field]int, len(numericRules))
	for _, rule := range numericRules {
		res, col := r.resolve(rule)
		resolutions[rule.field] = res
		numCols[rule.field] = col
	}

	nameRes, nameCol := r.resolve(nameRule)

	if !nameRes.Present() {
		nameRes.Kind = domain.ResolutionDefault
	}
	if !groupRes.Present() {
		groupRes.Kind = domain.ResolutionDefault
	}
	if !idRes.Present() {
		idRes.Kind = domain.ResolutionDefault
	}

	resolutions[domain.FieldItemID] = idRes
	resolutions[domain.FieldName] = nameRes
	resolutions[domain.FieldGroup] = groupRes
	resolutions[domain.FieldClass] = classRes
	resolutions[domain.FieldDate] = dateRes

	records := make([]domain.Record, 0, len(t.Rows))
	for row := range t.Rows {
		rec := domain.Record{
			Class:              t.Cell(row, classCol),
			Stock:              numberAt(t, row, numCols[domain.FieldStock]),
			Consumption:        numberAt(t, row, numCols[domain.FieldConsumption]),
			TotalCost:          numberAt(t, row, numCols[domain.FieldTotalCost]),
			UnitCost:           numberAt(t, row, numCols[domain.FieldUnitCost]),
			MonthlyConsumption: numberAt(t, row, numCols[domain.FieldMonthlyConsumption]),
		}
		if dateCol >= 0 {
			rec.Date = ParseDate(t.Cell(row, dateCol))
		}

		name := t.Cell(row, nameCol)
		id := canonicalID(t.Cell(row, idCol))
		switch {
		case id != "":
		case idCol < 0 && name != "":
			id = name
		default:
			id = strconv.Itoa(row + 1)
		}
		if name == "" {
			name = "Item " + id
		}
		group := t.Cell(row, groupCol)
		if group == "" {
			group = domain.DefaultGroup
		}

		rec.ItemID, rec.Name, rec.Group = id, name, group
		records = append(records, rec)
	}

	return &domain.Dataset{
		Source:      t.Source,
		LoadedAt:    time.Now(),
		Fingerprint: t.Fingerprint(),
		Schema:      domain.Schema{Resolutions: resolutions},
		Records:     records,
	}, nil
}

// canonicalID folds numeric ids written as floats ("123.0") onto their
// integer form so spreadsheets and CSVs agree on identity. Anything else,
// leading zeros included, is kept verbatim.
func canonicalID(s string) string {
	dot := strings.IndexByte(s, '.')
	if dot <= 0 {
		return s
	}
	whole, frac := s[:dot], s[dot+1:]
	if frac == "" || strings.Trim(frac, "0") != "" || !isDigits(strings.TrimPrefix(whole, "-")) {
		return s
	}
	return whole
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func numberAt(t *Table, row, col int) float64 {
	if col < 0 {
		return math.NaN()
	}
	return ParseNumber(t.Cell(row, col))
}
