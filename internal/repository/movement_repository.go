package repository

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/viniciushashizume/stock-insight-hub/internal/repository/postgres"
	"github.com/viniciushashizume/stock-insight-hub/internal/schema"
)

// MovementRepository reads raw stock movements from Postgres. It never writes.
type MovementRepository interface {
	ListColumns(ctx context.Context, table string) ([]string, error)
	LoadTable(ctx context.Context, table string, limit int) (*schema.Table, error)
}

type movementRepository struct {
	db *postgres.DB
}

func NewMovementRepository(db *postgres.DB) MovementRepository {
	return &movementRepository{db: db}
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// splitTable validates a possibly schema-qualified table name.
func splitTable(table string) (schemaName, name string, err error) {
	if !identifierPattern.MatchString(table) {
		return "", "", fmt.Errorf("invalid table name %q", table)
	}
	if i := strings.IndexByte(table, '.'); i >= 0 {
		return table[:i], table[i+1:], nil
	}
	return "public", table, nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func (r *movementRepository) ListColumns(ctx context.Context, table string) ([]string, error) {
	schemaName, name, err := splitTable(table)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	var columns []string
	err = r.db.WithReadOnlyTx(ctx, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &columns, query, schemaName, name)
	})
	if err != nil {
		return nil, fmt.Errorf("error listing columns of %s: %w", table, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found or has no columns", table)
	}
	return columns, nil
}

func (r *movementRepository) LoadTable(ctx context.Context, table string, limit int) (*schema.Table, error) {
	columns, err := r.ListColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	schemaName, name, _ := splitTable(table)

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	query := fmt.Sprintf("SELECT %s FROM %s.%s", strings.Join(quoted, ", "), quoteIdent(schemaName), quoteIdent(name))
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	out := &schema.Table{Source: "postgres:" + table, Columns: columns}
	err = r.db.WithReadOnlyTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := tx.QueryxContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			values, err := rows.SliceScan()
			if err != nil {
				return err
			}
			record := make([]string, len(values))
			for i, v := range values {
				record[i] = cellString(v)
			}
			out.Rows = append(out.Rows, record)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", table, err)
	}

	return out, nil
}

// cellString renders a scanned database value the way a CSV export would.
func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}
