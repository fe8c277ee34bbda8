package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/elliotlrichardson/airsync/internal/sqlutil"
	"github.com/elliotlrichardson/airsync/internal/table"
)

// Reader runs queries against the warehouse and returns their results as tables.
type Reader struct {
	db      *sql.DB
	dialect sqlutil.Dialect
}

// NewReader creates a Reader over db.
func NewReader(db *sql.DB, dialect sqlutil.Dialect) *Reader {
	return &Reader{db: db, dialect: dialect}
}

// FetchTable reads every row of the named table ("schema.table" or "table").
func (r *Reader) FetchTable(ctx context.Context, name string) (*table.Table, error) {
	query, err := sqlutil.SelectAll(r.dialect, name)
	if err != nil {
		return nil, err
	}
	return r.FetchRows(ctx, query)
}

// FetchRows runs query and converts each cell according to the column's
// database type. Columns keep the order the query returns them in.
func (r *Reader) FetchRows(ctx context.Context, query string, args ...any) (*table.Table, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("warehouse query failed: %w", err)
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}

	columns := make([]string, len(colTypes))
	converters := make([]func(any) table.Value, len(colTypes))
	for i, ct := range colTypes {
		columns[i] = ct.Name()
		converters[i] = converterFor(ct.DatabaseTypeName())
	}

	out := table.New(columns...)
	raw := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range raw {
		dest[i] = &raw[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", out.Len(), err)
		}
		values := make([]table.Value, len(columns))
		for i, v := range raw {
			values[i] = converters[i](v)
		}
		out.Append(table.NewRow(columns, values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return out, nil
}

// converterFor picks the cell conversion for a database type name.
// Drivers that use the text protocol hand back []byte for most types, so the
// declared type decides how the bytes are read.
func converterFor(typeName string) func(any) table.Value {
	name := strings.ToUpper(typeName)
	name = strings.TrimPrefix(name, "UNSIGNED ")

	switch name {
	case "INT", "INT2", "INT4", "INT8", "INTEGER", "SMALLINT", "BIGINT", "TINYINT", "MEDIUMINT", "SERIAL", "BIGSERIAL":
		return toInt
	case "NUMERIC", "DECIMAL", "FLOAT", "FLOAT4", "FLOAT8", "DOUBLE", "REAL", "DOUBLE PRECISION":
		return toFloat
	case "BOOL", "BOOLEAN":
		return toBool
	case "DATE", "TIME", "TIMETZ", "TIMESTAMP", "TIMESTAMPTZ", "DATETIME":
		return toTime
	default:
		return table.FromAny
	}
}

func toInt(v any) table.Value {
	if b, ok := v.([]byte); ok {
		if i, err := strconv.ParseInt(string(b), 10, 64); err == nil {
			return table.Int(i)
		}
	}
	return table.FromAny(v)
}

func toFloat(v any) table.Value {
	switch x := v.(type) {
	case []byte:
		if f, err := strconv.ParseFloat(string(x), 64); err == nil {
			return table.Float(f)
		}
	case int64:
		return table.Float(float64(x))
	}
	return table.FromAny(v)
}

func toBool(v any) table.Value {
	switch x := v.(type) {
	case []byte:
		if b, err := strconv.ParseBool(string(x)); err == nil {
			return table.Bool(b)
		}
	case int64:
		return table.Bool(x != 0)
	}
	return table.FromAny(v)
}

func toTime(v any) table.Value {
	if b, ok := v.([]byte); ok {
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", time.DateOnly} {
			if t, err := time.Parse(layout, string(b)); err == nil {
				return table.Time(t)
			}
		}
	}
	return table.FromAny(v)
}
