package syncer

import (
	"errors"
	"fmt"

	"github.com/elliotlrichardson/airsync/internal/logger"
	"github.com/elliotlrichardson/airsync/internal/table"
)

// ErrEmptySink is returned when the sink holds no records and no explicit
// column types are configured, so there is nothing to infer target types from.
var ErrEmptySink = errors.New("sink table is empty and no column types are configured")

// ReconcileOptions controls type reconciliation.
type ReconcileOptions struct {
	// MetadataColumns are sink columns excluded from comparison.
	MetadataColumns []string

	// ColumnTypes declares target kinds explicitly. Declared columns skip inference.
	ColumnTypes map[string]table.Kind

	IntNull   int64
	FloatNull float64
}

// ColumnTypeDiff pairs a warehouse column's profile before and after
// reconciliation with the sink's profile for the same column.
type ColumnTypeDiff struct {
	Column string
	InSink bool
	Sink   table.Profile
	Before table.Profile
	After  table.Profile
}

// Changed reports whether reconciliation altered the column's profile.
func (d ColumnTypeDiff) Changed() bool {
	return d.Before != d.After
}

// Reconciliation is the outcome of reconciling a warehouse table.
type Reconciliation struct {
	Table   *table.Table
	Targets map[string]table.Kind
	Diff    []ColumnTypeDiff
}

// Reconciler makes warehouse values match the types the sink expects.
type Reconciler struct {
	opts   ReconcileOptions
	logger *logger.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(opts ReconcileOptions, log *logger.Logger) *Reconciler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Reconciler{opts: opts, logger: log}
}

// Reconcile coerces every comparison column of warehouse to its target kind,
// then replaces nulls in nullable string, integer and float columns with the
// configured substitutes. The input tables are not modified.
func (r *Reconciler) Reconcile(sink, warehouse *table.Table) (*Reconciliation, error) {
	warehouseCols := warehouse.SortedColumns()
	before := make(map[string]table.Profile, len(warehouseCols))
	for _, col := range warehouseCols {
		before[col] = warehouse.Profile(col)
	}

	targets, err := r.resolveTargets(sink)
	if err != nil {
		return nil, err
	}

	out := warehouse
	applied := make(map[string]table.Kind, len(targets))
	for _, col := range sortedKeys(targets) {
		target := targets[col]
		log := r.logger.WithColumn(col)

		if !target.Coercible() {
			log.Warnw("skipping column with unsupported target type", "target", target.String())
			continue
		}
		if !out.HasColumn(col) {
			log.Warnw("skipping column missing from warehouse table", "target", target.String())
			continue
		}

		out, err = out.CoerceColumn(col, target)
		if err != nil {
			return nil, fmt.Errorf("failed to reconcile column %q: %w", col, err)
		}
		applied[col] = target
	}

	for _, col := range warehouseCols {
		out, err = r.normalizeNulls(out, col, applied)
		if err != nil {
			return nil, err
		}
	}

	diff := make([]ColumnTypeDiff, 0, len(warehouseCols))
	for _, col := range warehouseCols {
		d := ColumnTypeDiff{
			Column: col,
			InSink: sink.HasColumn(col),
			Before: before[col],
			After:  out.Profile(col),
		}
		if d.InSink {
			d.Sink = sink.Profile(col)
		}
		diff = append(diff, d)
	}

	return &Reconciliation{Table: out, Targets: applied, Diff: diff}, nil
}

// resolveTargets decides the target kind of every comparison column.
func (r *Reconciler) resolveTargets(sink *table.Table) (map[string]table.Kind, error) {
	if sink.Len() == 0 && len(r.opts.ColumnTypes) == 0 {
		return nil, ErrEmptySink
	}

	targets := make(map[string]table.Kind, len(r.opts.ColumnTypes))
	for col, kind := range r.opts.ColumnTypes {
		targets[col] = kind
	}

	metadata := make(map[string]bool, len(r.opts.MetadataColumns))
	for _, col := range r.opts.MetadataColumns {
		metadata[col] = true
	}

	for _, col := range sink.SortedColumns() {
		if metadata[col] {
			continue
		}
		if _, declared := targets[col]; declared {
			continue
		}
		kind, ok := inferKind(sink.Column(col))
		if !ok {
			r.logger.WithColumn(col).Warn("skipping sink column with no non-null values")
			continue
		}
		targets[col] = kind
	}

	return targets, nil
}

// inferKind returns the kind of the first value, or of the first non-null
// value when the first one is null-like.
func inferKind(values []table.Value) (table.Kind, bool) {
	for _, v := range values {
		if !v.IsNullLike() {
			return v.Kind(), true
		}
	}
	return table.KindNull, false
}

// normalizeNulls replaces null-like values in a nullable column with the
// substitute for its kind. An all-null column with a known target uses that
// target's substitute.
func (r *Reconciler) normalizeNulls(t *table.Table, col string, targets map[string]table.Kind) (*table.Table, error) {
	profile := t.Profile(col)
	if !profile.Has(table.KindNull) {
		return t, nil
	}

	kind, ok := profile.Nullable()
	if !ok {
		target, known := targets[col]
		switch {
		case profile.Len() == 1 && known:
			kind = target
		case profile.Len() > 2:
			r.logger.WithColumn(col).Warnw("column has mixed types, nulls left in place", "profile", profile.String())
			return t, nil
		default:
			return t, nil
		}
	}

	var substitute table.Value
	switch kind {
	case table.KindString:
		substitute = table.String("")
	case table.KindInt:
		substitute = table.Int(r.opts.IntNull)
	case table.KindFloat:
		substitute = table.Float(r.opts.FloatNull)
	default:
		r.logger.WithColumn(col).Warnw("unrecognized type, nulls left in place", "type", kind.String())
		return t, nil
	}

	return t.MapColumn(col, func(_ int, v table.Value) (table.Value, error) {
		if v.IsNullLike() {
			return substitute, nil
		}
		return v, nil
	})
}
