// Package syncer reconciles warehouse rows against the Airtable table and
// applies the resulting updates and inserts.
package syncer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/elliotlrichardson/airsync/internal/config"
	"github.com/elliotlrichardson/airsync/internal/logger"
	"github.com/elliotlrichardson/airsync/internal/table"
)

// ErrPartialSync is returned by Run and Apply when some updates failed and
// continue-on-error was enabled.
var ErrPartialSync = errors.New("sync completed with failed updates")

// SinkReader fetches the current sink snapshot.
type SinkReader interface {
	FetchCurrent(ctx context.Context) (*table.Table, table.KeyIndex, error)
}

// SinkWriter writes records to the sink.
type SinkWriter interface {
	UpdateRecord(ctx context.Context, id string, fields map[string]any, typecast bool) error
	InsertRecords(ctx context.Context, t *table.Table, typecast bool) (int, error)
}

// Sink is the record store being synchronized into.
type Sink interface {
	SinkReader
	SinkWriter
}

// WarehouseReader reads the source table.
type WarehouseReader interface {
	FetchTable(ctx context.Context, name string) (*table.Table, error)
}

// Options configures a Driver.
type Options struct {
	WarehouseTable    string
	KeyColumn         string
	SkipFields        []string
	UpdateConcurrency int
	ContinueOnError   bool
	Reconcile         ReconcileOptions
}

// OptionsFromConfig derives driver options from configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	columnTypes, err := cfg.Sync.ParseColumnTypes()
	if err != nil {
		return Options{}, err
	}
	return Options{
		WarehouseTable:    cfg.Warehouse.Table,
		KeyColumn:         cfg.Sync.UniqueID,
		SkipFields:        cfg.Sync.SkipFields,
		UpdateConcurrency: cfg.Sync.UpdateConcurrency,
		ContinueOnError:   cfg.Sync.ContinueOnError,
		Reconcile: ReconcileOptions{
			MetadataColumns: cfg.Sync.MetadataColumns,
			ColumnTypes:     columnTypes,
			IntNull:         cfg.Sync.IntNull,
			FloatNull:       cfg.Sync.FloatNull,
		},
	}, nil
}

// Plan is the outcome of fetching, reconciling and partitioning, before any write.
type Plan struct {
	RunID      string
	Sink       *table.Table
	Index      table.KeyIndex
	Reconciled *table.Table
	Update     *table.Table
	Insert     *table.Table
	Diff       []ColumnTypeDiff
}

// RowFailure is an update that failed while continue-on-error was enabled.
type RowFailure struct {
	Row      int
	Key      string
	RecordID string
	Err      error
}

// Result contains statistics of a sync run.
type Result struct {
	RunID       string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Total       int
	Updated     int
	Inserted    int
	Failures    []RowFailure
}

// Driver orchestrates fetch, reconcile, partition and apply.
type Driver struct {
	sink      Sink
	warehouse WarehouseReader
	opts      Options
	logger    *logger.Logger
	runID     string
}

// NewDriver creates a Driver. A nil logger discards output.
func NewDriver(sink Sink, warehouse WarehouseReader, opts Options, log *logger.Logger) (*Driver, error) {
	if sink == nil {
		return nil, fmt.Errorf("sink is nil")
	}
	if warehouse == nil {
		return nil, fmt.Errorf("warehouse reader is nil")
	}
	if opts.KeyColumn == "" {
		return nil, fmt.Errorf("key column is required")
	}
	if opts.UpdateConcurrency < 1 {
		opts.UpdateConcurrency = 1
	}
	if log == nil {
		log = logger.NewNop()
	}

	runID := logger.NewRunID()
	return &Driver{
		sink:      sink,
		warehouse: warehouse,
		opts:      opts,
		logger:    log.WithRun(runID),
		runID:     runID,
	}, nil
}

// Plan fetches both sides, reconciles the warehouse table and partitions it.
// Nothing is written.
func (d *Driver) Plan(ctx context.Context) (*Plan, error) {
	sink, index, err := d.sink.FetchCurrent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sink records: %w", err)
	}
	d.logger.Infof("%d records already in airtable", sink.Len())
	if sink.Len() > 0 && !sink.HasColumn(d.opts.KeyColumn) {
		return nil, fmt.Errorf("%w: %q", table.ErrMissingKeyColumn, d.opts.KeyColumn)
	}

	source, err := d.warehouse.FetchTable(ctx, d.opts.WarehouseTable)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch warehouse rows: %w", err)
	}
	if !source.HasColumn(d.opts.KeyColumn) {
		return nil, fmt.Errorf("key column %q not found in warehouse table %s", d.opts.KeyColumn, d.opts.WarehouseTable)
	}

	rec, err := NewReconciler(d.opts.Reconcile, d.logger).Reconcile(sink, source)
	if err != nil {
		return nil, err
	}

	if changed := changedColumns(rec.Diff); len(changed) > 0 {
		d.logger.Infow("Reconciled column types", "columns", changed)
	}

	update, insert := Partition(rec.Table, d.opts.KeyColumn, index)
	d.logger.Infow("Partitioned warehouse rows",
		"total", rec.Table.Len(),
		"update", update.Len(),
		"insert", insert.Len(),
	)

	return &Plan{
		RunID:      d.runID,
		Sink:       sink,
		Index:      index,
		Reconciled: rec.Table,
		Update:     update,
		Insert:     insert,
		Diff:       rec.Diff,
	}, nil
}

func changedColumns(diff []ColumnTypeDiff) []string {
	var cols []string
	for _, d := range diff {
		if d.Changed() {
			cols = append(cols, fmt.Sprintf("%s: %s -> %s", d.Column, d.Before, d.After))
		}
	}
	return cols
}

// Apply updates every existing record in table order, then inserts the new
// rows in one bulk call. Without continue-on-error the first failure aborts.
func (d *Driver) Apply(ctx context.Context, plan *Plan) (*Result, error) {
	result := &Result{
		RunID:     d.runID,
		StartedAt: time.Now(),
		Total:     plan.Reconciled.Len(),
	}
	finish := func() {
		result.CompletedAt = time.Now()
		result.Duration = result.CompletedAt.Sub(result.StartedAt)
	}
	defer finish()

	if err := d.applyUpdates(ctx, plan, result); err != nil {
		return result, err
	}

	if plan.Insert.Len() > 0 {
		inserted, err := d.sink.InsertRecords(ctx, plan.Insert, false)
		result.Inserted = inserted
		if err != nil {
			return result, fmt.Errorf("failed to insert %d new records: %w", plan.Insert.Len(), err)
		}
	}

	d.logger.Infow("Sync applied",
		"updated", result.Updated,
		"inserted", result.Inserted,
		"failed", len(result.Failures),
	)

	if len(result.Failures) > 0 {
		return result, fmt.Errorf("%w: %d of %d updates failed", ErrPartialSync, len(result.Failures), plan.Update.Len())
	}
	return result, nil
}

// Run plans and applies a sync.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	plan, err := d.Plan(ctx)
	if err != nil {
		return nil, err
	}

	if d.logger.Level().Enabled(zapcore.DebugLevel) {
		var buf bytes.Buffer
		if err := WriteReport(&buf, plan, false); err == nil {
			d.logger.Debugf("Column types:\n%s", buf.String())
		}
	}

	return d.Apply(ctx, plan)
}

type updateJob struct {
	row    int
	key    string
	id     string
	fields map[string]any
}

func (d *Driver) updateJobs(plan *Plan) ([]updateJob, error) {
	skip := make(map[string]bool, len(d.opts.SkipFields))
	for _, f := range d.opts.SkipFields {
		skip[f] = true
	}
	isSkipped := func(col string) bool { return skip[col] }

	jobs := make([]updateJob, 0, plan.Update.Len())
	for i, row := range plan.Update.Rows() {
		key := row.Value(d.opts.KeyColumn)
		id, ok := plan.Index.Lookup(key)
		if !ok {
			return nil, fmt.Errorf("no record id for key %q", key.String())
		}
		jobs = append(jobs, updateJob{row: i, key: key.String(), id: id, fields: row.Fields(isSkipped)})
	}
	return jobs, nil
}

func (d *Driver) applyUpdates(ctx context.Context, plan *Plan, result *Result) error {
	jobs, err := d.updateJobs(plan)
	if err != nil {
		return err
	}

	if d.opts.UpdateConcurrency <= 1 {
		for _, job := range jobs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := d.update(ctx, job, result, nil); err != nil {
				return err
			}
		}
		return nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.UpdateConcurrency)
	for _, job := range jobs {
		g.Go(func() error {
			return d.update(gctx, job, result, &mu)
		})
	}
	err = g.Wait()

	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].Row < result.Failures[j].Row
	})
	return err
}

// update applies one job. With continue-on-error a failure is recorded and
// nil returned. mu guards result when updates run concurrently.
func (d *Driver) update(ctx context.Context, job updateJob, result *Result, mu *sync.Mutex) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := d.sink.UpdateRecord(ctx, job.id, job.fields, true)

	if mu != nil {
		mu.Lock()
		defer mu.Unlock()
	}

	if err == nil {
		result.Updated++
		return nil
	}

	if !d.opts.ContinueOnError {
		return fmt.Errorf("failed to update record %s (key %s): %w", job.id, job.key, err)
	}

	d.logger.Warnw("Update failed, continuing",
		"record_id", job.id,
		"key", job.key,
		"error", err,
	)
	result.Failures = append(result.Failures, RowFailure{Row: job.row, Key: job.key, RecordID: job.id, Err: err})
	return nil
}
