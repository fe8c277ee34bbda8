package syncer

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/elliotlrichardson/airsync/internal/logger"
	"github.com/elliotlrichardson/airsync/internal/table"
)

// tableOf builds a table from a column list and positional rows. Plain Go
// values are converted with table.FromAny.
func tableOf(columns []string, rows ...[]any) *table.Table {
	t := table.New(columns...)
	for _, r := range rows {
		values := make([]table.Value, len(r))
		for i, v := range r {
			values[i] = table.FromAny(v)
		}
		t.Append(table.NewRow(columns, values))
	}
	return t
}

func observedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return logger.FromZap(zap.New(core)), logs
}

// MockSink is a mock implementation of Sink.
type MockSink struct {
	mock.Mock
}

func (m *MockSink) FetchCurrent(ctx context.Context) (*table.Table, table.KeyIndex, error) {
	args := m.Called(ctx)
	t, _ := args.Get(0).(*table.Table)
	idx, _ := args.Get(1).(table.KeyIndex)
	return t, idx, args.Error(2)
}

func (m *MockSink) UpdateRecord(ctx context.Context, id string, fields map[string]any, typecast bool) error {
	args := m.Called(ctx, id, fields, typecast)
	return args.Error(0)
}

func (m *MockSink) InsertRecords(ctx context.Context, t *table.Table, typecast bool) (int, error) {
	args := m.Called(ctx, t, typecast)
	return args.Int(0), args.Error(1)
}

// MockWarehouse is a mock implementation of WarehouseReader.
type MockWarehouse struct {
	mock.Mock
}

func (m *MockWarehouse) FetchTable(ctx context.Context, name string) (*table.Table, error) {
	args := m.Called(ctx, name)
	t, _ := args.Get(0).(*table.Table)
	return t, args.Error(1)
}
