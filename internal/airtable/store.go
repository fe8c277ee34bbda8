package airtable

import (
	"context"
	"fmt"
	"sort"

	"github.com/elliotlrichardson/airsync/internal/table"
)

// Metadata columns added to every fetched record.
const (
	ColumnID          = "id"
	ColumnCreatedTime = "createdTime"
)

// Store exposes the table as the sync's record source and sink.
type Store struct {
	*Client
	keyColumn string
	policy    table.DuplicatePolicy
}

// NewStore wraps client, indexing records by keyColumn.
func NewStore(client *Client, keyColumn string, policy table.DuplicatePolicy) *Store {
	return &Store{Client: client, keyColumn: keyColumn, policy: policy}
}

// FetchCurrent returns every record as a table together with the index from
// business key to record id.
func (s *Store) FetchCurrent(ctx context.Context) (*table.Table, table.KeyIndex, error) {
	records, err := s.ListRecords(ctx)
	if err != nil {
		return nil, nil, err
	}

	t := RecordsToTable(records)
	index, err := table.BuildKeyIndex(t, s.keyColumn, ColumnID, s.policy)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to index %s records: %w", s.TableName(), err)
	}
	return t, index, nil
}

// RecordsToTable converts records into a table whose columns are id,
// createdTime and then the field names in sorted order. Fields missing from a
// record read as null.
func RecordsToTable(records []Record) *table.Table {
	t := table.New(ColumnID, ColumnCreatedTime)
	for _, rec := range records {
		names := make([]string, 0, len(rec.Fields))
		for name := range rec.Fields {
			names = append(names, name)
		}
		sort.Strings(names)

		columns := append([]string{ColumnID, ColumnCreatedTime}, names...)
		values := make([]table.Value, 0, len(columns))
		values = append(values, table.String(rec.ID), table.String(rec.CreatedTime))
		for _, name := range names {
			values = append(values, table.FromAny(rec.Fields[name]))
		}
		t.Append(table.NewRow(columns, values))
	}
	return t
}
