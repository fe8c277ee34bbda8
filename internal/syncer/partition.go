package syncer

import (
	"sort"

	"github.com/elliotlrichardson/airsync/internal/table"
)

// Partition splits t into rows whose business key is already in the sink
// (update) and the rest (insert). Both keep t's row order. Rows with a null
// key are always inserted.
func Partition(t *table.Table, keyColumn string, index table.KeyIndex) (update, insert *table.Table) {
	exists := func(row *table.Row) bool {
		return index.Contains(row.Value(keyColumn))
	}
	update = t.Select(exists)
	insert = t.Select(func(row *table.Row) bool { return !exists(row) })
	return update, insert
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
