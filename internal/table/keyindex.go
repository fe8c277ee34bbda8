package table

import (
	"errors"
	"fmt"
)

// DuplicatePolicy decides what happens when two sink records share a business key.
type DuplicatePolicy string

const (
	// DuplicateError rejects the snapshot.
	DuplicateError DuplicatePolicy = "error"
	// DuplicateLastWins keeps the record seen last.
	DuplicateLastWins DuplicatePolicy = "last_wins"
)

// ErrMissingKeyColumn is returned when a non-empty sink snapshot has no
// business key column.
var ErrMissingKeyColumn = errors.New("business key column missing from sink records")

// DuplicateKeyError is returned when the sink snapshot holds the same
// business key on more than one record.
type DuplicateKeyError struct {
	Column string
	Key    string
	First  string
	Second string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate business key %q in column %q (records %s and %s)",
		e.Key, e.Column, e.First, e.Second)
}

// KeyIndex maps the canonical text of a business key to the sink record id.
type KeyIndex map[string]string

// BuildKeyIndex indexes t by keyColumn, mapping each key to the value of idColumn.
// Rows with a null business key are not indexed. A non-empty table without
// keyColumn fails with ErrMissingKeyColumn.
func BuildKeyIndex(t *Table, keyColumn, idColumn string, policy DuplicatePolicy) (KeyIndex, error) {
	if t.Len() > 0 && !t.HasColumn(keyColumn) {
		return nil, fmt.Errorf("%w: %q", ErrMissingKeyColumn, keyColumn)
	}
	index := make(KeyIndex, t.Len())
	for _, row := range t.rows {
		key := row.Value(keyColumn)
		if key.IsNullLike() {
			continue
		}
		id := row.Value(idColumn).String()
		k := key.String()
		if prev, dup := index[k]; dup && policy != DuplicateLastWins {
			return nil, &DuplicateKeyError{Column: keyColumn, Key: k, First: prev, Second: id}
		}
		index[k] = id
	}
	return index, nil
}

// Lookup returns the record id for key.
func (k KeyIndex) Lookup(key Value) (string, bool) {
	if key.IsNullLike() {
		return "", false
	}
	id, ok := k[key.String()]
	return id, ok
}

// Contains reports whether key is indexed.
func (k KeyIndex) Contains(key Value) bool {
	_, ok := k.Lookup(key)
	return ok
}
