// Package sqlutil provides SQL identifier helpers for the warehouse reader.
package sqlutil

import (
	"fmt"
	"regexp"
	"strings"
)

// Dialect selects identifier quoting rules.
type Dialect string

const (
	// Postgres quotes with double quotes. Redshift uses the same rules.
	Postgres Dialect = "postgres"
	// MySQL quotes with backticks.
	MySQL Dialect = "mysql"
)

// DialectFor maps a configured warehouse driver name to its dialect.
func DialectFor(driver string) Dialect {
	if strings.EqualFold(driver, "mysql") {
		return MySQL
	}
	return Postgres
}

// QuoteIdentifier quotes a single identifier (table or column name) for the dialect,
// doubling any embedded quote character.
// Example: Postgres "my_table" -> "\"my_table\"", MySQL "my`table" -> "`my``table`"
func QuoteIdentifier(d Dialect, name string) string {
	q := `"`
	if d == MySQL {
		q = "`"
	}
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// validIdentifierRegex restricts identifiers to alphanumeric characters and underscores.
var validIdentifierRegex = regexp.MustCompile("^[a-zA-Z0-9_]+$")

// IsValidIdentifier checks if a name is a plain, unqualified identifier.
func IsValidIdentifier(name string) bool {
	return validIdentifierRegex.MatchString(name)
}

// QuoteTableName validates and quotes a possibly schema-qualified table name
// such as "analytics.form_responses". Each dot-separated part must be a valid identifier.
func QuoteTableName(d Dialect, name string) (string, error) {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return "", &InvalidIdentifierError{Name: name}
	}
	quoted := make([]string, len(parts))
	for i, part := range parts {
		if !IsValidIdentifier(part) {
			return "", &InvalidIdentifierError{Name: name}
		}
		quoted[i] = QuoteIdentifier(d, part)
	}
	return strings.Join(quoted, "."), nil
}

// SelectAll builds the warehouse read query for a table.
func SelectAll(d Dialect, tableName string) (string, error) {
	quoted, err := QuoteTableName(d, tableName)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SELECT * FROM %s", quoted), nil
}

// InvalidIdentifierError is returned when an identifier contains invalid characters.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return "invalid identifier: " + e.Name + " (must be [schema.]table using only alphanumeric characters and underscores)"
}
