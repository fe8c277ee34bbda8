// Package config provides configuration structures and loading for airsync.
package config

import (
	"fmt"
	"strings"

	"github.com/elliotlrichardson/airsync/internal/table"
)

// Config represents the complete application configuration.
type Config struct {
	Warehouse WarehouseConfig `mapstructure:"warehouse"`
	Airtable  AirtableConfig  `mapstructure:"airtable"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Logging   LoggingConfig   `mapstructure:"log"`

	// LocalEnvFile is the .env file loaded as a local-development fallback, if any.
	LocalEnvFile string `mapstructure:"-"`
}

// WarehouseConfig represents the warehouse connection and the table to read.
type WarehouseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres, redshift, mysql
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`
	Table    string `mapstructure:"table"`
}

// AirtableConfig represents the sink API credentials and target table.
type AirtableConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseKey        string `mapstructure:"base_key"`
	TableName      string `mapstructure:"table_name"`
	Endpoint       string `mapstructure:"endpoint"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// SyncConfig represents reconciliation and apply settings.
type SyncConfig struct {
	UniqueID          string   `mapstructure:"unique_id"`
	IntNull           int64    `mapstructure:"int_null"`
	FloatNull         float64  `mapstructure:"float_null"`
	MetadataColumns   []string `mapstructure:"metadata_columns"`
	SkipFields        []string `mapstructure:"skip_fields"`
	ColumnTypes       []string `mapstructure:"column_types"` // "column:kind" pairs
	DuplicateKeys     string   `mapstructure:"duplicate_keys"`
	UpdateConcurrency int      `mapstructure:"update_concurrency"`
	ContinueOnError   bool     `mapstructure:"continue_on_error"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or text
	Output string `mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Warehouse: WarehouseConfig{
			Driver:  "postgres",
			Port:    5439,
			SSLMode: "require",
		},
		Airtable: AirtableConfig{
			Endpoint:       "https://api.airtable.com/v0",
			TimeoutSeconds: 30,
		},
		Sync: SyncConfig{
			MetadataColumns:   []string{"id", "createdTime"},
			SkipFields:        []string{"Id"},
			DuplicateKeys:     string(table.DuplicateError),
			UpdateConcurrency: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// DuplicatePolicy returns the configured duplicate business key policy.
func (s *SyncConfig) DuplicatePolicy() table.DuplicatePolicy {
	if s.DuplicateKeys == "" {
		return table.DuplicateError
	}
	return table.DuplicatePolicy(s.DuplicateKeys)
}

// ParseColumnTypes parses the "column:kind" declarations into a lookup map.
func (s *SyncConfig) ParseColumnTypes() (map[string]table.Kind, error) {
	types := make(map[string]table.Kind, len(s.ColumnTypes))
	for _, decl := range s.ColumnTypes {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		col, kindName, ok := strings.Cut(decl, ":")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return nil, fmt.Errorf("column type %q must have the form column:kind", decl)
		}
		kind, err := table.ParseKind(kindName)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col, err)
		}
		types[col] = kind
	}
	return types, nil
}
