package config

import (
	"fmt"
	"strings"

	"github.com/elliotlrichardson/airsync/internal/table"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateWarehouse()...)
	errors = append(errors, c.validateAirtable()...)
	errors = append(errors, c.validateSync()...)
	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateWarehouse() ValidationErrors {
	var errors ValidationErrors
	w := &c.Warehouse

	validDrivers := map[string]bool{"postgres": true, "redshift": true, "mysql": true}
	if !validDrivers[strings.ToLower(w.Driver)] {
		errors = append(errors, ValidationError{
			Field:   "warehouse.driver",
			Message: "driver must be 'postgres', 'redshift', or 'mysql'",
		})
	}

	required := []struct{ field, value string }{
		{"warehouse.host", w.Host},
		{"warehouse.database", w.Database},
		{"warehouse.user", w.User},
		{"warehouse.table", w.Table},
	}
	for _, r := range required {
		if r.value == "" {
			errors = append(errors, ValidationError{Field: r.field, Message: "value is required"})
		}
	}

	if w.Port <= 0 || w.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "warehouse.port",
			Message: "port must be between 1 and 65535",
		})
	}

	return errors
}

func (c *Config) validateAirtable() ValidationErrors {
	var errors ValidationErrors
	a := &c.Airtable

	if a.APIKey == "" {
		errors = append(errors, ValidationError{Field: "airtable.api_key", Message: "api key is required"})
	}
	if a.BaseKey == "" {
		errors = append(errors, ValidationError{Field: "airtable.base_key", Message: "base key is required"})
	}
	if a.TableName == "" {
		errors = append(errors, ValidationError{Field: "airtable.table_name", Message: "table name is required"})
	}
	if a.Endpoint == "" {
		errors = append(errors, ValidationError{Field: "airtable.endpoint", Message: "endpoint is required"})
	}
	if a.TimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "airtable.timeout_seconds",
			Message: "timeout_seconds cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateSync() ValidationErrors {
	var errors ValidationErrors
	s := &c.Sync

	if s.UniqueID == "" {
		errors = append(errors, ValidationError{
			Field:   "sync.unique_id",
			Message: "unique_id (the business key column) is required",
		})
	}

	switch s.DuplicatePolicy() {
	case table.DuplicateError, table.DuplicateLastWins:
	default:
		errors = append(errors, ValidationError{
			Field:   "sync.duplicate_keys",
			Message: "duplicate_keys must be 'error' or 'last_wins'",
		})
	}

	if s.UpdateConcurrency < 1 {
		errors = append(errors, ValidationError{
			Field:   "sync.update_concurrency",
			Message: "update_concurrency must be at least 1",
		})
	}

	if _, err := s.ParseColumnTypes(); err != nil {
		errors = append(errors, ValidationError{
			Field:   "sync.column_types",
			Message: err.Error(),
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "log.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "log.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
