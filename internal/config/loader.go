package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// PrimaryEnvMarker is set by the scheduled execution environment. When it is
	// absent the loader falls back to a local .env file.
	PrimaryEnvMarker = "CIVIS_RUN_ID"

	// EnvFileVar overrides the path of the local .env file.
	EnvFileVar = "AIRSYNC_ENV_FILE"

	defaultEnvFile = ".env"
)

// envBindings maps configuration keys to the environment variables that may
// carry them, in order of precedence. The lowercase and credential-style names
// are the ones the scheduled container exposes.
var envBindings = map[string][]string{
	"warehouse.driver":   {"WAREHOUSE_DRIVER"},
	"warehouse.host":     {"WAREHOUSE_HOST", "REDSHIFT_HOST"},
	"warehouse.port":     {"WAREHOUSE_PORT", "REDSHIFT_PORT"},
	"warehouse.database": {"WAREHOUSE_DATABASE", "REDSHIFT_DATABASE", "REDSHIFT_DB"},
	"warehouse.user":     {"WAREHOUSE_USER", "REDSHIFT_CREDENTIAL_USERNAME", "REDSHIFT_USERNAME"},
	"warehouse.password": {"WAREHOUSE_PASSWORD", "REDSHIFT_CREDENTIAL_PASSWORD", "REDSHIFT_PASSWORD"},
	"warehouse.ssl_mode": {"WAREHOUSE_SSL_MODE"},
	"warehouse.table":    {"WAREHOUSE_TABLE", "redshift_form_response_table"},

	"airtable.api_key":         {"AIRTABLE_API_KEY", "AIRTABLE_API_KEY_PASSWORD"},
	"airtable.base_key":        {"AIRTABLE_BASE_KEY", "airtable_base_key"},
	"airtable.table_name":      {"AIRTABLE_TABLE_NAME", "airtable_table_name"},
	"airtable.endpoint":        {"AIRTABLE_ENDPOINT"},
	"airtable.timeout_seconds": {"AIRTABLE_TIMEOUT_SECONDS"},

	"sync.unique_id":          {"SYNC_UNIQUE_ID", "unique_id"},
	"sync.int_null":           {"SYNC_INT_NULL", "int_null"},
	"sync.float_null":         {"SYNC_FLOAT_NULL", "float_null"},
	"sync.metadata_columns":   {"SYNC_METADATA_COLUMNS"},
	"sync.skip_fields":        {"SYNC_SKIP_FIELDS"},
	"sync.column_types":       {"SYNC_COLUMN_TYPES"},
	"sync.duplicate_keys":     {"SYNC_DUPLICATE_KEYS"},
	"sync.update_concurrency": {"SYNC_UPDATE_CONCURRENCY"},
	"sync.continue_on_error":  {"SYNC_CONTINUE_ON_ERROR"},

	"log.level":  {"LOG_LEVEL"},
	"log.format": {"LOG_FORMAT"},
	"log.output": {"LOG_OUTPUT"},
}

// Load reads configuration from the environment.
// Outside the scheduled environment a local .env file is loaded first; variables
// already present in the process environment are never overridden by it.
func Load() (*Config, error) {
	envFile, err := loadLocalEnv()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	cfg, err := LoadFromViper(v)
	if err != nil {
		return nil, err
	}
	cfg.LocalEnvFile = envFile
	return cfg, nil
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func bindEnv(v *viper.Viper) error {
	for key, names := range envBindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// loadLocalEnv loads the local .env file when the primary environment marker is
// absent. It returns the path that was loaded, or "" when nothing was loaded.
func loadLocalEnv() (string, error) {
	if os.Getenv(PrimaryEnvMarker) != "" {
		return "", nil
	}

	path := os.Getenv(EnvFileVar)
	if path == "" {
		path = defaultEnvFile
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to stat env file %s: %w", path, err)
	}

	if err := godotenv.Load(path); err != nil {
		return "", fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return path, nil
}
