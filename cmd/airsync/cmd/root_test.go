package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elliotlrichardson/airsync/internal/config"
)

func TestExecute(t *testing.T) {
	// Execute calls os.Exit(1) on error, so only its presence is checked here.
	assert.NotNil(t, Execute)
}

func TestVersionVariables(t *testing.T) {
	assert.NotEmpty(t, Version, "Version should not be empty")
	assert.NotEmpty(t, Commit, "Commit should not be empty")
}

func TestRootCommandStructure(t *testing.T) {
	assert.Equal(t, "airsync", rootCmd.Use)
	assert.NotNil(t, rootCmd.RunE)

	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"plan", "validate", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

// setEnv points the loader at a fully specified environment.
func setEnv(t *testing.T, overrides map[string]string) {
	t.Helper()
	env := map[string]string{
		config.PrimaryEnvMarker: "test-run",
		"WAREHOUSE_DRIVER":      "postgres",
		"WAREHOUSE_HOST":        "127.0.0.1",
		"WAREHOUSE_PORT":        "1",
		"WAREHOUSE_DATABASE":    "dev",
		"WAREHOUSE_USER":        "etl",
		"WAREHOUSE_PASSWORD":    "pw",
		"WAREHOUSE_SSL_MODE":    "disable",
		"WAREHOUSE_TABLE":       "forms.responses",
		"AIRTABLE_API_KEY":      "key",
		"AIRTABLE_BASE_KEY":     "appBase",
		"AIRTABLE_TABLE_NAME":   "Responses",
		"SYNC_UNIQUE_ID":        "response_id",
		"LOG_OUTPUT":            "stderr",
	}
	for k, v := range overrides {
		env[k] = v
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

func TestSyncFailsOnInvalidConfig(t *testing.T) {
	setEnv(t, map[string]string{"SYNC_UNIQUE_ID": "", "unique_id": "", "AIRTABLE_API_KEY": "", "AIRTABLE_API_KEY_PASSWORD": ""})

	_, err := executeCommand(t)
	require.Error(t, err)

	var verrs config.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, err.Error(), "sync.unique_id")
	assert.Contains(t, err.Error(), "airtable.api_key")
}

func TestSyncFailsWhenWarehouseUnreachable(t *testing.T) {
	setEnv(t, nil)

	_, err := executeCommand(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to warehouse")
}

func TestRootRejectsArguments(t *testing.T) {
	_, err := executeCommand(t, "unexpected")
	assert.Error(t, err)
}
