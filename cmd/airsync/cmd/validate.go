package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and warehouse connectivity",
	Long: `Validate loads the configuration from the environment, reports every
problem found, and checks that the warehouse accepts a connection.

Example:
  airsync validate`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	app, err := setup()
	if err != nil {
		return err
	}
	defer app.Close()

	cmd.Printf("\n=== Configuration Validation ===\n")
	if app.cfg.LocalEnvFile != "" {
		cmd.Printf("Env file: %s\n", app.cfg.LocalEnvFile)
	}
	cmd.Printf("Warehouse: %s@%s:%d/%s (%s)\n", app.cfg.Warehouse.User, app.cfg.Warehouse.Host,
		app.cfg.Warehouse.Port, app.cfg.Warehouse.Database, app.cfg.Warehouse.Driver)
	cmd.Printf("Source table: %s\n", app.cfg.Warehouse.Table)
	cmd.Printf("Airtable: %s/%s\n", app.cfg.Airtable.BaseKey, app.cfg.Airtable.TableName)
	cmd.Printf("Unique id: %s\n\n", app.cfg.Sync.UniqueID)

	ctx := cmd.Context()
	if err := app.connect(ctx); err != nil {
		cmd.Printf("❌ Warehouse connection failed\n")
		return err
	}
	if err := app.warehouse.Ping(ctx); err != nil {
		return fmt.Errorf("warehouse connection failed: %w", err)
	}

	cmd.Println("✅ Configuration valid, warehouse reachable")
	return nil
}
