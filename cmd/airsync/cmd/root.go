package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/elliotlrichardson/airsync/internal/syncer"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "airsync",
	Short: "Upsert warehouse rows into an Airtable table",
	Long: `airsync reads every row of a warehouse table (Redshift, Postgres or MySQL),
reconciles its column types with the target Airtable table and upserts the rows
by a business key: existing records are updated, new ones inserted.

Configuration comes from the environment. Outside the scheduled environment
(CIVIS_RUN_ID unset) a local .env file is loaded first.

Run without a subcommand to perform the sync.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
	Args:          cobra.NoArgs,
	RunE:          runSync,
}

// Execute runs the root command
func Execute() {
	rootCmd.SetOut(os.Stdout)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	app, err := setup()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := signalContext(cmd.Context(), app.log)

	app.log.Infow("Starting sync",
		"warehouse_table", app.cfg.Warehouse.Table,
		"airtable_table", app.cfg.Airtable.TableName,
		"unique_id", app.cfg.Sync.UniqueID,
	)

	if err := app.connect(ctx); err != nil {
		return err
	}

	driver, err := app.driver()
	if err != nil {
		return err
	}

	result, err := driver.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			app.log.Warn("Sync cancelled by signal")
		}
		if result != nil {
			printResult(cmd, result)
		}
		return fmt.Errorf("sync failed: %w", err)
	}

	printResult(cmd, result)
	return nil
}

func printResult(cmd *cobra.Command, result *syncer.Result) {
	cmd.Printf("\n=== Sync Complete ===\n")
	cmd.Printf("Run: %s\n", result.RunID)
	cmd.Printf("Duration: %s\n", result.Duration)
	cmd.Printf("Rows: %d\n", result.Total)
	cmd.Printf("Updated: %d\n", result.Updated)
	cmd.Printf("Inserted: %d\n", result.Inserted)

	if len(result.Failures) > 0 {
		cmd.Printf("\nFailed updates:\n")
		for _, f := range result.Failures {
			cmd.Printf("  - %s (record %s): %v\n", f.Key, f.RecordID, f.Err)
		}
	}
}
