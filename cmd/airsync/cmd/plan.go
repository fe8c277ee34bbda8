package cmd

import (
	"fmt"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/elliotlrichardson/airsync/internal/syncer"
)

var planNoColor bool

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what a sync would do without writing",
	Long: `Plan fetches the Airtable records and the warehouse rows, reconciles the
column types and partitions the rows, then prints the type report and the
number of records that would be updated and inserted. Nothing is written.

Example:
  airsync plan`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planNoColor, "no-color", false, "Disable colored output")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	app, err := setup()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := signalContext(cmd.Context(), app.log)
	if err := app.connect(ctx); err != nil {
		return err
	}

	driver, err := app.driver()
	if err != nil {
		return err
	}

	plan, err := driver.Plan(ctx)
	if err != nil {
		return fmt.Errorf("plan failed: %w", err)
	}

	cmd.Printf("\n=== Sync Plan: %s -> %s ===\n\n", app.cfg.Warehouse.Table, app.cfg.Airtable.TableName)
	if err := syncer.WriteReport(cmd.OutOrStdout(), plan, !planNoColor && color.SupportColor()); err != nil {
		return err
	}
	cmd.Println("\nNo records were modified. Run 'airsync' to apply.")
	return nil
}
