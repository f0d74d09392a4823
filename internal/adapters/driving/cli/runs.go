package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/slidecast/internal/core/domain"
)

// durationRounding trims stage durations for display.
const durationRounding = 100 * time.Millisecond

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage conversion runs",
	Long:  `List, inspect, or delete conversion run records.`,
	RunE:  runRunsList,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversion runs",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show run details",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete [run-id]",
	Short: "Delete a run record",
	Long:  `Removes a run from history. Artifacts on disk are kept.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

// runsLimit is a flag for the list command.
var runsLimit int

func init() {
	runsListCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum number of runs to list")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	ctx := context.Background()

	runs, err := pipelineService.Runs(ctx, runsLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		cmd.Println("No conversion runs yet.")
		return nil
	}

	cmd.Println("Conversion runs:")
	cmd.Println()
	for _, run := range runs {
		cmd.Printf("  %s  %-10s  %s\n",
			run.CreatedAt.Format("2006-01-02 15:04"),
			run.Stage,
			filepath.Base(run.DocumentPath))
		cmd.Printf("    ID: %s\n", run.ID)
		cmd.Println()
	}

	cmd.Printf("Total: %d runs\n", len(runs))
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	runID := args[0]
	ctx := context.Background()

	run, err := pipelineService.Status(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	cmd.Printf("Run: %s\n\n", run.ID)
	cmd.Printf("  Document:  %s\n", run.DocumentPath)
	cmd.Printf("  Stage:     %s\n", run.Stage.Description())
	cmd.Printf("  Created:   %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:   %s\n", run.UpdatedAt.Format("2006-01-02 15:04:05"))
	if run.WorkspaceDir != "" {
		cmd.Printf("  Workspace: %s\n", run.WorkspaceDir)
	}
	if run.VideoPath != "" {
		cmd.Printf("  Video:     %s\n", run.VideoPath)
	}
	if run.Error != "" {
		cmd.Printf("  Error:     %s\n", run.Error)
	}

	cmd.Println()
	printStageSummary(cmd, run)
	return nil
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	runID := args[0]
	ctx := context.Background()

	if err := pipelineService.DeleteRun(ctx, runID); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	cmd.Printf("Run %s deleted. Artifacts on disk are kept.\n", runID)
	return nil
}

// printStageSummary prints one line per work stage with its state and,
// for finished stages, its duration.
func printStageSummary(cmd *cobra.Command, run *domain.PipelineRun) {
	cmd.Println("  Stages:")
	for _, stage := range domain.WorkStages() {
		record, ok := run.Stages[stage]
		if !ok {
			continue
		}
		line := fmt.Sprintf("    %-12s %s", stage, record.State)
		if record.State == domain.StageStateDone && !record.FinishedAt.IsZero() && !record.StartedAt.IsZero() {
			line += fmt.Sprintf(" (%s)", record.FinishedAt.Sub(record.StartedAt).Round(durationRounding))
		}
		if record.Error != "" {
			line += fmt.Sprintf(": %s", record.Error)
		}
		cmd.Println(line)
	}
}
