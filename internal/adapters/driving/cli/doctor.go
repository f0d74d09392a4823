package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/slidecast/internal/core/ports/driving"
)

var doctorLive bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the local environment",
	Long: `Checks that the external tools and providers a conversion needs are
installed and configured: ffmpeg, the Marp CLI and its browser, and
the OCR, planner and speech providers.

With --live, configured providers are also pinged.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorLive, "live", false, "ping configured providers")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	if doctorService == nil {
		return errors.New("doctor service not configured")
	}

	ctx := context.Background()

	results := doctorService.Diagnose(ctx, doctorLive)

	failed := false
	for _, result := range results {
		cmd.Printf("  %s %-12s %s\n", statusIcon(result.Status), result.Name, result.Detail)
		if result.Status == driving.CheckFail {
			failed = true
		}
	}

	cmd.Println()
	if failed {
		cmd.Println("Some checks failed. Conversions will not work until they are fixed.")
		return errors.New("environment checks failed")
	}
	cmd.Println("Environment is ready.")
	return nil
}

func statusIcon(status driving.CheckStatus) string {
	switch status {
	case driving.CheckPass:
		return "[ok]  "
	case driving.CheckWarn:
		return "[warn]"
	case driving.CheckFail:
		return "[fail]"
	default:
		return "[?]   "
	}
}
