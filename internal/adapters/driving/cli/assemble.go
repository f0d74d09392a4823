package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var assembleSlideSeconds int

var assembleCmd = &cobra.Command{
	Use:   "assemble [run-id]",
	Short: "Build a silent video from a finished run",
	Long: `Builds a fixed-duration silent video from the slide frames a
finished run already rendered. Useful for turning a slides-only run
into a video without re-running the pipeline.`,
	Args: cobra.ExactArgs(1),
	RunE: runAssemble,
}

func init() {
	assembleCmd.Flags().IntVar(&assembleSlideSeconds, "slide-seconds", 0, "seconds each slide is shown (0 = stored default)")
	rootCmd.AddCommand(assembleCmd)
}

func runAssemble(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	runID := args[0]
	ctx := context.Background()

	perSlide := time.Duration(assembleSlideSeconds) * time.Second
	if assembleSlideSeconds == 0 && settingsService != nil {
		// Fall back to the stored default (ignore settings error - best effort)
		settings, err := settingsService.Get()
		if err == nil && settings.Defaults.SlideSeconds > 0 {
			perSlide = time.Duration(settings.Defaults.SlideSeconds) * time.Second
		}
	}

	cmd.Printf("Assembling silent video for run %s...\n", runID)

	video, err := pipelineService.AssembleSilent(ctx, runID, perSlide)
	if err != nil {
		return fmt.Errorf("assembly failed: %w", err)
	}

	cmd.Printf("Video: %s (%d slides, %s)\n",
		video.Path, video.SlideCount, video.Duration.Round(time.Second))
	return nil
}
