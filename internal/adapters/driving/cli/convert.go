package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/slidecast/internal/core/domain"
)

var (
	convertSlides     int
	convertNoFigures  bool
	convertSlidesOnly bool
	convertTheme      string
	convertVoice      string
	convertLanguage   string
	convertOutput     string
)

var convertCmd = &cobra.Command{
	Use:   "convert [document]",
	Short: "Convert a document into a narrated slide video",
	Long: `Converts a PDF or Markdown document into a slide deck and a
narrated video. Conversion defaults come from settings; flags override
them for a single run.

With --slides-only the pipeline stops after rendering the slide
frames: no narration is synthesized and no video is assembled. A
slides-only run can be turned into a silent video later with
'slidecast assemble'.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().IntVarP(&convertSlides, "slides", "n", 0, "target slide count (0 = automatic)")
	convertCmd.Flags().BoolVar(&convertNoFigures, "no-figures", false, "skip figure extraction and embedding")
	convertCmd.Flags().BoolVar(&convertSlidesOnly, "slides-only", false, "stop after rendering, no narration or video")
	convertCmd.Flags().StringVar(&convertTheme, "theme", "", "deck theme")
	convertCmd.Flags().StringVar(&convertVoice, "voice", "", "narration voice")
	convertCmd.Flags().StringVar(&convertLanguage, "language", "", "narration language code")
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "parent directory for the run workspace")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cfg, err := settingsService.RunConfigFromSettings()
	if err != nil {
		return fmt.Errorf("loading conversion defaults: %w", err)
	}
	applyConvertFlags(cmd, &cfg)

	documentPath := args[0]
	cmd.Printf("Converting %s...\n", documentPath)

	ctx := context.Background()
	run, err := convertWithProgress(ctx, cmd, documentPath, cfg)
	if err != nil {
		if run != nil {
			printStageSummary(cmd, run)
			cmd.Printf("\nConversion failed: %v\n", err)
			if run.WorkspaceDir != "" {
				cmd.Printf("Partial artifacts kept in %s\n", run.WorkspaceDir)
			}
		}
		return fmt.Errorf("conversion failed: %w", err)
	}

	printStageSummary(cmd, run)
	cmd.Println()
	cmd.Printf("Run %s complete.\n", run.ID)
	if run.VideoPath != "" {
		cmd.Printf("Video: %s\n", run.VideoPath)
	}
	cmd.Printf("Workspace: %s\n", run.WorkspaceDir)
	return nil
}

// applyConvertFlags overlays explicitly set flags onto the stored
// conversion defaults.
func applyConvertFlags(cmd *cobra.Command, cfg *domain.RunConfig) {
	flags := cmd.Flags()
	if flags.Changed("slides") {
		cfg.TargetSlideCount = convertSlides
	}
	if convertNoFigures {
		cfg.FiguresEnabled = false
	}
	if convertSlidesOnly {
		cfg.SlidesOnly = true
	}
	if flags.Changed("theme") {
		cfg.Theme = convertTheme
	}
	if flags.Changed("voice") {
		cfg.Voice = convertVoice
	}
	if flags.Changed("language") {
		cfg.Language = convertLanguage
	}
	if flags.Changed("output") {
		cfg.OutputDir = convertOutput
	}
}

// convertWithProgress runs the conversion while printing stage
// transitions. Every state change is persisted as it happens, so the
// newest run in history is the one in flight.
func convertWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	documentPath string,
	cfg domain.RunConfig,
) (*domain.PipelineRun, error) {
	type result struct {
		run *domain.PipelineRun
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		run, err := pipelineService.Convert(ctx, documentPath, cfg)
		resultCh <- result{run, err}
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var lastStage domain.Stage
	for {
		select {
		case res := <-resultCh:
			return res.run, res.err
		case <-ticker.C:
			// Check progress (ignore status error - best effort)
			runs, statusErr := pipelineService.Runs(ctx, 1)
			if statusErr != nil || len(runs) == 0 {
				continue
			}
			if stage := runs[0].Stage; stage != lastStage && !stage.Terminal() {
				cmd.Printf("  %s...\n", stage.Description())
				lastStage = stage
			}
		}
	}
}
