package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchSlidesOnly bool

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and convert dropped documents",
	Long: `Watches a directory and converts each supported document that
appears in it, using the stored conversion defaults. A failed
conversion is logged and the watch continues.

Press Ctrl-C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchSlidesOnly, "slides-only", false, "stop after rendering, no narration or video")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watcherService == nil {
		return errors.New("watch service not configured")
	}
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cfg, err := settingsService.RunConfigFromSettings()
	if err != nil {
		return fmt.Errorf("loading conversion defaults: %w", err)
	}
	if watchSlidesOnly {
		cfg.SlidesOnly = true
	}

	dir := args[0]

	// Stop the watch on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		cancel()
	}()

	cmd.Printf("Watching %s for documents. Press Ctrl-C to stop.\n", dir)

	if err := watcherService.Watch(ctx, dir, cfg); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch failed: %w", err)
	}

	cmd.Println("Watch stopped.")
	return nil
}
