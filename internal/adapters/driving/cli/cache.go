package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the extraction cache",
	Long: `Inspect or clear cached document extractions.

Extraction results are cached by document content hash, so converting
the same document twice skips the OCR service. Failed extractions are
cached too and block retries until cleared.`,
	RunE: runCacheStats,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache contents",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [document-id]",
	Short: "Clear cached extractions",
	Long: `Removes cached extractions. With a document ID only that entry is
removed; without one the whole cache is cleared.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	ctx := context.Background()

	entries, err := cacheService.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cache: %w", err)
	}

	if len(entries) == 0 {
		cmd.Println("Extraction cache is empty.")
		return nil
	}

	cmd.Println("Cached extractions:")
	cmd.Println()
	failures := 0
	for _, entry := range entries {
		cmd.Printf("  %s\n", entry.DocumentID)
		if entry.Failed {
			failures++
			cmd.Printf("    Failed extraction (cached %s)\n", entry.CachedAt.Format("2006-01-02 15:04"))
		} else {
			cmd.Printf("    Pages: %d  Figures: %d  Text: %s\n",
				entry.Pages, entry.Figures, formatBytes(entry.TextBytes))
			cmd.Printf("    Cached: %s\n", entry.CachedAt.Format("2006-01-02 15:04"))
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d entries (%d failed)\n", len(entries), failures)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	ctx := context.Background()

	if len(args) > 0 {
		documentID := args[0]
		if err := cacheService.Remove(ctx, documentID); err != nil {
			return fmt.Errorf("failed to remove cache entry: %w", err)
		}
		cmd.Printf("Cache entry %s removed.\n", documentID)
		return nil
	}

	if err := cacheService.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	cmd.Println("Extraction cache cleared.")
	return nil
}

// formatBytes renders a byte count with a binary unit suffix.
func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
