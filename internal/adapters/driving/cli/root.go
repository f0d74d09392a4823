package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/slidecast/internal/core/ports/driving"
	"github.com/custodia-labs/slidecast/internal/logger"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// Services the commands dispatch to. main wires them before Execute;
// tests swap individual vars for mocks.
var (
	pipelineService driving.PipelineOrchestrator
	cacheService    driving.CacheService
	settingsService driving.SettingsService
	watcherService  driving.InboxWatcher
	doctorService   driving.Doctor
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "slidecast",
	Short: "Turn documents into narrated slide videos",
	Long: `Slidecast converts PDF and Markdown documents into slide decks
and narrated videos.

A conversion extracts the document text, plans a slide deck with an
LLM, compiles it to Marp markdown, renders slide frames, synthesizes
per-slide narration and assembles the final video. Run
'slidecast settings wizard' once to configure providers, then
'slidecast convert <document>' to convert.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose output")
}

// Services bundles the driving ports the command tree dispatches to.
type Services struct {
	Pipeline driving.PipelineOrchestrator
	Cache    driving.CacheService
	Settings driving.SettingsService
	Watcher  driving.InboxWatcher
	Doctor   driving.Doctor
}

// SetServices wires the core services into the command tree.
func SetServices(s Services) {
	pipelineService = s.Pipeline
	cacheService = s.Cache
	settingsService = s.Settings
	watcherService = s.Watcher
	doctorService = s.Doctor
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
