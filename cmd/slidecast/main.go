// Package main assembles the slidecast application: storage, provider
// adapters and core services are wired together here and handed to the
// command tree.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/slidecast/internal/adapters/driven/ai"
	"github.com/custodia-labs/slidecast/internal/adapters/driven/config/file"
	"github.com/custodia-labs/slidecast/internal/adapters/driven/media/ffmpeg"
	"github.com/custodia-labs/slidecast/internal/adapters/driven/render/marp"
	"github.com/custodia-labs/slidecast/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/slidecast/internal/adapters/driving/cli"
	"github.com/custodia-labs/slidecast/internal/core/services"
	"github.com/custodia-labs/slidecast/internal/logger"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env in the working directory supplies provider keys during
	// development. Absence is not an error.
	_ = godotenv.Load()

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}
	promptStore, err := file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("open prompt store: %w", err)
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}
	defer store.Close()

	validator := ai.NewConfigValidator()
	settingsService := services.NewSettingsService(configStore, validator)

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	// Broken provider configuration must not block startup: the
	// settings, cache and runs commands still work, and conversions
	// surface the provider error from the failing stage.
	providers, err := ai.InitProviders(context.Background(), settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		providers = &ai.InitResult{}
	}
	defer providers.Close()
	for _, warning := range providers.Warnings {
		logger.Warn("%s", warning)
	}

	renderer := marp.New(marp.Config{ChromePath: os.Getenv("CHROME_PATH")})
	media := ffmpeg.New(ffmpeg.Config{})

	outputDir := settings.Defaults.OutputDir
	if outputDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("get home directory: %w", err)
		}
		outputDir = filepath.Join(home, ".slidecast", "output")
	}

	extraction := services.NewExtractionService(providers.Extractor, store.ExtractionCache())
	planning := services.NewPlanningService(providers.Planner)
	planning.SetPromptStore(promptStore)
	deck := services.NewDeckService()
	narration := services.NewNarrationService(providers.Speech, media,
		settings.Defaults.MaxConcurrentNarrations)

	pipeline := services.NewPipelineService(extraction, planning, deck, narration,
		renderer, media, store.RunStore(), outputDir)
	watcher := services.NewWatchService(pipeline, 0)
	doctor := services.NewDoctorService(renderer, media, settingsService, validator)

	cli.SetServices(cli.Services{
		Pipeline: pipeline,
		Cache:    extraction,
		Settings: settingsService,
		Watcher:  watcher,
		Doctor:   doctor,
	})
	cli.SetTUIConfig(&cli.TUIConfig{
		PipelineService: pipeline,
		CacheService:    extraction,
		DoctorService:   doctor,
	})
	cli.SetVersion(version)

	return cli.Execute()
}
