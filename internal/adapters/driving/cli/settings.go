package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/slidecast/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure OCR, planner and speech providers, and the
conversion defaults.

Use subcommands to configure specific settings or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure all providers step by step.`,
	RunE:  runSettingsWizard,
}

var settingsExtractionCmd = &cobra.Command{
	Use:   "extraction",
	Short: "Configure document extraction",
	Long: `Configure the OCR service used to extract text and figures from
PDF documents. Markdown input needs no extraction service.`,
	RunE: runSettingsExtraction,
}

var settingsPlannerCmd = &cobra.Command{
	Use:   "planner",
	Short: "Configure the slide planner",
	Long:  `Configure the LLM provider that plans slide decks.`,
	RunE:  runSettingsPlanner,
}

var settingsSpeechCmd = &cobra.Command{
	Use:   "speech",
	Short: "Configure narration synthesis",
	Long: `Configure the text-to-speech provider used for narration.
Slides-only conversions work without one.`,
	RunE: runSettingsSpeech,
}

var settingsDefaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Configure conversion defaults",
	Long:  `Set the default slide count, theme and other run options.`,
	RunE:  runSettingsDefaults,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsExtractionCmd)
	settingsCmd.AddCommand(settingsPlannerCmd)
	settingsCmd.AddCommand(settingsSpeechCmd)
	settingsCmd.AddCommand(settingsDefaultsCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	// Extraction settings
	cmd.Println("[Extraction]")
	cmd.Printf("  Model: %s\n", settings.Extraction.Model)
	if settings.Extraction.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Extraction.BaseURL)
	}
	printAPIKey(cmd, settings.Extraction.APIKey)
	printConfigured(cmd, settings.Extraction.IsConfigured())
	cmd.Println()

	// Planner settings
	cmd.Println("[Planner]")
	cmd.Printf("  Provider: %s\n", settings.Planner.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Planner.Model)
	if settings.Planner.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Planner.BaseURL)
	}
	printAPIKey(cmd, settings.Planner.APIKey)
	printConfigured(cmd, settings.Planner.IsConfigured())
	cmd.Println()

	// Speech settings
	cmd.Println("[Speech]")
	cmd.Printf("  Provider: %s\n", settings.Speech.Provider.Description())
	cmd.Printf("  Voice: %s\n", settings.Speech.Voice)
	cmd.Printf("  Language: %s\n", settings.Speech.Language)
	if settings.Speech.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Speech.BaseURL)
	}
	printAPIKey(cmd, settings.Speech.APIKey)
	printConfigured(cmd, settings.Speech.IsConfigured())
	cmd.Println()

	// Conversion defaults
	cmd.Println("[Defaults]")
	if settings.Defaults.TargetSlideCount == domain.AutoSlideCount {
		cmd.Printf("  Slides: automatic\n")
	} else {
		cmd.Printf("  Slides: %d\n", settings.Defaults.TargetSlideCount)
	}
	cmd.Printf("  Figures: %s\n", yesNo(settings.Defaults.FiguresEnabled))
	cmd.Printf("  Theme: %s\n", settings.Defaults.Theme)
	cmd.Printf("  Seconds per slide (silent video): %d\n", settings.Defaults.SlideSeconds)
	if settings.Defaults.OutputDir != "" {
		cmd.Printf("  Output directory: %s\n", settings.Defaults.OutputDir)
	}
	cmd.Println()

	// Validation
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'slidecast settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("Slidecast Settings Wizard")
	cmd.Println("=========================")
	cmd.Println()

	reader := bufio.NewReader(os.Stdin)

	// Step 1: Document extraction
	cmd.Println("Step 1: Document Extraction (OCR)")
	cmd.Println("---------------------------------")
	cmd.Println("Needed to convert PDF documents. Markdown input works without it.")
	cmd.Print("Configure document extraction? [Y/n]: ")
	if readYesNo(reader, true) {
		if err := configureExtraction(cmd, reader); err != nil {
			return err
		}
	} else {
		cmd.Println("Skipped. PDF input will be rejected until configured.")
		cmd.Println()
	}

	// Step 2: Slide planner
	cmd.Println("Step 2: Slide Planner")
	cmd.Println("---------------------")
	cmd.Println("Every conversion plans its deck with an LLM. This step is required.")
	cmd.Println()
	if err := configurePlanner(cmd, reader); err != nil {
		return err
	}

	// Step 3: Narration
	cmd.Println("Step 3: Narration Synthesis")
	cmd.Println("---------------------------")
	cmd.Println("Needed for narrated videos. Slides-only conversions work without it.")
	cmd.Print("Configure a speech provider? [Y/n]: ")
	if readYesNo(reader, true) {
		if err := configureSpeech(cmd, reader); err != nil {
			return err
		}
	} else {
		cmd.Println("Skipped. Pass --slides-only to convert until a speech provider is configured.")
		cmd.Println()
	}

	// Final validation
	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

func runSettingsExtraction(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(os.Stdin)
	return configureExtraction(cmd, reader)
}

func runSettingsPlanner(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(os.Stdin)
	return configurePlanner(cmd, reader)
}

func runSettingsSpeech(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(os.Stdin)
	return configureSpeech(cmd, reader)
}

func runSettingsDefaults(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	defaults := settings.Defaults
	reader := bufio.NewReader(os.Stdin)

	cmd.Println("Conversion Defaults")
	cmd.Println("-------------------")

	cmd.Printf("Target slide count, 0 for automatic [%d]: ", defaults.TargetSlideCount)
	if input := readLine(reader); input != "" {
		val, convErr := strconv.Atoi(input)
		if convErr != nil {
			return fmt.Errorf("invalid slide count %q", input)
		}
		defaults.TargetSlideCount = val
	}

	cmd.Printf("Extract figures? [%s]: ", yesNoPrompt(defaults.FiguresEnabled))
	defaults.FiguresEnabled = readYesNo(reader, defaults.FiguresEnabled)

	cmd.Printf("Deck theme [%s]: ", defaults.Theme)
	if input := readLine(reader); input != "" {
		defaults.Theme = input
	}

	cmd.Printf("Seconds per slide for silent videos [%d]: ", defaults.SlideSeconds)
	if input := readLine(reader); input != "" {
		val, convErr := strconv.Atoi(input)
		if convErr != nil || val < 1 {
			return fmt.Errorf("invalid seconds per slide %q", input)
		}
		defaults.SlideSeconds = val
	}

	cmd.Printf("Output directory [%s]: ", defaults.OutputDir)
	if input := readLine(reader); input != "" {
		defaults.OutputDir = input
	}

	if err := settingsService.SetDefaults(defaults); err != nil {
		return fmt.Errorf("failed to save defaults: %w", err)
	}

	cmd.Println("Defaults saved.")
	return nil
}

func configureExtraction(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Configure Document Extraction")
	defaults := settingsService.GetDefaults()

	cmd.Printf("Enter OCR model name [%s]: ", defaults.Extraction.Model)
	model := readLine(reader)
	if model == "" {
		model = defaults.Extraction.Model
	}

	cmd.Print("Enter API key: ")
	apiKey := readPassword()
	cmd.Println()
	if apiKey == "" {
		return errors.New("API key is required for document extraction")
	}

	if err := settingsService.SetExtraction(model, apiKey); err != nil {
		return fmt.Errorf("failed to configure extraction: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateExtractionConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("extraction configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Document extraction configured: %s\n\n", model)
	return nil
}

//nolint:dupl // Similar to configureSpeech but for the planner - intentional for CLI flow clarity
func configurePlanner(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Planner Provider")
	providers := domain.AllPlannerProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultPlannerModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	cmd.Print("Enter API key: ")
	apiKey := readPassword()
	cmd.Println()
	if apiKey == "" {
		return errors.New("API key is required for this provider")
	}

	if err := settingsService.SetPlanner(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure planner: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidatePlannerConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("planner configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Planner configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

//nolint:dupl // Similar to configurePlanner but for speech - intentional for CLI flow clarity
func configureSpeech(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Speech Provider")
	providers := domain.AllSpeechProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get voice and language
	defaultVoice := domain.DefaultVoices()[selectedProvider]
	cmd.Printf("Enter voice [%s]: ", defaultVoice)
	voice := readLine(reader)
	if voice == "" {
		voice = defaultVoice
	}

	defaultLanguage := domain.DefaultLanguages()[selectedProvider]
	cmd.Printf("Enter language code [%s]: ", defaultLanguage)
	language := readLine(reader)
	if language == "" {
		language = defaultLanguage
	}

	cmd.Print("Enter API key: ")
	apiKey := readPassword()
	cmd.Println()
	if apiKey == "" {
		return errors.New("API key is required for this provider")
	}

	if err := settingsService.SetSpeech(selectedProvider, voice, language, apiKey); err != nil {
		return fmt.Errorf("failed to configure speech: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateSpeechConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("speech configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Speech provider configured: %s, voice %s (%s)\n\n",
		selectedProvider.Description(), voice, language)
	return nil
}

// Helper functions.

func printAPIKey(cmd *cobra.Command, key string) {
	if key != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(key))
	} else {
		cmd.Printf("  API Key: (not set)\n")
	}
}

func printConfigured(cmd *cobra.Command, configured bool) {
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func yesNoPrompt(defaultYes bool) string {
	if defaultYes {
		return "Y/n"
	}
	return "y/N"
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func readYesNo(reader *bufio.Reader, defaultYes bool) bool {
	input := strings.ToLower(readLine(reader))
	if input == "" {
		return defaultYes
	}
	return input == "y" || input == "yes"
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
