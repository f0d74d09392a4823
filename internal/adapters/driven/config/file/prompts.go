package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/slidecast/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor. This makes testing easier and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content
// for new files. The templates must keep the same placeholder order as
// their driven.Prompt* contracts: editing the text is safe, dropping a
// %s is not.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptPlanDeck: `You are a graduate student in a lab meeting, explaining a paper you found interesting to your peers. Keep the tone conversational and insightful. Refer to the paper's authors as 'the authors' or 'the paper', never 'we'.

Respond with a single JSON object of this exact shape:
{"slides": [{"slide_number": 1, "title": "...", "bullets": ["...", "..."], "narration": "...", "figure_id": ""}]}

Rules for each slide:
- "title": a concise heading.
- "bullets": the on-screen text. Keep it minimal: at most 2 short bullets when the slide shows a figure, otherwise 3-4 bullets.
- "narration": the full spoken script for the slide, suitable for text-to-speech. Maximize information transfer here, not in the bullets.
- "figure_id": the ID of one available figure this slide should show, or "" for none.

%s

%s--- DOCUMENT ---
%s
--- END OF DOCUMENT ---

The output MUST be a single valid JSON object with no text outside it. Escape newlines inside strings as \n.`,

	driven.PromptRepairPlan: `Your slide plan was rejected for this reason:
%s

This is the rejected response:
%s

Produce a corrected plan that fixes the problem. Respond with only the JSON object, in the same shape as before, and nothing else.`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.slidecast/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".slidecast", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	// Ensure directory and defaults exist (lazy init)
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err != nil {
		// Fall back to embedded default
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Cache the result (write lock)
	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		// Another goroutine loaded it first, use their value
		prompt = s.cache[name]
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	// Create directory
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	// Create README
	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# Slidecast Prompts

This directory contains customisable prompts used when planning slide decks.

## Files

- ` + "`plan_deck.txt`" + ` - Turns extracted document text into a slide plan
- ` + "`repair_plan.txt`" + ` - Asks the model to fix a rejected plan

## Customisation

Edit any file to change how decks are planned. Changes take effect on the
next conversion.

## Format Placeholders

The prompts use Go fmt placeholders, filled in this order:

- ` + "`plan_deck.txt`" + `: slide count instruction, available figure list,
  document text (three ` + "`%s`" + `)
- ` + "`repair_plan.txt`" + `: validation failure, rejected response
  (two ` + "`%s`" + `)

Customised prompts must keep all placeholders in the same order.
`
	return os.WriteFile(path, []byte(content), 0600)
}
