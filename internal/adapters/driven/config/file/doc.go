// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem under ~/.slidecast.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage (provider credentials
//     and conversion defaults)
//   - PromptStore: user-editable prompt templates with embedded fallbacks
package file
