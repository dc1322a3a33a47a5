// Package prompts provides prompt management with embedded defaults and
// on-disk overrides.
//
// Embedded .tmpl files in the outline and chapter packages are the source of
// truth. An operator can replace any of them by dropping a file named
// <key>.tmpl into the overrides directory (by default ~/.docgen/prompts).
//
// Resolution order:
//  1. Override file (if present and readable)
//  2. Embedded default
package prompts

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   `json:"key"`
	Text        string   `json:"text"`
	Description string   `json:"description,omitempty"`
	Variables   []string `json:"variables,omitempty"`
	Hash        string   `json:"hash"`
}

// ResolvedPrompt is the result of resolving a prompt key.
type ResolvedPrompt struct {
	Key        string   `json:"key"`
	Text       string   `json:"text"`
	Variables  []string `json:"variables,omitempty"`
	Hash       string   `json:"hash"`
	IsOverride bool     `json:"is_override"`
	Source     string   `json:"source"` // "embedded" or the override file path
}

// SourceEmbedded marks a prompt resolved from the compiled-in default.
const SourceEmbedded = "embedded"
