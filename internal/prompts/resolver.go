package prompts

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Resolver resolves prompts with file overrides.
// Resolution order: <overrideDir>/<key>.tmpl > Embedded default
type Resolver struct {
	overrideDir string
	embedded    map[string]EmbeddedPrompt
	mu          sync.RWMutex
	logger      *slog.Logger
}

// NewResolver creates a new prompt resolver. An empty overrideDir disables
// overrides.
func NewResolver(overrideDir string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		overrideDir: overrideDir,
		embedded:    make(map[string]EmbeddedPrompt),
		logger:      logger,
	}
}

// Register registers an embedded prompt.
// This should be called during initialization by each prompt package.
func (r *Resolver) Register(prompt EmbeddedPrompt) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prompt.Hash == "" {
		prompt.Hash = HashText(prompt.Text)
	}
	if prompt.Variables == nil {
		prompt.Variables = ExtractVariables(prompt.Text)
	}

	r.embedded[prompt.Key] = prompt
	r.logger.Debug("registered embedded prompt", "key", prompt.Key, "vars", prompt.Variables)
}

// SetOverrideDir changes the overrides directory (used on config reload).
func (r *Resolver) SetOverrideDir(dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrideDir = dir
}

// OverridePath returns the file an override for key would be read from,
// or "" when overrides are disabled.
func (r *Resolver) OverridePath(key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.overrideDir == "" {
		return ""
	}
	return filepath.Join(r.overrideDir, key+".tmpl")
}

// Resolve returns the override for key if one exists, otherwise the
// embedded default.
func (r *Resolver) Resolve(key string) (*ResolvedPrompt, error) {
	if path := r.OverridePath(key); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			text := string(data)
			return &ResolvedPrompt{
				Key:        key,
				Text:       text,
				Variables:  ExtractVariables(text),
				Hash:       HashText(text),
				IsOverride: true,
				Source:     path,
			}, nil
		case !errors.Is(err, fs.ErrNotExist):
			r.logger.Warn("failed to read prompt override", "key", key, "path", path, "error", err)
		}
	}

	r.mu.RLock()
	embedded, ok := r.embedded[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", key)
	}

	return &ResolvedPrompt{
		Key:       key,
		Text:      embedded.Text,
		Variables: embedded.Variables,
		Hash:      embedded.Hash,
		Source:    SourceEmbedded,
	}, nil
}

// GetEmbedded returns the embedded default for a key.
func (r *Resolver) GetEmbedded(key string) (*EmbeddedPrompt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.embedded[key]
	return &p, ok
}

// AllEmbedded returns all registered embedded prompts sorted by key.
func (r *Resolver) AllEmbedded() []EmbeddedPrompt {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]EmbeddedPrompt, 0, len(r.embedded))
	for _, p := range r.embedded {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}

// ResolveAll resolves every registered key, sorted by key.
func (r *Resolver) ResolveAll() []ResolvedPrompt {
	var out []ResolvedPrompt
	for _, p := range r.AllEmbedded() {
		resolved, err := r.Resolve(p.Key)
		if err != nil {
			continue
		}
		out = append(out, *resolved)
	}
	return out
}

// RenderKey resolves key and renders it with data. When an override fails to
// render, the embedded default is used instead so a broken override file
// never blocks generation.
func (r *Resolver) RenderKey(key string, data any) (string, *ResolvedPrompt, error) {
	resolved, err := r.Resolve(key)
	if err != nil {
		return "", nil, err
	}
	out, err := Render(key, resolved.Text, data)
	if err == nil {
		return out, resolved, nil
	}
	if !resolved.IsOverride {
		return "", resolved, err
	}

	r.logger.Warn("prompt override failed to render, using embedded default",
		"key", key, "path", resolved.Source, "error", err)
	r.mu.RLock()
	embedded := r.embedded[key]
	r.mu.RUnlock()
	out, err = Render(key, embedded.Text, data)
	return out, &ResolvedPrompt{
		Key:       key,
		Text:      embedded.Text,
		Variables: embedded.Variables,
		Hash:      embedded.Hash,
		Source:    SourceEmbedded,
	}, err
}
