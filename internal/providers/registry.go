package providers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Registry holds named inference backends and the name of the active one.
// It supports config-driven instantiation, hot-reload, and provides thread-safe access.
//
// Registry itself implements Generator by delegating to the active backend,
// so consumers holding a *Registry pick up reloads transparently.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
	configs    map[string]BackendConfig
	active     string
	logger     *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]Generator),
		configs:    make(map[string]BackendConfig),
		logger:     slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register registers a backend by name. The first registered backend
// becomes active if none is set.
func (r *Registry) Register(name string, g Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[name] = g
	if r.active == "" {
		r.active = name
	}
	if r.logger != nil {
		r.logger.Info("registered inference backend", "name", name, "type", g.Name())
	}
}

// SetActive selects the backend used by Generate and Ping.
func (r *Registry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.generators[name]; !ok {
		return fmt.Errorf("inference backend not found: %s", name)
	}
	r.active = name
	return nil
}

// Get returns a backend by name.
func (r *Registry) Get(name string) (Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.generators[name]
	if !ok {
		return nil, fmt.Errorf("inference backend not found: %s", name)
	}
	return g, nil
}

// Active returns the active backend and its registered name.
func (r *Registry) Active() (string, Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.generators[r.active]
	if !ok {
		return "", nil, fmt.Errorf("no active inference backend")
	}
	return r.active, g, nil
}

// List returns all registered backend names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Name reports the type of the active backend.
func (r *Registry) Name() string {
	_, g, err := r.Active()
	if err != nil {
		return "none"
	}
	return g.Name()
}

// Generate delegates to the active backend.
func (r *Registry) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	_, g, err := r.Active()
	if err != nil {
		result := &GenerateResult{RequestID: req.RequestID}
		return result.failed(time.Now(), ErrorTypeConnection, err)
	}
	return g.Generate(ctx, req)
}

// Ping delegates to the active backend.
func (r *Registry) Ping(ctx context.Context) error {
	_, g, err := r.Active()
	if err != nil {
		return err
	}
	return g.Ping(ctx)
}

// RegistryConfig defines the backends to instantiate from config.
type RegistryConfig struct {
	Backends map[string]BackendConfig
	Active   string
}

// BackendConfig matches config.BackendCfg with resolved API key.
type BackendConfig struct {
	Type    string // "ollama", "openai", "mock"
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
	// RateLimit caps Generate calls per minute; 0 disables throttling.
	RateLimit int
	Enabled   bool
}

// NewRegistryFromConfig creates a registry with backends based on configuration.
func NewRegistryFromConfig(cfg RegistryConfig) *Registry {
	r := NewRegistry()
	r.Reload(cfg)
	return r
}

// Reload updates the registry based on new configuration.
// Backends that are no longer configured are unregistered and backends
// with changed settings are recreated.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := make(map[string]bool)
	for name, bc := range cfg.Backends {
		if !bc.Enabled {
			continue
		}
		want[name] = true

		prev, hasExisting := r.configs[name]
		if hasExisting && prev == bc {
			continue
		}
		g := createGenerator(bc)
		if g == nil {
			if r.logger != nil {
				r.logger.Warn("unknown inference backend type", "name", name, "type", bc.Type)
			}
			delete(want, name)
			continue
		}
		r.generators[name] = g
		r.configs[name] = bc
		if r.logger != nil {
			if hasExisting {
				r.logger.Info("updated inference backend", "name", name, "type", bc.Type)
			} else {
				r.logger.Info("registered inference backend", "name", name, "type", bc.Type)
			}
		}
	}

	for name := range r.generators {
		if !want[name] {
			delete(r.generators, name)
			delete(r.configs, name)
			if r.logger != nil {
				r.logger.Info("unregistered inference backend", "name", name)
			}
		}
	}

	if _, ok := r.generators[cfg.Active]; ok {
		r.active = cfg.Active
	} else if _, ok := r.generators[r.active]; !ok {
		r.active = ""
		if r.logger != nil && cfg.Active != "" {
			r.logger.Warn("configured inference backend is not available", "name", cfg.Active)
		}
	}
}

// createGenerator creates a backend based on its type.
func createGenerator(cfg BackendConfig) Generator {
	g := newBackend(cfg)
	if g == nil || cfg.RateLimit <= 0 {
		return g
	}
	return Throttle(g, cfg.RateLimit)
}

func newBackend(cfg BackendConfig) Generator {
	switch cfg.Type {
	case OllamaName:
		return NewOllamaClient(OllamaConfig{
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
			Timeout:      cfg.Timeout,
		})
	case OpenAIName:
		return NewOpenAIClient(OpenAIConfig{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
			Timeout:      cfg.Timeout,
		})
	case MockClientName:
		return NewMockClient()
	default:
		return nil
	}
}

var _ Generator = (*Registry)(nil)

// Model returns the default model of the active backend, if it reports one.
func (r *Registry) Model() string {
	_, g, err := r.Active()
	if err != nil {
		return ""
	}
	if m, ok := g.(interface{ Model() string }); ok {
		return m.Model()
	}
	return ""
}
