package config

import (
	"net"
	"time"

	"github.com/jackzampolin/docgen/internal/types"
)

// Config holds docgen configuration.
// Stored at: ./config.yaml or ~/.docgen/config.yaml
type Config struct {
	Inference  InferenceCfg  `mapstructure:"inference" yaml:"inference" json:"inference"`
	Generation GenerationCfg `mapstructure:"generation" yaml:"generation" json:"generation"`
	LaTeX      LaTeXCfg      `mapstructure:"latex" yaml:"latex" json:"latex"`
	Jobs       JobsCfg       `mapstructure:"jobs" yaml:"jobs" json:"jobs"`
	Server     ServerCfg     `mapstructure:"server" yaml:"server" json:"server"`
}

// InferenceCfg selects and configures inference backends.
type InferenceCfg struct {
	Provider string                `mapstructure:"provider" yaml:"provider" json:"provider"` // Name of the active backend
	Backends map[string]BackendCfg `mapstructure:"backends" yaml:"backends" json:"backends"`
	Managed  ManagedCfg            `mapstructure:"managed" yaml:"managed" json:"managed"`
}

// BackendCfg configures one inference backend.
type BackendCfg struct {
	Type           string `mapstructure:"type" yaml:"type" json:"type"` // "ollama", "openai", "mock"
	BaseURL        string `mapstructure:"base_url" yaml:"base_url" json:"base_url"`
	Model          string `mapstructure:"model" yaml:"model" json:"model"`
	APIKey         string `mapstructure:"api_key" yaml:"api_key" json:"api_key"` // supports ${ENV_VAR} syntax
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"`
	RateLimit      int    `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"` // Requests per minute, 0 = unlimited
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
}

// ManagedCfg holds the managed Ollama container configuration.
type ManagedCfg struct {
	// Enabled starts the container with the server.
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	// ContainerName is the Docker container name (default: docgen-ollama)
	ContainerName string `mapstructure:"container_name" yaml:"container_name" json:"container_name"`
	// Image is the Docker image to use (default: ollama/ollama:latest)
	Image string `mapstructure:"image" yaml:"image" json:"image"`
	// Port is the host port to bind (default: 11434)
	Port string `mapstructure:"port" yaml:"port" json:"port"`
	// PullModel pulls the ollama backend's model after the container is ready.
	PullModel bool `mapstructure:"pull_model" yaml:"pull_model" json:"pull_model"`
}

// GenerationCfg tunes request limits and model sampling.
type GenerationCfg struct {
	MinChapters      int     `mapstructure:"min_chapters" yaml:"min_chapters" json:"min_chapters"`
	MaxChapters      int     `mapstructure:"max_chapters" yaml:"max_chapters" json:"max_chapters"`
	DefaultChapters  int     `mapstructure:"default_chapters" yaml:"default_chapters" json:"default_chapters"`
	Temperature      float64 `mapstructure:"temperature" yaml:"temperature" json:"temperature"`
	TopP             float64 `mapstructure:"top_p" yaml:"top_p" json:"top_p"`
	ChapterMaxTokens int     `mapstructure:"chapter_max_tokens" yaml:"chapter_max_tokens" json:"chapter_max_tokens"`
	// PromptsDir holds <key>.tmpl prompt overrides. Empty uses ~/.docgen/prompts.
	PromptsDir string `mapstructure:"prompts_dir" yaml:"prompts_dir" json:"prompts_dir"`
}

// LaTeXCfg configures document assembly and PDF compilation.
type LaTeXCfg struct {
	Engine         string `mapstructure:"engine" yaml:"engine" json:"engine"`
	Passes         int    `mapstructure:"passes" yaml:"passes" json:"passes"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"`
	DocumentClass  string `mapstructure:"document_class" yaml:"document_class" json:"document_class"`
	FontSize       string `mapstructure:"font_size" yaml:"font_size" json:"font_size"`
	Author         string `mapstructure:"author" yaml:"author" json:"author"`
	// OutputDir receives <job>/document.tex and document.pdf. Empty uses ~/.docgen/documents.
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
}

// JobsCfg configures job execution.
type JobsCfg struct {
	MaxWorkers     int `mapstructure:"max_workers" yaml:"max_workers" json:"max_workers"` // 0 = one goroutine per job
	ChapterPauseMS int `mapstructure:"chapter_pause_ms" yaml:"chapter_pause_ms" json:"chapter_pause_ms"`
}

// ServerCfg configures the HTTP listener.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host" json:"host"`
	Port string `mapstructure:"port" yaml:"port" json:"port"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Inference: InferenceCfg{
			Provider: "ollama",
			Backends: map[string]BackendCfg{
				"ollama": {
					Type:           "ollama",
					BaseURL:        "http://localhost:11434",
					Model:          "mistral:7b",
					TimeoutSeconds: 60,
					Enabled:        true,
				},
				"openai": {
					Type:           "openai",
					BaseURL:        "https://api.openai.com/v1",
					Model:          "gpt-4o-mini",
					APIKey:         "${OPENAI_API_KEY}",
					TimeoutSeconds: 60,
					RateLimit:      60,
					Enabled:        false,
				},
			},
			Managed: ManagedCfg{
				ContainerName: "docgen-ollama",
				Image:         "ollama/ollama:latest",
				Port:          "11434",
				PullModel:     true,
			},
		},
		Generation: GenerationCfg{
			MinChapters:      3,
			MaxChapters:      12,
			DefaultChapters:  6,
			Temperature:      0.7,
			TopP:             0.9,
			ChapterMaxTokens: 3000,
		},
		LaTeX: LaTeXCfg{
			Engine:         "pdflatex",
			Passes:         2,
			TimeoutSeconds: 120,
			DocumentClass:  "article",
			FontSize:       "11pt",
			Author:         "docgen",
		},
		Jobs: JobsCfg{
			MaxWorkers:     0,
			ChapterPauseMS: 100,
		},
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: "3000",
		},
	}
}

// GetBackend returns a backend config by name.
func (c *Config) GetBackend(name string) (BackendCfg, bool) {
	cfg, ok := c.Inference.Backends[name]
	return cfg, ok
}

// EnabledBackends returns all enabled backends.
func (c *Config) EnabledBackends() map[string]BackendCfg {
	result := make(map[string]BackendCfg)
	for name, cfg := range c.Inference.Backends {
		if cfg.Enabled {
			result[name] = cfg
		}
	}
	return result
}

// Limits returns the chapter bounds for request validation.
func (c *Config) Limits() types.Limits {
	l := types.DefaultLimits()
	if c.Generation.MinChapters > 0 {
		l.MinChapters = c.Generation.MinChapters
	}
	if c.Generation.MaxChapters >= l.MinChapters {
		l.MaxChapters = c.Generation.MaxChapters
	}
	if d := c.Generation.DefaultChapters; d >= l.MinChapters && d <= l.MaxChapters {
		l.DefaultChapters = d
	} else if l.DefaultChapters < l.MinChapters || l.DefaultChapters > l.MaxChapters {
		l.DefaultChapters = l.MinChapters
	}
	return l
}

// ChapterPause converts jobs.chapter_pause_ms. Negative values disable
// the pause, zero keeps the job manager default.
func (c *Config) ChapterPause() time.Duration {
	return time.Duration(c.Jobs.ChapterPauseMS) * time.Millisecond
}

// CompileTimeout converts latex.timeout_seconds.
func (c *Config) CompileTimeout() time.Duration {
	return time.Duration(c.LaTeX.TimeoutSeconds) * time.Second
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

// Redacted returns a copy safe to show to API callers: literal API keys
// are masked, ${ENV_VAR} references are kept.
func (c *Config) Redacted() *Config {
	out := *c
	out.Inference.Backends = make(map[string]BackendCfg, len(c.Inference.Backends))
	for name, b := range c.Inference.Backends {
		if b.APIKey != "" && !envRef.MatchString(b.APIKey) {
			b.APIKey = "********"
		}
		out.Inference.Backends[name] = b
	}
	return &out
}
