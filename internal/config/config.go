package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/jackzampolin/docgen/internal/providers"
)

// EnvPrefix prefixes every environment override, e.g. DOCGEN_JOBS_MAX_WORKERS.
const EnvPrefix = "DOCGEN"

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v      *viper.Viper
	logger *slog.Logger

	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
// An empty cfgFile searches ./config.yaml then homeDir/config.yaml.
func NewManager(cfgFile, homeDir string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		logger:    slog.Default(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile, homeDir); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// SetLogger sets the logger used for reload messages.
func (cm *Manager) SetLogger(logger *slog.Logger) {
	if logger != nil {
		cm.logger = logger
	}
}

// initViper sets up viper with defaults, environment and config file.
func (cm *Manager) initViper(cfgFile, homeDir string) error {
	v := cm.v
	setDefaults(v, DefaultConfig())

	// Environment variables with DOCGEN_ prefix; nested keys use underscores.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// OLLAMA_BASE_URL and OLLAMA_MODEL are accepted as aliases.
	if err := v.BindEnv("inference.backends.ollama.base_url", EnvPrefix+"_INFERENCE_BACKENDS_OLLAMA_BASE_URL", "OLLAMA_BASE_URL"); err != nil {
		return fmt.Errorf("failed to bind env: %w", err)
	}
	if err := v.BindEnv("inference.backends.ollama.model", EnvPrefix+"_INFERENCE_BACKENDS_OLLAMA_MODEL", "OLLAMA_MODEL"); err != nil {
		return fmt.Errorf("failed to bind env: %w", err)
	}

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if homeDir != "" {
			v.AddConfigPath(homeDir)
		} else {
			v.AddConfigPath("$HOME/.docgen")
		}
	}

	// Try to read config file (not required)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// setDefaults registers every leaf of the default config so that
// environment overrides work for all keys.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("inference.provider", d.Inference.Provider)
	for name, b := range d.Inference.Backends {
		prefix := "inference.backends." + name + "."
		v.SetDefault(prefix+"type", b.Type)
		v.SetDefault(prefix+"base_url", b.BaseURL)
		v.SetDefault(prefix+"model", b.Model)
		v.SetDefault(prefix+"api_key", b.APIKey)
		v.SetDefault(prefix+"timeout_seconds", b.TimeoutSeconds)
		v.SetDefault(prefix+"rate_limit", b.RateLimit)
		v.SetDefault(prefix+"enabled", b.Enabled)
	}
	v.SetDefault("inference.managed.enabled", d.Inference.Managed.Enabled)
	v.SetDefault("inference.managed.container_name", d.Inference.Managed.ContainerName)
	v.SetDefault("inference.managed.image", d.Inference.Managed.Image)
	v.SetDefault("inference.managed.port", d.Inference.Managed.Port)
	v.SetDefault("inference.managed.pull_model", d.Inference.Managed.PullModel)

	v.SetDefault("generation.min_chapters", d.Generation.MinChapters)
	v.SetDefault("generation.max_chapters", d.Generation.MaxChapters)
	v.SetDefault("generation.default_chapters", d.Generation.DefaultChapters)
	v.SetDefault("generation.temperature", d.Generation.Temperature)
	v.SetDefault("generation.top_p", d.Generation.TopP)
	v.SetDefault("generation.chapter_max_tokens", d.Generation.ChapterMaxTokens)
	v.SetDefault("generation.prompts_dir", d.Generation.PromptsDir)

	v.SetDefault("latex.engine", d.LaTeX.Engine)
	v.SetDefault("latex.passes", d.LaTeX.Passes)
	v.SetDefault("latex.timeout_seconds", d.LaTeX.TimeoutSeconds)
	v.SetDefault("latex.document_class", d.LaTeX.DocumentClass)
	v.SetDefault("latex.font_size", d.LaTeX.FontSize)
	v.SetDefault("latex.author", d.LaTeX.Author)
	v.SetDefault("latex.output_dir", d.LaTeX.OutputDir)

	v.SetDefault("jobs.max_workers", d.Jobs.MaxWorkers)
	v.SetDefault("jobs.chapter_pause_ms", d.Jobs.ChapterPauseMS)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFile returns the file the configuration was read from, if any.
func (cm *Manager) ConfigFile() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			cm.logger.Warn("ignoring invalid config change", "file", e.Name, "error", err)
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		cm.logger.Info("config reloaded", "file", e.Name)
		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

var (
	envVar = regexp.MustCompile(`\$\{([^}]+)\}`)
	envRef = regexp.MustCompile(`^\$\{[^}]+\}$`)
)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envVar.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// ToProviderRegistryConfig converts the config to a format suitable for providers.Registry.
// It resolves all ${ENV_VAR} references in API keys.
func (c *Config) ToProviderRegistryConfig() providers.RegistryConfig {
	cfg := providers.RegistryConfig{
		Backends: make(map[string]providers.BackendConfig),
		Active:   c.Inference.Provider,
	}

	for name, b := range c.Inference.Backends {
		cfg.Backends[name] = providers.BackendConfig{
			Type:      b.Type,
			BaseURL:   b.BaseURL,
			Model:     b.Model,
			APIKey:    ResolveEnvVars(b.APIKey),
			Timeout:   time.Duration(b.TimeoutSeconds) * time.Second,
			RateLimit: b.RateLimit,
			Enabled:   b.Enabled,
		}
	}

	return cfg
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# docgen configuration
# API keys use ${ENV_VAR} syntax to reference environment variables
# Every key can be overridden with DOCGEN_<SECTION>_<KEY>, e.g. DOCGEN_JOBS_MAX_WORKERS=2
# OLLAMA_BASE_URL and OLLAMA_MODEL override the ollama backend

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
