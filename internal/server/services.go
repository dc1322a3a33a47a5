package server

import (
	"log/slog"

	"github.com/jackzampolin/docgen/internal/config"
	"github.com/jackzampolin/docgen/internal/generation"
	"github.com/jackzampolin/docgen/internal/home"
	"github.com/jackzampolin/docgen/internal/jobs"
	"github.com/jackzampolin/docgen/internal/latex"
	"github.com/jackzampolin/docgen/internal/prompts"
	"github.com/jackzampolin/docgen/internal/prompts/chapter"
	"github.com/jackzampolin/docgen/internal/prompts/outline"
	"github.com/jackzampolin/docgen/internal/providers"
	"github.com/jackzampolin/docgen/internal/svcctx"
)

// ServicesConfig describes how to wire the generation pipeline.
type ServicesConfig struct {
	// Config is the configuration snapshot used for construction.
	// Nil uses the config manager's current value, or the defaults.
	Config        *config.Config
	ConfigManager *config.Manager
	Home          *home.Dir
	Logger        *slog.Logger

	// OllamaURL replaces the ollama backend's base_url, e.g. with a
	// managed container's address.
	OllamaURL string

	// Dispatcher overrides the dispatcher chosen from jobs.max_workers.
	Dispatcher jobs.Dispatcher
}

// BuildServices wires the backend registry, prompt resolver, generation
// client, LaTeX assembler and compiler, and the job manager.
func BuildServices(cfg ServicesConfig) *svcctx.Services {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	conf := cfg.Config
	if conf == nil && cfg.ConfigManager != nil {
		conf = cfg.ConfigManager.Get()
	}
	if conf == nil {
		conf = config.DefaultConfig()
	}

	registry := providers.NewRegistry()
	registry.SetLogger(logger)
	registry.Reload(registryConfig(conf, cfg.OllamaURL))

	resolver := prompts.NewResolver(promptsDir(conf, cfg.Home), logger)
	outline.RegisterPrompts(resolver)
	chapter.RegisterPrompts(resolver)

	genClient := generation.NewClient(generation.Config{
		Backend:          registry,
		Prompts:          resolver,
		Logger:           logger,
		Temperature:      conf.Generation.Temperature,
		TopP:             conf.Generation.TopP,
		ChapterMaxTokens: conf.Generation.ChapterMaxTokens,
	})

	assembler := latex.NewAssembler()
	if conf.LaTeX.DocumentClass != "" {
		assembler.DocumentClass = conf.LaTeX.DocumentClass
	}
	if conf.LaTeX.FontSize != "" {
		assembler.FontSize = conf.LaTeX.FontSize
	}
	if conf.LaTeX.Author != "" {
		assembler.Author = conf.LaTeX.Author
	}

	compiler := latex.NewCompiler(latex.CompilerConfig{
		Engine:    conf.LaTeX.Engine,
		Passes:    conf.LaTeX.Passes,
		Timeout:   conf.CompileTimeout(),
		OutputDir: outputDir(conf, cfg.Home),
		Logger:    logger,
	})

	dispatcher := cfg.Dispatcher
	if dispatcher == nil && conf.Jobs.MaxWorkers > 0 {
		dispatcher = jobs.NewWorkerPool(jobs.WorkerPoolConfig{
			Name:        "pipeline",
			Logger:      logger,
			WorkerCount: conf.Jobs.MaxWorkers,
		})
	}

	jobManager := jobs.NewManager(jobs.ManagerConfig{
		Generator:    genClient,
		Assembler:    assembler,
		Compiler:     compiler,
		Dispatcher:   dispatcher,
		Logger:       logger,
		ChapterPause: conf.ChapterPause(),
	})

	if cfg.ConfigManager != nil {
		ollamaURL := cfg.OllamaURL
		cfg.ConfigManager.OnChange(func(c *config.Config) {
			registry.Reload(registryConfig(c, ollamaURL))
			resolver.SetOverrideDir(promptsDir(c, cfg.Home))
			logger.Info("inference backends and prompt overrides reloaded from config")
		})
	}

	return &svcctx.Services{
		JobManager:     jobManager,
		Registry:       registry,
		PromptResolver: resolver,
		Compiler:       compiler,
		ConfigManager:  cfg.ConfigManager,
		Logger:         logger,
		Home:           cfg.Home,
	}
}

// registryConfig converts conf, pointing the ollama backend at ollamaURL when set.
func registryConfig(conf *config.Config, ollamaURL string) providers.RegistryConfig {
	rc := conf.ToProviderRegistryConfig()
	if ollamaURL == "" {
		return rc
	}
	if b, ok := rc.Backends[providers.OllamaName]; ok {
		b.BaseURL = ollamaURL
		b.Enabled = true
		rc.Backends[providers.OllamaName] = b
	}
	return rc
}

func promptsDir(conf *config.Config, h *home.Dir) string {
	if conf.Generation.PromptsDir != "" {
		return conf.Generation.PromptsDir
	}
	if h != nil {
		return h.PromptsDir()
	}
	return ""
}

func outputDir(conf *config.Config, h *home.Dir) string {
	if conf.LaTeX.OutputDir != "" {
		return conf.LaTeX.OutputDir
	}
	if h != nil {
		return h.DocumentsDir()
	}
	return ""
}
