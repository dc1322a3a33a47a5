// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/docgen/internal/config"
	"github.com/jackzampolin/docgen/internal/home"
	"github.com/jackzampolin/docgen/internal/jobs"
	"github.com/jackzampolin/docgen/internal/latex"
	"github.com/jackzampolin/docgen/internal/prompts"
	"github.com/jackzampolin/docgen/internal/providers"
	"github.com/jackzampolin/docgen/internal/types"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	JobManager     *jobs.Manager
	Registry       *providers.Registry
	PromptResolver *prompts.Resolver
	Compiler       *latex.Compiler
	ConfigManager  *config.Manager
	Logger         *slog.Logger
	Home           *home.Dir
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// JobManagerFrom extracts the job manager from context.
func JobManagerFrom(ctx context.Context) *jobs.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.JobManager
	}
	return nil
}

// RegistryFrom extracts the inference backend registry from context.
func RegistryFrom(ctx context.Context) *providers.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// PromptResolverFrom extracts the prompt resolver from context.
func PromptResolverFrom(ctx context.Context) *prompts.Resolver {
	if s := ServicesFrom(ctx); s != nil {
		return s.PromptResolver
	}
	return nil
}

// CompilerFrom extracts the LaTeX compiler from context.
func CompilerFrom(ctx context.Context) *latex.Compiler {
	if s := ServicesFrom(ctx); s != nil {
		return s.Compiler
	}
	return nil
}

// ConfigManagerFrom extracts the config manager from context.
func ConfigManagerFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.ConfigManager
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// LimitsFrom returns the current chapter limits, following config reloads.
// Without a config manager the stock limits apply.
func LimitsFrom(ctx context.Context) types.Limits {
	if cm := ConfigManagerFrom(ctx); cm != nil {
		return cm.Get().Limits()
	}
	return types.DefaultLimits()
}
