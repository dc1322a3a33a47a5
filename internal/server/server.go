package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	_ "github.com/jackzampolin/docgen/docs/swagger"
	"github.com/jackzampolin/docgen/internal/api"
	"github.com/jackzampolin/docgen/internal/config"
	"github.com/jackzampolin/docgen/internal/home"
	"github.com/jackzampolin/docgen/internal/inference"
	"github.com/jackzampolin/docgen/internal/jobs"
	"github.com/jackzampolin/docgen/internal/providers"
	"github.com/jackzampolin/docgen/internal/server/endpoints"
	"github.com/jackzampolin/docgen/internal/svcctx"
)

// inferenceReadyTimeout bounds how long Start waits for a managed Ollama.
const inferenceReadyTimeout = 2 * time.Minute

// Server is the main docgen HTTP server.
// When inference is managed it starts the Ollama container on server
// start and stops it on shutdown.
type Server struct {
	httpServer       *http.Server
	inferenceManager *inference.DockerManager
	configMgr        *config.Manager
	home             *home.Dir
	logger           *slog.Logger
	pullModel        string

	mu sync.RWMutex
	// services holds all core services for context enrichment; nil until Start
	services *svcctx.Services
	running  bool

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: from config, else 127.0.0.1)
	Host string
	// Port is the port to listen on (default: from config, else 3000)
	Port string
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Home is the docgen home directory
	Home *home.Dir
	// Logger is the structured logger to use
	Logger *slog.Logger

	// ManagedInference runs Ollama in a Docker container for the server's
	// lifetime, regardless of inference.managed.enabled.
	ManagedInference bool
	// InferenceConfig overrides container settings (tests use unique names and ports).
	InferenceConfig *inference.DockerConfig
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	conf := config.DefaultConfig()
	if cfg.ConfigManager != nil {
		conf = cfg.ConfigManager.Get()
	}
	if cfg.Host == "" {
		cfg.Host = conf.Server.Host
	}
	if cfg.Port == "" {
		cfg.Port = conf.Server.Port
	}

	s := &Server{
		configMgr: cfg.ConfigManager,
		home:      cfg.Home,
		logger:    cfg.Logger,
	}

	if cfg.ManagedInference || conf.Inference.Managed.Enabled {
		dc := inference.DockerConfig{
			ContainerName: conf.Inference.Managed.ContainerName,
			Image:         conf.Inference.Managed.Image,
			HostPort:      conf.Inference.Managed.Port,
			Logger:        cfg.Logger,
		}
		if cfg.Home != nil {
			dc.ModelsPath = cfg.Home.ModelsDir()
		}
		if cfg.InferenceConfig != nil {
			dc = *cfg.InferenceConfig
			if dc.Logger == nil {
				dc.Logger = cfg.Logger
			}
		}
		mgr, err := inference.NewDockerManager(dc)
		if err != nil {
			return nil, fmt.Errorf("failed to create inference manager: %w", err)
		}
		s.inferenceManager = mgr
		if conf.Inference.Managed.PullModel {
			if b, ok := conf.GetBackend(providers.OllamaName); ok {
				s.pullModel = b.Model
			}
		}
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{InferenceManager: s.inferenceManager}) {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the server and, when managed, the Ollama container.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if s.home != nil {
		if err := s.home.EnsureExists(); err != nil {
			s.setNotRunning()
			return fmt.Errorf("failed to create home directory: %w", err)
		}
		if s.inferenceManager != nil {
			if err := s.home.EnsureModelsDir(); err != nil {
				s.setNotRunning()
				return fmt.Errorf("failed to create models directory: %w", err)
			}
		}
	}

	var ollamaURL string
	if s.inferenceManager != nil {
		if err := s.startInference(ctx); err != nil {
			s.stopInference()
			s.setNotRunning()
			return err
		}
		ollamaURL = s.inferenceManager.URL()
	}

	services := BuildServices(ServicesConfig{
		ConfigManager: s.configMgr,
		Home:          s.home,
		Logger:        s.logger,
		OllamaURL:     ollamaURL,
	})
	s.mu.Lock()
	s.services = services
	s.mu.Unlock()

	if name, _, err := services.Registry.Active(); err != nil {
		s.logger.Warn("no active inference backend, jobs will fail until one is configured", "error", err)
	} else {
		s.logger.Info("inference backend selected", "backend", name, "model", services.Registry.Model())
	}
	if err := services.Compiler.Available(); err != nil {
		s.logger.Warn("LaTeX engine not found, documents will be returned without PDFs", "engine", services.Compiler.Engine(), "error", err)
	}

	// Start HTTP server in goroutine
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		_ = s.shutdown()
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// startInference brings up the managed Ollama container and pulls the model.
func (s *Server) startInference(ctx context.Context) error {
	if err := s.inferenceManager.ValidateExisting(ctx); err != nil {
		return fmt.Errorf("existing Ollama container incompatible: %w", err)
	}

	s.logger.Info("starting Ollama")
	if err := s.inferenceManager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start Ollama: %w", err)
	}
	if err := s.inferenceManager.WaitReady(ctx, inferenceReadyTimeout); err != nil {
		return fmt.Errorf("Ollama health check failed: %w", err)
	}
	s.logger.Info("Ollama is ready", "url", s.inferenceManager.URL())

	if s.pullModel != "" {
		if err := s.inferenceManager.PullModel(ctx, s.pullModel); err != nil {
			return err
		}
	}
	return nil
}

// shutdown performs graceful shutdown of the HTTP server, running jobs
// and the managed container.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if jm := s.JobManager(); jm != nil {
		s.logger.Info("stopping job pipelines")
		jm.Close()
	}

	s.stopInference()

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) stopInference() {
	if s.inferenceManager == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("stopping Ollama")
	if err := s.inferenceManager.Stop(ctx); err != nil {
		s.logger.Error("Ollama stop error", "error", err)
	}
	if err := s.inferenceManager.Close(); err != nil {
		s.logger.Error("inference manager close error", "error", err)
	}
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Services returns the wired services, or nil before Start.
func (s *Server) Services() *svcctx.Services {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.services
}

// JobManager returns the job manager.
// Returns nil if the server hasn't started yet.
func (s *Server) JobManager() *jobs.Manager {
	if svc := s.Services(); svc != nil {
		return svc.JobManager
	}
	return nil
}

// Registry returns the inference backend registry, or nil before Start.
func (s *Server) Registry() *providers.Registry {
	if svc := s.Services(); svc != nil {
		return svc.Registry
	}
	return nil
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc := s.Services(); svc != nil {
			ctx = svcctx.WithServices(ctx, svc)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable until the job manager is ready.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.JobManager() == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
