package endpoints

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/docgen/internal/api"
	"github.com/jackzampolin/docgen/internal/inference"
	"github.com/jackzampolin/docgen/internal/jobs"
	"github.com/jackzampolin/docgen/internal/svcctx"
)

// probeTimeout bounds backend probes made while serving health requests.
const probeTimeout = 5 * time.Second

// HealthResponse is the response for health check endpoints.
type HealthResponse struct {
	Status    string `json:"status"`
	Inference string `json:"inference,omitempty"`
}

// HealthEndpoint handles GET /health.
type HealthEndpoint struct{}

func (e *HealthEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/health", e.handler
}

func (e *HealthEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Liveness check
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get]
func (e *HealthEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (e *HealthEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/health", &resp); err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", resp.Status)
			return nil
		},
	}
}

// ReadyEndpoint handles GET /ready.
type ReadyEndpoint struct{}

func (e *ReadyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/ready", e.handler
}

func (e *ReadyEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Readiness check
//	@Description	Probes the active inference backend
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Failure		503	{object}	HealthResponse
//	@Router			/ready [get]
func (e *ReadyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Inference: "ok"}

	registry := svcctx.RegistryFrom(r.Context())
	if registry == nil {
		resp.Status = "degraded"
		resp.Inference = "not_initialized"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()
	if err := registry.Ping(ctx); err != nil {
		resp.Status = "degraded"
		resp.Inference = "unreachable"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *ReadyEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Check server readiness (includes the inference backend)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp HealthResponse
			if err := client.Get(cmd.Context(), "/ready", &resp); err != nil {
				return err
			}
			fmt.Printf("Status:    %s\n", resp.Status)
			if resp.Inference != "" {
				fmt.Printf("Inference: %s\n", resp.Inference)
			}
			return nil
		},
	}
}

// StatusResponse is the detailed status response.
type StatusResponse struct {
	Server    string          `json:"server"`
	Inference InferenceStatus `json:"inference"`
	LaTeX     LaTeXStatus     `json:"latex"`
	Jobs      JobsStatus      `json:"jobs"`
}

// InferenceStatus shows the active backend and managed container.
type InferenceStatus struct {
	Active    string   `json:"active"`
	Type      string   `json:"type"`
	Model     string   `json:"model,omitempty"`
	Backends  []string `json:"backends"`
	Health    string   `json:"health"`
	Container string   `json:"container"`
	URL       string   `json:"url,omitempty"`
}

// LaTeXStatus shows whether PDFs can be produced.
type LaTeXStatus struct {
	Engine    string `json:"engine"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// JobsStatus shows job counts and dispatcher load.
type JobsStatus struct {
	jobs.Stats
	Dispatcher jobs.PoolStatus `json:"dispatcher"`
}

// StatusEndpoint handles GET /status.
type StatusEndpoint struct {
	// InferenceManager is set by the server when it manages an Ollama container.
	InferenceManager *inference.DockerManager
}

func (e *StatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/status", e.handler
}

func (e *StatusEndpoint) RequiresInit() bool { return false }

// handler godoc
//
//	@Summary		Server status
//	@Description	Inference backend, LaTeX engine and job counts
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	StatusResponse
//	@Router			/status [get]
func (e *StatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Server: "running"}

	if registry := svcctx.RegistryFrom(r.Context()); registry != nil {
		resp.Inference.Backends = registry.List()
		resp.Inference.Type = registry.Name()
		resp.Inference.Model = registry.Model()
		if name, _, err := registry.Active(); err == nil {
			resp.Inference.Active = name
		}

		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		if err := registry.Ping(ctx); err != nil {
			resp.Inference.Health = "unreachable"
		} else {
			resp.Inference.Health = "healthy"
		}
		cancel()
	} else {
		resp.Inference.Health = "not_initialized"
	}

	if e.InferenceManager != nil {
		status, err := e.InferenceManager.Status(r.Context())
		if err != nil {
			resp.Inference.Container = "error"
		} else {
			resp.Inference.Container = string(status)
		}
		resp.Inference.URL = e.InferenceManager.URL()
	} else {
		resp.Inference.Container = "unmanaged"
	}

	if compiler := svcctx.CompilerFrom(r.Context()); compiler != nil {
		resp.LaTeX.Engine = compiler.Engine()
		if err := compiler.Available(); err != nil {
			resp.LaTeX.Error = err.Error()
		} else {
			resp.LaTeX.Available = true
		}
	}

	if jm := svcctx.JobManagerFrom(r.Context()); jm != nil {
		resp.Jobs.Stats = jm.Stats()
		resp.Jobs.Dispatcher = jm.DispatcherStatus()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (e *StatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get detailed server status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp StatusResponse
			if err := client.Get(cmd.Context(), "/status", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeErrorMessage writes a JSON error response with a detail message.
func writeErrorMessage(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Message: detail})
}
