package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackzampolin/docgen/internal/config"
	"github.com/jackzampolin/docgen/internal/home"
	"github.com/jackzampolin/docgen/internal/inference"
	"github.com/jackzampolin/docgen/internal/testutil"
)

// managedConfig selects the ollama backend and skips the model pull so the
// test only exercises the container lifecycle.
const managedConfig = `inference:
  provider: ollama
  managed:
    pull_model: false
latex:
  engine: docgen-test-missing-engine
`

// TestServer_ManagedInference starts a server that owns an Ollama container
// and checks the container is stopped on shutdown.
// This test requires Docker to be running.
func TestServer_ManagedInference(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	cfg := testutil.NewManagedServerConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgFile, []byte(managedConfig), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	cm, err := config.NewManager(cfgFile, "")
	if err != nil {
		t.Fatalf("config.NewManager() error = %v", err)
	}
	h, err := home.New(cfg.HomeDir)
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}

	srv, err := New(Config{
		Host:             cfg.Host,
		Port:             cfg.Port,
		ConfigManager:    cm,
		Home:             h,
		Logger:           cfg.Logger,
		ManagedInference: true,
		InferenceConfig: &inference.DockerConfig{
			ContainerName: cfg.Inference.ContainerName,
			HostPort:      cfg.Inference.HostPort,
			ModelsPath:    h.ModelsDir(),
			Labels:        cfg.Inference.Labels,
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	serverErr := make(chan error, 1)
	serverCtx, serverCancel := context.WithCancel(ctx)
	go func() {
		serverErr <- srv.Start(serverCtx)
	}()

	if err := testutil.WaitForServer(cfg.URL(), 4*time.Minute); err != nil {
		serverCancel()
		t.Fatalf("server did not start: %v", err)
	}

	t.Run("status_endpoint", func(t *testing.T) {
		status, err := testutil.GetStatus(cfg.URL())
		if err != nil {
			t.Fatalf("GetStatus() error = %v", err)
		}
		if status.Inference.Container != string(inference.StatusRunning) {
			t.Errorf("Container = %q, want %q", status.Inference.Container, inference.StatusRunning)
		}
		if status.Inference.Active != "ollama" {
			t.Errorf("Active = %q, want ollama", status.Inference.Active)
		}
		if status.Inference.URL != "http://localhost:"+cfg.Inference.HostPort {
			t.Errorf("URL = %q", status.Inference.URL)
		}
	})

	serverCancel()
	if err := testutil.WaitForShutdown(serverErr, 60*time.Second); err != nil {
		t.Logf("server returned error (expected during shutdown): %v", err)
	}

	t.Run("ollama_stopped_after_shutdown", func(t *testing.T) {
		mgr, err := inference.NewDockerManager(inference.DockerConfig{
			ContainerName: cfg.Inference.ContainerName,
		})
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}
		defer mgr.Close()

		status, err := mgr.Status(ctx)
		if err != nil {
			t.Fatalf("failed to get status: %v", err)
		}
		if status == inference.StatusRunning {
			t.Error("Ollama still running after server shutdown")
			_ = mgr.Stop(ctx)
		}
	})
}
