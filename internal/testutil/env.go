package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// MockBackendConfig is a config file that routes generation to the mock
// backend and points the LaTeX engine at a binary that does not exist, so
// jobs complete quickly without network access or a TeX installation.
const MockBackendConfig = `inference:
  provider: mock
  backends:
    ollama:
      enabled: false
    mock:
      type: mock
      enabled: true
jobs:
  chapter_pause_ms: -1
latex:
  engine: docgen-test-missing-engine
`

// InferenceTestConfig holds Ollama container configuration without importing
// the inference package. This breaks the import cycle between testutil and inference.
type InferenceTestConfig struct {
	ContainerName string
	HostPort      string
	Labels        map[string]string
}

// ServerConfig returns configuration values for creating a test server.
// This avoids importing the server package directly.
type ServerConfig struct {
	Host       string
	Port       string
	HomeDir    string
	ConfigFile string
	Inference  InferenceTestConfig
	Logger     *slog.Logger
}

// NewServerConfig creates configuration for a test server on a free port,
// with MockBackendConfig written to ConfigFile.
func NewServerConfig(t *testing.T) ServerConfig {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	tempDir := t.TempDir()

	httpPort, err := FindFreePort()
	if err != nil {
		t.Fatalf("failed to find free port for HTTP: %v", err)
	}

	configFile := filepath.Join(tempDir, "config.yaml")
	if err := os.WriteFile(configFile, []byte(MockBackendConfig), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	return ServerConfig{
		Host:       "127.0.0.1",
		Port:       httpPort,
		HomeDir:    filepath.Join(tempDir, "home"),
		ConfigFile: configFile,
		Logger:     logger,
	}
}

// NewManagedServerConfig is NewServerConfig plus a unique Ollama container
// name and port. It skips the test when Docker is unavailable.
func NewManagedServerConfig(t *testing.T) ServerConfig {
	t.Helper()

	// Register Docker cleanup for this test
	_ = RequireDocker(t)

	cfg := NewServerConfig(t)
	ollamaPort, err := FindFreePort()
	if err != nil {
		t.Fatalf("failed to find free port for Ollama: %v", err)
	}
	cfg.Inference = InferenceTestConfig{
		ContainerName: UniqueContainerName(t, "ollama"),
		HostPort:      ollamaPort,
		Labels:        ContainerLabels(t),
	}
	return cfg
}

// URL returns the server URL for the given config.
func (c ServerConfig) URL() string {
	return fmt.Sprintf("http://%s:%s", c.Host, c.Port)
}

// WaitForServer polls the /status endpoint until the inference backend is healthy.
func WaitForServer(url string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url + "/status")
		if err == nil {
			var status StatusResponse
			if err := json.NewDecoder(resp.Body).Decode(&status); err == nil {
				if status.Inference.Health == "healthy" {
					resp.Body.Close()
					return nil
				}
			}
			resp.Body.Close()
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server not ready after %v", timeout)
}

// WaitForShutdown waits for a channel to receive a value or timeout.
func WaitForShutdown(done <-chan error, timeout time.Duration) error {
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for shutdown")
	}
}

// HTTPClient returns an HTTP client for making requests.
func HTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// FindFreePort finds an available TCP port and returns it as a string.
func FindFreePort() (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer listener.Close()
	return fmt.Sprintf("%d", listener.Addr().(*net.TCPAddr).Port), nil
}

// StartServer is a helper type for managing server lifecycle in tests.
// Usage:
//
//	cfg := testutil.NewServerConfig(t)
//	srv, err := server.New(server.Config{...from cfg...})
//	starter := testutil.StartServer{Cancel: cancel, Done: done}
//	t.Cleanup(func() { starter.Stop() })
type StartServer struct {
	Cancel context.CancelFunc
	Done   <-chan error
}

// Stop cancels the server context and waits for shutdown.
func (s *StartServer) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
	if s.Done != nil {
		<-s.Done
	}
}

// StatusResponse matches the parts of the server's /status response tests inspect.
type StatusResponse struct {
	Server    string `json:"server"`
	Inference struct {
		Active    string   `json:"active"`
		Backends  []string `json:"backends"`
		Health    string   `json:"health"`
		Container string   `json:"container"`
		URL       string   `json:"url"`
	} `json:"inference"`
	LaTeX struct {
		Engine    string `json:"engine"`
		Available bool   `json:"available"`
	} `json:"latex"`
	Jobs struct {
		Total     int `json:"total"`
		Completed int `json:"completed"`
		Failed    int `json:"failed"`
	} `json:"jobs"`
}

// GetStatus fetches the /status endpoint and returns the parsed response.
func GetStatus(url string) (*StatusResponse, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url + "/status")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var status StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, err
	}
	return &status, nil
}
