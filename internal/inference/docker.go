// Package inference manages a local Ollama container so docgen can run
// without a separately installed inference service.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

const (
	DefaultImage         = "ollama/ollama:latest"
	DefaultContainerName = "docgen-ollama"
	DefaultPort          = "11434"
	ContainerPort        = "11434/tcp"
	ModelsDir            = "/root/.ollama"
	Label                = "docgen-ollama"
)

// ContainerStatus represents the state of the Ollama container.
type ContainerStatus string

const (
	StatusRunning   ContainerStatus = "running"
	StatusStopped   ContainerStatus = "stopped"
	StatusNotFound  ContainerStatus = "not_found"
	StatusUnhealthy ContainerStatus = "unhealthy"
	StatusStarting  ContainerStatus = "starting"
)

// DockerManager manages the Ollama Docker container lifecycle.
type DockerManager struct {
	cli           *client.Client
	containerName string
	imageName     string
	modelsPath    string            // Host path for pulled models (~/.docgen/ollama)
	hostPort      string            // Host port to bind (default: 11434)
	labels        map[string]string // Container labels
	logger        *slog.Logger
	httpClient    *http.Client
}

// DockerConfig holds configuration for the Docker manager.
type DockerConfig struct {
	ContainerName string
	Image         string
	ModelsPath    string
	HostPort      string
	Labels        map[string]string // Optional labels for container (used for test cleanup)
	Logger        *slog.Logger
}

// NewDockerManager creates a new Docker manager for Ollama.
func NewDockerManager(cfg DockerConfig) (*DockerManager, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	if cfg.ContainerName == "" {
		cfg.ContainerName = DefaultContainerName
	}
	if cfg.Image == "" {
		cfg.Image = DefaultImage
	}
	if cfg.HostPort == "" {
		cfg.HostPort = DefaultPort
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	// Merge default label with any provided labels
	labels := map[string]string{Label: "true"}
	for k, v := range cfg.Labels {
		labels[k] = v
	}

	return &DockerManager{
		cli:           cli,
		containerName: cfg.ContainerName,
		imageName:     cfg.Image,
		modelsPath:    cfg.ModelsPath,
		hostPort:      cfg.HostPort,
		labels:        labels,
		logger:        cfg.Logger.With("container", cfg.ContainerName),
		httpClient:    &http.Client{Timeout: 2 * time.Second},
	}, nil
}

// Close closes the Docker client.
func (m *DockerManager) Close() error {
	return m.cli.Close()
}

// ContainerName returns the managed container's name.
func (m *DockerManager) ContainerName() string {
	return m.containerName
}

// URL returns the Ollama API base URL.
func (m *DockerManager) URL() string {
	return fmt.Sprintf("http://localhost:%s", m.hostPort)
}

// Start starts the Ollama container, creating it if needed, and waits
// until the API answers.
func (m *DockerManager) Start(ctx context.Context) error {
	if _, err := m.cli.Ping(ctx); err != nil {
		return fmt.Errorf("docker is not running: %w", err)
	}

	status, containerID, err := m.getContainerStatus(ctx)
	if err != nil {
		return err
	}

	switch status {
	case StatusRunning:
		return nil
	case StatusStopped:
		m.logger.Info("starting existing ollama container")
		if err := m.cli.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
			return fmt.Errorf("failed to start existing container: %w", err)
		}
		return m.waitForReady(ctx, 60*time.Second)
	case StatusNotFound:
		return m.createAndStart(ctx)
	default:
		return fmt.Errorf("container in unexpected state: %s", status)
	}
}

// Stop stops the Ollama container.
func (m *DockerManager) Stop(ctx context.Context) error {
	status, containerID, err := m.getContainerStatus(ctx)
	if err != nil {
		return err
	}
	if status == StatusNotFound {
		return nil
	}

	timeout := 10
	if err := m.cli.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &timeout}); err != nil {
		return fmt.Errorf("failed to stop container: %w", err)
	}
	m.logger.Info("ollama container stopped")
	return nil
}

// Remove stops and removes the Ollama container. Pulled models on the
// host mount are kept.
func (m *DockerManager) Remove(ctx context.Context) error {
	status, containerID, err := m.getContainerStatus(ctx)
	if err != nil {
		return err
	}
	if status == StatusNotFound {
		return nil
	}

	if status == StatusRunning {
		if err := m.Stop(ctx); err != nil {
			return err
		}
	}

	if err := m.cli.ContainerRemove(ctx, containerID, container.RemoveOptions{
		Force:         true,
		RemoveVolumes: true,
	}); err != nil {
		return fmt.Errorf("failed to remove container: %w", err)
	}
	return nil
}

// Status returns the current status of the Ollama container.
func (m *DockerManager) Status(ctx context.Context) (ContainerStatus, error) {
	status, _, err := m.getContainerStatus(ctx)
	return status, err
}

// Logs returns the container logs.
func (m *DockerManager) Logs(ctx context.Context, tail string) (string, error) {
	status, containerID, err := m.getContainerStatus(ctx)
	if err != nil {
		return "", err
	}
	if status == StatusNotFound {
		return "", fmt.Errorf("container not found")
	}

	logs, err := m.cli.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       tail,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get logs: %w", err)
	}
	defer logs.Close()

	logBytes, err := io.ReadAll(logs)
	if err != nil {
		return "", fmt.Errorf("failed to read logs: %w", err)
	}
	return string(logBytes), nil
}

// ValidateExisting checks that an existing container uses the expected
// port binding and models mount.
func (m *DockerManager) ValidateExisting(ctx context.Context) error {
	status, containerID, err := m.getContainerStatus(ctx)
	if err != nil {
		return err
	}
	if status == StatusNotFound {
		return nil
	}

	info, err := m.cli.ContainerInspect(ctx, containerID)
	if err != nil {
		return fmt.Errorf("failed to inspect container: %w", err)
	}

	bindings := info.HostConfig.PortBindings[ContainerPort]
	if len(bindings) == 0 {
		return fmt.Errorf("existing container has no port binding for %s", ContainerPort)
	}
	if boundPort := bindings[0].HostPort; boundPort != m.hostPort {
		return fmt.Errorf("existing container bound to port %s, expected %s", boundPort, m.hostPort)
	}

	if m.modelsPath != "" {
		for _, mnt := range info.Mounts {
			if mnt.Destination == ModelsDir {
				if mnt.Source != m.modelsPath {
					return fmt.Errorf("existing container mounts %s, expected %s", mnt.Source, m.modelsPath)
				}
				return nil
			}
		}
		return fmt.Errorf("existing container has no mount for %s", ModelsDir)
	}
	return nil
}

// WaitReady waits for Ollama to answer /api/tags.
func (m *DockerManager) WaitReady(ctx context.Context, timeout time.Duration) error {
	return m.waitForReady(ctx, timeout)
}

// PullModel asks the running Ollama to download model. It blocks until
// the pull finishes, which can take minutes for large models.
func (m *DockerManager) PullModel(ctx context.Context, model string) error {
	body, err := json.Marshal(map[string]any{"name": model, "stream": false})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.URL()+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	m.logger.Info("pulling model", "model", model)
	start := time.Now()

	// The pull runs as long as it needs; ctx bounds it.
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return fmt.Errorf("failed to pull model %s: %w", model, err)
	}
	defer resp.Body.Close()

	var out struct {
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode != http.StatusOK || out.Error != "" {
		return fmt.Errorf("failed to pull model %s: status %d %s", model, resp.StatusCode, out.Error)
	}

	m.logger.Info("model ready", "model", model, "status", out.Status, "duration", time.Since(start))
	return nil
}

// createAndStart creates and starts a new Ollama container.
func (m *DockerManager) createAndStart(ctx context.Context) error {
	if err := m.ensureImage(ctx); err != nil {
		return err
	}

	containerConfig := &container.Config{
		Image:  m.imageName,
		Env:    []string{"OLLAMA_HOST=0.0.0.0:11434"},
		Labels: m.labels,
		ExposedPorts: nat.PortSet{
			ContainerPort: struct{}{},
		},
	}

	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			ContainerPort: []nat.PortBinding{
				{HostIP: "127.0.0.1", HostPort: m.hostPort},
			},
		},
	}

	if m.modelsPath != "" {
		hostConfig.Mounts = []mount.Mount{
			{
				Type:   mount.TypeBind,
				Source: m.modelsPath,
				Target: ModelsDir,
			},
		}
	}

	resp, err := m.cli.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, m.containerName)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}

	if err := m.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = m.cli.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return fmt.Errorf("failed to start container: %w", err)
	}
	m.logger.Info("ollama container created", "image", m.imageName, "port", m.hostPort)

	return m.waitForReady(ctx, 60*time.Second)
}

// getContainerStatus returns the status and ID of the container.
func (m *DockerManager) getContainerStatus(ctx context.Context) (ContainerStatus, string, error) {
	filterArgs := filters.NewArgs()
	filterArgs.Add("name", m.containerName)

	containers, err := m.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to list containers: %w", err)
	}
	if len(containers) == 0 {
		return StatusNotFound, "", nil
	}

	c := containers[0]
	switch c.State {
	case "running":
		return StatusRunning, c.ID, nil
	case "exited", "dead":
		return StatusStopped, c.ID, nil
	case "created", "restarting":
		return StatusStarting, c.ID, nil
	default:
		return ContainerStatus(c.State), c.ID, nil
	}
}

// waitForReady polls /api/tags until Ollama answers.
func (m *DockerManager) waitForReady(ctx context.Context, timeout time.Duration) error {
	url := m.URL() + "/api/tags"

	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			resp, err := m.httpClient.Do(req)
			if err != nil {
				return err
			}
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("unhealthy status: %d", resp.StatusCode)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(timeout.Seconds())),
		retry.Delay(1*time.Second),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
}

// ensureImage pulls the Ollama image if not present.
func (m *DockerManager) ensureImage(ctx context.Context) error {
	if _, err := m.cli.ImageInspect(ctx, m.imageName); err == nil {
		return nil
	}

	m.logger.Info("pulling image", "image", m.imageName)
	reader, err := m.cli.ImagePull(ctx, m.imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()

	// Drain reader to complete pull
	_, err = io.Copy(io.Discard, reader)
	return err
}
