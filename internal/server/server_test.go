package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackzampolin/docgen/internal/config"
	"github.com/jackzampolin/docgen/internal/home"
	"github.com/jackzampolin/docgen/internal/providers"
	"github.com/jackzampolin/docgen/internal/testutil"
)

// newTestServer builds a server from testutil's mock-backend config.
func newTestServer(t *testing.T) (*Server, testutil.ServerConfig) {
	t.Helper()
	cfg := testutil.NewServerConfig(t)

	cm, err := config.NewManager(cfg.ConfigFile, "")
	if err != nil {
		t.Fatalf("config.NewManager() error = %v", err)
	}
	h, err := home.New(cfg.HomeDir)
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}

	srv, err := New(Config{
		Host:          cfg.Host,
		Port:          cfg.Port,
		ConfigManager: cm,
		Home:          h,
		Logger:        cfg.Logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv, cfg
}

// startTestServer starts srv and registers its shutdown.
func startTestServer(t *testing.T, srv *Server, cfg testutil.ServerConfig) *testutil.StartServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()

	starter := &testutil.StartServer{Cancel: cancel, Done: done}
	t.Cleanup(starter.Stop)

	if err := testutil.WaitForServer(cfg.URL(), 10*time.Second); err != nil {
		t.Fatalf("server did not start: %v", err)
	}
	return starter
}

func TestNew_Defaults(t *testing.T) {
	srv, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if srv.Addr() != "127.0.0.1:3000" {
		t.Errorf("Addr() = %q, want 127.0.0.1:3000", srv.Addr())
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true before Start")
	}
	if srv.JobManager() != nil || srv.Registry() != nil {
		t.Error("services should not exist before Start")
	}
}

func TestServer_RequireInit(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		path string
		want int
	}{
		{"/health", http.StatusOK},
		{"/ready", http.StatusServiceUnavailable},
		{"/api/jobs", http.StatusServiceUnavailable},
		{"/api/prompts", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	srv, cfg := newTestServer(t)
	starter := startTestServer(t, srv, cfg)

	if !srv.IsRunning() {
		t.Error("IsRunning() = false, want true")
	}
	if name, _, err := srv.Registry().Active(); err != nil || name != providers.MockClientName {
		t.Errorf("Active() = %q, %v", name, err)
	}

	status, err := testutil.GetStatus(cfg.URL())
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if status.Server != "running" || status.Inference.Container != "unmanaged" {
		t.Errorf("unexpected status: %+v", status)
	}
	if status.LaTeX.Available {
		t.Error("test engine should not be available")
	}

	t.Run("double start", func(t *testing.T) {
		if err := srv.Start(context.Background()); err == nil {
			t.Error("second Start() should return error")
		}
	})

	starter.Cancel()
	if err := testutil.WaitForShutdown(starter.Done, 30*time.Second); err != nil {
		t.Fatalf("shutdown error = %v", err)
	}
	starter.Done = nil
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown, want false")
	}
	if _, err := http.Get(cfg.URL() + "/health"); err == nil {
		t.Error("server still accepting connections after shutdown")
	}
}

func TestServer_PortInUse(t *testing.T) {
	srv, cfg := newTestServer(t)
	ln, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", net.JoinHostPort(cfg.Host, cfg.Port))
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	if err := srv.Start(context.Background()); err == nil {
		t.Fatal("Start() should fail when the port is taken")
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after failed start")
	}
}

func TestBuildServices(t *testing.T) {
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}

	t.Run("defaults", func(t *testing.T) {
		svc := BuildServices(ServicesConfig{Home: h})
		defer svc.JobManager.Close()

		if svc.JobManager.DispatcherStatus().Workers != 0 {
			t.Error("expected goroutine-per-job dispatcher by default")
		}
		if got := svc.PromptResolver.OverridePath("outline"); got != filepath.Join(h.PromptsDir(), "outline.tmpl") {
			t.Errorf("OverridePath() = %q", got)
		}
		if _, err := svc.PromptResolver.Resolve("chapter"); err != nil {
			t.Errorf("chapter prompt not registered: %v", err)
		}
		if svc.Compiler.Engine() != "pdflatex" {
			t.Errorf("Engine() = %q", svc.Compiler.Engine())
		}
	})

	t.Run("worker pool", func(t *testing.T) {
		conf := config.DefaultConfig()
		conf.Jobs.MaxWorkers = 3
		svc := BuildServices(ServicesConfig{Config: conf, Home: h})
		defer svc.JobManager.Close()

		if got := svc.JobManager.DispatcherStatus(); got.Workers != 3 || got.Name != "pipeline" {
			t.Errorf("DispatcherStatus() = %+v", got)
		}
	})

	t.Run("prompts dir from config", func(t *testing.T) {
		conf := config.DefaultConfig()
		conf.Generation.PromptsDir = "/srv/prompts"
		svc := BuildServices(ServicesConfig{Config: conf})
		defer svc.JobManager.Close()

		if got := svc.PromptResolver.OverridePath("outline"); got != "/srv/prompts/outline.tmpl" {
			t.Errorf("OverridePath() = %q", got)
		}
	})
}

func TestRegistryConfig_OllamaURL(t *testing.T) {
	conf := config.DefaultConfig()
	ollama := conf.Inference.Backends[providers.OllamaName]
	ollama.Enabled = false
	conf.Inference.Backends[providers.OllamaName] = ollama

	rc := registryConfig(conf, "")
	if rc.Backends[providers.OllamaName].BaseURL != "http://localhost:11434" {
		t.Errorf("BaseURL = %q", rc.Backends[providers.OllamaName].BaseURL)
	}

	rc = registryConfig(conf, "http://127.0.0.1:21434")
	b := rc.Backends[providers.OllamaName]
	if b.BaseURL != "http://127.0.0.1:21434" || !b.Enabled {
		t.Errorf("managed backend = %+v", b)
	}
}
