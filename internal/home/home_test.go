package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-docgen")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-docgen" {
			t.Errorf("expected path /tmp/test-docgen, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, DefaultDirName)
		if dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-docgen")

	t.Run("DocumentDir", func(t *testing.T) {
		expected := "/tmp/test-docgen/documents/job-1"
		if dir.DocumentDir("job-1") != expected {
			t.Errorf("expected %s, got %s", expected, dir.DocumentDir("job-1"))
		}
	})

	t.Run("PromptsDir", func(t *testing.T) {
		expected := "/tmp/test-docgen/prompts"
		if dir.PromptsDir() != expected {
			t.Errorf("expected %s, got %s", expected, dir.PromptsDir())
		}
	})

	t.Run("ModelsDir", func(t *testing.T) {
		expected := "/tmp/test-docgen/ollama"
		if dir.ModelsDir() != expected {
			t.Errorf("expected %s, got %s", expected, dir.ModelsDir())
		}
	})

	t.Run("ConfigPath", func(t *testing.T) {
		expected := "/tmp/test-docgen/config.yaml"
		if dir.ConfigPath() != expected {
			t.Errorf("expected %s, got %s", expected, dir.ConfigPath())
		}
	})
}

func TestDir_EnsureExists(t *testing.T) {
	// Use a temp directory
	tmpDir := t.TempDir()
	docgenDir := filepath.Join(tmpDir, "docgen-test")

	dir, err := New(docgenDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Directory shouldn't exist yet
	if dir.Exists() {
		t.Error("directory should not exist before EnsureExists")
	}

	// Create it
	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}

	// Now it should exist
	if !dir.Exists() {
		t.Error("directory should exist after EnsureExists")
	}

	for _, sub := range []string{dir.DocumentsDir(), dir.PromptsDir()} {
		if _, err := os.Stat(sub); os.IsNotExist(err) {
			t.Errorf("%s should exist after EnsureExists", sub)
		}
	}
}

func TestDir_ConfigExists(t *testing.T) {
	tmpDir := t.TempDir()
	dir, _ := New(tmpDir)

	// Config doesn't exist
	if dir.ConfigExists() {
		t.Error("config should not exist initially")
	}

	// Create a config file
	configPath := dir.ConfigPath()
	if err := os.WriteFile(configPath, []byte("test: true\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Now it should exist
	if !dir.ConfigExists() {
		t.Error("config should exist after creation")
	}
}
