package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the docgen home directory.
	DefaultDirName = ".docgen"

	// DocumentsDirName is the subdirectory for compiled documents.
	DocumentsDirName = "documents"

	// PromptsDirName is the subdirectory for prompt template overrides.
	PromptsDirName = "prompts"

	// ModelsDirName is mounted into the managed Ollama container.
	ModelsDirName = "ollama"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the docgen home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.docgen).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// DocumentsDir returns the root directory for compiled documents.
func (d *Dir) DocumentsDir() string {
	return filepath.Join(d.path, DocumentsDirName)
}

// DocumentDir returns the working directory for one job.
func (d *Dir) DocumentDir(jobID string) string {
	return filepath.Join(d.DocumentsDir(), jobID)
}

// PromptsDir returns the directory searched for prompt overrides.
func (d *Dir) PromptsDir() string {
	return filepath.Join(d.path, PromptsDirName)
}

// ModelsDir returns the host directory holding pulled Ollama models.
func (d *Dir) ModelsDir() string {
	return filepath.Join(d.path, ModelsDirName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.DocumentsDir(), d.PromptsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// EnsureModelsDir creates the Ollama models directory.
func (d *Dir) EnsureModelsDir() error {
	return os.MkdirAll(d.ModelsDir(), 0o755)
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
