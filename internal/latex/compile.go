package latex

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Compiler defaults.
const (
	DefaultEngine  = "pdflatex"
	DefaultPasses  = 2 // second pass resolves the table of contents
	DefaultTimeout = 2 * time.Minute

	SourceFile = "document.tex"
	PDFFile    = "document.pdf"
)

// DefaultEngineArgs keep the engine from waiting on stdin after an error.
var DefaultEngineArgs = []string{"-interaction=nonstopmode", "-halt-on-error"}

// CompileResult is the outcome of a compile. Failure is reported here,
// never as an error.
type CompileResult struct {
	Success   bool   `json:"success"`
	PDFPath   string `json:"pdf_path,omitempty"`
	TexPath   string `json:"tex_path,omitempty"`
	Error     string `json:"error,omitempty"`
	PageCount int    `json:"page_count,omitempty"`
}

// CompilerConfig configures a Compiler.
type CompilerConfig struct {
	Engine     string
	EngineArgs []string
	Passes     int
	Timeout    time.Duration // per pass
	OutputDir  string        // artifacts go to <OutputDir>/<correlationID>/
	Logger     *slog.Logger
}

// Compiler runs a LaTeX engine over assembled documents.
type Compiler struct {
	engine    string
	args      []string
	passes    int
	timeout   time.Duration
	outputDir string
	logger    *slog.Logger
}

// NewCompiler creates a compiler, filling unset fields with defaults.
func NewCompiler(cfg CompilerConfig) *Compiler {
	c := &Compiler{
		engine:    cfg.Engine,
		args:      cfg.EngineArgs,
		passes:    cfg.Passes,
		timeout:   cfg.Timeout,
		outputDir: cfg.OutputDir,
		logger:    cfg.Logger,
	}
	if c.engine == "" {
		c.engine = DefaultEngine
	}
	if c.args == nil {
		c.args = DefaultEngineArgs
	}
	if c.passes <= 0 {
		c.passes = DefaultPasses
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Available reports whether the engine binary can be found.
func (c *Compiler) Available() error {
	if _, err := exec.LookPath(c.engine); err != nil {
		return fmt.Errorf("%s not found in PATH: %w", c.engine, err)
	}
	return nil
}

// Engine returns the configured engine binary.
func (c *Compiler) Engine() string {
	return c.engine
}

// Compile writes doc to <outdir>/<correlationID>/document.tex, runs the
// engine and verifies the resulting PDF.
func (c *Compiler) Compile(ctx context.Context, doc, correlationID string) CompileResult {
	logger := c.logger.With("job_id", correlationID)

	if c.outputDir == "" {
		return CompileResult{Error: "no output directory configured"}
	}
	dir := filepath.Join(c.outputDir, correlationID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return CompileResult{Error: fmt.Sprintf("failed to create output directory: %v", err)}
	}

	texPath := filepath.Join(dir, SourceFile)
	if err := os.WriteFile(texPath, []byte(doc), 0o644); err != nil {
		return CompileResult{Error: fmt.Sprintf("failed to write LaTeX source: %v", err)}
	}
	result := CompileResult{TexPath: texPath}

	if err := c.Available(); err != nil {
		logger.Warn("latex engine unavailable, skipping compile", "engine", c.engine, "error", err)
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	for pass := 1; pass <= c.passes; pass++ {
		if err := c.runPass(ctx, dir, texPath); err != nil {
			logger.Error("latex compile failed", "pass", pass, "error", err)
			result.Error = fmt.Sprintf("pass %d: %v", pass, err)
			return result
		}
	}

	pdfPath := filepath.Join(dir, PDFFile)
	pages, err := verifyPDF(pdfPath)
	if err != nil {
		logger.Error("compiled PDF failed verification", "path", pdfPath, "error", err)
		result.Error = err.Error()
		return result
	}

	logger.Info("compiled PDF",
		"path", pdfPath,
		"pages", pages,
		"duration", time.Since(start))

	result.Success = true
	result.PDFPath = pdfPath
	result.PageCount = pages
	return result
}

func (c *Compiler) runPass(ctx context.Context, dir, texPath string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := append([]string{}, c.args...)
	args = append(args, "-output-directory", dir, texPath)

	cmd := exec.CommandContext(ctx, c.engine, args...)
	cmd.Dir = dir

	output, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%s timed out after %s", c.engine, c.timeout)
	}
	if err != nil {
		if msg := firstLaTeXError(output); msg != "" {
			return fmt.Errorf("%s failed: %w: %s", c.engine, err, msg)
		}
		return fmt.Errorf("%s failed: %w", c.engine, err)
	}
	return nil
}

// firstLaTeXError returns the first "! ..." line of engine output.
func firstLaTeXError(output []byte) string {
	scanner := bufio.NewScanner(strings.NewReader(string(output)))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "!") {
			return strings.TrimSpace(strings.TrimPrefix(line, "!"))
		}
	}
	return ""
}

// verifyPDF checks the file parses as a PDF and returns its page count.
func verifyPDF(path string) (int, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("engine produced no PDF: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.ValidateFile(path, conf); err != nil {
		return 0, fmt.Errorf("invalid PDF: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	pages, err := api.PageCount(f, conf)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return pages, nil
}
