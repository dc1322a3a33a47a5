package latex

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/jackzampolin/docgen/internal/types"
)

func TestAssemble(t *testing.T) {
	req := types.DocumentRequest{Topic: "Graph Theory", Complexity: types.ComplexityBeginner, Chapters: 2}
	chapters := []string{"\\section{Paths}\n\nBody one.\n", "\\section{Trees}\n\nBody two.\n"}

	doc := NewAssembler().Assemble(req, chapters)

	for _, want := range []string{
		"\\documentclass[11pt]{article}",
		"\\title{Graph Theory: A Beginner Guide}",
		"\\tableofcontents\n\\newpage",
		"\\section{Paths}\n\nBody one.\n",
		"\\newpage\n\n\\section{Trees}",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}
	if !strings.HasSuffix(doc, "\\end{document}\n") {
		t.Errorf("document should end with \\end{document}, got %q", doc[len(doc)-30:])
	}
	if strings.Index(doc, "Paths") > strings.Index(doc, "Trees") {
		t.Error("chapters out of order")
	}

	if res := Validate(doc); !res.Valid {
		t.Errorf("assembled document should validate, issues: %v", res.Issues)
	}

	if Title(req) != "Graph Theory: A Beginner Guide" {
		t.Errorf("Title() = %q", Title(req))
	}
}

func TestAssembleEscapesTopic(t *testing.T) {
	req := types.DocumentRequest{Topic: "C# & Rust_2 {50%}", Complexity: types.ComplexityAdvanced, Chapters: 3}
	a := &Assembler{DocumentClass: "report"}
	doc := a.Assemble(req, []string{"\\section{X}\n"})

	if !strings.Contains(doc, `\title{C\# \& Rust\_2 \{50\%\}: A Advanced Guide}`) {
		t.Errorf("topic not escaped: %q", doc)
	}
	if !strings.Contains(doc, "]{report}") {
		t.Error("expected custom document class")
	}
	if res := Validate(doc); !res.Valid {
		t.Errorf("escaped document should validate, issues: %v", res.Issues)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantValid bool
		wantIssue string
	}{
		{
			name:      "minimal document",
			doc:       "\\documentclass{article}\n\\begin{document}\nHi\n\\end{document}\n",
			wantValid: true,
		},
		{
			name:      "missing document class",
			doc:       "\\begin{document}\\end{document}",
			wantIssue: `missing \documentclass`,
		},
		{
			name:      "unclosed environment",
			doc:       "\\documentclass{article}\\begin{document}\\begin{itemize}\\item x\\end{document}",
			wantIssue: `\begin{itemize} closed by \end{document}`,
		},
		{
			name:      "unbalanced braces",
			doc:       "\\documentclass{article}\\begin{document}\\textbf{x\\end{document}",
			wantIssue: "unbalanced braces",
		},
		{
			name:      "escaped braces and comments are ignored",
			doc:       "\\documentclass{article}\\begin{document}\\{ 50\\% % comment {\n\\end{document}",
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.doc)
			if res.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v (issues: %v)", res.Valid, tt.wantValid, res.Issues)
			}
			if tt.wantIssue != "" && !strings.Contains(strings.Join(res.Issues, "\n"), tt.wantIssue) {
				t.Errorf("Issues = %v, want one containing %q", res.Issues, tt.wantIssue)
			}
		})
	}
}

func fakeEngine(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake engine requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-latex")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCompileFailures(t *testing.T) {
	doc := "\\documentclass{article}\\begin{document}x\\end{document}"

	t.Run("missing engine", func(t *testing.T) {
		out := t.TempDir()
		c := NewCompiler(CompilerConfig{Engine: "docgen-no-such-engine", OutputDir: out})

		res := c.Compile(context.Background(), doc, "job-1")
		if res.Success {
			t.Fatal("expected failure")
		}
		if !strings.Contains(res.Error, "not found") {
			t.Errorf("Error = %q", res.Error)
		}
		data, err := os.ReadFile(filepath.Join(out, "job-1", SourceFile))
		if err != nil {
			t.Fatalf("source not written: %v", err)
		}
		if string(data) != doc {
			t.Error("written source differs from input")
		}
	})

	t.Run("engine error", func(t *testing.T) {
		engine := fakeEngine(t, "echo 'This is pdfTeX'\necho '! Undefined control sequence.'\nexit 1\n")
		c := NewCompiler(CompilerConfig{Engine: engine, OutputDir: t.TempDir()})

		res := c.Compile(context.Background(), doc, "job-2")
		if res.Success {
			t.Fatal("expected failure")
		}
		if !strings.Contains(res.Error, "Undefined control sequence.") || !strings.Contains(res.Error, "pass 1") {
			t.Errorf("Error = %q", res.Error)
		}
	})

	t.Run("engine produces no pdf", func(t *testing.T) {
		engine := fakeEngine(t, "exit 0\n")
		c := NewCompiler(CompilerConfig{Engine: engine, OutputDir: t.TempDir(), Passes: 1})

		res := c.Compile(context.Background(), doc, "job-3")
		if res.Success {
			t.Fatal("expected failure")
		}
		if !strings.Contains(res.Error, "no PDF") {
			t.Errorf("Error = %q", res.Error)
		}
	})

	t.Run("no output directory", func(t *testing.T) {
		res := NewCompiler(CompilerConfig{}).Compile(context.Background(), doc, "job-4")
		if res.Success || res.Error == "" {
			t.Errorf("expected failure, got %+v", res)
		}
	})
}

func TestCompileWithPDFLaTeX(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping pdflatex test in short mode")
	}
	if _, err := exec.LookPath(DefaultEngine); err != nil {
		t.Skip("pdflatex not installed")
	}

	req := types.DocumentRequest{Topic: "Testing", Complexity: types.ComplexityBeginner, Chapters: 1}
	doc := NewAssembler().Assemble(req, []string{"\\section{Intro}\n\nHello.\n"})

	c := NewCompiler(CompilerConfig{OutputDir: t.TempDir()})
	res := c.Compile(context.Background(), doc, "job-pdf")
	if !res.Success {
		t.Fatalf("Compile() failed: %s", res.Error)
	}
	if res.PageCount < 1 {
		t.Errorf("PageCount = %d, want >= 1", res.PageCount)
	}
	if filepath.Base(res.PDFPath) != PDFFile {
		t.Errorf("PDFPath = %q", res.PDFPath)
	}
}
