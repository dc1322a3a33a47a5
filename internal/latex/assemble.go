// Package latex assembles generated chapters into a complete LaTeX document,
// checks it for structural problems and compiles it to PDF.
package latex

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"

	"github.com/jackzampolin/docgen/internal/types"
)

//go:embed document.tmpl
var documentTmpl string

// The template uses << >> delimiters because LaTeX is full of braces.
var documentTemplate = template.Must(template.New("document").Delims("<<", ">>").Parse(documentTmpl))

// Defaults for Assembler fields.
const (
	DefaultDocumentClass = "article"
	DefaultFontSize      = "11pt"
	DefaultAuthor        = "docgen"
)

// Assembler builds full documents from chapter fragments.
type Assembler struct {
	DocumentClass string
	FontSize      string
	Author        string
}

// NewAssembler returns an Assembler with default settings.
func NewAssembler() *Assembler {
	return &Assembler{
		DocumentClass: DefaultDocumentClass,
		FontSize:      DefaultFontSize,
		Author:        DefaultAuthor,
	}
}

type documentData struct {
	Class    string
	FontSize string
	Title    string
	Author   string
	Chapters []string
}

// Title returns the document title for req, e.g.
// "Graph Theory: A Beginner Guide".
func Title(req types.DocumentRequest) string {
	return req.Topic + ": A " + req.Complexity.Title() + " Guide"
}

// Assemble wraps the chapters, in order, into a standalone document with a
// title page and table of contents. Chapter content is inserted verbatim;
// only the topic is escaped.
func (a *Assembler) Assemble(req types.DocumentRequest, chapters []string) string {
	data := documentData{
		Class:    orDefault(a.DocumentClass, DefaultDocumentClass),
		FontSize: orDefault(a.FontSize, DefaultFontSize),
		Title:    Escape(req.Topic) + ": A " + req.Complexity.Title() + " Guide",
		Author:   Escape(orDefault(a.Author, DefaultAuthor)),
		Chapters: chapters,
	}

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		// The template only ranges over strings; this path is a programming error.
		return "% assembly failed: " + err.Error() + "\n"
	}
	return buf.String()
}

// Validate runs the structural checks on an assembled document.
func (a *Assembler) Validate(doc string) ValidationResult {
	return Validate(doc)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

var escaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// Escape makes plain text safe to place in LaTeX source.
func Escape(s string) string {
	return escaper.Replace(s)
}
