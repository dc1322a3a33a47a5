package chapter

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/jackzampolin/docgen/internal/prompts"
	"github.com/jackzampolin/docgen/internal/types"
)

//go:embed chapter.tmpl
var chapterPromptTmpl string

var chapterTemplate = template.Must(template.New("chapter").Parse(chapterPromptTmpl))

// PromptKey is the resolver key (and override file stem) for the chapter prompt.
const PromptKey = "chapter"

// Number of prior titles and upcoming titles included in the context block.
const (
	PriorWindow    = 3
	UpcomingWindow = 2
)

var styles = map[types.Complexity]string{
	types.ComplexityBeginner:     "Use clear, simple language. Define all technical terms. Include basic examples and step-by-step explanations. Focus on understanding rather than implementation.",
	types.ComplexityIntermediate: "Assume familiarity with basic concepts. Include technical details and code examples. Balance theory with practical applications.",
	types.ComplexityAdvanced:     "Provide deep technical analysis. Include complex examples, mathematical proofs, implementation details, and cutting-edge research references.",
}

// Style returns the writing-style instructions for c.
func Style(c types.Complexity) string {
	return styles[c]
}

const (
	framingIntro  = "This is the introductory chapter. Establish the foundation and motivate the reader's interest in the topic."
	framingFinal  = "This is the final chapter. Synthesize previous concepts and provide closure with future directions."
	framingMiddle = "This is a middle chapter that should build upon previous concepts while preparing for advanced topics."
)

// Input describes one chapter request.
type Input struct {
	Topic      string
	Title      string
	Complexity types.Complexity
	Index      int      // 1-based
	Total      int      // total chapters in the document
	Prior      []string // titles of chapters 1..Index-1
	Outline    []string // full outline, may be nil
}

type templateData struct {
	Topic      string
	Title      string
	Heading    string
	Complexity string
	Index      int
	Total      int
	Context    string
	Style      string
}

func (in Input) data() templateData {
	return templateData{
		Topic:      in.Topic,
		Title:      in.Title,
		Heading:    `\section{` + in.Title + `}`,
		Complexity: string(in.Complexity),
		Index:      in.Index,
		Total:      in.Total,
		Context:    ContextBlock(in.Index, in.Total, in.Prior, in.Outline),
		Style:      Style(in.Complexity),
	}
}

// ContextBlock describes where a chapter sits in the document: a framing
// sentence, the last few prior titles and the next few upcoming ones.
// Chapter 1 is always framed as the introduction, even in a one-chapter
// document.
func ContextBlock(index, total int, prior, outline []string) string {
	var b strings.Builder

	switch {
	case index == 1:
		b.WriteString(framingIntro)
	case index == total:
		b.WriteString(framingFinal)
	default:
		b.WriteString(framingMiddle)
	}

	if len(prior) > 0 {
		window := prior
		if len(window) > PriorWindow {
			window = window[len(window)-PriorWindow:]
		}
		b.WriteString("\n\n**Previous chapters covered:**\n")
		for k, title := range window {
			fmt.Fprintf(&b, "- Chapter %d: %s\n", len(prior)-len(window)+k+1, title)
		}
		b.WriteString("\nBuild upon these concepts naturally without repeating content.")
	}

	if index < total && index < len(outline) {
		end := min(index+UpcomingWindow, len(outline))
		b.WriteString("\n\n**Upcoming chapters will cover:**\n")
		for k, title := range outline[index:end] {
			fmt.Fprintf(&b, "- Chapter %d: %s\n", index+k+1, title)
		}
		b.WriteString("\nPrepare the reader for these topics by introducing relevant concepts.")
	}

	return b.String()
}

// Prompt builds the chapter prompt from the embedded template.
func Prompt(in Input) string {
	var buf bytes.Buffer
	if err := chapterTemplate.Execute(&buf, in.data()); err != nil {
		// Fallback to raw template on error
		return chapterPromptTmpl
	}
	return strings.TrimRight(buf.String(), "\n")
}

// Build renders the chapter prompt through r, honouring overrides. It
// returns the prompt and the hash of the template it came from.
func Build(r *prompts.Resolver, in Input) (string, string) {
	if r == nil {
		return Prompt(in), prompts.HashText(chapterPromptTmpl)
	}
	out, resolved, err := r.RenderKey(PromptKey, in.data())
	if err != nil {
		return Prompt(in), prompts.HashText(chapterPromptTmpl)
	}
	return strings.TrimRight(out, "\n"), resolved.Hash
}

// RegisterPrompts registers the chapter prompt with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         PromptKey,
		Text:        chapterPromptTmpl,
		Description: "Chapter content request: position, context window, style and LaTeX output rules",
	})
}
