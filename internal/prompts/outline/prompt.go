package outline

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"

	"github.com/jackzampolin/docgen/internal/prompts"
	"github.com/jackzampolin/docgen/internal/types"
)

//go:embed outline.tmpl
var outlinePromptTmpl string

var outlineTemplate = template.Must(template.New("outline").Parse(outlinePromptTmpl))

// PromptKey is the resolver key (and override file stem) for the outline prompt.
const PromptKey = "outline"

// audiences phrase each complexity level for the outline request.
var audiences = map[types.Complexity]string{
	types.ComplexityBeginner:     "suitable for newcomers with no prior knowledge",
	types.ComplexityIntermediate: "assuming basic understanding and some experience",
	types.ComplexityAdvanced:     "for experts requiring deep technical details",
}

// Audience returns the audience phrase for c.
func Audience(c types.Complexity) string {
	return audiences[c]
}

// Input holds the values substituted into the outline prompt.
type Input struct {
	Topic      string
	Complexity types.Complexity
	Chapters   int
}

type templateData struct {
	Topic      string
	Complexity string
	Audience   string
	Chapters   int
}

func (in Input) data() templateData {
	return templateData{
		Topic:      in.Topic,
		Complexity: string(in.Complexity),
		Audience:   Audience(in.Complexity),
		Chapters:   in.Chapters,
	}
}

// Prompt builds the outline prompt from the embedded template.
func Prompt(in Input) string {
	var buf bytes.Buffer
	if err := outlineTemplate.Execute(&buf, in.data()); err != nil {
		// Fallback to raw template on error
		return outlinePromptTmpl
	}
	return strings.TrimRight(buf.String(), "\n")
}

// Build renders the outline prompt through r, honouring overrides. It
// returns the prompt and the hash of the template it came from. A nil
// resolver uses the embedded template.
func Build(r *prompts.Resolver, in Input) (string, string) {
	if r == nil {
		return Prompt(in), prompts.HashText(outlinePromptTmpl)
	}
	out, resolved, err := r.RenderKey(PromptKey, in.data())
	if err != nil {
		return Prompt(in), prompts.HashText(outlinePromptTmpl)
	}
	return strings.TrimRight(out, "\n"), resolved.Hash
}

// RegisterPrompts registers the outline prompt with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         PromptKey,
		Text:        outlinePromptTmpl,
		Description: "Chapter outline request: asks for exactly N numbered chapter titles",
	})
}
