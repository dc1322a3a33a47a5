package outline

import (
	"strings"
	"testing"

	"github.com/jackzampolin/docgen/internal/prompts"
	"github.com/jackzampolin/docgen/internal/types"
)

func TestPrompt(t *testing.T) {
	tests := []struct {
		name       string
		complexity types.Complexity
		audience   string
	}{
		{"beginner", types.ComplexityBeginner, "suitable for newcomers with no prior knowledge"},
		{"intermediate", types.ComplexityIntermediate, "assuming basic understanding and some experience"},
		{"advanced", types.ComplexityAdvanced, "for experts requiring deep technical details"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Prompt(Input{Topic: "Graph Theory", Complexity: tt.complexity, Chapters: 4})

			wantFirst := `Create a comprehensive 4-chapter learning outline for "Graph Theory" at ` +
				string(tt.complexity) + " level (" + tt.audience + ")."
			if !strings.HasPrefix(got, wantFirst) {
				t.Errorf("first line = %q, want %q", strings.SplitN(got, "\n", 2)[0], wantFirst)
			}
			if !strings.Contains(got, "Return EXACTLY 4 chapter titles, one per line, numbered from 1 to 4.") {
				t.Error("prompt missing format instruction")
			}
			if !strings.HasSuffix(got, "Generate the outline:") {
				t.Error("prompt should end with the generate instruction")
			}
		})
	}
}

func TestBuildWithoutResolver(t *testing.T) {
	in := Input{Topic: "Rust", Complexity: types.ComplexityBeginner, Chapters: 3}
	got, hash := Build(nil, in)
	if got != Prompt(in) {
		t.Error("Build(nil) should match Prompt")
	}
	if hash != prompts.HashText(outlinePromptTmpl) {
		t.Error("unexpected hash")
	}
}

func TestRegisterPrompts(t *testing.T) {
	r := prompts.NewResolver("", nil)
	RegisterPrompts(r)

	p, ok := r.GetEmbedded(PromptKey)
	if !ok {
		t.Fatal("outline prompt not registered")
	}
	want := []string{"Audience", "Chapters", "Complexity", "Topic"}
	if strings.Join(p.Variables, ",") != strings.Join(want, ",") {
		t.Errorf("Variables = %v, want %v", p.Variables, want)
	}
}
