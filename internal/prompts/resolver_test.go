package prompts

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractVariables(t *testing.T) {
	got := ExtractVariables("Chapter {{.Index}} of {{ .Total }} on {{.Topic}} ({{.Index}}) {{.Chapter.Title}}")
	want := []string{"Chapter.Title", "Index", "Topic", "Total"}
	if len(got) != len(want) {
		t.Fatalf("ExtractVariables() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ExtractVariables()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRender(t *testing.T) {
	out, err := Render("k", "Hello {{.Name}}", map[string]string{"Name": "docgen"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out != "Hello docgen" {
		t.Errorf("Render() = %q", out)
	}

	if _, err := Render("k", "{{.Name", nil); err == nil {
		t.Error("expected parse error")
	}
	if _, err := Render("k", "{{.Name}}", map[string]string{}); err == nil {
		t.Error("expected missing key error")
	}
}

func TestResolver(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(dir, nil)
	r.Register(EmbeddedPrompt{Key: "greeting", Text: "Hi {{.Name}}"})
	r.Register(EmbeddedPrompt{Key: "another", Text: "static"})

	t.Run("embedded default", func(t *testing.T) {
		p, err := r.Resolve("greeting")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if p.IsOverride || p.Source != SourceEmbedded {
			t.Errorf("expected embedded prompt, got %+v", p)
		}
		if p.Hash != HashText("Hi {{.Name}}") {
			t.Error("hash mismatch")
		}
	})

	t.Run("override file wins", func(t *testing.T) {
		path := filepath.Join(dir, "greeting.tmpl")
		if err := os.WriteFile(path, []byte("Hey {{.Name}}"), 0o644); err != nil {
			t.Fatal(err)
		}
		defer os.Remove(path)

		out, p, err := r.RenderKey("greeting", map[string]string{"Name": "Ada"})
		if err != nil {
			t.Fatalf("RenderKey() error = %v", err)
		}
		if out != "Hey Ada" || !p.IsOverride || p.Source != path {
			t.Errorf("RenderKey() = %q, %+v", out, p)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		if _, err := r.Resolve("missing"); err == nil {
			t.Error("expected error for unknown key")
		}
	})

	t.Run("resolve all sorted", func(t *testing.T) {
		all := r.ResolveAll()
		if len(all) != 2 || all[0].Key != "another" || all[1].Key != "greeting" {
			t.Errorf("ResolveAll() = %+v", all)
		}
	})

	t.Run("overrides disabled", func(t *testing.T) {
		r2 := NewResolver("", nil)
		if r2.OverridePath("greeting") != "" {
			t.Error("expected empty override path")
		}
	})
}
