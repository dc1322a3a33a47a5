package generation

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseOutline(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected int
		want     []string
	}{
		{
			name:     "pads short outline",
			raw:      "1. Foo\n2. Bar\n",
			expected: 4,
			want:     []string{"Foo", "Bar", "Advanced Topic 3", "Advanced Topic 4"},
		},
		{
			name:     "truncates long outline",
			raw:      "1. A\n2. B\n3. C\n4. D",
			expected: 2,
			want:     []string{"A", "B"},
		},
		{
			name:     "chapter prefix variants",
			raw:      "Chapter 1: Sets\nchapter 2 Graphs\nCHAPTER3:Trees",
			expected: 3,
			want:     []string{"Sets", "Graphs", "Trees"},
		},
		{
			name:     "ignores chatter and trims",
			raw:      "Here is your outline:\n\n  1.   Vertices  \r\n- bullet\n2.Edges\nThanks!",
			expected: 2,
			want:     []string{"Vertices", "Edges"},
		},
		{
			name:     "empty input",
			raw:      "",
			expected: 3,
			want:     []string{"Advanced Topic 1", "Advanced Topic 2", "Advanced Topic 3"},
		},
		{
			name:     "zero expected",
			raw:      "1. A",
			expected: 0,
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseOutline(tt.raw, tt.expected)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseOutline() = %q, want %q", got, tt.want)
			}
		})
	}
}

func FuzzParseOutline(f *testing.F) {
	f.Add("1. Foo\n2. Bar\n", 4)
	f.Add("Chapter 1:\nChapter 2: x", 3)
	f.Add("\n\n\n", 12)
	f.Add("1. a\n2. b\n3. c\n4. d\n5. e", 1)

	f.Fuzz(func(t *testing.T, raw string, expected int) {
		if expected < 0 || expected > 64 {
			t.Skip()
		}
		got := ParseOutline(raw, expected)
		if len(got) != expected {
			t.Fatalf("len = %d, want %d", len(got), expected)
		}
		for i, title := range got {
			if strings.TrimSpace(title) == "" {
				t.Fatalf("title %d is empty", i)
			}
		}
	})
}

func TestNormalizeContent(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		title string
		want  string
	}{
		{
			name:  "inserts missing heading",
			raw:   "Some body text.",
			title: "Intro",
			want:  "\\section{Intro}\n\nSome body text.\n",
		},
		{
			name:  "keeps existing heading",
			raw:   "\\section{Other}\nBody",
			title: "Intro",
			want:  "\\section{Other}\n\nBody\n",
		},
		{
			name:  "collapses blank runs",
			raw:   "\\section{A}\n\nP1\n\n\n\n\n\nP2",
			title: "A",
			want:  "\\section{A}\n\nP1\n\nP2\n",
		},
		{
			name:  "spaces environments",
			raw:   "\\section{A}\ntext\\begin{itemize}\\item x\\end{itemize}more",
			title: "A",
			want:  "\\section{A}\n\ntext\n\\begin{itemize}\\item x\\end{itemize}\nmore\n",
		},
		{
			name:  "rewrites dollar display math",
			raw:   "\\section{A}\n$$x^2$$",
			title: "A",
			want:  "\\section{A}\n\n\\[\nx^2\n\\]\n",
		},
		{
			name:  "trims trailing whitespace",
			raw:   "\\section{A}\n\nbody   \n\n\n\n\n",
			title: "A",
			want:  "\\section{A}\n\nbody\n",
		},
		{
			name:  "subsection headings",
			raw:   "\\section{A}\n\\subsection{B}text",
			title: "A",
			want:  "\\section{A}\n\n\\subsection{B}\ntext\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeContent(tt.raw, tt.title)
			if got != tt.want {
				t.Errorf("NormalizeContent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeContentEndsWithSingleNewline(t *testing.T) {
	for _, raw := range []string{"", "x", "x\n\n\n", "\n\n\\section{A}\n\n"} {
		got := NormalizeContent(raw, "T")
		if !strings.HasSuffix(got, "\n") || strings.HasSuffix(got, "\n\n") {
			t.Errorf("NormalizeContent(%q) = %q, want exactly one trailing newline", raw, got)
		}
	}
}
