package generation

import "github.com/jackzampolin/docgen/internal/types"

// OutlineResult is the outcome of an outline request. Titles always has the
// requested length; Fallback reports whether it came from the fixed list.
type OutlineResult struct {
	Titles   []string `json:"titles"`
	Fallback bool     `json:"fallback"`
	Reason   string   `json:"reason,omitempty"`
}

// ChapterResult is the outcome of a chapter request. Content is always a
// usable LaTeX fragment.
type ChapterResult struct {
	Content  string `json:"content"`
	Fallback bool   `json:"fallback"`
	Reason   string `json:"reason,omitempty"`
}

// ChapterSpec identifies one chapter to generate.
type ChapterSpec struct {
	Topic      string
	Title      string
	Complexity types.Complexity
	Index      int      // 1-based
	Total      int
	Prior      []string // titles of chapters 1..Index-1, in order
	Outline    []string // full outline
}
