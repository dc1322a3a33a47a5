// Package types provides shared types used across multiple packages.
// This package has no dependencies on other docgen packages to avoid import cycles.
package types

import (
	"fmt"
	"strings"
)

// Complexity is the target audience level of a generated document.
type Complexity string

const (
	ComplexityBeginner     Complexity = "beginner"
	ComplexityIntermediate Complexity = "intermediate"
	ComplexityAdvanced     Complexity = "advanced"
)

// Complexities lists the accepted levels in display order.
var Complexities = []Complexity{ComplexityBeginner, ComplexityIntermediate, ComplexityAdvanced}

// ParseComplexity converts a string to a Complexity.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseComplexity(s string) (Complexity, error) {
	c := Complexity(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c, nil
	}
	return "", fmt.Errorf("invalid complexity level %q: must be one of: %s", s, complexityList())
}

// Valid reports whether c is one of the known levels.
func (c Complexity) Valid() bool {
	for _, known := range Complexities {
		if c == known {
			return true
		}
	}
	return false
}

// Title returns the level with its first letter upper-cased ("Beginner").
func (c Complexity) Title() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

func complexityList() string {
	names := make([]string, len(Complexities))
	for i, c := range Complexities {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// DocumentRequest describes a document to generate.
// It is immutable once accepted by the job manager.
type DocumentRequest struct {
	Topic      string     `json:"topic" yaml:"topic"`
	Complexity Complexity `json:"complexity" yaml:"complexity"`
	Chapters   int        `json:"chapters" yaml:"chapters"`
}

// EstimatedMinutes is a rough wall-clock estimate shown to callers.
func (r DocumentRequest) EstimatedMinutes() int {
	return r.Chapters * 3
}

// FileStem returns a filesystem-safe name for artifacts of this request,
// e.g. "Graph_Theory_beginner".
func (r DocumentRequest) FileStem() string {
	var b strings.Builder
	for _, ch := range r.Topic {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String() + "_" + string(r.Complexity)
}

// Limits bounds the accepted chapter count.
type Limits struct {
	MinChapters     int `json:"min_chapters"`
	MaxChapters     int `json:"max_chapters"`
	DefaultChapters int `json:"default_chapters"`
}

// DefaultLimits returns the stock chapter bounds (3..12, default 6).
func DefaultLimits() Limits {
	return Limits{MinChapters: 3, MaxChapters: 12, DefaultChapters: 6}
}

// Validate checks a request that was built in code (CLI flags, tests).
// HTTP payloads go through ValidateRequestJSON instead.
func (r DocumentRequest) Validate(l Limits) error {
	if strings.TrimSpace(r.Topic) == "" {
		return fmt.Errorf("topic is required")
	}
	if !r.Complexity.Valid() {
		return fmt.Errorf("invalid complexity level. Must be one of: %s", complexityList())
	}
	if r.Chapters < l.MinChapters || r.Chapters > l.MaxChapters {
		return fmt.Errorf("invalid chapter count. Must be between %d and %d", l.MinChapters, l.MaxChapters)
	}
	return nil
}
