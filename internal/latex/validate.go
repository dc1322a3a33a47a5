package latex

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationResult reports structural problems found in a document.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues,omitempty"`
}

var environmentMarker = regexp.MustCompile(`\\(begin|end)\{([^}]+)\}`)

// Validate runs cheap structural checks on a full document. It does not
// typeset anything; a valid result only means the obvious mistakes are absent.
func Validate(doc string) ValidationResult {
	var issues []string

	if !strings.Contains(doc, `\documentclass`) {
		issues = append(issues, `missing \documentclass`)
	}
	if !strings.Contains(doc, `\begin{document}`) {
		issues = append(issues, `missing \begin{document}`)
	}
	if !strings.Contains(doc, `\end{document}`) {
		issues = append(issues, `missing \end{document}`)
	}

	issues = append(issues, checkEnvironments(doc)...)

	if depth := braceBalance(doc); depth != 0 {
		issues = append(issues, fmt.Sprintf("unbalanced braces (net %+d)", depth))
	}

	return ValidationResult{Valid: len(issues) == 0, Issues: issues}
}

func checkEnvironments(doc string) []string {
	var issues []string
	var stack []string

	for _, m := range environmentMarker.FindAllStringSubmatch(stripComments(doc), -1) {
		kind, name := m[1], m[2]
		if kind == "begin" {
			stack = append(stack, name)
			continue
		}
		if len(stack) == 0 {
			issues = append(issues, fmt.Sprintf(`\end{%s} without matching \begin`, name))
			continue
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top != name {
			issues = append(issues, fmt.Sprintf(`\begin{%s} closed by \end{%s}`, top, name))
		}
	}
	for _, name := range stack {
		issues = append(issues, fmt.Sprintf(`\begin{%s} is never closed`, name))
	}
	return issues
}

// braceBalance returns the net count of unescaped { minus }.
func braceBalance(doc string) int {
	depth := 0
	s := stripComments(doc)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++ // skip escaped character
		case '{':
			depth++
		case '}':
			depth--
		}
	}
	return depth
}

// stripComments drops everything after an unescaped % on each line.
func stripComments(doc string) string {
	lines := strings.Split(doc, "\n")
	for i, line := range lines {
		for j := 0; j < len(line); j++ {
			if line[j] == '\\' {
				j++
				continue
			}
			if line[j] == '%' {
				lines[i] = line[:j]
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}
