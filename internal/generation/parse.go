package generation

import (
	"fmt"
	"regexp"
	"strings"
)

// outlineLine matches "1. Title", "1.Title", "Chapter 3: Title" and "chapter 3 Title".
var outlineLine = regexp.MustCompile(`(?i)^(?:\d+\.\s*|Chapter\s*\d+:?\s*)(.+)$`)

// ParseOutline extracts chapter titles from a model response. Lines that do
// not look like numbered entries are ignored. The result always has exactly
// expected non-empty entries: missing titles are filled with
// "Advanced Topic k" (k is the 1-based position) and extras are dropped.
func ParseOutline(raw string, expected int) []string {
	if expected <= 0 {
		return []string{}
	}

	titles := make([]string, 0, expected)
	for _, line := range strings.Split(raw, "\n") {
		m := outlineLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		if title := strings.TrimSpace(m[1]); title != "" {
			titles = append(titles, title)
		}
	}

	for len(titles) < expected {
		titles = append(titles, placeholderTitle(len(titles)+1))
	}
	return titles[:expected]
}

func placeholderTitle(k int) string {
	return fmt.Sprintf("Advanced Topic %d", k)
}

var (
	excessNewlines   = regexp.MustCompile(`\n{4,}`)
	sectionHeading   = regexp.MustCompile(`\\section\{([^}]+)\}`)
	subsection       = regexp.MustCompile(`\\subsection\{([^}]+)\}`)
	subsubsection    = regexp.MustCompile(`\\subsubsection\{([^}]+)\}`)
	beginEnvironment = regexp.MustCompile(`\\begin\{([^}]+)\}`)
	endEnvironment   = regexp.MustCompile(`\\end\{([^}]+)\}`)
	dollarDisplay    = regexp.MustCompile(`\$\$([^$]+)\$\$`)
	blankRun         = regexp.MustCompile(`\n\s*\n\s*\n`)
)

// NormalizeContent applies best-effort LaTeX cleanup to a generated chapter.
// It never rejects input. The rules run in a fixed order:
//
//  1. prepend \section{title} when the text has no \section{
//  2. limit runs of 4+ newlines to 3
//  3. newline after \section, \subsection and \subsubsection headings
//  4. newline before \begin{..} and after \end{..}
//  5. $$x$$ becomes a \[ x \] display block
//  6. collapse blank-line runs to a single blank line
//  7. trim and end with exactly one newline
func NormalizeContent(raw, title string) string {
	s := raw
	if !strings.Contains(s, `\section{`) {
		s = `\section{` + title + "}\n\n" + s
	}

	s = excessNewlines.ReplaceAllString(s, "\n\n\n")
	s = sectionHeading.ReplaceAllString(s, "\\section{${1}}\n")
	s = subsection.ReplaceAllString(s, "\\subsection{${1}}\n")
	s = subsubsection.ReplaceAllString(s, "\\subsubsection{${1}}\n")
	s = beginEnvironment.ReplaceAllString(s, "\n\\begin{${1}}")
	s = endEnvironment.ReplaceAllString(s, "\\end{${1}}\n")
	s = dollarDisplay.ReplaceAllString(s, "\n\\[\n${1}\n\\]\n")
	s = blankRun.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s) + "\n"
}
