package prompts

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"text/template"
)

// variablePattern matches Go template variable references like {{.VarName}} or {{ .VarName }}
// Also matches nested fields like {{.Chapter.Title}}
var variablePattern = regexp.MustCompile(`\{\{\s*\.([a-zA-Z_][a-zA-Z0-9_.]*)\s*\}\}`)

// ExtractVariables extracts template variable names from a Go template string.
// For example, "Chapter {{.Index}} of {{.Total}}" returns ["Index", "Total"].
// Nested fields like {{.Chapter.Title}} return "Chapter.Title".
func ExtractVariables(text string) []string {
	matches := variablePattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool)
	var vars []string

	for _, match := range matches {
		if len(match) > 1 {
			varName := match[1]
			if !seen[varName] {
				seen[varName] = true
				vars = append(vars, varName)
			}
		}
	}

	// Sort for consistent ordering
	sort.Strings(vars)
	return vars
}

// HashText returns a SHA256 hash of the text for change detection.
func HashText(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// Render parses text as a Go template named key and executes it with data.
func Render(key, text string, data any) (string, error) {
	tmpl, err := template.New(key).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse prompt %s: %w", key, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", key, err)
	}
	return buf.String(), nil
}
