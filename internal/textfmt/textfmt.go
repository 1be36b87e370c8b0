// Package textfmt normalises provider output for display.
//
// Transcription and translation models return text with inconsistent
// whitespace: stray spaces, hard-wrapped lines inside a paragraph, runs of
// blank lines between paragraphs. FormatStructured flattens each paragraph to
// a single line and separates paragraphs with exactly one blank line.
package textfmt

import (
	"regexp"
	"strings"
)

var (
	paraSplit     = regexp.MustCompile(`\n\s*\n`)
	spaceCollapse = regexp.MustCompile(`\s+`)
)

// FormatStructured normalises whitespace and paragraph spacing for
// readability. Empty or whitespace-only input returns "".
func FormatStructured(text string) string {
	stripped := strings.TrimSpace(text)
	if stripped == "" {
		return ""
	}

	var paragraphs []string
	for _, block := range paraSplit.Split(stripped, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		var lines []string
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			lines = append(lines, spaceCollapse.ReplaceAllString(line, " "))
		}
		if normalized := strings.Join(lines, " "); normalized != "" {
			paragraphs = append(paragraphs, normalized)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}
