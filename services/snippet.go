package services

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const snippetWindow = 150

var (
	headingMarkers = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	linkSyntax     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	emphasisRuns   = regexp.MustCompile(`\*{1,3}|_{1,3}`)
	codeTicks      = regexp.MustCompile("`+")
	blankRuns      = regexp.MustCompile(`\s+`)
)

// StripMarkdown removes common markdown decoration so snippets read as plain
// prose: heading markers, bold/italic markers, inline code ticks, and link
// syntax reduced to the link text.
func StripMarkdown(text string) string {
	text = headingMarkers.ReplaceAllString(text, "")
	text = linkSyntax.ReplaceAllString(text, "$1")
	text = emphasisRuns.ReplaceAllString(text, "")
	text = codeTicks.ReplaceAllString(text, "")
	return strings.TrimSpace(blankRuns.ReplaceAllString(text, " "))
}

// BuildSnippet extracts a ~150-character window of content centered on the
// first query word found, checked in query order, case-insensitive. The
// window is prefixed with "..." when it does not start at the beginning of
// the document and suffixed likewise when it does not reach the end.
func BuildSnippet(content string, queryWords []string) string {
	plain := StripMarkdown(content)
	if plain == "" {
		return ""
	}

	lower := strings.ToLower(plain)
	matchAt := -1
	for _, word := range queryWords {
		if at := strings.Index(lower, strings.ToLower(word)); at >= 0 {
			matchAt = at
			break
		}
	}
	if matchAt < 0 {
		matchAt = 0
	}

	start := matchAt - snippetWindow/2
	if start < 0 {
		start = 0
	}
	end := start + snippetWindow
	if end > len(plain) {
		end = len(plain)
		start = end - snippetWindow
		if start < 0 {
			start = 0
		}
	}

	// The window is sized in bytes; widen it to the nearest rune boundaries
	// so a multibyte character on an edge is never cut in half.
	for start > 0 && !utf8.RuneStart(plain[start]) {
		start--
	}
	for end < len(plain) && !utf8.RuneStart(plain[end]) {
		end++
	}

	snippet := plain[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(plain) {
		snippet = snippet + "..."
	}
	return snippet
}
