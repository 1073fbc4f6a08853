package library

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	mdCodeBlock  = regexp.MustCompile("(?s)```[^`]*```")
	mdInlineCode = regexp.MustCompile("`([^`]+)`")
	mdImage      = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	mdLink       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdHeading    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdEmphasis   = regexp.MustCompile(`(\*\*|__|\*|_)(\S(?:.*?\S)?)(\*\*|__|\*|_)`)
	mdQuote      = regexp.MustCompile(`(?m)^>\s*`)
	mdRule       = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	mdBullet     = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	mdNumbered   = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	mdBlankRuns  = regexp.MustCompile(`\n{3,}`)
)

// isMarkdown reports whether path holds markdown.
func isMarkdown(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".md")
}

// markdownTitle returns the first level-one heading, or "" if there is none.
func markdownTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return ""
}

// stripMarkdown reduces one page of markdown to the text a reader sees.
// Fenced code is dropped; inline code keeps its text.
func stripMarkdown(page string) string {
	page = mdCodeBlock.ReplaceAllString(page, "")
	page = mdInlineCode.ReplaceAllString(page, "$1")
	page = mdImage.ReplaceAllString(page, "")
	page = mdLink.ReplaceAllString(page, "$1")
	page = mdHeading.ReplaceAllString(page, "")
	page = mdEmphasis.ReplaceAllString(page, "$2")
	page = mdQuote.ReplaceAllString(page, "")
	page = mdRule.ReplaceAllString(page, "")
	page = mdBullet.ReplaceAllString(page, "")
	page = mdNumbered.ReplaceAllString(page, "")
	page = mdBlankRuns.ReplaceAllString(page, "\n\n")
	return strings.TrimSpace(page)
}
