package procpipe

import (
	"regexp"
	"strings"
)

var (
	imageRefRe  = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	blankRunsRe = regexp.MustCompile(`\n\s*\n\s*\n+`)
)

// cleanMarkdown strips embedded image references and collapses runs of
// three or more blank lines into a single blank line.
func cleanMarkdown(md string) string {
	md = imageRefRe.ReplaceAllString(md, "")
	md = blankRunsRe.ReplaceAllString(md, "\n\n")
	return strings.TrimSpace(md)
}

// pageSeparator joins per-page Markdown with a page boundary marker.
const pageSeparator = "\n\n---\n\n"

func joinPages(pages []string) string {
	var nonEmpty []string
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, strings.TrimSpace(p))
		}
	}
	return strings.Join(nonEmpty, pageSeparator)
}

// escapePipes protects cell content inside a Markdown table row.
func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
