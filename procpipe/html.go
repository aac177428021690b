package procpipe

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var hiddenStylePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)display\s*:\s*none`),
	regexp.MustCompile(`(?i)visibility\s*:\s*hidden`),
	regexp.MustCompile(`(?i)font-size\s*:\s*0[^1-9]`),
	regexp.MustCompile(`(?i)opacity\s*:\s*0[^.]`),
}

// HTMLProcessor strips page chrome from an HTML document, sanitizes what
// remains, and converts it to Markdown.
type HTMLProcessor struct {
	cfg       Config
	policy    *bluemonday.Policy
	converter *converter.Converter
}

// NewHTMLProcessor creates an HTML processor.
func NewHTMLProcessor(cfg Config) *HTMLProcessor {
	cfg.defaults()
	return &HTMLProcessor{
		cfg:    cfg,
		policy: bluemonday.UGCPolicy(),
		converter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

func (p *HTMLProcessor) FileType() string { return "html" }

func (p *HTMLProcessor) SupportedExtensions() []string {
	return []string{".html", ".htm"}
}

func (p *HTMLProcessor) Process(ctx context.Context, path string) *Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return Failed(fmt.Sprintf("read html: %v", err), p.metadata("", 0))
	}

	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return Failed(fmt.Sprintf("parse html: %v", err), p.metadata("", len(data)))
	}
	title := findTitle(doc)

	stripChrome(doc)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return Failed(fmt.Sprintf("render html: %v", err), p.metadata(title, len(data)))
	}

	clean := p.policy.Sanitize(buf.String())

	md, err := p.converter.ConvertString(clean)
	if err != nil {
		return Failed(fmt.Sprintf("markdown conversion: %v", err), p.metadata(title, len(data)))
	}

	return Succeeded(cleanMarkdown(md), p.metadata(title, len(data)))
}

func (p *HTMLProcessor) metadata(title string, size int) map[string]any {
	md := map[string]any{
		"file_type": "html",
		"file_size": size,
	}
	if title != "" {
		md["title"] = title
	}
	return md
}

// findTitle extracts the <title> text.
func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		if n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// stripChrome removes boilerplate, hidden elements and comments in place.
func stripChrome(n *html.Node) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if isChrome(c) {
			n.RemoveChild(c)
			continue
		}
		stripChrome(c)
	}
}

func isChrome(n *html.Node) bool {
	if n.Type == html.CommentNode {
		return true
	}
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Nav, atom.Header, atom.Footer, atom.Aside,
		atom.Title, atom.Meta, atom.Link:
		return true
	}
	return hasHiddenStyle(n)
}

func hasHiddenStyle(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key != "style" {
			continue
		}
		for _, pat := range hiddenStylePatterns {
			if pat.MatchString(a.Val) {
				return true
			}
		}
	}
	return false
}
