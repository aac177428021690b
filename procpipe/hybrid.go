package procpipe

import (
	"context"
	"fmt"
	"strings"
)

// LayoutConverter converts a PDF with complex layout into Markdown that
// keeps its structure (tables, column alignment) readable.
type LayoutConverter interface {
	Convert(ctx context.Context, path string) (*LayoutResult, error)
}

// LayoutResult is the output of a layout-aware conversion.
type LayoutResult struct {
	Markdown  string
	PageCount int
}

// structuredConverter is the built-in LayoutConverter. It re-reads the text
// layer page by page and renders runs of table-like lines as Markdown
// tables, leaving prose lines untouched.
type structuredConverter struct {
	h Heuristics
}

// NewLayoutConverter returns the built-in structure-preserving converter.
func NewLayoutConverter(h Heuristics) LayoutConverter {
	h.defaults()
	return &structuredConverter{h: h}
}

func (c *structuredConverter) Convert(ctx context.Context, path string) (*LayoutResult, error) {
	doc, err := loadPDF(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages := make([]string, 0, len(doc.pageTexts))
	for _, page := range doc.pageTexts {
		pages = append(pages, renderPage(page))
	}
	md := joinPages(pages)
	if strings.TrimSpace(md) == "" {
		return nil, fmt.Errorf("no text layer to convert")
	}
	return &LayoutResult{Markdown: md, PageCount: doc.pageCount}, nil
}

// renderPage converts one page of raw text into Markdown. Consecutive
// table-like lines are grouped into a Markdown table; everything else
// passes through with whitespace normalized per line.
func renderPage(text string) string {
	lines := strings.Split(text, "\n")

	var out []string
	var tableRows [][]string

	flushTable := func() {
		if len(tableRows) == 0 {
			return
		}
		// A lone table-like line is not worth a table.
		if len(tableRows) == 1 {
			out = append(out, strings.Join(tableRows[0], " "))
			tableRows = nil
			return
		}
		out = append(out, renderTable(tableRows)...)
		tableRows = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flushTable()
			out = append(out, "")
			continue
		}
		if isTableLikeLine(line) {
			tableRows = append(tableRows, splitCells(trimmed))
			continue
		}
		flushTable()
		out = append(out, strings.Join(strings.Fields(trimmed), " "))
	}
	flushTable()

	return strings.Join(out, "\n")
}

// splitCells breaks a table-like line into cell values.
func splitCells(line string) []string {
	var parts []string
	if strings.Count(line, "|") >= 2 {
		parts = strings.Split(strings.Trim(line, "|"), "|")
	} else if strings.Count(line, "\t") >= 2 {
		parts = strings.Split(line, "\t")
	} else {
		parts = multiGapRe.Split(line, -1)
	}
	var cells []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			cells = append(cells, p)
		}
	}
	return cells
}

// renderTable emits Markdown table rows, padding short rows to the widest.
func renderTable(rows [][]string) []string {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}

	var out []string
	for i, row := range rows {
		cells := make([]string, width)
		for j := range cells {
			if j < len(row) {
				cells[j] = escapePipes(row[j])
			}
		}
		out = append(out, "| "+strings.Join(cells, " | ")+" |")
		if i == 0 {
			sep := make([]string, width)
			for j := range sep {
				sep[j] = "---"
			}
			out = append(out, "| "+strings.Join(sep, " | ")+" |")
		}
	}
	return out
}
