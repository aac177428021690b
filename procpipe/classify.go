package procpipe

import (
	"regexp"
	"strings"
	"unicode"
)

// Classification is the three-way routing decision for a PDF.
type Classification string

const (
	// ClassScanned: no usable text layer, the whole file goes to the
	// vision-language model.
	ClassScanned Classification = "scanned"
	// ClassHybrid: a text layer exists but the layout is complex (tables,
	// columns, dense numerics), so structure-aware conversion is used.
	ClassHybrid Classification = "hybrid"
	// ClassText: a simple text layer, extracted directly.
	ClassText Classification = "text"
)

// AnalyzePDF classifies a PDF on disk. The decision is a pure function of
// the file's text layer and the thresholds: same input, same answer.
func AnalyzePDF(path string, h Heuristics) (Classification, error) {
	doc, err := loadPDF(path)
	if err != nil {
		return "", err
	}
	return classifyPages(doc.pageTexts, h), nil
}

var spaceRunRe = regexp.MustCompile(` {5,}`)
var multiGapRe = regexp.MustCompile(`[ \t]{2,}`)

// classifyPages applies the layout heuristics to per-page text.
func classifyPages(pages []string, h Heuristics) Classification {
	h.defaults()

	if totalTextLen(pages) < h.MinTextChars {
		return ClassScanned
	}

	layoutComplex := false
	tablePages := 0

	for _, page := range pages {
		if page == "" {
			continue
		}

		// Tabs or long space runs betray column alignment.
		if strings.Contains(page, "\t") || spaceRunRe.MatchString(page) {
			layoutComplex = true
		}

		lines := strings.Split(page, "\n")

		tableLines := 0
		var lens []int
		for _, line := range lines {
			if strings.TrimSpace(line) == "" {
				continue
			}
			lens = append(lens, len([]rune(line)))
			if isTableLikeLine(line) {
				tableLines++
			}
		}
		if tableLines >= h.TableLinesPerPage {
			tablePages++
			layoutComplex = true
		}

		if lineLengthVariance(lens) > h.LineVarianceLimit {
			layoutComplex = true
		}

		if digitRatio(page) > h.DigitRatioLimit {
			layoutComplex = true
		}
	}

	if layoutComplex || tablePages >= h.TablePagesForHybrid {
		return ClassHybrid
	}
	return ClassText
}

// isTableLikeLine reports whether a line looks like a table row: multiple
// pipe or tab separators, or three or more segments split by runs of
// whitespace.
func isTableLikeLine(line string) bool {
	if strings.Count(line, "|") >= 2 || strings.Count(line, "\t") >= 2 {
		return true
	}
	segments := 0
	for _, seg := range multiGapRe.Split(strings.TrimSpace(line), -1) {
		if seg != "" {
			segments++
		}
	}
	return segments >= 3
}

// lineLengthVariance is the population variance of line lengths.
func lineLengthVariance(lens []int) float64 {
	if len(lens) == 0 {
		return 0
	}
	sum := 0
	for _, n := range lens {
		sum += n
	}
	mean := float64(sum) / float64(len(lens))
	var acc float64
	for _, n := range lens {
		d := float64(n) - mean
		acc += d * d
	}
	return acc / float64(len(lens))
}

// digitRatio is the share of digit runes among all runes of the text.
func digitRatio(text string) float64 {
	runes := []rune(text)
	if len(runes) == 0 {
		return 0
	}
	digits := 0
	for _, r := range runes {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return float64(digits) / float64(len(runes))
}
