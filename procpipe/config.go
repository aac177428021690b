package procpipe

import "log/slog"

// Config configures the document processors.
type Config struct {
	// Model is the vision-language model name sent to the remote endpoint.
	Model string `json:"model" yaml:"model"`

	// SaveIntermediate keeps per-branch intermediate output for debugging.
	SaveIntermediate bool `json:"save_intermediate" yaml:"save_intermediate"`

	// IntermediateDir is where intermediate files are written when enabled.
	IntermediateDir string `json:"intermediate_dir" yaml:"intermediate_dir"`

	// Heuristics tunes the PDF page-layout classifier.
	Heuristics Heuristics `json:"heuristics" yaml:"heuristics"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

// Heuristics holds the thresholds for the scanned/hybrid/text PDF decision.
// Zero values fall back to the defaults.
type Heuristics struct {
	// MinTextChars: a document whose total extracted text is shorter than
	// this counts as scanned (default 100).
	MinTextChars int `json:"min_text_chars" yaml:"min_text_chars"`

	// TableLinesPerPage: pages with at least this many table-like lines
	// count as table pages (default 3).
	TableLinesPerPage int `json:"table_lines_per_page" yaml:"table_lines_per_page"`

	// TablePagesForHybrid: this many table pages promote the document to
	// hybrid (default 2).
	TablePagesForHybrid int `json:"table_pages_for_hybrid" yaml:"table_pages_for_hybrid"`

	// LineVarianceLimit: line-length variance above this marks a page
	// layout-complex (default 1000).
	LineVarianceLimit float64 `json:"line_variance_limit" yaml:"line_variance_limit"`

	// DigitRatioLimit: digit density above this marks a page layout-complex
	// (default 0.15).
	DigitRatioLimit float64 `json:"digit_ratio_limit" yaml:"digit_ratio_limit"`
}

func (h *Heuristics) defaults() {
	if h.MinTextChars <= 0 {
		h.MinTextChars = 100
	}
	if h.TableLinesPerPage <= 0 {
		h.TableLinesPerPage = 3
	}
	if h.TablePagesForHybrid <= 0 {
		h.TablePagesForHybrid = 2
	}
	if h.LineVarianceLimit <= 0 {
		h.LineVarianceLimit = 1000.0
	}
	if h.DigitRatioLimit <= 0 {
		h.DigitRatioLimit = 0.15
	}
}

func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = "gemini-2.5-pro"
	}
	if c.IntermediateDir == "" {
		c.IntermediateDir = "intermediate"
	}
	c.Heuristics.defaults()
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
