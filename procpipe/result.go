// Package procpipe turns uploaded documents into normalized Markdown.
//
// Each supported file type (pdf, image, excel, html) has its own Processor.
// All of them share one lifecycle: validate the file, run the type-specific
// extraction, stamp the elapsed time, and fold every failure into a Result
// so callers never see a panic or a raw error escape the pipeline.
package procpipe

import "strings"

// Result is the outcome of processing one document.
//
// Exactly one of the two shapes is valid: Success true with non-empty
// Content and empty Error, or Success false with empty Content and a
// non-empty Error. Run normalizes anything else.
type Result struct {
	Success        bool           `json:"success"`
	Content        string         `json:"content"`
	Error          string         `json:"error,omitempty"`
	ProcessingTime float64        `json:"processing_time"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Succeeded creates a successful result.
func Succeeded(content string, metadata map[string]any) *Result {
	return &Result{
		Success:  true,
		Content:  content,
		Metadata: metadata,
	}
}

// Failed creates a failure result.
func Failed(errMsg string, metadata map[string]any) *Result {
	return &Result{
		Success:  false,
		Error:    errMsg,
		Metadata: metadata,
	}
}

// normalize enforces the success/content/error coupling.
func (r *Result) normalize() {
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	if r.Success {
		if strings.TrimSpace(r.Content) == "" {
			r.Success = false
			r.Content = ""
			r.Error = "no content extracted"
			return
		}
		r.Error = ""
		return
	}
	r.Content = ""
	if r.Error == "" {
		r.Error = "processing failed"
	}
}

// ToMap flattens the result for JSON responses and the MCP tool surface.
func (r *Result) ToMap() map[string]any {
	m := map[string]any{
		"success":         r.Success,
		"content":         r.Content,
		"processing_time": r.ProcessingTime,
		"metadata":        r.Metadata,
	}
	if r.Error != "" {
		m["error"] = r.Error
	}
	return m
}
