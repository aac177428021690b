package procpipe

import (
	"fmt"
	"path/filepath"
	"strings"
)

// typeExtensions maps the processor type tag to its file extensions.
var typeExtensions = map[string][]string{
	"pdf":   {".pdf"},
	"image": {".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tiff", ".tif"},
	"excel": {".xlsx", ".xls", ".xlsm"},
	"html":  {".html", ".htm"},
}

// TypeForFile returns the processor type tag for a filename, or "" when the
// extension is not supported.
func TypeForFile(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	for t, exts := range typeExtensions {
		for _, e := range exts {
			if ext == e {
				return t
			}
		}
	}
	return ""
}

// SupportedTypes returns the type tags and their extensions, for the
// supported-types endpoint and the MCP formats tool.
func SupportedTypes() map[string][]string {
	out := make(map[string][]string, len(typeExtensions))
	for t, exts := range typeExtensions {
		out[t] = append([]string(nil), exts...)
	}
	return out
}

// New builds the processor for a type tag. An unknown tag is a programming
// error on the caller's side (the tag should come from TypeForFile) and
// returns an error rather than a failure result.
func New(fileType string, cfg Config, vc VisionClient) (Processor, error) {
	switch fileType {
	case "pdf":
		return NewPDFProcessor(cfg, vc), nil
	case "image":
		return NewImageProcessor(cfg, vc)
	case "excel":
		return NewExcelProcessor(cfg), nil
	case "html":
		return NewHTMLProcessor(cfg), nil
	default:
		return nil, fmt.Errorf("no processor for file type %q", fileType)
	}
}
