package procpipe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PDFProcessor routes a PDF to one of three extraction paths based on its
// text layer: direct text, structure-aware conversion, or full remote
// vision extraction for scanned documents.
type PDFProcessor struct {
	cfg    Config
	vision VisionClient
	layout LayoutConverter

	// load reads the text layer; overridable in tests.
	load func(path string) (*pdfDocument, error)
}

// NewPDFProcessor creates a PDF processor. vc may be nil: the scanned
// branch then degrades to a failure result at call time, the text and
// hybrid branches are unaffected.
func NewPDFProcessor(cfg Config, vc VisionClient) *PDFProcessor {
	cfg.defaults()
	return &PDFProcessor{
		cfg:    cfg,
		vision: vc,
		layout: NewLayoutConverter(cfg.Heuristics),
		load:   loadPDF,
	}
}

func (p *PDFProcessor) FileType() string { return "pdf" }

func (p *PDFProcessor) SupportedExtensions() []string { return []string{".pdf"} }

func (p *PDFProcessor) Process(ctx context.Context, path string) *Result {
	log := p.cfg.Logger.With("file", filepath.Base(path))

	doc, err := p.load(path)
	if err != nil {
		return Failed(fmt.Sprintf("read pdf: %v", err), p.metadata("", doc))
	}

	class := classifyPages(doc.pageTexts, p.cfg.Heuristics)
	log.Info("pdf classified", "classification", class, "pages", doc.pageCount)

	var content string
	var procErr error
	switch class {
	case ClassText:
		content = joinPages(doc.pageTexts)
	case ClassHybrid:
		content, procErr = p.convertLayout(ctx, path)
	case ClassScanned:
		content, procErr = p.extractScanned(ctx, path)
	}
	if procErr != nil {
		return Failed(procErr.Error(), p.metadata(class, doc))
	}

	content = cleanMarkdown(content)
	if p.cfg.SaveIntermediate {
		p.saveIntermediate(path, string(class), content)
	}
	return Succeeded(content, p.metadata(class, doc))
}

func (p *PDFProcessor) convertLayout(ctx context.Context, path string) (string, error) {
	res, err := p.layout.Convert(ctx, path)
	if err != nil {
		return "", fmt.Errorf("layout conversion: %w", err)
	}
	return res.Markdown, nil
}

// extractScanned sends the whole file to the vision model in one call.
func (p *PDFProcessor) extractScanned(ctx context.Context, path string) (string, error) {
	if p.vision == nil {
		return "", fmt.Errorf("scanned pdf requires a vision endpoint, none configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	text, err := p.vision.ExtractDocument(ctx, data, "application/pdf")
	if err != nil {
		return "", fmt.Errorf("vision extraction: %w", err)
	}
	return text, nil
}

func (p *PDFProcessor) metadata(class Classification, doc *pdfDocument) map[string]any {
	md := map[string]any{
		"file_type": "pdf",
	}
	if class != "" {
		md["classification"] = string(class)
		md["is_scanned"] = class == ClassScanned
	}
	if doc != nil {
		md["pages_count"] = doc.pageCount
		md["has_images"] = doc.hasImages
	}
	return md
}

// saveIntermediate writes branch output for debugging. Best effort.
func (p *PDFProcessor) saveIntermediate(srcPath, branch, content string) {
	if err := os.MkdirAll(p.cfg.IntermediateDir, 0o755); err != nil {
		p.cfg.Logger.Warn("intermediate dir", "error", err)
		return
	}
	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	out := filepath.Join(p.cfg.IntermediateDir, base+"."+branch+".md")
	if err := os.WriteFile(out, []byte(content), 0o644); err != nil {
		p.cfg.Logger.Warn("intermediate write", "error", err, "path", out)
	}
}
