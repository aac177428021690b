package procpipe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// imageMIMETypes maps supported image extensions to MIME types.
var imageMIMETypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
}

// ImageProcessor extracts text from a single image via the vision model.
type ImageProcessor struct {
	cfg    Config
	vision VisionClient
}

// NewImageProcessor creates an image processor. Unlike the PDF variant,
// the vision client is mandatory here: images have no local fallback.
func NewImageProcessor(cfg Config, vc VisionClient) (*ImageProcessor, error) {
	if vc == nil {
		return nil, fmt.Errorf("image processing requires a vision endpoint")
	}
	cfg.defaults()
	return &ImageProcessor{cfg: cfg, vision: vc}, nil
}

func (p *ImageProcessor) FileType() string { return "image" }

func (p *ImageProcessor) SupportedExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tiff", ".tif"}
}

func (p *ImageProcessor) Process(ctx context.Context, path string) *Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return Failed(fmt.Sprintf("read image: %v", err), p.metadata(0))
	}

	mime := imageMIMETypes[strings.ToLower(filepath.Ext(path))]
	if mime == "" {
		mime = "image/jpeg"
	}

	text, err := p.vision.ExtractDocument(ctx, data, mime)
	if err != nil {
		return Failed(fmt.Sprintf("vision extraction: %v", err), p.metadata(len(data)))
	}

	md := p.metadata(len(data))
	md["mime_type"] = mime
	return Succeeded(cleanMarkdown(text), md)
}

func (p *ImageProcessor) metadata(size int) map[string]any {
	return map[string]any{
		"file_type": "image",
		"file_size": size,
		"model":     p.cfg.Model,
	}
}
