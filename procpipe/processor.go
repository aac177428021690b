package procpipe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Processor extracts Markdown from one family of document files.
//
// Process never returns a Go error: every failure mode is folded into the
// Result so callers hold a single uniform outcome type. Run is the only
// supported entry point; it adds validation, timing and panic containment
// around Process.
type Processor interface {
	// FileType is the stable tag recorded in result metadata ("pdf", ...).
	FileType() string

	// SupportedExtensions lists lowercase extensions with leading dot.
	SupportedExtensions() []string

	// Process extracts content from a validated file.
	Process(ctx context.Context, path string) *Result
}

// VisionClient extracts text from a binary document payload via a remote
// vision-language model. Implemented by vision.Client; faked in tests.
type VisionClient interface {
	ExtractDocument(ctx context.Context, data []byte, mimeType string) (string, error)
}

// ValidateFile checks that path is an existing, non-empty regular file with
// an extension the processor supports.
func ValidateFile(path string, extensions []string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("file is empty: %s", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if ext == e {
			return nil
		}
	}
	return fmt.Errorf("unsupported extension %q", ext)
}

// Run executes the shared processing lifecycle: validate, invoke, stamp the
// elapsed wall-clock time, normalize the result shape. A validation failure
// short-circuits without calling Process. A panic inside Process becomes a
// failure result.
func Run(ctx context.Context, p Processor, path string) (res *Result) {
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			res = Failed(fmt.Sprintf("processing panic: %v", rec), nil)
		}
		if res == nil {
			res = Failed("processor returned no result", nil)
		}
		res.normalize()
		res.ProcessingTime = time.Since(start).Seconds()
	}()

	if err := ValidateFile(path, p.SupportedExtensions()); err != nil {
		return Failed(fmt.Sprintf("file validation failed: %v", err), nil)
	}

	return p.Process(ctx, path)
}
