package procpipe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// SplitPDF splits a PDF into up to chunks files of contiguous page ranges,
// written to outDir. Returns the chunk paths in page order.
func SplitPDF(path, outDir string, chunks int) ([]string, error) {
	if chunks <= 0 {
		return nil, fmt.Errorf("chunks must be > 0")
	}
	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	if chunks > pageCount {
		chunks = pageCount
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	per := (pageCount + chunks - 1) / chunks

	var paths []string
	for i := 0; i < chunks; i++ {
		first := i*per + 1
		if first > pageCount {
			break
		}
		last := first + per - 1
		if last > pageCount {
			last = pageCount
		}
		out := filepath.Join(outDir, fmt.Sprintf("%s_chunk%03d.pdf", base, i+1))
		sel := []string{fmt.Sprintf("%d-%d", first, last)}
		if err := api.TrimFile(path, out, sel, nil); err != nil {
			return nil, fmt.Errorf("trim pages %d-%d: %w", first, last, err)
		}
		paths = append(paths, out)
	}
	return paths, nil
}

// ChunkFunc processes one chunk file into Markdown.
type ChunkFunc func(ctx context.Context, chunkPath string) (string, error)

// ProcessChunks runs fn over every chunk on a fixed-size worker pool.
// Results come back indexed by submission order regardless of which worker
// finishes first, so concatenating them reproduces the document order.
func ProcessChunks(ctx context.Context, chunks []string, workers int, fn ChunkFunc) ([]string, error) {
	if workers <= 0 {
		workers = 1
	}

	results := make([]string, len(chunks))
	errs := make([]error, len(chunks))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, chunk string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			out, err := fn(ctx, chunk)
			if err != nil {
				errs[i] = fmt.Errorf("chunk %d (%s): %w", i+1, filepath.Base(chunk), err)
				return
			}
			results[i] = out
		}(i, chunk)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return results, err
	}
	return results, nil
}
