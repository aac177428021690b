// pdfbatch splits a large PDF into page-range chunks and extracts them in
// parallel on a fixed worker pool, reassembling the output in page order.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/docmill/docmill/procpipe"
)

func main() {
	in := flag.String("in", "", "input PDF path")
	out := flag.String("out", "", "output Markdown path (default: stdout)")
	chunks := flag.Int("chunks", 4, "number of page-range chunks")
	workers := flag.Int("workers", 4, "worker pool size")
	workDir := flag.String("workdir", "", "chunk directory (default: temp dir)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if *in == "" {
		fmt.Fprintln(os.Stderr, "usage: pdfbatch -in document.pdf [-out out.md] [-chunks N] [-workers N]")
		os.Exit(2)
	}

	dir := *workDir
	if dir == "" {
		tmp, err := os.MkdirTemp("", "pdfbatch")
		if err != nil {
			slog.Error("workdir", "error", err)
			os.Exit(1)
		}
		defer os.RemoveAll(tmp)
		dir = tmp
	}

	paths, err := procpipe.SplitPDF(*in, dir, *chunks)
	if err != nil {
		slog.Error("split", "error", err)
		os.Exit(1)
	}
	slog.Info("split", "file", filepath.Base(*in), "chunks", len(paths))

	ctx := context.Background()
	proc := procpipe.NewPDFProcessor(procpipe.Config{Logger: logger}, nil)

	parts, err := procpipe.ProcessChunks(ctx, paths, *workers, func(ctx context.Context, chunkPath string) (string, error) {
		res := procpipe.Run(ctx, proc, chunkPath)
		if !res.Success {
			return "", fmt.Errorf("%s", res.Error)
		}
		return res.Content, nil
	})
	if err != nil {
		slog.Error("process", "error", err)
		os.Exit(1)
	}

	md := strings.Join(parts, "\n\n---\n\n")
	if *out == "" {
		fmt.Println(md)
		return
	}
	if err := os.WriteFile(*out, []byte(md), 0o644); err != nil {
		slog.Error("write output", "error", err)
		os.Exit(1)
	}
	slog.Info("done", "output", *out)
}
