package docserve

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrUploadTooLarge marks an upload exceeding the configured size limit.
var ErrUploadTooLarge = errors.New("upload exceeds size limit")

// SaveUpload streams an uploaded file to dir under a collision-free name
// and returns the path. The reader is limited to maxBytes; an oversized
// upload is deleted and reported as ErrUploadTooLarge.
func SaveUpload(r io.Reader, originalName, dir string, maxBytes int64) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("upload dir: %w", err)
	}

	name := UniqueFilename(originalName)
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}

	// +1 to detect overflow.
	n, err := io.Copy(f, io.LimitReader(r, maxBytes+1))
	closeErr := f.Close()
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if closeErr != nil {
		os.Remove(path)
		return "", fmt.Errorf("close upload: %w", closeErr)
	}
	if n > maxBytes {
		os.Remove(path)
		return "", ErrUploadTooLarge
	}
	return path, nil
}

// UniqueFilename prefixes a sanitized base name with a short random id so
// concurrent uploads of the same file never collide.
func UniqueFilename(originalName string) string {
	base := sanitizeFilename(filepath.Base(originalName))
	return uuid.NewString()[:8] + "_" + base
}

// sanitizeFilename strips path separators and control characters.
// dossier/file names are used in paths, so traversal sequences must die here.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "..", "_")
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == 0:
			sb.WriteByte('_')
		case r < 0x20:
			sb.WriteByte('_')
		default:
			sb.WriteRune(r)
		}
	}
	out := sb.String()
	if out == "" || out == "." {
		return "upload"
	}
	return out
}

// Cleanup removes a processed upload. Best effort.
func Cleanup(path string) {
	if path == "" {
		return
	}
	os.Remove(path)
}
