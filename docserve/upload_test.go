package docserve

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUniqueFilename(t *testing.T) {
	a := UniqueFilename("report.pdf")
	b := UniqueFilename("report.pdf")
	if a == b {
		t.Fatalf("two uploads got the same name: %q", a)
	}
	if !strings.HasSuffix(a, "_report.pdf") {
		t.Fatalf("original name lost: %q", a)
	}
}

// WHAT: uploaded filenames are used to build paths under the upload dir.
// WHY: a crafted name like "../../etc/passwd" must not escape it.
func TestUniqueFilenameSanitizesTraversal(t *testing.T) {
	for _, evil := range []string{
		"../../etc/passwd",
		"..\\..\\windows\\system32",
		"a/b/c.pdf",
		"nul\x00byte.pdf",
	} {
		name := UniqueFilename(evil)
		if strings.ContainsAny(name, "/\\\x00") {
			t.Errorf("separator survived: %q -> %q", evil, name)
		}
		if strings.Contains(name, "..") {
			t.Errorf("dotdot survived: %q -> %q", evil, name)
		}
	}
}

func TestSaveUploadWritesFile(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveUpload(strings.NewReader("hello"), "doc.html", dir, 1024)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("saved outside dir: %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Fatalf("content = %q", data)
	}
}

func TestSaveUploadEnforcesLimit(t *testing.T) {
	dir := t.TempDir()
	_, err := SaveUpload(strings.NewReader(strings.Repeat("a", 100)), "doc.html", dir, 50)
	if !errors.Is(err, ErrUploadTooLarge) {
		t.Fatalf("err = %v, want ErrUploadTooLarge", err)
	}
	// The partial file must not survive.
	entries, _ := filepath.Glob(filepath.Join(dir, "*"))
	if len(entries) != 0 {
		t.Fatalf("partial upload left behind: %v", entries)
	}
}

func TestSaveUploadExactLimit(t *testing.T) {
	dir := t.TempDir()
	if _, err := SaveUpload(strings.NewReader(strings.Repeat("a", 50)), "doc.html", dir, 50); err != nil {
		t.Fatalf("exact-size upload rejected: %v", err)
	}
}
