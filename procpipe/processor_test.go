package procpipe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fakeProcessor records calls and returns a canned result.
type fakeProcessor struct {
	calls  int
	result *Result
	sleep  time.Duration
	panics bool
}

func (f *fakeProcessor) FileType() string { return "fake" }

func (f *fakeProcessor) SupportedExtensions() []string { return []string{".txt"} }

func (f *fakeProcessor) Process(_ context.Context, _ string) *Result {
	f.calls++
	if f.panics {
		panic("boom")
	}
	if f.sleep > 0 {
		time.Sleep(f.sleep)
	}
	return f.result
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunSuccess(t *testing.T) {
	fp := &fakeProcessor{result: Succeeded("# hello", map[string]any{"k": "v"})}
	res := Run(context.Background(), fp, writeTemp(t, "doc.txt", "content"))

	if !res.Success {
		t.Fatalf("success = false, error = %q", res.Error)
	}
	if res.Content != "# hello" {
		t.Fatalf("content = %q", res.Content)
	}
	if res.Error != "" {
		t.Fatalf("error = %q, want empty", res.Error)
	}
	if fp.calls != 1 {
		t.Fatalf("calls = %d, want 1", fp.calls)
	}
}

// Validation failures must short-circuit: Process is never invoked and the
// error names the validation stage.
func TestRunValidationShortCircuits(t *testing.T) {
	cases := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string {
			return filepath.Join(t.TempDir(), "nope.txt")
		}},
		{"empty file", func(t *testing.T) string {
			return writeTemp(t, "empty.txt", "")
		}},
		{"wrong extension", func(t *testing.T) string {
			return writeTemp(t, "doc.pdf", "content")
		}},
		{"directory", func(t *testing.T) string {
			return t.TempDir()
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			fp := &fakeProcessor{result: Succeeded("x", nil)}
			res := Run(context.Background(), fp, c.path(t))

			if res.Success {
				t.Fatal("success = true, want failure")
			}
			if !strings.Contains(res.Error, "file validation failed") {
				t.Fatalf("error = %q, want validation failure", res.Error)
			}
			if fp.calls != 0 {
				t.Fatalf("calls = %d, want 0", fp.calls)
			}
		})
	}
}

// The wrapper owns the clock: whatever the processor wrote into
// ProcessingTime is overwritten with the measured elapsed time.
func TestRunOverwritesProcessingTime(t *testing.T) {
	fp := &fakeProcessor{
		result: &Result{Success: true, Content: "x", ProcessingTime: 999},
		sleep:  20 * time.Millisecond,
	}
	res := Run(context.Background(), fp, writeTemp(t, "doc.txt", "content"))

	if res.ProcessingTime >= 999 {
		t.Fatalf("processing_time = %f, processor value not overwritten", res.ProcessingTime)
	}
	if res.ProcessingTime < 0.02 {
		t.Fatalf("processing_time = %f, want >= 0.02", res.ProcessingTime)
	}
}

func TestRunFailureAlsoTimed(t *testing.T) {
	fp := &fakeProcessor{result: Failed("nope", nil), sleep: 10 * time.Millisecond}
	res := Run(context.Background(), fp, writeTemp(t, "doc.txt", "content"))

	if res.Success {
		t.Fatal("success = true, want failure")
	}
	if res.ProcessingTime < 0.01 {
		t.Fatalf("processing_time = %f, want >= 0.01", res.ProcessingTime)
	}
}

func TestRunRecoversPanic(t *testing.T) {
	fp := &fakeProcessor{panics: true}
	res := Run(context.Background(), fp, writeTemp(t, "doc.txt", "content"))

	if res.Success {
		t.Fatal("success = true, want failure")
	}
	if !strings.Contains(res.Error, "boom") {
		t.Fatalf("error = %q, want panic message", res.Error)
	}
}

// success ⇔ non-empty content ⇔ empty error. Run repairs results that
// violate the coupling.
func TestRunNormalizesResultShape(t *testing.T) {
	t.Run("success without content becomes failure", func(t *testing.T) {
		fp := &fakeProcessor{result: &Result{Success: true, Content: "   "}}
		res := Run(context.Background(), fp, writeTemp(t, "doc.txt", "content"))
		if res.Success {
			t.Fatal("success = true, want failure")
		}
		if res.Error == "" {
			t.Fatal("error is empty, want message")
		}
	})

	t.Run("failure keeps no content", func(t *testing.T) {
		fp := &fakeProcessor{result: &Result{Success: false, Content: "leftover", Error: "bad"}}
		res := Run(context.Background(), fp, writeTemp(t, "doc.txt", "content"))
		if res.Content != "" {
			t.Fatalf("content = %q, want empty", res.Content)
		}
	})

	t.Run("failure without message gets one", func(t *testing.T) {
		fp := &fakeProcessor{result: &Result{Success: false}}
		res := Run(context.Background(), fp, writeTemp(t, "doc.txt", "content"))
		if res.Error == "" {
			t.Fatal("error is empty, want message")
		}
	})
}

func TestResultToMap(t *testing.T) {
	r := Succeeded("text", map[string]any{"file_type": "pdf"})
	r.ProcessingTime = 1.5
	m := r.ToMap()
	if m["success"] != true || m["content"] != "text" || m["processing_time"] != 1.5 {
		t.Fatalf("unexpected map: %v", m)
	}
	if _, ok := m["error"]; ok {
		t.Fatal("error key present on success")
	}
}
