package docserve

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.UploadDir = t.TempDir()
	cfg.EventsDB = filepath.Join(t.TempDir(), "events.db")
	cfg.MaxUploadMB = 1
	return cfg
}

func testServer(t *testing.T, cfg *Config, opts ...ServerOption) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewServer(cfg, logger, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return s.Routes()
}

// multipartBody builds a multipart form with a single "file" field.
func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func postFile(t *testing.T, h http.Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, filename, content)
	req := httptest.NewRequest("POST", "/api/process", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := testServer(t, testConfig(t))
	req := httptest.NewRequest("GET", "/api/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
	// No API key configured, so vision must report disabled.
	if body["vision_enabled"] != false {
		t.Fatalf("vision_enabled = %v", body["vision_enabled"])
	}
}

func TestHealthReportsEventCount(t *testing.T) {
	cfg := testConfig(t)
	events, err := OpenEventStore(cfg.EventsDB)
	if err != nil {
		t.Fatal(err)
	}
	defer events.Close()

	h := testServer(t, cfg, WithEventStore(events))
	postFile(t, h, "page.html", []byte("<html><body><p>some body text</p></body></html>"))

	req := httptest.NewRequest("GET", "/api/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	// JSON numbers decode as float64.
	if body["events_recorded"] != float64(1) {
		t.Fatalf("events_recorded = %v, want 1", body["events_recorded"])
	}
}

func TestSupportedTypes(t *testing.T) {
	h := testServer(t, testConfig(t))
	req := httptest.NewRequest("GET", "/api/supported-types", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Types map[string][]string `json:"types"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	for _, ft := range []string{"pdf", "image", "excel", "html"} {
		if len(body.Types[ft]) == 0 {
			t.Errorf("type %q missing extensions: %v", ft, body.Types)
		}
	}
}

func TestProcessNoFile(t *testing.T) {
	h := testServer(t, testConfig(t))
	req := httptest.NewRequest("POST", "/api/process", strings.NewReader(""))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Success || body.Code != http.StatusBadRequest {
		t.Fatalf("body = %+v", body)
	}
}

func TestProcessUnsupportedType(t *testing.T) {
	h := testServer(t, testConfig(t))
	rec := postFile(t, h, "notes.txt", []byte("plain text"))

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", rec.Code)
	}
}

func TestProcessTooLarge(t *testing.T) {
	h := testServer(t, testConfig(t))
	big := bytes.Repeat([]byte("a"), 1024*1024+100)
	rec := postFile(t, h, "big.html", big)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
}

func TestProcessHTMLEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	events, err := OpenEventStore(cfg.EventsDB)
	if err != nil {
		t.Fatal(err)
	}
	defer events.Close()

	h := testServer(t, cfg, WithEventStore(events))
	html := "<html><head><title>T</title></head><body><h1>Report</h1><p>Body text.</p></body></html>"
	rec := postFile(t, h, "page.html", []byte(html))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body ProcessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Success {
		t.Fatalf("body = %+v", body)
	}
	if body.FileType != "html" {
		t.Fatalf("file_type = %q", body.FileType)
	}
	if body.Filename != "page.html" {
		t.Fatalf("filename = %q", body.Filename)
	}
	if !strings.Contains(body.Content, "Report") || !strings.Contains(body.Content, "Body text.") {
		t.Fatalf("content = %q", body.Content)
	}
	if body.ProcessingTime < 0 {
		t.Fatalf("processing_time = %f", body.ProcessingTime)
	}

	n, err := events.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("recorded events = %d, want 1", n)
	}
}

// A scanned upload with no vision endpoint configured is a processing
// failure, not a transport error: 500 with the error envelope.
func TestProcessFailureEnvelope(t *testing.T) {
	h := testServer(t, testConfig(t))
	rec := postFile(t, h, "broken.pdf", []byte("not a real pdf"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Success || body.Error == "" {
		t.Fatalf("body = %+v", body)
	}
}

func TestProcessCleansUpUpload(t *testing.T) {
	cfg := testConfig(t)
	h := testServer(t, cfg)
	postFile(t, h, "page.html", []byte("<html><body><p>x y z</p></body></html>"))

	entries, err := filepath.Glob(filepath.Join(cfg.UploadDir, "*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("uploads left behind: %v", entries)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	h := testServer(t, testConfig(t))
	req := httptest.NewRequest("GET", "/api/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("missing X-Content-Type-Options")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS header")
	}
}
