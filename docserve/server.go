package docserve

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/docmill/docmill/procpipe"
	"github.com/docmill/docmill/vision"
)

// Server handles document upload and extraction requests.
type Server struct {
	cfg    *Config
	logger *slog.Logger
	events *EventStore
	vision procpipe.VisionClient
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithEventStore attaches the processing event log.
func WithEventStore(es *EventStore) ServerOption {
	return func(s *Server) { s.events = es }
}

// WithVisionClient overrides the remote vision client (tests use a fake).
func WithVisionClient(vc procpipe.VisionClient) ServerOption {
	return func(s *Server) { s.vision = vc }
}

// NewServer creates the service. When no API key is configured the vision
// client stays nil: HTML, Excel and text/hybrid PDFs still work, scanned
// PDFs and images fail with a clear error result.
func NewServer(cfg *Config, logger *slog.Logger, opts ...ServerOption) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, logger: logger}
	for _, o := range opts {
		o(s)
	}

	if s.vision == nil && cfg.Vision.APIKey != "" {
		vc, err := vision.New(vision.Config{
			BaseURL: cfg.Vision.BaseURL,
			APIKey:  cfg.Vision.APIKey,
			Model:   cfg.Vision.Model,
			Timeout: cfg.VisionTimeout(),
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		s.vision = vc
	}
	if s.vision == nil {
		logger.Warn("no vision endpoint configured, scanned pdf and image extraction disabled")
	}
	return s, nil
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(SecurityHeaders)
	r.Use(CORS)
	// Generous transport cap; the handler enforces the exact file limit.
	r.Use(MaxRequestBody(s.cfg.MaxUploadBytes() + 10*1024*1024))

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/supported-types", s.handleSupportedTypes)
	r.Post("/api/process", s.handleProcess)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":         "ok",
		"vision_enabled": s.vision != nil,
	}
	if s.events != nil {
		if n, err := s.events.Count(r.Context()); err == nil {
			body["events_recorded"] = n
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleSupportedTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"types": procpipe.SupportedTypes(),
	})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}

	fileType := procpipe.TypeForFile(header.Filename)
	if fileType == "" {
		writeError(w, http.StatusUnsupportedMediaType,
			"unsupported file type: "+filepath.Ext(header.Filename))
		return
	}

	path, err := SaveUpload(file, header.Filename, s.cfg.UploadDir, s.cfg.MaxUploadBytes())
	if err != nil {
		if errors.Is(err, ErrUploadTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		s.logger.Error("save upload", "error", err, "file", header.Filename)
		writeError(w, http.StatusInternalServerError, "failed to save upload")
		return
	}
	if s.cfg.CleanupEnabled() {
		defer Cleanup(path)
	}

	proc, err := procpipe.New(fileType, s.processingConfig(), s.vision)
	if err != nil {
		s.logger.Error("build processor", "error", err, "file_type", fileType)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	start := time.Now()
	res := procpipe.Run(r.Context(), proc, path)

	s.recordEvent(r, header.Filename, fileType, res, time.Since(start))

	s.logger.Info("processed",
		"file", header.Filename,
		"file_type", fileType,
		"success", res.Success,
		"duration", time.Since(start))

	writeResult(w, header.Filename, fileType, res)
}

func (s *Server) processingConfig() procpipe.Config {
	cfg := s.cfg.Processing
	cfg.Model = s.cfg.Vision.Model
	cfg.Logger = s.logger
	if cfg.IntermediateDir == "" {
		cfg.IntermediateDir = s.cfg.ProcessedDir
	}
	return cfg
}

// recordEvent writes the processing event. Never fails the request.
func (s *Server) recordEvent(r *http.Request, name, fileType string, res *procpipe.Result, d time.Duration) {
	if s.events == nil {
		return
	}
	ev := ProcessingEvent{
		FileName:   name,
		FileType:   fileType,
		Success:    res.Success,
		DurationMs: d.Milliseconds(),
		Error:      res.Error,
	}
	if c, ok := res.Metadata["classification"].(string); ok {
		ev.Classification = c
	}
	s.events.Record(r.Context(), ev)
}
