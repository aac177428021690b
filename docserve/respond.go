package docserve

import (
	"encoding/json"
	"math"
	"net/http"

	"github.com/docmill/docmill/procpipe"
)

// ProcessResponse is the success envelope of POST /api/process.
type ProcessResponse struct {
	Success        bool           `json:"success"`
	Filename       string         `json:"filename"`
	Content        string         `json:"content"`
	FileType       string         `json:"file_type"`
	ProcessingTime float64        `json:"processing_time"`
	Metadata       map[string]any `json:"metadata"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    int    `json:"code"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Success: false, Error: msg, Code: code})
}

func writeResult(w http.ResponseWriter, filename, fileType string, res *procpipe.Result) {
	if !res.Success {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Success: false,
			Error:   res.Error,
			Code:    http.StatusInternalServerError,
		})
		return
	}
	writeJSON(w, http.StatusOK, ProcessResponse{
		Success:        true,
		Filename:       filename,
		Content:        res.Content,
		FileType:       fileType,
		ProcessingTime: round2(res.ProcessingTime),
		Metadata:       res.Metadata,
	})
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
