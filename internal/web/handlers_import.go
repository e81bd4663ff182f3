package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/accessimport/internal/core"
)

// importRequest is the body of the process and inspect endpoints.
type importRequest struct {
	FilePath    string `json:"filePath" validate:"required"`
	FileContent string `json:"fileContent" validate:"required"`
}

type processResponse struct {
	Success        bool                  `json:"success"`
	Message        string                `json:"message"`
	ImportID       string                `json:"importId"`
	Stats          *core.ProcessingStats `json:"stats"`
	PostProcessing any                   `json:"postProcessing"`
}

type inspectResponse struct {
	Success bool                `json:"success"`
	Report  *core.InspectReport `json:"report"`
}

type statusResponse struct {
	Success bool                     `json:"success"`
	Imports core.ImportLimiterStatus `json:"imports"`
}

// readImportRequest decodes and checks the body shared by process and
// inspect: JSON, both fields present, within the size limit, and a
// recognizable separator on the first line.
func (s *Server) readImportRequest(w http.ResponseWriter, r *http.Request) (importRequest, error) {
	var req importRequest
	maxSize := s.cfg.Import.MaxFileSize
	if err := decodeJSON(w, r, 2*maxSize+jsonOverhead, &req); err != nil {
		return req, err
	}
	if int64(len(req.FileContent)) > maxSize {
		return req, core.ErrFileTooLarge
	}
	if !core.HasDelimiter(req.FileContent) {
		return req, core.ErrNoDelimiter
	}
	return req, nil
}

// handleProcessCSV runs a full import of the posted file. ?wait=false
// answers 503 at once when every import slot is busy.
func (s *Server) handleProcessCSV(w http.ResponseWriter, r *http.Request) {
	req, err := s.readImportRequest(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.Import(ctx, core.ImportRequest{
		FilePath: req.FilePath,
		Content:  strings.NewReader(req.FileContent),
		NoWait:   !parseBoolParam(r, "wait", true),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, processResponse{
		Success:        true,
		Message:        result.Stats.Summary(),
		ImportID:       result.ImportID,
		Stats:          result.Stats,
		PostProcessing: result.PostProcessing,
	})
}

// handleInspectCSV reports how the posted file would be ingested without
// writing anything. ?rows=N sets how many data rows are normalized.
func (s *Server) handleInspectCSV(w http.ResponseWriter, r *http.Request) {
	req, err := s.readImportRequest(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	limit := parseIntParam(r, "rows", core.DefaultInspectRows)
	report, err := core.Inspect(strings.NewReader(req.FileContent), limit, time.Now)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, inspectResponse{Success: true, Report: report})
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, statusResponse{Success: true, Imports: s.service.LimiterStatus()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}
