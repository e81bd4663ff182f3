package web

// errors.go turns errors into the failure envelope
//
//	{"success": false, "error": "...", "code": "FMT001", "action": "..."}
//
// The technical error is logged with the request ID; only the mapped
// core.UserMessage reaches the client. Request-shape failures that never
// reach the service use REQ codes:
//
//	REQ001  body is not application/json
//	REQ002  body is not valid JSON

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/accessimport/internal/core"
	"github.com/JonMunkholm/accessimport/internal/logging"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Action  string `json:"action,omitempty"`
}

var (
	errUnsupportedMedia = errors.New("content type must be application/json")
	errMalformedBody    = errors.New("malformed JSON body")
)

var requestMessages = map[error]core.UserMessage{
	errUnsupportedMedia: {Message: "Content type must be application/json", Action: "Send the request as JSON", Code: "REQ001"},
	errMalformedBody:    {Message: "The request body is not valid JSON", Action: "Send {\"filePath\", \"fileContent\"} as a JSON object", Code: "REQ002"},
}

var statusBySentinel = []struct {
	err    error
	status int
}{
	{errUnsupportedMedia, http.StatusUnsupportedMediaType},
	{errMalformedBody, http.StatusBadRequest},
	{core.ErrMissingInput, http.StatusBadRequest},
	{core.ErrNoDelimiter, http.StatusBadRequest},
	{core.ErrInvalidFormat, http.StatusBadRequest},
	{core.ErrEmptyFile, http.StatusBadRequest},
	{core.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{core.ErrTooManyImports, http.StatusServiceUnavailable},
	{context.DeadlineExceeded, http.StatusGatewayTimeout},
}

// statusFor picks the HTTP status of err; anything unrecognized is a 500.
func statusFor(err error) int {
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the failure envelope.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)
	for sentinel, m := range requestMessages {
		if errors.Is(err, sentinel) {
			msg = m
		}
	}

	level := logging.FromContext(r.Context()).Warn
	if status >= http.StatusInternalServerError {
		level = logging.FromContext(r.Context()).Error
	}
	level("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "30")
	}
	writeJSONStatus(w, status, ErrorResponse{
		Success: false,
		Error:   msg.Message,
		Code:    msg.Code,
		Action:  msg.Action,
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	msg := core.MapError(errors.New("rate limit exceeded"))
	logging.FromContext(r.Context()).Warn("rate limit exceeded", "ip", r.RemoteAddr, "path", r.URL.Path)
	writeJSONStatus(w, http.StatusTooManyRequests, ErrorResponse{
		Success: false,
		Error:   msg.Message,
		Code:    msg.Code,
		Action:  msg.Action,
	})
}
