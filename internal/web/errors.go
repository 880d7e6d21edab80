package web

// errors.go maps domain errors to HTTP responses.
//
// Every error response carries a code users can quote to support:
//
//	CAT001 - Unknown catalog (404)
//	SES001 - Mapping session not found or expired (404)
//	MAP001 - Unknown field for this catalog (404)
//	MAP002 - Column not present in the uploaded sheet (422)
//	FILE001 - File too large (413)
//	FILE002 - Unsupported file format (415)
//	FILE003 - No header row found (422)
//	FILE004 - Too many sheets being read at once (503)
//	FILE005 - File is corrupt or not really the format its name says (422)
//	FILE006 - Requested worksheet not in the workbook (422)
//	AUTH001 - Missing API key (401)
//	AUTH002 - Invalid API key (403)
//	RATE001 - Rate limit exceeded (429)
//	REQ001 - Malformed request (400)
//	SYS001 - Anything else (500)
//
// The technical error is logged with the request ID; only the user message
// is sent to the client.

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/colmap/internal/catalog"
	"github.com/JonMunkholm/colmap/internal/logging"
	"github.com/JonMunkholm/colmap/internal/mapping"
	"github.com/JonMunkholm/colmap/internal/sheet"
	"github.com/JonMunkholm/colmap/internal/web/views"
)

// errBadRequest marks client mistakes that have no sentinel of their own.
var errBadRequest = errors.New("bad request")

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Status  int
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

var msgFileTooLarge = UserMessage{http.StatusRequestEntityTooLarge,
	"The file is too large", "Upload a smaller file or remove unused sheets", "FILE001"}

type errorRule struct {
	target error
	msg    UserMessage
}

// errorRules is checked in order with errors.Is; the first hit wins.
var errorRules = []errorRule{
	{catalog.ErrUnknownCatalog, UserMessage{http.StatusNotFound,
		"This field catalog does not exist", "Pick a catalog from /api/catalogs", "CAT001"}},
	{mapping.ErrSessionNotFound, UserMessage{http.StatusNotFound,
		"This mapping session was not found or has expired", "Upload the file again to start a new session", "SES001"}},
	{mapping.ErrUnknownField, UserMessage{http.StatusNotFound,
		"This field is not part of the catalog", "Check the field key against the catalog", "MAP001"}},
	{mapping.ErrUnknownColumn, UserMessage{http.StatusUnprocessableEntity,
		"This column is not in the uploaded sheet", "Choose one of the sheet's columns", "MAP002"}},
	{sheet.ErrFileTooLarge, msgFileTooLarge},
	{sheet.ErrUnsupportedFormat, UserMessage{http.StatusUnsupportedMediaType,
		"This file type is not supported", "Upload a .csv or .xlsx file", "FILE002"}},
	{sheet.ErrEmptySheet, UserMessage{http.StatusUnprocessableEntity,
		"No header row was found in the sheet", "Make sure the first non-empty row holds column names", "FILE003"}},
	{sheet.ErrUnreadable, UserMessage{http.StatusUnprocessableEntity,
		"The file could not be read", "Check that the file opens in a spreadsheet program and re-export it", "FILE005"}},
	{sheet.ErrSheetNotFound, UserMessage{http.StatusUnprocessableEntity,
		"The workbook has no sheet with that name", "Check the sheet name or leave it empty to use the first sheet", "FILE006"}},
	{ErrTooManyParses, UserMessage{http.StatusServiceUnavailable,
		"The server is busy reading other files", "Please try again in a few moments", "FILE004"}},
	{errBadRequest, UserMessage{http.StatusBadRequest,
		"The request could not be understood", "Check the request body and parameters", "REQ001"}},
}

var defaultMessage = UserMessage{http.StatusInternalServerError,
	"An unexpected error occurred", "Please try again; quote the request ID if it keeps happening", "SYS001"}

// MapError converts an error to its user message. Unknown errors map to
// SYS001.
func MapError(err error) UserMessage {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return msgFileTooLarge
	}
	for _, rule := range errorRules {
		if errors.Is(err, rule.target) {
			return rule.msg
		}
	}
	return defaultMessage
}

// respondError logs err with request context and writes the mapped message
// as JSON for API clients or as an HTML page otherwise.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := MapError(err)

	log := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", msg.Status,
		"code", msg.Code,
		"error", err.Error(),
	}
	if msg.Status >= http.StatusInternalServerError {
		log.Error("request error", attrs...)
	} else {
		log.Warn("request error", attrs...)
	}

	if wantsJSON(r) {
		respondErrorJSON(w, msg)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(msg.Status)
	if err := views.ErrorPage(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		log.Error("render error page", "error", err)
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg UserMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(msg.Status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(msg.Status),
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
