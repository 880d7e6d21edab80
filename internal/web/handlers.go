package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/colmap/internal/automap"
	"github.com/JonMunkholm/colmap/internal/catalog"
	"github.com/JonMunkholm/colmap/internal/logging"
	"github.com/JonMunkholm/colmap/internal/mapping"
	"github.com/JonMunkholm/colmap/internal/sheet"
	"github.com/JonMunkholm/colmap/internal/web/views"
)

// multipartOverhead is allowed on top of the file size limit for form
// boundaries and small fields.
const multipartOverhead = 1 << 20

// maxJSONBody bounds request bodies of the JSON endpoints.
const maxJSONBody = 1 << 20

// defaultSuggestions is how many ranked columns are returned per field.
const defaultSuggestions = 3

type healthResponse struct {
	Status   string        `json:"status"`
	Uptime   string        `json:"uptime"`
	Catalogs int           `json:"catalogs"`
	Sessions int           `json:"sessions"`
	Parses   LimiterStatus `json:"parses"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, healthResponse{
		Status:   "ok",
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Catalogs: catalog.Count(),
		Sessions: s.store.Len(),
		Parses:   s.parses.status(),
	})
}

type catalogSummary struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Fields      int    `json:"fields"`
	Required    int    `json:"required"`
}

func (s *Server) handleListCatalogs(w http.ResponseWriter, r *http.Request) {
	all := catalog.All()
	out := make([]catalogSummary, len(all))
	for i, c := range all {
		out[i] = catalogSummary{
			Key:         c.Key,
			Label:       c.Label,
			Description: c.Description,
			Fields:      len(c.Fields),
			Required:    len(c.RequiredKeys()),
		}
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	c, err := catalog.Lookup(chi.URLParam(r, "catalogKey"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, c)
}

// automapResponse is the stateless mapping result.
type automapResponse struct {
	Catalog     string                         `json:"catalog"`
	Sheet       *sheet.Sheet                   `json:"sheet"`
	Mapping     automap.Mapping                `json:"mapping"`
	Suggestions map[string][]automap.Candidate `json:"suggestions"`
	Report      mapping.Report                 `json:"report"`
}

// handleAutomap maps an uploaded sheet without keeping any state.
// Query parameter "suggestions" sets how many ranked columns to return
// per field (0 disables them).
func (s *Server) handleAutomap(w http.ResponseWriter, r *http.Request) {
	cat, err := catalog.Lookup(chi.URLParam(r, "catalogKey"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	sh, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	opts := s.cfg.Match.Options()
	fields := cat.AutomapFields()
	m := automap.Reconcile(fields, sh.Headers, opts)

	limit := parseIntParam(r, "suggestions", defaultSuggestions)
	suggestions := make(map[string][]automap.Candidate, len(fields))
	if limit > 0 {
		matcher := automap.NewMatcher(opts)
		for _, f := range fields {
			ranked := matcher.Rank(f, sh.Headers)
			if len(ranked) > limit {
				ranked = ranked[:limit]
			}
			suggestions[f.Key] = ranked
		}
	}

	report := mapping.Validate(m, cat.Fields, sh.Headers)
	logging.WithFields(r.Context(), "catalog", cat.Key, "file", sh.Name).Info("automap",
		"columns", len(sh.Headers),
		"mapped", len(m),
		"errors", len(report.Errors),
	)

	writeJSON(w, r, http.StatusOK, automapResponse{
		Catalog:     cat.Key,
		Sheet:       sh,
		Mapping:     m,
		Suggestions: suggestions,
		Report:      report,
	})
}

type validateRequest struct {
	Mapping automap.Mapping `json:"mapping"`
	Columns []string        `json:"columns"`
}

// handleValidate checks a caller-supplied mapping against a catalog.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	cat, err := catalog.Lookup(chi.URLParam(r, "catalogKey"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req validateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, mapping.Validate(req.Mapping, cat.Fields, req.Columns))
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	cat, err := catalog.Lookup(chi.URLParam(r, "catalogKey"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	sh, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	sess, err := s.store.Create(r.Context(), cat, sh)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/sessions/"+sess.ID)
	writeJSON(w, r, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if _, err := s.store.Get(id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.store.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemap(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Remap(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sess)
}

type overrideRequest struct {
	Column string `json:"column"`
}

// handleOverride pins a field to a column. An empty column clears the pin.
func (s *Server) handleOverride(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.override(w, r, req.Column)
}

func (s *Server) handleClearOverride(w http.ResponseWriter, r *http.Request) {
	s.override(w, r, "")
}

func (s *Server) override(w http.ResponseWriter, r *http.Request, column string) {
	sess, err := s.store.Override(r.Context(),
		chi.URLParam(r, "sessionID"),
		chi.URLParam(r, "fieldKey"),
		column,
	)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sess)
}

// handleSessionPage renders the HTML review page.
func (s *Server) handleSessionPage(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.SessionPage(sess).Render(r.Context(), w); err != nil {
		logging.FromContext(logging.WithSession(r.Context(), sess.ID)).Error("render session page", "error", err)
	}
}

// readUpload reads the multipart "file" field into a Sheet. The optional
// "sheet" field picks a worksheet in XLSX uploads.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*sheet.Sheet, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, sheet.ErrFileTooLarge
		}
		return nil, fmt.Errorf("%w: invalid multipart form: %v", errBadRequest, err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: no file provided", errBadRequest)
	}
	defer file.Close()

	if header.Size > maxSize {
		return nil, sheet.ErrFileTooLarge
	}

	if err := s.parses.acquire(r.Context()); err != nil {
		return nil, err
	}
	defer s.parses.release()

	return sheet.Read(header.Filename, file, sheet.Options{
		SampleRows: s.cfg.Upload.SampleRows,
		Sheet:      r.FormValue("sheet"),
		MaxBytes:   maxSize,
	})
}

// decodeJSON reads a bounded JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

// parseIntParam parses a non-negative integer query parameter with a
// default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}
