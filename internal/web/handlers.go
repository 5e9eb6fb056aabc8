package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/regexcol/internal/core"
	"github.com/JonMunkholm/regexcol/internal/web/templates"
)

// handleIndex renders the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := templates.Index(core.Presets(), s.cfg.Upload.MaxFileSize.String())
	if err := page.Render(r.Context(), w); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
	}
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePresets lists the patterns a description can select.
func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"presets": core.Presets()})
}

// handleHistory lists recent transform runs, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.History.ListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			err = fmt.Errorf("%w: limit must be a positive integer", core.ErrInvalidRequest)
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
		limit = min(n, s.cfg.History.ListLimit)
	}

	entries, err := s.service.History(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []core.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// StatusResponse reports transform capacity.
type StatusResponse struct {
	Transforms  core.LimiterStatus `json:"transforms"`
	MaxFileSize string             `json:"max_file_size"`
}

// handleStatus reports how busy the transform limiter is.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Transforms:  s.service.Limiter().Status(),
		MaxFileSize: s.cfg.Upload.MaxFileSize.String(),
	})
}
