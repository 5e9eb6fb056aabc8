package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/JonMunkholm/regexcol/internal/core"
	"github.com/JonMunkholm/regexcol/internal/web/templates"
)

var (
	errFileTooLarge = errors.New("file too large")
	errNoFile       = errors.New("no file provided")
)

// TransformResult is the JSON body of a successful transform.
type TransformResult struct {
	ID        uuid.UUID `json:"id"`
	Data      string    `json:"data"`
	Column    string    `json:"column"`
	Pattern   string    `json:"pattern"`
	Preset    string    `json:"preset,omitempty"`
	Rows      int       `json:"rows"`
	Changed   int       `json:"changed"`
	NoMatches bool      `json:"no_matches"`
}

// handleTransform rewrites one column of an uploaded file.
//
// Multipart fields: file, column, pattern, replacement, description.
// A JSON body with the same fields (data base64-encoded) is also accepted.
// With ?download=1 the CSV is returned as an attachment.
func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	req, err := s.readTransformRequest(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	resp, err := s.service.Transform(ctx, req)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	switch {
	case r.URL.Query().Get("download") == "1":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment",
			map[string]string{"filename": downloadName(req.FileName)}))
		w.Header().Set("X-Transform-ID", resp.ID.String())
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(resp.CSV)
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.TransformResult(resp).Render(r.Context(), w); err != nil {
			s.respondError(w, r, err, http.StatusInternalServerError)
		}
	default:
		writeJSON(w, http.StatusOK, TransformResult{
			ID:        resp.ID,
			Data:      string(resp.CSV),
			Column:    resp.Column,
			Pattern:   resp.Pattern,
			Preset:    resp.Preset,
			Rows:      resp.Rows,
			Changed:   resp.Changed,
			NoMatches: resp.NoMatches,
		})
	}
}

// handlePreview returns the header and first rows of an upload.
// The optional "rows" field sets how many rows come back.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	rows := 0
	if v := r.FormValue("rows"); v != "" {
		rows, err = strconv.Atoi(v)
		if err != nil || rows < 0 {
			err = fmt.Errorf("%w: rows must be a non-negative integer", core.ErrInvalidRequest)
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
	}

	preview, err := s.service.Preview(r.Context(), name, data, rows)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// readTransformRequest decodes a multipart or JSON transform request.
func (s *Server) readTransformRequest(w http.ResponseWriter, r *http.Request) (core.TransformRequest, error) {
	var req core.TransformRequest

	if isJSONBody(r) {
		// base64 inflates the file by a third
		limit := int64(s.cfg.Upload.MaxFileSize)/3*4 + uploadFormOverhead
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, bodyError(err)
		}
		if uint64(len(req.Data)) > s.cfg.Upload.MaxFileSize.Bytes() {
			return req, errFileTooLarge
		}
		return req, nil
	}

	name, data, err := s.readUpload(w, r)
	if err != nil {
		return req, err
	}
	req.FileName = name
	req.Data = data
	req.Column = r.FormValue("column")
	req.Pattern = r.FormValue("pattern")
	req.Replacement = r.FormValue("replacement")
	req.Description = r.FormValue("description")
	return req, nil
}

// readUpload parses a multipart form and returns the "file" part.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	maxSize := int64(s.cfg.Upload.MaxFileSize)
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+uploadFormOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		return "", nil, bodyError(err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil, errNoFile
		}
		return "", nil, bodyError(err)
	}
	defer file.Close()

	if header.Size > maxSize {
		return "", nil, errFileTooLarge
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return header.Filename, data, nil
}

// bodyError classifies a failure to read the request body.
func bodyError(err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return fmt.Errorf("%w: %w", errFileTooLarge, err)
	}
	return fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
}

func isJSONBody(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/json"
}

// downloadName turns "people.xlsx" into "people_rewritten.csv".
func downloadName(fileName string) string {
	base := filepath.Base(fileName)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = "table"
	}
	return stem + "_rewritten.csv"
}
