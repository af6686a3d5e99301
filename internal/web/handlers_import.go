package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/JonMunkholm/restaurant-etl/internal/core"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to disk.
const multipartMemory = 8 << 20

// handleImport runs the full pipeline on an uploaded file. Failed runs that
// still produced a result return it inside the error body.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	req, file, err := s.importRequest(w, r)
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	defer file.Close()

	run := s.importer.Import
	if dryRun, _ := strconv.ParseBool(r.FormValue("dry_run")); dryRun {
		run = s.importer.Inspect
	}

	res, err := run(r.Context(), req)
	if err != nil {
		respondError(w, r, err, res)
		return
	}
	s.respondResult(w, r, res)
}

// handleInspect reads, classifies, transforms and validates a file without
// touching the database.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	req, file, err := s.importRequest(w, r)
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	defer file.Close()

	res, err := s.importer.Inspect(r.Context(), req)
	if err != nil {
		respondError(w, r, err, res)
		return
	}
	s.respondResult(w, r, res)
}

func (s *Server) respondResult(w http.ResponseWriter, r *http.Request, res *core.Result) {
	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = resultSummary(res).Render(r.Context(), w)
		return
	}
	writeJSON(w, res)
}

// importRequest extracts the uploaded file and the optional entity override.
// The caller closes the returned file.
func (s *Server) importRequest(w http.ResponseWriter, r *http.Request) (core.Request, multipart.File, error) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartMemory)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.Request{}, nil, fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, maxSize)
		}
		return core.Request{}, nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return core.Request{}, nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}
	if header.Size > maxSize {
		file.Close()
		return core.Request{}, nil, fmt.Errorf("%w: %d bytes, limit is %d", core.ErrFileTooLarge, header.Size, maxSize)
	}

	entity, err := core.ParseEntityKind(r.FormValue("entity"))
	if err != nil {
		file.Close()
		return core.Request{}, nil, err
	}

	return core.Request{
		FileName: filepath.Base(header.Filename),
		Body:     file,
		Entity:   entity,
	}, file, nil
}

// handleImportStatus reports import slot usage.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.importer.LimiterStatus())
}

// handleDownloadTemplate returns an import template as CSV or XLSX.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	ext := core.NormalizeExtension(format)
	var contentType string
	switch ext {
	case ".csv":
		contentType = "text/csv"
	case ".xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		respondError(w, r, fmt.Errorf("%w: template format %q", core.ErrUnsupportedFormat, format), nil)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="restaurants_template%s"`, ext))
	if err := core.WriteTemplate(w, ext); err != nil {
		// Headers are already sent
		respondErrorLogOnly(r, err)
	}
}
