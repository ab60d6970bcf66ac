package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sitestock/supplytrack/internal/core"
	"github.com/sitestock/supplytrack/internal/engine"
	"github.com/sitestock/supplytrack/internal/web/templates"
)

// multipartOverhead is allowed on top of the file size limit for form
// boundaries and the other fields.
const multipartOverhead = 1 << 20

// handlePreviewImport reviews an uploaded spreadsheet against the target
// inventory without changing anything.
func (s *Server) handlePreviewImport(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	scope, err := parseScope(chi.URLParam(r, "scope"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, core.ErrFileTooLarge)
			return
		}
		respondError(w, r, errNoFile)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile)
		return
	}
	defer file.Close()

	requirePrice, _ := strconv.ParseBool(r.FormValue("requirePrice"))

	preview, err := s.service.PreviewImport(r.Context(), actor, core.ImportRequest{
		Scope:        scope,
		OwnerID:      chi.URLParam(r, "ownerID"),
		Filename:     header.Filename,
		File:         file,
		RequirePrice: requirePrice,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		sum := preview.Summary
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.ImportSummary(sum.Items, sum.Creates, sum.Updates, sum.InvalidRows, sum.NeedsPricing).Render(r.Context(), w); err != nil {
			respondError(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

type commitBody struct {
	Lines []engine.BulkLine `json:"lines" validate:"required,min=1,dive"`
}

// handleCommitImport applies a reviewed bulk payload. Per-item failures are
// reported in the result body; the response is 200 unless nothing could be
// attempted.
func (s *Server) handleCommitImport(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	scope, err := parseScope(chi.URLParam(r, "scope"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	var body commitBody
	if err := s.decodeJSON(w, r, &body); err != nil {
		respondError(w, r, err)
		return
	}

	res, err := s.service.CommitImport(r.Context(), actor, scope, chi.URLParam(r, "ownerID"), body.Lines)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
