package http

import (
	"fmt"
	"net/http"
	"strconv"

	"budget/internal/core"
	"budget/internal/ledger"
	applog "budget/internal/log"
)

type createTransactionResponse struct {
	Transaction core.Transaction `json:"transaction"`
	View        core.View        `json:"view"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", "error", err)
			ErrorResponse(http.StatusServiceUnavailable, "not ready").Write(w)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleView returns the current view. Any of type, category or month in the
// query replaces the filter first.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	f, ok := filterFromQuery(r.URL.Query())
	if !ok {
		NewJSONResponse().Body(s.tracker.View(r.Context())).Write(w)
		return
	}

	view, err := s.tracker.SetFilter(r.Context(), f)
	if err != nil {
		writeError(w, r, err, applog.OpFilter)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err, applog.OpFilter)
		return
	}

	view, err := s.tracker.SetFilter(r.Context(), p.Filter())
	if err != nil {
		writeError(w, r, err, applog.OpFilter)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeError(w, r, err, applog.OpCreate)
		return
	}

	tx, view, err := s.tracker.AddTransaction(r.Context(), p.Draft())
	if err != nil {
		writeError(w, r, err, applog.OpCreate)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Body(createTransactionResponse{Transaction: tx, View: view}).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		BadRequestError("transaction id must be an integer").Write(w)
		return
	}

	view, err := s.tracker.RemoveTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, err, applog.OpDelete)
		return
	}
	NewJSONResponse().Body(view).Write(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.tracker.ExportAll(r.Context())
	if err != nil {
		writeError(w, r, err, applog.OpExport)
		return
	}

	NewJSONResponse().
		Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ledger.ExportFilename)).
		Raw(data).
		Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(s.tracker.Categories()).Write(w)
}
