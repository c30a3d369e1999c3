package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handleListResults returns the meta of stored extractions, newest first.
func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		jsonError(w, "result store is not configured", http.StatusServiceUnavailable)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	metas, err := s.results.ListExtractions(r.Context(), limit)
	if err != nil {
		jsonError(w, "failed to list results: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": metas, "count": len(metas)})
}

// handleGetResult returns the extraction stored in pathstore for a job.
func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		jsonError(w, "result store is not configured", http.StatusServiceUnavailable)
		return
	}
	jobID := chi.URLParam(r, "jobID")
	e, err := s.results.GetExtraction(r.Context(), jobID)
	if err != nil {
		jsonError(w, "failed to get result: "+err.Error(), http.StatusBadGateway)
		return
	}
	if e == nil {
		jsonError(w, "result not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handleDeleteResult removes a job's stored extraction.
func (s *Server) handleDeleteResult(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		jsonError(w, "result store is not configured", http.StatusServiceUnavailable)
		return
	}
	jobID := chi.URLParam(r, "jobID")
	if err := s.results.DeleteExtraction(r.Context(), jobID); err != nil {
		jsonError(w, "failed to delete result: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job_id": jobID, "deleted": true})
}
