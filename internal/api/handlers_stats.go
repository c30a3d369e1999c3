package api

import (
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orchestrator.Stats())
}

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.llm == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"model": s.orchestrator.Stats().Model,
		"stats": s.llm.Snapshot(),
	})
}
