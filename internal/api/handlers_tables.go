package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/dgallion1/tabgest/internal/pipeline"
	"github.com/dgallion1/tabgest/internal/tables"
)

const maxBodyBytes = 10 << 20

// handleParse recovers tables from a raw AI reply in the request body.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		jsonError(w, "failed to read body: "+err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	writeJSON(w, http.StatusOK, tables.ParseResult(string(body), pipeline.DefaultSummary))
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	validator, ok := s.validatorFor(w, r)
	if !ok {
		return
	}
	var result tables.ExtractionResult
	if !decodeBody(w, r, &result) {
		return
	}
	writeJSON(w, http.StatusOK, validator.Validate(result))
}

// handleRepair validates the posted result and repairs it when invalid.
func (s *Server) handleRepair(w http.ResponseWriter, r *http.Request) {
	validator, ok := s.validatorFor(w, r)
	if !ok {
		return
	}
	var result tables.ExtractionResult
	if !decodeBody(w, r, &result) {
		return
	}

	result, validation, repaired := validator.ValidateAndRepair(result)
	writeJSON(w, http.StatusOK, map[string]any{
		"result":     result,
		"validation": validation,
		"repaired":   repaired,
	})
}

type mergeRequest struct {
	OCR *tables.Table `json:"ocr"`
	AI  *tables.Table `json:"ai"`
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.OCR == nil || req.AI == nil {
		jsonError(w, "both ocr and ai tables are required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, tables.Merge(*req.OCR, *req.AI))
}

// validatorFor honors an optional min_confidence query parameter.
func (s *Server) validatorFor(w http.ResponseWriter, r *http.Request) (*tables.Validator, bool) {
	v := r.URL.Query().Get("min_confidence")
	if v == "" {
		return s.orchestrator.Validator(), true
	}
	score, err := strconv.ParseFloat(v, 64)
	if err != nil || score < 0 || score > 100 {
		jsonError(w, fmt.Sprintf("min_confidence must be a number between 0 and 100, got %q", v), http.StatusBadRequest)
		return nil, false
	}
	return tables.NewValidator(tables.WithMinConfidence(score)), true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
