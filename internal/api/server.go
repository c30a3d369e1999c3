package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/tabgest/internal/config"
	"github.com/dgallion1/tabgest/internal/extract"
	"github.com/dgallion1/tabgest/internal/pathstore"
	"github.com/dgallion1/tabgest/internal/pipeline"
)

// ResultReader reads and deletes stored extractions.
type ResultReader interface {
	ListExtractions(ctx context.Context, limit int) ([]pathstore.ExtractionMeta, error)
	GetExtraction(ctx context.Context, jobID string) (*pathstore.Extraction, error)
	DeleteExtraction(ctx context.Context, jobID string) error
}

// Server is the HTTP API server for tabgest.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	llm          *extract.LLMStats
	results      ResultReader
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. llm and results may be
// nil.
func NewServer(orch *pipeline.Orchestrator, llm *extract.LLMStats, results ResultReader, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		llm:          llm,
		results:      results,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.TabgestAPIKey, s.log))

		r.Post("/api/extract", s.handleExtract)

		r.Post("/api/jobs", s.handleSubmitJob)
		r.Post("/api/jobs/batch", s.handleBatchSubmit)
		r.Get("/api/jobs", s.handleListJobs)
		r.Get("/api/jobs/{jobID}", s.handleGetJob)
		r.Get("/api/jobs/{jobID}/export", s.handleExport)

		r.Get("/api/results", s.handleListResults)
		r.Get("/api/results/{jobID}", s.handleGetResult)
		r.Delete("/api/results/{jobID}", s.handleDeleteResult)

		r.Get("/api/stats", s.handleStats)
		r.Get("/api/stats/llm", s.handleLLMStats)

		r.Post("/api/parse", s.handleParse)
		r.Post("/api/validate", s.handleValidate)
		r.Post("/api/repair", s.handleRepair)
		r.Post("/api/merge", s.handleMerge)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "tabgest"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
