package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dgallion1/tabgest/internal/export"
	"github.com/dgallion1/tabgest/internal/extract"
	"github.com/dgallion1/tabgest/internal/pipeline"
)

const (
	formOverhead   = 1 << 20
	maxMemory      = 32 << 20
	maxBatchFiles  = 20
	defaultJobList = 10
)

// errTooLarge marks an upload over MAX_UPLOAD_BYTES.
var errTooLarge = errors.New("file exceeds max size")

// handleExtract runs the whole pipeline synchronously and returns the tables.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+formOverhead)
	if !s.parseForm(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	job, status, err := s.newJob(file, header)
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}

	if err := s.orchestrator.Run(r.Context(), job); err != nil {
		jsonError(w, "extraction failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("X-Job-ID", snap.ID)
	if snap.Validation != nil {
		w.Header().Set("X-Confidence-Score", strconv.FormatFloat(snap.Validation.ConfidenceScore, 'f', 1, 64))
	}
	writeJSON(w, http.StatusOK, snap.Result)
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+formOverhead)
	if !s.parseForm(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	job, status, err := s.newJob(file, header)
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusAccepted, accepted(job))
}

func (s *Server) handleBatchSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*maxBatchFiles+formOverhead)
	if !s.parseForm(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}
	if len(files) > maxBatchFiles {
		jsonError(w, fmt.Sprintf("at most %d files per batch", maxBatchFiles), http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(files))
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		f, err := fh.Open()
		if err != nil {
			results = append(results, map[string]any{"filename": filename, "error": "failed to open file"})
			continue
		}
		job, _, err := s.newJob(f, fh)
		f.Close()
		if err != nil {
			results = append(results, map[string]any{"filename": filename, "error": err.Error()})
			continue
		}
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{"filename": filename, "error": err.Error()})
			continue
		}
		results = append(results, accepted(job))
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := defaultJobList
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	jobs, err := s.orchestrator.ListJobs(r.Context(), limit)
	if err != nil {
		s.log.Warn("list jobs incomplete", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":  jobs,
		"stats": s.orchestrator.Stats(),
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	result, _ := job.Result()
	if result == nil {
		jsonError(w, "job has no result yet", http.StatusConflict)
		return
	}

	base := strings.TrimSuffix(job.Filename, filepath.Ext(job.Filename))
	if base == "" {
		base = job.ID
	}
	var (
		data        []byte
		err         error
		contentType string
		ext         string
	)
	switch format := r.URL.Query().Get("format"); format {
	case "", "xlsx":
		data, err = export.XLSX(*result)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		ext = ".xlsx"
	case "csv":
		data, err = export.CSV(*result)
		contentType = "text/csv"
		ext = ".csv"
	default:
		jsonError(w, "format must be xlsx or csv", http.StatusBadRequest)
		return
	}
	if err != nil {
		jsonError(w, "export failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+ext))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) lookupJob(w http.ResponseWriter, r *http.Request) (*pipeline.Job, bool) {
	jobID := chi.URLParam(r, "jobID")
	job, err := s.orchestrator.GetJob(r.Context(), jobID)
	if err != nil {
		jsonError(w, "failed to load job: "+err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil, false
	}
	return job, true
}

// parseForm parses a multipart body, answering 413 when the body limit was hit.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// newJob validates one uploaded file and wraps it in a queued job. The
// returned status is the HTTP code to answer with on error.
func (s *Server) newJob(file multipart.File, header *multipart.FileHeader) (*pipeline.Job, int, error) {
	filename := sanitizeFilename(header.Filename)
	if !extract.IsAllowedExtension(filename) {
		return nil, http.StatusBadRequest, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to read file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("%w (%d bytes)", errTooLarge, s.cfg.MaxUploadBytes)
	}
	if len(data) == 0 {
		return nil, http.StatusBadRequest, fmt.Errorf("file is empty")
	}

	return pipeline.NewJob(uuid.NewString(), filename, extract.MimeTypeFor(filename), data), 0, nil
}

func accepted(job *pipeline.Job) map[string]any {
	snap := job.Snapshot()
	return map[string]any{
		"job_id":   snap.ID,
		"filename": snap.Filename,
		"status":   snap.Status,
		"poll_url": fmt.Sprintf("/api/jobs/%s", snap.ID),
	}
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
