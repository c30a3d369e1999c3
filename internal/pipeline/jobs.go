package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgallion1/tabgest/internal/tables"
)

// JobStatus represents the state of an extraction job.
type JobStatus string

const (
	StatusQueued      JobStatus = "queued"
	StatusExtracting  JobStatus = "extracting"
	StatusRecognizing JobStatus = "recognizing"
	StatusParsing     JobStatus = "parsing"
	StatusValidating  JobStatus = "validating"
	StatusRepairing   JobStatus = "repairing"
	StatusStoring     JobStatus = "storing"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
)

// Terminal reports whether no further transitions will happen.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job tracks the state of a single document extraction.
type Job struct {
	mu sync.Mutex

	ID       string `json:"job_id"`
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData   []byte
	result     *tables.ExtractionResult
	validation *tables.ValidationResult
	errors     []string
}

// Progress tracks processing progress.
type Progress struct {
	Attempts         int      `json:"attempts"`
	TablesExtracted  int      `json:"tables_extracted"`
	TablesRecognized int      `json:"tables_recognized"`
	TablesMerged     int      `json:"tables_merged"`
	TablesRepaired   int      `json:"tables_repaired"`
	Errors           []string `json:"errors"`
}

// NewJob creates a queued job holding the uploaded bytes.
func NewJob(id, filename, mimeType string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:          id,
		Filename:    filename,
		MimeType:    mimeType,
		Status:      StatusQueued,
		Phase:       "queued",
		ContentHash: ContentHashHex(data),
		CreatedAt:   now,
		UpdatedAt:   now,
		fileData:    data,
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// IncrAttempts counts one call to the AI backend.
func (j *Job) IncrAttempts() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Attempts++
	j.UpdatedAt = time.Now()
}

// SetTableCounts records how many tables each source produced.
func (j *Job) SetTableCounts(extracted, recognized int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TablesExtracted = extracted
	j.Progress.TablesRecognized = recognized
	j.UpdatedAt = time.Now()
}

// SetMerged records how many table pairs were merged.
func (j *Job) SetMerged(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TablesMerged = n
	j.UpdatedAt = time.Now()
}

// SetRepaired records how many tables the repairer changed.
func (j *Job) SetRepaired(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TablesRepaired = n
	j.UpdatedAt = time.Now()
}

// SetResult stores the final table set and its validation. validation may be
// nil when validation is disabled.
func (j *Job) SetResult(result tables.ExtractionResult, validation *tables.ValidationResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = &result
	j.validation = validation
	j.UpdatedAt = time.Now()
}

// Result returns the final table set, or nil before the job completes.
func (j *Job) Result() (*tables.ExtractionResult, *tables.ValidationResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, j.validation
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// ReleaseFileData drops the upload once processing is over.
func (j *Job) ReleaseFileData() {
	j.SetFileData(nil)
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string                   `json:"job_id"`
	Status      JobStatus                `json:"status"`
	Phase       string                   `json:"phase"`
	Filename    string                   `json:"filename"`
	MimeType    string                   `json:"mime_type"`
	ContentHash string                   `json:"content_hash,omitempty"`
	Progress    Progress                 `json:"progress"`
	Result      *tables.ExtractionResult `json:"result,omitempty"`
	Validation  *tables.ValidationResult `json:"validation,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	progress := j.Progress
	progress.Errors = errs
	return JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		MimeType:    j.MimeType,
		ContentHash: j.ContentHash,
		Progress:    progress,
		Result:      j.result,
		Validation:  j.validation,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
	}
}

// JobFromSnapshot rebuilds a job from persisted state. The upload itself is
// never persisted.
func JobFromSnapshot(s JobSnapshot) *Job {
	return &Job{
		ID:          s.ID,
		Filename:    s.Filename,
		MimeType:    s.MimeType,
		Status:      s.Status,
		Phase:       s.Phase,
		Progress:    s.Progress,
		ContentHash: s.ContentHash,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		result:      s.Result,
		validation:  s.Validation,
		errors:      s.Progress.Errors,
	}
}

// JobRecorder persists job snapshots beyond the in-memory TTL.
type JobRecorder interface {
	Save(ctx context.Context, snap JobSnapshot) error
	Load(ctx context.Context, id string) (*JobSnapshot, error)
	List(ctx context.Context, limit int) ([]JobSnapshot, error)
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu       sync.Mutex
	jobs     map[string]*Job
	ttl      time.Duration
	recorder JobRecorder
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// SetRecorder attaches a persistent store consulted on lookup misses.
func (s *JobStore) SetRecorder(r JobRecorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = r
}

// Lookup returns the in-memory job, falling back to the recorder. Jobs loaded
// from the recorder are read-only views and are not re-registered.
func (s *JobStore) Lookup(ctx context.Context, id string) (*Job, error) {
	s.mu.Lock()
	job, rec := s.jobs[id], s.recorder
	s.mu.Unlock()
	if job != nil || rec == nil {
		return job, nil
	}
	snap, err := rec.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", id, err)
	}
	if snap == nil {
		return nil, nil
	}
	return JobFromSnapshot(*snap), nil
}

// List returns up to limit jobs, newest first. limit <= 0 returns all.
func (s *JobStore) List(limit int) []*Job {
	s.mu.Lock()
	out := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	s.mu.Unlock()

	created := make(map[*Job]time.Time, len(out))
	for _, j := range out {
		j.mu.Lock()
		created[j] = j.CreatedAt
		j.mu.Unlock()
	}
	sort.Slice(out, func(a, b int) bool {
		if !created[out[a]].Equal(created[out[b]]) {
			return created[out[a]].After(created[out[b]])
		}
		return out[a].ID > out[b].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs that have finished. Running jobs are kept.
func (s *JobStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	removed := 0
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Terminal() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
