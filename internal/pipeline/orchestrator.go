package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgallion1/tabgest/internal/config"
	"github.com/dgallion1/tabgest/internal/extract"
	"github.com/dgallion1/tabgest/internal/parser"
	"github.com/dgallion1/tabgest/internal/pathstore"
	"github.com/dgallion1/tabgest/internal/tables"
)

// ResultStore receives the final extraction of every completed job.
type ResultStore interface {
	PutExtraction(ctx context.Context, e pathstore.Extraction, ttl time.Duration) error
}

// Deps are the collaborators an Orchestrator drives. Backend, Results and
// Recorder may be nil.
type Deps struct {
	Backend  extract.Backend
	Registry *parser.Registry
	Results  ResultStore
	Recorder JobRecorder
	Log      *slog.Logger
}

// Stats are service-wide processing counters.
type Stats struct {
	DocumentsProcessed int64  `json:"documents_processed"`
	DocumentsFailed    int64  `json:"documents_failed"`
	APICalls           int64  `json:"api_calls"`
	TablesRepaired     int64  `json:"tables_repaired"`
	QueueDepth         int    `json:"queue_depth"`
	TrackedJobs        int    `json:"tracked_jobs"`
	Model              string `json:"model,omitempty"`
}

type counters struct {
	processed atomic.Int64
	failed    atomic.Int64
	apiCalls  atomic.Int64
	repaired  atomic.Int64
}

// Orchestrator manages the extraction pipeline.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	worker *Worker
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
	stats  *counters

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, deps Deps) *Orchestrator {
	if deps.Registry == nil {
		deps.Registry = &parser.Registry{}
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	jobs := NewJobStore(cfg.JobTTL)
	if deps.Recorder != nil {
		jobs.SetRecorder(deps.Recorder)
	}
	stats := &counters{}
	o := &Orchestrator{
		jobs:  jobs,
		queue: make(chan *Job, cfg.MaxQueueSize),
		deps:  deps,
		log:   deps.Log,
		cfg:   cfg,
		stats: stats,
	}
	o.worker = NewWorker(deps, WorkerConfig{
		EnableValidation: cfg.EnableValidation,
		EnableMerge:      cfg.EnableMerge,
		Validator:        tables.NewValidator(tables.WithMinConfidence(cfg.MinConfidence)),
		ResultTTL:        cfg.JobTTL,
	}, stats)
	return o
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range max(o.cfg.WorkerCount, 1) {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.worker.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				if n := o.jobs.Cleanup(); n > 0 {
					o.log.Debug("evicted expired jobs", "count", n)
				}
				o.prune(workerCtx)
			}
		}
	}()
}

// pruner is implemented by recorders that can drop old snapshots.
type pruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

func (o *Orchestrator) prune(ctx context.Context) {
	p, ok := o.deps.Recorder.(pruner)
	if !ok || o.cfg.JobRetention <= 0 {
		return
	}
	n, err := p.DeleteBefore(ctx, time.Now().Add(-o.cfg.JobRetention))
	if err != nil {
		o.log.Warn("prune persisted jobs failed", "error", err)
		return
	}
	if n > 0 {
		o.log.Info("pruned persisted jobs", "count", n)
	}
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.AddError("job queue is full")
		job.SetStatus(StatusFailed, "queue_full")
		o.stats.failed.Add(1)
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// Run processes job on the calling goroutine and returns once it is terminal.
func (o *Orchestrator) Run(ctx context.Context, job *Job) error {
	o.jobs.Put(job)
	return o.worker.Run(ctx, job)
}

// GetJob returns a job by ID, consulting the recorder for evicted jobs.
func (o *Orchestrator) GetJob(ctx context.Context, id string) (*Job, error) {
	return o.jobs.Lookup(ctx, id)
}

// ListJobs returns up to limit recent jobs, newest first. Persisted jobs no
// longer held in memory fill the remainder.
func (o *Orchestrator) ListJobs(ctx context.Context, limit int) ([]JobSnapshot, error) {
	live := o.jobs.List(limit)
	out := make([]JobSnapshot, 0, len(live))
	seen := make(map[string]bool, len(live))
	for _, j := range live {
		snap := j.Snapshot()
		seen[snap.ID] = true
		out = append(out, snap)
	}
	if o.deps.Recorder == nil || (limit > 0 && len(out) >= limit) {
		return out, nil
	}

	stored, err := o.deps.Recorder.List(ctx, limit)
	if err != nil {
		return out, fmt.Errorf("list persisted jobs: %w", err)
	}
	for _, snap := range stored {
		if !seen[snap.ID] {
			out = append(out, snap)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns the processing counters.
func (o *Orchestrator) Stats() Stats {
	s := Stats{
		DocumentsProcessed: o.stats.processed.Load(),
		DocumentsFailed:    o.stats.failed.Load(),
		APICalls:           o.stats.apiCalls.Load(),
		TablesRepaired:     o.stats.repaired.Load(),
		QueueDepth:         o.QueueDepth(),
		TrackedJobs:        o.jobs.Len(),
	}
	if o.deps.Backend != nil {
		s.Model = o.deps.Backend.Model()
	}
	return s
}

// Validator returns the validator configured for this pipeline.
func (o *Orchestrator) Validator() *tables.Validator {
	return o.worker.cfg.Validator
}
