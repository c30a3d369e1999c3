package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/tabgest/internal/extract"
	"github.com/dgallion1/tabgest/internal/parser"
	"github.com/dgallion1/tabgest/internal/pathstore"
	"github.com/dgallion1/tabgest/internal/tables"
)

// DefaultSummary is the summary given to AI extractions.
const DefaultSummary = "Extraction completed successfully."

// ErrNoSource is returned when neither the AI backend nor the structural
// recognizer can read a file.
var ErrNoSource = errors.New("no extraction source available for file")

// WorkerConfig controls the post-extraction stages.
type WorkerConfig struct {
	EnableValidation bool
	EnableMerge      bool
	Validator        *tables.Validator
	ResultTTL        time.Duration
}

// Worker processes a single document job.
type Worker struct {
	backend  extract.Backend
	registry *parser.Registry
	results  ResultStore
	recorder JobRecorder
	log      *slog.Logger
	cfg      WorkerConfig
	stats    *counters

	backoff func(attempt int) time.Duration
}

func NewWorker(deps Deps, cfg WorkerConfig, stats *counters) *Worker {
	if cfg.Validator == nil {
		cfg.Validator = tables.NewValidator()
	}
	if deps.Registry == nil {
		deps.Registry = &parser.Registry{}
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if stats == nil {
		stats = &counters{}
	}
	return &Worker{
		backend:  deps.Backend,
		registry: deps.Registry,
		results:  deps.Results,
		recorder: deps.Recorder,
		log:      deps.Log,
		cfg:      cfg,
		stats:    stats,
		backoff:  Backoff,
	}
}

// Process runs the pipeline for a queued job. Failures are recorded on the job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	_ = w.Run(ctx, job)
}

// Run extracts, merges, validates, repairs and stores the tables of one
// document. The job is terminal when Run returns.
func (w *Worker) Run(ctx context.Context, job *Job) error {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	defer job.ReleaseFileData()

	err := w.run(ctx, job, log)
	if err != nil {
		phase := job.Snapshot().Phase
		log.Error("job failed", "phase", phase, "error", err)
		job.AddError(err.Error())
		w.stats.failed.Add(1)
		job.SetStatus(StatusFailed, phase)
	} else {
		w.stats.processed.Add(1)
		job.SetStatus(StatusCompleted, "done")
	}
	w.record(ctx, job, log)
	return err
}

func (w *Worker) run(ctx context.Context, job *Job, log *slog.Logger) error {
	data := job.FileData()
	useAI := w.backend != nil && extract.IsAIReadable(job.Filename)
	recognizer, recErr := w.registry.ForFile(job.Filename)
	if !useAI && recErr != nil {
		return fmt.Errorf("%w: %s", ErrNoSource, job.Filename)
	}

	// Phase 1: AI extraction and structural recognition run side by side.
	if useAI {
		job.SetStatus(StatusExtracting, "extracting")
	} else {
		job.SetStatus(StatusRecognizing, "recognizing")
	}

	var (
		raw        string
		aiErr      error
		recognized []tables.Table
	)
	var g errgroup.Group
	if useAI {
		g.Go(func() error {
			raw, aiErr = w.extractWithRetry(ctx, job, data, log)
			return nil
		})
	}
	if recognizer != nil {
		g.Go(func() error {
			recognized, recErr = recognizer.Parse(bytes.NewReader(data), job.Filename)
			return nil
		})
	}
	_ = g.Wait()

	if aiErr != nil {
		log.Warn("ai extraction failed", "error", aiErr)
		job.AddError(fmt.Sprintf("extract: %s", aiErr))
	}
	if recErr != nil && recognizer != nil {
		log.Warn("structural recognition failed", "error", recErr)
		job.AddError(fmt.Sprintf("recognize: %s", recErr))
	}
	aiOK := useAI && aiErr == nil
	recOK := recognizer != nil && recErr == nil
	if !aiOK && (!recOK || (useAI && len(recognized) == 0)) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.New("no tables could be extracted")
	}

	// Phase 2: Parse the AI reply.
	job.SetStatus(StatusParsing, "parsing")
	var aiResult tables.ExtractionResult
	if aiOK {
		if err := extract.CheckSchema(raw); err != nil {
			log.Warn("ai response does not match schema, repairing", "error", err)
		}
		aiResult = tables.ParseResult(raw, DefaultSummary)
	}
	ocrResult := tables.ExtractionResult{Tables: recognized}
	job.SetTableCounts(len(aiResult.Tables), len(recognized))
	log.Info("extraction complete",
		"ai_tables", len(aiResult.Tables),
		"recognized_tables", len(recognized),
	)

	result := combine(ocrResult, aiResult, w.cfg.EnableMerge, job)

	// Phase 3: Validate and repair.
	var validation *tables.ValidationResult
	if w.cfg.EnableValidation {
		job.SetStatus(StatusValidating, "validating")
		v := w.cfg.Validator.Validate(result)
		if !v.IsValid {
			job.SetStatus(StatusRepairing, "repairing")
			var n int
			result, v, n = w.cfg.Validator.RepairInvalid(result, v)
			w.stats.repaired.Add(int64(n))
			job.SetRepaired(n)
			log.Info("repair complete", "tables_repaired", n, "valid", v.IsValid, "confidence", v.ConfidenceScore)
		}
		validation = &v
	}
	job.SetResult(result, validation)

	// Phase 4: Store.
	if w.results != nil {
		job.SetStatus(StatusStoring, "storing")
		snap := job.Snapshot()
		err := w.results.PutExtraction(ctx, pathstore.Extraction{
			JobID:       job.ID,
			Revision:    generateULID(),
			Filename:    job.Filename,
			ContentHash: job.ContentHash,
			Result:      result,
			Validation:  validation,
			Repaired:    snap.Progress.TablesRepaired,
			CreatedAt:   snap.CreatedAt,
		}, w.cfg.ResultTTL)
		if err != nil {
			log.Error("result store failed", "error", err)
			job.AddError(fmt.Sprintf("store: %s", err))
		}
	}
	return nil
}

// combine picks the table set to validate. When both sources produced tables
// and merging is on, each AI table is merged with the recognized table at the
// same index.
func combine(ocrResult, aiResult tables.ExtractionResult, enableMerge bool, job *Job) tables.ExtractionResult {
	switch {
	case enableMerge && len(ocrResult.Tables) > 0 && len(aiResult.Tables) > 0:
		merged, n := tables.MergeResults(ocrResult, aiResult)
		job.SetMerged(n)
		return merged
	case len(aiResult.Tables) > 0 || len(ocrResult.Tables) == 0:
		if aiResult.Summary == "" {
			aiResult.Summary = DefaultSummary
		}
		return aiResult
	default:
		ocrResult.Summary = DefaultSummary
		return ocrResult
	}
}

// extractWithRetry calls the backend, retrying transient failures with
// backoff.
func (w *Worker) extractWithRetry(ctx context.Context, job *Job, data []byte, log *slog.Logger) (string, error) {
	var raw string
	var lastErr error
	for attempt := range MaxRetries {
		job.IncrAttempts()
		w.stats.apiCalls.Add(1)
		raw, lastErr = w.backend.ExtractTables(ctx, data, job.MimeType)
		if lastErr == nil || !IsRetryable(lastErr) || attempt == MaxRetries-1 {
			break
		}
		log.Warn("retryable extraction error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(w.backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return raw, lastErr
}

func (w *Worker) record(ctx context.Context, job *Job, log *slog.Logger) {
	if w.recorder == nil {
		return
	}
	if err := w.recorder.Save(context.WithoutCancel(ctx), job.Snapshot()); err != nil {
		log.Warn("job persist failed", "error", err)
	}
}
