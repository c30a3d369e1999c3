package pathstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgallion1/tabgest/internal/tables"
)

const (
	extractionPrefix = "extractions"
	nodeSource       = "tabgest"
)

// Extraction is the stored outcome of one job.
type Extraction struct {
	JobID       string                   `json:"job_id"`
	Revision    string                   `json:"revision"`
	Filename    string                   `json:"filename"`
	ContentHash string                   `json:"content_hash,omitempty"`
	Result      tables.ExtractionResult  `json:"result"`
	Validation  *tables.ValidationResult `json:"validation,omitempty"`
	Repaired    int                      `json:"tables_repaired"`
	CreatedAt   time.Time                `json:"created_at"`
}

// ExtractionMeta is the summary stored beside each extraction.
type ExtractionMeta struct {
	JobID           string    `json:"job_id"`
	Filename        string    `json:"filename"`
	Revision        string    `json:"revision"`
	ContentHash     string    `json:"content_hash,omitempty"`
	TableCount      int       `json:"table_count"`
	Repaired        int       `json:"repaired"`
	IsValid         *bool     `json:"is_valid,omitempty"`
	ConfidenceScore *float64  `json:"confidence_score,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ResultKey returns the key holding the full extraction of a job.
func ResultKey(jobID string) string {
	return fmt.Sprintf("%s/%s/result", extractionPrefix, jobID)
}

// MetaKey returns the key holding the summary of a job's extraction.
func MetaKey(jobID string) string {
	return fmt.Sprintf("%s/%s/meta", extractionPrefix, jobID)
}

// PutExtraction writes the result node, then the meta node. A nonzero ttl
// sets an expiry on both.
func (c *Client) PutExtraction(ctx context.Context, e Extraction, ttl time.Duration) error {
	expires := ""
	if ttl > 0 {
		expires = time.Now().Add(ttl).UTC().Format(time.RFC3339)
	}

	if err := c.PutNode(ctx, ResultKey(e.JobID), NodeRequest{
		Value:      e,
		MergeMode:  "replace",
		MemoryType: "extraction",
		Salience:   0.5,
		Source:     nodeSource + ":" + e.JobID,
		ExpiresAt:  expires,
	}); err != nil {
		return fmt.Errorf("store result: %w", err)
	}

	meta := ExtractionMeta{
		JobID:       e.JobID,
		Filename:    e.Filename,
		Revision:    e.Revision,
		ContentHash: e.ContentHash,
		TableCount:  len(e.Result.Tables),
		Repaired:    e.Repaired,
		CreatedAt:   e.CreatedAt,
	}
	if e.Validation != nil {
		meta.IsValid = &e.Validation.IsValid
		meta.ConfidenceScore = &e.Validation.ConfidenceScore
	}
	if err := c.PutNode(ctx, MetaKey(e.JobID), NodeRequest{
		Value:      meta,
		MergeMode:  "replace",
		MemoryType: "metacognitive",
		Salience:   0.1,
		Source:     nodeSource + ":" + e.JobID,
		ExpiresAt:  expires,
	}); err != nil {
		return fmt.Errorf("store meta: %w", err)
	}
	return nil
}

// GetExtraction loads a stored extraction. It returns nil without error when
// the job has nothing stored.
func (c *Client) GetExtraction(ctx context.Context, jobID string) (*Extraction, error) {
	node, err := c.GetNode(ctx, ResultKey(jobID))
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, nil
	}
	var e Extraction
	if err := json.Unmarshal(node.Value, &e); err != nil {
		return nil, fmt.Errorf("decode extraction %s: %w", jobID, err)
	}
	return &e, nil
}

// DeleteExtraction removes every node stored for a job.
func (c *Client) DeleteExtraction(ctx context.Context, jobID string) error {
	return c.DeleteNode(ctx, fmt.Sprintf("%s/%s", extractionPrefix, jobID), true)
}

// ListExtractions returns the meta of stored extractions, newest first. A
// limit of zero or less returns all of them.
func (c *Client) ListExtractions(ctx context.Context, limit int) ([]ExtractionMeta, error) {
	nodes, err := c.ListChildren(ctx, extractionPrefix, 0)
	if err != nil {
		return nil, err
	}
	out := make([]ExtractionMeta, 0, len(nodes)/2)
	for _, n := range nodes {
		if !strings.HasSuffix(n.Key, "/meta") {
			continue
		}
		var m ExtractionMeta
		if err := json.Unmarshal(n.Value, &m); err != nil {
			return nil, fmt.Errorf("decode meta %s: %w", n.Key, err)
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
