// Package jobdb persists job snapshots in SQLite so finished jobs outlive the
// in-memory TTL and process restarts.
package jobdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dgallion1/tabgest/internal/pipeline"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	filename   TEXT NOT NULL,
	snapshot   TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS jobs_created_at ON jobs (created_at DESC);
`

// DB stores job snapshots keyed by job ID.
type DB struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Save inserts or replaces the snapshot of a job.
func (d *DB) Save(ctx context.Context, snap pipeline.JobSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", snap.ID, err)
	}
	_, err = d.db.ExecContext(ctx, `
		INSERT INTO jobs (id, status, filename, snapshot, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			filename = excluded.filename,
			snapshot = excluded.snapshot,
			updated_at = excluded.updated_at`,
		snap.ID, string(snap.Status), snap.Filename, string(data),
		snap.CreatedAt.UnixNano(), snap.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save job %s: %w", snap.ID, err)
	}
	return nil
}

// Load returns the snapshot for id, or nil if it was never saved.
func (d *DB) Load(ctx context.Context, id string) (*pipeline.JobSnapshot, error) {
	var data string
	err := d.db.QueryRowContext(ctx, "SELECT snapshot FROM jobs WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", id, err)
	}
	snap, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", id, err)
	}
	return &snap, nil
}

// List returns up to limit snapshots, newest first. limit <= 0 returns all.
func (d *DB) List(ctx context.Context, limit int) ([]pipeline.JobSnapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.db.QueryContext(ctx,
		"SELECT snapshot FROM jobs ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []pipeline.JobSnapshot
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		snap, err := decode(data)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// DeleteBefore removes jobs last updated before cutoff and returns how many
// were removed.
func (d *DB) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := d.db.ExecContext(ctx, "DELETE FROM jobs WHERE updated_at < ?", cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("delete jobs: %w", err)
	}
	return res.RowsAffected()
}

func (d *DB) Close() error {
	return d.db.Close()
}

func decode(data string) (pipeline.JobSnapshot, error) {
	var snap pipeline.JobSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return snap, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
