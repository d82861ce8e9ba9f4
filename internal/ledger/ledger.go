// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger keeps local run history in SQLite: one row per run and one
// row per article a run touched. The ledger is an audit trail, not the
// source of truth; the external database stays authoritative for content.
package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/learning-engine/pkg/types"
)

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at cfg.Path and ensures the
// schema exists.
func Open(cfg types.LedgerConfig) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			dry_run INTEGER NOT NULL DEFAULT 0,
			topics INTEGER NOT NULL DEFAULT 0,
			fetched INTEGER NOT NULL DEFAULT 0,
			summarized INTEGER NOT NULL DEFAULT 0,
			created INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			errors INTEGER NOT NULL DEFAULT 0,
			succeeded INTEGER NOT NULL DEFAULT 0,
			summary TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			topic TEXT NOT NULL,
			title TEXT,
			source_url TEXT NOT NULL,
			stage TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			UNIQUE(run_id, source_url)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_status ON items(status)`,
		`CREATE INDEX IF NOT EXISTS idx_items_source_url ON items(source_url)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun stores one run and its item trail in a single transaction.
// Recording the same run twice replaces its item rows.
func (s *Store) RecordRun(summary types.RunSummary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encoding run summary: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	totals := summary.Totals()
	_, err = tx.Exec(
		`INSERT INTO runs (run_id, started_at, finished_at, dry_run, topics,
			fetched, summarized, created, skipped, errors, succeeded, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET
			finished_at = excluded.finished_at,
			fetched = excluded.fetched,
			summarized = excluded.summarized,
			created = excluded.created,
			skipped = excluded.skipped,
			errors = excluded.errors,
			succeeded = excluded.succeeded,
			summary = excluded.summary`,
		summary.RunID,
		summary.StartedAt.UTC().Format(time.RFC3339),
		summary.FinishedAt.UTC().Format(time.RFC3339),
		boolInt(summary.DryRun),
		len(summary.Topics),
		totals.Fetched,
		totals.Summarized,
		totals.Persisted,
		totals.Skipped,
		summary.TotalErrors(),
		boolInt(summary.Succeeded()),
		string(raw),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for _, topic := range summary.Topics {
		for _, item := range topic.Items {
			_, err = tx.Exec(
				`INSERT INTO items (run_id, topic, title, source_url, stage, status, error)
				 VALUES (?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT(run_id, source_url) DO UPDATE SET
					stage = excluded.stage,
					status = excluded.status,
					error = excluded.error`,
				summary.RunID, topic.Topic, item.Title, item.SourceURL,
				item.Stage, string(item.Status), item.Error,
			)
			if err != nil {
				return fmt.Errorf("inserting item %s: %w", item.SourceURL, err)
			}
		}
	}

	return tx.Commit()
}

// RunRow is one line of the run listing.
type RunRow struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool
	Topics     int
	Fetched    int
	Summarized int
	Created    int
	Skipped    int
	Errors     int
	Succeeded  bool
}

// ListRuns returns runs newest first. A positive limit caps the listing; a
// non-zero since drops runs that started earlier.
func (s *Store) ListRuns(limit int, since time.Time) ([]RunRow, error) {
	q := sq.Select("run_id", "started_at", "finished_at", "dry_run", "topics",
		"fetched", "summarized", "created", "skipped", "errors", "succeeded").
		From("runs").
		OrderBy("started_at DESC")
	if !since.IsZero() {
		q = q.Where(sq.GtOrEq{"started_at": since.UTC().Format(time.RFC3339)})
	}
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		var started, finished string
		var dryRun, succeeded int
		if err := rows.Scan(&r.RunID, &started, &finished, &dryRun, &r.Topics,
			&r.Fetched, &r.Summarized, &r.Created, &r.Skipped, &r.Errors, &succeeded); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		r.DryRun = dryRun != 0
		r.Succeeded = succeeded != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun returns the full stored summary for one run, or nil when the run
// is unknown.
func (s *Store) GetRun(runID string) (*types.RunSummary, error) {
	var raw string
	err := s.db.QueryRow(`SELECT summary FROM runs WHERE run_id = ?`, runID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", runID, err)
	}

	var summary types.RunSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return nil, fmt.Errorf("decoding run %s: %w", runID, err)
	}
	return &summary, nil
}

// ItemRow is one article trail row.
type ItemRow struct {
	RunID     string
	Topic     string
	Title     string
	SourceURL string
	Stage     string
	Status    types.PersistStatus
	Error     string
}

// RunItems returns the article trail of one run in insertion order.
func (s *Store) RunItems(runID string) ([]ItemRow, error) {
	return s.queryItems(sq.Eq{"run_id": runID}, "rowid ASC", 0)
}

// Failures returns the most recent failed items across all runs.
func (s *Store) Failures(limit int) ([]ItemRow, error) {
	return s.queryItems(sq.Eq{"status": string(types.PersistFailed)}, "rowid DESC", limit)
}

func (s *Store) queryItems(where any, orderBy string, limit int) ([]ItemRow, error) {
	q := sq.Select("run_id", "topic", "title", "source_url", "stage", "status", "error").
		From("items").
		Where(where).
		OrderBy(orderBy)
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var out []ItemRow
	for rows.Next() {
		var r ItemRow
		var status string
		if err := rows.Scan(&r.RunID, &r.Topic, &r.Title, &r.SourceURL, &r.Stage, &status, &r.Error); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		r.Status = types.PersistStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

// HasPersisted reports whether any past run created a page for the URL.
// It is a local hint; the external database remains the idempotency
// authority.
func (s *Store) HasPersisted(sourceURL string) (bool, error) {
	query, args, err := sq.Select("1").From("items").
		Where(sq.Eq{"source_url": sourceURL, "status": string(types.PersistCreated)}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("building query: %w", err)
	}

	var one int
	err = s.db.QueryRow(query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking source URL: %w", err)
	}
	return true, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
