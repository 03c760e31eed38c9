// Package studylog persists study history in SQLite: per-card status
// transitions and per-session aggregates, keyed by set name.
package studylog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"cardvault/internal/cards"
	"cardvault/internal/vaulterr"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; existing databases with a different version are rejected.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created with a different
// schema version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store records study history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the study database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete the database to reset)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// RecordStatus appends one card status transition.
func (s *Store) RecordStatus(ctx context.Context, setName, cardID string, status cards.Status) error {
	if _, err := cards.ParseStatus(string(status)); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO study_events (set_name, card_id, status, recorded_at) VALUES (?, ?, ?, ?)",
		setName, cardID, string(status), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert study event: %w", err)
	}
	return nil
}

// Session is one completed study run over a set.
type Session struct {
	ID           int64
	SetName      string
	StartedAt    time.Time
	Duration     time.Duration
	CardsStudied int
	KnownCount   int
	ReviewCount  int
	UnknownCount int
}

// RecordSession appends a completed session.
func (s *Store) RecordSession(ctx context.Context, session Session) error {
	if session.SetName == "" {
		return vaulterr.Invalidf("session requires a set name")
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO study_sessions (
            set_name, started_at, duration_seconds, cards_studied,
            known_count, review_count, unknown_count
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.SetName,
		session.StartedAt.UTC().Format(time.RFC3339Nano),
		int64(session.Duration.Seconds()),
		session.CardsStudied,
		session.KnownCount,
		session.ReviewCount,
		session.UnknownCount,
	)
	if err != nil {
		return fmt.Errorf("insert study session: %w", err)
	}
	return nil
}

// Summary aggregates a set's recorded history.
type Summary struct {
	SetName       string
	Sessions      int
	TotalStudied  int
	TotalDuration time.Duration
	LastStudied   *time.Time
}

// SetSummary aggregates every recorded session for a set. A set with no
// history yields a zero summary, not an error.
func (s *Store) SetSummary(ctx context.Context, setName string) (Summary, error) {
	summary := Summary{SetName: setName}
	var last sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), COALESCE(SUM(cards_studied), 0), COALESCE(SUM(duration_seconds), 0), MAX(started_at)
         FROM study_sessions WHERE set_name = ?`, setName).
		Scan(&summary.Sessions, &summary.TotalStudied, &summaryDuration{&summary.TotalDuration}, &last)
	if err != nil {
		return Summary{}, fmt.Errorf("aggregate sessions: %w", err)
	}
	if last.Valid {
		ts, err := time.Parse(time.RFC3339Nano, last.String)
		if err == nil {
			summary.LastStudied = &ts
		}
	}
	return summary, nil
}

// summaryDuration scans a seconds column into a time.Duration.
type summaryDuration struct {
	d *time.Duration
}

func (s *summaryDuration) Scan(value any) error {
	switch v := value.(type) {
	case int64:
		*s.d = time.Duration(v) * time.Second
		return nil
	case nil:
		*s.d = 0
		return nil
	default:
		return fmt.Errorf("unsupported duration column type %T", value)
	}
}

// RecentSessions returns up to limit sessions for a set, newest first.
func (s *Store) RecentSessions(ctx context.Context, setName string, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, set_name, started_at, duration_seconds, cards_studied,
                known_count, review_count, unknown_count
         FROM study_sessions WHERE set_name = ?
         ORDER BY started_at DESC, id DESC LIMIT ?`, setName, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var session Session
		var started string
		var seconds int64
		if err := rows.Scan(&session.ID, &session.SetName, &started, &seconds,
			&session.CardsStudied, &session.KnownCount, &session.ReviewCount, &session.UnknownCount); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, started); err == nil {
			session.StartedAt = ts
		}
		session.Duration = time.Duration(seconds) * time.Second
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// RenameSet moves a set's history to a new name.
func (s *Store) RenameSet(ctx context.Context, oldName, newName string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rename tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"study_events", "study_sessions"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("UPDATE %s SET set_name = ? WHERE set_name = ?", table), newName, oldName); err != nil {
			return fmt.Errorf("rename history in %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rename: %w", err)
	}
	return nil
}

// DeleteSet discards all history for a set.
func (s *Store) DeleteSet(ctx context.Context, setName string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"study_events", "study_sessions"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE set_name = ?", table), setName); err != nil {
			return fmt.Errorf("delete history in %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}
