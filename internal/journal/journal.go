package journal

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
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users delete the journal database to adopt the new schema.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Record is one invocation's outcome as persisted for observability.
type Record struct {
	ID                string
	SourceBucket      string
	SourceKey         string
	DestinationPrefix string
	Status            string
	FailedFrom        string
	ErrorKind         string
	ErrorMessage      string
	Renditions        int
	PublishedObjects  int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Store persists job history in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
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
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
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

// Insert records a new job at trigger receipt.
func (s *Store) Insert(ctx context.Context, rec *Record) error {
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (
            id, source_bucket, source_key, destination_prefix, status,
            failed_from, error_kind, error_message, renditions,
            published_objects, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.SourceBucket,
		rec.SourceKey,
		rec.DestinationPrefix,
		rec.Status,
		rec.FailedFrom,
		rec.ErrorKind,
		rec.ErrorMessage,
		rec.Renditions,
		rec.PublishedObjects,
		rec.CreatedAt.Format(time.RFC3339Nano),
		rec.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// Update persists a job's current state.
func (s *Store) Update(ctx context.Context, rec *Record) error {
	rec.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET
            status = ?, failed_from = ?, error_kind = ?, error_message = ?,
            renditions = ?, published_objects = ?, updated_at = ?
        WHERE id = ?`,
		rec.Status,
		rec.FailedFrom,
		rec.ErrorKind,
		rec.ErrorMessage,
		rec.Renditions,
		rec.PublishedObjects,
		rec.UpdatedAt.Format(time.RFC3339Nano),
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update job: unknown id %s", rec.ID)
	}
	return nil
}

// List returns the most recent records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_bucket, source_key, destination_prefix, status,
            failed_from, error_kind, error_message, renditions,
            published_objects, created_at, updated_at
        FROM jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var createdAt, updatedAt string
		if err := rows.Scan(
			&rec.ID, &rec.SourceBucket, &rec.SourceKey, &rec.DestinationPrefix,
			&rec.Status, &rec.FailedFrom, &rec.ErrorKind, &rec.ErrorMessage,
			&rec.Renditions, &rec.PublishedObjects, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		rec.CreatedAt = parseTime(createdAt)
		rec.UpdatedAt = parseTime(updatedAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return records, nil
}

// GetByID returns one record.
func (s *Store) GetByID(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source_bucket, source_key, destination_prefix, status,
            failed_from, error_kind, error_message, renditions,
            published_objects, created_at, updated_at
        FROM jobs WHERE id = ?`, id)

	var rec Record
	var createdAt, updatedAt string
	if err := row.Scan(
		&rec.ID, &rec.SourceBucket, &rec.SourceKey, &rec.DestinationPrefix,
		&rec.Status, &rec.FailedFrom, &rec.ErrorKind, &rec.ErrorMessage,
		&rec.Renditions, &rec.PublishedObjects, &createdAt, &updatedAt,
	); err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)
	return &rec, nil
}

func parseTime(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
