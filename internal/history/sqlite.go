package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/symptom-intake-server/internal/domain"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	limit  int
}

// NewSQLiteStore creates a new SQLite history store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string, limit int) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return newSQLiteStore(db, dbPath, limit), nil
}

func newSQLiteStore(db *sql.DB, dbPath string, limit int) *SQLiteStore {
	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
		limit:  maxEntries(limit),
	}
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS assessments (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		created_at INTEGER NOT NULL,
		input_text TEXT NOT NULL,
		intent TEXT NOT NULL,
		entity_count INTEGER NOT NULL DEFAULT 0,
		confidence REAL NOT NULL DEFAULT 0,
		processing_method TEXT NOT NULL,
		model_used TEXT NOT NULL,
		analysis TEXT NOT NULL,
		plan TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assessments_intent ON assessments(intent);
	`

	_, err := db.Exec(schema)
	return err
}

const selectColumns = `id, created_at, input_text, intent, entity_count, confidence,
	processing_method, model_used, analysis, plan`

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteRecord(s scanner) (*Record, error) {
	r := &Record{}
	var id, intent, method string
	var createdAt int64
	var analysis, plan []byte

	err := s.Scan(&id, &createdAt, &r.InputText, &intent, &r.EntityCount, &r.Confidence,
		&method, &r.ModelUsed, &analysis, &plan)
	if err != nil {
		return nil, err
	}

	if r.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid record id %q: %w", id, err)
	}
	r.CreatedAt = time.Unix(0, createdAt).UTC()
	r.Intent = domain.Intent(intent)
	r.ProcessingMethod = domain.ProcessingMethod(method)
	if err := decodePayload(analysis, plan, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Append stores record and prunes the oldest rows beyond the limit.
func (s *SQLiteStore) Append(ctx context.Context, record *Record) error {
	analysis, plan, err := encodePayload(record)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO assessments (
			id, created_at, input_text, intent, entity_count, confidence,
			processing_method, model_used, analysis, plan
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID.String(),
		record.CreatedAt.UnixNano(),
		record.InputText,
		string(record.Intent),
		record.EntityCount,
		record.Confidence,
		string(record.ProcessingMethod),
		record.ModelUsed,
		analysis,
		plan,
	)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM assessments
		WHERE seq NOT IN (SELECT seq FROM assessments ORDER BY seq DESC LIMIT ?)
	`, s.limit)
	if err != nil {
		return fmt.Errorf("failed to prune: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = s.limit
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM assessments ORDER BY seq DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*Record
	for rows.Next() {
		r, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// Get returns the record with id.
func (s *SQLiteStore) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM assessments WHERE id = ?", id.String())

	r, err := scanSQLiteRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return r, nil
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM assessments").Scan(&count)
	return count, err
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func encodePayload(record *Record) (analysis, plan []byte, err error) {
	if analysis, err = json.Marshal(record.Analysis); err != nil {
		return nil, nil, fmt.Errorf("failed to encode analysis: %w", err)
	}
	if plan, err = json.Marshal(record.Plan); err != nil {
		return nil, nil, fmt.Errorf("failed to encode plan: %w", err)
	}
	return analysis, plan, nil
}

func decodePayload(analysis, plan []byte, r *Record) error {
	if len(analysis) > 0 && string(analysis) != "null" {
		r.Analysis = &domain.AnalysisResult{}
		if err := json.Unmarshal(analysis, r.Analysis); err != nil {
			return fmt.Errorf("failed to decode analysis: %w", err)
		}
	}
	if len(plan) > 0 && string(plan) != "null" {
		r.Plan = &domain.WellnessPlan{}
		if err := json.Unmarshal(plan, r.Plan); err != nil {
			return fmt.Errorf("failed to decode plan: %w", err)
		}
	}
	return nil
}
