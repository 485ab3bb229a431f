package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/symptom-intake-server/internal/domain"
)

// PostgresStore implements the Store interface on a pgx pool.
// It expects the assessments table to exist (created via migrations).
type PostgresStore struct {
	pool  *pgxpool.Pool
	limit int
}

// NewPostgresStore creates a store on pool.
func NewPostgresStore(pool *pgxpool.Pool, limit int) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &PostgresStore{pool: pool, limit: maxEntries(limit)}, nil
}

// Append stores record and prunes the oldest rows beyond the limit.
func (s *PostgresStore) Append(ctx context.Context, record *Record) error {
	analysis, plan, err := encodePayload(record)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO assessments (
			id, created_at, input_text, intent, entity_count, confidence,
			processing_method, model_used, analysis, plan
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		record.ID,
		record.CreatedAt,
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
		return fmt.Errorf("failed to insert assessment: %w", err)
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM assessments
		WHERE seq NOT IN (SELECT seq FROM assessments ORDER BY seq DESC LIMIT $1)
	`, s.limit)
	if err != nil {
		return fmt.Errorf("failed to prune assessments: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func scanPostgresRecord(row pgx.Row) (*Record, error) {
	r := &Record{}
	var intent, method string
	var analysis, plan []byte

	err := row.Scan(&r.ID, &r.CreatedAt, &r.InputText, &intent, &r.EntityCount, &r.Confidence,
		&method, &r.ModelUsed, &analysis, &plan)
	if err != nil {
		return nil, err
	}

	r.CreatedAt = r.CreatedAt.UTC()
	r.Intent = domain.Intent(intent)
	r.ProcessingMethod = domain.ProcessingMethod(method)
	if err := decodePayload(analysis, plan, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Recent returns up to limit records, newest first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = s.limit
	}
	rows, err := s.pool.Query(ctx,
		"SELECT "+selectColumns+" FROM assessments ORDER BY seq DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var result []*Record
	for rows.Next() {
		r, err := scanPostgresRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// Get returns the record with id.
func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+selectColumns+" FROM assessments WHERE id = $1", id)

	r, err := scanPostgresRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return r, nil
}

// Count returns the number of stored records.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM assessments").Scan(&count)
	return count, err
}

// Close is a no-op; the pool is owned by the caller.
func (s *PostgresStore) Close() error {
	return nil
}
