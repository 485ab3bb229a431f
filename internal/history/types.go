// Package history keeps a bounded log of completed assessments. Stores are
// append-only from the caller's point of view; the oldest records are pruned
// once the configured limit is exceeded.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/symptom-intake-server/internal/domain"
)

// DefaultMaxEntries bounds a store built with a non-positive limit.
const DefaultMaxEntries = 100

// Record is one assessment: the analysis, the plan generated from it and a
// few denormalized fields for listing.
type Record struct {
	ID               uuid.UUID               `json:"id"`
	CreatedAt        time.Time               `json:"created_at"`
	InputText        string                  `json:"input_text"`
	Intent           domain.Intent           `json:"intent"`
	EntityCount      int                     `json:"entity_count"`
	Confidence       float64                 `json:"confidence"`
	ProcessingMethod domain.ProcessingMethod `json:"processing_method"`
	ModelUsed        string                  `json:"model_used"`
	Analysis         *domain.AnalysisResult  `json:"analysis"`
	Plan             *domain.WellnessPlan    `json:"plan"`
}

// NewRecord builds a record with a fresh id and the current time.
func NewRecord(analysis *domain.AnalysisResult, plan *domain.WellnessPlan) *Record {
	r := &Record{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC().Round(0),
		Analysis:  analysis,
		Plan:      plan,
	}
	if analysis != nil {
		r.InputText = analysis.OriginalText
		r.Intent = analysis.Intent
		r.EntityCount = analysis.EntityCount
		r.Confidence = analysis.Confidence
		r.ProcessingMethod = analysis.ProcessingMethod
	}
	if plan != nil {
		r.ModelUsed = plan.ModelUsed
	}
	return r
}

// Store defines the interface for assessment history storage.
type Store interface {
	// Append stores a record and prunes the oldest entries beyond the limit.
	Append(ctx context.Context, record *Record) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]*Record, error)

	// Get returns the record with id, or domain.ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Record, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// Close releases the store's resources.
	Close() error
}

func maxEntries(n int) int {
	if n <= 0 {
		return DefaultMaxEntries
	}
	return n
}
