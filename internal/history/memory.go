package history

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/symptom-intake-server/internal/domain"
)

// MemoryStore keeps records in process memory. It is the default driver and
// loses its contents on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*Record
	limit   int
}

// NewMemoryStore creates a store holding at most limit records.
func NewMemoryStore(limit int) *MemoryStore {
	return &MemoryStore{limit: maxEntries(limit)}
}

// Append stores record, dropping the oldest entries beyond the limit.
func (s *MemoryStore) Append(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
	if over := len(s.records) - s.limit; over > 0 {
		s.records = append([]*Record(nil), s.records[over:]...)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *MemoryStore) Recent(_ context.Context, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.records)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]*Record, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

// Get returns the record with id.
func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Count returns the number of stored records.
func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
