package twofactor

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository keeps records in process memory. It is meant for tests and
// single-instance development setups.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Record
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[uuid.UUID]Record)}
}

func (m *MemoryRepository) Load(ctx context.Context, id uuid.UUID) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return Record{AccountID: id}, nil
	}
	return rec.clone(), nil
}

func (m *MemoryRepository) Save(ctx context.Context, rec Record, expectedVersion int64) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.records[rec.AccountID].Version != expectedVersion {
		return Record{}, ErrVersionConflict
	}
	rec = rec.clone()
	rec.Version = expectedVersion + 1
	m.records[rec.AccountID] = rec
	return rec.clone(), nil
}
