// Package history records every processed document so it can be looked up by
// its document ID.
package history

import (
	"context"
	"sync"

	"github.com/google/uuid"

	domainerrors "stampbot/internal/errors"
	"stampbot/internal/models"
)

// Store saves and finds watermark records.
type Store interface {
	Record(ctx context.Context, rec models.WatermarkRecord) error
	Get(ctx context.Context, documentID uuid.UUID) (models.WatermarkRecord, error)
}

// Memory keeps the most recent records in process memory.
type Memory struct {
	mu      sync.Mutex
	limit   int
	order   []uuid.UUID
	records map[uuid.UUID]models.WatermarkRecord
}

// NewMemory returns a store holding at most limit records, oldest evicted first.
func NewMemory(limit int) *Memory {
	return &Memory{
		limit:   limit,
		records: make(map[uuid.UUID]models.WatermarkRecord, limit),
	}
}

func (m *Memory) Record(_ context.Context, rec models.WatermarkRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[rec.DocumentID]; !exists {
		m.order = append(m.order, rec.DocumentID)
	}
	m.records[rec.DocumentID] = rec

	for len(m.order) > m.limit {
		delete(m.records, m.order[0])
		m.order = m.order[1:]
	}
	return nil
}

func (m *Memory) Get(_ context.Context, documentID uuid.UUID) (models.WatermarkRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[documentID]
	if !ok {
		return models.WatermarkRecord{}, domainerrors.NotFound("document not found")
	}
	return rec, nil
}
