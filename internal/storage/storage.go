package storage

import (
	"sync"

	"github.com/inedibleX/goat-trading/internal/model"
)

// EventStorage is a sink for the venue's ordered event log.
type EventStorage interface {
	AppendEvents(records []model.EventRecord) error
}

// MemoryStorage collects events in memory. Used by tests and dry runs.
type MemoryStorage struct {
	mu      sync.Mutex
	records []model.EventRecord
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) AppendEvents(records []model.EventRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

// Records returns a copy of everything appended so far.
func (s *MemoryStorage) Records() []model.EventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.EventRecord, len(s.records))
	copy(out, s.records)
	return out
}
