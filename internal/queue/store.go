package queue

import (
	"context"
	"sync"
	"time"
)

// Metadata is the locally-owned bookkeeping for one appointment. The backend
// knows nothing about arrival flags or queue positions; only this store does.
type Metadata struct {
	ID          string    `json:"id"`
	Arrived     bool      `json:"arrived"`
	QueueNumber int       `json:"queue_number"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
	// CompleteSynced is set once the backend has echoed treatment_status
	// "complete" for a locally completed appointment.
	CompleteSynced bool `json:"complete_synced,omitempty"`
}

// MetaStore is durable keyed storage for queue metadata plus the day marker
// the current mapping is valid for. Implementations must survive restarts;
// write failures are recoverable, the manager keeps going on memory.
type MetaStore interface {
	Get(ctx context.Context, id string) (*Metadata, error)
	Put(ctx context.Context, md *Metadata) error
	Delete(ctx context.Context, id string) error
	// Clear wipes all entries and the day marker.
	Clear(ctx context.Context) error
	All(ctx context.Context) ([]Metadata, error)
	Day(ctx context.Context) (string, error)
	SetDay(ctx context.Context, day string) error
}

// MemoryMetaStore keeps everything in process. Used in tests and when no
// Redis is configured; queue positions then reset on restart.
type MemoryMetaStore struct {
	mu      sync.RWMutex
	entries map[string]Metadata
	day     string
}

func NewMemoryMetaStore() *MemoryMetaStore {
	return &MemoryMetaStore{entries: make(map[string]Metadata)}
}

func (s *MemoryMetaStore) Get(_ context.Context, id string) (*Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	md, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	return &md, nil
}

func (s *MemoryMetaStore) Put(_ context.Context, md *Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[md.ID] = *md
	return nil
}

func (s *MemoryMetaStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *MemoryMetaStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Metadata)
	s.day = ""
	return nil
}

func (s *MemoryMetaStore) All(_ context.Context) ([]Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Metadata, 0, len(s.entries))
	for _, md := range s.entries {
		result = append(result, md)
	}
	return result, nil
}

func (s *MemoryMetaStore) Day(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.day, nil
}

func (s *MemoryMetaStore) SetDay(_ context.Context, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.day = day
	return nil
}
