package memory

import (
	"context"
	"sync"
)

// InProcessEpisodicStore is the default episodic backend: an
// append-only, in-memory slice per agent ID, guarded by a mutex. It is
// lost when the process exits — durable episodic history requires
// SQLEpisodicStore.
type InProcessEpisodicStore struct {
	mu      sync.RWMutex
	records map[string][]EpisodicRecord
}

// NewInProcessEpisodicStore builds an empty in-process episodic store.
func NewInProcessEpisodicStore() *InProcessEpisodicStore {
	return &InProcessEpisodicStore{records: make(map[string][]EpisodicRecord)}
}

func (s *InProcessEpisodicStore) Append(ctx context.Context, agentID string, rec EpisodicRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[agentID] = append(s.records[agentID], rec)
	return nil
}

func (s *InProcessEpisodicStore) List(ctx context.Context, agentID string) ([]EpisodicRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]EpisodicRecord, len(s.records[agentID]))
	copy(out, s.records[agentID])
	return out, nil
}

func (s *InProcessEpisodicStore) Close() error { return nil }

var _ EpisodicStore = (*InProcessEpisodicStore)(nil)
