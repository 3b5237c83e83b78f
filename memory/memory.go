package memory

import (
	"context"
	"fmt"
)

// Store is the concrete Memory implementation: a working-memory map, a
// VectorStore + Embedder pair for semantic retrieval, and an
// EpisodicStore for ordered step records — all scoped to one agentID,
// mirroring the teacher's MemoryService's per-agent isolation
// (pkg/memory/memory.go's agentID field and its collection naming).
type Store struct {
	agentID    string
	collection string

	working  *workingMemory
	vector   VectorStore
	embedder Embedder
	episodic EpisodicStore
}

// New builds a Store for agentID. vector/embedder may be nil, in which
// case UpdateSemantic and RetrieveRelevant are no-ops (a deployment
// without a configured semantic backend still gets working+episodic
// memory). episodic defaults to an InProcessEpisodicStore when nil.
func New(agentID string, vector VectorStore, embedder Embedder, episodic EpisodicStore) *Store {
	if episodic == nil {
		episodic = NewInProcessEpisodicStore()
	}
	collection := fmt.Sprintf("minion_memory_%s", agentID)
	return &Store{
		agentID:    agentID,
		collection: collection,
		working:    newWorkingMemory(),
		vector:     vector,
		embedder:   embedder,
		episodic:   episodic,
	}
}

func (s *Store) UpdateWorking(ctx context.Context, key string, value any) error {
	s.working.set(key, value)
	return nil
}

func (s *Store) GetWorking(ctx context.Context, key string) (any, bool) {
	return s.working.get(key)
}

func (s *Store) ClearWorking(ctx context.Context) {
	s.working.clear()
}

func (s *Store) UpdateSemantic(ctx context.Context, key, value string) error {
	if s.vector == nil || s.embedder == nil {
		return nil
	}
	vec, err := s.embedder.Embed(ctx, value)
	if err != nil {
		return fmt.Errorf("memory: embedding semantic value for key %q: %w", key, err)
	}
	metadata := map[string]any{
		"agent_id": s.agentID,
		"key":      key,
		"content":  value,
	}
	if err := s.vector.Upsert(ctx, s.collection, key, vec, metadata); err != nil {
		return fmt.Errorf("memory: storing semantic value for key %q: %w", key, err)
	}
	return nil
}

func (s *Store) AppendEpisodic(ctx context.Context, rec EpisodicRecord) error {
	if err := s.episodic.Append(ctx, s.agentID, rec); err != nil {
		return fmt.Errorf("memory: appending episodic record: %w", err)
	}
	return nil
}

func (s *Store) Episodic(ctx context.Context) ([]EpisodicRecord, error) {
	recs, err := s.episodic.List(ctx, s.agentID)
	if err != nil {
		return nil, fmt.Errorf("memory: listing episodic records: %w", err)
	}
	return recs, nil
}

func (s *Store) RetrieveRelevant(ctx context.Context, query string, k int) ([]SearchResult, error) {
	if s.vector == nil || s.embedder == nil || query == "" || k <= 0 {
		return nil, nil
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("memory: embedding query: %w", err)
	}
	results, err := s.vector.SearchWithFilter(ctx, s.collection, vec, k, map[string]any{"agent_id": s.agentID})
	if err != nil {
		return nil, fmt.Errorf("memory: retrieving relevant entries: %w", err)
	}
	return results, nil
}

func (s *Store) Close() error {
	var firstErr error
	if s.vector != nil {
		if err := s.vector.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("memory: closing vector store: %w", err)
		}
	}
	if s.episodic != nil {
		if err := s.episodic.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("memory: closing episodic store: %w", err)
		}
	}
	return firstErr
}

var _ Memory = (*Store)(nil)
