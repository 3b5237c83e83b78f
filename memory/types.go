// Package memory implements spec.md §4.10's three keyed stores — working,
// episodic, and semantic — behind one Memory interface, with semantic
// retrieval backed by a pluggable VectorStore.
package memory

import (
	"context"
	"time"
)

// SearchResult is one hit from a VectorStore similarity search.
type SearchResult struct {
	ID       string
	Content  string
	Score    float32
	Metadata map[string]any
}

// VectorStore is the injectable semantic-retrieval backend. All three
// concrete backends (InProcessStore, PineconeStore, QdrantStore)
// implement this same shape, mirroring the teacher's chromem/qdrant/
// pinecone provider trio.
type VectorStore interface {
	Upsert(ctx context.Context, collection, id string, vector []float32, metadata map[string]any) error
	Search(ctx context.Context, collection string, vector []float32, topK int) ([]SearchResult, error)
	SearchWithFilter(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]SearchResult, error)
	Delete(ctx context.Context, collection, id string) error
	DeleteByFilter(ctx context.Context, collection string, filter map[string]any) error
	Close() error
}

// Embedder turns text into the vectors a VectorStore indexes and
// searches on. RetrieveRelevant must stay side-effect free on read
// (spec.md §4.10): Embed must not mutate the store.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// EpisodicRecord is one ordered, timestamped step record (spec.md
// §4.10's "episodic: ordered step records with timestamp").
type EpisodicRecord struct {
	Step      int
	Timestamp time.Time
	Role      string
	Content   string
	Metadata  map[string]any
}

// EpisodicStore is the append-only backend for episodic entries. It is
// never used to mutate past entries, only to append and replay them.
type EpisodicStore interface {
	Append(ctx context.Context, agentID string, rec EpisodicRecord) error
	List(ctx context.Context, agentID string) ([]EpisodicRecord, error)
	Close() error
}

// Memory is spec.md §4.10's interface: update_working, update_semantic,
// append_episodic, retrieve_relevant, named idiomatically and taking a
// context on every call that can block on I/O.
type Memory interface {
	// UpdateWorking sets an ephemeral, per-task key. Working memory does
	// not persist across agent Close/New cycles.
	UpdateWorking(ctx context.Context, key string, value any) error
	// GetWorking reads back a working-memory key set by UpdateWorking.
	GetWorking(ctx context.Context, key string) (any, bool)
	// ClearWorking discards all working-memory keys, e.g. at the start
	// of a new task.
	ClearWorking(ctx context.Context)

	// UpdateSemantic stores value under key in the long-term semantic
	// store, embedding it for later RetrieveRelevant calls.
	UpdateSemantic(ctx context.Context, key, value string) error

	// AppendEpisodic records one ordered step entry. Episodic entries
	// are append-only during an agent's life (spec.md §4.10).
	AppendEpisodic(ctx context.Context, rec EpisodicRecord) error
	// Episodic returns every episodic record appended so far, in order.
	Episodic(ctx context.Context) ([]EpisodicRecord, error)

	// RetrieveRelevant embeds query and returns the top-k most similar
	// semantic entries. Side-effect free on read.
	RetrieveRelevant(ctx context.Context, query string, k int) ([]SearchResult, error)

	// Close releases the underlying stores' resources.
	Close() error
}
