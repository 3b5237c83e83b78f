package memory

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"
)

// InProcessStore is the default VectorStore: an embedded, dependency-
// free vector database backed by philippgille/chromem-go, with
// optional gzip-compressed file persistence. Grounded on the teacher's
// pkg/vector/chromem.go ChromemProvider, adapted to memory.VectorStore's
// shape and to Minion's own metadata conventions (agent_id/key/content
// rather than hector's agent_id/session_id/role).
type InProcessStore struct {
	db          *chromem.DB
	persistPath string
	compress    bool

	mu          sync.RWMutex
	collections map[string]*chromem.Collection
}

// NewInProcessStore builds an InProcessStore. persistPath, when
// non-empty, enables on-disk persistence of every upsert/delete.
func NewInProcessStore(persistPath string, compress bool) (*InProcessStore, error) {
	var db *chromem.DB
	if persistPath != "" {
		loaded, err := chromem.NewPersistentDB(persistPath, compress)
		if err != nil {
			db = chromem.NewDB()
		} else {
			db = loaded
		}
	} else {
		db = chromem.NewDB()
	}
	return &InProcessStore{
		db:          db,
		persistPath: persistPath,
		compress:    compress,
		collections: make(map[string]*chromem.Collection),
	}, nil
}

// identityEmbed is passed to chromem.GetOrCreateCollection since every
// vector this store indexes arrives pre-computed via Embedder; it only
// returns an error if chromem ever asks it to embed text.
func identityEmbed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("memory: chromem embedding func invoked, but vectors must be pre-computed")
}

func (p *InProcessStore) collectionFor(name string) (*chromem.Collection, error) {
	p.mu.RLock()
	if col, ok := p.collections[name]; ok {
		p.mu.RUnlock()
		return col, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if col, ok := p.collections[name]; ok {
		return col, nil
	}
	col, err := p.db.GetOrCreateCollection(name, nil, identityEmbed)
	if err != nil {
		return nil, fmt.Errorf("memory: getting/creating collection %q: %w", name, err)
	}
	p.collections[name] = col
	return col, nil
}

func toStringMap(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out
}

func (p *InProcessStore) Upsert(ctx context.Context, collection, id string, vector []float32, metadata map[string]any) error {
	col, err := p.collectionFor(collection)
	if err != nil {
		return err
	}
	content, _ := metadata["content"].(string)
	doc := chromem.Document{ID: id, Content: content, Metadata: toStringMap(metadata), Embedding: vector}
	if err := col.AddDocuments(ctx, []chromem.Document{doc}, runtime.NumCPU()); err != nil {
		return fmt.Errorf("memory: upserting document %q: %w", id, err)
	}
	return p.persist()
}

func (p *InProcessStore) Search(ctx context.Context, collection string, vector []float32, topK int) ([]SearchResult, error) {
	return p.SearchWithFilter(ctx, collection, vector, topK, nil)
}

func (p *InProcessStore) SearchWithFilter(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]SearchResult, error) {
	col, err := p.collectionFor(collection)
	if err != nil {
		return nil, err
	}
	var where map[string]string
	if len(filter) > 0 {
		where = toStringMap(filter)
	}
	results, err := col.QueryEmbedding(ctx, vector, topK, where, nil)
	if err != nil {
		return nil, fmt.Errorf("memory: searching collection %q: %w", collection, err)
	}
	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		metadata := make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			metadata[k] = v
		}
		out = append(out, SearchResult{ID: r.ID, Content: r.Content, Score: r.Similarity, Metadata: metadata})
	}
	return out, nil
}

func (p *InProcessStore) Delete(ctx context.Context, collection, id string) error {
	col, err := p.collectionFor(collection)
	if err != nil {
		return err
	}
	if err := col.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("memory: deleting document %q: %w", id, err)
	}
	return p.persist()
}

func (p *InProcessStore) DeleteByFilter(ctx context.Context, collection string, filter map[string]any) error {
	col, err := p.collectionFor(collection)
	if err != nil {
		return err
	}
	if err := col.Delete(ctx, toStringMap(filter), nil); err != nil {
		return fmt.Errorf("memory: deleting by filter in collection %q: %w", collection, err)
	}
	return p.persist()
}

func (p *InProcessStore) Close() error {
	return p.persist()
}

func (p *InProcessStore) persist() error {
	if p.persistPath == "" {
		return nil
	}
	if err := p.db.Export(p.persistPath, p.compress, ""); err != nil {
		return fmt.Errorf("memory: persisting in-process store: %w", err)
	}
	return nil
}

var _ VectorStore = (*InProcessStore)(nil)
