package memory

import (
	"context"
	"fmt"

	"github.com/pinecone-io/go-pinecone/pinecone"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kadirpekel/minion/config"
)

// PineconeStore is a remote VectorStore backend over Pinecone, grounded
// on the teacher's pkg/vector/pinecone.go PineconeProvider, adapted to
// memory.VectorStore's narrower CRUD surface. Pinecone has no notion of
// "collection" the way Qdrant/chromem do: the collection argument to
// each method is treated as an index name, falling back to the
// store's configured default index when empty.
type PineconeStore struct {
	client     *pinecone.Client
	defaultIdx string
}

// NewPineconeStore dials Pinecone using cfg.APIKey/cfg.Host, with
// defaultIndex as the fallback index name when a call's collection
// argument is empty.
func NewPineconeStore(cfg config.DatabaseProviderConfig, defaultIndex string) (*PineconeStore, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("memory: api_key is required for pinecone")
	}
	params := pinecone.NewClientParams{ApiKey: cfg.APIKey}
	if cfg.Host != "" {
		params.Host = cfg.Host
	}
	client, err := pinecone.NewClient(params)
	if err != nil {
		return nil, fmt.Errorf("memory: creating pinecone client: %w", err)
	}
	if defaultIndex == "" {
		defaultIndex = "minion-memory"
	}
	return &PineconeStore{client: client, defaultIdx: defaultIndex}, nil
}

func (p *PineconeStore) indexName(collection string) string {
	if collection == "" {
		return p.defaultIdx
	}
	return collection
}

func (p *PineconeStore) connection(ctx context.Context, collection string) (*pinecone.IndexConnection, error) {
	name := p.indexName(collection)
	index, err := p.client.DescribeIndex(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("memory: describing pinecone index %q: %w", name, err)
	}
	conn, err := p.client.Index(pinecone.NewIndexConnParams{Host: index.Host})
	if err != nil {
		return nil, fmt.Errorf("memory: connecting to pinecone index %q: %w", name, err)
	}
	return conn, nil
}

func (p *PineconeStore) Upsert(ctx context.Context, collection, id string, vector []float32, metadata map[string]any) error {
	conn, err := p.connection(ctx, collection)
	if err != nil {
		return err
	}
	defer conn.Close()

	var pbMetadata *pinecone.Metadata
	if len(metadata) > 0 {
		pbMetadata, err = structpb.NewStruct(metadata)
		if err != nil {
			return fmt.Errorf("memory: converting metadata: %w", err)
		}
	}
	vec := &pinecone.Vector{Id: id, Values: vector, Metadata: pbMetadata}
	if _, err := conn.UpsertVectors(ctx, []*pinecone.Vector{vec}); err != nil {
		return fmt.Errorf("memory: upserting vector %q: %w", id, err)
	}
	return nil
}

func (p *PineconeStore) Search(ctx context.Context, collection string, vector []float32, topK int) ([]SearchResult, error) {
	return p.SearchWithFilter(ctx, collection, vector, topK, nil)
}

func (p *PineconeStore) SearchWithFilter(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]SearchResult, error) {
	conn, err := p.connection(ctx, collection)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var metadataFilter *pinecone.MetadataFilter
	if len(filter) > 0 {
		metadataFilter, err = structpb.NewStruct(filter)
		if err != nil {
			return nil, fmt.Errorf("memory: converting filter: %w", err)
		}
	}
	resp, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		MetadataFilter:  metadataFilter,
		IncludeMetadata: true,
		IncludeValues:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("memory: querying pinecone: %w", err)
	}
	return convertPineconeMatches(resp.Matches), nil
}

func convertPineconeMatches(matches []*pinecone.ScoredVector) []SearchResult {
	out := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		if m.Vector == nil {
			continue
		}
		metadata := make(map[string]any)
		if m.Vector.Metadata != nil {
			for k, v := range m.Vector.Metadata.AsMap() {
				metadata[k] = v
			}
		}
		content, _ := metadata["content"].(string)
		out = append(out, SearchResult{ID: m.Vector.Id, Content: content, Score: m.Score, Metadata: metadata})
	}
	return out
}

func (p *PineconeStore) Delete(ctx context.Context, collection, id string) error {
	conn, err := p.connection(ctx, collection)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := conn.DeleteVectorsById(ctx, []string{id}); err != nil {
		return fmt.Errorf("memory: deleting vector %q: %w", id, err)
	}
	return nil
}

func (p *PineconeStore) DeleteByFilter(ctx context.Context, collection string, filter map[string]any) error {
	conn, err := p.connection(ctx, collection)
	if err != nil {
		return err
	}
	defer conn.Close()

	var metadataFilter *pinecone.MetadataFilter
	if len(filter) > 0 {
		metadataFilter, err = structpb.NewStruct(filter)
		if err != nil {
			return fmt.Errorf("memory: converting filter: %w", err)
		}
	}
	if err := conn.DeleteVectorsByFilter(ctx, metadataFilter); err != nil {
		return fmt.Errorf("memory: deleting by filter: %w", err)
	}
	return nil
}

func (p *PineconeStore) Close() error {
	return nil
}

var _ VectorStore = (*PineconeStore)(nil)
