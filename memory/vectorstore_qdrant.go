package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/qdrant/go-client/qdrant"

	"github.com/kadirpekel/minion/config"
)

// QdrantStore is a remote VectorStore backend over Qdrant, grounded on
// the teacher's pkg/vector/qdrant.go QdrantProvider (itself a direct
// port of pkg/databases/qdrant.go), adapted to memory.VectorStore's
// narrower CRUD surface and Minion's own metadata conventions.
type QdrantStore struct {
	client *qdrant.Client
}

// NewQdrantStore dials a Qdrant instance per cfg.
func NewQdrantStore(cfg config.DatabaseProviderConfig) (*QdrantStore, error) {
	cfg.SetDefaults()
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("memory: creating qdrant client for %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &QdrantStore{client: client}, nil
}

func (q *QdrantStore) Upsert(ctx context.Context, collection, id string, vector []float32, metadata map[string]any) error {
	exists, err := q.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("memory: checking collection %q: %w", collection, err)
	}
	if !exists {
		err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(len(vector)),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("memory: creating collection %q: %w", collection, err)
		}
	}

	payload := make(map[string]*qdrant.Value, len(metadata))
	for key, value := range metadata {
		val, err := qdrant.NewValue(value)
		if err != nil {
			return fmt.Errorf("memory: converting metadata key %q: %w", key, err)
		}
		payload[key] = val
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(id),
		Vectors: qdrant.NewVectors(vector...),
		Payload: payload,
	}
	if _, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{CollectionName: collection, Points: []*qdrant.PointStruct{point}}); err != nil {
		return fmt.Errorf("memory: upserting point %q: %w", id, err)
	}
	return nil
}

func (q *QdrantStore) Search(ctx context.Context, collection string, vector []float32, topK int) ([]SearchResult, error) {
	return q.SearchWithFilter(ctx, collection, vector, topK, nil)
}

func (q *QdrantStore) SearchWithFilter(ctx context.Context, collection string, vector []float32, topK int, filter map[string]any) ([]SearchResult, error) {
	searchRequest := &qdrant.SearchPoints{
		CollectionName: collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	}
	if len(filter) > 0 {
		searchRequest.Filter = buildQdrantFilter(filter)
	}

	pointsClient := q.client.GetPointsClient()
	searchResult, err := pointsClient.Search(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("memory: searching collection %q: %w", collection, err)
	}
	return convertQdrantResults(searchResult.Result), nil
}

func (q *QdrantStore) Delete(ctx context.Context, collection, id string) error {
	deletePoints := &qdrant.DeletePoints{
		CollectionName: collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{
					Ids: []*qdrant.PointId{{PointIdOptions: &qdrant.PointId_Uuid{Uuid: id}}},
				},
			},
		},
	}
	if _, err := q.client.Delete(ctx, deletePoints); err != nil {
		return fmt.Errorf("memory: deleting point %q: %w", id, err)
	}
	return nil
}

func (q *QdrantStore) DeleteByFilter(ctx context.Context, collection string, filter map[string]any) error {
	deletePoints := &qdrant.DeletePoints{
		CollectionName: collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{Filter: buildQdrantFilter(filter)},
		},
	}
	if _, err := q.client.Delete(ctx, deletePoints); err != nil {
		return fmt.Errorf("memory: deleting by filter in collection %q: %w", collection, err)
	}
	return nil
}

func (q *QdrantStore) Close() error {
	return q.client.Close()
}

// buildQdrantFilter converts a filter map to a Qdrant must-match filter.
func buildQdrantFilter(filter map[string]any) *qdrant.Filter {
	conditions := make([]*qdrant.Condition, 0, len(filter))
	for key, value := range filter {
		val, err := qdrant.NewValue(value)
		if err != nil {
			continue
		}
		conditions = append(conditions, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key:   key,
					Match: &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: val.GetStringValue()}},
				},
			},
		})
	}
	return &qdrant.Filter{Must: conditions}
}

func convertQdrantResults(points []*qdrant.ScoredPoint) []SearchResult {
	results := make([]SearchResult, 0, len(points))
	for _, point := range points {
		var id string
		if point.Id != nil && point.Id.PointIdOptions != nil {
			switch idType := point.Id.PointIdOptions.(type) {
			case *qdrant.PointId_Uuid:
				id = idType.Uuid
			case *qdrant.PointId_Num:
				id = fmt.Sprintf("%d", idType.Num)
			}
		}

		metadata := make(map[string]any)
		if point.Payload != nil {
			for key, value := range point.Payload {
				switch v := value.Kind.(type) {
				case *qdrant.Value_StringValue:
					metadata[key] = v.StringValue
				case *qdrant.Value_IntegerValue:
					metadata[key] = v.IntegerValue
				case *qdrant.Value_DoubleValue:
					metadata[key] = v.DoubleValue
				case *qdrant.Value_BoolValue:
					metadata[key] = v.BoolValue
				default:
					metadata[key] = value
				}
			}
		}

		content := ""
		if c, ok := metadata["content"].(string); ok {
			content = c
		}

		results = append(results, SearchResult{ID: id, Content: content, Score: point.Score, Metadata: metadata})
	}
	return results
}

var _ VectorStore = (*QdrantStore)(nil)
