package vector

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/rs/zerolog/log"
)

// EmbeddingDim matches the width of the embedding model output
const EmbeddingDim = 1536

// QdrantStore implements Store against a Qdrant collection. Point ids are
// derived deterministically from chunk ids so re-ingesting a document
// overwrites its previous vectors.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
}

// NewQdrantStore connects to Qdrant and ensures the collection exists
func NewQdrantStore(ctx context.Context, host string, port int, collection string) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	store := &QdrantStore{client: client, collection: collection}
	if err := store.ensureCollection(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     EmbeddingDim,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
	}

	log.Info().Str("collection", s.collection).Msg("Created qdrant collection")
	return nil
}

// pointID maps a chunk id onto a stable UUID, which qdrant requires
func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}

// Upsert writes records into the collection
func (s *QdrantStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, r := range records {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(r.ID)),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"chunk_id":     r.ID,
				"org_id":       r.Metadata.OrgID,
				"doc_id":       r.Metadata.DocID,
				"chunk_index":  int64(r.Metadata.ChunkIndex),
				"text":         r.Metadata.Text,
				"token_length": int64(r.Metadata.TokenLength),
			}),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert %d points: %w", len(points), err)
	}

	return nil
}

// Query searches the collection, filtered server-side to the org
func (s *QdrantStore) Query(ctx context.Context, orgID string, vector []float32, topK int, minScore float32) ([]Match, error) {
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		ScoreThreshold: qdrant.PtrOf(minScore),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("org_id", orgID),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	if len(points) == 0 {
		return nil, nil
	}

	return filterMatches(points, orgID), nil
}

// filterMatches converts scored points into matches and drops any whose
// payload belongs to a different org. Tenancy is enforced server-side by
// the query filter; anything that slips through is discarded here.
func filterMatches(points []*qdrant.ScoredPoint, orgID string) []Match {
	matches := make([]Match, 0, len(points))
	for _, p := range points {
		meta := payloadMetadata(p.Payload)
		if meta.OrgID != orgID {
			log.Warn().
				Str("expected_org", orgID).
				Str("got_org", meta.OrgID).
				Msg("Dropping vector match from wrong org")
			continue
		}
		matches = append(matches, Match{
			ID:       meta.ChunkID,
			Score:    p.Score,
			Metadata: meta,
		})
	}
	return matches
}

// DeleteByDoc removes every vector ingested for a document
func (s *QdrantStore) DeleteByDoc(ctx context.Context, orgID, docID string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("org_id", orgID),
				qdrant.NewMatch("doc_id", docID),
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to delete vectors for doc %s: %w", docID, err)
	}

	return nil
}

func payloadMetadata(payload map[string]*qdrant.Value) Metadata {
	meta := Metadata{}
	if v, ok := payload["chunk_id"]; ok {
		meta.ChunkID = v.GetStringValue()
	}
	if v, ok := payload["org_id"]; ok {
		meta.OrgID = v.GetStringValue()
	}
	if v, ok := payload["doc_id"]; ok {
		meta.DocID = v.GetStringValue()
	}
	if v, ok := payload["chunk_index"]; ok {
		meta.ChunkIndex = int(v.GetIntegerValue())
	}
	if v, ok := payload["text"]; ok {
		meta.Text = v.GetStringValue()
	}
	if v, ok := payload["token_length"]; ok {
		meta.TokenLength = int(v.GetIntegerValue())
	}
	return meta
}
