package vector

import "context"

// Metadata is the payload stored alongside each vector. OrgID is the
// tenancy boundary; queries must never return another org's records.
type Metadata struct {
	OrgID       string
	DocID       string
	ChunkID     string
	ChunkIndex  int
	Text        string
	TokenLength int
}

// Record is a vector with its payload, keyed by the chunk id
type Record struct {
	ID       string
	Vector   []float32
	Metadata Metadata
}

// Match is a query hit with its cosine similarity score
type Match struct {
	ID       string
	Score    float32
	Metadata Metadata
}

// Store is the vector retrieval backend
type Store interface {
	// Upsert writes records, replacing any with the same id
	Upsert(ctx context.Context, records []Record) error
	// Query returns up to topK matches for the org with score >= minScore,
	// best first. Returns nil when nothing clears the floor.
	Query(ctx context.Context, orgID string, vector []float32, topK int, minScore float32) ([]Match, error)
	// DeleteByDoc removes all records belonging to a document
	DeleteByDoc(ctx context.Context, orgID, docID string) error
}
