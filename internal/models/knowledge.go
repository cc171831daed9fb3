package models

import "time"

// KnowledgeDoc is a source document uploaded to an organization's
// knowledge base.
type KnowledgeDoc struct {
	ID        string    `db:"id" json:"id"`
	OrgID     string    `db:"org_id" json:"org_id"`
	Title     string    `db:"title" json:"title"`
	Source    string    `db:"source" json:"source,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// KnowledgeChunk is a bounded slice of document text stored with its
// embedding for retrieval. Immutable after ingestion and scoped to one
// organization: retrieval must never cross organizations.
type KnowledgeChunk struct {
	ID          string    `db:"id" json:"id"` // "<docID>_<chunkIndex>"
	DocID       string    `db:"doc_id" json:"doc_id"`
	OrgID       string    `db:"org_id" json:"org_id"`
	ChunkIndex  int       `db:"chunk_index" json:"chunk_index"`
	Content     string    `db:"content" json:"content"`
	TokenLength int       `db:"token_length" json:"token_length"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
