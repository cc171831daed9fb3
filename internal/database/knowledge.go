package database

import (
	"context"
	"encoding/json"
	"fmt"

	"aidesk/internal/models"

	"github.com/jmoiron/sqlx"
)

// KnowledgeStore handles knowledge base document and chunk persistence.
// Chunks are immutable after ingestion; upserts exist only so re-running
// an import is safe.
type KnowledgeStore struct {
	db *sqlx.DB
}

// NewKnowledgeStore creates a new knowledge store
func NewKnowledgeStore(db *sqlx.DB) (*KnowledgeStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required for knowledge store")
	}

	store := &KnowledgeStore{db: db}
	if err := store.CreateTables(); err != nil {
		return nil, fmt.Errorf("failed to create knowledge tables: %w", err)
	}

	return store, nil
}

// CreateTables creates the knowledge base tables in the database
func (s *KnowledgeStore) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS knowledge_docs (
			id UUID PRIMARY KEY,
			org_id UUID NOT NULL,
			title TEXT NOT NULL,
			source VARCHAR(64) NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS knowledge_doc_chunks (
			id VARCHAR(255) PRIMARY KEY,
			doc_id UUID NOT NULL REFERENCES knowledge_docs(id) ON DELETE CASCADE,
			org_id UUID NOT NULL,
			chunk_index INT NOT NULL,
			content TEXT NOT NULL,
			token_length INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_knowledge_chunks_doc_id ON knowledge_doc_chunks(doc_id)`,
		`CREATE INDEX IF NOT EXISTS idx_knowledge_chunks_org_id ON knowledge_doc_chunks(org_id)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// CreateDoc inserts a knowledge base document record
func (s *KnowledgeStore) CreateDoc(ctx context.Context, doc *models.KnowledgeDoc) error {
	query := `
		INSERT INTO knowledge_docs (id, org_id, title, source)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title
	`

	_, err := s.db.ExecContext(ctx, query, doc.ID, doc.OrgID, doc.Title, doc.Source)
	if err != nil {
		return fmt.Errorf("failed to create knowledge doc: %w", err)
	}

	return nil
}

// UpsertChunks stores the chunks of an ingested document, idempotent by chunk id
func (s *KnowledgeStore) UpsertChunks(ctx context.Context, chunks []models.KnowledgeChunk) error {
	query := `
		INSERT INTO knowledge_doc_chunks (id, doc_id, org_id, chunk_index, content, token_length)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			token_length = EXCLUDED.token_length
	`

	for _, chunk := range chunks {
		_, err := s.db.ExecContext(ctx, query,
			chunk.ID,
			chunk.DocID,
			chunk.OrgID,
			chunk.ChunkIndex,
			chunk.Content,
			chunk.TokenLength,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", chunk.ID, err)
		}
	}

	return nil
}

// CountChunks returns the number of stored chunks for an organization
func (s *KnowledgeStore) CountChunks(ctx context.Context, orgID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM knowledge_doc_chunks WHERE org_id = $1`

	if err := s.db.GetContext(ctx, &count, query, orgID); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}

	return count, nil
}

// jsonArray marshals a string slice for a ::jsonb query parameter
func jsonArray(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json array: %w", err)
	}
	return data, nil
}
