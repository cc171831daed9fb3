// Package kb ingests documents into the knowledge base: chunk, embed,
// index, persist.
package kb

import (
	"context"
	"fmt"

	"aidesk/internal/chunker"
	"aidesk/internal/database"
	"aidesk/internal/models"
	"aidesk/internal/vector"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Embedder produces embedding vectors for chunk batches
type Embedder interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Ingester indexes documents for retrieval
type Ingester struct {
	embedder Embedder
	store    vector.Store
	docs     *database.KnowledgeStore

	chunkSize    int
	chunkOverlap int
	batchSize    int
}

// NewIngester creates an ingester
func NewIngester(embedder Embedder, store vector.Store, docs *database.KnowledgeStore, chunkSize, chunkOverlap, batchSize int) (*Ingester, error) {
	if embedder == nil || store == nil || docs == nil {
		return nil, fmt.Errorf("embedder, vector store and knowledge store are required for ingester")
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Ingester{
		embedder:     embedder,
		store:        store,
		docs:         docs,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		batchSize:    batchSize,
	}, nil
}

// IngestResult summarizes one document ingestion
type IngestResult struct {
	DocID      string
	ChunkCount int
}

// IngestDocument chunks content, embeds the chunks in batches, indexes
// them in the vector store and persists the chunk rows. Re-ingesting
// the same document id overwrites its previous chunks and vectors.
func (ing *Ingester) IngestDocument(ctx context.Context, orgID, docID, title, content string) (*IngestResult, error) {
	if docID == "" {
		docID = uuid.NewString()
	}

	pieces := chunker.Split(content, ing.chunkSize, ing.chunkOverlap)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("document %s has no content to ingest", docID)
	}

	doc := &models.KnowledgeDoc{
		ID:     docID,
		OrgID:  orgID,
		Title:  title,
		Source: "upload",
	}
	if err := ing.docs.CreateDoc(ctx, doc); err != nil {
		return nil, err
	}

	// Drop stale vectors from a previous version of the document before
	// indexing the new ones.
	if err := ing.store.DeleteByDoc(ctx, orgID, docID); err != nil {
		return nil, fmt.Errorf("failed to clear previous vectors: %w", err)
	}

	chunks := make([]models.KnowledgeChunk, 0, len(pieces))
	for _, piece := range pieces {
		chunks = append(chunks, models.KnowledgeChunk{
			ID:          fmt.Sprintf("%s_%d", docID, piece.Index),
			DocID:       docID,
			OrgID:       orgID,
			ChunkIndex:  piece.Index,
			Content:     piece.Text,
			TokenLength: chunker.EstimateTokens(piece.Text),
		})
	}

	for start := 0; start < len(chunks); start += ing.batchSize {
		end := min(start+ing.batchSize, len(chunks))
		if err := ing.indexBatch(ctx, chunks[start:end]); err != nil {
			return nil, err
		}
	}

	if err := ing.docs.UpsertChunks(ctx, chunks); err != nil {
		return nil, err
	}

	log.Info().
		Str("doc_id", docID).
		Str("org_id", orgID).
		Int("chunks", len(chunks)).
		Msg("Ingested knowledge document")

	return &IngestResult{DocID: docID, ChunkCount: len(chunks)}, nil
}

func (ing *Ingester) indexBatch(ctx context.Context, chunks []models.KnowledgeChunk) error {
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Content)
	}

	vectors, err := ing.embedder.CreateEmbeddings(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunk batch: %w", err)
	}

	records := make([]vector.Record, 0, len(chunks))
	for i, c := range chunks {
		records = append(records, vector.Record{
			ID:     c.ID,
			Vector: vectors[i],
			Metadata: vector.Metadata{
				OrgID:       c.OrgID,
				DocID:       c.DocID,
				ChunkID:     c.ID,
				ChunkIndex:  c.ChunkIndex,
				Text:        c.Content,
				TokenLength: c.TokenLength,
			},
		})
	}

	if err := ing.store.Upsert(ctx, records); err != nil {
		return fmt.Errorf("failed to index chunk batch: %w", err)
	}

	return nil
}
