package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"aidesk/internal/models"

	"github.com/jmoiron/sqlx"
)

// ErrChatNotFound is returned when a chat record lookup finds no row
var ErrChatNotFound = errors.New("chat record not found")

// ChatStore handles email chat record persistence
type ChatStore struct {
	db *sqlx.DB
}

// NewChatStore creates a new chat store
func NewChatStore(db *sqlx.DB) (*ChatStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required for chat store")
	}

	store := &ChatStore{db: db}
	if err := store.CreateTables(); err != nil {
		return nil, fmt.Errorf("failed to create chat tables: %w", err)
	}

	return store, nil
}

// CreateTables creates the email chat tables in the database
func (s *ChatStore) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS ticket_email_chats (
			id UUID PRIMARY KEY,
			ticket_id UUID NOT NULL,
			message_id VARCHAR(255) NOT NULL,
			thread_id VARCHAR(255) NOT NULL,
			from_name TEXT,
			from_address TEXT NOT NULL,
			to_addresses TEXT[] NOT NULL DEFAULT '{}',
			cc_addresses TEXT[] NOT NULL DEFAULT '{}',
			subject TEXT,
			body TEXT NOT NULL DEFAULT '',
			email_date TIMESTAMP NOT NULL,
			org_id UUID NOT NULL,
			ai_classification VARCHAR(16) NOT NULL DEFAULT 'unknown',
			ai_confidence INT NOT NULL DEFAULT 0,
			ai_auto_responded BOOLEAN NOT NULL DEFAULT FALSE,
			ai_draft_response TEXT,
			metadata JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_email_chats_ticket_id ON ticket_email_chats(ticket_id)`,
		`CREATE INDEX IF NOT EXISTS idx_email_chats_thread_id ON ticket_email_chats(thread_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_email_chats_message ON ticket_email_chats(org_id, message_id)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Create inserts a new chat record
func (s *ChatStore) Create(ctx context.Context, chat *models.EmailChat) error {
	query := `
		INSERT INTO ticket_email_chats
			(id, ticket_id, message_id, thread_id, from_name, from_address, to_addresses,
			 cc_addresses, subject, body, email_date, org_id, ai_classification,
			 ai_confidence, ai_auto_responded, ai_draft_response, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := s.db.ExecContext(ctx, query,
		chat.ID,
		chat.TicketID,
		chat.MessageID,
		chat.ThreadID,
		chat.FromName,
		chat.FromAddress,
		chat.ToAddresses,
		chat.CcAddresses,
		chat.Subject,
		chat.Body,
		chat.EmailDate,
		chat.OrgID,
		chat.AIClass,
		chat.AIConfidence,
		chat.AutoResponded,
		chat.DraftResponse,
		chat.Metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to create chat record: %w", err)
	}

	return nil
}

// Get loads a chat record by id
func (s *ChatStore) Get(ctx context.Context, id string) (*models.EmailChat, error) {
	var chat models.EmailChat
	query := `SELECT * FROM ticket_email_chats WHERE id = $1`

	if err := s.db.GetContext(ctx, &chat, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to get chat record: %w", err)
	}

	return &chat, nil
}

// UpdateClassification stores the classifier verdict on a chat record
func (s *ChatStore) UpdateClassification(ctx context.Context, id string, result models.ClassificationResult) error {
	query := `
		UPDATE ticket_email_chats
		SET ai_classification = $1, ai_confidence = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`

	res, err := s.db.ExecContext(ctx, query, result.Classification, result.Confidence, id)
	if err != nil {
		return fmt.Errorf("failed to update classification: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrChatNotFound
	}

	return nil
}

// SaveDraft stores a generated draft and its retrieval references.
// It never touches ai_auto_responded: marking a record as sent is
// MarkSent's job alone.
func (s *ChatStore) SaveDraft(ctx context.Context, id, draft string, references []string, processingMs int64) error {
	query := `
		UPDATE ticket_email_chats
		SET ai_draft_response = $1,
		    metadata = metadata || jsonb_build_object('rag_references', $2::jsonb, 'processing_ms', $3::bigint),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
	`

	refs, err := jsonArray(references)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, query, draft, refs, processingMs, id)
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ErrChatNotFound
	}

	return nil
}

// MarkSent flags a chat record as auto-responded after a successful send
func (s *ChatStore) MarkSent(ctx context.Context, id string) error {
	query := `
		UPDATE ticket_email_chats
		SET ai_auto_responded = TRUE, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark chat as sent: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ErrChatNotFound
	}

	return nil
}

// DiscardDraft clears the active draft and records when it was discarded
func (s *ChatStore) DiscardDraft(ctx context.Context, id, discardedAt string) error {
	query := `
		UPDATE ticket_email_chats
		SET ai_draft_response = NULL,
		    metadata = metadata || jsonb_build_object('draft_discarded_at', $2::text),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id, discardedAt)
	if err != nil {
		return fmt.Errorf("failed to discard draft: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ErrChatNotFound
	}

	return nil
}

// SetPromotional tags a chat record as promotional with the classifier's reason
func (s *ChatStore) SetPromotional(ctx context.Context, id string, reason string) error {
	query := `
		UPDATE ticket_email_chats
		SET metadata = metadata || jsonb_build_object('promotional', TRUE, 'promotional_reason', $2::text),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id, reason)
	if err != nil {
		return fmt.Errorf("failed to tag promotional chat: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ErrChatNotFound
	}

	return nil
}
