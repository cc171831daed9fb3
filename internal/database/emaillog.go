package database

import (
	"context"
	"fmt"
	"time"

	"aidesk/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// EmailLogStore keeps an append-only audit trail of inbound and outbound mail.
// Logging failures are surfaced to callers but never abort mail handling.
type EmailLogStore struct {
	db *sqlx.DB
}

// NewEmailLogStore creates a new email log store
func NewEmailLogStore(db *sqlx.DB) (*EmailLogStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required for email log store")
	}

	store := &EmailLogStore{db: db}
	if err := store.CreateTables(); err != nil {
		return nil, fmt.Errorf("failed to create email log tables: %w", err)
	}

	return store, nil
}

// CreateTables creates the email log table in the database
func (s *EmailLogStore) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS email_logs (
			id UUID PRIMARY KEY,
			org_id UUID NOT NULL,
			ticket_id UUID,
			chat_id UUID,
			message_id VARCHAR(998) NOT NULL DEFAULT '',
			thread_id VARCHAR(255) NOT NULL DEFAULT '',
			direction VARCHAR(16) NOT NULL,
			status VARCHAR(32) NOT NULL,
			from_address VARCHAR(255) NOT NULL DEFAULT '',
			to_address VARCHAR(255) NOT NULL DEFAULT '',
			subject TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_email_logs_ticket_id ON email_logs(ticket_id)`,
		`CREATE INDEX IF NOT EXISTS idx_email_logs_org_created ON email_logs(org_id, created_at)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Log appends an audit entry. Assigns the entry id and timestamp.
func (s *EmailLogStore) Log(ctx context.Context, entry *models.EmailLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO email_logs (id, org_id, ticket_id, chat_id, message_id, thread_id, direction, status, from_address, to_address, subject, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.OrgID,
		entry.TicketID,
		entry.ChatID,
		entry.MessageID,
		entry.ThreadID,
		entry.Direction,
		entry.Status,
		entry.FromAddress,
		entry.ToAddress,
		entry.Subject,
		entry.Detail,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write email log: %w", err)
	}

	return nil
}

// ListByTicket returns audit entries for a ticket, newest first
func (s *EmailLogStore) ListByTicket(ctx context.Context, orgID, ticketID string) ([]models.EmailLog, error) {
	var entries []models.EmailLog
	query := `
		SELECT * FROM email_logs
		WHERE org_id = $1 AND ticket_id = $2
		ORDER BY created_at DESC
	`

	if err := s.db.SelectContext(ctx, &entries, query, orgID, ticketID); err != nil {
		return nil, fmt.Errorf("failed to list email logs: %w", err)
	}

	return entries, nil
}
