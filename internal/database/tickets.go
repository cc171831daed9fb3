package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"aidesk/internal/models"

	"github.com/jmoiron/sqlx"
)

// ErrTicketNotFound is returned when a ticket lookup finds no row
var ErrTicketNotFound = errors.New("ticket not found")

// TicketStore handles ticket persistence
type TicketStore struct {
	db *sqlx.DB
}

// NewTicketStore creates a new ticket store
func NewTicketStore(db *sqlx.DB) (*TicketStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required for ticket store")
	}

	store := &TicketStore{db: db}
	if err := store.CreateTables(); err != nil {
		return nil, fmt.Errorf("failed to create ticket tables: %w", err)
	}

	return store, nil
}

// CreateTables creates the ticket tables in the database
func (s *TicketStore) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS tickets (
			id UUID PRIMARY KEY,
			subject TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status VARCHAR(16) NOT NULL DEFAULT 'open',
			priority VARCHAR(16) NOT NULL DEFAULT 'medium',
			customer_id UUID NOT NULL,
			org_id UUID NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_org_id ON tickets(org_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tickets_thread ON tickets((metadata->>'thread_id'))`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Create inserts a new ticket
func (s *TicketStore) Create(ctx context.Context, ticket *models.Ticket) error {
	query := `
		INSERT INTO tickets (id, subject, description, status, priority, customer_id, org_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		ticket.ID,
		ticket.Subject,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.CustomerID,
		ticket.OrgID,
		ticket.Metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}

	return nil
}

// Get loads a ticket by id, excluding soft-deleted tickets
func (s *TicketStore) Get(ctx context.Context, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	query := `SELECT * FROM tickets WHERE id = $1 AND deleted_at IS NULL`

	if err := s.db.GetContext(ctx, &ticket, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	return &ticket, nil
}

// FindByThreadID looks up the ticket in an organization whose metadata
// thread identifier matches. At most one match is expected; returns
// nil, nil when no ticket exists for the thread.
func (s *TicketStore) FindByThreadID(ctx context.Context, orgID, threadID string) (*models.Ticket, error) {
	var ticket models.Ticket
	query := `
		SELECT * FROM tickets
		WHERE org_id = $1 AND metadata->>'thread_id' = $2 AND deleted_at IS NULL
		ORDER BY created_at ASC
		LIMIT 1
	`

	err := s.db.GetContext(ctx, &ticket, query, orgID, threadID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find ticket by thread: %w", err)
	}

	return &ticket, nil
}

// UpdateStatus changes a ticket's status and bumps updated_at
func (s *TicketStore) UpdateStatus(ctx context.Context, id string, status models.TicketStatus) error {
	query := `UPDATE tickets SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 AND deleted_at IS NULL`

	result, err := s.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update ticket status: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ErrTicketNotFound
	}

	return nil
}

// Reopen sets a closed ticket back to open and records the reopening
// in its metadata
func (s *TicketStore) Reopen(ctx context.Context, id string, reopenedAt, reason string) error {
	query := `
		UPDATE tickets
		SET status = 'open',
		    metadata = metadata || jsonb_build_object('reopened_at', $2::text, 'reopened_reason', $3::text),
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := s.db.ExecContext(ctx, query, id, reopenedAt, reason)
	if err != nil {
		return fmt.Errorf("failed to reopen ticket: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ErrTicketNotFound
	}

	return nil
}

// SoftDelete marks a ticket deleted without removing the row
func (s *TicketStore) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE tickets SET deleted_at = CURRENT_TIMESTAMP WHERE id = $1 AND deleted_at IS NULL`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ErrTicketNotFound
	}

	return nil
}
