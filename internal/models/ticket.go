package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TicketStatus enumerates the ticket lifecycle states
type TicketStatus string

const (
	TicketOpen    TicketStatus = "open"
	TicketPending TicketStatus = "pending"
	TicketOnHold  TicketStatus = "on_hold"
	TicketSolved  TicketStatus = "solved"
	TicketClosed  TicketStatus = "closed"
)

// Ticket priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// TicketMetadata is the closed set of optional fields attached to a ticket.
// The thread identifier is the idempotency key for inbound matching.
type TicketMetadata struct {
	ThreadID       string `json:"thread_id,omitempty"`
	MessageID      string `json:"message_id,omitempty"`
	EmailDate      string `json:"email_date,omitempty"`
	ReopenedAt     string `json:"reopened_at,omitempty"`
	ReopenedReason string `json:"reopened_reason,omitempty"`
}

// Value implements driver.Valuer so the metadata is stored as JSONB
func (m TicketMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner
func (m *TicketMetadata) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = TicketMetadata{}
		return nil
	default:
		return fmt.Errorf("unsupported ticket metadata type %T", src)
	}
}

// Ticket represents a support ticket. Tickets are soft-deleted only.
type Ticket struct {
	ID          string         `db:"id" json:"id"`
	Subject     string         `db:"subject" json:"subject"`
	Description string         `db:"description" json:"description"`
	Status      TicketStatus   `db:"status" json:"status"`
	Priority    string         `db:"priority" json:"priority"`
	CustomerID  string         `db:"customer_id" json:"customer_id"`
	OrgID       string         `db:"org_id" json:"org_id"`
	Metadata    TicketMetadata `db:"metadata" json:"metadata"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time     `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Profile represents a customer or agent profile.
// Email is unique within an organization.
type Profile struct {
	ID          string    `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	DisplayName string    `db:"display_name" json:"display_name"`
	OrgID       string    `db:"org_id" json:"org_id"`
	Role        string    `db:"role" json:"role"`
	Source      string    `db:"source" json:"source,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
