package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Classification is the outcome of the inbound email classifier
type Classification string

const (
	ClassificationShouldRespond Classification = "should_respond"
	ClassificationNoResponse    Classification = "no_response"
	ClassificationUnknown       Classification = "unknown"
)

// ChatMetadata is the closed set of optional fields attached to an email
// chat record: retrieval references, timing, and promotional tagging.
type ChatMetadata struct {
	RagReferences      []string `json:"rag_references,omitempty"`
	ProcessingMs       int64    `json:"processing_ms,omitempty"`
	Promotional        bool     `json:"promotional,omitempty"`
	PromotionalReason  string   `json:"promotional_reason,omitempty"`
	DraftDiscardedAt   string   `json:"draft_discarded_at,omitempty"`
	ClassifierFailedAt string   `json:"classifier_failed_at,omitempty"`
}

// Value implements driver.Valuer so the metadata is stored as JSONB
func (m ChatMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner
func (m *ChatMetadata) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		*m = ChatMetadata{}
		return nil
	default:
		return fmt.Errorf("unsupported chat metadata type %T", src)
	}
}

// EmailChat is one inbound or outbound message tied to a ticket.
// A nil DraftResponse means "no active draft".
type EmailChat struct {
	ID            string         `db:"id" json:"id"`
	TicketID      string         `db:"ticket_id" json:"ticket_id"`
	MessageID     string         `db:"message_id" json:"message_id"`
	ThreadID      string         `db:"thread_id" json:"thread_id"`
	FromName      *string        `db:"from_name" json:"from_name,omitempty"`
	FromAddress   string         `db:"from_address" json:"from_address"`
	ToAddresses   pq.StringArray `db:"to_addresses" json:"to_addresses"`
	CcAddresses   pq.StringArray `db:"cc_addresses" json:"cc_addresses,omitempty"`
	Subject       *string        `db:"subject" json:"subject,omitempty"`
	Body          string         `db:"body" json:"body"`
	EmailDate     time.Time      `db:"email_date" json:"email_date"`
	OrgID         string         `db:"org_id" json:"org_id"`
	AIClass       Classification `db:"ai_classification" json:"ai_classification"`
	AIConfidence  int            `db:"ai_confidence" json:"ai_confidence"`
	AutoResponded bool           `db:"ai_auto_responded" json:"ai_auto_responded"`
	DraftResponse *string        `db:"ai_draft_response" json:"ai_draft_response,omitempty"`
	Metadata      ChatMetadata   `db:"metadata" json:"metadata"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// InboundMessage is a parsed inbound email as delivered by the mail source.
// Immutable once received.
type InboundMessage struct {
	MessageID string    `json:"message_id"`
	ThreadID  string    `json:"thread_id"`
	From      string    `json:"from"`
	FromName  string    `json:"from_name,omitempty"`
	To        []string  `json:"to"`
	Cc        []string  `json:"cc,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	TextBody  string    `json:"text_body,omitempty"`
	HTMLBody  string    `json:"html_body,omitempty"`
	Date      time.Time `json:"date"`
}

// BodyText returns the best available body content for classification
// and retrieval: plain text when present, raw HTML otherwise.
func (m *InboundMessage) BodyText() string {
	if m.TextBody != "" {
		return m.TextBody
	}
	return m.HTMLBody
}

// EmailLog is the durable audit record written once per message,
// regardless of classification outcome or pipeline success.
type EmailLog struct {
	ID          string    `db:"id" json:"id"`
	OrgID       string    `db:"org_id" json:"org_id"`
	TicketID    *string   `db:"ticket_id" json:"ticket_id,omitempty"`
	ChatID      *string   `db:"chat_id" json:"chat_id,omitempty"`
	MessageID   string    `db:"message_id" json:"message_id"`
	ThreadID    string    `db:"thread_id" json:"thread_id"`
	Direction   string    `db:"direction" json:"direction"`
	Status      string    `db:"status" json:"status"`
	FromAddress string    `db:"from_address" json:"from_address,omitempty"`
	ToAddress   string    `db:"to_address" json:"to_address,omitempty"`
	Subject     string    `db:"subject" json:"subject,omitempty"`
	Detail      string    `db:"detail" json:"detail,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Email log directions and statuses
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"

	LogStatusReceived = "received"
	LogStatusSent     = "sent"
	LogStatusFailed   = "failed"
)
