package models

import "time"

// HealthResponse represents a basic health check response
// @Description Health check response
type HealthResponse struct {
	Status    string    `json:"status" example:"healthy"`                 // Health status
	Timestamp time.Time `json:"timestamp" example:"2023-01-01T00:00:00Z"` // Timestamp of the check
	Version   string    `json:"version" example:"1.0.0"`                  // Application version
}

// DBHealthResponse represents a database health check response
// @Description Database health check response
type DBHealthResponse struct {
	Status    string        `json:"status" example:"healthy"`                   // Health status
	Timestamp time.Time     `json:"timestamp" example:"2023-01-01T00:00:00Z"`   // Timestamp of the check
	Connected bool          `json:"connected" example:"true"`                   // Database connection status
	Latency   time.Duration `json:"latency" swaggertype:"string" example:"1ms"` // Database ping latency
	Error     string        `json:"error,omitempty" example:""`                 // Error message if any
}

// ErrorResponse is a generic API error body
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

// InboundEmailRequest is a raw inbound message submitted for processing
// @Description Inbound email to thread and process
type InboundEmailRequest struct {
	OrgID     string   `json:"org_id" example:"7f6b9e1a-1111-4d4e-9d7c-0a0a0a0a0a0a"`
	MessageID string   `json:"message_id" example:"abc123@mail.example.com"`
	ThreadID  string   `json:"thread_id" example:"abc123@mail.example.com"`
	From      string   `json:"from" example:"customer@example.com"`
	FromName  string   `json:"from_name,omitempty" example:"Jamie Customer"`
	To        []string `json:"to" example:"support@example.com"`
	Cc        []string `json:"cc,omitempty"`
	Subject   string   `json:"subject,omitempty" example:"Question about availability"`
	TextBody  string   `json:"text_body,omitempty"`
	HTMLBody  string   `json:"html_body,omitempty"`
	Date      string   `json:"date,omitempty" example:"2023-01-01T00:00:00Z"`
	AutoSend  bool     `json:"auto_send,omitempty"` // opt in to confidence-gated sending
}

// InboundEmailResponse reports the threading and AI outcome
// @Description Result of processing an inbound email
type InboundEmailResponse struct {
	TicketID       string         `json:"ticket_id"`
	ChatID         string         `json:"chat_id,omitempty"`
	IsNewTicket    bool           `json:"is_new_ticket"`
	Reopened       bool           `json:"reopened,omitempty"`
	Classification Classification `json:"classification,omitempty"`
	Confidence     int            `json:"confidence,omitempty"`
	AutoResponded  bool           `json:"auto_responded"`
	DraftResponse  string         `json:"draft_response,omitempty"`
	References     []string       `json:"references,omitempty"`
}

// GenerateRequest asks for a grounded draft without a chat record
// @Description Ad-hoc draft generation request
type GenerateRequest struct {
	OrgID     string `json:"org_id"`
	Query     string `json:"query"`
	FromName  string `json:"from_name,omitempty"`
	AgentName string `json:"agent_name,omitempty"`
	Debug     bool   `json:"debug,omitempty"`
}

// IngestRequest submits a knowledge base document
// @Description Knowledge base ingestion request
type IngestRequest struct {
	OrgID   string `json:"org_id"`
	DocID   string `json:"doc_id,omitempty"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// IngestResponse reports an ingestion outcome
// @Description Knowledge base ingestion result
type IngestResponse struct {
	DocID      string `json:"doc_id"`
	ChunkCount int    `json:"chunk_count"`
}
