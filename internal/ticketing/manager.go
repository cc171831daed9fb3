// Package ticketing threads inbound email onto tickets.
package ticketing

import (
	"context"
	"fmt"
	"time"

	"aidesk/internal/database"
	"aidesk/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Manager matches inbound messages to tickets and maintains the ticket
// lifecycle around them.
type Manager struct {
	tickets  *database.TicketStore
	chats    *database.ChatStore
	profiles *database.ProfileStore
	logs     *database.EmailLogStore

	reopenGrace time.Duration
}

// New creates a ticketing manager
func New(tickets *database.TicketStore, chats *database.ChatStore, profiles *database.ProfileStore, logs *database.EmailLogStore, reopenGraceDays int) (*Manager, error) {
	if tickets == nil || chats == nil || profiles == nil || logs == nil {
		return nil, fmt.Errorf("all stores are required for ticketing manager")
	}
	return &Manager{
		tickets:     tickets,
		chats:       chats,
		profiles:    profiles,
		logs:        logs,
		reopenGrace: time.Duration(reopenGraceDays) * 24 * time.Hour,
	}, nil
}

// InboundResult reports where an inbound message landed
type InboundResult struct {
	TicketID    string
	ChatID      string
	IsNewTicket bool
	Reopened    bool
}

// HandleInboundEmail threads msg onto an existing ticket or creates a
// new one. The audit log entry is written on every path, including
// failures. Profile resolution failure aborts the operation; a chat
// insert failure after the ticket exists is surfaced but leaves the
// ticket in place.
func (m *Manager) HandleInboundEmail(ctx context.Context, orgID string, msg *models.InboundMessage) (*InboundResult, error) {
	result, err := m.handle(ctx, orgID, msg)

	entry := &models.EmailLog{
		OrgID:       orgID,
		MessageID:   msg.MessageID,
		ThreadID:    msg.ThreadID,
		Direction:   models.DirectionInbound,
		Status:      models.LogStatusReceived,
		FromAddress: msg.From,
		Subject:     msg.Subject,
	}
	if len(msg.To) > 0 {
		entry.ToAddress = msg.To[0]
	}
	if err != nil {
		entry.Status = models.LogStatusFailed
		entry.Detail = err.Error()
	} else {
		entry.TicketID = &result.TicketID
		if result.ChatID != "" {
			entry.ChatID = &result.ChatID
		}
	}
	if logErr := m.logs.Log(ctx, entry); logErr != nil {
		log.Error().Err(logErr).Str("message_id", msg.MessageID).Msg("Failed to write inbound audit log")
	}

	return result, err
}

func (m *Manager) handle(ctx context.Context, orgID string, msg *models.InboundMessage) (*InboundResult, error) {
	customerID, err := m.resolveCustomer(ctx, orgID, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve customer for %s: %w", msg.From, err)
	}

	existing, err := m.tickets.FindByThreadID(ctx, orgID, msg.ThreadID)
	if err != nil {
		return nil, fmt.Errorf("thread lookup failed: %w", err)
	}

	if existing != nil {
		return m.appendToTicket(ctx, orgID, existing, msg)
	}
	return m.createTicket(ctx, orgID, customerID, msg)
}

func (m *Manager) resolveCustomer(ctx context.Context, orgID string, msg *models.InboundMessage) (string, error) {
	profile := &models.Profile{
		ID:          uuid.NewString(),
		Email:       msg.From,
		DisplayName: msg.FromName,
		OrgID:       orgID,
		Role:        "customer",
		Source:      "inbound_email",
	}
	return m.profiles.GetOrCreate(ctx, profile)
}

func (m *Manager) appendToTicket(ctx context.Context, orgID string, ticket *models.Ticket, msg *models.InboundMessage) (*InboundResult, error) {
	reopened, err := m.ReopenIfNeeded(ctx, ticket)
	if err != nil {
		log.Error().Err(err).Str("ticket_id", ticket.ID).Msg("Reopen check failed, attaching comment anyway")
	}

	chat := m.newChat(orgID, ticket.ID, msg)
	if err := m.chats.Create(ctx, chat); err != nil {
		// The ticket exists and is findable by thread id, the missing
		// comment can be backfilled.
		return &InboundResult{TicketID: ticket.ID, IsNewTicket: false, Reopened: reopened},
			fmt.Errorf("failed to attach message to ticket %s: %w", ticket.ID, err)
	}

	log.Info().
		Str("ticket_id", ticket.ID).
		Str("message_id", msg.MessageID).
		Bool("reopened", reopened).
		Msg("Attached inbound message to existing ticket")

	return &InboundResult{TicketID: ticket.ID, ChatID: chat.ID, IsNewTicket: false, Reopened: reopened}, nil
}

func (m *Manager) createTicket(ctx context.Context, orgID, customerID string, msg *models.InboundMessage) (*InboundResult, error) {
	subject := msg.Subject
	if subject == "" {
		subject = "(no subject)"
	}

	ticket := &models.Ticket{
		ID:          uuid.NewString(),
		Subject:     subject,
		Description: msg.BodyText(),
		Status:      models.TicketOpen,
		Priority:    models.PriorityMedium,
		CustomerID:  customerID,
		OrgID:       orgID,
		Metadata: models.TicketMetadata{
			ThreadID:  msg.ThreadID,
			MessageID: msg.MessageID,
			EmailDate: msg.Date.UTC().Format(time.RFC3339),
		},
	}
	if err := m.tickets.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	chat := m.newChat(orgID, ticket.ID, msg)
	if err := m.chats.Create(ctx, chat); err != nil {
		return &InboundResult{TicketID: ticket.ID, IsNewTicket: true},
			fmt.Errorf("failed to create chat for ticket %s: %w", ticket.ID, err)
	}

	log.Info().
		Str("ticket_id", ticket.ID).
		Str("thread_id", msg.ThreadID).
		Str("customer_id", customerID).
		Msg("Created ticket for inbound message")

	return &InboundResult{TicketID: ticket.ID, ChatID: chat.ID, IsNewTicket: true}, nil
}

// newChat builds the chat record for an inbound message with the AI
// fields in their initial state: no classification, no draft.
func (m *Manager) newChat(orgID, ticketID string, msg *models.InboundMessage) *models.EmailChat {
	var fromName *string
	if msg.FromName != "" {
		fromName = &msg.FromName
	}
	var subject *string
	if msg.Subject != "" {
		subject = &msg.Subject
	}

	return &models.EmailChat{
		ID:            uuid.NewString(),
		TicketID:      ticketID,
		MessageID:     msg.MessageID,
		ThreadID:      msg.ThreadID,
		FromName:      fromName,
		FromAddress:   msg.From,
		ToAddresses:   msg.To,
		CcAddresses:   msg.Cc,
		Subject:       subject,
		Body:          msg.BodyText(),
		EmailDate:     msg.Date,
		OrgID:         orgID,
		AIClass:       models.ClassificationUnknown,
		AIConfidence:  0,
		AutoResponded: false,
		DraftResponse: nil,
	}
}

// ReopenIfNeeded reopens a closed ticket when the new message arrives
// within the grace window since the last update. Solved tickets keep
// their status; so does a closed ticket outside the window. The message
// still attaches as a comment either way.
func (m *Manager) ReopenIfNeeded(ctx context.Context, ticket *models.Ticket) (bool, error) {
	if ticket.Status != models.TicketClosed {
		return false, nil
	}

	elapsed := time.Since(ticket.UpdatedAt)
	if elapsed > m.reopenGrace {
		log.Info().
			Str("ticket_id", ticket.ID).
			Dur("elapsed", elapsed).
			Msg("Ticket outside reopen grace window, keeping status")
		return false, nil
	}

	reopenedAt := time.Now().UTC().Format(time.RFC3339)
	if err := m.tickets.Reopen(ctx, ticket.ID, reopenedAt, "new_inbound_email"); err != nil {
		return false, err
	}
	ticket.Status = models.TicketOpen

	log.Info().Str("ticket_id", ticket.ID).Msg("Reopened ticket within grace window")
	return true, nil
}
