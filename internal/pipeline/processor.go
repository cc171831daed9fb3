// Package pipeline orchestrates the AI stages over inbound email.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aidesk/internal/database"
	"aidesk/internal/email"
	"aidesk/internal/models"
	"aidesk/internal/rag"
	"aidesk/internal/ticketing"

	"github.com/rs/zerolog/log"
)

// ErrNoDraft is returned when a send is requested for a chat without an
// active draft.
var ErrNoDraft = errors.New("No draft response found")

// Classifier labels inbound email text
type Classifier interface {
	Classify(ctx context.Context, emailText string) models.ClassificationResult
}

// Generator drafts grounded replies
type Generator interface {
	Generate(ctx context.Context, emailText, orgID string, opts rag.Options) models.RagResponse
}

// Processor runs classify, draft and send decisions for inbound email
type Processor struct {
	classifier Classifier
	generator  Generator
	chats      *database.ChatStore
	logs       *database.EmailLogStore
	ticketing  *ticketing.Manager
	sender     email.Sender

	agentName         string
	autoSendThreshold int
}

// NewProcessor creates a pipeline processor
func NewProcessor(classifier Classifier, generator Generator, chats *database.ChatStore, logs *database.EmailLogStore, tm *ticketing.Manager, sender email.Sender, agentName string, autoSendThreshold int) (*Processor, error) {
	if classifier == nil || generator == nil || chats == nil || logs == nil || tm == nil || sender == nil {
		return nil, fmt.Errorf("all collaborators are required for pipeline processor")
	}
	return &Processor{
		classifier:        classifier,
		generator:         generator,
		chats:             chats,
		logs:              logs,
		ticketing:         tm,
		sender:            sender,
		agentName:         agentName,
		autoSendThreshold: autoSendThreshold,
	}, nil
}

// ProcessResult is the outcome of AI enrichment for one message
type ProcessResult struct {
	Classification models.Classification `json:"classification"`
	Confidence     int                   `json:"confidence"`
	AutoResponded  bool                  `json:"auto_responded"`
	DraftResponse  string                `json:"draft_response,omitempty"`
	References     []string              `json:"references,omitempty"`
}

// ProcessInboundEmailWithAI classifies an inbound message and, when a
// reply is warranted, drafts one onto the chat record. This path is
// draft-only: it never sends and never sets auto-responded, regardless
// of confidence. Sending happens through SendDraftResponse or the
// full-auto path.
func (p *Processor) ProcessInboundEmailWithAI(ctx context.Context, chatID, emailBody, orgID string) (*ProcessResult, error) {
	start := time.Now()

	classification := p.classifier.Classify(ctx, emailBody)
	if err := p.chats.UpdateClassification(ctx, chatID, classification); err != nil {
		return nil, fmt.Errorf("failed to persist classification: %w", err)
	}

	result := &ProcessResult{
		Classification: classification.Classification,
		Confidence:     classification.Confidence,
	}

	if classification.Classification != models.ClassificationShouldRespond {
		if classification.Classification == models.ClassificationNoResponse {
			// The rubric verdict and its reason live on the chat record so
			// agents can audit why no draft was produced.
			if err := p.chats.SetPromotional(ctx, chatID, classification.Reason); err != nil {
				log.Warn().Err(err).Str("chat_id", chatID).Msg("Failed to tag chat as promotional")
			}
		}
		log.Info().
			Str("chat_id", chatID).
			Str("classification", string(classification.Classification)).
			Msg("No draft needed for inbound message")
		return result, nil
	}

	chat, err := p.chats.Get(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat record: %w", err)
	}

	fromName := ""
	if chat.FromName != nil {
		fromName = *chat.FromName
	}
	draft := p.generator.Generate(ctx, emailBody, orgID, rag.Options{
		FromName:  fromName,
		AgentName: p.agentName,
	})

	if err := p.chats.SaveDraft(ctx, chatID, draft.Response, draft.References, time.Since(start).Milliseconds()); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	log.Info().
		Str("chat_id", chatID).
		Int("confidence", draft.Confidence).
		Int("references", len(draft.References)).
		Msg("Saved AI draft response")

	result.Confidence = draft.Confidence
	result.DraftResponse = draft.Response
	result.References = draft.References
	return result, nil
}

// SendDraftResponse sends the chat's stored draft and marks the record
// auto-responded. Fails with ErrNoDraft when no draft exists.
func (p *Processor) SendDraftResponse(ctx context.Context, chatID string) error {
	chat, err := p.chats.Get(ctx, chatID)
	if err != nil {
		return fmt.Errorf("failed to load chat record: %w", err)
	}
	if chat.DraftResponse == nil || *chat.DraftResponse == "" {
		return ErrNoDraft
	}

	if err := p.sendChatReply(ctx, chat, *chat.DraftResponse); err != nil {
		return err
	}

	if err := p.chats.MarkSent(ctx, chatID); err != nil {
		return fmt.Errorf("failed to mark draft sent: %w", err)
	}

	log.Info().Str("chat_id", chatID).Msg("Sent draft AI response")
	return nil
}

// ProcessInboundEmail threads a raw inbound message onto a ticket and
// runs the AI enrichment on it. Threading and audit logging complete
// even when enrichment fails; in that case the ticket simply carries no
// draft.
func (p *Processor) ProcessInboundEmail(ctx context.Context, orgID string, msg *models.InboundMessage) (*ticketing.InboundResult, *ProcessResult, error) {
	threaded, err := p.ticketing.HandleInboundEmail(ctx, orgID, msg)
	if err != nil {
		return threaded, nil, err
	}

	aiResult, err := p.ProcessInboundEmailWithAI(ctx, threaded.ChatID, msg.BodyText(), orgID)
	if err != nil {
		log.Error().Err(err).
			Str("chat_id", threaded.ChatID).
			Str("ticket_id", threaded.TicketID).
			Msg("AI enrichment failed, ticket remains without draft")
		return threaded, nil, nil
	}

	return threaded, aiResult, nil
}

// ProcessInboundEmailFullAuto runs the draft flow and then sends the
// draft immediately when the confidence gate passes.
func (p *Processor) ProcessInboundEmailFullAuto(ctx context.Context, chatID, emailBody, orgID string) (*ProcessResult, error) {
	result, err := p.ProcessInboundEmailWithAI(ctx, chatID, emailBody, orgID)
	if err != nil {
		return nil, err
	}
	if result.DraftResponse == "" {
		return result, nil
	}

	result.AutoResponded = p.MaybeAutoSend(ctx, chatID, result.Confidence)
	return result, nil
}

// MaybeAutoSend sends the chat's draft when confidence clears the
// configured threshold. A send failure downgrades the would-be
// auto-send to a stored draft instead of dropping the response.
func (p *Processor) MaybeAutoSend(ctx context.Context, chatID string, confidence int) bool {
	decision := DecideAutoSend(confidence, p.autoSendThreshold)
	if !decision.AutoSend {
		log.Info().
			Str("chat_id", chatID).
			Int("confidence", confidence).
			Int("threshold", p.autoSendThreshold).
			Msg("Confidence below auto-send threshold, keeping draft")
		return false
	}

	if err := p.SendDraftResponse(ctx, chatID); err != nil {
		log.Error().Err(err).Str("chat_id", chatID).Msg("Auto-send failed, response kept as draft")
		return false
	}

	log.Info().Str("chat_id", chatID).Int("confidence", confidence).Msg("Auto-sent AI response")
	return true
}

func (p *Processor) sendChatReply(ctx context.Context, chat *models.EmailChat, htmlBody string) error {
	subject := "Support Request"
	if chat.Subject != nil && *chat.Subject != "" {
		subject = *chat.Subject
	}

	reply := &email.OutboundReply{
		ThreadID:  chat.ThreadID,
		InReplyTo: chat.MessageID,
		To:        []string{chat.FromAddress},
		Subject:   "Re: " + subject,
		HTMLBody:  htmlBody,
	}

	if err := p.sender.SendReply(reply); err != nil {
		p.logOutbound(ctx, chat, models.LogStatusFailed, err.Error())
		return fmt.Errorf("failed to send reply: %w", err)
	}

	p.logOutbound(ctx, chat, models.LogStatusSent, "")
	return nil
}

func (p *Processor) logOutbound(ctx context.Context, chat *models.EmailChat, status, detail string) {
	entry := &models.EmailLog{
		OrgID:     chat.OrgID,
		TicketID:  &chat.TicketID,
		ChatID:    &chat.ID,
		MessageID: chat.MessageID,
		ThreadID:  chat.ThreadID,
		Direction: models.DirectionOutbound,
		Status:    status,
		ToAddress: chat.FromAddress,
		Detail:    detail,
	}
	if chat.Subject != nil {
		entry.Subject = *chat.Subject
	}
	if err := p.logs.Log(ctx, entry); err != nil {
		log.Error().Err(err).Str("chat_id", chat.ID).Msg("Failed to write outbound audit log")
	}
}
