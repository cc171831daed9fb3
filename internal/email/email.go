// Package email sends outbound replies via SendGrid.
package email

import (
	"fmt"

	mailutil "aidesk/internal/mail"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// OutboundReply is a threaded reply to an inbound message
type OutboundReply struct {
	ThreadID  string
	InReplyTo string
	To        []string
	Subject   string
	HTMLBody  string
}

// Sender delivers replies to customers
type Sender interface {
	SendReply(reply *OutboundReply) error
}

// EmailService handles sending emails via SendGrid
type EmailService struct {
	apiKey      string
	supportName string
	fromAddress string
}

// NewEmailService creates a new email service instance
func NewEmailService(apiKey, supportName, fromAddress string) *EmailService {
	if supportName == "" {
		supportName = "Support"
	}
	return &EmailService{
		apiKey:      apiKey,
		supportName: supportName,
		fromAddress: fromAddress,
	}
}

// SendReply sends a threaded HTML reply. In-Reply-To and References
// headers carry the original message id so mail clients keep the
// conversation together.
func (es *EmailService) SendReply(reply *OutboundReply) error {
	if es.apiKey == "" {
		return fmt.Errorf("SendGrid API key not configured")
	}
	if len(reply.To) == 0 {
		return fmt.Errorf("reply has no recipients")
	}

	from := mail.NewEmail(es.supportName, es.fromAddress)
	to := mail.NewEmail("", reply.To[0])

	message := mail.NewSingleEmail(from, reply.Subject, to, mailutil.StripHTML(reply.HTMLBody), reply.HTMLBody)
	for _, addr := range reply.To[1:] {
		if len(message.Personalizations) > 0 {
			message.Personalizations[0].AddTos(mail.NewEmail("", addr))
		}
	}
	if reply.InReplyTo != "" {
		message.SetHeader("In-Reply-To", reply.InReplyTo)
		message.SetHeader("References", reply.InReplyTo)
	}

	client := sendgrid.NewSendClient(es.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("SendGrid API error: status %d, body: %s", response.StatusCode, response.Body)
	}

	log.Info().
		Str("thread_id", reply.ThreadID).
		Str("to", reply.To[0]).
		Msg("Sent outbound reply")

	return nil
}
