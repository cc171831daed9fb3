package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"aidesk/internal/models"
	"aidesk/internal/pipeline"

	"github.com/labstack/echo/v4"
)

// InboundEmailHandler accepts a raw inbound email, threads it onto a
// ticket and runs the AI enrichment. With auto_send set, high
// confidence drafts are sent immediately.
// @Summary Process an inbound email
// @Description Thread the message onto a ticket, classify it and draft a reply
// @Tags Email
// @Accept json
// @Produce json
// @Param request body models.InboundEmailRequest true "Inbound email"
// @Success 200 {object} models.InboundEmailResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/email/inbound [post]
func InboundEmailHandler(processor *pipeline.Processor) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.InboundEmailRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: fmt.Sprintf("Invalid request body: %v", err),
			})
		}
		if req.OrgID == "" || req.MessageID == "" || req.From == "" {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: "org_id, message_id and from are required",
			})
		}
		if req.ThreadID == "" {
			req.ThreadID = req.MessageID
		}

		date := time.Now()
		if req.Date != "" {
			if parsed, err := time.Parse(time.RFC3339, req.Date); err == nil {
				date = parsed
			}
		}

		msg := &models.InboundMessage{
			MessageID: req.MessageID,
			ThreadID:  req.ThreadID,
			From:      req.From,
			FromName:  req.FromName,
			To:        req.To,
			Cc:        req.Cc,
			Subject:   req.Subject,
			TextBody:  req.TextBody,
			HTMLBody:  req.HTMLBody,
			Date:      date,
		}

		ctx := c.Request().Context()
		threaded, aiResult, err := processor.ProcessInboundEmail(ctx, req.OrgID, msg)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}

		response := models.InboundEmailResponse{
			TicketID:    threaded.TicketID,
			ChatID:      threaded.ChatID,
			IsNewTicket: threaded.IsNewTicket,
			Reopened:    threaded.Reopened,
		}
		if aiResult != nil {
			response.Classification = aiResult.Classification
			response.Confidence = aiResult.Confidence
			response.DraftResponse = aiResult.DraftResponse
			response.References = aiResult.References
		}

		if req.AutoSend && aiResult != nil && aiResult.DraftResponse != "" {
			response.AutoResponded = processor.MaybeAutoSend(ctx, threaded.ChatID, aiResult.Confidence)
		}

		return c.JSON(http.StatusOK, response)
	}
}

// SendDraftHandler sends the stored draft for a chat
// @Summary Send a drafted reply
// @Tags Email
// @Produce json
// @Param id path string true "Chat ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/chats/{id}/send-draft [post]
func SendDraftHandler(processor *pipeline.Processor) echo.HandlerFunc {
	return func(c echo.Context) error {
		chatID := c.Param("id")

		if err := processor.SendDraftResponse(c.Request().Context(), chatID); err != nil {
			if errors.Is(err, pipeline.ErrNoDraft) {
				return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
			}
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, map[string]string{"status": "sent"})
	}
}
