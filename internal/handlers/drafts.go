package handlers

import (
	"errors"
	"net/http"
	"time"

	"aidesk/internal/database"
	"aidesk/internal/models"

	"github.com/labstack/echo/v4"
)

// DiscardDraftHandler clears a chat's stored draft
// @Summary Discard a drafted reply
// @Tags Email
// @Produce json
// @Param id path string true "Chat ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/chats/{id}/discard-draft [post]
func DiscardDraftHandler(chats *database.ChatStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		chatID := c.Param("id")
		discardedAt := time.Now().UTC().Format(time.RFC3339)

		if err := chats.DiscardDraft(c.Request().Context(), chatID, discardedAt); err != nil {
			if errors.Is(err, database.ErrChatNotFound) {
				return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "chat not found"})
			}
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, map[string]string{"status": "discarded"})
	}
}

// GetChatHandler returns a chat record with its draft state
// @Summary Get a chat record
// @Tags Email
// @Produce json
// @Param id path string true "Chat ID"
// @Success 200 {object} models.EmailChat
// @Failure 404 {object} models.ErrorResponse
// @Router /api/chats/{id} [get]
func GetChatHandler(chats *database.ChatStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		chat, err := chats.Get(c.Request().Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, database.ErrChatNotFound) {
				return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "chat not found"})
			}
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, chat)
	}
}
