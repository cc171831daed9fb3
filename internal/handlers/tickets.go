package handlers

import (
	"errors"
	"net/http"

	"aidesk/internal/database"
	"aidesk/internal/models"

	"github.com/labstack/echo/v4"
)

// GetTicketHandler returns a ticket by id
// @Summary Get a ticket
// @Tags Tickets
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} models.Ticket
// @Failure 404 {object} models.ErrorResponse
// @Router /api/tickets/{id} [get]
func GetTicketHandler(tickets *database.TicketStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ticket, err := tickets.Get(c.Request().Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, database.ErrTicketNotFound) {
				return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "ticket not found"})
			}
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, ticket)
	}
}

// TicketLogsHandler returns the audit trail for a ticket
// @Summary List email audit logs for a ticket
// @Tags Tickets
// @Produce json
// @Param id path string true "Ticket ID"
// @Param org_id query string true "Organization ID"
// @Success 200 {array} models.EmailLog
// @Failure 400 {object} models.ErrorResponse
// @Router /api/tickets/{id}/logs [get]
func TicketLogsHandler(logs *database.EmailLogStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		orgID := c.QueryParam("org_id")
		if orgID == "" {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "org_id is required"})
		}

		entries, err := logs.ListByTicket(c.Request().Context(), orgID, c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, entries)
	}
}
