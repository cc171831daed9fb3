package ticketing

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"aidesk/internal/database"
	"aidesk/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, reopenGraceDays int) (*Manager, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "sqlmock")
	for i := 0; i < 12; i++ {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	tickets, err := database.NewTicketStore(db)
	require.NoError(t, err)
	chats, err := database.NewChatStore(db)
	require.NoError(t, err)
	profiles, err := database.NewProfileStore(db)
	require.NoError(t, err)
	logs, err := database.NewEmailLogStore(db)
	require.NoError(t, err)

	manager, err := New(tickets, chats, profiles, logs, reopenGraceDays)
	require.NoError(t, err)

	return manager, mock
}

func inboundMessage() *models.InboundMessage {
	return &models.InboundMessage{
		MessageID: "<msg-1@example.com>",
		ThreadID:  "<thread-1@example.com>",
		From:      "sam@example.com",
		FromName:  "Sam Smith",
		To:        []string{"support@example.com"},
		Subject:   "Pool hours",
		TextBody:  "When does the pool open?",
		Date:      time.Now().UTC(),
	}
}

func ticketColumns() []string {
	return []string{
		"id", "subject", "description", "status", "priority",
		"customer_id", "org_id", "metadata", "created_at", "updated_at", "deleted_at",
	}
}

func ticketRow(status models.TicketStatus, updatedAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(ticketColumns()).AddRow(
		"ticket-1", "Pool hours", "When does the pool open?", status, "medium",
		"customer-1", "org-1", `{"thread_id": "<thread-1@example.com>"}`,
		updatedAt.Add(-time.Hour), updatedAt, nil,
	)
}

func expectProfileResolved(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("INSERT INTO profiles").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("customer-1"))
}

func TestHandleInboundEmailCreatesTicketOnThreadMiss(t *testing.T) {
	manager, mock := newTestManager(t, 30)

	expectProfileResolved(mock)
	mock.ExpectQuery("SELECT \\* FROM tickets").
		WithArgs("org-1", "<thread-1@example.com>").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO tickets").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ticket_email_chats").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO email_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := manager.HandleInboundEmail(context.Background(), "org-1", inboundMessage())
	require.NoError(t, err)

	assert.True(t, result.IsNewTicket)
	assert.False(t, result.Reopened)
	assert.NotEmpty(t, result.TicketID)
	assert.NotEmpty(t, result.ChatID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleInboundEmailAppendsToExistingTicket(t *testing.T) {
	manager, mock := newTestManager(t, 30)

	expectProfileResolved(mock)
	mock.ExpectQuery("SELECT \\* FROM tickets").
		WithArgs("org-1", "<thread-1@example.com>").
		WillReturnRows(ticketRow(models.TicketOpen, time.Now().UTC()))
	mock.ExpectExec("INSERT INTO ticket_email_chats").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO email_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := manager.HandleInboundEmail(context.Background(), "org-1", inboundMessage())
	require.NoError(t, err)

	assert.False(t, result.IsNewTicket)
	assert.False(t, result.Reopened)
	assert.Equal(t, "ticket-1", result.TicketID)
	assert.NotEmpty(t, result.ChatID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleInboundEmailReopensWithinGraceWindow(t *testing.T) {
	manager, mock := newTestManager(t, 30)

	expectProfileResolved(mock)
	mock.ExpectQuery("SELECT \\* FROM tickets").
		WithArgs("org-1", "<thread-1@example.com>").
		WillReturnRows(ticketRow(models.TicketClosed, time.Now().UTC().AddDate(0, 0, -5)))
	mock.ExpectExec("UPDATE tickets").
		WithArgs("ticket-1", sqlmock.AnyArg(), "new_inbound_email").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ticket_email_chats").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO email_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := manager.HandleInboundEmail(context.Background(), "org-1", inboundMessage())
	require.NoError(t, err)

	assert.True(t, result.Reopened)
	assert.False(t, result.IsNewTicket)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleInboundEmailKeepsStatusOutsideGraceWindow(t *testing.T) {
	manager, mock := newTestManager(t, 30)

	expectProfileResolved(mock)
	mock.ExpectQuery("SELECT \\* FROM tickets").
		WithArgs("org-1", "<thread-1@example.com>").
		WillReturnRows(ticketRow(models.TicketClosed, time.Now().UTC().AddDate(0, 0, -60)))
	mock.ExpectExec("INSERT INTO ticket_email_chats").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO email_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := manager.HandleInboundEmail(context.Background(), "org-1", inboundMessage())
	require.NoError(t, err)

	assert.False(t, result.Reopened)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleInboundEmailProfileFailureAbortsWithAuditLog(t *testing.T) {
	manager, mock := newTestManager(t, 30)

	mock.ExpectQuery("INSERT INTO profiles").
		WillReturnError(errors.New("connection reset"))
	// The audit entry is written even though the operation failed.
	mock.ExpectExec("INSERT INTO email_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := manager.HandleInboundEmail(context.Background(), "org-1", inboundMessage())
	assert.Error(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleInboundEmailChatFailureKeepsTicket(t *testing.T) {
	manager, mock := newTestManager(t, 30)

	expectProfileResolved(mock)
	mock.ExpectQuery("SELECT \\* FROM tickets").
		WithArgs("org-1", "<thread-1@example.com>").
		WillReturnRows(ticketRow(models.TicketOpen, time.Now().UTC()))
	mock.ExpectExec("INSERT INTO ticket_email_chats").
		WillReturnError(errors.New("unique violation"))
	mock.ExpectExec("INSERT INTO email_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := manager.HandleInboundEmail(context.Background(), "org-1", inboundMessage())
	assert.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "ticket-1", result.TicketID)
	assert.Empty(t, result.ChatID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReopenIfNeededSkipsOpenTickets(t *testing.T) {
	manager, mock := newTestManager(t, 30)

	ticket := &models.Ticket{ID: "ticket-1", Status: models.TicketOpen, UpdatedAt: time.Now().UTC()}
	reopened, err := manager.ReopenIfNeeded(context.Background(), ticket)

	require.NoError(t, err)
	assert.False(t, reopened)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReopenIfNeededSkipsSolvedTickets(t *testing.T) {
	manager, mock := newTestManager(t, 30)

	// Only closed tickets reopen; solved ones keep their status even
	// inside the grace window.
	ticket := &models.Ticket{ID: "ticket-1", Status: models.TicketSolved, UpdatedAt: time.Now().UTC().AddDate(0, 0, -2)}
	reopened, err := manager.ReopenIfNeeded(context.Background(), ticket)

	require.NoError(t, err)
	assert.False(t, reopened)
	assert.Equal(t, models.TicketSolved, ticket.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReopenIfNeededUpdatesStatusInMemory(t *testing.T) {
	manager, mock := newTestManager(t, 30)

	mock.ExpectExec("UPDATE tickets").
		WithArgs("ticket-1", sqlmock.AnyArg(), "new_inbound_email").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ticket := &models.Ticket{ID: "ticket-1", Status: models.TicketClosed, UpdatedAt: time.Now().UTC().AddDate(0, 0, -2)}
	reopened, err := manager.ReopenIfNeeded(context.Background(), ticket)

	require.NoError(t, err)
	assert.True(t, reopened)
	assert.Equal(t, models.TicketOpen, ticket.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
