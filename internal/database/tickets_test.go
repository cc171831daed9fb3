package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"aidesk/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func expectCreates(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}
}

func newMockTicketStore(t *testing.T) (*TicketStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock := newMockDB(t)
	expectCreates(mock, 3)
	store, err := NewTicketStore(db)
	require.NoError(t, err)

	return store, mock
}

func TestNewTicketStoreNilDB(t *testing.T) {
	store, err := NewTicketStore(nil)
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestFindByThreadID(t *testing.T) {
	columns := []string{
		"id", "subject", "description", "status", "priority",
		"customer_id", "org_id", "metadata", "created_at", "updated_at", "deleted_at",
	}
	now := time.Now().UTC()

	tests := []struct {
		name       string
		setupMock  func(mock sqlmock.Sqlmock)
		wantTicket bool
		wantError  bool
	}{
		{
			name: "ticket found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT \\* FROM tickets").
					WithArgs("org-1", "<thread-1@example.com>").
					WillReturnRows(sqlmock.NewRows(columns).AddRow(
						"ticket-1", "Pool hours", "body", "open", "medium",
						"customer-1", "org-1", `{"thread_id": "<thread-1@example.com>"}`,
						now, now, nil,
					))
			},
			wantTicket: true,
		},
		{
			name: "no ticket for thread",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT \\* FROM tickets").
					WithArgs("org-1", "<thread-1@example.com>").
					WillReturnError(sql.ErrNoRows)
			},
			wantTicket: false,
		},
		{
			name: "query failure",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT \\* FROM tickets").
					WithArgs("org-1", "<thread-1@example.com>").
					WillReturnError(sql.ErrConnDone)
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockTicketStore(t)
			tt.setupMock(mock)

			ticket, err := store.FindByThreadID(context.Background(), "org-1", "<thread-1@example.com>")

			if tt.wantError {
				assert.Error(t, err)
				assert.Nil(t, ticket)
			} else if tt.wantTicket {
				require.NoError(t, err)
				require.NotNil(t, ticket)
				assert.Equal(t, "ticket-1", ticket.ID)
				assert.Equal(t, "<thread-1@example.com>", ticket.Metadata.ThreadID)
			} else {
				// A missing thread is not an error, callers branch on nil.
				assert.NoError(t, err)
				assert.Nil(t, ticket)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTicketReopen(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   error
	}{
		{
			name: "reopen succeeds",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE tickets").
					WithArgs("ticket-1", "2026-08-29T10:00:00Z", "new_inbound_email").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "missing ticket",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE tickets").
					WithArgs("ticket-1", "2026-08-29T10:00:00Z", "new_inbound_email").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: ErrTicketNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockTicketStore(t)
			tt.setupMock(mock)

			err := store.Reopen(context.Background(), "ticket-1", "2026-08-29T10:00:00Z", "new_inbound_email")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTicketUpdateStatusNotFound(t *testing.T) {
	store, mock := newMockTicketStore(t)

	mock.ExpectExec("UPDATE tickets").
		WithArgs(models.TicketSolved, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateStatus(context.Background(), "missing", models.TicketSolved)
	assert.ErrorIs(t, err, ErrTicketNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketSoftDelete(t *testing.T) {
	store, mock := newMockTicketStore(t)

	mock.ExpectExec("UPDATE tickets").
		WithArgs("ticket-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.SoftDelete(context.Background(), "ticket-1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
