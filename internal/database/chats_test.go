package database

import (
	"context"
	"database/sql"
	"testing"

	"aidesk/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockChatStore(t *testing.T) (*ChatStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock := newMockDB(t)
	expectCreates(mock, 4)
	store, err := NewChatStore(db)
	require.NoError(t, err)

	return store, mock
}

func TestNewChatStoreNilDB(t *testing.T) {
	store, err := NewChatStore(nil)
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestChatGetNotFound(t *testing.T) {
	store, mock := newMockChatStore(t)

	mock.ExpectQuery("SELECT \\* FROM ticket_email_chats").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	chat, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrChatNotFound)
	assert.Nil(t, chat)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateClassification(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   error
	}{
		{
			name: "verdict stored",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE ticket_email_chats").
					WithArgs(models.ClassificationShouldRespond, 90, "chat-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "missing chat",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE ticket_email_chats").
					WithArgs(models.ClassificationShouldRespond, 90, "chat-1").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: ErrChatNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockChatStore(t)
			tt.setupMock(mock)

			err := store.UpdateClassification(context.Background(), "chat-1", models.ClassificationResult{
				Classification: models.ClassificationShouldRespond,
				Confidence:     90,
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSaveDraftEncodesReferences(t *testing.T) {
	store, mock := newMockChatStore(t)

	mock.ExpectExec("UPDATE ticket_email_chats").
		WithArgs("<p>Hi Sam,</p>", []byte(`["doc1_0","doc1_1"]`), int64(1200), "chat-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.SaveDraft(context.Background(), "chat-1", "<p>Hi Sam,</p>", []string{"doc1_0", "doc1_1"}, 1200)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveDraftEmptyReferences(t *testing.T) {
	store, mock := newMockChatStore(t)

	mock.ExpectExec("UPDATE ticket_email_chats").
		WithArgs("<p>Hi Sam,</p>", []byte(`[]`), int64(0), "chat-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.SaveDraft(context.Background(), "chat-1", "<p>Hi Sam,</p>", nil, 0)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSent(t *testing.T) {
	store, mock := newMockChatStore(t)

	mock.ExpectExec("UPDATE ticket_email_chats").
		WithArgs("chat-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.MarkSent(context.Background(), "chat-1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDiscardDraftNotFound(t *testing.T) {
	store, mock := newMockChatStore(t)

	mock.ExpectExec("UPDATE ticket_email_chats").
		WithArgs("missing", "2026-08-29T10:00:00Z").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DiscardDraft(context.Background(), "missing", "2026-08-29T10:00:00Z")
	assert.ErrorIs(t, err, ErrChatNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetPromotional(t *testing.T) {
	store, mock := newMockChatStore(t)

	mock.ExpectExec("UPDATE ticket_email_chats").
		WithArgs("chat-1", "newsletter blast").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.SetPromotional(context.Background(), "chat-1", "newsletter blast")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
