package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"aidesk/internal/models"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Validation failures must reject the request before the pipeline is
// touched, so a nil processor is safe here.
func TestInboundEmailHandlerValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing org_id",
			body: `{"message_id": "<msg-1@example.com>", "from": "sam@example.com"}`,
		},
		{
			name: "missing message_id",
			body: `{"org_id": "org-1", "from": "sam@example.com"}`,
		},
		{
			name: "missing from",
			body: `{"org_id": "org-1", "message_id": "<msg-1@example.com>"}`,
		},
		{
			name: "empty body",
			body: `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/email/inbound", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := InboundEmailHandler(nil)
			err := handler(c)

			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var response models.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			assert.Contains(t, response.Error, "required")
		})
	}
}

func TestInboundEmailHandlerMalformedJSON(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/email/inbound", strings.NewReader("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := InboundEmailHandler(nil)
	err := handler(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
