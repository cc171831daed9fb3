package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aidesk/internal/cache"
	"aidesk/internal/factcheck"
	"aidesk/internal/models"
	"aidesk/internal/rag"
	"aidesk/internal/vector"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
}

func (e *countingEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	return []float32{0.1, 0.2}, nil
}

type fixedModel struct {
	response string
}

func (m *fixedModel) Complete(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error) {
	return m.response, nil
}

type fixedStore struct {
	matches []vector.Match
}

func (s *fixedStore) Upsert(ctx context.Context, records []vector.Record) error { return nil }
func (s *fixedStore) Query(ctx context.Context, orgID string, vec []float32, topK int, minScore float32) ([]vector.Match, error) {
	return s.matches, nil
}
func (s *fixedStore) DeleteByDoc(ctx context.Context, orgID, docID string) error { return nil }

type passChecker struct{}

func (passChecker) Check(ctx context.Context, answer string, chunks []factcheck.ContextChunk) models.FactCheckResult {
	return models.FactCheckResult{IsFactual: true, Confidence: 100}
}

func newGenerateHandler(t *testing.T, embedder rag.Embedder, matches []vector.Match) (echo.HandlerFunc, *cache.ResponseCache) {
	t.Helper()

	model := &fixedModel{response: `{"answer": "Hi,\n\nThe pool opens at 8am.\n\nBest regards,\nAlex", "confidence": 90}`}
	generator, err := rag.New(embedder, model, &fixedStore{matches: matches}, passChecker{}, "Seaside Resort", 5, 0.7)
	require.NoError(t, err)

	responses := cache.New(time.Minute)
	return GenerateHandler(generator, responses), responses
}

func postJSON(t *testing.T, handler echo.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, handler(c))
	return rec
}

func TestGenerateHandlerValidation(t *testing.T) {
	handler, _ := newGenerateHandler(t, &countingEmbedder{}, nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing org_id", body: `{"query": "pool hours"}`},
		{name: "missing query", body: `{"org_id": "org-1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, handler, "/api/kb/generate", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGenerateHandlerCachesConfidentResponses(t *testing.T) {
	embedder := &countingEmbedder{}
	matches := []vector.Match{
		{ID: "doc1_0", Score: 0.9, Metadata: vector.Metadata{OrgID: "org-1", Text: "The pool opens at 8am."}},
	}
	handler, _ := newGenerateHandler(t, embedder, matches)

	body := `{"org_id": "org-1", "query": "pool hours"}`

	first := postJSON(t, handler, "/api/kb/generate", body)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, 1, embedder.calls)

	second := postJSON(t, handler, "/api/kb/generate", body)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 1, embedder.calls)
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestGenerateHandlerDoesNotCacheNoInfo(t *testing.T) {
	embedder := &countingEmbedder{}
	handler, _ := newGenerateHandler(t, embedder, nil)

	body := `{"org_id": "org-1", "query": "pool hours"}`

	first := postJSON(t, handler, "/api/kb/generate", body)
	assert.Equal(t, http.StatusOK, first.Code)

	var response models.RagResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &response))
	assert.Equal(t, 0, response.Confidence)

	postJSON(t, handler, "/api/kb/generate", body)
	assert.Equal(t, 2, embedder.calls)
}

func TestGenerateHandlerDebugBypassesCache(t *testing.T) {
	embedder := &countingEmbedder{}
	matches := []vector.Match{
		{ID: "doc1_0", Score: 0.9, Metadata: vector.Metadata{OrgID: "org-1", Text: "The pool opens at 8am."}},
	}
	handler, _ := newGenerateHandler(t, embedder, matches)

	body := `{"org_id": "org-1", "query": "pool hours", "debug": true}`

	first := postJSON(t, handler, "/api/kb/generate", body)
	assert.Equal(t, http.StatusOK, first.Code)

	var response models.RagResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &response))
	assert.NotNil(t, response.DebugInfo)

	postJSON(t, handler, "/api/kb/generate", body)
	assert.Equal(t, 2, embedder.calls)
}

func TestIngestHandlerValidation(t *testing.T) {
	handler := IngestHandler(nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing org_id", body: `{"content": "doc text"}`},
		{name: "missing content", body: `{"org_id": "org-1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, handler, "/api/kb/ingest", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
