package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"aidesk/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresKey(t *testing.T) {
	client, err := NewClient(&config.Config{})
	assert.Error(t, err)
	assert.Nil(t, client)
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	client, err := NewClient(&config.Config{
		OpenAIKey:     "test-key",
		OpenAIBaseURL: baseURL,
		OpenAITimeout: 5,
	})
	require.NoError(t, err)
	return client
}

func TestCompleteUsesBaseURLOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "hello there"}}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	content, err := client.Complete(context.Background(), "system", "user", 0.2, 100)
	require.NoError(t, err)
	assert.Equal(t, "hello there", content)
}

func TestCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Complete(context.Background(), "system", "user", 0.2, 100)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestCreateEmbeddingsEmptyInput(t *testing.T) {
	client := newTestClient(t, "http://unused.invalid")

	_, err := client.CreateEmbeddings(context.Background(), nil)
	assert.Error(t, err)
}

func TestCreateEmbeddingsPreservesOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		// Items deliberately out of order, Index carries the position.
		_, _ = w.Write([]byte(`{"data": [
			{"object": "embedding", "index": 1, "embedding": [0.2]},
			{"object": "embedding", "index": 0, "embedding": [0.1]}
		]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	vectors, err := client.CreateEmbeddings(context.Background(), []string{"first", "second"})
	require.NoError(t, err)

	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1}, vectors[0])
	assert.Equal(t, []float32{0.2}, vectors[1])
}

func TestCreateEmbeddingsSizeMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [{"object": "embedding", "index": 0, "embedding": [0.1]}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.CreateEmbeddings(context.Background(), []string{"first", "second"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}
