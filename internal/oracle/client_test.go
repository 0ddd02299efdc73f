package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/interviewd/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.OracleConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "test-model",
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func completionBody(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func TestCompleteReturnsStructuredReplyVerbatim(t *testing.T) {
	reply := "Here is my assessment:\n" +
		`{"is_clarification": true, "confidence": 0.85, "suggested_response": "Assume ASCII input. Duplicates are allowed."}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewEncoder(w).Encode(completionBody(reply)))
	})

	got, err := client.Complete(context.Background(), "classify this message", "system prompt")
	require.NoError(t, err)
	assert.Equal(t, reply, got)

	raw, ok := ExtractJSON(got)
	require.True(t, ok)
	var parsed struct {
		IsClarification   bool    `json:"is_clarification"`
		Confidence        float64 `json:"confidence"`
		SuggestedResponse string  `json:"suggested_response"`
	}
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.True(t, parsed.IsClarification)
	assert.Equal(t, 0.85, parsed.Confidence)
	assert.Equal(t, "Assume ASCII input. Duplicates are allowed.", parsed.SuggestedResponse)
}

func TestCompleteTrimsSurroundingWhitespace(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(completionBody("  A direct answer.\n")))
	})

	got, err := client.Complete(context.Background(), "q", "")
	require.NoError(t, err)
	assert.Equal(t, "A direct answer.", got)
}

func TestCompleteAPIErrorIsNotRetried(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"type": "invalid_request_error", "message": "bad prompt"}}`))
	})

	_, err := client.Complete(context.Background(), "q", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad prompt")
	assert.Equal(t, 1, calls)
}
