package sandbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/interviewd/internal/catalog"
	"github.com/fyrsmithlabs/interviewd/internal/config"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		actual   string
		want     bool
	}{
		{"equal scalars", `5`, `5`, true},
		{"unequal scalars", `5`, `6`, false},
		{"equal strings", `"olleh"`, `"olleh"`, true},
		{"arrays same order", `[2,4,6]`, `[2,4,6]`, true},
		{"arrays different order", `[0,1]`, `[1,0]`, true},
		{"arrays different elements", `[1,2]`, `[1,3]`, false},
		{"arrays different length", `[1,2]`, `[1,2,2]`, false},
		{"nested arrays reordered", `[[1,6],[8,10]]`, `[[8,10],[1,6]]`, true},
		{"bools", `true`, `true`, true},
		{"null result", `[null,1]`, `[1,null]`, true},
		{"invalid actual", `5`, `not json`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(json.RawMessage(tt.expected), json.RawMessage(tt.actual))
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestRunner(t *testing.T, handler http.HandlerFunc) Runner {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	runner, err := NewRunner(config.SandboxConfig{URL: srv.URL}, zap.NewNop())
	require.NoError(t, err)
	return runner
}

func TestRunGradesResults(t *testing.T) {
	runner := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/run", r.URL.Path)
		var req struct {
			Code   string            `json:"code"`
			Inputs []json.RawMessage `json:"inputs"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Inputs, 3)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"output":5},
			{"output":1},
			{"error":"TypeError: unsupported operand"}
		]}`))
	})

	tests := []catalog.TestCase{
		{Input: json.RawMessage(`[2,3]`), Expected: json.RawMessage(`5`)},
		{Input: json.RawMessage(`[-1,1]`), Expected: json.RawMessage(`0`)},
		{Input: json.RawMessage(`[100,200]`), Expected: json.RawMessage(`300`), Hidden: true},
	}
	results, err := runner.Run(context.Background(), "def solution(a, b): return a + b", tests)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Passed)
	assert.False(t, results[1].Passed)
	assert.Empty(t, results[1].Error)
	assert.False(t, results[2].Passed)
	assert.Equal(t, "TypeError: unsupported operand", results[2].Error)
	assert.True(t, results[2].Hidden)
}

func TestRunServiceErrorPropagates(t *testing.T) {
	runner := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})
	_, err := runner.Run(context.Background(), "def solution(): pass", []catalog.TestCase{
		{Input: json.RawMessage(`[]`), Expected: json.RawMessage(`null`)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestRunResultCountMismatch(t *testing.T) {
	runner := newTestRunner(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	})
	_, err := runner.Run(context.Background(), "def solution(): pass", []catalog.TestCase{
		{Input: json.RawMessage(`[1]`), Expected: json.RawMessage(`1`)},
	})
	assert.Error(t, err)
}

func TestNewRunnerValidation(t *testing.T) {
	_, err := NewRunner(config.SandboxConfig{}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewRunner(config.SandboxConfig{URL: "http://localhost:9090"}, nil)
	assert.Error(t, err)
}
