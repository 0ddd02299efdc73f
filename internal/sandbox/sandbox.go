// Package sandbox runs candidate code against task test vectors through an
// external execution service. The service is a black box: it receives source
// plus inputs and returns per-test outputs or error text. Result comparison
// happens on this side so the grading rules stay in one place.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/interviewd/internal/catalog"
	"github.com/fyrsmithlabs/interviewd/internal/config"
)

// TestResult is the graded outcome of one test vector.
type TestResult struct {
	Input    json.RawMessage `json:"input"`
	Expected json.RawMessage `json:"expected"`
	Actual   json.RawMessage `json:"actual,omitempty"`
	Passed   bool            `json:"passed"`
	Hidden   bool            `json:"hidden"`
	Error    string          `json:"error,omitempty"`
}

// Runner executes candidate code against test vectors.
type Runner interface {
	Run(ctx context.Context, code string, tests []catalog.TestCase) ([]TestResult, error)
}

type httpRunner struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewRunner creates a Runner backed by the configured execution service.
func NewRunner(cfg config.SandboxConfig, logger *zap.Logger) (Runner, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("sandbox URL is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	timeout := cfg.Timeout.Duration()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpRunner{
		url:    cfg.URL,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}, nil
}

type runRequest struct {
	Code   string            `json:"code"`
	Inputs []json.RawMessage `json:"inputs"`
}

type runResponse struct {
	Results []struct {
		Output json.RawMessage `json:"output"`
		Error  string          `json:"error,omitempty"`
	} `json:"results"`
}

// Run submits the code once with every test input. A candidate exception on a
// given input becomes a failed TestResult, not an error; only transport and
// service failures propagate.
func (r *httpRunner) Run(ctx context.Context, code string, tests []catalog.TestCase) ([]TestResult, error) {
	inputs := make([]json.RawMessage, len(tests))
	for i, tc := range tests {
		inputs[i] = tc.Input
	}
	body, err := json.Marshal(runRequest{Code: code, Inputs: inputs})
	if err != nil {
		return nil, fmt.Errorf("failed to encode run request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url+"/run", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create run request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execution service request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read execution response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("execution service returned status %d: %s", resp.StatusCode, respBody)
	}

	var parsed runResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode execution response: %w", err)
	}
	if len(parsed.Results) != len(tests) {
		return nil, fmt.Errorf("execution service returned %d results for %d tests", len(parsed.Results), len(tests))
	}

	results := make([]TestResult, len(tests))
	for i, tc := range tests {
		out := parsed.Results[i]
		res := TestResult{
			Input:    tc.Input,
			Expected: tc.Expected,
			Actual:   out.Output,
			Hidden:   tc.Hidden,
			Error:    out.Error,
		}
		if out.Error == "" {
			res.Passed = Compare(tc.Expected, out.Output)
		}
		results[i] = res
	}

	passed := 0
	for _, res := range results {
		if res.Passed {
			passed++
		}
	}
	r.logger.Debug("code executed",
		zap.Int("tests", len(tests)),
		zap.Int("passed", passed))
	return results, nil
}
