// Package oracle provides the language-model collaborator client.
//
// The client speaks the OpenAI-compatible chat completions API. Plain
// completions are returned verbatim (analyzers parse JSON out of them);
// tool-calling replies are candidate-facing, so they are sanitized of leaked
// reasoning tags and get at most one corrective retry when forbidden
// meta-commentary survives sanitization.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/interviewd/internal/config"
)

// Default configuration values.
const (
	defaultMaxTokens      = 300
	defaultToolMaxTokens  = 2000
	defaultTemperature    = 0.7
	defaultTimeout        = 60 * time.Second
	defaultMaxRetries     = 3
	defaultBaseBackoff    = 1 * time.Second
	correctiveMaxAttempts = 2
)

// Rate limiter defaults: 50 requests per minute.
const (
	defaultRateLimit = 50.0 / 60.0
	defaultBurst     = 5
)

// correctionPrompt is injected when a tool-calling reply leaks reasoning.
const correctionPrompt = "ATTENTION: your previous reply contained meta-commentary or internal " +
	"reasoning. Speak to the candidate in direct speech only, with no tags or " +
	"notes about your thought process, in at most 3 sentences. Rephrase your reply."

// httpClient implements Client against an OpenAI-compatible API.
type httpClient struct {
	model      string
	apiKey     string
	baseURL    string
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries int
	logger     *zap.Logger
}

// NewClient creates an oracle client from configuration.
func NewClient(cfg config.OracleConfig, logger *zap.Logger) (Client, error) {
	if !cfg.APIKey.IsSet() {
		return nil, fmt.Errorf("oracle API key required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	model := cfg.Model
	if model == "" {
		return nil, fmt.Errorf("oracle model required")
	}

	timeout := defaultTimeout
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout.Duration()
	}
	maxRetries := defaultMaxRetries
	if cfg.MaxRetries > 0 {
		maxRetries = cfg.MaxRetries
	}

	return &httpClient{
		model:      model,
		apiKey:     cfg.APIKey.Value(),
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		client:     &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		maxRetries: maxRetries,
		logger:     logger,
	}, nil
}

// chatRequest is the OpenAI-compatible request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	Tools       []Tool        `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the OpenAI-compatible response body.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Type     string `json:"type"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

type chatError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete performs a plain completion. The reply is returned verbatim:
// analyzer callers parse JSON out of it, so sanitization is left to the
// persona-facing callers.
func (h *httpClient) Complete(ctx context.Context, prompt, system string) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	req := chatRequest{
		Model:       h.model,
		Messages:    messages,
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	}

	resp, err := h.send(ctx, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// CompleteWithTools performs a tool-calling completion.
func (h *httpClient) CompleteWithTools(ctx context.Context, system string, messages []Message, tools []Tool) (*ToolReply, error) {
	full := make([]chatMessage, 0, len(messages)+3)
	if system != "" {
		full = append(full, chatMessage{Role: "system", Content: system})
	}
	for _, m := range messages {
		full = append(full, chatMessage{Role: m.Role, Content: m.Content})
	}

	var reply *ToolReply
	for attempt := 0; attempt < correctiveMaxAttempts; attempt++ {
		req := chatRequest{
			Model:       h.model,
			Messages:    full,
			MaxTokens:   defaultToolMaxTokens,
			Temperature: defaultTemperature,
			Tools:       tools,
			ToolChoice:  "auto",
		}

		resp, err := h.send(ctx, req)
		if err != nil {
			return nil, err
		}

		msg := resp.Choices[0].Message
		reply = &ToolReply{Content: Sanitize(msg.Content)}
		for _, tc := range msg.ToolCalls {
			reply.ToolCalls = append(reply.ToolCalls, ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: json.RawMessage(tc.Function.Arguments),
			})
		}

		if !hasForbiddenMarkers(reply.Content) {
			return reply, nil
		}

		// Leaked reasoning survived sanitization: ask the model to rephrase.
		h.logger.Warn("oracle reply contains forbidden markers, retrying",
			zap.Int("attempt", attempt+1))
		full = append(full,
			chatMessage{Role: "assistant", Content: reply.Content},
			chatMessage{Role: "system", Content: correctionPrompt},
		)
	}

	// Retries exhausted: return the best available text.
	return reply, nil
}

// send performs the HTTP round trip with rate limiting and bounded retries.
func (h *httpClient) send(ctx context.Context, req chatRequest) (*chatResponse, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= h.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := defaultBaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := h.doRequest(ctx, req)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// doRequest performs the actual HTTP request.
func (h *httpClient) doRequest(ctx context.Context, req chatRequest) (*chatResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", h.baseURL+"/v1/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+h.apiKey)

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, &retryableError{err: fmt.Errorf("API request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &retryableError{err: fmt.Errorf("rate limited (429)")}
	}
	if resp.StatusCode >= 500 {
		return nil, &retryableError{err: fmt.Errorf("server error (%d): %s", resp.StatusCode, string(body))}
	}
	if resp.StatusCode != http.StatusOK {
		var errResp chatError
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from API")
	}
	return &chatResp, nil
}

// retryableError marks errors worth retrying (network failures, 429, 5xx).
type retryableError struct {
	err error
}

func (r *retryableError) Error() string { return r.err.Error() }
func (r *retryableError) Unwrap() error { return r.err }

func isRetryableError(err error) bool {
	_, ok := err.(*retryableError)
	return ok
}

// Ensure interface is implemented at compile time.
var _ Client = (*httpClient)(nil)
