package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/interviewd/internal/oracle"
)

// ClarificationDetector classifies whether a message is a genuine clarifying
// question about the current task, as opposed to an answer or small talk.
type ClarificationDetector struct {
	client oracle.Client
	logger *zap.Logger
}

func NewClarificationDetector(client oracle.Client, logger *zap.Logger) *ClarificationDetector {
	return &ClarificationDetector{client: client, logger: logger}
}

const clarificationSystem = "You are classifying interview messages. Respond with JSON only."

type clarificationReply struct {
	IsClarification   bool    `json:"is_clarification"`
	Confidence        float64 `json:"confidence"`
	SuggestedResponse string  `json:"suggested_response"`
}

// Detect classifies the message. An empty message is never a clarification
// and skips the model call. Confidence is clamped to [0,1]; a parse failure
// yields false with 0.5 confidence, a call failure false with 0.0.
func (d *ClarificationDetector) Detect(ctx context.Context, message, currentContext string) ClarificationResult {
	if strings.TrimSpace(message) == "" {
		return ClarificationResult{}
	}

	prompt := fmt.Sprintf(`The interview is currently discussing: %s

The candidate said: %s

Is this a genuine clarifying question about the task or question at hand?
Reply with a JSON object:
{"is_clarification": <true|false>, "confidence": <0.0-1.0>, "suggested_response": "<how the interviewer should answer, empty if not a clarification>"}`,
		currentContext, message)

	reply, err := d.client.Complete(ctx, prompt, clarificationSystem)
	if err != nil {
		d.logger.Warn("clarification detection call failed", zap.Error(err))
		return ClarificationResult{}
	}
	raw, ok := oracle.ExtractJSON(reply)
	if !ok {
		return ClarificationResult{Confidence: 0.5}
	}
	var parsed clarificationReply
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ClarificationResult{Confidence: 0.5}
	}

	return ClarificationResult{
		IsClarification:   parsed.IsClarification,
		Confidence:        clamp01(parsed.Confidence),
		SuggestedResponse: parsed.SuggestedResponse,
	}
}
