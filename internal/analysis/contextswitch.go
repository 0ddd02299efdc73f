package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/interviewd/internal/catalog"
	"github.com/fyrsmithlabs/interviewd/internal/oracle"
)

const (
	contextSwitchMinChars    = 5
	contextSwitchWindow      = 5
	contextSwitchMsgTruncate = 200
)

// ContextSwitchAnalyzer detects off-topic deflections from the current
// question or task.
type ContextSwitchAnalyzer struct {
	client oracle.Client
	logger *zap.Logger
}

func NewContextSwitchAnalyzer(client oracle.Client, logger *zap.Logger) *ContextSwitchAnalyzer {
	return &ContextSwitchAnalyzer{client: client, logger: logger}
}

const contextSwitchSystem = "You are monitoring an interview for topic evasion. Respond with JSON only."

type contextSwitchReply struct {
	Violation bool   `json:"violation"`
	Severity  string `json:"severity"`
	Reasoning string `json:"reasoning"`
}

// Analyze judges whether a message deflects from the current topic. Messages
// under 5 trimmed characters never count as a violation and skip the model
// call; parse and call failures fail open to no violation.
func (a *ContextSwitchAnalyzer) Analyze(ctx context.Context, message string, history []Turn, currentTopic string, level catalog.Level) ContextSwitchResult {
	none := ContextSwitchResult{Severity: SeverityNone}
	if utf8.RuneCountInString(strings.TrimSpace(message)) < contextSwitchMinChars {
		return none
	}

	prompt := fmt.Sprintf(`The interview is currently discussing: %s

Recent conversation:
%s

The candidate just said: %s

Is this message a logical continuation of the discussion, or an off-topic or
evasive deflection? Reply with a JSON object:
{"violation": <true|false>, "severity": "<none|minor|moderate|severe>", "reasoning": "<one sentence>"}`,
		currentTopic, formatWindow(history, contextSwitchWindow, contextSwitchMsgTruncate), message)

	reply, err := a.client.Complete(ctx, prompt, contextSwitchSystem)
	if err != nil {
		a.logger.Warn("context-switch analysis call failed", zap.Error(err))
		return none
	}
	raw, ok := oracle.ExtractJSON(reply)
	if !ok {
		return none
	}
	var parsed contextSwitchReply
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return none
	}

	severity := Severity(parsed.Severity)
	mult, known := contextSwitchMultipliers[severity]
	if !known {
		return none
	}
	if !parsed.Violation || severity == SeverityNone {
		return ContextSwitchResult{Severity: SeverityNone, Reasoning: parsed.Reasoning}
	}
	return ContextSwitchResult{
		Violation: true,
		Severity:  severity,
		Penalty:   PenaltyWeight(KindContextSwitching, level) * mult,
		Reasoning: parsed.Reasoning,
	}
}

// formatWindow renders the trailing turns of history, truncating each message.
func formatWindow(history []Turn, window, msgLimit int) string {
	if len(history) > window {
		history = history[len(history)-window:]
	}
	if len(history) == 0 {
		return "(no prior messages)"
	}
	var b strings.Builder
	for _, turn := range history {
		fmt.Fprintf(&b, "%s: %s\n", turn.Speaker, truncate(turn.Content, msgLimit))
	}
	return strings.TrimRight(b.String(), "\n")
}
