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
	conflictMinChars    = 5
	conflictWindow      = 5
	conflictMsgTruncate = 150
)

// ConflictAnalyzer detects hostile, dismissive, or unprofessional behavior.
// A critical finding anywhere in a session forces the committee to reject.
type ConflictAnalyzer struct {
	client oracle.Client
	logger *zap.Logger
}

func NewConflictAnalyzer(client oracle.Client, logger *zap.Logger) *ConflictAnalyzer {
	return &ConflictAnalyzer{client: client, logger: logger}
}

const conflictSystem = "You are monitoring an interview for unprofessional conduct. Respond with JSON only."

type conflictReply struct {
	Violation    bool   `json:"violation"`
	Severity     string `json:"severity"`
	BehaviorType string `json:"behavior_type"`
	Reasoning    string `json:"reasoning"`
}

// Analyze classifies the message's conduct. Messages under 5 trimmed
// characters skip the model call; failures fail open to no violation.
func (a *ConflictAnalyzer) Analyze(ctx context.Context, message string, history []Turn, level catalog.Level) ConflictResult {
	none := ConflictResult{Severity: SeverityNone}
	if utf8.RuneCountInString(strings.TrimSpace(message)) < conflictMinChars {
		return none
	}

	prompt := fmt.Sprintf(`Recent conversation:
%s

The candidate just said: %s

Classify the candidate's conduct. Rudeness, insults, refusal to engage,
aggression toward the interviewer, or demands to end the process are
violations. Reply with a JSON object:
{"violation": <true|false>, "severity": "<none|minor|moderate|severe|critical>", "behavior_type": "<short tag>", "reasoning": "<one sentence>"}`,
		formatWindow(history, conflictWindow, conflictMsgTruncate), message)

	reply, err := a.client.Complete(ctx, prompt, conflictSystem)
	if err != nil {
		a.logger.Warn("conflict analysis call failed", zap.Error(err))
		return none
	}
	raw, ok := oracle.ExtractJSON(reply)
	if !ok {
		return none
	}
	var parsed conflictReply
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return none
	}

	severity := Severity(parsed.Severity)
	base, known := conflictBasePoints[severity]
	if !parsed.Violation || !known {
		return ConflictResult{Severity: SeverityNone, Reasoning: parsed.Reasoning}
	}
	mult, ok := conflictLevelMultipliers[level]
	if !ok {
		mult = 1.0
	}
	return ConflictResult{
		Violation:    true,
		Severity:     severity,
		BehaviorType: parsed.BehaviorType,
		Penalty:      base * mult,
		Reasoning:    parsed.Reasoning,
	}
}
