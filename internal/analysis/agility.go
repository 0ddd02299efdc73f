package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/interviewd/internal/oracle"
)

// AgilityAnalyzer scores how well a resubmitted answer incorporated the
// feedback given after the first attempt.
type AgilityAnalyzer struct {
	client oracle.Client
	logger *zap.Logger
}

func NewAgilityAnalyzer(client oracle.Client, logger *zap.Logger) *AgilityAnalyzer {
	return &AgilityAnalyzer{client: client, logger: logger}
}

const agilitySystem = "You are assessing how a candidate incorporates feedback. Respond with JSON only."

type agilityReply struct {
	Score     float64  `json:"score"`
	Improved  []string `json:"improved"`
	StillWeak []string `json:"still_weak"`
	Feedback  string   `json:"feedback"`
}

// Analyze compares the new answer against the previous one in light of the
// feedback given in between. All three inputs must be non-empty; otherwise
// the score is 0.0. Call failure also yields 0.0, with the error in the
// feedback; a parse failure yields a neutral 0.5.
func (a *AgilityAnalyzer) Analyze(ctx context.Context, prevAnswer, feedback, newAnswer string) AgilityResult {
	if strings.TrimSpace(prevAnswer) == "" ||
		strings.TrimSpace(feedback) == "" ||
		strings.TrimSpace(newAnswer) == "" {
		return AgilityResult{Score: 0.0, Feedback: "Not enough history to assess improvement."}
	}

	prompt := fmt.Sprintf(`A candidate answered a question, received feedback, and answered again.

First answer: %s

Feedback given: %s

New answer: %s

Rate from 0 to 10 how well the new answer incorporated the feedback. Reply
with a JSON object:
{"score": <0-10 integer>, "improved": ["<area>", ...], "still_weak": ["<area>", ...], "feedback": "<one sentence>"}`,
		prevAnswer, feedback, newAnswer)

	reply, err := a.client.Complete(ctx, prompt, agilitySystem)
	if err != nil {
		a.logger.Warn("agility analysis call failed", zap.Error(err))
		return AgilityResult{
			Score:    0.0,
			Feedback: fmt.Sprintf("Could not assess improvement: %v", err),
		}
	}
	raw, ok := oracle.ExtractJSON(reply)
	if !ok {
		return agilityFallback()
	}
	var parsed agilityReply
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return agilityFallback()
	}

	return AgilityResult{
		Score:     clampScore10(parsed.Score) / 10,
		Improved:  parsed.Improved,
		StillWeak: parsed.StillWeak,
		Feedback:  parsed.Feedback,
	}
}

func agilityFallback() AgilityResult {
	return AgilityResult{Score: 0.5, Feedback: "Moderate improvement assumed."}
}
