package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/interviewd/internal/oracle"
)

const depthMinChars = 10

// DepthAnalyzer rates how substantively an answer engages the expected
// topics. The raw 0-10 model score is rescaled to [0,1].
type DepthAnalyzer struct {
	client oracle.Client
	logger *zap.Logger
}

func NewDepthAnalyzer(client oracle.Client, logger *zap.Logger) *DepthAnalyzer {
	return &DepthAnalyzer{client: client, logger: logger}
}

const depthSystem = "You are an expert technical interviewer evaluating answer depth. Respond with JSON only."

type depthReply struct {
	Score    float64  `json:"score"`
	Feedback string   `json:"feedback"`
	Issues   []string `json:"issues"`
}

// Analyze returns the depth verdict for an answer. Answers under 10 trimmed
// characters score 0.0 without a model call.
func (a *DepthAnalyzer) Analyze(ctx context.Context, answer, question string, expectedTopics []string) DepthResult {
	if utf8.RuneCountInString(strings.TrimSpace(answer)) < depthMinChars {
		return DepthResult{
			Score:    0.0,
			Feedback: "The answer is too short to evaluate.",
			Issues:   []string{"too_short"},
		}
	}

	prompt := fmt.Sprintf(`Evaluate how deeply the candidate's answer engages the question.

Question: %s
Expected topics: %s
Candidate's answer: %s

Rate the depth from 0 to 10, where 0 is no engagement and 10 is a thorough
treatment of all expected topics. Reply with a JSON object:
{"score": <0-10 integer>, "feedback": "<one paragraph>", "issues": ["<missing or weak area>", ...]}`,
		question, strings.Join(expectedTopics, ", "), answer)

	reply, err := a.client.Complete(ctx, prompt, depthSystem)
	if err != nil {
		a.logger.Warn("depth analysis call failed", zap.Error(err))
		return DepthResult{
			Score:    0.5,
			Feedback: fmt.Sprintf("Could not evaluate answer depth: %v", err),
			Issues:   []string{"analysis error"},
		}
	}

	raw, ok := oracle.ExtractJSON(reply)
	if !ok {
		return depthFallback()
	}
	var parsed depthReply
	if err := json.Unmarshal(raw, &parsed); err != nil {
		a.logger.Debug("depth reply did not decode", zap.Error(err))
		return depthFallback()
	}

	return DepthResult{
		Score:    clampScore10(parsed.Score) / 10,
		Feedback: parsed.Feedback,
		Issues:   parsed.Issues,
	}
}

func depthFallback() DepthResult {
	return DepthResult{
		Score:    0.5,
		Feedback: "The answer could not be fully evaluated; assuming moderate depth.",
		Issues:   []string{"analysis error"},
	}
}
