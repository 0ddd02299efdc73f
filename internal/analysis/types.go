// Package analysis implements the per-turn candidate signal analyzers: answer
// depth, context switching, code readability, conflict behavior, learning
// agility, and clarification detection. Analyzers that consult the language
// model fail open: a call or parse failure yields a neutral verdict so a turn
// is never blocked by a misbehaving model.
package analysis

import "unicode/utf8"

// Severity grades a detected violation.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
	SeverityCritical Severity = "critical"
)

// Rank orders severities for comparisons. Unknown values rank as none.
func (s Severity) Rank() int {
	switch s {
	case SeverityMinor:
		return 1
	case SeverityModerate:
		return 2
	case SeveritySevere:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// Turn is one prior chat exchange, as much of it as the analyzers need.
type Turn struct {
	Speaker string
	Content string
}

// DepthResult is the answer-depth verdict. Score is in [0,1].
type DepthResult struct {
	Score    float64  `json:"score"`
	Feedback string   `json:"feedback"`
	Issues   []string `json:"issues"`
}

// ContextSwitchResult reports whether a message deflects from the current
// topic. Penalty is already scaled by level and severity.
type ContextSwitchResult struct {
	Violation bool     `json:"violation"`
	Severity  Severity `json:"severity"`
	Penalty   float64  `json:"penalty"`
	Reasoning string   `json:"reasoning"`
}

// ReadabilityViolation is one style finding, anchored to a 1-based line.
type ReadabilityViolation struct {
	Line     int      `json:"line"`
	Kind     string   `json:"kind"`
	Severity Severity `json:"severity"`
	Detail   string   `json:"detail"`
}

// ReadabilityResult is the deterministic style verdict. Score is in [0,1];
// Penalty is capped at twice the level's base readability weight.
type ReadabilityResult struct {
	Violations []ReadabilityViolation `json:"violations"`
	Penalty    float64                `json:"penalty"`
	Score      float64                `json:"score"`
	Feedback   string                 `json:"feedback"`
}

// ConflictResult reports hostile or unprofessional behavior. A critical
// severity is terminal for the committee verdict.
type ConflictResult struct {
	Violation    bool     `json:"violation"`
	Severity     Severity `json:"severity"`
	BehaviorType string   `json:"behavior_type"`
	Penalty      float64  `json:"penalty"`
	Reasoning    string   `json:"reasoning"`
}

// AgilityResult scores how well a resubmission incorporated earlier feedback.
type AgilityResult struct {
	Score     float64  `json:"score"`
	Improved  []string `json:"improved"`
	StillWeak []string `json:"still_weak"`
	Feedback  string   `json:"feedback"`
}

// ClarificationResult classifies whether a message is a genuine clarifying
// question. Confidence measures detection certainty, not answer quality.
type ClarificationResult struct {
	IsClarification   bool    `json:"is_clarification"`
	Confidence        float64 `json:"confidence"`
	SuggestedResponse string  `json:"suggested_response"`
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampScore10(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

// truncate keeps the first n characters, never splitting a multi-byte rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
