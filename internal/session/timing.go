package session

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/interviewd/internal/analysis"
	"github.com/fyrsmithlabs/interviewd/internal/catalog"
)

// Feedback kinds tracked by the response-time cycle.
const (
	FeedbackTheory = "theory"
	FeedbackCode   = "code"
)

// theoryResponseLimits bound how long a candidate may take to respond to
// theory feedback before a penalty fires.
var theoryResponseLimits = map[catalog.Level]time.Duration{
	catalog.Junior: 3 * time.Minute,
	catalog.Middle: 2 * time.Minute,
	catalog.Senior: 90 * time.Second,
}

// codeResponseLimits are tracked for reporting but never penalized.
var codeResponseLimits = map[catalog.Level]time.Duration{
	catalog.Junior: 15 * time.Minute,
	catalog.Middle: 10 * time.Minute,
	catalog.Senior: 8 * time.Minute,
}

// StartFeedbackCycle begins a response-time deadline after a persona reply
// was classified as feedback.
func (s *Session) StartFeedbackCycle(kind string) {
	s.AwaitingFeedback = true
	s.FeedbackKind = kind
	s.FeedbackSentAt = time.Now().UTC()
	s.TimeoutPenaltyApplied = false
}

// ResetFeedbackCycle clears the deadline; the next persona reply may start a
// new one.
func (s *Session) ResetFeedbackCycle() {
	s.AwaitingFeedback = false
	s.FeedbackKind = ""
	s.TimeoutPenaltyApplied = false
}

// CheckFeedbackTimeout applies at most one timeout penalty per feedback
// cycle. Theory overruns append a ledger entry; code overruns are counted
// but never penalized. Returns true when a penalty was appended.
func (s *Session) CheckFeedbackTimeout(now time.Time) bool {
	if !s.AwaitingFeedback || s.TimeoutPenaltyApplied {
		return false
	}

	var limit time.Duration
	switch s.FeedbackKind {
	case FeedbackTheory:
		limit = theoryResponseLimits[s.Level]
	case FeedbackCode:
		limit = codeResponseLimits[s.Level]
	default:
		return false
	}
	if now.Sub(s.FeedbackSentAt) <= limit {
		return false
	}

	s.TimeoutPenaltyApplied = true
	if s.FeedbackKind == FeedbackCode {
		s.CodeOverruns++
		return false
	}

	points := analysis.PenaltyWeight(analysis.KindSlowFeedback, s.Level)
	s.AddPenalty(analysis.KindSlowFeedback, points,
		fmt.Sprintf("took longer than %s to respond to feedback", limit))
	return true
}
