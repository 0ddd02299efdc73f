// Package session holds the mutable state of one interview: phase, persona,
// task and question cursors, chat history, and the penalty/bonus ledger. All
// ledger fields are initialized at creation; nothing is optional.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/interviewd/internal/analysis"
	"github.com/fyrsmithlabs/interviewd/internal/catalog"
	"github.com/fyrsmithlabs/interviewd/internal/persona"
)

// Phase is the current interview stage.
type Phase string

const (
	PhaseIntro  Phase = "intro"
	PhaseTheory Phase = "theory"
	PhaseCoding Phase = "coding"
	PhaseFinal  Phase = "final"
)

// ValidPhase reports whether p is a known phase.
func ValidPhase(p Phase) bool {
	switch p {
	case PhaseIntro, PhaseTheory, PhaseCoding, PhaseFinal:
		return true
	}
	return false
}

// ChatTurn is one entry in the append-only chat history.
type ChatTurn struct {
	Speaker   string    `json:"speaker"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Penalty is one immutable ledger entry. The ledger's running sum is the
// single source of truth for total deduction.
type Penalty struct {
	Kind      string    `json:"kind"`
	Points    float64   `json:"points"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// AgentNote is an observation a persona recorded about the candidate.
type AgentNote struct {
	Persona   persona.Role `json:"persona"`
	Note      string       `json:"note"`
	Sentiment string       `json:"sentiment"`
	Timestamp time.Time    `json:"timestamp"`
}

// AnticheatViolation is an externally reported integrity incident.
type AnticheatViolation struct {
	Kind      string    `json:"kind"`
	Reason    string    `json:"reason"`
	Points    float64   `json:"points"`
	Timestamp time.Time `json:"timestamp"`
}

// ClarificationEvent records one granted clarification bonus.
type ClarificationEvent struct {
	Scope      string    `json:"scope"`
	Bonus      float64   `json:"bonus"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// Session is the state of one interview. A new interview replaces the
// session wholesale; fields are never lazily added.
type Session struct {
	ID            string
	CandidateName string
	Level         catalog.Level
	Phase         Phase
	ActivePersona persona.Role
	StartedAt     time.Time
	Finished      bool

	Tasks          []*catalog.Task
	Questions      []*catalog.TheoryQuestion
	TaskCursor     int
	QuestionCursor int
	UsedTaskIDs    []int64

	History []ChatTurn

	Penalties            []Penalty
	ClarificationBonuses map[string]float64
	clarificationCounts  map[string]int
	ClarificationHistory []ClarificationEvent

	CodingScores  map[int64]float64
	TheoryScores  map[int64]float64
	AgilityScores map[int64]float64
	DepthScores   map[int64]float64

	PreviousAnswers  map[int64]string
	FeedbackReceived map[int64]string
	Attempts         map[string]int

	AgentNotes           []AgentNote
	ConflictHistory      []analysis.ConflictResult
	ContextSwitchHistory []analysis.ContextSwitchResult
	ReadabilityHistory   []analysis.ReadabilityResult
	AnticheatViolations  []AnticheatViolation

	// Feedback response timing, one cycle at a time.
	AwaitingFeedback      bool
	FeedbackKind          string // "theory" or "code"
	FeedbackSentAt        time.Time
	TimeoutPenaltyApplied bool
	CodeOverruns          int
}

// New creates a fully initialized session.
func New(candidateName string, level catalog.Level) *Session {
	return &Session{
		ID:                   uuid.NewString(),
		CandidateName:        candidateName,
		Level:                level,
		Phase:                PhaseIntro,
		ActivePersona:        persona.HRManager,
		StartedAt:            time.Now().UTC(),
		History:              []ChatTurn{},
		Penalties:            []Penalty{},
		ClarificationBonuses: map[string]float64{},
		clarificationCounts:  map[string]int{},
		ClarificationHistory: []ClarificationEvent{},
		CodingScores:         map[int64]float64{},
		TheoryScores:         map[int64]float64{},
		AgilityScores:        map[int64]float64{},
		DepthScores:          map[int64]float64{},
		PreviousAnswers:      map[int64]string{},
		FeedbackReceived:     map[int64]string{},
		Attempts:             map[string]int{},
		AgentNotes:           []AgentNote{},
		ConflictHistory:      []analysis.ConflictResult{},
		ContextSwitchHistory: []analysis.ContextSwitchResult{},
		ReadabilityHistory:   []analysis.ReadabilityResult{},
		AnticheatViolations:  []AnticheatViolation{},
	}
}

// AddPenalty appends an immutable ledger entry.
func (s *Session) AddPenalty(kind string, points float64, reason string) {
	s.Penalties = append(s.Penalties, Penalty{
		Kind:      kind,
		Points:    points,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	})
}

// TotalPenalties sums the ledger. This is the only place the ledger is
// aggregated; category subtotals are never re-added elsewhere.
func (s *Session) TotalPenalties() float64 {
	total := 0.0
	for _, p := range s.Penalties {
		total += p.Points
	}
	return total
}

// AddAgentNote records a persona observation.
func (s *Session) AddAgentNote(role persona.Role, note, sentiment string) {
	s.AgentNotes = append(s.AgentNotes, AgentNote{
		Persona:   role,
		Note:      note,
		Sentiment: sentiment,
		Timestamp: time.Now().UTC(),
	})
}

// AppendTurn appends to the chat history.
func (s *Session) AppendTurn(speaker, content string) {
	s.History = append(s.History, ChatTurn{
		Speaker:   speaker,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
}

// GrantClarificationBonus accumulates a bonus scoped to one context item:
// 3.0 for the first qualifying clarification in the scope, 1.0 for each
// subsequent one. It returns the amount granted.
func (s *Session) GrantClarificationBonus(contextType string, contextID int64, confidence float64) float64 {
	scope := fmt.Sprintf("%s:%d", contextType, contextID)
	bonus := 1.0
	if s.clarificationCounts[scope] == 0 {
		bonus = 3.0
	}
	s.clarificationCounts[scope]++
	s.ClarificationBonuses[scope] += bonus
	s.ClarificationHistory = append(s.ClarificationHistory, ClarificationEvent{
		Scope:      scope,
		Bonus:      bonus,
		Confidence: confidence,
		Timestamp:  time.Now().UTC(),
	})
	return bonus
}

// TotalClarificationBonus sums all per-scope bonus accumulators.
func (s *Session) TotalClarificationBonus() float64 {
	total := 0.0
	for _, b := range s.ClarificationBonuses {
		total += b
	}
	return total
}

// CurrentTask returns the task at the cursor, or nil past the end.
func (s *Session) CurrentTask() *catalog.Task {
	if s.TaskCursor < 0 || s.TaskCursor >= len(s.Tasks) {
		return nil
	}
	return s.Tasks[s.TaskCursor]
}

// CurrentQuestion returns the question at the cursor, or nil past the end.
func (s *Session) CurrentQuestion() *catalog.TheoryQuestion {
	if s.QuestionCursor < 0 || s.QuestionCursor >= len(s.Questions) {
		return nil
	}
	return s.Questions[s.QuestionCursor]
}

// TaskByID looks a task up in the session's assigned list.
func (s *Session) TaskByID(id int64) *catalog.Task {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// QuestionByID looks a question up in the session's assigned list.
func (s *Session) QuestionByID(id int64) *catalog.TheoryQuestion {
	for _, q := range s.Questions {
		if q.ID == id {
			return q
		}
	}
	return nil
}

// HasCriticalConflict reports whether any conflict finding in history is
// critical. The committee treats this as a terminal reject signal.
func (s *Session) HasCriticalConflict() bool {
	for _, c := range s.ConflictHistory {
		if c.Severity == analysis.SeverityCritical {
			return true
		}
	}
	return false
}

// MeanCodingScore averages recorded coding scores; 0 when none exist.
func (s *Session) MeanCodingScore() float64 {
	return mean(s.CodingScores)
}

// MeanTheoryScore averages recorded theory scores; 0 when none exist.
func (s *Session) MeanTheoryScore() float64 {
	return mean(s.TheoryScores)
}

// MeanAgilityScore averages recorded learning-agility scores; 0 when none
// exist.
func (s *Session) MeanAgilityScore() float64 {
	return mean(s.AgilityScores)
}

func mean(scores map[int64]float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range scores {
		total += v
	}
	return total / float64(len(scores))
}
