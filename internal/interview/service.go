// Package interview wires the analyzers, session state, catalog, sandbox,
// and personas into the operations the HTTP surface exposes. One interview
// runs at a time; every operation runs to completion before the next is
// served.
package interview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/interviewd/internal/analysis"
	"github.com/fyrsmithlabs/interviewd/internal/catalog"
	"github.com/fyrsmithlabs/interviewd/internal/oracle"
	"github.com/fyrsmithlabs/interviewd/internal/persona"
	"github.com/fyrsmithlabs/interviewd/internal/sandbox"
	"github.com/fyrsmithlabs/interviewd/internal/session"
)

const (
	tasksPerInterview     = 3
	questionsPerInterview = 2
	candidateSpeaker      = "candidate"
)

// ErrNoSession is returned when an operation needs an active interview.
var ErrNoSession = fmt.Errorf("no active interview session")

// Service exposes the interview operations.
type Service struct {
	mu sync.Mutex

	oracle     oracle.Client
	store      *catalog.Store
	runner     sandbox.Runner
	sessions   *session.Manager
	classifier FeedbackClassifier
	logger     *zap.Logger

	depth         *analysis.DepthAnalyzer
	contextSwitch *analysis.ContextSwitchAnalyzer
	conflict      *analysis.ConflictAnalyzer
	agility       *analysis.AgilityAnalyzer
	clarification *analysis.ClarificationDetector
}

// NewService creates the interview service. All collaborators are required.
func NewService(client oracle.Client, store *catalog.Store, runner sandbox.Runner,
	sessions *session.Manager, logger *zap.Logger) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("oracle client is required")
	}
	if store == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("sandbox runner is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{
		oracle:        client,
		store:         store,
		runner:        runner,
		sessions:      sessions,
		classifier:    NewKeywordClassifier(),
		logger:        logger,
		depth:         analysis.NewDepthAnalyzer(client, logger),
		contextSwitch: analysis.NewContextSwitchAnalyzer(client, logger),
		conflict:      analysis.NewConflictAnalyzer(client, logger),
		agility:       analysis.NewAgilityAnalyzer(client, logger),
		clarification: analysis.NewClarificationDetector(client, logger),
	}, nil
}

// SetFeedbackClassifier swaps the reply classifier used by the chat pipeline.
func (s *Service) SetFeedbackClassifier(c FeedbackClassifier) {
	if c != nil {
		s.classifier = c
	}
}

// StartResult describes a freshly started interview.
type StartResult struct {
	SessionID     string       `json:"session_id"`
	Level         string       `json:"level"`
	Persona       persona.Role `json:"persona"`
	Greeting      string       `json:"greeting"`
	TaskCount     int          `json:"task_count"`
	QuestionCount int          `json:"question_count"`
}

// StartInterview discards any previous session and begins a new one.
func (s *Service) StartInterview(ctx context.Context, candidateName string, level catalog.Level) (*StartResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !catalog.ValidLevel(level) {
		return nil, fmt.Errorf("unknown level %q", level)
	}

	tasks, err := s.store.TasksByLevel(ctx, level, tasksPerInterview)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	questions, err := s.store.TheoryByLevel(ctx, level, questionsPerInterview)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	sess := session.New(candidateName, level)
	sess.Tasks = tasks
	sess.Questions = questions
	for _, t := range tasks {
		sess.UsedTaskIDs = append(sess.UsedTaskIDs, t.ID)
	}

	hr, _ := persona.Get(persona.HRManager)
	greeting, err := s.oracle.Complete(ctx,
		persona.GreetingPrompt(candidateName, string(level)),
		persona.GreetingSystem(hr))
	if err != nil {
		s.logger.Warn("greeting generation failed", zap.Error(err))
		greeting = fmt.Sprintf("Hello! I'm %s, %s. Welcome to your %s-level interview. Tell me a little about yourself.",
			hr.Name, hr.Title, level)
	}
	greeting = oracle.Sanitize(greeting)
	sess.AppendTurn(string(persona.HRManager), greeting)

	s.sessions.Start(sess)
	s.logger.Info("interview started",
		zap.String("session_id", sess.ID),
		zap.String("level", string(level)),
		zap.Int("tasks", len(tasks)),
		zap.Int("questions", len(questions)))

	return &StartResult{
		SessionID:     sess.ID,
		Level:         string(level),
		Persona:       sess.ActivePersona,
		Greeting:      greeting,
		TaskCount:     len(tasks),
		QuestionCount: len(questions),
	}, nil
}

// TaskView is a candidate-facing task: hidden test vectors and hint texts are
// withheld.
type TaskView struct {
	Finished    bool               `json:"finished"`
	ID          int64              `json:"id,omitempty"`
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	Examples    string             `json:"examples,omitempty"`
	StarterCode string             `json:"starter_code,omitempty"`
	Difficulty  int                `json:"difficulty,omitempty"`
	TimeLimit   int                `json:"time_limit,omitempty"`
	HintsLeft   int                `json:"hints_left"`
	Tests       []catalog.TestCase `json:"visible_tests,omitempty"`
}

// CurrentTask returns the task at the cursor, or a finished marker.
func (s *Service) CurrentTask(ctx context.Context) (*TaskView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions.Current()
	if sess == nil {
		return nil, ErrNoSession
	}
	task := sess.CurrentTask()
	if task == nil {
		return &TaskView{Finished: true}, nil
	}

	visible := make([]catalog.TestCase, 0, len(task.Tests))
	for _, tc := range task.Tests {
		if !tc.Hidden {
			visible = append(visible, tc)
		}
	}
	hintsUsed := sess.Attempts[hintKey(task.ID)]
	return &TaskView{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Examples:    task.Examples,
		StarterCode: task.StarterCode,
		Difficulty:  task.Difficulty,
		TimeLimit:   task.TimeLimit,
		HintsLeft:   max(0, len(task.Hints)-hintsUsed),
		Tests:       visible,
	}, nil
}

// QuestionView is a candidate-facing theory question; expected topics stay
// hidden.
type QuestionView struct {
	Finished   bool   `json:"finished"`
	ID         int64  `json:"id,omitempty"`
	Category   string `json:"category,omitempty"`
	Question   string `json:"question,omitempty"`
	Difficulty int    `json:"difficulty,omitempty"`
	TimeLimit  int    `json:"time_limit,omitempty"`
}

// CurrentTheory returns the question at the cursor, or a finished marker.
func (s *Service) CurrentTheory(ctx context.Context) (*QuestionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions.Current()
	if sess == nil {
		return nil, ErrNoSession
	}
	q := sess.CurrentQuestion()
	if q == nil {
		return &QuestionView{Finished: true}, nil
	}
	return &QuestionView{
		ID:         q.ID,
		Category:   q.Category,
		Question:   q.Question,
		Difficulty: q.Difficulty,
		TimeLimit:  q.TimeLimit,
	}, nil
}

// HintResult reports a consumed hint. Exhausted hints are not an error and
// carry no penalty, repeatedly.
type HintResult struct {
	Success        bool    `json:"success"`
	Hint           string  `json:"hint,omitempty"`
	Message        string  `json:"message,omitempty"`
	HintsLeft      int     `json:"hints_left"`
	PenaltyApplied bool    `json:"penalty_applied"`
	PenaltyPoints  float64 `json:"penalty_points,omitempty"`
}

// Hint consumes one penalty-bearing hint for the current task.
func (s *Service) Hint(ctx context.Context) (*HintResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions.Current()
	if sess == nil {
		return nil, ErrNoSession
	}
	task := sess.CurrentTask()
	if task == nil {
		return &HintResult{Success: false, Message: "no active coding task"}, nil
	}

	key := hintKey(task.ID)
	used := sess.Attempts[key]
	if used >= len(task.Hints) {
		return &HintResult{
			Success: true,
			Message: "no more hints available for this task",
		}, nil
	}

	hint := task.Hints[used]
	sess.Attempts[key] = used + 1
	points := analysis.PenaltyWeight(analysis.KindHintUsed, sess.Level)
	sess.AddPenalty(analysis.KindHintUsed, points,
		fmt.Sprintf("hint %d/%d for task %q", used+1, len(task.Hints), task.Title))

	return &HintResult{
		Success:        true,
		Hint:           hint,
		HintsLeft:      len(task.Hints) - used - 1,
		PenaltyApplied: true,
		PenaltyPoints:  points,
	}, nil
}

// SwitchResult describes a persona hand-off.
type SwitchResult struct {
	Success bool         `json:"success"`
	Persona persona.Role `json:"persona,omitempty"`
	Name    string       `json:"name,omitempty"`
	Intro   string       `json:"intro,omitempty"`
	Message string       `json:"message,omitempty"`
}

// SwitchPersona hands the interview to another interviewer.
func (s *Service) SwitchPersona(ctx context.Context, role persona.Role) (*SwitchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions.Current()
	if sess == nil {
		return nil, ErrNoSession
	}
	p, ok := persona.Get(role)
	if !ok {
		return &SwitchResult{Success: false, Message: fmt.Sprintf("unknown persona %q", role)}, nil
	}

	sess.ActivePersona = role
	intro, err := s.oracle.Complete(ctx,
		persona.SwitchIntroPrompt(string(sess.Level)),
		persona.SwitchIntroSystem(p))
	if err != nil {
		s.logger.Warn("persona intro generation failed", zap.Error(err))
		intro = fmt.Sprintf("Hi, I'm %s, %s. Let's continue.", p.Name, p.Title)
	}
	intro = oracle.Sanitize(intro)
	sess.AppendTurn(string(role), intro)

	return &SwitchResult{Success: true, Persona: role, Name: p.Name, Intro: intro}, nil
}

// Personas lists the interviewer descriptors.
func (s *Service) Personas() []persona.Persona {
	return persona.All()
}

// Status is a read-only snapshot of the interview.
type Status struct {
	SessionID      string       `json:"session_id"`
	CandidateName  string       `json:"candidate_name"`
	Level          string       `json:"level"`
	Phase          string       `json:"phase"`
	Persona        persona.Role `json:"persona"`
	StartedAt      time.Time    `json:"started_at"`
	Finished       bool         `json:"finished"`
	TaskCursor     int          `json:"task_cursor"`
	TaskCount      int          `json:"task_count"`
	QuestionCursor int          `json:"question_cursor"`
	QuestionCount  int          `json:"question_count"`
	PenaltyCount   int          `json:"penalty_count"`
	TotalPenalties float64      `json:"total_penalties"`
	TotalBonuses   float64      `json:"total_bonuses"`
	Turns          int          `json:"turns"`
}

// Status reports the current interview state.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions.Current()
	if sess == nil {
		return nil, ErrNoSession
	}
	return &Status{
		SessionID:      sess.ID,
		CandidateName:  sess.CandidateName,
		Level:          string(sess.Level),
		Phase:          string(sess.Phase),
		Persona:        sess.ActivePersona,
		StartedAt:      sess.StartedAt,
		Finished:       sess.Finished,
		TaskCursor:     sess.TaskCursor,
		TaskCount:      len(sess.Tasks),
		QuestionCursor: sess.QuestionCursor,
		QuestionCount:  len(sess.Questions),
		PenaltyCount:   len(sess.Penalties),
		TotalPenalties: sess.TotalPenalties(),
		TotalBonuses:   sess.TotalClarificationBonus(),
		Turns:          len(sess.History),
	}, nil
}

// AnticheatResult acknowledges an externally reported integrity incident.
type AnticheatResult struct {
	Success bool    `json:"success"`
	Points  float64 `json:"points"`
}

// ReportAnticheat records an integrity violation, penalizing it through the
// level weight table with the anti-cheat default for unknown kinds.
func (s *Service) ReportAnticheat(ctx context.Context, kind, reason string) (*AnticheatResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions.Current()
	if sess == nil {
		return nil, ErrNoSession
	}
	points := analysis.AnticheatWeight(kind, sess.Level)
	sess.AnticheatViolations = append(sess.AnticheatViolations, session.AnticheatViolation{
		Kind:      kind,
		Reason:    reason,
		Points:    points,
		Timestamp: time.Now().UTC(),
	})
	sess.AddPenalty(kind, points, reason)
	sess.AddAgentNote(sess.ActivePersona,
		fmt.Sprintf("anti-cheat violation reported: %s (%s)", kind, reason), "negative")

	s.logger.Warn("anti-cheat violation recorded",
		zap.String("kind", kind),
		zap.Float64("points", points))
	return &AnticheatResult{Success: true, Points: points}, nil
}

func hintKey(taskID int64) string {
	return fmt.Sprintf("hint_%d", taskID)
}

func attemptKey(taskID int64) string {
	return fmt.Sprintf("coding_%d", taskID)
}
