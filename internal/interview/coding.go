package interview

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/interviewd/internal/analysis"
	"github.com/fyrsmithlabs/interviewd/internal/oracle"
	"github.com/fyrsmithlabs/interviewd/internal/persona"
	"github.com/fyrsmithlabs/interviewd/internal/session"
)

// TestOutcome is a candidate-facing view of one executed test. Hidden tests
// expose pass/fail only.
type TestOutcome struct {
	Passed   bool   `json:"passed"`
	Hidden   bool   `json:"hidden"`
	Input    string `json:"input,omitempty"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Error    string `json:"error,omitempty"`
}

// CodeResult is the outcome of one code submission.
type CodeResult struct {
	Success     bool                        `json:"success"`
	Message     string                      `json:"message,omitempty"`
	TaskID      int64                       `json:"task_id,omitempty"`
	Passed      int                         `json:"passed"`
	Total       int                         `json:"total"`
	Score       float64                     `json:"score"`
	AllPassed   bool                        `json:"all_passed"`
	Attempt     int                         `json:"attempt"`
	Feedback    string                      `json:"feedback,omitempty"`
	Readability *analysis.ReadabilityResult `json:"readability,omitempty"`
	Tests       []TestOutcome               `json:"tests,omitempty"`
	NextTask    bool                        `json:"next_task"`
}

// SubmitCode runs a submission against the task's test vectors. taskID 0
// targets the task at the cursor. The cursor advances only on a full pass;
// repeat attempts from the second onward are penalized.
func (s *Service) SubmitCode(ctx context.Context, taskID int64, code string) (*CodeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions.Current()
	if sess == nil {
		return nil, ErrNoSession
	}

	current := sess.CurrentTask()
	task := current
	if taskID != 0 {
		task = sess.TaskByID(taskID)
	}
	if task == nil {
		return &CodeResult{Success: false, Message: "no such coding task"}, nil
	}

	key := attemptKey(task.ID)
	sess.Attempts[key]++
	attempt := sess.Attempts[key]
	if attempt >= 2 {
		points := analysis.PenaltyWeight(analysis.KindMultipleAttempts, sess.Level)
		sess.AddPenalty(analysis.KindMultipleAttempts, points,
			fmt.Sprintf("attempt %d on task %q", attempt, task.Title))
	}

	readability := analysis.AnalyzeReadability(code, sess.Level)
	sess.ReadabilityHistory = append(sess.ReadabilityHistory, readability)
	if readability.Penalty > 0 {
		sess.AddPenalty(analysis.KindPoorReadability, readability.Penalty, readability.Feedback)
	}

	results, err := s.runner.Run(ctx, code, task.Tests)
	if err != nil {
		return nil, fmt.Errorf("code execution failed: %w", err)
	}

	passed := 0
	outcomes := make([]TestOutcome, len(results))
	for i, r := range results {
		if r.Passed {
			passed++
		}
		out := TestOutcome{Passed: r.Passed, Hidden: r.Hidden}
		if !r.Hidden {
			out.Input = string(r.Input)
			out.Expected = string(r.Expected)
			out.Actual = string(r.Actual)
			out.Error = r.Error
		}
		outcomes[i] = out
	}

	score := 0.0
	if len(results) > 0 {
		score = float64(passed) / float64(len(results))
	}
	sess.CodingScores[task.ID] = score

	allPassed := passed == len(results) && len(results) > 0
	nextTask := false
	if allPassed && current != nil && task.ID == current.ID {
		sess.TaskCursor++
		nextTask = sess.CurrentTask() != nil
	}

	feedback := s.codingFeedback(ctx, sess, task.Title, attempt, passed, len(results), allPassed)
	if notes := readabilityNotes(readability); notes != "" {
		feedback += "\n\n" + notes
	}
	sess.StartFeedbackCycle(session.FeedbackCode)

	s.logger.Info("code submission graded",
		zap.Int64("task_id", task.ID),
		zap.Int("attempt", attempt),
		zap.Int("passed", passed),
		zap.Int("total", len(results)),
		zap.Bool("all_passed", allPassed))

	return &CodeResult{
		Success:     true,
		TaskID:      task.ID,
		Passed:      passed,
		Total:       len(results),
		Score:       score,
		AllPassed:   allPassed,
		Attempt:     attempt,
		Feedback:    feedback,
		Readability: &readability,
		Tests:       outcomes,
		NextTask:    nextTask,
	}, nil
}

// codingFeedback asks the active persona to comment on the run. Degrades to
// a fixed message on oracle failure.
func (s *Service) codingFeedback(ctx context.Context, sess *session.Session,
	title string, attempt, passed, total int, allPassed bool) string {
	p, _ := persona.Get(sess.ActivePersona)

	var prompt string
	if allPassed {
		prompt = persona.CodingFeedbackSuccess(title, attempt)
	} else {
		prompt = persona.CodingFeedbackPartial(title, passed, total)
	}
	reply, err := s.oracle.Complete(ctx, prompt, persona.CodingFeedbackSystem(p))
	if err != nil {
		s.logger.Warn("coding feedback call failed", zap.Error(err))
		if allPassed {
			return fmt.Sprintf("All %d tests passed. Well done.", total)
		}
		return fmt.Sprintf("%d of %d tests passed. Take another look and resubmit.", passed, total)
	}
	return oracle.Sanitize(reply)
}

func readabilityNotes(res analysis.ReadabilityResult) string {
	if len(res.Violations) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Style notes:")
	limit := len(res.Violations)
	if limit > 5 {
		limit = 5
	}
	for _, v := range res.Violations[:limit] {
		fmt.Fprintf(&b, "\n- line %d: %s", v.Line, v.Detail)
	}
	if len(res.Violations) > limit {
		fmt.Fprintf(&b, "\n- and %d more", len(res.Violations)-limit)
	}
	return b.String()
}
