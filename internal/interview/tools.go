package interview

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/interviewd/internal/analysis"
	"github.com/fyrsmithlabs/interviewd/internal/oracle"
	"github.com/fyrsmithlabs/interviewd/internal/persona"
	"github.com/fyrsmithlabs/interviewd/internal/session"
)

// Tool names exposed to the personas.
const (
	toolGetNextTask         = "get_next_task"
	toolGetTheoryQuestion   = "get_theory_question"
	toolEvaluateTheory      = "evaluate_theory_answer"
	toolAddPenalty          = "add_penalty"
	toolAddAgentNote        = "add_agent_note"
	toolSwitchAgent         = "switch_agent"
	toolChangePhase         = "change_phase"
	toolFinishInterview     = "finish_interview"
	difficultyHintMagnitude = 0.3
)

// ToolOutcome is the applied result of one persona tool call.
type ToolOutcome struct {
	Tool    string         `json:"tool"`
	Success bool           `json:"success"`
	Detail  map[string]any `json:"detail,omitempty"`
}

func toolDefinitions() []oracle.Tool {
	mk := func(name, description, params string) oracle.Tool {
		return oracle.Tool{
			Type: "function",
			Function: oracle.ToolFunction{
				Name:        name,
				Description: description,
				Parameters:  json.RawMessage(params),
			},
		}
	}
	return []oracle.Tool{
		mk(toolGetNextTask,
			"Advance to the next coding task, optionally adjusting difficulty.",
			`{"type":"object","properties":{"difficulty":{"type":"string","enum":["easier","same","harder"],"description":"Difficulty adjustment for the next task"}},"required":[]}`),
		mk(toolGetTheoryQuestion,
			"Move the interview to the current theory question.",
			`{"type":"object","properties":{},"required":[]}`),
		mk(toolEvaluateTheory,
			"Record a score for the current theory question and advance.",
			`{"type":"object","properties":{"score":{"type":"integer","minimum":0,"maximum":10},"feedback":{"type":"string"}},"required":["score"]}`),
		mk(toolAddPenalty,
			"Record a penalty against the candidate.",
			`{"type":"object","properties":{"kind":{"type":"string"},"reason":{"type":"string"}},"required":["kind","reason"]}`),
		mk(toolAddAgentNote,
			"Attach an observation about the candidate to your notes.",
			`{"type":"object","properties":{"note":{"type":"string"},"sentiment":{"type":"string","enum":["positive","neutral","negative"]}},"required":["note"]}`),
		mk(toolSwitchAgent,
			"Hand the interview to another interviewer.",
			`{"type":"object","properties":{"agent":{"type":"string","enum":["hr_manager","tech_lead","senior_dev"]}},"required":["agent"]}`),
		mk(toolChangePhase,
			"Change the interview phase.",
			`{"type":"object","properties":{"phase":{"type":"string","enum":["intro","theory","coding","final"]}},"required":["phase"]}`),
		mk(toolFinishInterview,
			"End the interview and send it to the hiring committee.",
			`{"type":"object","properties":{},"required":[]}`),
	}
}

// dispatchTool applies one tool call to session state. Each call applies
// exactly once, in the order returned; unknown names are a no-op failure.
func (s *Service) dispatchTool(ctx context.Context, sess *session.Session, call oracle.ToolCall) ToolOutcome {
	outcome := func(ok bool, detail map[string]any) ToolOutcome {
		return ToolOutcome{Tool: call.Name, Success: ok, Detail: detail}
	}

	switch call.Name {
	case toolGetNextTask:
		var args struct {
			Difficulty string `json:"difficulty"`
		}
		_ = json.Unmarshal(call.Arguments, &args)
		return s.applyNextTask(ctx, sess, args.Difficulty)

	case toolGetTheoryQuestion:
		sess.Phase = session.PhaseTheory
		q := sess.CurrentQuestion()
		if q == nil {
			return outcome(true, map[string]any{"finished": true})
		}
		return outcome(true, map[string]any{"question_id": q.ID, "question": q.Question})

	case toolEvaluateTheory:
		var args struct {
			Score    float64 `json:"score"`
			Feedback string  `json:"feedback"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return outcome(false, map[string]any{"error": "bad arguments"})
		}
		q := sess.CurrentQuestion()
		if q == nil {
			return outcome(false, map[string]any{"error": "no current question"})
		}
		if args.Score < 0 {
			args.Score = 0
		}
		if args.Score > 10 {
			args.Score = 10
		}
		sess.TheoryScores[q.ID] = args.Score / 10
		if args.Feedback != "" {
			sess.FeedbackReceived[q.ID] = args.Feedback
		}
		sess.QuestionCursor++
		return outcome(true, map[string]any{"question_id": q.ID, "score": args.Score})

	case toolAddPenalty:
		var args struct {
			Kind   string `json:"kind"`
			Reason string `json:"reason"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil || args.Kind == "" {
			return outcome(false, map[string]any{"error": "bad arguments"})
		}
		points := analysis.PenaltyWeight(args.Kind, sess.Level)
		sess.AddPenalty(args.Kind, points, args.Reason)
		return outcome(true, map[string]any{"kind": args.Kind, "points": points})

	case toolAddAgentNote:
		var args struct {
			Note      string `json:"note"`
			Sentiment string `json:"sentiment"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil || args.Note == "" {
			return outcome(false, map[string]any{"error": "bad arguments"})
		}
		if args.Sentiment == "" {
			args.Sentiment = "neutral"
		}
		sess.AddAgentNote(sess.ActivePersona, args.Note, args.Sentiment)
		return outcome(true, nil)

	case toolSwitchAgent:
		var args struct {
			Agent string `json:"agent"`
		}
		_ = json.Unmarshal(call.Arguments, &args)
		role := persona.Role(args.Agent)
		if !persona.Valid(role) {
			return outcome(false, map[string]any{"error": fmt.Sprintf("unknown persona %q", args.Agent)})
		}
		sess.ActivePersona = role
		return outcome(true, map[string]any{"persona": string(role)})

	case toolChangePhase:
		var args struct {
			Phase string `json:"phase"`
		}
		_ = json.Unmarshal(call.Arguments, &args)
		phase := session.Phase(args.Phase)
		if !session.ValidPhase(phase) {
			return outcome(false, map[string]any{"error": fmt.Sprintf("unknown phase %q", args.Phase)})
		}
		sess.Phase = phase
		return outcome(true, map[string]any{"phase": string(phase)})

	case toolFinishInterview:
		sess.Phase = session.PhaseFinal
		return outcome(true, nil)

	default:
		s.logger.Debug("persona called unknown tool", zap.String("tool", call.Name))
		return outcome(false, map[string]any{"error": "unknown tool"})
	}
}

// applyNextTask picks an adaptive follow-up task. The difficulty hint shifts
// the selection score window by 0.3 in either direction.
func (s *Service) applyNextTask(ctx context.Context, sess *session.Session, difficulty string) ToolOutcome {
	score := sess.MeanCodingScore()
	switch difficulty {
	case "easier":
		score -= difficultyHintMagnitude
	case "harder":
		score += difficultyHintMagnitude
	}
	score = clamp01(score)

	task, err := s.store.AdaptiveTask(ctx, sess.Level, score, sess.UsedTaskIDs)
	if err != nil {
		s.logger.Warn("adaptive task selection failed", zap.Error(err))
		return ToolOutcome{Tool: toolGetNextTask, Success: false,
			Detail: map[string]any{"error": "task selection failed"}}
	}
	if task == nil {
		// Level exhausted: a finished signal, not an error.
		return ToolOutcome{Tool: toolGetNextTask, Success: true,
			Detail: map[string]any{"finished": true}}
	}

	sess.Tasks = append(sess.Tasks, task)
	sess.TaskCursor = len(sess.Tasks) - 1
	sess.UsedTaskIDs = append(sess.UsedTaskIDs, task.ID)
	sess.Phase = session.PhaseCoding

	return ToolOutcome{Tool: toolGetNextTask, Success: true,
		Detail: map[string]any{"task_id": task.ID, "title": task.Title, "difficulty": task.Difficulty}}
}
