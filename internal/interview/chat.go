package interview

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/interviewd/internal/analysis"
	"github.com/fyrsmithlabs/interviewd/internal/oracle"
	"github.com/fyrsmithlabs/interviewd/internal/persona"
	"github.com/fyrsmithlabs/interviewd/internal/session"
)

const (
	chatHistoryWindow       = 10
	clarificationConfidence = 0.7
)

// ChatResult is the full outcome of one chat turn.
type ChatResult struct {
	Reply              string                          `json:"reply"`
	Persona            persona.Role                    `json:"persona"`
	ToolOutcomes       []ToolOutcome                   `json:"tool_outcomes,omitempty"`
	Conflict           *analysis.ConflictResult        `json:"conflict,omitempty"`
	ContextSwitch      *analysis.ContextSwitchResult   `json:"context_switch,omitempty"`
	Clarification      *analysis.ClarificationResult   `json:"clarification,omitempty"`
	ClarificationBonus float64                         `json:"clarification_bonus,omitempty"`
	TimeoutPenalized   bool                            `json:"timeout_penalized"`
	FinishRequested    bool                            `json:"finish_requested"`
}

// Chat processes one candidate message. The stage order is fixed: later
// stages read ledger state written by earlier ones, so it must not be
// reordered.
func (s *Service) Chat(ctx context.Context, message string) (*ChatResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions.Current()
	if sess == nil {
		return nil, ErrNoSession
	}

	// 1. Overdue feedback response.
	timeoutPenalized := sess.CheckFeedbackTimeout(time.Now().UTC())

	// 2. What is currently being discussed.
	contextType, contextID, topic := resolveContext(sess)

	result := &ChatResult{Persona: sess.ActivePersona, TimeoutPenalized: timeoutPenalized}
	history := analysisWindow(sess)

	// 3. Conduct.
	conflict := s.conflict.Analyze(ctx, message, history, sess.Level)
	if conflict.Violation {
		sess.ConflictHistory = append(sess.ConflictHistory, conflict)
		sess.AddPenalty(analysis.KindConflictBehavior, conflict.Penalty, conflict.Reasoning)
		sess.AddAgentNote(sess.ActivePersona, conflict.Reasoning, "negative")
		result.Conflict = &conflict
	}

	// 4. Topic evasion.
	contextSwitch := s.contextSwitch.Analyze(ctx, message, history, topic, sess.Level)
	if contextSwitch.Violation {
		sess.ContextSwitchHistory = append(sess.ContextSwitchHistory, contextSwitch)
		sess.AddPenalty(analysis.KindContextSwitching, contextSwitch.Penalty, contextSwitch.Reasoning)
		sess.AddAgentNote(sess.ActivePersona, contextSwitch.Reasoning, "negative")
		result.ContextSwitch = &contextSwitch
	}

	// 5. Clarification bonus.
	clarification := s.clarification.Detect(ctx, message, topic)
	if clarification.IsClarification && clarification.Confidence > clarificationConfidence {
		result.ClarificationBonus = sess.GrantClarificationBonus(contextType, contextID, clarification.Confidence)
		result.Clarification = &clarification
	}

	// 6. The candidate's message becomes history.
	sess.AppendTurn(candidateSpeaker, message)

	// 7. The previous feedback cycle ends with the candidate's response.
	sess.ResetFeedbackCycle()

	// 8. Persona context. Conflict escalation outranks a clarification
	// suggestion when both fired.
	p, _ := persona.Get(sess.ActivePersona)
	contextText := s.buildChatContext(sess, topic, conflict, clarification)

	// 9-10. Persona turn plus tool dispatch.
	reply, outcomes := s.personaTurn(ctx, sess, p, contextText)
	result.ToolOutcomes = outcomes
	for _, o := range outcomes {
		if o.Tool == toolFinishInterview && o.Success {
			result.FinishRequested = true
		}
	}

	// 11. Feedback replies start a response-time deadline.
	if s.classifier.IsFeedback(reply) {
		kind := session.FeedbackTheory
		if sess.Phase == session.PhaseCoding {
			kind = session.FeedbackCode
		}
		sess.StartFeedbackCycle(kind)
	}

	// 12. The reply becomes history.
	sess.AppendTurn(string(sess.ActivePersona), reply)
	result.Reply = reply
	result.Persona = sess.ActivePersona
	return result, nil
}

// resolveContext maps the phase to a (type, id, topic) triple.
func resolveContext(sess *session.Session) (string, int64, string) {
	switch sess.Phase {
	case session.PhaseTheory:
		if q := sess.CurrentQuestion(); q != nil {
			return "theory", q.ID, q.Question
		}
	case session.PhaseCoding:
		if t := sess.CurrentTask(); t != nil {
			return "coding", t.ID, fmt.Sprintf("%s: %s", t.Title, t.Description)
		}
	}
	return "intro", 0, "introductions and the candidate's background"
}

// analysisWindow converts recent chat history for the analyzers.
func analysisWindow(sess *session.Session) []analysis.Turn {
	turns := make([]analysis.Turn, len(sess.History))
	for i, t := range sess.History {
		turns[i] = analysis.Turn{Speaker: t.Speaker, Content: t.Content}
	}
	return turns
}

func (s *Service) buildChatContext(sess *session.Session, topic string,
	conflict analysis.ConflictResult, clarification analysis.ClarificationResult) string {
	phase := string(sess.Phase)
	level := string(sess.Level)
	codingDone := len(sess.CodingScores)
	theoryDone := len(sess.TheoryScores)

	if conflict.Violation && conflict.Severity.Rank() >= analysis.SeverityModerate.Rank() {
		return persona.ChatContextWithConflict(phase, level,
			codingDone, len(sess.Tasks), theoryDone, len(sess.Questions), topic)
	}
	if clarification.IsClarification && clarification.Confidence > clarificationConfidence &&
		clarification.SuggestedResponse != "" {
		return persona.ChatContextWithSuggestion(phase, level,
			codingDone, len(sess.Tasks), theoryDone, len(sess.Questions), topic,
			clarification.SuggestedResponse)
	}
	return persona.ChatContext(phase, level,
		codingDone, len(sess.Tasks), theoryDone, len(sess.Questions), topic)
}

// personaTurn runs the tool-calling completion over the trailing history
// window and applies any returned tool calls in order.
func (s *Service) personaTurn(ctx context.Context, sess *session.Session,
	p persona.Persona, contextText string) (string, []ToolOutcome) {
	system := persona.SystemPrompt(p, string(sess.Phase), string(sess.Level)) + "\n\n" + contextText

	window := sess.History
	if len(window) > chatHistoryWindow {
		window = window[len(window)-chatHistoryWindow:]
	}
	messages := make([]oracle.Message, len(window))
	for i, t := range window {
		role := "assistant"
		if t.Speaker == candidateSpeaker {
			role = "user"
		}
		messages[i] = oracle.Message{Role: role, Content: t.Content}
	}

	reply, err := s.oracle.CompleteWithTools(ctx, system, messages, toolDefinitions())
	if err != nil {
		s.logger.Warn("persona turn failed", zap.Error(err))
		return "Could you expand on that while I sort out a technical hiccup on my side?", nil
	}

	outcomes := make([]ToolOutcome, 0, len(reply.ToolCalls))
	for _, call := range reply.ToolCalls {
		outcomes = append(outcomes, s.dispatchTool(ctx, sess, call))
	}

	text := reply.Content
	if text == "" {
		text = s.toolFollowupText(sess, outcomes)
	}
	return text, outcomes
}

// toolFollowupText covers tool-only replies so the candidate always sees
// something.
func (s *Service) toolFollowupText(sess *session.Session, outcomes []ToolOutcome) string {
	for _, o := range outcomes {
		if !o.Success {
			continue
		}
		switch o.Tool {
		case toolGetNextTask:
			if t := sess.CurrentTask(); t != nil {
				return fmt.Sprintf("Let's move on to the next task: %s.", t.Title)
			}
		case toolGetTheoryQuestion:
			if q := sess.CurrentQuestion(); q != nil {
				return q.Question
			}
		case toolFinishInterview:
			return "That wraps up the interview. We'll take it from here and come back with the committee's decision."
		}
	}
	return "Let's continue."
}
