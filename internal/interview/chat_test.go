package interview

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/interviewd/internal/analysis"
	"github.com/fyrsmithlabs/interviewd/internal/catalog"
	"github.com/fyrsmithlabs/interviewd/internal/oracle"
	"github.com/fyrsmithlabs/interviewd/internal/persona"
	"github.com/fyrsmithlabs/interviewd/internal/session"
)

const (
	noConflictJSON      = `{"violation": false, "severity": "none", "reasoning": ""}`
	noSwitchJSON        = `{"violation": false, "severity": "none", "reasoning": ""}`
	noClarificationJSON = `{"is_clarification": false, "confidence": 0.1}`
)

func TestChatPlainTurn(t *testing.T) {
	client := &scriptedOracle{
		replies:     []string{noConflictJSON, noSwitchJSON, noClarificationJSON},
		toolReplies: []*oracle.ToolReply{{Content: "Tell me more about that project."}},
	}
	svc, manager := newTestService(t, client, &fakeRunner{})
	sess := startSession(manager, catalog.Middle)

	res, err := svc.Chat(context.Background(), "I built a payment service in my last role.")
	require.NoError(t, err)
	assert.Equal(t, "Tell me more about that project.", res.Reply)
	assert.Nil(t, res.Conflict)
	assert.Nil(t, res.ContextSwitch)
	assert.Zero(t, res.ClarificationBonus)

	// Candidate message then persona reply.
	require.Len(t, sess.History, 2)
	assert.Equal(t, candidateSpeaker, sess.History[0].Speaker)
	assert.Equal(t, string(persona.HRManager), sess.History[1].Speaker)
}

func TestChatShortMessageSkipsConductAnalyzers(t *testing.T) {
	client := &scriptedOracle{
		// Only the clarification detector runs for a short message.
		replies:     []string{noClarificationJSON},
		toolReplies: []*oracle.ToolReply{{Content: "Alright."}},
	}
	svc, manager := newTestService(t, client, &fakeRunner{})
	sess := startSession(manager, catalog.Middle)

	res, err := svc.Chat(context.Background(), "ok")
	require.NoError(t, err)
	assert.Nil(t, res.Conflict)
	assert.Nil(t, res.ContextSwitch)
	assert.Empty(t, sess.Penalties)
	assert.Equal(t, 1, client.completeCalls)
}

func TestChatConflictPenaltyAndNote(t *testing.T) {
	client := &scriptedOracle{
		replies: []string{
			`{"violation": true, "severity": "moderate", "behavior_type": "dismissive", "reasoning": "belittles the interviewer"}`,
			noSwitchJSON,
			noClarificationJSON,
		},
		toolReplies: []*oracle.ToolReply{{Content: "Let's keep this professional."}},
	}
	svc, manager := newTestService(t, client, &fakeRunner{})
	sess := startSession(manager, catalog.Middle)

	res, err := svc.Chat(context.Background(), "this question is beneath me, ask something real")
	require.NoError(t, err)
	require.NotNil(t, res.Conflict)
	assert.Equal(t, analysis.SeverityModerate, res.Conflict.Severity)

	require.Len(t, sess.ConflictHistory, 1)
	kinds := penaltiesOfKind(sess, analysis.KindConflictBehavior)
	require.Len(t, kinds, 1)
	assert.InDelta(t, 7.0, kinds[0].Points, 1e-9)
	require.Len(t, sess.AgentNotes, 1)
	assert.Equal(t, "negative", sess.AgentNotes[0].Sentiment)
}

func TestChatClarificationBonusScoping(t *testing.T) {
	clarifies := `{"is_clarification": true, "confidence": 0.9, "suggested_response": "clarify the expected output"}`
	client := &scriptedOracle{
		replies: []string{
			noConflictJSON, noSwitchJSON, clarifies,
			noConflictJSON, noSwitchJSON, clarifies,
		},
		toolReplies: []*oracle.ToolReply{
			{Content: "Good question, here is what I mean."},
			{Content: "Another good question."},
		},
	}
	svc, manager := newTestService(t, client, &fakeRunner{})
	sess := startSession(manager, catalog.Middle)
	sess.Phase = session.PhaseCoding
	ctx := context.Background()

	first, err := svc.Chat(ctx, "should the function handle empty input?")
	require.NoError(t, err)
	assert.Equal(t, 3.0, first.ClarificationBonus)

	second, err := svc.Chat(ctx, "and what about unicode strings?")
	require.NoError(t, err)
	assert.Equal(t, 1.0, second.ClarificationBonus)

	assert.InDelta(t, 4.0, sess.TotalClarificationBonus(), 1e-9)
	assert.Len(t, sess.ClarificationHistory, 2)
}

func TestChatLowConfidenceClarificationNoBonus(t *testing.T) {
	client := &scriptedOracle{
		replies: []string{
			noConflictJSON, noSwitchJSON,
			`{"is_clarification": true, "confidence": 0.6}`,
		},
	}
	svc, manager := newTestService(t, client, &fakeRunner{})
	sess := startSession(manager, catalog.Middle)

	res, err := svc.Chat(context.Background(), "could you repeat the question?")
	require.NoError(t, err)
	assert.Zero(t, res.ClarificationBonus)
	assert.Zero(t, sess.TotalClarificationBonus())
}

func TestChatFeedbackReplyStartsDeadline(t *testing.T) {
	client := &scriptedOracle{
		replies:     []string{noConflictJSON, noSwitchJSON, noClarificationJSON},
		toolReplies: []*oracle.ToolReply{{Content: "There is a problem with that approach, you should fix the loop."}},
	}
	svc, manager := newTestService(t, client, &fakeRunner{})
	sess := startSession(manager, catalog.Middle)
	sess.Phase = session.PhaseTheory

	_, err := svc.Chat(context.Background(), "I would iterate the list twice.")
	require.NoError(t, err)
	assert.True(t, sess.AwaitingFeedback)
	assert.Equal(t, session.FeedbackTheory, sess.FeedbackKind)
}

func TestChatAppliesOverdueTimeoutPenalty(t *testing.T) {
	client := &scriptedOracle{
		replies:     []string{noConflictJSON, noSwitchJSON, noClarificationJSON},
		toolReplies: []*oracle.ToolReply{{Content: "Noted."}},
	}
	svc, manager := newTestService(t, client, &fakeRunner{})
	sess := startSession(manager, catalog.Junior)
	sess.StartFeedbackCycle(session.FeedbackTheory)
	sess.FeedbackSentAt = time.Now().UTC().Add(-10 * time.Minute)

	res, err := svc.Chat(context.Background(), "sorry, I was thinking about it for a while")
	require.NoError(t, err)
	assert.True(t, res.TimeoutPenalized)
	require.Len(t, penaltiesOfKind(sess, analysis.KindSlowFeedback), 1)

	// The cycle resets with the candidate's response; no second penalty.
	res, err = svc.Chat(context.Background(), "here is my actual answer to the question")
	require.NoError(t, err)
	assert.False(t, res.TimeoutPenalized)
	assert.Len(t, penaltiesOfKind(sess, analysis.KindSlowFeedback), 1)
}

func TestChatToolDispatchInOrder(t *testing.T) {
	client := &scriptedOracle{
		replies: []string{noConflictJSON, noSwitchJSON, noClarificationJSON},
		toolReplies: []*oracle.ToolReply{{
			Content: "Let's score that and move on.",
			ToolCalls: []oracle.ToolCall{
				{Name: toolEvaluateTheory, Arguments: json.RawMessage(`{"score": 8, "feedback": "solid"}`)},
				{Name: toolChangePhase, Arguments: json.RawMessage(`{"phase": "coding"}`)},
				{Name: "made_up_tool", Arguments: json.RawMessage(`{}`)},
			},
		}},
	}
	svc, manager := newTestService(t, client, &fakeRunner{})
	sess := startSession(manager, catalog.Middle)
	sess.Phase = session.PhaseTheory

	res, err := svc.Chat(context.Background(), "lists are mutable, tuples are not")
	require.NoError(t, err)
	require.Len(t, res.ToolOutcomes, 3)

	assert.True(t, res.ToolOutcomes[0].Success)
	assert.InDelta(t, 0.8, sess.TheoryScores[201], 1e-9)
	assert.Equal(t, 1, sess.QuestionCursor)

	assert.True(t, res.ToolOutcomes[1].Success)
	assert.Equal(t, session.PhaseCoding, sess.Phase)

	// Unknown tools are a no-op failure, not an error.
	assert.False(t, res.ToolOutcomes[2].Success)
}

func TestChatGetNextTaskAdaptive(t *testing.T) {
	client := &scriptedOracle{
		replies: []string{noConflictJSON, noSwitchJSON, noClarificationJSON},
		toolReplies: []*oracle.ToolReply{{
			ToolCalls: []oracle.ToolCall{
				{Name: toolGetNextTask, Arguments: json.RawMessage(`{"difficulty": "harder"}`)},
			},
		}},
	}
	svc, manager := newTestService(t, client, &fakeRunner{})
	sess := startSession(manager, catalog.Junior)
	// The session's preset task ids do not exist in the seeded store, so any
	// seeded junior task is a valid adaptive pick.
	sess.CodingScores[101] = 1.0

	res, err := svc.Chat(context.Background(), "ready for the next challenge")
	require.NoError(t, err)
	require.Len(t, res.ToolOutcomes, 1)
	require.True(t, res.ToolOutcomes[0].Success)

	assert.Equal(t, session.PhaseCoding, sess.Phase)
	assert.Len(t, sess.Tasks, 3)
	assert.Equal(t, 2, sess.TaskCursor)
	assert.Len(t, sess.UsedTaskIDs, 3)
	// Tool-only reply falls back to announcing the new task.
	assert.Contains(t, res.Reply, sess.CurrentTask().Title)
}

func TestChatFinishInterviewTool(t *testing.T) {
	client := &scriptedOracle{
		replies: []string{noConflictJSON, noSwitchJSON, noClarificationJSON},
		toolReplies: []*oracle.ToolReply{{
			ToolCalls: []oracle.ToolCall{{Name: toolFinishInterview, Arguments: json.RawMessage(`{}`)}},
		}},
	}
	svc, manager := newTestService(t, client, &fakeRunner{})
	sess := startSession(manager, catalog.Middle)

	res, err := svc.Chat(context.Background(), "I think we have covered everything")
	require.NoError(t, err)
	assert.True(t, res.FinishRequested)
	assert.Equal(t, session.PhaseFinal, sess.Phase)
}

func TestChatOracleFailureFailsOpen(t *testing.T) {
	client := &scriptedOracle{
		replies: []string{noConflictJSON, noSwitchJSON, noClarificationJSON},
		toolErr: context.DeadlineExceeded,
	}
	svc, manager := newTestService(t, client, &fakeRunner{})
	sess := startSession(manager, catalog.Middle)

	res, err := svc.Chat(context.Background(), "tell me about the team structure")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Reply)
	assert.Empty(t, res.ToolOutcomes)
	// Both messages still land in history.
	assert.Len(t, sess.History, 2)
}
