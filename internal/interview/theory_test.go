package interview

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/interviewd/internal/analysis"
	"github.com/fyrsmithlabs/interviewd/internal/catalog"
)

const longAnswer = "Lists are mutable while tuples are immutable, which also affects hashing and performance."

func TestSubmitTheoryGradesAndAdvances(t *testing.T) {
	client := &scriptedOracle{replies: []string{
		`{"score": 8, "feedback": "covers mutability", "issues": []}`,
		"SCORE: 7\nFEEDBACK: Good coverage of mutability.",
	}}
	svc, manager := newTestService(t, client, &fakeRunner{})
	sess := startSession(manager, catalog.Middle)

	res, err := svc.SubmitTheory(context.Background(), 0, longAnswer)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int64(201), res.QuestionID)
	assert.Equal(t, 7, res.RawScore)

	// Depth 0.8 adds the thorough-answer correction: 0.7 + 0.15.
	assert.InDelta(t, 0.85, res.FinalScore, 1e-9)
	assert.False(t, res.PenaltyApplied)
	assert.Contains(t, res.Feedback, "mutability")

	assert.Equal(t, 1, sess.QuestionCursor)
	assert.True(t, res.NextQuestion)
	assert.InDelta(t, 0.85, sess.TheoryScores[201], 1e-9)
	assert.Equal(t, longAnswer, sess.PreviousAnswers[201])
	assert.NotEmpty(t, sess.FeedbackReceived[201])
	assert.True(t, sess.AwaitingFeedback)
}

func TestSubmitTheoryShortAnswerPenalized(t *testing.T) {
	client := &scriptedOracle{replies: []string{
		"SCORE: 2\nFEEDBACK: That does not answer the question.",
	}}
	svc, manager := newTestService(t, client, &fakeRunner{})
	sess := startSession(manager, catalog.Middle)

	// Under 10 characters: depth short-circuits to 0.0 without a model call,
	// so only the grading call consumes a reply.
	res, err := svc.SubmitTheory(context.Background(), 0, "не знаю")
	require.NoError(t, err)
	require.True(t, res.Success)

	assert.Equal(t, 0.0, res.Depth.Score)
	assert.True(t, res.PenaltyApplied)
	require.Len(t, sess.Penalties, 1)
	assert.Equal(t, analysis.KindPoorCommunication, sess.Penalties[0].Kind)

	// 0.2 raw minus the superficial-answer correction.
	assert.InDelta(t, 0.0, res.FinalScore, 1e-9)
	assert.Equal(t, 1, client.completeCalls)
}

func TestSubmitTheoryDefaultsScoreOnUnparseableGrade(t *testing.T) {
	client := &scriptedOracle{replies: []string{
		`{"score": 6, "feedback": "", "issues": []}`,
		"I think this deserves a solid seven.",
	}}
	svc, manager := newTestService(t, client, &fakeRunner{})
	startSession(manager, catalog.Junior)

	res, err := svc.SubmitTheory(context.Background(), 0, longAnswer)
	require.NoError(t, err)
	assert.Equal(t, defaultTheoryScore, res.RawScore)
}

func TestSubmitTheoryAgilityOnResubmissionOnly(t *testing.T) {
	client := &scriptedOracle{replies: []string{
		// First submission: depth + grade.
		`{"score": 4, "feedback": "shallow", "issues": ["no hashing"]}`,
		"SCORE: 4\nFEEDBACK: You should mention hashing and performance.",
		// Second submission: depth + grade + agility.
		`{"score": 8, "feedback": "much better", "issues": []}`,
		"SCORE: 8\nFEEDBACK: Good, the revision covers hashing.",
		`{"score": 9, "improved": ["hashing"], "still_weak": [], "feedback": "clear improvement"}`,
	}}
	svc, manager := newTestService(t, client, &fakeRunner{})
	sess := startSession(manager, catalog.Middle)
	ctx := context.Background()

	first, err := svc.SubmitTheory(ctx, 0, longAnswer)
	require.NoError(t, err)
	assert.Nil(t, first.Agility, "no prior feedback exists on the first submission")
	assert.NotContains(t, sess.AgilityScores, int64(201))

	second, err := svc.SubmitTheory(ctx, 201, longAnswer+" Also, tuples are hashable and can be dict keys.")
	require.NoError(t, err)
	require.NotNil(t, second.Agility)
	assert.InDelta(t, 0.9, second.Agility.Score, 1e-9)
	assert.InDelta(t, 0.9, sess.AgilityScores[201], 1e-9)
	assert.Contains(t, second.Feedback, "clear improvement")

	// A resubmission must not advance the cursor a second time.
	assert.Equal(t, 1, sess.QuestionCursor)
}

func TestSubmitTheoryUnknownQuestion(t *testing.T) {
	svc, manager := newTestService(t, &scriptedOracle{}, &fakeRunner{})
	startSession(manager, catalog.Middle)

	res, err := svc.SubmitTheory(context.Background(), 999, longAnswer)
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestSubmitTheoryExhaustedQuestions(t *testing.T) {
	svc, manager := newTestService(t, &scriptedOracle{}, &fakeRunner{})
	sess := startSession(manager, catalog.Middle)
	sess.QuestionCursor = len(sess.Questions)

	res, err := svc.SubmitTheory(context.Background(), 0, longAnswer)
	require.NoError(t, err)
	assert.False(t, res.Success)
}
