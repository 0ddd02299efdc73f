package interview

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/interviewd/internal/analysis"
	"github.com/fyrsmithlabs/interviewd/internal/catalog"
	"github.com/fyrsmithlabs/interviewd/internal/sandbox"
	"github.com/fyrsmithlabs/interviewd/internal/session"
)

const cleanCode = "def solution(s):\n    \"\"\"Reverse the string.\"\"\"\n    return s[::-1]"

func TestSubmitCodeFullPassAdvances(t *testing.T) {
	client := &scriptedOracle{replies: []string{"Nice work, all tests pass."}}
	svc, manager := newTestService(t, client, &fakeRunner{})
	sess := startSession(manager, catalog.Junior)

	res, err := svc.SubmitCode(context.Background(), 0, cleanCode)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.AllPassed)
	assert.Equal(t, 1.0, res.Score)
	assert.Equal(t, 1, res.Attempt)
	assert.True(t, res.NextTask)

	assert.Equal(t, 1, sess.TaskCursor)
	assert.Equal(t, 1.0, sess.CodingScores[101])
	assert.Empty(t, sess.Penalties, "a clean first pass carries no penalties")
	assert.True(t, sess.AwaitingFeedback)
	assert.Equal(t, session.FeedbackCode, sess.FeedbackKind)
}

func TestSubmitCodePartialPassKeepsCursor(t *testing.T) {
	results := []sandbox.TestResult{
		{Passed: true},
		{Passed: false, Error: "IndexError: string index out of range", Hidden: true},
	}
	client := &scriptedOracle{replies: []string{"One test still fails, take another look."}}
	svc, manager := newTestService(t, client, &fakeRunner{results: results})
	sess := startSession(manager, catalog.Junior)

	res, err := svc.SubmitCode(context.Background(), 0, cleanCode)
	require.NoError(t, err)
	assert.False(t, res.AllPassed)
	assert.Equal(t, 0.5, res.Score)
	assert.False(t, res.NextTask)
	assert.Equal(t, 0, sess.TaskCursor)

	// Hidden test detail is withheld from the candidate view.
	require.Len(t, res.Tests, 2)
	assert.True(t, res.Tests[1].Hidden)
	assert.Empty(t, res.Tests[1].Error)
}

func TestSubmitCodeRepeatAttemptsPenalized(t *testing.T) {
	results := []sandbox.TestResult{{Passed: false}}
	svc, manager := newTestService(t, &scriptedOracle{}, &fakeRunner{results: results})
	sess := startSession(manager, catalog.Middle)
	ctx := context.Background()

	_, err := svc.SubmitCode(ctx, 0, cleanCode)
	require.NoError(t, err)
	assert.Empty(t, penaltiesOfKind(sess, analysis.KindMultipleAttempts))

	_, err = svc.SubmitCode(ctx, 0, cleanCode)
	require.NoError(t, err)
	assert.Len(t, penaltiesOfKind(sess, analysis.KindMultipleAttempts), 1)

	_, err = svc.SubmitCode(ctx, 0, cleanCode)
	require.NoError(t, err)
	assert.Len(t, penaltiesOfKind(sess, analysis.KindMultipleAttempts), 2)
	assert.Equal(t, 3, sess.Attempts["coding_101"])
}

func TestSubmitCodeReadabilityPenaltyRecorded(t *testing.T) {
	messy := "def solution(s):\n\treturn s[::-1] \n"
	svc, manager := newTestService(t, &scriptedOracle{}, &fakeRunner{})
	sess := startSession(manager, catalog.Senior)

	res, err := svc.SubmitCode(context.Background(), 0, messy)
	require.NoError(t, err)
	require.NotNil(t, res.Readability)
	assert.Positive(t, res.Readability.Penalty)
	assert.NotEmpty(t, penaltiesOfKind(sess, analysis.KindPoorReadability))
	assert.Len(t, sess.ReadabilityHistory, 1)
	assert.Contains(t, res.Feedback, "Style notes:")
}

func TestSubmitCodeUnknownTask(t *testing.T) {
	svc, manager := newTestService(t, &scriptedOracle{}, &fakeRunner{})
	startSession(manager, catalog.Junior)

	res, err := svc.SubmitCode(context.Background(), 999, cleanCode)
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestSubmitCodeSandboxFailurePropagates(t *testing.T) {
	svc, manager := newTestService(t, &scriptedOracle{}, &fakeRunner{err: errors.New("execution service down")})
	startSession(manager, catalog.Junior)

	_, err := svc.SubmitCode(context.Background(), 0, cleanCode)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execution service down")
}

func TestSubmitCodeFeedbackDegradesOnOracleError(t *testing.T) {
	client := &scriptedOracle{completeErr: errors.New("oracle down")}
	svc, manager := newTestService(t, client, &fakeRunner{})
	startSession(manager, catalog.Junior)

	res, err := svc.SubmitCode(context.Background(), 0, cleanCode)
	require.NoError(t, err)
	assert.True(t, res.AllPassed)
	assert.Contains(t, res.Feedback, "tests passed")
}

func penaltiesOfKind(sess *session.Session, kind string) []session.Penalty {
	var out []session.Penalty
	for _, p := range sess.Penalties {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}
