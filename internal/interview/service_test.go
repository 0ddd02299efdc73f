package interview

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/interviewd/internal/analysis"
	"github.com/fyrsmithlabs/interviewd/internal/catalog"
	"github.com/fyrsmithlabs/interviewd/internal/oracle"
	"github.com/fyrsmithlabs/interviewd/internal/persona"
	"github.com/fyrsmithlabs/interviewd/internal/sandbox"
	"github.com/fyrsmithlabs/interviewd/internal/session"
)

// scriptedOracle pops canned replies in call order. An empty queue yields a
// bland non-JSON reply, which every analyzer treats as its neutral fallback.
type scriptedOracle struct {
	mu            sync.Mutex
	replies       []string
	completeErr   error
	toolReplies   []*oracle.ToolReply
	toolErr       error
	completeCalls int
	toolCalls     int
}

func (o *scriptedOracle) Complete(ctx context.Context, prompt, system string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completeCalls++
	if o.completeErr != nil {
		return "", o.completeErr
	}
	if len(o.replies) == 0 {
		return "Understood.", nil
	}
	reply := o.replies[0]
	o.replies = o.replies[1:]
	return reply, nil
}

func (o *scriptedOracle) CompleteWithTools(ctx context.Context, system string, messages []oracle.Message, tools []oracle.Tool) (*oracle.ToolReply, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.toolCalls++
	if o.toolErr != nil {
		return nil, o.toolErr
	}
	if len(o.toolReplies) == 0 {
		return &oracle.ToolReply{Content: "Let's continue."}, nil
	}
	reply := o.toolReplies[0]
	o.toolReplies = o.toolReplies[1:]
	return reply, nil
}

type fakeRunner struct {
	results []sandbox.TestResult
	err     error
}

func (f *fakeRunner) Run(ctx context.Context, code string, tests []catalog.TestCase) ([]sandbox.TestResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.results != nil {
		return f.results, nil
	}
	out := make([]sandbox.TestResult, len(tests))
	for i, tc := range tests {
		out[i] = sandbox.TestResult{Input: tc.Input, Expected: tc.Expected, Passed: true, Hidden: tc.Hidden}
	}
	return out, nil
}

func newTestService(t *testing.T, client oracle.Client, runner sandbox.Runner) (*Service, *session.Manager) {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Seed(context.Background()))

	manager := session.NewManager()
	svc, err := NewService(client, store, runner, manager, zap.NewNop())
	require.NoError(t, err)
	return svc, manager
}

// startSession installs a session directly, bypassing the greeting call.
func startSession(manager *session.Manager, level catalog.Level) *session.Session {
	sess := session.New("Jordan", level)
	sess.Tasks = []*catalog.Task{
		{
			ID: 101, Level: level, Difficulty: 2, Title: "Reverse a String",
			Hints: []string{"try slicing", "loop backwards"},
			Tests: []catalog.TestCase{
				{Input: json.RawMessage(`["ab"]`), Expected: json.RawMessage(`"ba"`)},
				{Input: json.RawMessage(`["x"]`), Expected: json.RawMessage(`"x"`), Hidden: true},
			},
		},
		{ID: 102, Level: level, Difficulty: 3, Title: "Count Vowels"},
	}
	sess.Questions = []*catalog.TheoryQuestion{
		{ID: 201, Level: level, Question: "What is the difference between a list and a tuple?",
			ExpectedTopics: []string{"mutability"}},
		{ID: 202, Level: level, Question: "Explain the GIL."},
	}
	sess.UsedTaskIDs = []int64{101, 102}
	manager.Start(sess)
	return sess
}

func TestStartInterview(t *testing.T) {
	client := &scriptedOracle{replies: []string{"Welcome! I'm Anna. Tell me about yourself."}}
	svc, manager := newTestService(t, client, &fakeRunner{})

	res, err := svc.StartInterview(context.Background(), "Jordan", catalog.Junior)
	require.NoError(t, err)
	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, 3, res.TaskCount)
	assert.Equal(t, 2, res.QuestionCount)
	assert.Contains(t, res.Greeting, "Anna")

	sess := manager.Current()
	require.NotNil(t, sess)
	assert.Equal(t, session.PhaseIntro, sess.Phase)
	assert.Len(t, sess.History, 1)
	assert.Len(t, sess.UsedTaskIDs, 3)
}

func TestStartInterviewRejectsUnknownLevel(t *testing.T) {
	svc, _ := newTestService(t, &scriptedOracle{}, &fakeRunner{})
	_, err := svc.StartInterview(context.Background(), "Jordan", catalog.Level("principal"))
	assert.Error(t, err)
}

func TestStartInterviewReplacesSession(t *testing.T) {
	svc, manager := newTestService(t, &scriptedOracle{}, &fakeRunner{})

	_, err := svc.StartInterview(context.Background(), "first", catalog.Junior)
	require.NoError(t, err)
	manager.Current().AddPenalty("x", 5, "leftover")

	_, err = svc.StartInterview(context.Background(), "second", catalog.Senior)
	require.NoError(t, err)
	assert.Equal(t, "second", manager.Current().CandidateName)
	assert.Empty(t, manager.Current().Penalties)
}

func TestOperationsRequireSession(t *testing.T) {
	svc, _ := newTestService(t, &scriptedOracle{}, &fakeRunner{})
	ctx := context.Background()

	_, err := svc.CurrentTask(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = svc.Chat(ctx, "hello")
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = svc.Finish(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = svc.ReportAnticheat(ctx, "tab_switch", "left the window")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCurrentTaskHidesHiddenVectors(t *testing.T) {
	svc, manager := newTestService(t, &scriptedOracle{}, &fakeRunner{})
	startSession(manager, catalog.Junior)

	view, err := svc.CurrentTask(context.Background())
	require.NoError(t, err)
	assert.False(t, view.Finished)
	assert.Equal(t, int64(101), view.ID)
	assert.Len(t, view.Tests, 1, "hidden vectors must be withheld")
	assert.Equal(t, 2, view.HintsLeft)
}

func TestCurrentTaskFinishedMarker(t *testing.T) {
	svc, manager := newTestService(t, &scriptedOracle{}, &fakeRunner{})
	sess := startSession(manager, catalog.Junior)
	sess.TaskCursor = len(sess.Tasks)

	view, err := svc.CurrentTask(context.Background())
	require.NoError(t, err)
	assert.True(t, view.Finished)
}

func TestHintConsumptionAndExhaustionIdempotence(t *testing.T) {
	svc, manager := newTestService(t, &scriptedOracle{}, &fakeRunner{})
	sess := startSession(manager, catalog.Middle)
	ctx := context.Background()

	first, err := svc.Hint(ctx)
	require.NoError(t, err)
	assert.True(t, first.PenaltyApplied)
	assert.Equal(t, "try slicing", first.Hint)
	assert.Equal(t, 1, first.HintsLeft)

	second, err := svc.Hint(ctx)
	require.NoError(t, err)
	assert.True(t, second.PenaltyApplied)
	assert.Equal(t, "loop backwards", second.Hint)

	require.Len(t, sess.Penalties, 2)
	penaltiesBefore := sess.TotalPenalties()

	// Exhausted hints never penalize, repeatedly.
	for i := 0; i < 3; i++ {
		res, err := svc.Hint(ctx)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.False(t, res.PenaltyApplied)
		assert.Empty(t, res.Hint)
	}
	assert.Equal(t, penaltiesBefore, sess.TotalPenalties())
	assert.Len(t, sess.Penalties, 2)
}

func TestSwitchPersona(t *testing.T) {
	client := &scriptedOracle{replies: []string{"Hi, Mark here. Let's dig into your code."}}
	svc, manager := newTestService(t, client, &fakeRunner{})
	sess := startSession(manager, catalog.Middle)

	res, err := svc.SwitchPersona(context.Background(), "tech_lead")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Mark", res.Name)
	assert.Equal(t, persona.TechLead, sess.ActivePersona)

	bad, err := svc.SwitchPersona(context.Background(), "intern")
	require.NoError(t, err)
	assert.False(t, bad.Success)
}

func TestReportAnticheat(t *testing.T) {
	svc, manager := newTestService(t, &scriptedOracle{}, &fakeRunner{})
	sess := startSession(manager, catalog.Senior)

	res, err := svc.ReportAnticheat(context.Background(), "screen_capture", "recording detected")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, analysis.DefaultAnticheatWeight, res.Points)

	require.Len(t, sess.Penalties, 1)
	assert.Equal(t, "screen_capture", sess.Penalties[0].Kind)
	require.Len(t, sess.AnticheatViolations, 1)
	require.Len(t, sess.AgentNotes, 1)
	assert.Equal(t, "negative", sess.AgentNotes[0].Sentiment)
}

func TestStatusSnapshot(t *testing.T) {
	svc, manager := newTestService(t, &scriptedOracle{}, &fakeRunner{})
	sess := startSession(manager, catalog.Middle)
	sess.AddPenalty("hint_used", 2, "hint")
	sess.GrantClarificationBonus("coding", 101, 0.9)

	status, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sess.ID, status.SessionID)
	assert.Equal(t, "middle", status.Level)
	assert.Equal(t, 1, status.PenaltyCount)
	assert.Equal(t, 2.0, status.TotalPenalties)
	assert.Equal(t, 3.0, status.TotalBonuses)
	assert.Equal(t, 2, status.TaskCount)
}

func TestPersonasListing(t *testing.T) {
	svc, _ := newTestService(t, &scriptedOracle{}, &fakeRunner{})
	all := svc.Personas()
	require.Len(t, all, 3)
	assert.Equal(t, persona.HRManager, all[0].Role)
}
