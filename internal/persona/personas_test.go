package persona

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_ReturnsThreeInOrder(t *testing.T) {
	all := All()
	require.Len(t, all, 3)
	assert.Equal(t, HRManager, all[0].Role)
	assert.Equal(t, TechLead, all[1].Role)
	assert.Equal(t, SeniorDev, all[2].Role)
}

func TestGet_KnownAndUnknown(t *testing.T) {
	p, ok := Get(TechLead)
	require.True(t, ok)
	assert.Equal(t, "Tech Lead", p.Title)

	_, ok = Get(Role("intern"))
	assert.False(t, ok)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(HRManager))
	assert.False(t, Valid(Role("")))
}

func TestSystemPrompt_IncludesPersonaAndPhase(t *testing.T) {
	p, _ := Get(SeniorDev)
	prompt := SystemPrompt(p, "coding", "senior")
	assert.Contains(t, prompt, p.Name)
	assert.Contains(t, prompt, "coding")
	assert.Contains(t, prompt, "senior")
	assert.Contains(t, prompt, p.Focus())
}

func TestMeetingPrompt_DemandsVerdictToken(t *testing.T) {
	p, _ := Get(HRManager)
	prompt := MeetingPrompt("context here", p)
	for _, token := range []string{"STRONG_HIRE", "HIRE", "MAYBE", "NO_HIRE"} {
		assert.True(t, strings.Contains(prompt, token), "missing %s", token)
	}
}
