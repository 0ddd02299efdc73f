package catalog

import "encoding/json"

// Level is a candidate seniority level.
type Level string

const (
	Junior Level = "junior"
	Middle Level = "middle"
	Senior Level = "senior"
)

// ValidLevel reports whether l names a known level.
func ValidLevel(l Level) bool {
	return l == Junior || l == Middle || l == Senior
}

// TestCase is one test vector for a coding task. Input is a JSON array of
// positional arguments; Expected is the JSON-encoded expected return value.
type TestCase struct {
	Input    json.RawMessage `json:"input"`
	Expected json.RawMessage `json:"expected"`
	Hidden   bool            `json:"hidden"`
}

// Task is a coding task from the catalog. Read-only from the core's
// perspective.
type Task struct {
	ID          int64      `json:"id"`
	Level       Level      `json:"level"`
	Difficulty  int        `json:"difficulty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Examples    string     `json:"examples"`
	StarterCode string     `json:"starter_code"`
	Hints       []string   `json:"hints"`
	Tags        []string   `json:"tags"`
	TimeLimit   int        `json:"time_limit"` // minutes
	Tests       []TestCase `json:"tests"`
}

// TheoryQuestion is a theory question from the catalog.
type TheoryQuestion struct {
	ID             int64    `json:"id"`
	Level          Level    `json:"level"`
	Difficulty     int      `json:"difficulty"`
	Category       string   `json:"category"`
	Question       string   `json:"question"`
	ExpectedTopics []string `json:"expected_topics"`
	FollowUp       []string `json:"follow_up"`
	Tags           []string `json:"tags"`
	TimeLimit      int      `json:"time_limit"` // minutes
}

// ArchivedResult is the finished-interview record persisted at committee time.
type ArchivedResult struct {
	CandidateName string
	Level         Level
	TotalScore    float64
	FinalDecision string
	PersonaScores map[string]float64
	PenaltiesJSON string
}
