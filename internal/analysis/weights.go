package analysis

import "github.com/fyrsmithlabs/interviewd/internal/catalog"

// Penalty kinds recorded in the session ledger.
const (
	KindContextSwitching  = "context_switching"
	KindPoorReadability   = "poor_code_readability"
	KindSlowFeedback      = "slow_feedback_response"
	KindMultipleAttempts  = "multiple_attempts"
	KindHintUsed          = "hint_used"
	KindPoorCommunication = "poor_communication"
	KindConflictBehavior  = "conflict_behavior"
)

// DefaultPenaltyWeight applies to penalty kinds missing from the table, for
// example ad-hoc kinds injected by a persona tool call.
const DefaultPenaltyWeight = 5.0

// DefaultAnticheatWeight applies to anti-cheat violation kinds missing from
// the table.
const DefaultAnticheatWeight = 10.0

// penaltyWeights holds the per-level base points for each known penalty kind.
// Seniors are held to a stricter standard throughout.
var penaltyWeights = map[string]map[catalog.Level]float64{
	KindContextSwitching: {
		catalog.Junior: 1.5,
		catalog.Middle: 2.0,
		catalog.Senior: 2.5,
	},
	KindPoorReadability: {
		catalog.Junior: 2.0,
		catalog.Middle: 3.0,
		catalog.Senior: 4.0,
	},
	KindSlowFeedback: {
		catalog.Junior: 2.0,
		catalog.Middle: 3.0,
		catalog.Senior: 4.0,
	},
	KindMultipleAttempts: {
		catalog.Junior: 1.0,
		catalog.Middle: 2.0,
		catalog.Senior: 3.0,
	},
	KindHintUsed: {
		catalog.Junior: 1.0,
		catalog.Middle: 2.0,
		catalog.Senior: 3.0,
	},
	KindPoorCommunication: {
		catalog.Junior: 2.0,
		catalog.Middle: 3.0,
		catalog.Senior: 4.0,
	},
}

// PenaltyWeight returns the base points for a penalty kind at a level,
// falling back to DefaultPenaltyWeight for unknown kinds.
func PenaltyWeight(kind string, level catalog.Level) float64 {
	if levels, ok := penaltyWeights[kind]; ok {
		if w, ok := levels[level]; ok {
			return w
		}
	}
	return DefaultPenaltyWeight
}

// AnticheatWeight is like PenaltyWeight but with the anti-cheat default.
func AnticheatWeight(kind string, level catalog.Level) float64 {
	if levels, ok := penaltyWeights[kind]; ok {
		if w, ok := levels[level]; ok {
			return w
		}
	}
	return DefaultAnticheatWeight
}

// contextSwitchMultipliers scale the context-switching base weight by
// severity.
var contextSwitchMultipliers = map[Severity]float64{
	SeverityNone:     0,
	SeverityMinor:    0.5,
	SeverityModerate: 1.0,
	SeveritySevere:   1.5,
}

// conflictBasePoints are fixed per-severity amounts for conflict behavior.
var conflictBasePoints = map[Severity]float64{
	SeverityMinor:    3,
	SeverityModerate: 7,
	SeveritySevere:   15,
	SeverityCritical: 25,
}

// conflictLevelMultipliers scale conflict penalties by level.
var conflictLevelMultipliers = map[catalog.Level]float64{
	catalog.Junior: 0.8,
	catalog.Middle: 1.0,
	catalog.Senior: 1.3,
}

// readabilityPoints maps a violation severity to points at a level.
var readabilityPoints = map[Severity]map[catalog.Level]float64{
	SeverityMinor: {
		catalog.Junior: 0.2,
		catalog.Middle: 0.5,
		catalog.Senior: 1.0,
	},
	SeverityModerate: {
		catalog.Junior: 0.5,
		catalog.Middle: 1.0,
		catalog.Senior: 2.0,
	},
	SeveritySevere: {
		catalog.Junior: 1.0,
		catalog.Middle: 2.0,
		catalog.Senior: 3.0,
	},
}
