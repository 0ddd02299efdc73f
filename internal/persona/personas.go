// Package persona defines the three fixed interviewer personas and the
// prompt templates that speak in their voice.
package persona

import "strings"

// Role identifies one of the three interviewer personas.
type Role string

const (
	HRManager Role = "hr_manager"
	TechLead  Role = "tech_lead"
	SeniorDev Role = "senior_dev"
)

// Persona is an immutable interviewer descriptor. Configuration data, never
// mutated at runtime.
type Persona struct {
	Role        Role     `json:"role"`
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Personality string   `json:"personality"`
	FocusAreas  []string `json:"focus_areas"`
}

var personas = map[Role]Persona{
	HRManager: {
		Role:        HRManager,
		Name:        "Anna",
		Title:       "HR Manager",
		Personality: "Warm and organized. Keeps the interview on schedule, watches soft skills and communication, and puts candidates at ease without letting them drift.",
		FocusAreas:  []string{"communication", "motivation", "culture fit", "professional conduct"},
	},
	TechLead: {
		Role:        TechLead,
		Name:        "Mark",
		Title:       "Tech Lead",
		Personality: "Pragmatic and direct. Cares about whether solutions would survive production, asks pointed follow-ups, and has little patience for vague answers.",
		FocusAreas:  []string{"system design", "code quality", "engineering tradeoffs", "delivery"},
	},
	SeniorDev: {
		Role:        SeniorDev,
		Name:        "Olivia",
		Title:       "Senior Developer",
		Personality: "Curious and detail-oriented. Digs into algorithmic reasoning and edge cases, and enjoys watching how a candidate thinks out loud.",
		FocusAreas:  []string{"algorithms", "data structures", "debugging", "testing discipline"},
	},
}

// order fixes the committee iteration order.
var order = []Role{HRManager, TechLead, SeniorDev}

// Get returns the persona for a role.
func Get(role Role) (Persona, bool) {
	p, ok := personas[role]
	return p, ok
}

// All returns the three personas in committee order.
func All() []Persona {
	out := make([]Persona, 0, len(order))
	for _, r := range order {
		out = append(out, personas[r])
	}
	return out
}

// Valid reports whether the role names a known persona.
func Valid(role Role) bool {
	_, ok := personas[role]
	return ok
}

// Focus joins the persona's focus areas for prompt interpolation.
func (p Persona) Focus() string {
	return strings.Join(p.FocusAreas, ", ")
}
