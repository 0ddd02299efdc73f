package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/interviewd/internal/catalog"
	"github.com/fyrsmithlabs/interviewd/internal/oracle"
	"github.com/fyrsmithlabs/interviewd/internal/persona"
	"github.com/fyrsmithlabs/interviewd/internal/session"
)

// Committee opinion categories and the fixed score each maps to.
const (
	OpinionStrongHire = "strong_hire"
	OpinionHire       = "hire"
	OpinionMaybe      = "maybe"
	OpinionNoHire     = "no_hire"
)

var opinionScores = map[string]float64{
	OpinionStrongHire: 95,
	OpinionNoHire:     30,
	OpinionMaybe:      60,
	OpinionHire:       80,
}

const (
	baseCodingWeight   = 0.5
	baseTheoryWeight   = 0.3
	participationFloor = 0.2
	agilityBonusFloor  = 0.7
	agilityBonusCap    = 10.0
)

// PersonaOpinion is one committee member's independent verdict.
type PersonaOpinion struct {
	Persona persona.Role `json:"persona"`
	Name    string       `json:"name"`
	Opinion string       `json:"opinion"`
	Score   float64      `json:"score"`
	Text    string       `json:"text"`
}

// Statistics summarizes per-analyzer activity for the final report.
type Statistics struct {
	MeanCoding           float64 `json:"mean_coding"`
	MeanTheory           float64 `json:"mean_theory"`
	MeanAgility          float64 `json:"mean_agility"`
	MeanDepth            float64 `json:"mean_depth"`
	ConflictViolations   int     `json:"conflict_violations"`
	ContextSwitches      int     `json:"context_switches"`
	ReadabilityPenalties int     `json:"readability_penalties"`
	Clarifications       int     `json:"clarifications"`
	AnticheatViolations  int     `json:"anticheat_violations"`
	CodeOverruns         int     `json:"code_overruns"`
	AgilityBonus         float64 `json:"agility_bonus"`
	ClarificationBonus   float64 `json:"clarification_bonus"`
}

// FinalReport bundles the committee outcome.
type FinalReport struct {
	Score     float64             `json:"score"`
	Verdict   string              `json:"verdict"`
	Forced    bool                `json:"forced"`
	Opinions  []PersonaOpinion    `json:"opinions"`
	Penalties []session.Penalty   `json:"penalties"`
	Notes     []session.AgentNote `json:"notes"`
	Stats     Statistics          `json:"statistics"`
}

// Finish runs the committee over the aggregated session, archives the
// outcome, and marks the interview finished.
func (s *Service) Finish(ctx context.Context) (*FinalReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions.Current()
	if sess == nil {
		return nil, ErrNoSession
	}

	report := s.runCommittee(ctx, sess)
	sess.Phase = session.PhaseFinal
	sess.Finished = true

	personaScores := make(map[string]float64, len(report.Opinions))
	for _, op := range report.Opinions {
		personaScores[string(op.Persona)] = op.Score
	}
	penaltiesJSON, _ := json.Marshal(report.Penalties)
	if err := s.store.SaveResult(ctx, &catalog.ArchivedResult{
		CandidateName: sess.CandidateName,
		Level:         sess.Level,
		TotalScore:    report.Score,
		FinalDecision: report.Verdict,
		PersonaScores: personaScores,
		PenaltiesJSON: string(penaltiesJSON),
	}); err != nil {
		// Archival failure must not lose the report.
		s.logger.Error("failed to archive interview result", zap.Error(err))
	}

	s.logger.Info("interview finished",
		zap.String("session_id", sess.ID),
		zap.Float64("score", report.Score),
		zap.String("verdict", report.Verdict),
		zap.Bool("forced", report.Forced))
	return report, nil
}

// runCommittee computes the final score, collects three independent persona
// opinions, and reduces them to one verdict.
func (s *Service) runCommittee(ctx context.Context, sess *session.Session) *FinalReport {
	stats := collectStatistics(sess)
	score := finalScore(sess, stats)

	meetingCtx := s.meetingContext(sess, stats, score)
	opinions := make([]PersonaOpinion, 0, 3)
	for _, p := range persona.All() {
		opinions = append(opinions, s.personaOpinion(ctx, p, meetingCtx))
	}

	verdict, forced := reduceVerdict(sess, opinions)
	return &FinalReport{
		Score:     score,
		Verdict:   verdict,
		Forced:    forced,
		Opinions:  opinions,
		Penalties: sess.Penalties,
		Notes:     sess.AgentNotes,
		Stats:     stats,
	}
}

// finalScore applies the scoring formula: a weighted base with a flat
// participation floor, minus the ledger sum, plus bonuses, clamped to
// [0,100]. The ledger is summed exactly once.
func finalScore(sess *session.Session, stats Statistics) float64 {
	base := (stats.MeanCoding*baseCodingWeight + stats.MeanTheory*baseTheoryWeight + participationFloor) * 100
	final := base - sess.TotalPenalties() + stats.AgilityBonus + stats.ClarificationBonus
	if final < 0 {
		final = 0
	}
	if final > 100 {
		final = 100
	}
	return final
}

func collectStatistics(sess *session.Session) Statistics {
	stats := Statistics{
		MeanCoding:          sess.MeanCodingScore(),
		MeanTheory:          sess.MeanTheoryScore(),
		MeanAgility:         sess.MeanAgilityScore(),
		ConflictViolations:  len(sess.ConflictHistory),
		ContextSwitches:     len(sess.ContextSwitchHistory),
		Clarifications:      len(sess.ClarificationHistory),
		AnticheatViolations: len(sess.AnticheatViolations),
		CodeOverruns:        sess.CodeOverruns,
		ClarificationBonus:  sess.TotalClarificationBonus(),
	}
	if len(sess.DepthScores) > 0 {
		total := 0.0
		for _, v := range sess.DepthScores {
			total += v
		}
		stats.MeanDepth = total / float64(len(sess.DepthScores))
	}
	for _, r := range sess.ReadabilityHistory {
		if r.Penalty > 0 {
			stats.ReadabilityPenalties++
		}
	}
	if stats.MeanAgility > agilityBonusFloor {
		bonus := stats.MeanAgility * 10
		if bonus > agilityBonusCap {
			bonus = agilityBonusCap
		}
		stats.AgilityBonus = bonus
	}
	return stats
}

func (s *Service) meetingContext(sess *session.Session, stats Statistics, score float64) string {
	var bonusDetails string
	if stats.AgilityBonus > 0 || stats.ClarificationBonus > 0 {
		bonusDetails = fmt.Sprintf("\nBonuses: +%.1f agility, +%.1f clarifications",
			stats.AgilityBonus, stats.ClarificationBonus)
	}
	var penaltyDetails strings.Builder
	for _, p := range sess.Penalties {
		fmt.Fprintf(&penaltyDetails, "\n- %s (%.1f): %s", p.Kind, p.Points, p.Reason)
	}
	var extra string
	if len(sess.AnticheatViolations) > 0 {
		extra = fmt.Sprintf("\nIntegrity incidents: %d", len(sess.AnticheatViolations))
	}

	var notes strings.Builder
	if len(sess.AgentNotes) == 0 {
		notes.WriteString("(none)")
	}
	for _, n := range sess.AgentNotes {
		fmt.Fprintf(&notes, "[%s, %s] %s\n", n.Persona, n.Sentiment, n.Note)
	}

	return persona.MeetingContext(string(sess.Level),
		len(sess.CodingScores), len(sess.Tasks),
		int(stats.MeanCoding*100), int(stats.MeanTheory*100),
		len(sess.Penalties), sess.TotalPenalties(),
		bonusDetails, penaltyDetails.String(), extra,
		int(score), notes.String())
}

// personaOpinion asks one committee member for a verdict. A failed call
// degrades to an undecided opinion.
func (s *Service) personaOpinion(ctx context.Context, p persona.Persona, meetingCtx string) PersonaOpinion {
	text, err := s.oracle.Complete(ctx, persona.MeetingPrompt(meetingCtx, p), persona.MeetingSystem(p))
	if err != nil {
		s.logger.Warn("committee opinion failed",
			zap.String("persona", string(p.Role)), zap.Error(err))
		return PersonaOpinion{
			Persona: p.Role,
			Name:    p.Name,
			Opinion: OpinionMaybe,
			Score:   opinionScores[OpinionMaybe],
			Text:    fmt.Sprintf("Opinion unavailable: %v", err),
		}
	}

	opinion := classifyOpinion(text)
	return PersonaOpinion{
		Persona: p.Role,
		Name:    p.Name,
		Opinion: opinion,
		Score:   opinionScores[opinion],
		Text:    oracle.Sanitize(text),
	}
}

// classifyOpinion scans the reply for verdict tokens in priority order.
// Anything without a recognized token counts as a hire.
func classifyOpinion(text string) string {
	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(upper, "STRONG_HIRE"):
		return OpinionStrongHire
	case strings.Contains(upper, "NO_HIRE"):
		return OpinionNoHire
	case strings.Contains(upper, "MAYBE"):
		return OpinionMaybe
	default:
		return OpinionHire
	}
}

// reduceVerdict turns three opinions into one outcome. A critical conflict
// anywhere in history forces a reject, bypassing the vote; its penalty
// points still count against the numeric score.
func reduceVerdict(sess *session.Session, opinions []PersonaOpinion) (string, bool) {
	if sess.HasCriticalConflict() {
		return OpinionNoHire, true
	}

	counts := map[string]int{}
	for _, op := range opinions {
		counts[op.Opinion]++
	}
	switch {
	case counts[OpinionStrongHire] >= 2:
		return OpinionStrongHire, false
	case counts[OpinionNoHire] >= 2:
		return OpinionNoHire, false
	case counts[OpinionHire]+counts[OpinionStrongHire] >= 2:
		return OpinionHire, false
	default:
		return OpinionMaybe, false
	}
}
