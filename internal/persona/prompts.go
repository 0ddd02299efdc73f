package persona

import "fmt"

// SystemPrompt builds the persona's system prompt for the chat pipeline.
func SystemPrompt(p Persona, phase, level string) string {
	return fmt.Sprintf(`You are %s, %s on the interview panel. %s
Your focus areas: %s.
Interview phase: %s. Candidate level: %s.
Speak to the candidate in direct speech only, at most 3 sentences per reply.
Never include meta-commentary, tags, or notes about your own reasoning.
Use the provided tools to advance the interview when appropriate.`,
		p.Name, p.Title, p.Personality, p.Focus(), phase, level)
}

// GreetingPrompt asks the HR persona to open the interview.
func GreetingPrompt(candidateName, level string) string {
	return fmt.Sprintf(`Greet %s, who is interviewing for a %s position.
Introduce yourself and the panel briefly and explain the interview structure:
an introduction, a theory round, and a coding round.`, candidateName, level)
}

// GreetingSystem is the system prompt for the opening greeting.
func GreetingSystem(p Persona) string {
	return fmt.Sprintf("You are %s, %s. Be welcoming and concise; at most 3 sentences.", p.Name, p.Title)
}

// SwitchIntroPrompt asks a newly activated persona to introduce itself.
func SwitchIntroPrompt(level string) string {
	return fmt.Sprintf("You are taking over the interview of a %s-level candidate. Introduce yourself in one or two sentences and continue the conversation.", level)
}

// SwitchIntroSystem is the system prompt for a persona-switch introduction.
func SwitchIntroSystem(p Persona) string {
	return fmt.Sprintf("You are %s, %s. Direct speech only, at most 3 sentences.", p.Name, p.Title)
}

// progress summarizes interview progress for chat context templates.
func progress(phase, level string, codingDone, codingTotal, theoryDone, theoryTotal int, current string) string {
	return fmt.Sprintf(`Interview state:
- phase: %s, candidate level: %s
- coding tasks completed: %d/%d
- theory questions completed: %d/%d
- currently discussing: %s`,
		phase, level, codingDone, codingTotal, theoryDone, theoryTotal, current)
}

// ChatContext is the plain persona-directed context preamble.
func ChatContext(phase, level string, codingDone, codingTotal, theoryDone, theoryTotal int, current string) string {
	return progress(phase, level, codingDone, codingTotal, theoryDone, theoryTotal, current) +
		"\nRespond to the candidate's last message and keep the interview moving."
}

// ChatContextWithSuggestion is used when the candidate asked a clarification
// question and the detector proposed an answer.
func ChatContextWithSuggestion(phase, level string, codingDone, codingTotal, theoryDone, theoryTotal int, current, suggested string) string {
	return progress(phase, level, codingDone, codingTotal, theoryDone, theoryTotal, current) +
		fmt.Sprintf(`
The candidate asked a clarification question. Answer it helpfully; a suggested
response you may adapt: %s`, suggested)
}

// ChatContextWithConflict is used when destructive behavior was detected;
// it takes precedence over the clarification variant.
func ChatContextWithConflict(phase, level string, codingDone, codingTotal, theoryDone, theoryTotal int, current string) string {
	return progress(phase, level, codingDone, codingTotal, theoryDone, theoryTotal, current) +
		`
The candidate's last message was unprofessional or hostile. Stay calm and
professional, set a clear boundary, and steer the conversation back to the
interview. Do not escalate.`
}

// CodingFeedbackSuccess asks the persona to react to a fully passing solution.
func CodingFeedbackSuccess(taskTitle string, attempts int) string {
	return fmt.Sprintf("The candidate solved %q with all tests passing on attempt %d. Give brief positive feedback.", taskTitle, attempts)
}

// CodingFeedbackPartial asks the persona to react to a partial solution.
func CodingFeedbackPartial(taskTitle string, passed, total int) string {
	return fmt.Sprintf("The candidate's solution for %q passed %d of %d tests. Point them toward what to re-check without giving the answer away.", taskTitle, passed, total)
}

// CodingFeedbackSystem is the system prompt for coding feedback.
func CodingFeedbackSystem(p Persona) string {
	return fmt.Sprintf("You are %s, %s. Direct speech only, at most 3 sentences.", p.Name, p.Title)
}

// TheoryEvalPrompt asks the oracle to grade a theory answer. The reply must
// carry SCORE: and FEEDBACK: lines.
func TheoryEvalPrompt(question, answer, expectedTopics string, adrScore float64, adrQuality string) string {
	return fmt.Sprintf(`Evaluate this interview answer.

Question: %s
Expected topics: %s
Candidate answer: %s

A separate depth analysis rated the answer %.2f/1.0 (%s depth).

Reply in exactly this format:
SCORE: <integer 0-10>
FEEDBACK: <2-3 sentences of feedback for the candidate>`,
		question, expectedTopics, answer, adrScore, adrQuality)
}

// TheoryEvalSystem is the system prompt for theory grading.
const TheoryEvalSystem = "You are a strict but fair technical interviewer grading theory answers. Follow the requested output format exactly."

// MeetingContext renders the aggregated interview state for the committee.
func MeetingContext(level string, codingDone, codingTotal, codingAvg, theoryAvg, penaltyCount int,
	totalPenalties float64, bonusDetails, penaltyDetails, extraDetails string, finalScore int, notes string) string {
	return fmt.Sprintf(`Candidate level: %s
Coding: %d/%d tasks completed, average %d%%
Theory: average %d%%
Penalties: %d entries totaling %.1f points%s%s%s
Provisional score: %d/100

Panel notes:
%s`,
		level, codingDone, codingTotal, codingAvg, theoryAvg,
		penaltyCount, totalPenalties, bonusDetails, penaltyDetails, extraDetails,
		finalScore, notes)
}

// MeetingPrompt asks one persona for its independent opinion.
func MeetingPrompt(context string, p Persona) string {
	return fmt.Sprintf(`%s

As %s, weigh the interview through your focus areas (%s) and give your
verdict. Your reply MUST contain exactly one of: STRONG_HIRE, HIRE, MAYBE,
NO_HIRE, followed by a short justification.`, context, p.Title, p.Focus())
}

// MeetingSystem is the system prompt for committee opinions.
func MeetingSystem(p Persona) string {
	return fmt.Sprintf("You are %s, %s, at the final hiring committee. Be decisive.", p.Name, p.Title)
}
