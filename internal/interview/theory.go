package interview

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/interviewd/internal/analysis"
	"github.com/fyrsmithlabs/interviewd/internal/oracle"
	"github.com/fyrsmithlabs/interviewd/internal/persona"
	"github.com/fyrsmithlabs/interviewd/internal/session"
)

const (
	defaultTheoryScore = 5
	poorADRThreshold   = 0.25
	agilityKeepFloor   = 0.3
)

var (
	scoreLinePattern    = regexp.MustCompile(`(?i)SCORE:\s*(\d+)`)
	feedbackLinePattern = regexp.MustCompile(`(?is)FEEDBACK:\s*(.+)`)
)

// TheoryResult is the graded outcome of one theory submission.
type TheoryResult struct {
	Success        bool                    `json:"success"`
	Message        string                  `json:"message,omitempty"`
	QuestionID     int64                   `json:"question_id,omitempty"`
	RawScore       int                     `json:"raw_score"`
	FinalScore     float64                 `json:"final_score"`
	Feedback       string                  `json:"feedback,omitempty"`
	Depth          *analysis.DepthResult   `json:"depth,omitempty"`
	Agility        *analysis.AgilityResult `json:"agility,omitempty"`
	PenaltyApplied bool                    `json:"penalty_applied"`
	NextQuestion   bool                    `json:"next_question"`
}

// SubmitTheory grades a theory answer. questionID 0 targets the question at
// the cursor; a non-zero id allows resubmitting an earlier question, which is
// what triggers the learning-agility assessment.
func (s *Service) SubmitTheory(ctx context.Context, questionID int64, answer string) (*TheoryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.sessions.Current()
	if sess == nil {
		return nil, ErrNoSession
	}

	current := sess.CurrentQuestion()
	question := current
	if questionID != 0 {
		question = sess.QuestionByID(questionID)
	}
	if question == nil {
		return &TheoryResult{Success: false, Message: "no such theory question"}, nil
	}

	depth := s.depth.Analyze(ctx, answer, question.Question, question.ExpectedTopics)
	sess.DepthScores[question.ID] = depth.Score

	rawScore, feedback := s.gradeTheory(ctx, sess, question.Question, answer,
		strings.Join(question.ExpectedTopics, ", "), depth)

	final := float64(rawScore) / 10
	switch {
	case depth.Score > 0.7:
		final += 0.15
	case depth.Score > 0.3:
		final -= 0.1
	default:
		final -= 0.25
	}
	final = clamp01(final)

	penaltyApplied := false
	if depth.Score < poorADRThreshold {
		points := analysis.PenaltyWeight(analysis.KindPoorCommunication, sess.Level)
		sess.AddPenalty(analysis.KindPoorCommunication, points,
			fmt.Sprintf("superficial answer to %q", question.Question))
		penaltyApplied = true
	}

	var agilityRes *analysis.AgilityResult
	prevAnswer := sess.PreviousAnswers[question.ID]
	prevFeedback := sess.FeedbackReceived[question.ID]
	if prevAnswer != "" && prevFeedback != "" {
		res := s.agility.Analyze(ctx, prevAnswer, prevFeedback, answer)
		agilityRes = &res
		sess.AgilityScores[question.ID] = res.Score
		if res.Score > agilityKeepFloor {
			feedback = fmt.Sprintf("%s\n\nOn your revision: %s", feedback, res.Feedback)
		}
	}

	sess.TheoryScores[question.ID] = final
	sess.PreviousAnswers[question.ID] = answer
	sess.FeedbackReceived[question.ID] = feedback

	nextQuestion := false
	if current != nil && question.ID == current.ID {
		sess.QuestionCursor++
		nextQuestion = sess.CurrentQuestion() != nil
	}
	sess.StartFeedbackCycle(session.FeedbackTheory)

	s.logger.Info("theory answer graded",
		zap.Int64("question_id", question.ID),
		zap.Int("raw_score", rawScore),
		zap.Float64("final_score", final),
		zap.Float64("depth", depth.Score))

	return &TheoryResult{
		Success:        true,
		QuestionID:     question.ID,
		RawScore:       rawScore,
		FinalScore:     final,
		Feedback:       feedback,
		Depth:          &depth,
		Agility:        agilityRes,
		PenaltyApplied: penaltyApplied,
		NextQuestion:   nextQuestion,
	}, nil
}

// gradeTheory asks the active persona to grade the answer in the
// "SCORE:/FEEDBACK:" format. Any failure degrades to the default mid score.
func (s *Service) gradeTheory(ctx context.Context, sess *session.Session,
	question, answer, topics string, depth analysis.DepthResult) (int, string) {
	quality := "superficial"
	if depth.Score > 0.7 {
		quality = "thorough"
	} else if depth.Score > 0.3 {
		quality = "adequate"
	}

	reply, err := s.oracle.Complete(ctx,
		persona.TheoryEvalPrompt(question, answer, topics, depth.Score, quality),
		persona.TheoryEvalSystem)
	if err != nil {
		s.logger.Warn("theory grading call failed", zap.Error(err))
		return defaultTheoryScore, fmt.Sprintf("Your answer was recorded, but grading was degraded: %v", err)
	}

	score := defaultTheoryScore
	if m := scoreLinePattern.FindStringSubmatch(reply); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			if v < 0 {
				v = 0
			}
			if v > 10 {
				v = 10
			}
			score = v
		}
	}
	feedback := strings.TrimSpace(reply)
	if m := feedbackLinePattern.FindStringSubmatch(reply); m != nil {
		feedback = strings.TrimSpace(m[1])
	}
	return score, oracle.Sanitize(feedback)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
