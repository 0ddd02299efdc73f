package interview

import "strings"

// FeedbackClassifier decides whether a persona reply constitutes feedback
// the candidate is expected to act on. The default is a keyword heuristic;
// it is an interface so a model-backed classifier can replace it without
// touching the chat pipeline.
type FeedbackClassifier interface {
	IsFeedback(reply string) bool
}

// KeywordClassifier flags replies containing any of a fixed keyword set.
type KeywordClassifier struct {
	keywords []string
}

var defaultFeedbackKeywords = []string{
	"error", "mistake", "problem", "incorrect", "wrong",
	"improve", "suggest", "recommend", "consider", "issue",
	"fix", "should", "try again", "missing",
}

// NewKeywordClassifier uses the default keyword set.
func NewKeywordClassifier(keywords ...string) *KeywordClassifier {
	if len(keywords) == 0 {
		keywords = defaultFeedbackKeywords
	}
	return &KeywordClassifier{keywords: keywords}
}

func (c *KeywordClassifier) IsFeedback(reply string) bool {
	lowered := strings.ToLower(reply)
	for _, kw := range c.keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}
