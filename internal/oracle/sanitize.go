package oracle

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// tagPatterns remove reasoning blocks and comments the model must not leak.
var tagPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<think\b.*?</think\s*>`),
	regexp.MustCompile(`(?is)<thinking\b.*?</thinking\s*>`),
	regexp.MustCompile(`(?is)<internal\b.*?</internal\s*>`),
	regexp.MustCompile(`(?is)<reasoning\b.*?</reasoning\s*>`),
	regexp.MustCompile(`(?s)<!--.*?-->`),
	regexp.MustCompile(`(?is)\{thinking:.*?\}`),
	regexp.MustCompile(`(?is)\[thinking:.*?\]`),
	regexp.MustCompile(`(?is)\(thinking:.*?\)`),
}

// preamblePatterns strip stage directions at the start of the reply.
var preamblePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\*[^*\n]+\*\s*`),
	regexp.MustCompile(`^\[[^\]\n]+\]\s*`),
	regexp.MustCompile(`^\([^)\n]+\)\s*`),
}

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	blankLinesPattern = regexp.MustCompile(`\n\s*\n`)
)

// forbiddenMarkers flag meta-commentary that must trigger a corrective retry.
var forbiddenMarkers = []string{
	"<think", "<internal", "<reason", "<!--", "{thinking",
	"[thinking", "(thinking", "// thinking", "# thinking",
}

// maxSentences caps persona replies at three sentences.
const maxSentences = 3

// Sanitize strips leaked reasoning tags and stage directions from an oracle
// reply and truncates it to three sentences.
func Sanitize(text string) string {
	for _, p := range tagPatterns {
		text = p.ReplaceAllString(text, "")
	}
	text = strings.TrimSpace(text)
	for _, p := range preamblePatterns {
		text = p.ReplaceAllString(text, "")
	}

	text = truncateSentences(text, maxSentences)
	text = htmlTagPattern.ReplaceAllString(text, "")
	text = blankLinesPattern.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}

// truncateSentences keeps at most n sentences. A sentence ends at a single
// terminator followed by whitespace or the end of the text; terminator runs
// ("...", "?!") read as a pause, not a sentence end, and nothing inside a
// token (decimal points, file extensions) terminates. Text with n or fewer
// sentences passes through untouched.
func truncateSentences(text string, n int) string {
	text = strings.TrimSpace(text)
	count := 0
	prev := rune(0)
	for i, r := range text {
		if !isTerminator(r) {
			prev = r
			continue
		}
		if isTerminator(prev) {
			prev = r
			continue
		}
		prev = r
		rest := text[i+utf8.RuneLen(r):]
		next, _ := utf8.DecodeRuneInString(rest)
		if isTerminator(next) {
			continue
		}
		if rest != "" && !unicode.IsSpace(next) {
			continue
		}
		count++
		if count == n && strings.TrimSpace(rest) != "" {
			return text[:i+utf8.RuneLen(r)]
		}
	}
	return text
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// hasForbiddenMarkers reports whether the reply still carries meta-commentary.
func hasForbiddenMarkers(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range forbiddenMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
