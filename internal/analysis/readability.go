package analysis

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/fyrsmithlabs/interviewd/internal/catalog"
)

const (
	readabilityMinChars = 10
	maxLineLength       = 79
)

var (
	// Adjacent operands around a binary operator, e.g. "a+b" or "x=1".
	operatorSpacingPattern = regexp.MustCompile(`[a-zA-Z0-9_][+\-*/=<>][a-zA-Z0-9_]`)
	// camelCase identifier in assignment position.
	camelCasePattern = regexp.MustCompile(`\b[a-z]+[A-Z][a-zA-Z0-9]*\s*=`)
)

// AnalyzeReadability is a deterministic style check over submitted code. No
// model call is involved. Code under 10 trimmed characters scores perfectly.
// The summed penalty is capped at twice the level's base readability weight.
func AnalyzeReadability(code string, level catalog.Level) ReadabilityResult {
	if utf8.RuneCountInString(strings.TrimSpace(code)) < readabilityMinChars {
		return ReadabilityResult{Score: 1.0, Feedback: "Excellent code style."}
	}

	lines := strings.Split(code, "\n")
	var violations []ReadabilityViolation
	add := func(line int, kind string, severity Severity, detail string) {
		violations = append(violations, ReadabilityViolation{
			Line: line, Kind: kind, Severity: severity, Detail: detail,
		})
	}

	inBlankRun := false
	for i, line := range lines {
		num := i + 1

		if strings.TrimSpace(line) == "" {
			// Only the first blank line of a run counts.
			if inBlankRun {
				continue
			}
			if i+1 < len(lines) && strings.TrimSpace(lines[i+1]) == "" {
				add(num, "consecutive_blank_lines", SeverityMinor, "multiple blank lines in a row")
				inBlankRun = true
			}
			continue
		}
		inBlankRun = false

		if chars := utf8.RuneCountInString(line); chars > maxLineLength {
			add(num, "line_too_long", SeverityMinor,
				fmt.Sprintf("line is %d characters (max %d)", chars, maxLineLength))
		}
		if line != strings.TrimRight(line, " \t") {
			add(num, "trailing_whitespace", SeverityMinor, "trailing whitespace")
		}
		if strings.Contains(line, "\t") {
			add(num, "tabs_used", SeverityMinor, "tab characters instead of spaces")
		}

		// Operator spacing is only checked outside string literals and
		// comments; lines containing quotes are skipped entirely rather
		// than parsed.
		checkable := line
		if idx := strings.Index(checkable, "#"); idx >= 0 {
			checkable = checkable[:idx]
		}
		if !strings.ContainsAny(checkable, `"'`) && operatorSpacingPattern.MatchString(checkable) {
			add(num, "operator_spacing", SeverityMinor, "missing whitespace around operator")
		}

		if !strings.Contains(line, "class") && camelCasePattern.MatchString(line) {
			add(num, "camel_case_naming", SeverityModerate, "camelCase name; use snake_case")
		}

		if level != catalog.Junior {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "def ") && strings.HasSuffix(trimmed, ":") {
				if !docstringFollows(lines, i) {
					severity := SeverityModerate
					if level == catalog.Senior {
						severity = SeveritySevere
					}
					add(num, "missing_docstring", severity, "function has no docstring")
				}
			}
		}
	}

	penalty := 0.0
	for _, v := range violations {
		penalty += readabilityPoints[v.Severity][level]
	}
	maxPenalty := 2 * PenaltyWeight(KindPoorReadability, level)
	if penalty > maxPenalty {
		penalty = maxPenalty
	}

	score := 1.0
	if len(lines) > 0 {
		score = 1.0 - 0.5*float64(len(violations))/float64(len(lines))
	}
	if score < 0 {
		score = 0
	}

	return ReadabilityResult{
		Violations: violations,
		Penalty:    penalty,
		Score:      score,
		Feedback:   readabilityFeedback(len(violations)),
	}
}

func docstringFollows(lines []string, defIdx int) bool {
	if defIdx+1 >= len(lines) {
		return false
	}
	next := strings.TrimSpace(lines[defIdx+1])
	return strings.HasPrefix(next, `"""`) || strings.HasPrefix(next, "'''")
}

func readabilityFeedback(violations int) string {
	switch {
	case violations == 0:
		return "Excellent code style."
	case violations <= 3:
		return "Good code overall, a few minor style notes."
	case violations <= 7:
		return "Several style violations; the code needs cleanup."
	default:
		return "Code style is unacceptable for this level; substantial cleanup required."
	}
}
