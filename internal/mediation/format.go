package mediation

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	hintLimit   = 300
	hintKeep    = 280
	compareNote = "\n\n---\n*Note: This is a model answer for educational purposes. Your approach may differ while still being valid. Focus on understanding the concepts and reasoning process rather than memorizing this specific answer.*"
)

var (
	numberedLine = regexp.MustCompile(`(?m)^\s*\d+\.`)
	questionRun  = regexp.MustCompile(`[^.?!\n]*\?`)
)

// truncateHint cuts replies longer than hintLimit runes down to hintKeep plus an ellipsis.
func truncateHint(s string) string {
	r := []rune(s)
	if len(r) <= hintLimit {
		return s
	}
	return string(r[:hintKeep]) + "..."
}

func appendDisclaimer(s string) string {
	return s + compareNote
}

// numberQuestions rewrites prose into a numbered question list. Replies
// that are already numbered, or contain no questions, pass through.
func numberQuestions(s string) string {
	if numberedLine.MatchString(s) {
		return s
	}
	var qs []string
	for _, m := range questionRun.FindAllString(s, -1) {
		if q := strings.TrimSpace(m); len(q) > 1 {
			qs = append(qs, q)
		}
	}
	if len(qs) == 0 {
		return s
	}

	var b strings.Builder
	b.WriteString("Consider these questions to guide your thinking:\n\n")
	for i, q := range qs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	b.WriteString("\nReflecting on these questions will help you develop a deeper understanding of the problem.")
	return b.String()
}
