package reasoning

import (
	"regexp"
	"strings"
)

var finalAnswerRegex = regexp.MustCompile(`(?is)final\s*answer\s*:?\s*(.+)`)

// extractFinalAnswer pulls the answer out of a chain-of-thought
// response: a trailing "Final Answer: ..." line if present, else the
// last non-empty paragraph (blank-line-separated block) of the text.
func extractFinalAnswer(text string) string {
	if m := finalAnswerRegex.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(lastParagraph(text))
}

func lastParagraph(text string) string {
	paras := strings.Split(strings.TrimSpace(text), "\n\n")
	for i := len(paras) - 1; i >= 0; i-- {
		if p := strings.TrimSpace(paras[i]); p != "" {
			return p
		}
	}
	return strings.TrimSpace(text)
}
