package interpreter

import "strings"

// ExtractCodeBlock implements the three-priority code-block extractor
// spec.md §6 describes for the code and python workers:
//  1. a ```python ... ``` fenced block;
//  2. a ```python ... ```<END> fenced block with sentinel;
//  3. a ```python ... <END> fenced block with a loose sentinel.
//
// The first matching form wins; if none matches, the entire trimmed
// text is returned as-is (a worker that emits bare code with no
// fencing at all still runs).
func ExtractCodeBlock(text string) string {
	if code, ok := extractFenced(text, "```"); ok {
		return code
	}
	if code, ok := extractFenced(text, "```<END>"); ok {
		return code
	}
	if code, ok := extractFenced(text, "<END>"); ok {
		return code
	}
	return strings.TrimSpace(text)
}

// extractFenced looks for a ```python fence (or plain ``` fence) and
// returns the body up to the given closing marker.
func extractFenced(text, closer string) (string, bool) {
	const openMarker = "```python"
	start := strings.Index(text, openMarker)
	openLen := len(openMarker)
	if start < 0 {
		start = strings.Index(text, "```")
		openLen = len("```")
		if start < 0 {
			return "", false
		}
	}
	bodyStart := start + openLen
	if bodyStart < len(text) && text[bodyStart] == '\n' {
		bodyStart++
	}
	rest := text[bodyStart:]
	end := strings.Index(rest, closer)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}
