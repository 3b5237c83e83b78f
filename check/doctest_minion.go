package check

import (
	"context"
	"fmt"
	"strings"

	"github.com/kadirpekel/minion/schema"
)

// doctestCase is one `>>> expr` / expected-output pair parsed out of a
// candidate's docstring or comment text.
type doctestCase struct {
	expr     string
	expected string
}

// DoctestMinion scores a candidate by extracting embedded `>>>` doctest
// blocks from its own source text, running each expression through the
// interpreter after the candidate's remaining lines (its definitions),
// and comparing the string form of the expression's value to the
// line(s) that followed the prompt in the original text.
type DoctestMinion struct {
	Interp     Interpreter
	Tolerance  float64
	MaxReports int // how many failures to list in feedback; 0 means 3
}

func NewDoctestMinion(interp Interpreter, tolerance float64) *DoctestMinion {
	return &DoctestMinion{Interp: interp, Tolerance: tolerance}
}

// Check parses the `>>>` blocks embedded in input.Answer and runs each
// expression through the interpreter.
func (d *DoctestMinion) Check(ctx context.Context, input schema.Input) (float64, string, error) {
	cases := parseDoctests(input.Answer)
	if len(cases) == 0 {
		return 0, "", fmt.Errorf("doctest_minion: no >>> blocks found in candidate")
	}

	maxReports := d.MaxReports
	if maxReports <= 0 {
		maxReports = 3
	}

	var defs []string
	inCase := false
	for _, line := range strings.Split(input.Answer, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, ">>> "):
			inCase = true
		case trimmed == "":
			inCase = false
			defs = append(defs, line)
		case !inCase:
			defs = append(defs, line)
		}
	}
	prelude := strings.Join(defs, "\n")

	passed := 0
	var failures []string
	for _, c := range cases {
		res, err := d.Interp.Run(ctx, prelude+"\nfinal_answer("+c.expr+")")
		if err != nil {
			if len(failures) < maxReports {
				failures = append(failures, fmt.Sprintf(">>> %s\nerror: %v", c.expr, err))
			}
			continue
		}
		got := strings.TrimSpace(resultString(res))
		if compareValues(c.expected, got, d.Tolerance) {
			passed++
		} else if len(failures) < maxReports {
			failures = append(failures, fmt.Sprintf(">>> %s\nexpected %q, got %q", c.expr, c.expected, got))
		}
	}

	score := float64(passed) / float64(len(cases))
	feedback := fmt.Sprintf("%d/%d doctests passed", passed, len(cases))
	if len(failures) > 0 {
		feedback += ":\n" + strings.Join(failures, "\n")
	}
	return score, feedback, nil
}

// parseDoctests scans source line by line: a line beginning with ">>> "
// starts a case; every following non-">>> ", non-blank line is appended
// to that case's expected output until a blank line or the next prompt.
func parseDoctests(source string) []doctestCase {
	var cases []doctestCase
	var cur *doctestCase
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, ">>> "):
			if cur != nil {
				cases = append(cases, *cur)
			}
			cur = &doctestCase{expr: strings.TrimPrefix(trimmed, ">>> ")}
		case trimmed == "":
			if cur != nil {
				cases = append(cases, *cur)
				cur = nil
			}
		default:
			if cur != nil {
				if cur.expected != "" {
					cur.expected += "\n"
				}
				cur.expected += trimmed
			}
		}
	}
	if cur != nil {
		cases = append(cases, *cur)
	}
	return cases
}
