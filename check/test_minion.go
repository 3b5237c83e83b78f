package check

import (
	"context"
	"fmt"
	"strings"

	"github.com/kadirpekel/minion/interpreter"
	"github.com/kadirpekel/minion/schema"
)

// Interpreter is the narrow contract TestMinion and DoctestMinion need:
// run one snippet to completion. Mirrors reasoning.Interpreter so either
// *interpreter.Interp or a test double satisfies both without an import
// of the reasoning package.
type Interpreter interface {
	Run(ctx context.Context, src string) (interpreter.Result, error)
}

// TestMinion scores a candidate against schema.Input.Dataset: one
// schema.TestCase per case, run by prepending the candidate source to
// the test's Call expression, passing it to final_answer, and comparing
// the resulting value's string form to Expected via compareValues.
type TestMinion struct {
	Interp    Interpreter
	Tolerance float64
}

func NewTestMinion(interp Interpreter, tolerance float64) *TestMinion {
	return &TestMinion{Interp: interp, Tolerance: tolerance}
}

func (t *TestMinion) Check(ctx context.Context, input schema.Input) (float64, string, error) {
	if len(input.Dataset) == 0 {
		return 0, "", fmt.Errorf("test_minion: input.Dataset is empty")
	}

	passed := 0
	var failures []string
	for i, tc := range input.Dataset {
		src := input.Answer + "\nfinal_answer(" + tc.Call + ")"
		res, err := t.Interp.Run(ctx, src)
		if err != nil {
			failures = append(failures, fmt.Sprintf("case %d (%s): error: %v", i, tc.Call, err))
			continue
		}
		got := strings.TrimSpace(resultString(res))
		if compareValues(tc.Expected, got, t.Tolerance) {
			passed++
		} else {
			failures = append(failures, fmt.Sprintf("case %d (%s): expected %q, got %q", i, tc.Call, tc.Expected, got))
		}
	}

	score := float64(passed) / float64(len(input.Dataset))
	feedback := fmt.Sprintf("%d/%d tests passed", passed, len(input.Dataset))
	if len(failures) > 0 {
		feedback += ":\n" + strings.Join(failures, "\n")
	}
	return score, feedback, nil
}

func resultString(r interpreter.Result) string {
	if s, ok := r.Value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", r.Value)
}
