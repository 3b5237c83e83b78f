package check

import (
	"context"
	"fmt"
	"strings"

	"github.com/kadirpekel/minion/schema"
)

// CodiumCase is one held-out (input, output) pair. Held out deliberately:
// CodiumCheckMinion's HeldOut set is its own field rather than reusing
// schema.Input.Dataset, so a candidate-generating Worker that only ever
// sees Input never sees the examples it is graded against.
type CodiumCase struct {
	Call     string
	Expected string
}

// CodiumCheckMinion scores a candidate against a held-out set never
// exposed to the candidate-producing worker, per spec.md §4.7's
// "codium-style" held-out check. Reports only the first diverging
// example, since held-out sets are typically used to catch
// overfitting rather than to enumerate every failure.
type CodiumCheckMinion struct {
	Interp    Interpreter
	HeldOut   []CodiumCase
	Tolerance float64
}

func NewCodiumCheckMinion(interp Interpreter, heldOut []CodiumCase, tolerance float64) *CodiumCheckMinion {
	return &CodiumCheckMinion{Interp: interp, HeldOut: heldOut, Tolerance: tolerance}
}

func (c *CodiumCheckMinion) Check(ctx context.Context, input schema.Input) (float64, string, error) {
	if len(c.HeldOut) == 0 {
		return 0, "", fmt.Errorf("codium_minion: HeldOut is empty")
	}

	passed := 0
	firstFailure := ""
	for _, hc := range c.HeldOut {
		src := input.Answer + "\nfinal_answer(" + hc.Call + ")"
		res, err := c.Interp.Run(ctx, src)
		if err != nil {
			if firstFailure == "" {
				firstFailure = fmt.Sprintf("%s: error: %v", hc.Call, err)
			}
			continue
		}
		got := strings.TrimSpace(resultString(res))
		if compareValues(hc.Expected, got, c.Tolerance) {
			passed++
		} else if firstFailure == "" {
			firstFailure = fmt.Sprintf("%s: expected %q, got %q", hc.Call, hc.Expected, got)
		}
	}

	score := float64(passed) / float64(len(c.HeldOut))
	feedback := fmt.Sprintf("%d/%d held-out cases passed", passed, len(c.HeldOut))
	if firstFailure != "" {
		feedback += "; first divergence: " + firstFailure
	}
	return score, feedback, nil
}
