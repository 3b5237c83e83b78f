// Package check implements the Check/Improve loop (C7): scoring a
// candidate answer against a rubric, a test suite, doctest blocks, or a
// held-out dataset, and iteratively improving it via feedback.
package check

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/kadirpekel/minion/schema"
)

// Checker scores a candidate answer carried in input.Answer, returning a
// score in [0,1] and human-readable feedback explaining the score.
type Checker interface {
	Check(ctx context.Context, input schema.Input) (score float64, feedback string, err error)
}

// Improver produces a new candidate from the original input, the
// failing candidate, and the critic's feedback.
type Improver interface {
	Improve(ctx context.Context, input schema.Input, feedback string) (schema.Input, error)
}

// compareValues implements spec.md §4.7's comparison rule: numeric
// values compare within tolerance; everything else compares as
// whitespace-trimmed, case-sensitive strings.
func compareValues(expected, actual string, tolerance float64) bool {
	ef, eerr := strconv.ParseFloat(strings.TrimSpace(expected), 64)
	af, aerr := strconv.ParseFloat(strings.TrimSpace(actual), 64)
	if eerr == nil && aerr == nil {
		return math.Abs(ef-af) <= tolerance
	}
	return strings.TrimSpace(expected) == strings.TrimSpace(actual)
}
