package check

import (
	"context"

	"github.com/kadirpekel/minion/schema"
)

// Outcome is what Loop returns: the best candidate seen, its score and
// the critic's feedback on it, and how many rounds actually ran.
type Outcome struct {
	Input   schema.Input
	Score   float64
	Feedback string
	Rounds  int
}

// Loop drives the Check/Improve cycle of spec.md §4.7: score the
// current candidate, stop if it already clears acceptanceThreshold,
// otherwise ask improver for a new candidate and try again. It also
// stops early once score fails to improve across two consecutive
// rounds (stall detection), and never runs more than maxRounds.
func Loop(ctx context.Context, checker Checker, improver Improver, input schema.Input, maxRounds int, acceptanceThreshold float64) (Outcome, error) {
	if maxRounds <= 0 {
		maxRounds = 1
	}

	current := input
	best := Outcome{Input: current}
	stallCount := 0
	prevScore := -1.0
	ran := 0

	for round := 0; round < maxRounds; round++ {
		score, feedback, err := checker.Check(ctx, current)
		if err != nil {
			return best, err
		}
		ran = round + 1

		if round == 0 || score > best.Score {
			best = Outcome{Input: current, Score: score, Feedback: feedback, Rounds: round + 1}
		}

		if score >= acceptanceThreshold {
			return Outcome{Input: current, Score: score, Feedback: feedback, Rounds: round + 1}, nil
		}

		if round > 0 && score <= prevScore {
			stallCount++
		} else {
			stallCount = 0
		}
		if stallCount >= 2 {
			break
		}
		prevScore = score

		if round == maxRounds-1 {
			break
		}

		next, err := improver.Improve(ctx, current, feedback)
		if err != nil {
			return best, err
		}
		current = next
	}

	best.Rounds = ran
	return best, nil
}
