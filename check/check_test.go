package check

import (
	"context"
	"testing"

	"github.com/kadirpekel/minion/actionnode"
	"github.com/kadirpekel/minion/interpreter"
	"github.com/kadirpekel/minion/llms"
	"github.com/kadirpekel/minion/reasoning"
	"github.com/kadirpekel/minion/schema"
)

func TestCompareValuesNumericTolerance(t *testing.T) {
	if !compareValues("3.0001", "3.0002", 0.001) {
		t.Fatal("expected values within tolerance to compare equal")
	}
	if compareValues("3.0", "4.0", 0.001) {
		t.Fatal("expected values outside tolerance to compare unequal")
	}
}

func TestCompareValuesStringFallback(t *testing.T) {
	if !compareValues(" hello ", "hello", 0) {
		t.Fatal("expected trimmed string equality")
	}
	if compareValues("hello", "world", 0) {
		t.Fatal("expected mismatched strings to compare unequal")
	}
}

func TestCheckMinionParsesScoreAndFeedback(t *testing.T) {
	provider := llms.NewMockProvider("mock", llms.ScriptedCall{
		Text: "SCORE: 0.8\nFEEDBACK: mostly correct but missing an edge case",
	})
	cm := NewCheckMinion(actionnode.New(provider, nil), "answer must be numerically correct")

	score, feedback, err := cm.Check(context.Background(), schema.Input{Query: "2+2?", Answer: "4"})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if score != 0.8 {
		t.Fatalf("got score %v, want 0.8", score)
	}
	if feedback == "" {
		t.Fatal("expected non-empty feedback")
	}
}

func TestTestMinionScoresFractionPassing(t *testing.T) {
	tm := NewTestMinion(interpreter.NewInterp(), 0.001)
	input := schema.Input{
		Answer: "def square(x):\n    return x * x",
		Dataset: []schema.TestCase{
			{Call: "square(2)", Expected: "4"},
			{Call: "square(3)", Expected: "10"},
		},
	}
	score, feedback, err := tm.Check(context.Background(), input)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if score != 0.5 {
		t.Fatalf("got score %v, want 0.5", score)
	}
	if feedback == "" {
		t.Fatal("expected non-empty feedback")
	}
}

func TestDoctestMinionParsesAndRuns(t *testing.T) {
	dm := NewDoctestMinion(interpreter.NewInterp(), 0.001)
	input := schema.Input{
		Answer: "def square(x):\n    return x * x\n\n>>> square(2)\n4\n>>> square(3)\n9\n",
	}
	score, _, err := dm.Check(context.Background(), input)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if score != 1.0 {
		t.Fatalf("got score %v, want 1.0", score)
	}
}

func TestCodiumCheckMinionReportsFirstDivergence(t *testing.T) {
	cm := NewCodiumCheckMinion(interpreter.NewInterp(), []CodiumCase{
		{Call: "square(2)", Expected: "4"},
		{Call: "square(3)", Expected: "99"},
	}, 0.001)
	input := schema.Input{Answer: "def square(x):\n    return x * x"}

	score, feedback, err := cm.Check(context.Background(), input)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if score != 0.5 {
		t.Fatalf("got score %v, want 0.5", score)
	}
	if feedback == "" {
		t.Fatal("expected non-empty feedback")
	}
}

func TestFeedbackMinionRegeneratesCandidate(t *testing.T) {
	provider := llms.NewMockProvider("mock", llms.ScriptedCall{Text: "improved answer"})
	worker := &reasoning.RawWorker{}
	deps := reasoning.Deps{Node: actionnode.New(provider, nil)}
	fm := NewFeedbackMinion(worker, deps)

	next, err := fm.Improve(context.Background(), schema.Input{Query: "2+2?", Answer: "wrong"}, "try again")
	if err != nil {
		t.Fatalf("Improve failed: %v", err)
	}
	if next.Answer != "improved answer" {
		t.Fatalf("got %q", next.Answer)
	}
}

// stubChecker scores a fixed sequence of (score, feedback) pairs, one per
// call, so Loop's stall/acceptance logic can be driven deterministically.
type stubChecker struct {
	scores    []float64
	feedbacks []string
	calls     int
}

func (s *stubChecker) Check(ctx context.Context, input schema.Input) (float64, string, error) {
	i := s.calls
	if i >= len(s.scores) {
		i = len(s.scores) - 1
	}
	s.calls++
	return s.scores[i], s.feedbacks[i], nil
}

// stubImprover returns a new Input whose Answer is tagged with the round
// number, so test assertions can see which round's candidate "won".
type stubImprover struct{ calls int }

func (s *stubImprover) Improve(ctx context.Context, input schema.Input, feedback string) (schema.Input, error) {
	s.calls++
	next := input.Clone()
	next.Answer = feedback
	return next, nil
}

func TestLoopStopsOnAcceptanceThreshold(t *testing.T) {
	checker := &stubChecker{scores: []float64{0.3, 0.9}, feedbacks: []string{"weak", "strong"}}
	improver := &stubImprover{}

	out, err := Loop(context.Background(), checker, improver, schema.Input{Answer: "v0"}, 5, 0.8)
	if err != nil {
		t.Fatalf("Loop failed: %v", err)
	}
	if out.Score != 0.9 {
		t.Fatalf("got score %v, want 0.9", out.Score)
	}
	if out.Rounds != 2 {
		t.Fatalf("got %d rounds, want 2", out.Rounds)
	}
}

func TestLoopStopsOnStall(t *testing.T) {
	checker := &stubChecker{scores: []float64{0.5, 0.5, 0.5}, feedbacks: []string{"a", "b", "c"}}
	improver := &stubImprover{}

	out, err := Loop(context.Background(), checker, improver, schema.Input{Answer: "v0"}, 10, 0.99)
	if err != nil {
		t.Fatalf("Loop failed: %v", err)
	}
	if out.Score != 0.5 {
		t.Fatalf("got score %v, want 0.5", out.Score)
	}
	if out.Rounds > 3 {
		t.Fatalf("expected stall to cut the loop short, got %d rounds", out.Rounds)
	}
}

func TestLoopRespectsMaxRounds(t *testing.T) {
	checker := &stubChecker{scores: []float64{0.1, 0.2, 0.3}, feedbacks: []string{"a", "b", "c"}}
	improver := &stubImprover{}

	out, err := Loop(context.Background(), checker, improver, schema.Input{Answer: "v0"}, 2, 0.99)
	if err != nil {
		t.Fatalf("Loop failed: %v", err)
	}
	if out.Rounds != 2 {
		t.Fatalf("got %d rounds, want 2 (maxRounds cap)", out.Rounds)
	}
}
