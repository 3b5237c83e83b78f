package check

import (
	"context"
	"fmt"

	"github.com/kadirpekel/minion/reasoning"
	"github.com/kadirpekel/minion/schema"
)

// FeedbackMinion is the Improver: it feeds the critic's feedback into
// the original input and re-runs the candidate-producing Worker to get
// a fresh candidate. check imports reasoning one-directionally — workers
// never import check, so this is the only coupling point between the
// two packages.
type FeedbackMinion struct {
	Worker reasoning.Worker
	Deps   reasoning.Deps
}

func NewFeedbackMinion(worker reasoning.Worker, deps reasoning.Deps) *FeedbackMinion {
	return &FeedbackMinion{Worker: worker, Deps: deps}
}

func (f *FeedbackMinion) Improve(ctx context.Context, input schema.Input, feedback string) (schema.Input, error) {
	retry := input.Clone()
	retry.Feedback = feedback

	resp, err := f.Worker.Execute(ctx, retry, f.Deps)
	if err != nil {
		return schema.Input{}, fmt.Errorf("feedback_minion: %w", err)
	}

	next := input.Clone()
	next.Answer = resp.Answer
	next.Feedback = feedback
	return next, nil
}
