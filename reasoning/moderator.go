package reasoning

import (
	"context"
	"fmt"

	"github.com/kadirpekel/minion/schema"
)

func init() { Register("moderator", func() Worker { return &ModeratorWorker{} }) }

// ModeratorWorker is the top-level worker of spec.md §4.6's `moderator`
// row: it decides whether to honor the explicit input.Route, fall back
// to the `route` meta-worker, or run a configured `ensemble`, and owns
// the single retry budget around that decision.
type ModeratorWorker struct{}

func (w *ModeratorWorker) Name() string { return "moderator" }

func (w *ModeratorWorker) Execute(ctx context.Context, input schema.Input, deps Deps) (*schema.AgentResponse, error) {
	routeName := input.Route
	if routeName == "" || routeName == w.Name() {
		if len(deps.EnsembleWorkers) > 0 {
			routeName = "ensemble"
		} else {
			routeName = "route"
		}
	}

	maxAttempts := deps.MaxRetries
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		worker, err := deps.Registry.New(routeName)
		if err != nil {
			return nil, fmt.Errorf("moderator: %w", err)
		}
		resp, err := worker.Execute(ctx, input.Clone(), deps)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("moderator: exhausted %d attempt(s): %w", maxAttempts, lastErr)
}
