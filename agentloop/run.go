package agentloop

import (
	"context"
	"fmt"

	"github.com/kadirpekel/minion/schema"
)

// RunAsync drives repeated Step calls to completion, per spec.md §4.9's
// lifecycle: setup() → repeated step(state) → close is the caller's
// responsibility once RunAsync returns. state may be nil, in which case
// a fresh AgentState is built from task. maxSteps <= 0 falls back to
// a.Config.MaxIterations. route, when non-empty, takes precedence over
// state.Input.Route and the Agent's default route for every step in
// this run (spec.md §4.9's route-parameter precedence).
func (a *Agent) RunAsync(ctx context.Context, task string, state *schema.AgentState, maxSteps int, stream bool, route string) (*schema.AgentResponse, error) {
	if err := a.Setup(ctx); err != nil {
		return nil, err
	}
	if state == nil {
		state = schema.NewAgentState(schema.Input{Query: task})
	}
	if maxSteps <= 0 {
		maxSteps = a.Config.MaxIterations
	}

	out := a.StreamOut
	var last *schema.AgentResponse

	for !state.Done {
		select {
		case <-ctx.Done():
			emit(out, schema.ChunkError, fmt.Sprintf("agentloop: run cancelled: %v", ctx.Err()), nil)
			return last, ctx.Err()
		default:
		}

		resp, err := a.Step(ctx, state, route, stream, out)
		if err != nil {
			emit(out, schema.ChunkError, err.Error(), nil)
			return last, err
		}
		last = resp
		state.Done = resp.Terminated || state.StepCount >= maxSteps
	}
	return last, nil
}
