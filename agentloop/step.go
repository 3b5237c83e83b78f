package agentloop

import (
	"context"
	"fmt"

	"github.com/kadirpekel/minion/brain"
	"github.com/kadirpekel/minion/schema"
)

// Step implements spec.md §4.9's step contract: build or extend the
// message history from state, enhance the system prompt with skills and
// the available tool list, delegate to the Brain under the resolved
// route, and fold the result back into state.
//
// routeOverride takes precedence over state.Input.Route, which in turn
// takes precedence over the Agent's default route, per spec.md §4.9's
// "Route parameter precedence".
func (a *Agent) Step(ctx context.Context, state *schema.AgentState, routeOverride string, stream bool, out chan<- schema.StreamChunk) (*schema.AgentResponse, error) {
	if err := a.autoCompact(ctx, state, out); err != nil {
		return nil, err
	}

	route := routeOverride
	if route == "" {
		route = state.Input.Route
	}
	if route == "" {
		route = a.DefaultRoute
	}

	systemPrompt := buildSystemPrompt(state.Input.SystemPrompt, a)

	query := state.Messages()
	if len(query) == 0 {
		query = []schema.Message{schema.NewTextMessage(schema.RoleUser, fmt.Sprintf("%v", state.Input.Query))}
	}

	result, err := a.Brain.Step(ctx, brain.StepInput{
		Query:     query,
		Route:     route,
		Model:     a.Model,
		Stream:    stream,
		StreamOut: out,
		Dataset:   state.Input.Dataset,
		CachePlan: state.Input.CachePlan,
	})
	if err != nil {
		return nil, fmt.Errorf("agentloop: step failed: %w", err)
	}

	if systemPrompt != "" && !hasSystemMessage(state.History) {
		state.History = append([]schema.HistoryEntry{{Message: schema.NewTextMessage(schema.RoleSystem, systemPrompt), Step: state.StepCount}}, state.History...)
	}
	for _, m := range result.Info.Messages {
		state.Append(m)
	}

	state.StepCount++
	state.Score = result.Score

	if err := a.autoDecay(state, state.StepCount); err != nil {
		return nil, err
	}

	return result.Info, nil
}

func hasSystemMessage(history []schema.HistoryEntry) bool {
	for _, h := range history {
		if h.Message.Role == schema.RoleSystem {
			return true
		}
	}
	return false
}
