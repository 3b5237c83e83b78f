package reasoning

import (
	"context"
	"fmt"
	"strings"

	"github.com/kadirpekel/minion/llms"
	"github.com/kadirpekel/minion/schema"
)

func init() { Register("route", func() Worker { return &RouteWorker{} }) }

// RouteWorker is the meta-worker of spec.md §4.6's `route` row: it asks
// the LLM to pick the best registered route name for the input, then
// delegates execution to that route.
type RouteWorker struct{}

func (w *RouteWorker) Name() string { return "route" }

func (w *RouteWorker) Execute(ctx context.Context, input schema.Input, deps Deps) (*schema.AgentResponse, error) {
	candidates := routableNames(deps.Registry.Names())
	if len(candidates) == 0 {
		return nil, fmt.Errorf("route: no candidate routes registered")
	}

	pick := input.Clone()
	pick.Stream = false
	pick.SystemPrompt = fmt.Sprintf(
		"Choose the single best route for this task from: %s. Respond with only the route name.",
		strings.Join(candidates, ", "))

	turn, err := deps.Node.Run(ctx, pick, nil, llms.ToolChoiceNone, nil)
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}

	chosen := matchRouteName(firstAssistantText(turn.Messages), candidates)
	worker, err := deps.Registry.New(chosen)
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	return worker.Execute(ctx, input, deps)
}

// routableNames excludes the meta-routes (route itself and moderator)
// from the candidate list a route/moderator worker can pick among.
func routableNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "route" || n == "moderator" {
			continue
		}
		out = append(out, n)
	}
	return out
}

func matchRouteName(text string, candidates []string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, c := range candidates {
		if lower == strings.ToLower(c) {
			return c
		}
	}
	for _, c := range candidates {
		if strings.Contains(lower, strings.ToLower(c)) {
			return c
		}
	}
	return candidates[0]
}
