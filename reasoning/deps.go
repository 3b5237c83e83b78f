package reasoning

import (
	"context"

	"github.com/kadirpekel/minion/actionnode"
	"github.com/kadirpekel/minion/interpreter"
	"github.com/kadirpekel/minion/llms"
	"github.com/kadirpekel/minion/schema"
)

// Interpreter is the narrow contract python/code workers need from the
// code interpreter (C4): run one snippet to completion. *interpreter.Interp
// satisfies this directly; the Brain wraps an *interpreter.AsyncInterp
// behind an adapter that calls RunAsync when a streaming turn calls for
// the coroutine-aware variant (spec.md §4.8.2).
type Interpreter interface {
	Run(ctx context.Context, src string) (interpreter.Result, error)
}

// Scorer rates a candidate answer, e.g. by delegating to a check.Checker.
// Optional: nil means "no independent scoring available", and tie-break
// logic (dcot, ensemble) falls back to first-seen order.
type Scorer func(ctx context.Context, input schema.Input, candidate string) (float64, error)

// Deps is everything a Worker needs beyond its Input: the shared Action
// Node for LLM turns, the code interpreter for python/code routes, the
// declared tool surface, the worker registry (for plan/ensemble/route/
// moderator to instantiate sub-workers), and the knobs that bound
// retries and parallelism.
type Deps struct {
	Node       *actionnode.Node
	Interp     Interpreter
	Tools      []schema.ToolDescriptor
	ToolChoice llms.ToolChoice
	Registry   *Registry
	Stream     chan<- schema.StreamChunk
	Scorer     Scorer

	// MaxRetries bounds the python/code Observation-retry loop (K in
	// spec.md §4.6) and the moderator's own retry budget.
	MaxRetries int

	// EnsembleWorkers names the sub-workers an `ensemble` route runs
	// (may repeat a name for multiple independent copies).
	EnsembleWorkers []string
	// EnsembleAggregate selects how ensemble combines sub-worker
	// answers: "majority" (default), "weighted", or "best".
	EnsembleAggregate string

	// ConcurrentTasks carries the agent's concurrent_tasks setting.
	// PlanWorker does not read it: a `plan` route runs its tasks one at
	// a time in topological order whatever its value.
	ConcurrentTasks bool

	// DCoTSamples is the self-consistency sample count for the `dcot`
	// route (N parallel calls before majority voting). Zero defaults to 3.
	DCoTSamples int
}

func firstAssistantText(messages []schema.Message) string {
	for _, m := range messages {
		if m.Role == schema.RoleAssistant {
			return m.Text
		}
	}
	return ""
}

func lastAssistantText(messages []schema.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == schema.RoleAssistant {
			return messages[i].Text
		}
	}
	return ""
}
