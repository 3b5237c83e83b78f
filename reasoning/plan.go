package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kadirpekel/minion/schema"
)

func init() { Register("plan", func() Worker { return &PlanWorker{} }) }

const planInstructions = `Produce a JSON array of tasks to accomplish the goal. Each task is an object:
{"id": "t1", "worker": "<route name>", "query": "<task description>", "depends_on": ["t0"]}
depends_on may be empty. Respond with the JSON array only.`

// PlanTask is one node of the task list a `plan` route's LLM call
// produces.
type PlanTask struct {
	ID        string   `json:"id"`
	Worker    string   `json:"worker"`
	Query     string   `json:"query"`
	DependsOn []string `json:"depends_on"`
}

type taskOutcome struct {
	answer string
	failed bool
	reason string
}

// PlanWorker asks the LLM for a topologically-ordered task list and
// runs each task's named sub-worker in order, giving later tasks access
// to earlier outputs via input.Metadata, per spec.md §4.6's `plan` row.
// A task whose dependency failed is itself marked failed without being
// run; tasks that already completed are never rolled back.
type PlanWorker struct{}

func (w *PlanWorker) Name() string { return "plan" }

func (w *PlanWorker) Execute(ctx context.Context, input schema.Input, deps Deps) (*schema.AgentResponse, error) {
	planInput := input.Clone()
	planInput.SystemPrompt = joinPrompt(planInput.SystemPrompt, planInstructions)

	turn, err := deps.Node.Run(ctx, planInput, deps.Tools, deps.ToolChoice, deps.Stream)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	tasks, err := parsePlanTasks(firstAssistantText(turn.Messages))
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	ordered, err := topoSort(tasks)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	outcomes := make(map[string]taskOutcome, len(ordered))
	metadata := make(map[string]any, len(ordered))
	var lastAnswer string

	for _, task := range ordered {
		if failedDep, blocked := blockedByDependency(task, outcomes); blocked {
			outcomes[task.ID] = taskOutcome{failed: true, reason: fmt.Sprintf("upstream task %q failed", failedDep)}
			continue
		}

		worker, werr := deps.Registry.New(task.Worker)
		if werr != nil {
			outcomes[task.ID] = taskOutcome{failed: true, reason: werr.Error()}
			continue
		}

		sub := input.Clone()
		sub.Query = task.Query
		if sub.Metadata == nil {
			sub.Metadata = map[string]any{}
		}
		sub.Metadata["plan_outputs"] = metadata

		resp, rerr := worker.Execute(ctx, sub, deps)
		if rerr != nil {
			outcomes[task.ID] = taskOutcome{failed: true, reason: rerr.Error()}
			continue
		}
		outcomes[task.ID] = taskOutcome{answer: resp.Answer}
		metadata[task.ID] = resp.Answer
		lastAnswer = resp.Answer
	}

	return &schema.AgentResponse{
		Answer:     lastAnswer,
		Terminated: true,
		Messages:   turn.Messages,
		RawReply:   metadata,
	}, nil
}

func blockedByDependency(task PlanTask, outcomes map[string]taskOutcome) (string, bool) {
	for _, dep := range task.DependsOn {
		if o, ok := outcomes[dep]; ok && o.failed {
			return dep, true
		}
	}
	return "", false
}

func parsePlanTasks(text string) ([]PlanTask, error) {
	raw := extractJSONArray(text)
	if raw == "" {
		return nil, fmt.Errorf("no JSON task array found in response")
	}
	var tasks []PlanTask
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, fmt.Errorf("decoding task list: %w", err)
	}
	return tasks, nil
}

func extractJSONArray(text string) string {
	start := strings.IndexByte(text, '[')
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// topoSort orders tasks so every task follows all of its dependencies,
// via Kahn's algorithm; a cycle is reported as an error.
func topoSort(tasks []PlanTask) ([]PlanTask, error) {
	byID := make(map[string]PlanTask, len(tasks))
	indegree := make(map[string]int, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
		if _, ok := indegree[t.ID]; !ok {
			indegree[t.ID] = 0
		}
	}
	dependents := make(map[string][]string)
	for _, t := range tasks {
		for _, dep := range t.DependsOn {
			indegree[t.ID]++
			dependents[dep] = append(dependents[dep], t.ID)
		}
	}

	var queue []string
	for _, t := range tasks {
		if indegree[t.ID] == 0 {
			queue = append(queue, t.ID)
		}
	}

	var ordered []PlanTask
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		ordered = append(ordered, byID[id])
		for _, next := range dependents[id] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	if len(ordered) != len(tasks) {
		return nil, fmt.Errorf("task list has a dependency cycle")
	}
	return ordered, nil
}
