package schema

// TaskStatus is the lifecycle state of one Plan task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Task is one node of a Plan's dependency graph.
type Task struct {
	ID           string
	Dependencies []string
	Instruction  string
	OutputKey    string
	Worker       string // which registered worker runs this task
	Status       TaskStatus
	Result       string
	Err          string
}

// Plan is an ordered sequence of tasks forming a dependency DAG. Tasks
// execute in topological order; a task may only read the outputs of
// completed ancestors (enforced by reasoning.PlanWorker, not by this
// value type).
type Plan struct {
	Tasks []Task
}

// TaskByID looks up a task by id.
func (p *Plan) TaskByID(id string) (*Task, bool) {
	for i := range p.Tasks {
		if p.Tasks[i].ID == id {
			return &p.Tasks[i], true
		}
	}
	return nil, false
}

// TopologicalOrder returns task ids in an order where every dependency
// precedes its dependents, or an error if the dependency graph has a
// cycle or references an unknown task id.
func (p *Plan) TopologicalOrder() ([]string, error) {
	indegree := make(map[string]int, len(p.Tasks))
	dependents := make(map[string][]string, len(p.Tasks))
	known := make(map[string]bool, len(p.Tasks))
	for _, t := range p.Tasks {
		known[t.ID] = true
	}
	for _, t := range p.Tasks {
		for _, dep := range t.Dependencies {
			if !known[dep] {
				return nil, &PlanError{TaskID: t.ID, Message: "unknown dependency " + dep}
			}
			dependents[dep] = append(dependents[dep], t.ID)
			indegree[t.ID]++
		}
	}

	var queue []string
	for _, t := range p.Tasks {
		if indegree[t.ID] == 0 {
			queue = append(queue, t.ID)
		}
	}

	var order []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) != len(p.Tasks) {
		return nil, &PlanError{Message: "dependency cycle detected"}
	}
	return order, nil
}

// PlanError reports a structural problem with a Plan's dependency graph.
type PlanError struct {
	TaskID  string
	Message string
}

func (e *PlanError) Error() string {
	if e.TaskID != "" {
		return "plan: task " + e.TaskID + ": " + e.Message
	}
	return "plan: " + e.Message
}
