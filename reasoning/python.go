package reasoning

import (
	"context"

	"github.com/kadirpekel/minion/interpreter"
	"github.com/kadirpekel/minion/schema"
)

func init() { Register("python", func() Worker { return &PythonWorker{} }) }

const pythonInstructions = "Write a Python snippet to solve the task, ending with a call to final_answer(...) if you have reached a conclusion. Respond with code only."

// PythonWorker asks the LLM for a Python snippet, runs it through the
// code interpreter (C4), and retries with the error folded in as an
// Observation on failure, per spec.md §4.6's `python` row.
type PythonWorker struct{}

func (w *PythonWorker) Name() string { return "python" }

func (w *PythonWorker) Execute(ctx context.Context, input schema.Input, deps Deps) (*schema.AgentResponse, error) {
	return runCodeLoop(ctx, input, deps, pythonInstructions, interpreter.ExtractCodeBlock)
}
