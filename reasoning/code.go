package reasoning

import (
	"context"

	"github.com/kadirpekel/minion/interpreter"
	"github.com/kadirpekel/minion/schema"
)

func init() { Register("code", func() Worker { return &CodeWorker{} }) }

const codeInstructions = `Respond in a Thought / Code / Observation cycle:
Thought: briefly explain your plan.
Code:
` + "```python" + `
<your python code>
` + "```<END>" + `
Call final_answer(...) in code when you have reached a conclusion.`

// CodeWorker is the structured variant of PythonWorker: it enforces a
// Thought → Code → Observation block with an end-of-code sentinel and
// extracts the first complete code block via the three-format extractor
// the interpreter package exposes, per spec.md §4.6's `code` row and §6's
// code-block-extraction priority list.
type CodeWorker struct{}

func (w *CodeWorker) Name() string { return "code" }

func (w *CodeWorker) Execute(ctx context.Context, input schema.Input, deps Deps) (*schema.AgentResponse, error) {
	return runCodeLoop(ctx, input, deps, codeInstructions, interpreter.ExtractCodeBlock)
}
