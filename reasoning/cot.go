package reasoning

import (
	"context"
	"fmt"

	"github.com/kadirpekel/minion/schema"
)

func init() { Register("cot", func() Worker { return &ChainOfThoughtWorker{} }) }

const cotInstructions = "Think step by step. When you reach a conclusion, end your response with a line starting 'Final Answer:'."

// ChainOfThoughtWorker issues a single call with a chain-of-thought
// framing and extracts the answer via the final-answer regex, falling
// back to the last paragraph, per spec.md §4.6's `cot` row.
type ChainOfThoughtWorker struct{}

func (w *ChainOfThoughtWorker) Name() string { return "cot" }

func (w *ChainOfThoughtWorker) Execute(ctx context.Context, input schema.Input, deps Deps) (*schema.AgentResponse, error) {
	input = input.Clone()
	input.SystemPrompt = joinPrompt(input.SystemPrompt, cotInstructions)

	res, err := deps.Node.Run(ctx, input, deps.Tools, deps.ToolChoice, deps.Stream)
	if err != nil {
		return nil, fmt.Errorf("cot: %w", err)
	}
	text := firstAssistantText(res.Messages)
	return &schema.AgentResponse{
		Answer:     extractFinalAnswer(text),
		Terminated: res.Terminated,
		Messages:   res.Messages,
		RawReply:   res.Response,
	}, nil
}

func joinPrompt(base, addition string) string {
	if base == "" {
		return addition
	}
	return base + "\n\n" + addition
}
