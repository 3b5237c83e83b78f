package reasoning

import (
	"context"
	"fmt"

	"github.com/kadirpekel/minion/schema"
)

func init() { Register("raw", func() Worker { return &RawWorker{} }) }

// RawWorker runs a single Action Node call with no post-processing: the
// answer is the full assistant text, per spec.md §4.6's `raw` row.
type RawWorker struct{}

func (w *RawWorker) Name() string { return "raw" }

func (w *RawWorker) Execute(ctx context.Context, input schema.Input, deps Deps) (*schema.AgentResponse, error) {
	res, err := deps.Node.Run(ctx, input, deps.Tools, deps.ToolChoice, deps.Stream)
	if err != nil {
		return nil, fmt.Errorf("raw: %w", err)
	}
	return &schema.AgentResponse{
		Answer:     firstAssistantText(res.Messages),
		Terminated: res.Terminated,
		Messages:   res.Messages,
		RawReply:   res.Response,
	}, nil
}
