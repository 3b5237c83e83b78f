package reasoning

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/kadirpekel/minion/schema"
)

func init() { Register("native", func() Worker { return &NativeWorker{} }) }

// NativeWorker templates the system prompt against input.Metadata before
// a single Action Node call; the answer is the last assistant message,
// per spec.md §4.6's `native` row.
//
// No templating library in the retrieved corpus has a confirmed usage
// site (go.mod listings for Jinja-alike engines appear only as
// transitive entries, never imported by visible code), so this uses
// text/template rather than guess at an unverified third-party API.
type NativeWorker struct{}

func (w *NativeWorker) Name() string { return "native" }

func (w *NativeWorker) Execute(ctx context.Context, input schema.Input, deps Deps) (*schema.AgentResponse, error) {
	rendered, err := renderPrompt(input.SystemPrompt, input.Metadata)
	if err != nil {
		return nil, fmt.Errorf("native: %w", err)
	}
	input = input.Clone()
	input.SystemPrompt = rendered

	res, err := deps.Node.Run(ctx, input, deps.Tools, deps.ToolChoice, deps.Stream)
	if err != nil {
		return nil, fmt.Errorf("native: %w", err)
	}
	return &schema.AgentResponse{
		Answer:     lastAssistantText(res.Messages),
		Terminated: res.Terminated,
		Messages:   res.Messages,
		RawReply:   res.Response,
	}, nil
}

func renderPrompt(src string, data map[string]any) (string, error) {
	if src == "" || !strings.Contains(src, "{{") {
		return src, nil
	}
	tpl, err := template.New("system_prompt").Parse(src)
	if err != nil {
		return "", fmt.Errorf("parsing prompt template: %w", err)
	}
	var sb strings.Builder
	if err := tpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering prompt template: %w", err)
	}
	return sb.String(), nil
}
