package reasoning

import (
	"context"
	"fmt"

	"github.com/kadirpekel/minion/interpreter"
	"github.com/kadirpekel/minion/schema"
)

// runCodeLoop drives the shared python/code retry loop: ask the LLM for
// a snippet (framed by systemPrompt), extract it with extract, run it
// through deps.Interp, and on a runtime error feed the error back as an
// Observation, for at most deps.MaxRetries rounds in all (3 when
// MaxRetries is unset), per spec.md
// §4.6's `python`/`code` rows.
func runCodeLoop(ctx context.Context, input schema.Input, deps Deps, systemPrompt string, extract func(string) string) (*schema.AgentResponse, error) {
	maxRounds := deps.MaxRetries
	if maxRounds <= 0 {
		maxRounds = 3
	}

	round := input.Clone()
	round.SystemPrompt = joinPrompt(round.SystemPrompt, systemPrompt)

	var lastRes *schema.AgentResponse
	for attempt := 0; attempt < maxRounds; attempt++ {
		turn, err := deps.Node.Run(ctx, round, deps.Tools, deps.ToolChoice, deps.Stream)
		if err != nil {
			return nil, fmt.Errorf("runCodeLoop: %w", err)
		}
		code := extract(firstAssistantText(turn.Messages))

		evalResult, evalErr := deps.Interp.Run(ctx, code)
		lastRes = &schema.AgentResponse{
			Terminated: evalErr == nil && evalResult.IsFinalAnswer,
			Messages:   turn.Messages,
			RawReply:   turn.Response,
		}
		if evalErr == nil {
			lastRes.Answer = pyAnswerString(evalResult)
			return lastRes, nil
		}

		if ie, ok := evalErr.(*interpreter.InterpreterError); ok {
			round.Feedback = fmt.Sprintf("Observation: %s: %s", ie.Kind, ie.Message)
		} else {
			round.Feedback = fmt.Sprintf("Observation: %v", evalErr)
		}
		lastRes.Answer = ""
	}
	return lastRes, fmt.Errorf("runCodeLoop: exhausted %d rounds without a successful result", maxRounds)
}

func pyAnswerString(r interpreter.Result) string {
	if s, ok := r.Value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", r.Value)
}
