package actionnode

import (
	"context"
	"testing"

	"github.com/kadirpekel/minion/llms"
	"github.com/kadirpekel/minion/schema"
	"github.com/kadirpekel/minion/tools"
)

type fakeExecutor struct {
	calls []string
	fail  map[string]string
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args map[string]any) (tools.Result, error) {
	f.calls = append(f.calls, name)
	if msg, ok := f.fail[name]; ok {
		return tools.Result{Success: false, Error: msg}, nil
	}
	return tools.Result{Success: true, Content: "ok:" + name}, nil
}

func TestRunNonStreamingNoTools(t *testing.T) {
	provider := llms.NewMockProvider("mock", llms.ScriptedCall{Text: "hello there"})
	node := New(provider, nil)

	res, err := node.Run(context.Background(), schema.Input{Query: "hi"}, nil, llms.ToolChoiceAuto, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Terminated {
		t.Fatal("expected not terminated")
	}
	if len(res.Messages) != 1 || res.Messages[0].Text != "hello there" {
		t.Fatalf("got %+v", res.Messages)
	}
}

func TestRunDispatchesToolCallsInOrder(t *testing.T) {
	provider := llms.NewMockProvider("mock", llms.ScriptedCall{
		Text: "using tools",
		ToolCalls: []schema.ToolCallWire{
			{ID: "1", Name: "search", Arguments: map[string]any{"q": "x"}},
			{ID: "2", Name: "calc", Arguments: map[string]any{"expr": "1+1"}},
		},
	})
	exec := &fakeExecutor{}
	node := New(provider, exec)

	res, err := node.Run(context.Background(), schema.Input{Query: "hi"}, nil, llms.ToolChoiceAuto, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(exec.calls) != 2 || exec.calls[0] != "search" || exec.calls[1] != "calc" {
		t.Fatalf("got calls %v", exec.calls)
	}
	if len(res.ToolResults) != 2 || res.ToolResults[0].Content != "ok:search" {
		t.Fatalf("got %+v", res.ToolResults)
	}
	if res.Terminated {
		t.Fatal("expected not terminated: no final_answer call")
	}
}

func TestRunStopsAfterFinalAnswer(t *testing.T) {
	provider := llms.NewMockProvider("mock", llms.ScriptedCall{
		Text: "done",
		ToolCalls: []schema.ToolCallWire{
			{ID: "1", Name: "final_answer", Arguments: map[string]any{"answer": "42"}},
			{ID: "2", Name: "search", Arguments: map[string]any{"q": "never runs"}},
		},
	})
	exec := &fakeExecutor{}
	node := New(provider, exec)

	res, err := node.Run(context.Background(), schema.Input{Query: "hi"}, nil, llms.ToolChoiceAuto, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Terminated {
		t.Fatal("expected terminated after final_answer")
	}
	if len(exec.calls) != 1 || exec.calls[0] != "final_answer" {
		t.Fatalf("expected dispatch to stop after final_answer, got %v", exec.calls)
	}
}

func TestRunToolErrorDoesNotAbortTurn(t *testing.T) {
	provider := llms.NewMockProvider("mock", llms.ScriptedCall{
		Text: "using a broken tool",
		ToolCalls: []schema.ToolCallWire{
			{ID: "1", Name: "broken", Arguments: map[string]any{}},
		},
	})
	exec := &fakeExecutor{fail: map[string]string{"broken": "boom"}}
	node := New(provider, exec)

	res, err := node.Run(context.Background(), schema.Input{Query: "hi"}, nil, llms.ToolChoiceAuto, nil)
	if err != nil {
		t.Fatalf("Run should not abort on a non-final_answer tool error: %v", err)
	}
	if len(res.ToolResults) != 1 || !res.ToolResults[0].IsError || res.ToolResults[0].Content != "boom" {
		t.Fatalf("got %+v", res.ToolResults)
	}
}

func TestRunFinalAnswerFailureIsFatal(t *testing.T) {
	provider := llms.NewMockProvider("mock", llms.ScriptedCall{
		Text: "done",
		ToolCalls: []schema.ToolCallWire{
			{ID: "1", Name: "final_answer", Arguments: map[string]any{}},
		},
	})
	exec := &fakeExecutor{fail: map[string]string{"final_answer": "misuse"}}
	node := New(provider, exec)

	_, err := node.Run(context.Background(), schema.Input{Query: "hi"}, nil, llms.ToolChoiceAuto, nil)
	if err == nil {
		t.Fatal("expected final_answer misuse to abort the turn")
	}
}

func TestRunStreamingEmitsLLMOutputChunks(t *testing.T) {
	provider := llms.NewMockProvider("mock", llms.ScriptedCall{Text: "abc"})
	node := New(provider, nil)

	out := make(chan schema.StreamChunk, 32)
	res, err := node.Run(context.Background(), schema.Input{Query: "hi", Stream: true}, nil, llms.ToolChoiceAuto, out)
	close(out)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Messages[0].Text != "abc" {
		t.Fatalf("got %+v", res.Messages)
	}

	var tokens string
	var sawCompletion bool
	for chunk := range out {
		if chunk.ChunkType == schema.ChunkLLMOutput {
			tokens += chunk.Content
		}
		if chunk.ChunkType == schema.ChunkCompletion {
			sawCompletion = true
		}
	}
	if tokens != "abc" {
		t.Fatalf("got streamed tokens %q, want %q", tokens, "abc")
	}
	if !sawCompletion {
		t.Fatal("expected a completion chunk")
	}
}
