// Package actionnode implements the Action Node (C5): the single atomic
// LLM turn shared by every reasoning Worker. A turn normalizes the
// Worker's input into messages, attaches the tool surface, calls the
// provider, dispatches any tool calls the response carries, and reports
// whether the turn terminated the enclosing step.
package actionnode

import (
	"context"
	"fmt"

	"github.com/kadirpekel/minion/llms"
	"github.com/kadirpekel/minion/schema"
	"github.com/kadirpekel/minion/telemetry"
	"github.com/kadirpekel/minion/tools"
)

// ToolExecutor runs one named tool call. tools.Registry satisfies this
// directly; tests and workers that don't need the full registry can
// supply a narrower stand-in.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args map[string]any) (tools.Result, error)
}

// Node executes Action Node turns against one provider and tool
// executor. A Node carries no per-turn state; one Node is reused across
// a Worker's entire reasoning loop.
type Node struct {
	Provider llms.Provider
	Executor ToolExecutor

	// Recorder is the optional telemetry seam over Action Node calls and
	// cost accounting. A nil Recorder (the zero value) makes Run's
	// telemetry calls no-ops.
	Recorder *telemetry.Recorder
}

// New builds a Node over provider and executor. executor may be nil for
// a Worker that never declares tools.
func New(provider llms.Provider, executor ToolExecutor) *Node {
	return &Node{Provider: provider, Executor: executor}
}

// Result is everything one Action Node turn produced: the assistant
// message and any tool-role replies, in emission order, plus whether the
// turn reached a final answer.
type Result struct {
	Messages    []schema.Message
	ToolResults []schema.ToolResponseWire
	Terminated  bool
	Response    llms.Response
}

// Run executes exactly one LLM turn, per spec.md §4.5:
//  1. normalize input into messages;
//  2. attach toolDescs and toolChoice;
//  3. call the provider, streaming to out when input.Stream is set;
//  4. dispatch any tool calls in order, stopping after a final_answer
//     call; report the assistant message(s), tool results, and whether
//     the turn terminated.
//
// out receives StreamChunks as they occur and may be nil; Run never
// closes it, since a Worker typically shares one channel across several
// Node.Run calls within a single step.
func (n *Node) Run(ctx context.Context, input schema.Input, toolDescs []schema.ToolDescriptor, toolChoice llms.ToolChoice, out chan<- schema.StreamChunk) (*Result, error) {
	messages, err := schema.CanonicalizeQuery(input.Query, input.SystemPrompt)
	if err != nil {
		return nil, fmt.Errorf("actionnode: %w", err)
	}
	if input.Answer != "" {
		messages = append(messages, schema.NewTextMessage(schema.RoleAssistant, input.Answer))
	}
	if input.Feedback != "" {
		messages = append(messages, schema.NewTextMessage(schema.RoleUser, input.Feedback))
	}

	opts := llms.GenerateOptions{Tools: toolDescs, ToolChoice: toolChoice}

	ctx, span := n.Recorder.StartActionNode(ctx, n.Provider.ModelName())

	var resp llms.Response
	if input.Stream && out != nil {
		resp, err = n.runStreaming(ctx, messages, opts, out)
	} else {
		resp, err = n.Provider.Generate(ctx, messages, opts)
	}
	if err != nil {
		span.End(err)
		emit(out, schema.ChunkError, err.Error(), nil)
		return nil, fmt.Errorf("actionnode: provider call failed: %w", err)
	}
	span.AddCost(resp.PromptTokens, resp.CompletionTokens, llms.CostOf(n.Provider.ModelName(), resp.PromptTokens, resp.CompletionTokens))
	span.End(nil)
	if !input.Stream {
		emit(out, schema.ChunkText, resp.Text, nil)
	}

	resultMessages := []schema.Message{{Role: schema.RoleAssistant, Text: resp.Text, ToolCalls: resp.ToolCalls}}

	var toolResults []schema.ToolResponseWire
	terminated := false
	for _, call := range resp.ToolCalls {
		emit(out, schema.ChunkToolCall, call.Name, map[string]any{"id": call.ID, "arguments": call.Arguments})

		wire := n.dispatch(ctx, call)
		toolResults = append(toolResults, wire)
		resultMessages = append(resultMessages, schema.NewToolMessage(wire.ToolCallID, call.Name, wire.Content))

		emit(out, schema.ChunkToolResp, wire.Content, map[string]any{"tool_call_id": wire.ToolCallID, "is_error": wire.IsError})

		if call.Name == "final_answer" {
			if wire.IsError {
				return nil, fmt.Errorf("actionnode: final_answer tool failed: %s", wire.Content)
			}
			terminated = true
			break // stop dispatching further tool calls, per spec.md §4.5.4
		}
	}

	emit(out, schema.ChunkCompletion, resp.Text, nil)

	return &Result{Messages: resultMessages, ToolResults: toolResults, Terminated: terminated, Response: resp}, nil
}

// runStreaming drives the provider's streaming call on a goroutine so it
// can block writing tokens while Run re-wraps each token as a
// schema.StreamChunk for the caller's channel.
func (n *Node) runStreaming(ctx context.Context, messages []schema.Message, opts llms.GenerateOptions, out chan<- schema.StreamChunk) (llms.Response, error) {
	tokens := make(chan string)
	done := make(chan struct{})
	var resp llms.Response
	var err error
	go func() {
		defer close(done)
		defer close(tokens)
		resp, err = n.Provider.GenerateStreamResponse(ctx, messages, opts, tokens)
	}()
	for tok := range tokens {
		emit(out, schema.ChunkLLMOutput, tok, nil)
	}
	<-done
	return resp, err
}

// dispatch executes one tool call and renders its outcome as the wire
// shape, never returning a Go error itself: per spec.md §4.5, tool
// failures are reported as error-flagged tool_response chunks rather
// than aborting the turn.
func (n *Node) dispatch(ctx context.Context, call schema.ToolCallWire) schema.ToolResponseWire {
	if n.Executor == nil {
		return schema.ToolResponseWire{ToolCallID: call.ID, Content: fmt.Sprintf("no tool executor configured for %q", call.Name), IsError: true}
	}
	res, err := n.Executor.Execute(ctx, call.Name, call.Arguments)
	if err != nil {
		return schema.ToolResponseWire{ToolCallID: call.ID, Content: err.Error(), IsError: true}
	}
	if !res.Success && res.Error != "" {
		return schema.ToolResponseWire{ToolCallID: call.ID, Content: res.Error, IsError: true}
	}
	return schema.ToolResponseWire{ToolCallID: call.ID, Content: res.Content}
}

func emit(out chan<- schema.StreamChunk, kind schema.ChunkType, content string, metadata map[string]any) {
	if out == nil {
		return
	}
	out <- schema.NewChunk(kind, content, metadata)
}
