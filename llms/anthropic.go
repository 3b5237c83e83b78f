package llms

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kadirpekel/minion/internal/httpclient"
	"github.com/kadirpekel/minion/schema"
)

// AnthropicProvider talks to the Anthropic Messages API directly over
// net/http, following the wire shapes Claude actually returns rather than
// going through a vendor SDK.
type AnthropicProvider struct {
	apiKey      string
	model       string
	host        string
	maxTokens   int
	temperature float64
	client      *http.Client

	mu      sync.Mutex
	tracker schema.CostTracker
}

// NewAnthropicProvider builds a Provider backed by the Anthropic API.
func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	return &AnthropicProvider{
		apiKey:      apiKey,
		model:       model,
		host:        "https://api.anthropic.com",
		maxTokens:   4096,
		temperature: 1.0,
		client:      &http.Client{Timeout: 120 * time.Second},
	}
}

// WithHost overrides the API host.
func (p *AnthropicProvider) WithHost(host string) *AnthropicProvider {
	if host != "" {
		p.host = host
	}
	return p
}

// WithTemperature overrides the default sampling temperature.
func (p *AnthropicProvider) WithTemperature(t float64) *AnthropicProvider {
	p.temperature = t
	return p
}

// WithMaxTokens overrides the default response token cap.
func (p *AnthropicProvider) WithMaxTokens(n int) *AnthropicProvider {
	if n > 0 {
		p.maxTokens = n
	}
	return p
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type anthropicContent struct {
	Type      string         `json:"type"`
	Text      string         `json:"text,omitempty"`
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Input     map[string]any `json:"input,omitempty"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
	Content   string         `json:"content,omitempty"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	Stream      bool               `json:"stream"`
	System      string             `json:"system,omitempty"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
	ToolChoice  map[string]string  `json:"tool_choice,omitempty"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type anthropicResponse struct {
	Content    []anthropicContent `json:"content"`
	Usage      anthropicUsage     `json:"usage"`
	Error      *anthropicError    `json:"error,omitempty"`
	StopReason string             `json:"stop_reason"`
}

type anthropicStreamEvent struct {
	Type         string            `json:"type"`
	Index        int               `json:"index"`
	Delta        *anthropicDelta   `json:"delta,omitempty"`
	ContentBlock *anthropicContent `json:"content_block,omitempty"`
	Usage        *anthropicUsage   `json:"usage,omitempty"`
	Error        *anthropicError   `json:"error,omitempty"`
}

type anthropicDelta struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
}

func (p *AnthropicProvider) buildRequest(messages []schema.Message, opts GenerateOptions, stream bool) anthropicRequest {
	var systemPrompt string
	out := make([]anthropicMessage, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case schema.RoleSystem:
			if systemPrompt != "" {
				systemPrompt += "\n\n"
			}
			systemPrompt += msg.Text
		case schema.RoleTool:
			out = append(out, anthropicMessage{
				Role: "user",
				Content: []anthropicContent{{
					Type:      "tool_result",
					ToolUseID: msg.ToolCallID,
					Content:   msg.Text,
				}},
			})
		case schema.RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				out = append(out, anthropicMessage{Role: "assistant", Content: msg.Text})
				continue
			}
			var contents []anthropicContent
			if msg.Text != "" {
				contents = append(contents, anthropicContent{Type: "text", Text: msg.Text})
			}
			for _, tc := range msg.ToolCalls {
				var args map[string]any
				_ = json.Unmarshal([]byte(tc.Arguments), &args)
				contents = append(contents, anthropicContent{Type: "tool_use", ID: tc.ID, Name: tc.Name, Input: args})
			}
			out = append(out, anthropicMessage{Role: "assistant", Content: contents})
		default:
			out = append(out, anthropicMessage{Role: "user", Content: msg.Text})
		}
	}

	temp := opts.Temperature
	if temp == 0 {
		temp = p.temperature
	}
	req := anthropicRequest{
		Model:       p.model,
		Messages:    out,
		MaxTokens:   p.maxTokens,
		Temperature: temp,
		Stream:      stream,
		System:      systemPrompt,
	}
	if len(opts.Tools) > 0 {
		tools := make([]anthropicTool, len(opts.Tools))
		for i, t := range opts.Tools {
			tools[i] = anthropicTool{Name: t.Name, Description: t.Description, InputSchema: paramsToJSONSchema(t.Inputs)}
		}
		req.Tools = tools
	}
	switch opts.ToolChoice.Mode {
	case "none":
		req.ToolChoice = map[string]string{"type": "none"}
	case "function":
		req.ToolChoice = map[string]string{"type": "tool", "name": opts.ToolChoice.Force}
	}
	return req
}

func paramsToJSONSchema(params map[string]schema.ParamSchema) map[string]any {
	props := map[string]any{}
	var required []string
	for name, p := range params {
		prop := map[string]any{"type": p.Type, "description": p.Description}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		props[name] = prop
		if !p.Optional {
			required = append(required, name)
		}
	}
	s := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func (p *AnthropicProvider) do(ctx context.Context, req anthropicRequest) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("llms/anthropic: marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llms/anthropic: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")
	return p.client.Do(httpReq)
}

func classifyStatus(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuthError, string(body))
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, string(body))
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, string(body))
	case http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%w: %s", ErrContextOverflow, string(body))
	}
	if status >= 500 || status == http.StatusRequestTimeout {
		return &httpclient.RetryableError{StatusCode: status, Message: string(body)}
	}
	return fmt.Errorf("llms/anthropic: status %d: %s", status, string(body))
}

func (p *AnthropicProvider) Generate(ctx context.Context, messages []schema.Message, opts GenerateOptions) (Response, error) {
	req := p.buildRequest(messages, opts, false)
	resp, err := p.do(ctx, req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return Response{}, classifyStatus(resp.StatusCode, body)
	}

	var ar anthropicResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return Response{}, fmt.Errorf("llms/anthropic: decode response: %w", err)
	}
	if ar.Error != nil {
		return Response{}, fmt.Errorf("llms/anthropic: %s", ar.Error.Message)
	}

	var text string
	var toolCalls []schema.ToolCallWire
	for _, c := range ar.Content {
		switch c.Type {
		case "text":
			text += c.Text
		case "tool_use":
			args, _ := json.Marshal(c.Input)
			toolCalls = append(toolCalls, schema.ToolCallWire{ID: c.ID, Name: c.Name, Arguments: string(args)})
		}
	}

	p.mu.Lock()
	p.tracker.Add(ar.Usage.InputTokens, ar.Usage.OutputTokens, CostOf(p.model, ar.Usage.InputTokens, ar.Usage.OutputTokens))
	p.mu.Unlock()

	return Response{Text: text, ToolCalls: toolCalls, PromptTokens: ar.Usage.InputTokens, CompletionTokens: ar.Usage.OutputTokens}, nil
}

func (p *AnthropicProvider) GenerateStream(ctx context.Context, messages []schema.Message, opts GenerateOptions) (<-chan string, error) {
	out := make(chan string, 64)
	go func() {
		defer close(out)
		_, _ = p.GenerateStreamResponse(ctx, messages, opts, out)
	}()
	return out, nil
}

func (p *AnthropicProvider) GenerateStreamResponse(ctx context.Context, messages []schema.Message, opts GenerateOptions, outCh chan<- string) (Response, error) {
	req := p.buildRequest(messages, opts, true)
	resp, err := p.do(ctx, req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Response{}, classifyStatus(resp.StatusCode, body)
	}

	var text strings.Builder
	var toolCalls []schema.ToolCallWire
	pending := map[int]*schema.ToolCallWire{}
	pendingRaw := map[int]string{}
	var usage anthropicUsage

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		default:
		}
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, ":") || !strings.HasPrefix(line, "data: ") {
			continue
		}
		var evt anthropicStreamEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt); err != nil {
			continue
		}
		switch evt.Type {
		case "content_block_start":
			if evt.ContentBlock != nil && evt.ContentBlock.Type == "tool_use" {
				pending[evt.Index] = &schema.ToolCallWire{ID: evt.ContentBlock.ID, Name: evt.ContentBlock.Name}
			}
		case "content_block_delta":
			if evt.Delta == nil {
				continue
			}
			if evt.Delta.Text != "" {
				text.WriteString(evt.Delta.Text)
				select {
				case outCh <- evt.Delta.Text:
				case <-ctx.Done():
					return Response{}, ctx.Err()
				}
			}
			if evt.Delta.PartialJSON != "" {
				pendingRaw[evt.Index] += evt.Delta.PartialJSON
			}
		case "content_block_stop":
			if tc, ok := pending[evt.Index]; ok {
				tc.Arguments = pendingRaw[evt.Index]
				toolCalls = append(toolCalls, *tc)
			}
		case "message_delta":
			if evt.Usage != nil {
				usage.OutputTokens = evt.Usage.OutputTokens
			}
		case "message_stop":
		}
	}
	if err := scanner.Err(); err != nil {
		return Response{}, fmt.Errorf("llms/anthropic: read stream: %w", err)
	}

	promptTokens := estimatePromptTokens(messages)
	p.mu.Lock()
	p.tracker.Add(promptTokens, usage.OutputTokens, CostOf(p.model, promptTokens, usage.OutputTokens))
	p.mu.Unlock()

	return Response{Text: text.String(), ToolCalls: toolCalls, PromptTokens: promptTokens, CompletionTokens: usage.OutputTokens}, nil
}

func (p *AnthropicProvider) GetCost() schema.CostRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracker.Snapshot()
}

func (p *AnthropicProvider) ModelName() string { return p.model }
func (p *AnthropicProvider) Close() error      { return nil }
