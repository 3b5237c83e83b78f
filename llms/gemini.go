package llms

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"google.golang.org/genai"

	"github.com/kadirpekel/minion/schema"
)

// GeminiProvider wraps the official google.golang.org/genai SDK, unlike the
// other vendor shims which talk to their REST APIs directly: Gemini's wire
// format (thought signatures, function-call continuity) is involved enough
// that reimplementing it over net/http is not worth it.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	temperature float64
	maxTokens   int

	mu      sync.Mutex
	tracker schema.CostTracker
}

// NewGeminiProvider builds a Provider backed by the Gemini API.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llms/gemini: API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("llms/gemini: create client: %w", err)
	}
	return &GeminiProvider{client: client, model: model, temperature: 1.0, maxTokens: 4096}, nil
}

func (p *GeminiProvider) buildContents(messages []schema.Message) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	var systemInstruction *genai.Content

	for _, msg := range messages {
		if msg.Role == schema.RoleSystem {
			if systemInstruction == nil {
				systemInstruction = &genai.Content{Role: "user"}
			}
			systemInstruction.Parts = append(systemInstruction.Parts, &genai.Part{Text: msg.Text})
			continue
		}

		var parts []*genai.Part
		if msg.Role == schema.RoleTool {
			parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       msg.ToolCallID,
				Name:     msg.Name,
				Response: map[string]any{"result": msg.Text},
			}})
		} else {
			if msg.Text != "" {
				parts = append(parts, &genai.Part{Text: msg.Text})
			}
			for _, p := range msg.Parts {
				if p.Kind == schema.PartImage && p.Image != nil {
					parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: p.Image.MediaType, Data: p.Image.Data}})
				} else if p.Kind == schema.PartText {
					parts = append(parts, &genai.Part{Text: p.Text})
				}
			}
			for _, tc := range msg.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name}})
			}
		}
		if len(parts) == 0 {
			continue
		}

		role := "user"
		if msg.Role == schema.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{Parts: parts, Role: role})
	}

	return contents, systemInstruction
}

func (p *GeminiProvider) buildConfig(opts GenerateOptions, systemInstruction *genai.Content) *genai.GenerateContentConfig {
	temp := opts.Temperature
	if temp == 0 {
		temp = p.temperature
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
		Temperature:       genai.Ptr(float32(temp)),
		MaxOutputTokens:   int32(p.maxTokens),
	}
	if len(opts.Tools) > 0 {
		var decls []*genai.FunctionDeclaration
		for _, t := range opts.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  toGenaiSchema(paramsToJSONSchema(t.Inputs)),
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return cfg
}

func toGenaiSchema(s map[string]any) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{}
	if t, ok := s["type"].(string); ok {
		out.Type = genai.Type(t)
	}
	if props, ok := s["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if m, ok := raw.(map[string]any); ok {
				out.Properties[name] = toGenaiSchema(m)
			}
		}
	}
	if required, ok := s["required"].([]string); ok {
		out.Required = required
	}
	return out
}

func (p *GeminiProvider) Generate(ctx context.Context, messages []schema.Message, opts GenerateOptions) (Response, error) {
	contents, systemInstruction := p.buildContents(messages)
	cfg := p.buildConfig(opts, systemInstruction)

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if len(resp.Candidates) == 0 {
		return Response{}, fmt.Errorf("llms/gemini: no candidates returned")
	}

	var text string
	var toolCalls []schema.ToolCallWire
	if resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" && !part.Thought {
				text += part.Text
			}
			if part.FunctionCall != nil {
				args, _ := marshalArgs(part.FunctionCall.Args)
				toolCalls = append(toolCalls, schema.ToolCallWire{ID: part.FunctionCall.ID, Name: part.FunctionCall.Name, Arguments: args})
			}
		}
	}

	var promptTokens, completionTokens int
	if resp.UsageMetadata != nil {
		promptTokens = int(resp.UsageMetadata.PromptTokenCount)
		completionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	p.mu.Lock()
	p.tracker.Add(promptTokens, completionTokens, CostOf(p.model, promptTokens, completionTokens))
	p.mu.Unlock()

	return Response{Text: text, ToolCalls: toolCalls, PromptTokens: promptTokens, CompletionTokens: completionTokens}, nil
}

func (p *GeminiProvider) GenerateStream(ctx context.Context, messages []schema.Message, opts GenerateOptions) (<-chan string, error) {
	out := make(chan string, 64)
	go func() {
		defer close(out)
		_, _ = p.GenerateStreamResponse(ctx, messages, opts, out)
	}()
	return out, nil
}

func (p *GeminiProvider) GenerateStreamResponse(ctx context.Context, messages []schema.Message, opts GenerateOptions, outCh chan<- string) (Response, error) {
	contents, systemInstruction := p.buildContents(messages)
	cfg := p.buildConfig(opts, systemInstruction)

	var text string
	var toolCalls []schema.ToolCallWire
	var promptTokens, completionTokens int

	for chunk, err := range p.client.Models.GenerateContentStream(ctx, p.model, contents, cfg) {
		if err != nil {
			return Response{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		if len(chunk.Candidates) == 0 || chunk.Candidates[0].Content == nil {
			continue
		}
		for _, part := range chunk.Candidates[0].Content.Parts {
			if part.Text != "" && !part.Thought {
				text += part.Text
				select {
				case outCh <- part.Text:
				case <-ctx.Done():
					return Response{}, ctx.Err()
				}
			}
			if part.FunctionCall != nil {
				args, _ := marshalArgs(part.FunctionCall.Args)
				toolCalls = append(toolCalls, schema.ToolCallWire{ID: part.FunctionCall.ID, Name: part.FunctionCall.Name, Arguments: args})
			}
		}
		if chunk.UsageMetadata != nil {
			promptTokens = int(chunk.UsageMetadata.PromptTokenCount)
			completionTokens = int(chunk.UsageMetadata.CandidatesTokenCount)
		}
	}

	p.mu.Lock()
	p.tracker.Add(promptTokens, completionTokens, CostOf(p.model, promptTokens, completionTokens))
	p.mu.Unlock()

	return Response{Text: text, ToolCalls: toolCalls, PromptTokens: promptTokens, CompletionTokens: completionTokens}, nil
}

func (p *GeminiProvider) GetCost() schema.CostRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracker.Snapshot()
}

func (p *GeminiProvider) ModelName() string { return p.model }
func (p *GeminiProvider) Close() error      { return nil }

func marshalArgs(args map[string]any) (string, error) {
	if len(args) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(args)
	return string(b), err
}
