package agentloop

import (
	"context"
	"fmt"

	"github.com/kadirpekel/minion/llms"
	"github.com/kadirpekel/minion/schema"
)

// autoCompact implements spec.md §4.9's auto-compact pass, run before
// each new step: if the approximate token count of state's messages is
// >= auto_compact_threshold × token_budget, pin system messages and the
// last auto_compact_keep_recent messages, summarize the intervening
// span via the compact model, and replace it with one synthetic
// "[Conversation Summary]" system message. On summarization failure,
// history is left unchanged and a warning chunk is emitted instead.
func (a *Agent) autoCompact(ctx context.Context, state *schema.AgentState, out chan<- schema.StreamChunk) error {
	if !a.Config.AutoCompact || a.tokenizer == nil {
		return nil
	}
	messages := state.Messages()
	if a.tokenizer.CountMessages(messages) < int(a.Config.AutoCompactThreshold*float64(a.Config.TokenBudget)) {
		return nil
	}

	pinnedIdx := make(map[int]bool)
	for i, m := range messages {
		if m.Role == schema.RoleSystem {
			pinnedIdx[i] = true
		}
	}
	keepFrom := len(messages) - a.Config.AutoCompactKeepRecent
	for i := keepFrom; i < len(messages); i++ {
		if i >= 0 {
			pinnedIdx[i] = true
		}
	}

	var span []schema.Message
	var spanStart int = -1
	for i, m := range messages {
		if pinnedIdx[i] {
			continue
		}
		if spanStart == -1 {
			spanStart = i
		}
		span = append(span, m)
	}
	if len(span) == 0 {
		return nil // nothing to compact once pins are excluded
	}

	summary, err := a.summarize(ctx, span)
	if err != nil {
		emit(out, schema.ChunkWarning, fmt.Sprintf("auto-compact: summarization failed, leaving history unchanged: %v", err), nil)
		return nil
	}

	newHistory := make([]schema.HistoryEntry, 0, len(state.History)-len(span)+1)
	for i, h := range state.History {
		if i == spanStart {
			newHistory = append(newHistory, schema.HistoryEntry{
				Message: schema.NewTextMessage(schema.RoleSystem, "[Conversation Summary]\n"+summary),
				Step:    h.Step,
			})
		}
		if pinnedIdx[i] {
			newHistory = append(newHistory, h)
		}
	}
	state.History = newHistory
	return nil
}

// summarize asks the compact model to summarize span into one paragraph.
func (a *Agent) summarize(ctx context.Context, span []schema.Message) (string, error) {
	provider, err := a.Brain.Models.GetProvider(a.Config.CompactModel)
	if err != nil {
		provider, err = a.Brain.Models.Default()
		if err != nil {
			return "", err
		}
	}
	prompt := []schema.Message{
		schema.NewTextMessage(schema.RoleSystem, "Summarize the following conversation span concisely, preserving any facts a later turn may need to refer back to."),
	}
	prompt = append(prompt, span...)
	resp, err := provider.Generate(ctx, prompt, llms.GenerateOptions{})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func emit(out chan<- schema.StreamChunk, kind schema.ChunkType, content string, metadata map[string]any) {
	if out == nil {
		return
	}
	out <- schema.NewChunk(kind, content, metadata)
}
