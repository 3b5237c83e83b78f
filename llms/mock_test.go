package llms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/minion/schema"
)

func TestMockProviderPlaysBackScriptInOrder(t *testing.T) {
	mock := NewMockProvider("test-model",
		ScriptedCall{Text: "first"},
		ScriptedCall{Text: "second"},
	)

	resp, err := mock.Generate(context.Background(), nil, GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Text)

	resp, err = mock.Generate(context.Background(), nil, GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Text)

	// Script exhausted: repeats the last entry.
	resp, err = mock.Generate(context.Background(), nil, GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Text)
	assert.Equal(t, 3, mock.CallCount())
}

func TestMockProviderGenerateStreamEmitsRunes(t *testing.T) {
	mock := NewMockProvider("test-model", ScriptedCall{Text: "hi"})

	ch, err := mock.GenerateStream(context.Background(), nil, GenerateOptions{})
	require.NoError(t, err)

	var out []string
	for r := range ch {
		out = append(out, r)
	}
	assert.Equal(t, []string{"h", "i"}, out)
}

func TestMockProviderGenerateStreamRespectsCancellation(t *testing.T) {
	mock := NewMockProvider("test-model", ScriptedCall{Text: "a very long streamed response"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan string)
	resp, err := mock.GenerateStreamResponse(ctx, nil, GenerateOptions{}, out)
	assert.Error(t, err)
	assert.Equal(t, Response{}, resp)
}

func TestMockProviderCostAccumulates(t *testing.T) {
	mock := NewMockProvider("claude-opus-4", ScriptedCall{Text: "hello world"})

	_, err := mock.Generate(context.Background(), []schema.Message{schema.NewTextMessage(schema.RoleUser, "hi there")}, GenerateOptions{})
	require.NoError(t, err)

	cost := mock.GetCost()
	assert.Greater(t, cost.TotalTokens, 0)
}
