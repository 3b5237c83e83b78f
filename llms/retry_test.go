package llms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/minion/schema"
)

func TestWithRetryRetriesTransientErrors(t *testing.T) {
	mock := NewMockProvider("test-model",
		ScriptedCall{Err: ErrRateLimited},
		ScriptedCall{Err: ErrRateLimited},
		ScriptedCall{Text: "finally"},
	)
	p := WithRetry(mock, RetryPolicy{MaxAttempts: 5, BaseDelay: 0, MaxDelay: 0})

	resp, err := p.Generate(context.Background(), []schema.Message{schema.NewTextMessage(schema.RoleUser, "hi")}, GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "finally", resp.Text)
	assert.Equal(t, 3, mock.CallCount())
}

func TestWithRetryDoesNotRetryFatalErrors(t *testing.T) {
	mock := NewMockProvider("test-model", ScriptedCall{Err: ErrAuthError})
	p := WithRetry(mock, DefaultRetryPolicy)

	_, err := p.Generate(context.Background(), []schema.Message{schema.NewTextMessage(schema.RoleUser, "hi")}, GenerateOptions{})
	require.Error(t, err)
	assert.Equal(t, 1, mock.CallCount())
}

func TestWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	mock := NewMockProvider("test-model",
		ScriptedCall{Err: ErrRateLimited},
		ScriptedCall{Err: ErrRateLimited},
		ScriptedCall{Err: ErrRateLimited},
	)
	p := WithRetry(mock, RetryPolicy{MaxAttempts: 2, BaseDelay: 0, MaxDelay: 0})

	_, err := p.Generate(context.Background(), []schema.Message{schema.NewTextMessage(schema.RoleUser, "hi")}, GenerateOptions{})
	require.Error(t, err)
	assert.Equal(t, 2, mock.CallCount())
}
