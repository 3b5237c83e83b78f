package tools

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addArgs struct {
	A int `json:"a" jsonschema:"required,description=first operand"`
	B int `json:"b" jsonschema:"required,description=second operand"`
}

func addNumbers(ctx context.Context, args addArgs) (map[string]any, error) {
	return map[string]any{"sum": args.A + args.B}, nil
}

func TestConvertBuildsDescriptorFromArgsTags(t *testing.T) {
	tool, err := Convert("add", "adds two numbers", addNumbers)
	require.NoError(t, err)

	d := tool.Descriptor()
	assert.Equal(t, "add", d.Name)
	require.Contains(t, d.Inputs, "a")
	assert.False(t, d.Inputs["a"].Optional)
}

func TestConvertExecuteDecodesArgsAndCallsFunction(t *testing.T) {
	tool, err := Convert("add", "adds two numbers", addNumbers)
	require.NoError(t, err)

	result, err := tool.Execute(context.Background(), map[string]any{"a": 2, "b": 3})
	require.NoError(t, err)
	assert.True(t, result.Success)

	out, ok := result.Output.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 5, out["sum"])
}

func TestConvertRejectsWrongSignature(t *testing.T) {
	_, err := Convert("bad", "bad signature", func(a, b int) int { return a + b })
	require.Error(t, err)
}

func TestConvertSurfacesFunctionError(t *testing.T) {
	failing := func(ctx context.Context, args addArgs) (map[string]any, error) {
		return nil, fmt.Errorf("boom")
	}
	tool, err := Convert("fails", "always fails", failing)
	require.NoError(t, err)

	result, err := tool.Execute(context.Background(), map[string]any{"a": 1, "b": 1})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "boom")
}
