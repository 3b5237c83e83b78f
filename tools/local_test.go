package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSourceRegisterListAndGet(t *testing.T) {
	src := NewLocalSource("builtin")
	require.NoError(t, src.RegisterTool(&echoTool{name: "echo"}))

	infos := src.List()
	require.Len(t, infos, 1)
	assert.Equal(t, "echo", infos[0].Name)

	tool, ok := src.Get("echo")
	require.True(t, ok)
	assert.NotNil(t, tool)

	require.NoError(t, src.RemoveTool("echo"))
	_, ok = src.Get("echo")
	assert.False(t, ok)
}

func TestLocalSourceRejectsDuplicateRegistration(t *testing.T) {
	src := NewLocalSource("builtin")
	require.NoError(t, src.RegisterTool(&echoTool{name: "echo"}))
	err := src.RegisterTool(&echoTool{name: "echo"})
	assert.Error(t, err)
}
