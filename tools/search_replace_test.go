package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchReplaceReplacesUniqueMatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0644))

	tool := NewSearchReplaceTool(dir)
	result, err := tool.Execute(context.Background(), map[string]any{
		"path": "a.txt", "old_string": "world", "new_string": "minion",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello minion", string(content))

	_, err = os.Stat(path + ".bak")
	assert.NoError(t, err)
}

func TestSearchReplaceRejectsAmbiguousMatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("foo foo foo"), 0644))

	tool := NewSearchReplaceTool(dir)
	result, err := tool.Execute(context.Background(), map[string]any{
		"path": "a.txt", "old_string": "foo", "new_string": "bar",
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "appears")
}

func TestSearchReplaceAllReplacesEveryOccurrence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("foo foo foo"), 0644))

	tool := NewSearchReplaceTool(dir)
	result, err := tool.Execute(context.Background(), map[string]any{
		"path": "a.txt", "old_string": "foo", "new_string": "bar", "replace_all": true,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "bar bar bar", string(content))
}

func TestSearchReplaceRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	tool := NewSearchReplaceTool(dir)
	result, err := tool.Execute(context.Background(), map[string]any{
		"path": "../escape.txt", "old_string": "x", "new_string": "y",
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
}
