package tools

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/minion/schema"
)

type echoTool struct{ name string }

func (t *echoTool) Descriptor() schema.ToolDescriptor {
	return schema.ToolDescriptor{Name: t.name, Description: "echoes its input"}
}

func (t *echoTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	return Result{Success: true, ToolName: t.name, Output: args}, nil
}

func TestRegistryDeferredFactoryRunsAtMostOnce(t *testing.T) {
	r := NewRegistry()
	var constructions int32
	require.NoError(t, r.RegisterDeferred(schema.ToolInfo{Name: "slow"}, func(ctx context.Context) (Tool, error) {
		atomic.AddInt32(&constructions, 1)
		return &echoTool{name: "slow"}, nil
	}))

	for i := 0; i < 5; i++ {
		_, err := r.LoadTool(context.Background(), "slow")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), constructions)
}

func TestRegistryListDoesNotForceConstruction(t *testing.T) {
	r := NewRegistry()
	var constructed bool
	require.NoError(t, r.RegisterDeferred(schema.ToolInfo{Name: "lazy", Description: "a lazy tool"}, func(ctx context.Context) (Tool, error) {
		constructed = true
		return &echoTool{name: "lazy"}, nil
	}))

	infos := r.List()
	require.Len(t, infos, 1)
	assert.Equal(t, "lazy", infos[0].Name)
	assert.False(t, constructed)
}

func TestRegistryExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Execute(context.Background(), "missing", nil)
	require.Error(t, err)
}

func TestRegistrySearchKeywordAndRegexp(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("file_read", &echoTool{name: "file_read"}))
	require.NoError(t, r.Register("web_search", &echoTool{name: "web_search"}))

	byKeyword, err := r.Search("file", SearchKeyword, "", 0)
	require.NoError(t, err)
	require.Len(t, byKeyword, 1)
	assert.Equal(t, "file_read", byKeyword[0].Name)

	byRegexp, err := r.Search("^web_", SearchRegexp, "", 0)
	require.NoError(t, err)
	require.Len(t, byRegexp, 1)
	assert.Equal(t, "web_search", byRegexp[0].Name)
}

func TestRegistrySearchBM25RanksByRelevance(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("calculator", &echoTool{name: "calculator"}))
	require.NoError(t, r.Register("unit_converter", &echoTool{name: "unit_converter"}))

	results, err := r.Search("calculator arithmetic", SearchBM25, "", 0)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "calculator", results[0].Name)
}

func TestRegistryCategoryFilteringAndStats(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterWithCategory("file_read", "filesystem", &echoTool{name: "file_read"}))
	require.NoError(t, r.RegisterWithCategory("file_write", "filesystem", &echoTool{name: "file_write"}))
	require.NoError(t, r.RegisterWithCategory("web_search", "web", &echoTool{name: "web_search"}))
	require.NoError(t, r.Register("uncategorized", &echoTool{name: "uncategorized"}))

	assert.Equal(t, []string{"filesystem", "web"}, r.GetCategories())

	byCategory := r.GetToolsByCategory("filesystem")
	require.Len(t, byCategory, 2)

	filtered, err := r.Search("file", SearchKeyword, "filesystem", 0)
	require.NoError(t, err)
	require.Len(t, filtered, 2)

	noMatch, err := r.Search("file", SearchKeyword, "web", 0)
	require.NoError(t, err)
	assert.Empty(t, noMatch)

	stats := r.GetStats()
	assert.Equal(t, 4, stats.TotalTools)
	assert.Equal(t, 2, stats.ByCategory["filesystem"])
	assert.Equal(t, 1, stats.ByCategory["web"])
}

func TestRegistryRegisterManyAndRegisterFactory(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterMany(
		ToolSpec{Name: "calculator", Category: "math", Tool: &echoTool{name: "calculator"}},
		ToolSpec{Name: "unit_converter", Category: "math", Tool: &echoTool{name: "unit_converter"}},
	))
	require.Len(t, r.GetToolsByCategory("math"), 2)

	var constructed bool
	require.NoError(t, r.RegisterFactory("lazy_math", "math", func(ctx context.Context) (Tool, error) {
		constructed = true
		return &echoTool{name: "lazy_math"}, nil
	}))
	require.Len(t, r.GetToolsByCategory("math"), 3)
	assert.False(t, constructed)

	_, err := r.LoadTool(context.Background(), "lazy_math")
	require.NoError(t, err)
	assert.True(t, constructed)
}
