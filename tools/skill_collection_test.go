package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkillBundle(t *testing.T, root, name, instructions, script string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(instructions), 0o644))
	if script != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "run.py"), []byte(script), 0o644))
	}
}

func TestSkillCollection_DiscoversBundles(t *testing.T) {
	root := t.TempDir()
	writeSkillBundle(t, root, "summarize", "Summarize the given text concisely.", "def helper():\n    pass\n")
	writeSkillBundle(t, root, "translate", "Translate text between languages.", "")

	c := NewSkillCollection(SkillConfig{Name: "local-skills", Dir: root})
	require.NoError(t, c.Setup(context.Background()))
	defer c.Close()

	assert.True(t, c.Healthy())

	skills := c.Skills()
	assert.Len(t, skills, 2)

	byName := make(map[string]*Skill, len(skills))
	for _, s := range skills {
		byName[s.Name] = s
	}
	require.Contains(t, byName, "summarize")
	assert.Equal(t, "Summarize the given text concisely.", byName["summarize"].Instructions)
	require.Len(t, byName["summarize"].Scripts, 1)
	assert.Contains(t, byName["summarize"].Scripts[0], "def helper")
	assert.Empty(t, byName["translate"].Scripts)
}

func TestSkillCollection_ExposesSkillsAsTools(t *testing.T) {
	root := t.TempDir()
	writeSkillBundle(t, root, "summarize", "Summarize the given text concisely.", "")

	c := NewSkillCollection(SkillConfig{Name: "local-skills", Dir: root})
	require.NoError(t, c.Setup(context.Background()))
	defer c.Close()

	infos := c.List()
	require.Len(t, infos, 1)
	assert.Equal(t, "skill_summarize", infos[0].Name)

	tool, ok := c.Get("skill_summarize")
	require.True(t, ok)
	res, err := tool.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Summarize the given text concisely.", res.Content)
}

func TestSkillCollection_MissingDirMarksUnhealthy(t *testing.T) {
	c := NewSkillCollection(SkillConfig{Name: "missing", Dir: filepath.Join(t.TempDir(), "does-not-exist")})
	err := c.Setup(context.Background())
	assert.Error(t, err)
	assert.False(t, c.Healthy())
}

func TestProcessCollectionAndMCPCollection_NameKind(t *testing.T) {
	pc := NewProcessCollection(ProcessConfig{Name: "proc-tools", Path: "/bin/does-not-matter"})
	assert.Equal(t, "proc-tools", pc.Name())
	assert.Equal(t, "process", pc.Kind())
	assert.False(t, pc.Healthy())

	mc := NewMCPCollection(MCPConfig{Name: "mcp-tools", Command: "/bin/does-not-matter"})
	assert.Equal(t, "mcp-tools", mc.Name())
	assert.Equal(t, "mcp", mc.Kind())
	assert.False(t, mc.Healthy())
}
