package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kadirpekel/minion/schema"
)

// Skill is a directory-packaged bundle of instructions plus scripts
// (spec.md §GLOSSARY "Skill"). SkillCollection only loads bundles and
// returns them from Skills; nothing in this module injects a Skill's
// Scripts into an interpreter or adds its Instructions to a system
// prompt (agentloop.Agent.Setup runs the sources of its own
// Agent.Skills list instead).
type Skill struct {
	Name         string
	Instructions string
	Scripts      []string // raw script source, one entry per *.py file
}

// SkillConfig configures one filesystem-directory skill collection.
type SkillConfig struct {
	Name string
	Dir  string // one subdirectory per skill; each holds SKILL.md plus *.py scripts
	Watch bool  // live-reload on filesystem changes, via fsnotify
}

// SkillCollection is a tools.Source over a directory of skill bundles,
// grounded on the teacher pack's internal/skills managers (e.g.
// haasonsaas-nexus/internal/skills/manager.go) for the fsnotify-driven
// watch/refresh loop, narrowed from their gating/cache/web-API surface
// down to discovery plus live reload.
type SkillCollection struct {
	cfg SkillConfig

	mu      sync.RWMutex
	skills  map[string]*Skill
	healthy bool

	watcher     *fsnotify.Watcher
	watchCancel context.CancelFunc
	watchWg     sync.WaitGroup
}

// NewSkillCollection builds a SkillCollection over cfg.Dir.
func NewSkillCollection(cfg SkillConfig) *SkillCollection {
	return &SkillCollection{cfg: cfg, skills: make(map[string]*Skill)}
}

func (c *SkillCollection) Name() string { return c.cfg.Name }
func (c *SkillCollection) Kind() string { return "skill" }

// Setup discovers every skill bundle under cfg.Dir and, if cfg.Watch is
// set, starts a background watcher that rediscovers on any change.
func (c *SkillCollection) Setup(ctx context.Context) error {
	if err := c.discover(); err != nil {
		return fmt.Errorf("skill collection %q: %w", c.cfg.Name, err)
	}
	if c.cfg.Watch {
		if err := c.startWatching(ctx); err != nil {
			return fmt.Errorf("skill collection %q: starting watch: %w", c.cfg.Name, err)
		}
	}
	return nil
}

func (c *SkillCollection) discover() error {
	entries, err := os.ReadDir(c.cfg.Dir)
	if err != nil {
		c.mu.Lock()
		c.healthy = false
		c.mu.Unlock()
		return err
	}

	skills := make(map[string]*Skill, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		skill, err := loadSkillDir(filepath.Join(c.cfg.Dir, entry.Name()))
		if err != nil {
			continue // a malformed bundle is skipped, not a hard Setup failure
		}
		skills[skill.Name] = skill
	}

	c.mu.Lock()
	c.skills = skills
	c.healthy = true
	c.mu.Unlock()
	return nil
}

func loadSkillDir(dir string) (*Skill, error) {
	instructionsPath := filepath.Join(dir, "SKILL.md")
	raw, err := os.ReadFile(instructionsPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", instructionsPath, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var scripts []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".py") {
			continue
		}
		src, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		scripts = append(scripts, string(src))
	}

	return &Skill{
		Name:         filepath.Base(dir),
		Instructions: strings.TrimSpace(string(raw)),
		Scripts:      scripts,
	}, nil
}

func (c *SkillCollection) startWatching(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(c.cfg.Dir); err != nil {
		watcher.Close()
		return err
	}

	c.mu.Lock()
	c.watcher = watcher
	c.mu.Unlock()

	watchCtx, cancel := context.WithCancel(ctx)
	c.watchCancel = cancel

	c.watchWg.Add(1)
	go c.watchLoop(watchCtx, watcher)
	return nil
}

func (c *SkillCollection) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer c.watchWg.Done()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(250*time.Millisecond, func() { _ = c.discover() })
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (c *SkillCollection) Close() error {
	if c.watchCancel != nil {
		c.watchCancel()
	}
	c.mu.Lock()
	watcher := c.watcher
	c.watcher = nil
	c.healthy = false
	c.mu.Unlock()

	if watcher != nil {
		_ = watcher.Close()
	}
	c.watchWg.Wait()
	return nil
}

func (c *SkillCollection) Healthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.healthy
}

// Skills returns every currently loaded skill.
func (c *SkillCollection) Skills() []*Skill {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Skill, 0, len(c.skills))
	for _, s := range c.skills {
		out = append(out, s)
	}
	return out
}

// List exposes each skill as a tool whose Execute returns the skill's
// instructions, so a model that discovers skills via tool_search can
// read one without the agent loop's system-prompt injection path.
func (c *SkillCollection) List() []schema.ToolInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]schema.ToolInfo, 0, len(c.skills))
	for _, s := range c.skills {
		out = append(out, infoFromDescriptor(skillTool{skill: s}.Descriptor(), c.cfg.Name))
	}
	return out
}

func (c *SkillCollection) Get(name string) (Tool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.skills[strings.TrimPrefix(name, "skill_")]
	if !ok {
		return nil, false
	}
	return skillTool{skill: s}, true
}

// skillTool exposes a Skill's instructions as a directly callable tool.
type skillTool struct{ skill *Skill }

func (t skillTool) Descriptor() schema.ToolDescriptor {
	return schema.ToolDescriptor{
		Name:        "skill_" + t.skill.Name,
		Description: "Returns the instructions for the " + t.skill.Name + " skill.",
		OutputType:  "string",
	}
}

func (t skillTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	return Result{Success: true, Content: t.skill.Instructions, ToolName: "skill_" + t.skill.Name}, nil
}

var _ Source = (*SkillCollection)(nil)
var _ Tool = skillTool{}
