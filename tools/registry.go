package tools

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/kadirpekel/minion/schema"
)

// RegistryError is a structured, component-tagged registry failure.
type RegistryError struct {
	Action  string
	Message string
	Err     error
}

func (e *RegistryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tools[%s]: %s: %v", e.Action, e.Message, e.Err)
	}
	return fmt.Sprintf("tools[%s]: %s", e.Action, e.Message)
}

func (e *RegistryError) Unwrap() error { return e.Err }

// Factory builds a Tool on demand. Factories run at most once per name:
// the registry wraps each with a sync.Once so concurrent first-use
// (e.g. two reasoning strategies calling LoadTool("web_search")
// simultaneously) never double-constructs.
type Factory func(ctx context.Context) (Tool, error)

type entry struct {
	info    schema.ToolInfo
	factory Factory

	once sync.Once
	tool Tool
	err  error
}

// Registry holds every tool known to the system, lazily constructed.
// Entries registered with RegisterDeferred only materialize on first
// Execute/LoadTool.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	sources []Source
}

// NewRegistry builds an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds a tool that is already constructed, uncategorized.
func (r *Registry) Register(name string, t Tool) error {
	return r.RegisterWithCategory(name, "", t)
}

// RegisterWithCategory adds an already-constructed tool tagged with a
// search category. Categories are a set partition used only for
// search filtering and reporting (spec.md §3) — Search's category
// argument, GetToolsByCategory, GetCategories and GetStats read this
// field, nothing else depends on it.
func (r *Registry) RegisterWithCategory(name, category string, t Tool) error {
	if name == "" {
		return &RegistryError{Action: "Register", Message: "tool name cannot be empty"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	info := infoFromDescriptor(t.Descriptor(), "local")
	info.Category = category
	e := &entry{info: info, tool: t}
	e.once.Do(func() {}) // mark as already constructed
	r.entries[name] = e
	return nil
}

// ToolSpec bundles a constructed Tool and its category for RegisterMany.
type ToolSpec struct {
	Name     string
	Category string
	Tool     Tool
}

// RegisterMany registers several already-constructed tools in one
// call, stopping at the first failure.
func (r *Registry) RegisterMany(specs ...ToolSpec) error {
	for _, s := range specs {
		if err := r.RegisterWithCategory(s.Name, s.Category, s.Tool); err != nil {
			return err
		}
	}
	return nil
}

// RegisterDeferred adds a tool description with a factory that builds
// the real Tool only when first needed.
func (r *Registry) RegisterDeferred(info schema.ToolInfo, factory Factory) error {
	if info.Name == "" {
		return &RegistryError{Action: "RegisterDeferred", Message: "tool name cannot be empty"}
	}
	if factory == nil {
		return &RegistryError{Action: "RegisterDeferred", Message: "factory cannot be nil"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[info.Name] = &entry{info: info, factory: factory}
	return nil
}

// RegisterFactory is RegisterDeferred's convenience form: the caller
// supplies just a name and category instead of a full ToolInfo, since
// the factory's Tool won't report Description/Parameters until it is
// actually loaded anyway.
func (r *Registry) RegisterFactory(name, category string, factory Factory) error {
	return r.RegisterDeferred(schema.ToolInfo{Name: name, Category: category}, factory)
}

// AddSource registers a tool Source whose tools merge into List/Search
// results without being copied into entries until loaded.
func (r *Registry) AddSource(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, s)
}

// Sources returns the registered tool sources, for Setup/Close by the
// owner (brain or agent loop).
func (r *Registry) Sources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// LoadTool forces construction of the named tool, invoking its factory
// at most once, and returns it.
func (r *Registry) LoadTool(ctx context.Context, name string) (Tool, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if ok {
		return loadEntry(ctx, e)
	}

	for _, s := range r.Sources() {
		if t, ok := s.Get(name); ok {
			return t, nil
		}
	}
	return nil, &RegistryError{Action: "LoadTool", Message: fmt.Sprintf("tool %q not found", name)}
}

func loadEntry(ctx context.Context, e *entry) (Tool, error) {
	e.once.Do(func() {
		if e.tool != nil {
			return
		}
		e.tool, e.err = e.factory(ctx)
	})
	if e.err != nil {
		return nil, &RegistryError{Action: "LoadTool", Message: fmt.Sprintf("tool %q failed to load", e.info.Name), Err: e.err}
	}
	return e.tool, nil
}

// Execute loads (if needed) and runs the named tool.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (Result, error) {
	t, err := r.LoadTool(ctx, name)
	if err != nil {
		return Result{}, err
	}
	return t.Execute(ctx, args)
}

// List returns metadata for every registered tool plus every tool
// advertised by a registered Source, without forcing construction.
func (r *Registry) List() []schema.ToolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]schema.ToolInfo, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.info)
	}
	for _, s := range r.sources {
		out = append(out, s.List()...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SearchStrategy selects how tool_search matches a query against tool
// metadata.
type SearchStrategy string

const (
	SearchKeyword SearchStrategy = "keyword"
	SearchRegexp  SearchStrategy = "regexp"
	SearchBM25    SearchStrategy = "bm25"
)

// Search finds tools matching query using strategy, returning the
// lightweight ToolInfo (not the full descriptor) so a reasoning worker
// can survey candidates before paying the cost of LoadTool. category,
// when non-empty, restricts candidates to that partition before
// strategy-specific matching runs (spec.md §3's `tool_search(...,
// category?)`).
func (r *Registry) Search(query string, strategy SearchStrategy, category string, limit int) ([]schema.ToolInfo, error) {
	candidates := r.List()
	if category != "" {
		candidates = filterByCategory(candidates, category)
	}
	switch strategy {
	case SearchRegexp:
		re, err := regexp.Compile(query)
		if err != nil {
			return nil, &RegistryError{Action: "Search", Message: "invalid regexp", Err: err}
		}
		var out []schema.ToolInfo
		for _, info := range candidates {
			if re.MatchString(info.Name) || re.MatchString(info.Description) {
				out = append(out, info)
			}
		}
		return clamp(out, limit), nil
	case SearchBM25:
		return clamp(bm25Rank(candidates, query), limit), nil
	case SearchKeyword, "":
		var out []schema.ToolInfo
		for _, info := range candidates {
			if containsFold(info.Name, query) || containsFold(info.Description, query) {
				out = append(out, info)
			}
		}
		return clamp(out, limit), nil
	default:
		return nil, &RegistryError{Action: "Search", Message: fmt.Sprintf("unknown strategy %q", strategy)}
	}
}

func clamp(infos []schema.ToolInfo, limit int) []schema.ToolInfo {
	if limit > 0 && len(infos) > limit {
		return infos[:limit]
	}
	return infos
}

func filterByCategory(infos []schema.ToolInfo, category string) []schema.ToolInfo {
	var out []schema.ToolInfo
	for _, info := range infos {
		if info.Category == category {
			out = append(out, info)
		}
	}
	return out
}

// GetToolsByCategory returns every registered tool tagged with
// category, in the same order List() would return them.
func (r *Registry) GetToolsByCategory(category string) []schema.ToolInfo {
	return filterByCategory(r.List(), category)
}

// GetCategories returns every distinct non-empty category currently in
// use, sorted for stable display.
func (r *Registry) GetCategories() []string {
	seen := make(map[string]bool)
	for _, info := range r.List() {
		if info.Category != "" {
			seen[info.Category] = true
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// RegistryStats summarizes GetStats' tool counts.
type RegistryStats struct {
	TotalTools int
	ByCategory map[string]int
	BySource   map[string]int
}

// GetStats reports how many tools are registered in total, broken down
// by category and by source (local vs. each tool collection's name).
func (r *Registry) GetStats() RegistryStats {
	stats := RegistryStats{ByCategory: make(map[string]int), BySource: make(map[string]int)}
	for _, info := range r.List() {
		stats.TotalTools++
		if info.Category != "" {
			stats.ByCategory[info.Category]++
		}
		if info.Source != "" {
			stats.BySource[info.Source]++
		}
	}
	return stats
}
