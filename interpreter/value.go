package interpreter

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Value representation: nil (None), bool, int64/float64 (Python's int
// vs float distinction, promoted on mixed arithmetic), string,
// *pyList, pyTuple, *pyDict, *pySet, *pyFunction, BoundTool.

type pyList struct{ items []any }

type pyTuple []any

type pyDict struct {
	keys  []any
	index map[string]int
	vals  []any
}

func newDict() *pyDict { return &pyDict{index: map[string]int{}} }

func dictKey(k any) string {
	switch v := k.(type) {
	case string:
		return "s:" + v
	case int64:
		return "i:" + strconv.FormatInt(v, 10)
	case float64:
		return "f:" + strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return "b:" + strconv.FormatBool(v)
	case nil:
		return "n"
	default:
		return "r:" + fmt.Sprintf("%v", v)
	}
}

func (d *pyDict) set(k, v any) {
	key := dictKey(k)
	if i, ok := d.index[key]; ok {
		d.vals[i] = v
		return
	}
	d.index[key] = len(d.keys)
	d.keys = append(d.keys, k)
	d.vals = append(d.vals, v)
}

func (d *pyDict) get(k any) (any, bool) {
	i, ok := d.index[dictKey(k)]
	if !ok {
		return nil, false
	}
	return d.vals[i], true
}

func (d *pyDict) delete(k any) bool {
	i, ok := d.index[dictKey(k)]
	if !ok {
		return false
	}
	d.keys = append(d.keys[:i], d.keys[i+1:]...)
	d.vals = append(d.vals[:i], d.vals[i+1:]...)
	delete(d.index, dictKey(k))
	for key, idx := range d.index {
		if idx > i {
			d.index[key] = idx - 1
		}
	}
	return true
}

type pySet struct {
	keys  []any
	index map[string]bool
}

func newSet() *pySet { return &pySet{index: map[string]bool{}} }

func (s *pySet) add(v any) {
	k := dictKey(v)
	if s.index[k] {
		return
	}
	s.index[k] = true
	s.keys = append(s.keys, v)
}

func (s *pySet) has(v any) bool { return s.index[dictKey(v)] }

// pyFunction is a user-defined function or lambda, closing over the
// environment active at definition time.
type pyFunction struct {
	name    string
	params  []Param
	body    []Node
	expr    Node // set instead of body for lambdas
	closure *Env
	isAsync bool
}

// BoundTool is a tool descriptor made callable inside interpreted
// code: calling it by name (directly, or via the grouped `functions`
// object) dispatches through Call rather than through any interpreted
// function body, per spec.md §4.4's "Tool dispatch".
type BoundTool struct {
	Name string
	Call func(ctx any, args map[string]any) (any, error)
}

// Env is a lexical scope: a flat variable map with a parent link.
type Env struct {
	vars   map[string]any
	parent *Env
}

func newEnv(parent *Env) *Env { return &Env{vars: map[string]any{}, parent: parent} }

func (e *Env) Get(name string) (any, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Define creates or overwrites a binding in this exact scope.
func (e *Env) Define(name string, v any) { e.vars[name] = v }

// Assign writes to the nearest enclosing scope that already defines
// name, falling back to defining it locally (Python's implicit-local
// assignment semantics for names never declared `global`/`nonlocal`).
func (e *Env) Assign(name string, v any) {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.vars[name]; ok {
			env.vars[name] = v
			return
		}
	}
	e.vars[name] = v
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	case *pyList:
		return len(x.items) > 0
	case pyTuple:
		return len(x) > 0
	case *pyDict:
		return len(x.keys) > 0
	case *pySet:
		return len(x.keys) > 0
	default:
		return true
	}
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func isInt(v any) bool { _, ok := v.(int64); return ok }

func pyStr(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return strconv.FormatFloat(x, 'f', 1, 64)
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	case *pyList:
		parts := make([]string, len(x.items))
		for i, it := range x.items {
			parts[i] = pyRepr(it)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case pyTuple:
		parts := make([]string, len(x))
		for i, it := range x {
			parts[i] = pyRepr(it)
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *pyDict:
		parts := make([]string, len(x.keys))
		for i, k := range x.keys {
			parts[i] = pyRepr(k) + ": " + pyRepr(x.vals[i])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *pySet:
		if len(x.keys) == 0 {
			return "set()"
		}
		parts := make([]string, len(x.keys))
		for i, k := range x.keys {
			parts[i] = pyRepr(k)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *pyFunction:
		return fmt.Sprintf("<function %s>", x.name)
	case *BoundTool:
		return fmt.Sprintf("<tool %s>", x.Name)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func pyRepr(v any) string {
	if s, ok := v.(string); ok {
		return "'" + strings.ReplaceAll(s, "'", "\\'") + "'"
	}
	return pyStr(v)
}

func pyEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
		return false
	}
	if as, aok := a.(string); aok {
		bs, bok := b.(string)
		return bok && as == bs
	}
	// Structural types (list/tuple/dict/set): compare by canonical form.
	return dictKey(a) == dictKey(b)
}

func pyLess(a, b any) (bool, error) {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af < bf, nil
		}
	}
	if as, aok := a.(string); aok {
		if bs, bok := b.(string); bok {
			return as < bs, nil
		}
	}
	return false, raisef(KindTypeError, "'<' not supported between instances of %T and %T", a, b)
}

// iterate returns the elements of an iterable value in order.
func iterate(v any) ([]any, error) {
	switch x := v.(type) {
	case *pyList:
		return x.items, nil
	case pyTuple:
		return []any(x), nil
	case *pySet:
		return x.keys, nil
	case *pyDict:
		return x.keys, nil
	case string:
		out := make([]any, 0, len(x))
		for _, r := range x {
			out = append(out, string(r))
		}
		return out, nil
	default:
		return nil, raisef(KindTypeError, "object of type %T is not iterable", v)
	}
}

func sortSlice(items []any, less func(a, b any) bool) {
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}
