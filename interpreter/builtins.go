package interpreter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultImportAllowlist is the static set of top-level modules every
// Interp permits by default; callers extend it via Interp.AllowImport.
// Submodule imports (e.g. "os.path") are checked against their
// top-level parent, per spec.md §4.4 invariant 3.
var DefaultImportAllowlist = map[string]bool{
	"math": true, "json": true, "re": true, "datetime": true,
	"itertools": true, "collections": true, "functools": true,
	"random": true, "string": true, "statistics": true,
}

// DefaultMaxOps bounds the number of AST evaluation steps a single
// Run call may take before failing with KindOpLimitExceeded.
const DefaultMaxOps = 200_000

// DefaultMaxPrintLen caps the buffered print log; overflow truncates
// with an explicit notice, per spec.md §4.4.
const DefaultMaxPrintLen = 64 * 1024

type builtinFunc func(interp *Interp, args []any, kwargs map[string]any) (any, error)

var builtins map[string]builtinFunc

func init() {
	builtins = map[string]builtinFunc{
		"len":       bLen,
		"print":     bPrint,
		"range":     bRange,
		"list":      bList,
		"dict":      bDict,
		"set":       bSet,
		"tuple":     bTuple,
		"str":       bStr,
		"int":       bInt,
		"float":     bFloat,
		"bool":      bBool,
		"sum":       bSum,
		"min":       bMinMax(true),
		"max":       bMinMax(false),
		"sorted":    bSorted,
		"enumerate": bEnumerate,
		"zip":       bZip,
		"reversed":  bReversed,
		"abs":       bAbs,
		"round":     bRound,
		"any":       bAny,
		"all":       bAll,
		"map":       bMap,
		"filter":    bFilter,
		"isinstance": bIsInstance,
		"type":      bType,
		"final_answer": bFinalAnswer,
	}
}

func bLen(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	if len(args) != 1 {
		return nil, raisef(KindTypeError, "len() takes exactly one argument")
	}
	switch v := args[0].(type) {
	case string:
		return int64(len([]rune(v))), nil
	case *pyList:
		return int64(len(v.items)), nil
	case pyTuple:
		return int64(len(v)), nil
	case *pyDict:
		return int64(len(v.keys)), nil
	case *pySet:
		return int64(len(v.keys)), nil
	default:
		return nil, raisef(KindTypeError, "object of type %T has no len()", v)
	}
}

func bPrint(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = pyStr(a)
	}
	sep := " "
	if s, ok := kwargs["sep"].(string); ok {
		sep = s
	}
	end := "\n"
	if e, ok := kwargs["end"].(string); ok {
		end = e
	}
	interp.writeLog(strings.Join(parts, sep) + end)
	return nil, nil
}

func bRange(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	var start, stop, step int64 = 0, 0, 1
	switch len(args) {
	case 1:
		n, ok := asFloat(args[0])
		if !ok {
			return nil, raisef(KindTypeError, "range() argument must be a number")
		}
		stop = int64(n)
	case 2:
		s1, _ := asFloat(args[0])
		s2, _ := asFloat(args[1])
		start, stop = int64(s1), int64(s2)
	case 3:
		s1, _ := asFloat(args[0])
		s2, _ := asFloat(args[1])
		s3, _ := asFloat(args[2])
		start, stop, step = int64(s1), int64(s2), int64(s3)
	default:
		return nil, raisef(KindTypeError, "range expected 1 to 3 arguments, got %d", len(args))
	}
	if step == 0 {
		return nil, raisef(KindValueError, "range() arg 3 must not be zero")
	}
	l := &pyList{}
	if step > 0 {
		for i := start; i < stop; i += step {
			l.items = append(l.items, i)
		}
	} else {
		for i := start; i > stop; i += step {
			l.items = append(l.items, i)
		}
	}
	return l, nil
}

func bList(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	if len(args) == 0 {
		return &pyList{}, nil
	}
	items, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	out := make([]any, len(items))
	copy(out, items)
	return &pyList{items: out}, nil
}

func bTuple(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	if len(args) == 0 {
		return pyTuple{}, nil
	}
	items, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	return pyTuple(items), nil
}

func bSet(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	s := newSet()
	if len(args) == 0 {
		return s, nil
	}
	items, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		s.add(it)
	}
	return s, nil
}

func bDict(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	d := newDict()
	if len(args) == 1 {
		if src, ok := args[0].(*pyDict); ok {
			for i, k := range src.keys {
				d.set(k, src.vals[i])
			}
		}
	}
	for k, v := range kwargs {
		d.set(k, v)
	}
	return d, nil
}

func bStr(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	if len(args) == 0 {
		return "", nil
	}
	return pyStr(args[0]), nil
}

func bInt(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	if len(args) == 0 {
		return int64(0), nil
	}
	switch v := args[0].(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, raisef(KindValueError, "invalid literal for int() with base 10: %q", v)
		}
		return n, nil
	default:
		f, ok := asFloat(v)
		if !ok {
			return nil, raisef(KindTypeError, "int() argument must be a string or a number")
		}
		return int64(f), nil
	}
}

func bFloat(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	if len(args) == 0 {
		return float64(0), nil
	}
	switch v := args[0].(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, raisef(KindValueError, "could not convert string to float: %q", v)
		}
		return f, nil
	default:
		f, ok := asFloat(v)
		if !ok {
			return nil, raisef(KindTypeError, "float() argument must be a string or a number")
		}
		return f, nil
	}
}

func bBool(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	if len(args) == 0 {
		return false, nil
	}
	return truthy(args[0]), nil
}

func bSum(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	items, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	var total float64
	allInt := true
	for _, it := range items {
		f, ok := asFloat(it)
		if !ok {
			return nil, raisef(KindTypeError, "unsupported operand type(s) for +: sum")
		}
		if !isInt(it) {
			allInt = false
		}
		total += f
	}
	if allInt {
		return int64(total), nil
	}
	return total, nil
}

func bMinMax(isMin bool) builtinFunc {
	return func(interp *Interp, args []any, kwargs map[string]any) (any, error) {
		var items []any
		if len(args) == 1 {
			var err error
			items, err = iterate(args[0])
			if err != nil {
				return nil, err
			}
		} else {
			items = args
		}
		if len(items) == 0 {
			if d, ok := kwargs["default"]; ok {
				return d, nil
			}
			return nil, raisef(KindValueError, "min()/max() arg is an empty sequence")
		}
		best := items[0]
		for _, it := range items[1:] {
			less, err := pyLess(it, best)
			if err != nil {
				return nil, err
			}
			if less == isMin {
				best = it
			}
		}
		return best, nil
	}
}

func bSorted(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	items, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	out := make([]any, len(items))
	copy(out, items)
	reverse := truthy(kwargs["reverse"])
	var sortErr error
	sortSlice(out, func(a, b any) bool {
		less, err := pyLess(a, b)
		if err != nil {
			sortErr = err
		}
		if reverse {
			return !less
		}
		return less
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return &pyList{items: out}, nil
}

func bEnumerate(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	items, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	start := int64(0)
	if len(args) > 1 {
		f, _ := asFloat(args[1])
		start = int64(f)
	}
	out := &pyList{}
	for i, it := range items {
		out.items = append(out.items, pyTuple{start + int64(i), it})
	}
	return out, nil
}

func bZip(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	if len(args) == 0 {
		return &pyList{}, nil
	}
	seqs := make([][]any, len(args))
	minLen := -1
	for i, a := range args {
		items, err := iterate(a)
		if err != nil {
			return nil, err
		}
		seqs[i] = items
		if minLen == -1 || len(items) < minLen {
			minLen = len(items)
		}
	}
	out := &pyList{}
	for i := 0; i < minLen; i++ {
		row := make(pyTuple, len(seqs))
		for j := range seqs {
			row[j] = seqs[j][i]
		}
		out.items = append(out.items, row)
	}
	return out, nil
}

func bReversed(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	items, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	out := make([]any, len(items))
	for i, it := range items {
		out[len(items)-1-i] = it
	}
	return &pyList{items: out}, nil
}

func bAbs(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	f, ok := asFloat(args[0])
	if !ok {
		return nil, raisef(KindTypeError, "bad operand type for abs()")
	}
	if isInt(args[0]) {
		return int64(math.Abs(f)), nil
	}
	return math.Abs(f), nil
}

func bRound(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	f, ok := asFloat(args[0])
	if !ok {
		return nil, raisef(KindTypeError, "type %T doesn't define __round__ method", args[0])
	}
	ndigits := 0
	hasNdigits := false
	if len(args) > 1 {
		n, _ := asFloat(args[1])
		ndigits = int(n)
		hasNdigits = true
	}
	mult := math.Pow(10, float64(ndigits))
	r := math.Round(f*mult) / mult
	if !hasNdigits {
		return int64(r), nil
	}
	return r, nil
}

func bAny(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	items, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if truthy(it) {
			return true, nil
		}
	}
	return false, nil
}

func bAll(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	items, err := iterate(args[0])
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if !truthy(it) {
			return false, nil
		}
	}
	return true, nil
}

func bMap(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	if len(args) < 2 {
		return nil, raisef(KindTypeError, "map() takes a function and at least one iterable")
	}
	items, err := iterate(args[1])
	if err != nil {
		return nil, err
	}
	out := &pyList{}
	for _, it := range items {
		v, err := interp.callValue(nil, args[0], []any{it}, nil)
		if err != nil {
			return nil, err
		}
		out.items = append(out.items, v)
	}
	return out, nil
}

func bFilter(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	if len(args) != 2 {
		return nil, raisef(KindTypeError, "filter() takes a function and an iterable")
	}
	items, err := iterate(args[1])
	if err != nil {
		return nil, err
	}
	out := &pyList{}
	for _, it := range items {
		keep := truthy(it)
		if args[0] != nil {
			v, err := interp.callValue(nil, args[0], []any{it}, nil)
			if err != nil {
				return nil, err
			}
			keep = truthy(v)
		}
		if keep {
			out.items = append(out.items, it)
		}
	}
	return out, nil
}

func bIsInstance(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	if len(args) != 2 {
		return nil, raisef(KindTypeError, "isinstance() takes exactly two arguments")
	}
	typeName, _ := args[1].(string)
	return pyTypeName(args[0]) == typeName, nil
}

func bType(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	if len(args) != 1 {
		return nil, raisef(KindTypeError, "type() takes exactly one argument")
	}
	return pyTypeName(args[0]), nil
}

func pyTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "NoneType"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "str"
	case *pyList:
		return "list"
	case pyTuple:
		return "tuple"
	case *pyDict:
		return "dict"
	case *pySet:
		return "set"
	case *pyFunction:
		return "function"
	case *BoundTool:
		return "tool"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// bFinalAnswer implements the final_answer builtin: it returns a
// finalAnswerPanic error the evaluator's top level catches per
// spec.md §4.4's "Final-answer protocol", converting it into a
// terminal (value, logs, true) result instead of a failure.
func bFinalAnswer(interp *Interp, args []any, kwargs map[string]any) (any, error) {
	var v any
	if len(args) > 0 {
		v = args[0]
	}
	return nil, &finalAnswerPanic{value: v}
}

// finalAnswerPanic is the Go-level stand-in for Python's
// FinalAnswerSignal exception: a sentinel error the evaluator
// recognizes and converts into a flow-return rather than a failure.
type finalAnswerPanic struct{ value any }

func (f *finalAnswerPanic) Error() string { return "final_answer" }
