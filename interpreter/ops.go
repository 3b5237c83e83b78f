package interpreter

import "strings"

func (it *Interp) binOp(op string, l, r any) (any, error) {
	switch op {
	case "+":
		if ls, ok := l.(string); ok {
			rs, ok := r.(string)
			if !ok {
				return nil, raisef(KindTypeError, "can only concatenate str (not %q) to str", pyTypeName(r))
			}
			return ls + rs, nil
		}
		if ll, ok := l.(*pyList); ok {
			rl, ok := r.(*pyList)
			if !ok {
				return nil, raisef(KindTypeError, "can only concatenate list (not %q) to list", pyTypeName(r))
			}
			out := make([]any, 0, len(ll.items)+len(rl.items))
			out = append(out, ll.items...)
			out = append(out, rl.items...)
			return &pyList{items: out}, nil
		}
		if lt, ok := l.(pyTuple); ok {
			rt, ok := r.(pyTuple)
			if !ok {
				return nil, raisef(KindTypeError, "can only concatenate tuple (not %q) to tuple", pyTypeName(r))
			}
			out := append(pyTuple{}, lt...)
			return append(out, rt...), nil
		}
		return numericOp(l, r, func(a, b float64) float64 { return a + b })
	case "-":
		return numericOp(l, r, func(a, b float64) float64 { return a - b })
	case "*":
		if ls, ok := l.(string); ok {
			if n, ok := asFloat(r); ok {
				return strings.Repeat(ls, int(n)), nil
			}
		}
		if ll, ok := l.(*pyList); ok {
			if n, ok := asFloat(r); ok {
				return &pyList{items: repeatAny(ll.items, int(n))}, nil
			}
		}
		return numericOp(l, r, func(a, b float64) float64 { return a * b })
	case "/":
		rf, _ := asFloat(r)
		if rf == 0 {
			return nil, raisef(KindZeroDivision, "division by zero")
		}
		lf, _ := asFloat(l)
		return lf / rf, nil
	case "//":
		rf, _ := asFloat(r)
		if rf == 0 {
			return nil, raisef(KindZeroDivision, "integer division or modulo by zero")
		}
		lf, _ := asFloat(l)
		q := floorDiv(lf, rf)
		if isInt(l) && isInt(r) {
			return int64(q), nil
		}
		return q, nil
	case "%":
		rf, _ := asFloat(r)
		if rf == 0 {
			return nil, raisef(KindZeroDivision, "modulo by zero")
		}
		lf, _ := asFloat(l)
		m := lf - floorDiv(lf, rf)*rf
		if isInt(l) && isInt(r) {
			return int64(m), nil
		}
		return m, nil
	case "**":
		lf, _ := asFloat(l)
		rf, _ := asFloat(r)
		result := power(lf, rf)
		if isInt(l) && isInt(r) && rf >= 0 {
			return int64(result), nil
		}
		return result, nil
	case "&", "|", "^", "<<", ">>":
		li, _ := asFloat(l)
		ri, _ := asFloat(r)
		return intBitOp(op, int64(li), int64(ri)), nil
	default:
		return nil, raisef(KindTypeError, "unsupported operator %q", op)
	}
}

func repeatAny(items []any, n int) []any {
	var out []any
	for i := 0; i < n; i++ {
		out = append(out, items...)
	}
	return out
}

func floorDiv(a, b float64) float64 {
	q := a / b
	if q < 0 {
		return float64(int64(q)) - boolToFloat(q != float64(int64(q)))
	}
	return float64(int64(q))
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func power(base, exp float64) float64 {
	result := 1.0
	neg := exp < 0
	n := int(exp)
	if neg {
		n = -n
	}
	for i := 0; i < n; i++ {
		result *= base
	}
	if neg {
		return 1 / result
	}
	return result
}

func intBitOp(op string, a, b int64) int64 {
	switch op {
	case "&":
		return a & b
	case "|":
		return a | b
	case "^":
		return a ^ b
	case "<<":
		return a << uint(b)
	case ">>":
		return a >> uint(b)
	}
	return 0
}

func numericOp(l, r any, f func(a, b float64) float64) (any, error) {
	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if !lok || !rok {
		return nil, raisef(KindTypeError, "unsupported operand type(s): %q and %q", pyTypeName(l), pyTypeName(r))
	}
	result := f(lf, rf)
	if isInt(l) && isInt(r) {
		return int64(result), nil
	}
	return result, nil
}

func (it *Interp) unaryOp(op string, x any) (any, error) {
	switch op {
	case "-":
		f, ok := asFloat(x)
		if !ok {
			return nil, raisef(KindTypeError, "bad operand type for unary -: %q", pyTypeName(x))
		}
		if isInt(x) {
			return -int64(f), nil
		}
		return -f, nil
	case "+":
		return x, nil
	case "not":
		return !truthy(x), nil
	case "~":
		f, _ := asFloat(x)
		return ^int64(f), nil
	default:
		return nil, raisef(KindTypeError, "unsupported unary operator %q", op)
	}
}

func (it *Interp) compareOp(op string, l, r any) (bool, error) {
	switch op {
	case "==":
		return pyEqual(l, r), nil
	case "!=":
		return !pyEqual(l, r), nil
	case "<":
		return pyLess(l, r)
	case ">":
		less, err := pyLess(r, l)
		return less, err
	case "<=":
		less, err := pyLess(r, l)
		if err != nil {
			return false, err
		}
		return !less, nil
	case ">=":
		less, err := pyLess(l, r)
		if err != nil {
			return false, err
		}
		return !less, nil
	case "in":
		return containsValue(r, l)
	case "not in":
		ok, err := containsValue(r, l)
		return !ok, err
	case "is":
		return isSameValue(l, r), nil
	case "is not":
		return !isSameValue(l, r), nil
	default:
		return false, raisef(KindTypeError, "unsupported comparison operator %q", op)
	}
}

func containsValue(container, needle any) (bool, error) {
	switch c := container.(type) {
	case string:
		s, ok := needle.(string)
		if !ok {
			return false, raisef(KindTypeError, "'in <string>' requires string as left operand")
		}
		return strings.Contains(c, s), nil
	case *pyDict:
		_, ok := c.get(needle)
		return ok, nil
	default:
		items, err := iterate(container)
		if err != nil {
			return false, err
		}
		for _, it := range items {
			if pyEqual(it, needle) {
				return true, nil
			}
		}
		return false, nil
	}
}

func isSameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case bool, int64, float64, string:
		return pyEqual(av, b)
	default:
		return a == b
	}
}
