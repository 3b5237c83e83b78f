package interpreter

import "strings"

// stringMethod returns a bound callable implementing a curated subset
// of Python's str methods, closing over the receiver s.
func (it *Interp) stringMethod(s string, attr string) (any, error) {
	wrap := func(fn builtinFunc) (any, error) { return &nativeFunc{name: attr, fn: fn}, nil }
	switch attr {
	case "upper":
		return wrap(func(_ *Interp, _ []any, _ map[string]any) (any, error) { return strings.ToUpper(s), nil })
	case "lower":
		return wrap(func(_ *Interp, _ []any, _ map[string]any) (any, error) { return strings.ToLower(s), nil })
	case "title":
		return wrap(func(_ *Interp, _ []any, _ map[string]any) (any, error) { return strings.Title(s), nil })
	case "capitalize":
		return wrap(func(_ *Interp, _ []any, _ map[string]any) (any, error) {
			if s == "" {
				return s, nil
			}
			r := []rune(s)
			return strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:])), nil
		})
	case "strip":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			return strings.TrimSpace(applyCutset(s, args)), nil
		})
	case "lstrip":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			cutset := cutsetFrom(args, " \t\n\r")
			return strings.TrimLeft(s, cutset), nil
		})
	case "rstrip":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			cutset := cutsetFrom(args, " \t\n\r")
			return strings.TrimRight(s, cutset), nil
		})
	case "split":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			l := &pyList{}
			var parts []string
			if len(args) == 0 || args[0] == nil {
				parts = strings.Fields(s)
			} else {
				sep, ok := args[0].(string)
				if !ok {
					return nil, raisef(KindTypeError, "split() separator must be a string")
				}
				parts = strings.Split(s, sep)
			}
			for _, p := range parts {
				l.items = append(l.items, p)
			}
			return l, nil
		})
	case "splitlines":
		return wrap(func(_ *Interp, _ []any, _ map[string]any) (any, error) {
			l := &pyList{}
			for _, p := range strings.Split(s, "\n") {
				l.items = append(l.items, strings.TrimSuffix(p, "\r"))
			}
			return l, nil
		})
	case "join":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			if len(args) != 1 {
				return nil, raisef(KindTypeError, "join() takes exactly one argument")
			}
			items, err := iterate(args[0])
			if err != nil {
				return nil, err
			}
			parts := make([]string, len(items))
			for i, it := range items {
				sv, ok := it.(string)
				if !ok {
					return nil, raisef(KindTypeError, "sequence item %d: expected str instance", i)
				}
				parts[i] = sv
			}
			return strings.Join(parts, s), nil
		})
	case "replace":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			if len(args) < 2 {
				return nil, raisef(KindTypeError, "replace() takes at least 2 arguments")
			}
			old, _ := args[0].(string)
			newS, _ := args[1].(string)
			n := -1
			if len(args) > 2 {
				f, _ := asFloat(args[2])
				n = int(f)
			}
			return strings.Replace(s, old, newS, n), nil
		})
	case "startswith":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			p, _ := args[0].(string)
			return strings.HasPrefix(s, p), nil
		})
	case "endswith":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			p, _ := args[0].(string)
			return strings.HasSuffix(s, p), nil
		})
	case "find":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			p, _ := args[0].(string)
			return int64(strings.Index(s, p)), nil
		})
	case "rfind":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			p, _ := args[0].(string)
			return int64(strings.LastIndex(s, p)), nil
		})
	case "index":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			p, _ := args[0].(string)
			i := strings.Index(s, p)
			if i < 0 {
				return nil, raisef(KindValueError, "substring not found")
			}
			return int64(i), nil
		})
	case "count":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			p, _ := args[0].(string)
			return int64(strings.Count(s, p)), nil
		})
	case "format":
		return wrap(func(_ *Interp, args []any, kwargs map[string]any) (any, error) {
			return formatString(s, args, kwargs), nil
		})
	case "zfill":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			f, _ := asFloat(args[0])
			width := int(f)
			if len(s) >= width {
				return s, nil
			}
			neg := strings.HasPrefix(s, "-")
			body := s
			if neg {
				body = s[1:]
			}
			pad := strings.Repeat("0", width-len(s))
			if neg {
				return "-" + pad + body, nil
			}
			return pad + body, nil
		})
	case "ljust":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			return padString(s, args, false), nil
		})
	case "rjust":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			return padString(s, args, true), nil
		})
	case "isdigit":
		return wrap(func(_ *Interp, _ []any, _ map[string]any) (any, error) { return isAllFunc(s, isDigitRune), nil })
	case "isalpha":
		return wrap(func(_ *Interp, _ []any, _ map[string]any) (any, error) { return isAllFunc(s, isAlphaRune), nil })
	case "isspace":
		return wrap(func(_ *Interp, _ []any, _ map[string]any) (any, error) { return isAllFunc(s, isSpaceRune), nil })
	default:
		return nil, raisef(KindAttributeError, "str object has no attribute %q", attr)
	}
}

func applyCutset(s string, args []any) string {
	if len(args) == 0 || args[0] == nil {
		return s
	}
	cutset, _ := args[0].(string)
	return strings.Trim(s, cutset)
}

func cutsetFrom(args []any, def string) string {
	if len(args) == 0 || args[0] == nil {
		return def
	}
	c, _ := args[0].(string)
	return c
}

func padString(s string, args []any, right bool) string {
	f, _ := asFloat(args[0])
	width := int(f)
	fill := " "
	if len(args) > 1 {
		if fs, ok := args[1].(string); ok && fs != "" {
			fill = fs
		}
	}
	if len(s) >= width {
		return s
	}
	pad := strings.Repeat(fill, width-len(s))
	if right {
		return pad + s
	}
	return s + pad
}

func isDigitRune(r rune) bool { return r >= '0' && r <= '9' }
func isAlphaRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
func isSpaceRune(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }

func isAllFunc(s string, f func(rune) bool) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !f(r) {
			return false
		}
	}
	return true
}

// formatString implements a minimal subset of str.format: positional
// {}/{0} placeholders and {name} keyword placeholders. Format specs
// (e.g. {:.2f}) are not supported, matching the curated-builtin scope
// the rest of the interpreter holds to.
func formatString(tmpl string, args []any, kwargs map[string]any) string {
	var sb strings.Builder
	argIdx := 0
	i := 0
	for i < len(tmpl) {
		c := tmpl[i]
		if c == '{' && i+1 < len(tmpl) && tmpl[i+1] == '{' {
			sb.WriteByte('{')
			i += 2
			continue
		}
		if c == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}' {
			sb.WriteByte('}')
			i += 2
			continue
		}
		if c == '{' {
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				sb.WriteString(tmpl[i:])
				break
			}
			field := tmpl[i+1 : i+end]
			i += end + 1
			if field == "" {
				if argIdx < len(args) {
					sb.WriteString(pyStr(args[argIdx]))
					argIdx++
				}
				continue
			}
			if n, ok := parseIndex(field); ok {
				if n < len(args) {
					sb.WriteString(pyStr(args[n]))
				}
				continue
			}
			if v, ok := kwargs[field]; ok {
				sb.WriteString(pyStr(v))
			}
			continue
		}
		sb.WriteByte(c)
		i++
	}
	return sb.String()
}

func parseIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// listMethod returns a bound callable implementing a curated subset of
// Python's list methods, mutating the receiver l in place where the
// real method would.
func (it *Interp) listMethod(l *pyList, attr string) (any, error) {
	wrap := func(fn builtinFunc) (any, error) { return &nativeFunc{name: attr, fn: fn}, nil }
	switch attr {
	case "append":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			if len(args) != 1 {
				return nil, raisef(KindTypeError, "append() takes exactly one argument")
			}
			l.items = append(l.items, args[0])
			return nil, nil
		})
	case "extend":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			items, err := iterate(args[0])
			if err != nil {
				return nil, err
			}
			l.items = append(l.items, items...)
			return nil, nil
		})
	case "insert":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			f, _ := asFloat(args[0])
			idx := clampIndex(int(f), len(l.items))
			l.items = append(l.items[:idx], append([]any{args[1]}, l.items[idx:]...)...)
			return nil, nil
		})
	case "pop":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			if len(l.items) == 0 {
				return nil, raisef(KindIndexError, "pop from empty list")
			}
			idx := len(l.items) - 1
			if len(args) > 0 {
				f, _ := asFloat(args[0])
				idx = int(f)
				if idx < 0 {
					idx += len(l.items)
				}
			}
			if idx < 0 || idx >= len(l.items) {
				return nil, raisef(KindIndexError, "pop index out of range")
			}
			v := l.items[idx]
			l.items = append(l.items[:idx], l.items[idx+1:]...)
			return v, nil
		})
	case "remove":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			for i, it := range l.items {
				if pyEqual(it, args[0]) {
					l.items = append(l.items[:i], l.items[i+1:]...)
					return nil, nil
				}
			}
			return nil, raisef(KindValueError, "list.remove(x): x not in list")
		})
	case "clear":
		return wrap(func(_ *Interp, _ []any, _ map[string]any) (any, error) {
			l.items = nil
			return nil, nil
		})
	case "index":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			for i, it := range l.items {
				if pyEqual(it, args[0]) {
					return int64(i), nil
				}
			}
			return nil, raisef(KindValueError, "%s is not in list", pyRepr(args[0]))
		})
	case "count":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			n := int64(0)
			for _, it := range l.items {
				if pyEqual(it, args[0]) {
					n++
				}
			}
			return n, nil
		})
	case "copy":
		return wrap(func(_ *Interp, _ []any, _ map[string]any) (any, error) {
			out := make([]any, len(l.items))
			copy(out, l.items)
			return &pyList{items: out}, nil
		})
	case "reverse":
		return wrap(func(_ *Interp, _ []any, _ map[string]any) (any, error) {
			for i, j := 0, len(l.items)-1; i < j; i, j = i+1, j-1 {
				l.items[i], l.items[j] = l.items[j], l.items[i]
			}
			return nil, nil
		})
	case "sort":
		return wrap(func(it *Interp, args []any, kwargs map[string]any) (any, error) {
			reverse := truthy(kwargs["reverse"])
			keyFn, hasKey := kwargs["key"]
			var sortErr error
			sortSlice(l.items, func(a, b any) bool {
				av, bv := a, b
				if hasKey {
					var err error
					av, err = it.callValue(nil, keyFn, []any{a}, nil)
					if err != nil {
						sortErr = err
					}
					bv, err = it.callValue(nil, keyFn, []any{b}, nil)
					if err != nil {
						sortErr = err
					}
				}
				less, err := pyLess(av, bv)
				if err != nil {
					sortErr = err
				}
				if reverse {
					return !less
				}
				return less
			})
			return nil, sortErr
		})
	default:
		return nil, raisef(KindAttributeError, "list object has no attribute %q", attr)
	}
}

func clampIndex(i, length int) int {
	if i < 0 {
		i += length
	}
	if i < 0 {
		return 0
	}
	if i > length {
		return length
	}
	return i
}

// dictMethod returns a bound callable implementing a curated subset of
// Python's dict methods, used by getAttr when the attribute name is
// not itself a stored key.
func (it *Interp) dictMethod(d *pyDict, attr string) (any, error) {
	wrap := func(fn builtinFunc) (any, error) { return &nativeFunc{name: attr, fn: fn}, nil }
	switch attr {
	case "get":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			if len(args) == 0 {
				return nil, raisef(KindTypeError, "get() takes at least one argument")
			}
			if v, ok := d.get(args[0]); ok {
				return v, nil
			}
			if len(args) > 1 {
				return args[1], nil
			}
			return nil, nil
		})
	case "keys":
		return wrap(func(_ *Interp, _ []any, _ map[string]any) (any, error) {
			out := make([]any, len(d.keys))
			copy(out, d.keys)
			return &pyList{items: out}, nil
		})
	case "values":
		return wrap(func(_ *Interp, _ []any, _ map[string]any) (any, error) {
			out := make([]any, len(d.vals))
			copy(out, d.vals)
			return &pyList{items: out}, nil
		})
	case "items":
		return wrap(func(_ *Interp, _ []any, _ map[string]any) (any, error) {
			out := make([]any, len(d.keys))
			for i, k := range d.keys {
				out[i] = pyTuple{k, d.vals[i]}
			}
			return &pyList{items: out}, nil
		})
	case "update":
		return wrap(func(_ *Interp, args []any, kwargs map[string]any) (any, error) {
			if len(args) > 0 {
				src, ok := args[0].(*pyDict)
				if !ok {
					return nil, raisef(KindTypeError, "update() argument must be a dict")
				}
				for i, k := range src.keys {
					d.set(k, src.vals[i])
				}
			}
			for k, v := range kwargs {
				d.set(k, v)
			}
			return nil, nil
		})
	case "pop":
		return wrap(func(_ *Interp, args []any, _ map[string]any) (any, error) {
			if len(args) == 0 {
				return nil, raisef(KindTypeError, "pop() takes at least one argument")
			}
			v, ok := d.get(args[0])
			if !ok {
				if len(args) > 1 {
					return args[1], nil
				}
				return nil, raisef(KindKeyError, "%s", pyRepr(args[0]))
			}
			d.delete(args[0])
			return v, nil
		})
	default:
		return nil, raisef(KindAttributeError, "dict object has no attribute %q", attr)
	}
}
