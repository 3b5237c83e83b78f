package interpreter

import (
	"context"
	"strings"
	"testing"
)

func run(t *testing.T, src string) Result {
	t.Helper()
	it := NewInterp()
	res, err := it.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run(%q) failed: %v", src, err)
	}
	return res
}

func TestArithmeticAndComparison(t *testing.T) {
	res := run(t, "final_answer(2 + 3 * 4 - 1)")
	if res.Value != int64(13) {
		t.Fatalf("got %v, want 13", res.Value)
	}

	res = run(t, "final_answer(1 < 2 < 3)")
	if res.Value != true {
		t.Fatalf("got %v, want true", res.Value)
	}

	res = run(t, "final_answer(7 // 2)")
	if res.Value != int64(3) {
		t.Fatalf("got %v, want 3", res.Value)
	}
}

func TestStringFormattingAndFString(t *testing.T) {
	res := run(t, `
name = "world"
final_answer(f"hello {name}!")
`)
	if res.Value != "hello world!" {
		t.Fatalf("got %v, want %q", res.Value, "hello world!")
	}
}

func TestListComprehensionAndMethods(t *testing.T) {
	res := run(t, `
nums = [1, 2, 3, 4, 5]
squares = [n * n for n in nums if n % 2 == 0]
final_answer(squares)
`)
	l, ok := res.Value.(*pyList)
	if !ok || len(l.items) != 2 || l.items[0] != int64(4) || l.items[1] != int64(16) {
		t.Fatalf("got %v, want [4, 16]", res.Value)
	}
}

func TestFunctionsClosuresAndDefaults(t *testing.T) {
	res := run(t, `
def add(a, b=10):
    return a + b

final_answer(add(5))
`)
	if res.Value != int64(15) {
		t.Fatalf("got %v, want 15", res.Value)
	}
}

func TestDictMethods(t *testing.T) {
	res := run(t, `
d = {"a": 1, "b": 2}
d["c"] = 3
total = sum(d.values())
final_answer(total)
`)
	if res.Value != int64(6) {
		t.Fatalf("got %v, want 6", res.Value)
	}
}

func TestTryExceptCatchesRaisedValueError(t *testing.T) {
	res := run(t, `
result = "unset"
try:
    raise ValueError("bad input")
except ValueError as e:
    result = "caught"
final_answer(result)
`)
	if res.Value != "caught" {
		t.Fatalf("got %v, want caught", res.Value)
	}
}

func TestImportNotAllowedFails(t *testing.T) {
	it := NewInterp()
	_, err := it.Run(context.Background(), "import os\n")
	if err == nil {
		t.Fatal("expected import of os to fail")
	}
	ie, ok := err.(*InterpreterError)
	if !ok || ie.Kind != KindImportNotAllowed {
		t.Fatalf("got %v, want ImportError", err)
	}
}

func TestAllowedImportSucceeds(t *testing.T) {
	res := run(t, `
import math
final_answer(math)
`)
	if res.Value == nil {
		t.Fatal("expected math import to bind a value")
	}
}

func TestOpLimitExceeded(t *testing.T) {
	it := NewInterp()
	it.MaxOps = 50
	_, err := it.Run(context.Background(), `
total = 0
for i in range(10000):
    total += i
final_answer(total)
`)
	if err == nil {
		t.Fatal("expected operation limit to be exceeded")
	}
	ie, ok := err.(*InterpreterError)
	if !ok || ie.Kind != KindOpLimitExceeded {
		t.Fatalf("got %v, want OperationLimitExceeded", err)
	}
}

func TestBoundToolDispatch(t *testing.T) {
	it := NewInterp()
	it.BindTool(&BoundTool{
		Name: "search_web",
		Call: func(ctx any, args map[string]any) (any, error) {
			return "result for " + args["query"].(string), nil
		},
	})
	res, err := it.Run(context.Background(), `
r = search_web(query="minions")
final_answer(r)
`)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Value != "result for minions" {
		t.Fatalf("got %v", res.Value)
	}
}

func TestFinalAnswerTerminatesWithoutRunningRest(t *testing.T) {
	res := run(t, `
final_answer(42)
undefined_name_that_would_error
`)
	if !res.IsFinalAnswer || res.Value != int64(42) {
		t.Fatalf("got %+v", res)
	}
}

func TestNonFinalAnswerReturnsLastValue(t *testing.T) {
	it := NewInterp()
	res, err := it.Run(context.Background(), "1 + 1\n")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.IsFinalAnswer {
		t.Fatal("expected IsFinalAnswer false")
	}
	if res.Value != int64(2) {
		t.Fatalf("got value %v, want 2", res.Value)
	}
	if !strings.Contains(res.Logs, "2") {
		t.Fatalf("expected auto-printed 2 in logs, got %q", res.Logs)
	}
}

func TestExtractCodeBlockPriority(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain fence", "```python\nprint(1)\n```", "print(1)"},
		{"fence with end sentinel", "```python\nprint(2)\n```<END>", "print(2)"},
		{"loose sentinel", "```python\nprint(3)\n<END>", "print(3)"},
		{"no fence", "print(4)", "print(4)"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ExtractCodeBlock(c.in)
			if got != c.want {
				t.Fatalf("got %q, want %q", got, c.want)
			}
		})
	}
}
