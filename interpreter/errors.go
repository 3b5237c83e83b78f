package interpreter

import (
	"fmt"
	"strings"
)

// InterpreterError is the sandbox's only error type surfaced to
// callers: a compact, deterministic description (kind + message),
// never a Go stack trace, per spec.md §4.4's "Return contract".
type InterpreterError struct {
	Kind    string
	Message string
}

func (e *InterpreterError) Error() string {
	return fmt.Sprintf("InterpreterError: %s: %s", e.Kind, e.Message)
}

func newError(kind, format string, args ...any) *InterpreterError {
	return &InterpreterError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ErrOpLimitExceeded-shaped errors and import-not-allowed errors use
// these fixed kinds so callers can match on them with errors.As.
const (
	KindImportNotAllowed = "ImportError"
	KindOpLimitExceeded  = "OperationLimitExceeded"
	KindNameError        = "NameError"
	KindTypeError         = "TypeError"
	KindValueError        = "ValueError"
	KindKeyError          = "KeyError"
	KindIndexError        = "IndexError"
	KindAttributeError    = "AttributeError"
	KindZeroDivision      = "ZeroDivisionError"
	KindStopIteration     = "StopIteration"
)

// pyException is a raised Python-level exception (via `raise` or a
// builtin operation failure) distinct from a Go-level bug. It carries
// enough to build the compact InterpreterError the evaluator returns.
type pyException struct {
	Kind    string
	Message string
}

func (e *pyException) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

func raisef(kind, format string, args ...any) error {
	return &pyException{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// builtinExceptionKinds are the exception names `raise Kind(...)` may
// construct without a prior definition, mirroring Python's builtin
// exception hierarchy (flattened — this sandbox does not model
// inheritance between exception kinds).
var builtinExceptionKinds = map[string]bool{
	KindNameError: true, KindTypeError: true, KindValueError: true,
	KindKeyError: true, KindIndexError: true, KindAttributeError: true,
	KindZeroDivision: true, KindStopIteration: true, KindImportNotAllowed: true,
	"Exception": true, "RuntimeError": true, "ImportError": true,
	"NotImplementedError": true, "FileNotFoundError": true, "OSError": true,
	"ArithmeticError": true, "AssertionError": true,
}

// isExceptionKindName reports whether name should be treated as an
// exception kind when it appears as `raise name(...)`, covering both
// the curated builtin kinds and any user-defined "...Error" name.
func isExceptionKindName(name string) bool {
	return builtinExceptionKinds[name] || strings.HasSuffix(name, "Error") || strings.HasSuffix(name, "Exception")
}

// asInterpreterError renders any evaluator-surfaced error into the
// compact deterministic InterpreterError shape the return contract
// requires.
func asInterpreterError(err error) *InterpreterError {
	if err == nil {
		return nil
	}
	if ie, ok := err.(*InterpreterError); ok {
		return ie
	}
	if pe, ok := err.(*pyException); ok {
		return &InterpreterError{Kind: pe.Kind, Message: pe.Message}
	}
	return &InterpreterError{Kind: "Error", Message: err.Error()}
}
