package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/C0DECYCLE/PyTerpreter/pkg/diagnostics"
)

// RuntimeError is a fatal evaluation error. Code is one of the diagnostics codes.
type RuntimeError struct {
	Code    string
	Message string
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// Diagnostic converts the error into a diagnostic record.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(e.Code, e.Message, "", "")
}

// Errorf builds a RuntimeError with a formatted message.
func Errorf(code, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CheckLength validates an argument count against one or more allowed counts.
func CheckLength(op string, args []any, want ...int) (int, error) {
	n := len(args)
	for _, w := range want {
		if n == w {
			return n, nil
		}
	}
	return n, LengthError(op, n, want...)
}

// LengthError reports an arity mismatch.
func LengthError(op string, got int, want ...int) *RuntimeError {
	parts := make([]string, len(want))
	for i, w := range want {
		parts[i] = strconv.Itoa(w)
	}
	return Errorf(diagnostics.ELength, "%s: invalid length: got %d, want %s", op, got, strings.Join(parts, " or "))
}

// TypeError reports a value whose type is not in the expected set.
func TypeError(op string, got Value, want ...string) *RuntimeError {
	return Errorf(diagnostics.EType, "%s: invalid type: got %s, want %s", op, TypeName(got), strings.Join(want, " or "))
}

// IllegalError reports the sentinel where a value was required.
func IllegalError(op string) *RuntimeError {
	return Errorf(diagnostics.EIllegalValue, "%s: illegal value: got illegal, want a value", op)
}

// NotIllegal rejects the sentinel.
func NotIllegal(op string, v Value) error {
	if v == nil || IsIllegal(v) {
		return IllegalError(op)
	}
	return nil
}
