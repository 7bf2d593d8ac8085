package evaluator

import (
	"github.com/C0DECYCLE/PyTerpreter/pkg/diagnostics"
)

// if { condition, then, else? } → illegal
func opIf(ev *Evaluator, args []any) (Value, error) {
	n, err := CheckLength("if", args, 2, 3)
	if err != nil {
		return nil, err
	}
	cond, err := ev.EvalArg("if", args[0])
	if err != nil {
		return nil, err
	}
	branch := args[1]
	if !Truthiness(cond) {
		if n == 2 {
			return Illegal{}, nil
		}
		branch = args[2]
	}
	v, err := ev.runBlock(branch, UsageIf)
	if err != nil {
		return nil, err
	}
	return blockOutcome(v), nil
}

// while { condition, body } → illegal
func opWhile(ev *Evaluator, args []any) (Value, error) {
	if _, err := CheckLength("while", args, 2); err != nil {
		return nil, err
	}
	if _, err := asSequence("while", args[1]); err != nil {
		return nil, err
	}
	for {
		// Only the truth value is used, so the condition is not pinned.
		cond, err := ev.Eval(args[0])
		if err != nil {
			return nil, err
		}
		if err := NotIllegal("while", cond); err != nil {
			return nil, err
		}
		if !Truthiness(cond) {
			return Illegal{}, nil
		}
		v, err := ev.runBlock(args[1], UsageWhile)
		if err != nil {
			return nil, err
		}
		if r, ok := v.(returning); ok {
			return r, nil
		}
	}
}

// repeat { count, body } → illegal. count is a literal integer, not evaluated.
func opRepeat(ev *Evaluator, args []any) (Value, error) {
	if _, err := CheckLength("repeat", args, 2); err != nil {
		return nil, err
	}
	count, ok := args[0].(int64)
	if !ok {
		return nil, Errorf(diagnostics.EType, "repeat: invalid type: got %s count, want literal int", nodeTypeName(args[0]))
	}
	if _, err := asSequence("repeat", args[1]); err != nil {
		return nil, err
	}
	for i := int64(0); i < count; i++ {
		v, err := ev.runBlock(args[1], UsageRepeat)
		if err != nil {
			return nil, err
		}
		if r, ok := v.(returning); ok {
			return r, nil
		}
	}
	return Illegal{}, nil
}

// blockOutcome maps the result of a control block to the value of the
// operation: a return outcome propagates, anything else is the sentinel.
func blockOutcome(v Value) Value {
	if r, ok := v.(returning); ok {
		return r
	}
	return Illegal{}
}

// nodeTypeName describes a raw node for error messages.
func nodeTypeName(node any) string {
	if _, ok := node.([]any); ok {
		return "expression"
	}
	return TypeName(FromLiteral(node))
}
