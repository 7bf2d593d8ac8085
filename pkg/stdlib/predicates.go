package stdlib

import (
	"strings"

	"github.com/C0DECYCLE/PyTerpreter/pkg/evaluator"
)

// and { a, b } → a if a is falsy, else b
func opAnd(ev *evaluator.Evaluator, args []any) (evaluator.Value, error) {
	a, b, err := evalPair(ev, "and", args)
	if err != nil {
		return nil, err
	}
	if !evaluator.Truthiness(a) {
		return a, nil
	}
	return b, nil
}

// or { a, b } → a if a is truthy, else b
func opOr(ev *evaluator.Evaluator, args []any) (evaluator.Value, error) {
	a, b, err := evalPair(ev, "or", args)
	if err != nil {
		return nil, err
	}
	if evaluator.Truthiness(a) {
		return a, nil
	}
	return b, nil
}

// not { a } → bool
func opNot(ev *evaluator.Evaluator, args []any) (evaluator.Value, error) {
	if _, err := evaluator.CheckLength("not", args, 1); err != nil {
		return nil, err
	}
	a, err := ev.EvalArg("not", args[0])
	if err != nil {
		return nil, err
	}
	return evaluator.NewBool(!evaluator.Truthiness(a)), nil
}

// equal { a, b } → bool
func opEqual(ev *evaluator.Evaluator, args []any) (evaluator.Value, error) {
	a, b, err := evalPair(ev, "equal", args)
	if err != nil {
		return nil, err
	}
	return evaluator.NewBool(evaluator.Equal(a, b)), nil
}

// less { a, b } → bool
func opLess(ev *evaluator.Evaluator, args []any) (evaluator.Value, error) {
	return compareOp(ev, "less", args, func(c int) bool { return c < 0 })
}

// greater { a, b } → bool
func opGreater(ev *evaluator.Evaluator, args []any) (evaluator.Value, error) {
	return compareOp(ev, "greater", args, func(c int) bool { return c > 0 })
}

// lessEqual { a, b } → bool
func opLessEqual(ev *evaluator.Evaluator, args []any) (evaluator.Value, error) {
	return compareOp(ev, "lessEqual", args, func(c int) bool { return c <= 0 })
}

// greaterEqual { a, b } → bool
func opGreaterEqual(ev *evaluator.Evaluator, args []any) (evaluator.Value, error) {
	return compareOp(ev, "greaterEqual", args, func(c int) bool { return c >= 0 })
}

func compareOp(ev *evaluator.Evaluator, op string, args []any, test func(int) bool) (evaluator.Value, error) {
	a, b, err := evalPair(ev, op, args)
	if err != nil {
		return nil, err
	}
	c, unordered, err := compare(op, a, b)
	if err != nil {
		return nil, err
	}
	if unordered {
		return evaluator.NewBool(false), nil
	}
	return evaluator.NewBool(test(c)), nil
}

// compare orders two numbers or two strings. NaN operands are unordered and
// every comparison involving them is false.
func compare(op string, a, b evaluator.Value) (c int, unordered bool, err error) {
	if ai, ok := a.(evaluator.Int); ok {
		if bi, ok := b.(evaluator.Int); ok {
			switch {
			case ai.Value < bi.Value:
				return -1, false, nil
			case ai.Value > bi.Value:
				return 1, false, nil
			}
			return 0, false, nil
		}
	}
	if x, y, _, ok := numbers(a, b); ok {
		switch {
		case x < y:
			return -1, false, nil
		case x > y:
			return 1, false, nil
		case x == y:
			return 0, false, nil
		}
		return 0, true, nil
	}
	if as, ok := a.(evaluator.String); ok {
		if bs, ok := b.(evaluator.String); ok {
			return strings.Compare(as.Value, bs.Value), false, nil
		}
	}
	return 0, false, operandError(op, a, b, "int", "float", "string")
}
