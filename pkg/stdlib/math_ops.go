package stdlib

import (
	"math"
	"strings"

	"github.com/C0DECYCLE/PyTerpreter/pkg/diagnostics"
	"github.com/C0DECYCLE/PyTerpreter/pkg/evaluator"
)

// Integer arithmetic is checked: a result that does not fit in 64 bits is an
// E_ARITHMETIC error rather than a silent wrap.

func overflow(op string) error {
	return evaluator.Errorf(diagnostics.EArithmetic, "%s: arithmetic error: integer overflow", op)
}

// numbers returns both operands as floats when either one is a float.
func numbers(a, b evaluator.Value) (x, y float64, isFloat, ok bool) {
	switch av := a.(type) {
	case evaluator.Int:
		switch bv := b.(type) {
		case evaluator.Int:
			return float64(av.Value), float64(bv.Value), false, true
		case evaluator.Float:
			return float64(av.Value), bv.Value, true, true
		}
	case evaluator.Float:
		switch bv := b.(type) {
		case evaluator.Int:
			return av.Value, float64(bv.Value), true, true
		case evaluator.Float:
			return av.Value, bv.Value, true, true
		}
	}
	return 0, 0, false, false
}

// add { a, b } → number | string | array
func opAdd(ev *evaluator.Evaluator, args []any) (evaluator.Value, error) {
	a, b, err := evalPair(ev, "add", args)
	if err != nil {
		return nil, err
	}
	if ai, ok := a.(evaluator.Int); ok {
		if bi, ok := b.(evaluator.Int); ok {
			sum := ai.Value + bi.Value
			if (sum > ai.Value) != (bi.Value > 0) {
				return nil, overflow("add")
			}
			return evaluator.NewInt(sum), nil
		}
	}
	if x, y, _, ok := numbers(a, b); ok {
		return evaluator.NewFloat(x + y), nil
	}
	switch av := a.(type) {
	case evaluator.String:
		if bv, ok := b.(evaluator.String); ok {
			return evaluator.NewString(av.Value + bv.Value), nil
		}
	case *evaluator.Array:
		if bv, ok := b.(*evaluator.Array); ok {
			items := make([]evaluator.Value, 0, len(av.Items)+len(bv.Items))
			items = append(items, av.Items...)
			items = append(items, bv.Items...)
			for _, item := range items {
				ev.Retain(item)
			}
			return evaluator.NewArray(items), nil
		}
	}
	return nil, operandError("add", a, b, "int", "float", "string", "array")
}

// subtract { a, b } → number
func opSubtract(ev *evaluator.Evaluator, args []any) (evaluator.Value, error) {
	a, b, err := evalPair(ev, "subtract", args)
	if err != nil {
		return nil, err
	}
	if ai, ok := a.(evaluator.Int); ok {
		if bi, ok := b.(evaluator.Int); ok {
			diff := ai.Value - bi.Value
			if (diff < ai.Value) != (bi.Value > 0) {
				return nil, overflow("subtract")
			}
			return evaluator.NewInt(diff), nil
		}
	}
	if x, y, _, ok := numbers(a, b); ok {
		return evaluator.NewFloat(x - y), nil
	}
	return nil, operandError("subtract", a, b, "int", "float")
}

// multiply { a, b } → number | string | array
func opMultiply(ev *evaluator.Evaluator, args []any) (evaluator.Value, error) {
	a, b, err := evalPair(ev, "multiply", args)
	if err != nil {
		return nil, err
	}
	if ai, ok := a.(evaluator.Int); ok {
		if bi, ok := b.(evaluator.Int); ok {
			x, y := ai.Value, bi.Value
			if x == 0 || y == 0 {
				return evaluator.NewInt(0), nil
			}
			p := x * y
			if p/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
				return nil, overflow("multiply")
			}
			return evaluator.NewInt(p), nil
		}
	}
	if x, y, _, ok := numbers(a, b); ok {
		return evaluator.NewFloat(x * y), nil
	}
	// Sequence repetition works with the count on either side.
	seq, count := a, b
	if _, ok := a.(evaluator.Int); ok {
		seq, count = b, a
	}
	n, ok := count.(evaluator.Int)
	if !ok {
		return nil, operandError("multiply", a, b, "int", "float", "string", "array")
	}
	times := int(max(n.Value, 0))
	switch sv := seq.(type) {
	case evaluator.String:
		if times > 0 && len(sv.Value) > math.MaxInt32/times {
			return nil, overflow("multiply")
		}
		return evaluator.NewString(strings.Repeat(sv.Value, times)), nil
	case *evaluator.Array:
		if times == 0 || len(sv.Items) == 0 {
			return evaluator.NewArray(nil), nil
		}
		if times > maxArraySize/len(sv.Items) {
			return nil, evaluator.Errorf(diagnostics.EIndex, "multiply: size too large: got %d × %d, max %d",
				len(sv.Items), times, maxArraySize)
		}
		items := make([]evaluator.Value, 0, len(sv.Items)*times)
		for i := 0; i < times; i++ {
			items = append(items, sv.Items...)
		}
		for _, item := range items {
			ev.Retain(item)
		}
		return evaluator.NewArray(items), nil
	}
	return nil, operandError("multiply", a, b, "int", "float", "string", "array")
}

// divide { a, b } → float
func opDivide(ev *evaluator.Evaluator, args []any) (evaluator.Value, error) {
	a, b, err := evalPair(ev, "divide", args)
	if err != nil {
		return nil, err
	}
	x, y, _, ok := numbers(a, b)
	if !ok {
		return nil, operandError("divide", a, b, "int", "float")
	}
	if y == 0 {
		return nil, evaluator.Errorf(diagnostics.EArithmetic, "divide: arithmetic error: division by zero")
	}
	return evaluator.NewFloat(x / y), nil
}

// power { a, b } → number
func opPower(ev *evaluator.Evaluator, args []any) (evaluator.Value, error) {
	a, b, err := evalPair(ev, "power", args)
	if err != nil {
		return nil, err
	}
	x, y, isFloat, ok := numbers(a, b)
	if !ok {
		return nil, operandError("power", a, b, "int", "float")
	}
	if x == 0 && y < 0 {
		return nil, evaluator.Errorf(diagnostics.EArithmetic, "power: arithmetic error: zero raised to a negative power")
	}
	if !isFloat && y >= 0 {
		n, err := intPow(a.(evaluator.Int).Value, b.(evaluator.Int).Value)
		if err != nil {
			return nil, err
		}
		return evaluator.NewInt(n), nil
	}
	r := math.Pow(x, y)
	if math.IsNaN(r) && !math.IsNaN(x) && !math.IsNaN(y) {
		return nil, evaluator.Errorf(diagnostics.EArithmetic, "power: arithmetic error: complex result")
	}
	return evaluator.NewFloat(r), nil
}

func intPow(base, exp int64) (int64, error) {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			r := result * base
			if base != 0 && r/base != result {
				return 0, overflow("power")
			}
			result = r
		}
		exp >>= 1
		if exp > 0 {
			sq := base * base
			if base != 0 && sq/base != base {
				return 0, overflow("power")
			}
			base = sq
		}
	}
	return result, nil
}

// absolute { a } → number
func opAbsolute(ev *evaluator.Evaluator, args []any) (evaluator.Value, error) {
	if _, err := evaluator.CheckLength("absolute", args, 1); err != nil {
		return nil, err
	}
	a, err := ev.EvalArg("absolute", args[0])
	if err != nil {
		return nil, err
	}
	switch v := a.(type) {
	case evaluator.Int:
		if v.Value == math.MinInt64 {
			return nil, overflow("absolute")
		}
		if v.Value < 0 {
			return evaluator.NewInt(-v.Value), nil
		}
		return v, nil
	case evaluator.Float:
		return evaluator.NewFloat(math.Abs(v.Value)), nil
	}
	return nil, evaluator.TypeError("absolute", a, "int", "float")
}

// operandError reports the operand whose type is unsupported, preferring the
// first one.
func operandError(op string, a, b evaluator.Value, want ...string) error {
	for _, v := range []evaluator.Value{a, b} {
		if !typeIn(v, want) {
			return evaluator.TypeError(op, v, want...)
		}
	}
	return evaluator.Errorf(diagnostics.EType, "%s: invalid type: got %s and %s, want matching operands",
		op, evaluator.TypeName(a), evaluator.TypeName(b))
}

func typeIn(v evaluator.Value, names []string) bool {
	name := evaluator.TypeName(v)
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
