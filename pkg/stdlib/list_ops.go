package stdlib

import (
	"github.com/C0DECYCLE/PyTerpreter/pkg/diagnostics"
	"github.com/C0DECYCLE/PyTerpreter/pkg/evaluator"
)

// maxArraySize bounds array allocation.
const maxArraySize = 1 << 24

func arrayArg(ev *evaluator.Evaluator, op string, node any) (*evaluator.Array, error) {
	v, err := ev.EvalArg(op, node)
	if err != nil {
		return nil, err
	}
	a, ok := v.(*evaluator.Array)
	if !ok {
		return nil, evaluator.TypeError(op, v, "array")
	}
	return a, nil
}

// indexArg evaluates an index and resolves negative indices from the end.
func indexArg(ev *evaluator.Evaluator, op string, node any, arr *evaluator.Array) (int, error) {
	v, err := ev.EvalArg(op, node)
	if err != nil {
		return 0, err
	}
	n, ok := v.(evaluator.Int)
	if !ok {
		return 0, evaluator.TypeError(op, v, "int")
	}
	i := n.Value
	size := int64(len(arr.Items))
	if i < 0 {
		i += size
	}
	if i < 0 || i >= size {
		return 0, evaluator.Errorf(diagnostics.EIndex, "%s: index out of range: got %d, size %d", op, n.Value, size)
	}
	return int(i), nil
}

// array { size } → array filled with null
func opArray(ev *evaluator.Evaluator, args []any) (evaluator.Value, error) {
	if _, err := evaluator.CheckLength("array", args, 1); err != nil {
		return nil, err
	}
	v, err := ev.EvalArg("array", args[0])
	if err != nil {
		return nil, err
	}
	n, ok := v.(evaluator.Int)
	if !ok {
		return nil, evaluator.TypeError("array", v, "int")
	}
	if n.Value > maxArraySize {
		return nil, evaluator.Errorf(diagnostics.EIndex, "array: size too large: got %d, max %d", n.Value, maxArraySize)
	}
	size := int(max(n.Value, 0))
	items := make([]evaluator.Value, size)
	for i := range items {
		items[i] = evaluator.NewNull()
	}
	return evaluator.NewArray(items), nil
}

// arraySet { array, index, value } → illegal
func opArraySet(ev *evaluator.Evaluator, args []any) (evaluator.Value, error) {
	if _, err := evaluator.CheckLength("arraySet", args, 3); err != nil {
		return nil, err
	}
	arr, err := arrayArg(ev, "arraySet", args[0])
	if err != nil {
		return nil, err
	}
	i, err := indexArg(ev, "arraySet", args[1], arr)
	if err != nil {
		return nil, err
	}
	v, err := ev.EvalArg("arraySet", args[2])
	if err != nil {
		return nil, err
	}
	old := arr.Items[i]
	ev.Retain(v)
	arr.Items[i] = v
	ev.Release(old)
	return evaluator.Illegal{}, nil
}

// arrayGet { array, index } → value
func opArrayGet(ev *evaluator.Evaluator, args []any) (evaluator.Value, error) {
	if _, err := evaluator.CheckLength("arrayGet", args, 2); err != nil {
		return nil, err
	}
	arr, err := arrayArg(ev, "arrayGet", args[0])
	if err != nil {
		return nil, err
	}
	i, err := indexArg(ev, "arrayGet", args[1], arr)
	if err != nil {
		return nil, err
	}
	return arr.Items[i], nil
}
