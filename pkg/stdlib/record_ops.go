package stdlib

import (
	"github.com/C0DECYCLE/PyTerpreter/pkg/evaluator"
)

func dictionaryArg(ev *evaluator.Evaluator, op string, node any) (*evaluator.Dictionary, error) {
	v, err := ev.EvalArg(op, node)
	if err != nil {
		return nil, err
	}
	d, ok := v.(*evaluator.Dictionary)
	if !ok {
		return nil, evaluator.TypeError(op, v, "dictionary")
	}
	return d, nil
}

func keyArg(ev *evaluator.Evaluator, op string, node any) (evaluator.Value, error) {
	k, err := ev.EvalArg(op, node)
	if err != nil {
		return nil, err
	}
	if !evaluator.Hashable(k) {
		return nil, evaluator.TypeError(op, k, "null", "bool", "int", "float", "string", "object")
	}
	return k, nil
}

// dictionary {} → dictionary
func opDictionary(ev *evaluator.Evaluator, args []any) (evaluator.Value, error) {
	if _, err := evaluator.CheckLength("dictionary", args, 0); err != nil {
		return nil, err
	}
	return evaluator.NewDictionary(), nil
}

// dictionarySet { dictionary, key, value } → illegal
func opDictionarySet(ev *evaluator.Evaluator, args []any) (evaluator.Value, error) {
	if _, err := evaluator.CheckLength("dictionarySet", args, 3); err != nil {
		return nil, err
	}
	d, err := dictionaryArg(ev, "dictionarySet", args[0])
	if err != nil {
		return nil, err
	}
	k, err := keyArg(ev, "dictionarySet", args[1])
	if err != nil {
		return nil, err
	}
	v, err := ev.EvalArg("dictionarySet", args[2])
	if err != nil {
		return nil, err
	}
	old, had := d.Get(k)
	ev.Retain(v)
	d.Set(k, v)
	if had {
		ev.Release(old)
	}
	return evaluator.Illegal{}, nil
}

// dictionaryGet { dictionary, key } → value | null
func opDictionaryGet(ev *evaluator.Evaluator, args []any) (evaluator.Value, error) {
	if _, err := evaluator.CheckLength("dictionaryGet", args, 2); err != nil {
		return nil, err
	}
	d, err := dictionaryArg(ev, "dictionaryGet", args[0])
	if err != nil {
		return nil, err
	}
	k, err := keyArg(ev, "dictionaryGet", args[1])
	if err != nil {
		return nil, err
	}
	if v, ok := d.Get(k); ok {
		return v, nil
	}
	return evaluator.NewNull(), nil
}

// dictionaryMerge { a, b } → dictionary (b overrides a)
func opDictionaryMerge(ev *evaluator.Evaluator, args []any) (evaluator.Value, error) {
	if _, err := evaluator.CheckLength("dictionaryMerge", args, 2); err != nil {
		return nil, err
	}
	a, err := dictionaryArg(ev, "dictionaryMerge", args[0])
	if err != nil {
		return nil, err
	}
	b, err := dictionaryArg(ev, "dictionaryMerge", args[1])
	if err != nil {
		return nil, err
	}
	merged := evaluator.NewDictionary()
	copyInto := func(k, v evaluator.Value) {
		if old, had := merged.Get(k); had {
			ev.Release(old)
		}
		ev.Retain(v)
		merged.Set(k, v)
	}
	a.Each(copyInto)
	b.Each(copyInto)
	return merged, nil
}
