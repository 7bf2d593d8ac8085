package evaluator

import (
	"math"

	"github.com/oarkflow/json"
)

// ValueToJSON marshals a value to JSON bytes. Dictionary keys are rendered with
// their printed form; functions, classes and objects become descriptive strings.
func ValueToJSON(v Value) ([]byte, error) {
	return json.Marshal(valueToRaw(v, map[any]bool{}))
}

// ValueToJSONString is a convenience that returns a string.
func ValueToJSONString(v Value) string {
	b, err := ValueToJSON(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func valueToRaw(v Value, seen map[any]bool) any {
	switch val := v.(type) {
	case nil, Null, Illegal:
		return nil
	case Bool:
		return val.Value
	case Int:
		return val.Value
	case Float:
		if math.IsNaN(val.Value) || math.IsInf(val.Value, 0) {
			return FormatFloat(val.Value)
		}
		return val.Value
	case String:
		return val.Value
	case *Array:
		if seen[val] {
			return "[...]"
		}
		seen[val] = true
		defer delete(seen, val)
		items := make([]any, len(val.Items))
		for i, item := range val.Items {
			items[i] = valueToRaw(item, seen)
		}
		return items
	case *Dictionary:
		if seen[val] {
			return "{...}"
		}
		seen[val] = true
		defer delete(seen, val)
		out := make(map[string]any, val.Len())
		val.Each(func(k, x Value) {
			out[Format(k)] = valueToRaw(x, seen)
		})
		return out
	default:
		return Repr(v)
	}
}

// FromLiteral converts a decoded JSON literal into a value. Lists become arrays
// and objects become dictionaries with string keys; nothing is evaluated.
func FromLiteral(raw any) Value {
	switch val := raw.(type) {
	case nil:
		return Null{}
	case bool:
		return Bool{Value: val}
	case int64:
		return Int{Value: val}
	case int:
		return Int{Value: int64(val)}
	case float64:
		return Float{Value: val}
	case string:
		return String{Value: val}
	case []any:
		items := make([]Value, len(val))
		for i, item := range val {
			items[i] = FromLiteral(item)
		}
		return NewArray(items)
	case map[string]any:
		d := NewDictionary()
		for k, item := range val {
			d.Set(String{Value: k}, FromLiteral(item))
		}
		return d
	}
	return Null{}
}
