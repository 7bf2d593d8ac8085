package evaluator

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Format renders a value the way print shows it. Strings are raw at the top
// level and quoted inside containers.
func Format(v Value) string {
	if s, ok := v.(String); ok {
		return s.Value
	}
	var sb strings.Builder
	writeRepr(&sb, v, map[any]bool{})
	return sb.String()
}

// Repr renders a value with strings quoted.
func Repr(v Value) string {
	var sb strings.Builder
	writeRepr(&sb, v, map[any]bool{})
	return sb.String()
}

func writeRepr(sb *strings.Builder, v Value, seen map[any]bool) {
	switch val := v.(type) {
	case Null:
		sb.WriteString("null")
	case Bool:
		sb.WriteString(strconv.FormatBool(val.Value))
	case Int:
		sb.WriteString(strconv.FormatInt(val.Value, 10))
	case Float:
		sb.WriteString(FormatFloat(val.Value))
	case String:
		sb.WriteString(strconv.Quote(val.Value))
	case *Array:
		if seen[val] {
			sb.WriteString("[...]")
			return
		}
		seen[val] = true
		sb.WriteByte('[')
		for i, item := range val.Items {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeRepr(sb, item, seen)
		}
		sb.WriteByte(']')
		delete(seen, val)
	case *Dictionary:
		if seen[val] {
			sb.WriteString("{...}")
			return
		}
		seen[val] = true
		sb.WriteByte('{')
		for i, k := range val.Keys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeRepr(sb, k, seen)
			sb.WriteString(": ")
			writeRepr(sb, val.entries[k], seen)
		}
		sb.WriteByte('}')
		delete(seen, val)
	case *Function:
		sb.WriteString("<function(")
		sb.WriteString(strings.Join(val.Params, ", "))
		sb.WriteString(")>")
	case *Class:
		sb.WriteString("<class>")
	case ObjectRef:
		sb.WriteString("<object #")
		sb.WriteString(strconv.FormatInt(val.Handle.ID(), 10))
		sb.WriteByte('>')
	case Illegal:
		sb.WriteString("<illegal>")
	default:
		sb.WriteString("<unknown>")
	}
}

// FormatFloat prints floats with at least one fractional digit, switching to
// exponent notation for very large or very small magnitudes.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	abs := math.Abs(f)
	if f != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

func sortValues(vals []Value) {
	sort.SliceStable(vals, func(i, j int) bool {
		ri, rj := Repr(vals[i]), Repr(vals[j])
		if ri != rj {
			return ri < rj
		}
		return TypeName(vals[i]) < TypeName(vals[j])
	})
}

// Equal reports deep equality. Ints and floats compare numerically; functions,
// classes and objects compare by identity.
func Equal(a, b Value) bool {
	return equal(a, b, map[[2]any]bool{})
}

func equal(a, b Value, seen map[[2]any]bool) bool {
	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			return x == y
		}
		return false
	}
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av.Value == bv.Value
	case String:
		bv, ok := b.(String)
		return ok && av.Value == bv.Value
	case *Array:
		bv, ok := b.(*Array)
		if !ok || len(av.Items) != len(bv.Items) {
			return false
		}
		if av == bv || seen[[2]any{av, bv}] {
			return true
		}
		seen[[2]any{av, bv}] = true
		for i := range av.Items {
			if !equal(av.Items[i], bv.Items[i], seen) {
				return false
			}
		}
		return true
	case *Dictionary:
		bv, ok := b.(*Dictionary)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		if av == bv || seen[[2]any{av, bv}] {
			return true
		}
		seen[[2]any{av, bv}] = true
		for k, x := range av.entries {
			y, ok := bv.entries[k]
			if !ok || !equal(x, y, seen) {
				return false
			}
		}
		return true
	case *Function:
		bv, ok := b.(*Function)
		return ok && av == bv
	case *Class:
		bv, ok := b.(*Class)
		return ok && av == bv
	case ObjectRef:
		bv, ok := b.(ObjectRef)
		return ok && av.Handle == bv.Handle
	}
	return false
}

func toFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case Int:
		return float64(n.Value), true
	case Float:
		return n.Value, true
	}
	return 0, false
}
