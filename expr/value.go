// Package expr is the closed expression language rules are written in.
// Guard and mutation-value expressions arrive as JSON-shaped ASTs, are
// compiled once at load into a fixed node tree, and are evaluated every
// frame against an entity context. The operator set is fixed: comparisons,
// arithmetic, boolean logic, aggregates, and variable lookup. There is no
// general scripting here.
package expr

// Kind discriminates expression value variants.
type Kind uint8

const (
	// KindAbsent is the neutral "no value" result. Unresolved variable
	// paths evaluate to it; it compares false and aggregates skip it.
	KindAbsent Kind = iota
	KindFloat
	KindBool
	KindString
	KindList
	KindMap
)

// Value is one expression value. All numbers are float64; scalar leaves
// are float, bool, or string only. The zero Value is Absent.
type Value struct {
	kind   Kind
	num    float64
	b      bool
	str    string
	items  []Value
	fields map[string]Value
}

// None is the absent value.
var None = Value{}

// Float wraps a number.
func Float(f float64) Value { return Value{kind: KindFloat, num: f} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Str wraps a string.
func Str(s string) Value { return Value{kind: KindString, str: s} }

// ListOf wraps a slice. The slice is not copied.
func ListOf(items []Value) Value { return Value{kind: KindList, items: items} }

// Object wraps a field map. The map is not copied.
func Object(fields map[string]Value) Value { return Value{kind: KindMap, fields: fields} }

// FromAny converts a JSON-decoded scalar or container into a Value.
// Unsupported shapes convert to Absent.
func FromAny(v any) Value {
	switch x := v.(type) {
	case float64:
		return Float(x)
	case int:
		return Float(float64(x))
	case int64:
		return Float(float64(x))
	case bool:
		return Bool(x)
	case string:
		return Str(x)
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = FromAny(item)
		}
		return ListOf(items)
	case map[string]any:
		fields := make(map[string]Value, len(x))
		for k, item := range x {
			fields[k] = FromAny(item)
		}
		return Object(fields)
	default:
		return None
	}
}

// Kind returns the value variant.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether the value is the neutral absent value.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// AsFloat returns the numeric payload.
func (v Value) AsFloat() (float64, bool) { return v.num, v.kind == KindFloat }

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsString returns the string payload.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// Items returns the list payload, or nil for non-lists.
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.items
}

// Fields returns the map payload, or nil for non-maps.
func (v Value) Fields() map[string]Value {
	if v.kind != KindMap {
		return nil
	}
	return v.fields
}

// Get looks up a field on a map value; anything else yields Absent.
func (v Value) Get(key string) Value {
	if v.kind != KindMap {
		return None
	}
	return v.fields[key]
}

// Truthy is the boolean coercion used by guards and logic operators:
// false, 0, "", empty list, and Absent are false; everything else is true.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindFloat:
		return v.num != 0
	case KindString:
		return v.str != ""
	case KindList:
		return len(v.items) > 0
	case KindMap:
		return true
	default:
		return false
	}
}

// Equal is deep structural equality. Values of different kinds are never
// equal; two Absents are equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindAbsent:
		return true
	case KindFloat:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.str == o.str
	case KindList:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.fields) != len(o.fields) {
			return false
		}
		for k, val := range v.fields {
			other, ok := o.fields[k]
			if !ok || !val.Equal(other) {
				return false
			}
		}
		return true
	}
	return false
}

// Interface converts a Value back to a plain Go representation, for
// diagnostics and store writes.
func (v Value) Interface() any {
	switch v.kind {
	case KindFloat:
		return v.num
	case KindBool:
		return v.b
	case KindString:
		return v.str
	case KindList:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.fields))
		for k, item := range v.fields {
			out[k] = item.Interface()
		}
		return out
	default:
		return nil
	}
}
