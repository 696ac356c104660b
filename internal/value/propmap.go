package value

import "fmt"

// PropertyMap is an ordered-input, duplicate-free mapping string -> Value
// (spec §3 invariant 5: property maps contain no duplicate keys; insertion
// order is not observable).
type PropertyMap map[string]Value

// Builder accumulates (key, coercible) pairs the way the teacher's request
// validators accumulate typed fields, then freezes into a PropertyMap.
// Later entries for the same key overwrite earlier ones.
type Builder struct {
	entries map[string]Value
}

// NewBuilder starts an empty property-map builder.
func NewBuilder() *Builder {
	return &Builder{entries: make(map[string]Value)}
}

// Set coerces a Go literal into a Value and stores it under key. Supported
// inputs are nil (stored as Null), string, float64, float32, int, int32,
// int64, bool, []any, []Value and value.Value itself; anything else is an
// error (spec §4.1's "fixed set of conversions").
func (b *Builder) Set(key string, raw any) error {
	v, err := Coerce(raw)
	if err != nil {
		return fmt.Errorf("property %q: %w", key, err)
	}
	b.entries[key] = v
	return nil
}

// Build freezes the builder into a PropertyMap.
func (b *Builder) Build() PropertyMap {
	out := make(PropertyMap, len(b.entries))
	for k, v := range b.entries {
		out[k] = v
	}
	return out
}

// Coerce converts a single Go literal into a Value under the fixed
// conversion rules used by the property-map constructor and the DSL literal
// evaluator.
func Coerce(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int32(x)), nil
	case int32:
		return Int(x), nil
	case int64:
		return Int(int32(x)), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case []any:
		elems := make([]Value, len(x))
		for i, e := range x {
			ev, err := Coerce(e)
			if err != nil {
				return Value{}, err
			}
			elems[i] = ev
		}
		return Array(elems), nil
	case []Value:
		return Array(x), nil
	default:
		return Value{}, fmt.Errorf("no coercion for %T", raw)
	}
}

// JSONMap projects a PropertyMap onto a plain map[string]any for wire
// responses.
func (pm PropertyMap) JSONMap() map[string]any {
	out := make(map[string]any, len(pm))
	for k, v := range pm {
		out[k] = v.JSON()
	}
	return out
}

// Clone returns an owned copy, matching the "owned copies unless explicitly
// requested as temporary" ownership rule in spec §3.
func (pm PropertyMap) Clone() PropertyMap {
	out := make(PropertyMap, len(pm))
	for k, v := range pm {
		out[k] = v
	}
	return out
}
