// Package value implements the tagged-union property value used for every
// node and edge property in the graph: a closed sum over string, float64,
// int32, bool, array and null, with a compact length-prefixed binary
// encoding for disk records and a JSON projection for wire responses.
package value

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Kind identifies which case of the Value union is populated.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindFloat
	KindInt
	KindBool
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Value is the closed sum described in spec §4.1. Exactly one of the typed
// fields is meaningful, selected by Kind; constructors below are the only
// supported way to build one so the invariant can't be broken from outside
// the package.
type Value struct {
	kind Kind
	str  string
	f64  float64
	i32  int32
	b    bool
	arr  []Value
}

func Null() Value              { return Value{kind: KindNull} }
func String(s string) Value    { return Value{kind: KindString, str: s} }
func Float(f float64) Value    { return Value{kind: KindFloat, f64: f} }
func Int(i int32) Value        { return Value{kind: KindInt, i32: i} }
func Bool(b bool) Value        { return Value{kind: KindBool, b: b} }
func Array(vs []Value) Value   { return Value{kind: KindArray, arr: append([]Value(nil), vs...)} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// StringVal, FloatVal, IntVal, BoolVal, ArrayVal return the underlying data
// along with whether v was actually of that kind.
func (v Value) StringVal() (string, bool)  { return v.str, v.kind == KindString }
func (v Value) FloatVal() (float64, bool)  { return v.f64, v.kind == KindFloat }
func (v Value) IntVal() (int32, bool)      { return v.i32, v.kind == KindInt }
func (v Value) BoolVal() (bool, bool)      { return v.b, v.kind == KindBool }
func (v Value) ArrayVal() ([]Value, bool)  { return v.arr, v.kind == KindArray }

// Equal implements structural equality as required by spec §4.1.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == other.str
	case KindFloat:
		return v.f64 == other.f64
	case KindInt:
		return v.i32 == other.i32
	case KindBool:
		return v.b == other.b
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// JSON projects v onto the map[string]any / []any / primitive shape used by
// the HTTP response body (spec §4.1: Null→null, Boolean→bool, numeric→number,
// String→string, Array→array).
func (v Value) JSON() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindString:
		return v.str
	case KindFloat:
		return v.f64
	case KindInt:
		return v.i32
	case KindBool:
		return v.b
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.JSON()
		}
		return out
	default:
		return nil
	}
}

// Encode produces the compact length-prefixed binary disk/wire format:
// [kind:1][payload], arrays recursing with a uint32 element count prefix.
func Encode(v Value) []byte {
	switch v.kind {
	case KindNull:
		return []byte{byte(KindNull)}
	case KindBool:
		b := byte(0)
		if v.b {
			b = 1
		}
		return []byte{byte(KindBool), b}
	case KindInt:
		buf := make([]byte, 5)
		buf[0] = byte(KindInt)
		binary.BigEndian.PutUint32(buf[1:], uint32(v.i32))
		return buf
	case KindFloat:
		buf := make([]byte, 9)
		buf[0] = byte(KindFloat)
		binary.BigEndian.PutUint64(buf[1:], math.Float64bits(v.f64))
		return buf
	case KindString:
		buf := make([]byte, 5+len(v.str))
		buf[0] = byte(KindString)
		binary.BigEndian.PutUint32(buf[1:5], uint32(len(v.str)))
		copy(buf[5:], v.str)
		return buf
	case KindArray:
		buf := []byte{byte(KindArray)}
		countBuf := make([]byte, 4)
		binary.BigEndian.PutUint32(countBuf, uint32(len(v.arr)))
		buf = append(buf, countBuf...)
		for _, e := range v.arr {
			enc := Encode(e)
			elBuf := make([]byte, 4)
			binary.BigEndian.PutUint32(elBuf, uint32(len(enc)))
			buf = append(buf, elBuf...)
			buf = append(buf, enc...)
		}
		return buf
	default:
		return []byte{byte(KindNull)}
	}
}

// Decode is the inverse of Encode; decoding what Encode produced for any
// Value always yields an equal Value (spec §8 round-trip property).
func Decode(data []byte) (Value, error) {
	v, rest, err := decode(data)
	if err != nil {
		return Value{}, err
	}
	if len(rest) != 0 {
		return Value{}, fmt.Errorf("value: %d trailing bytes after decode", len(rest))
	}
	return v, nil
}

func decode(data []byte) (Value, []byte, error) {
	if len(data) < 1 {
		return Value{}, nil, fmt.Errorf("value: empty buffer")
	}
	kind := Kind(data[0])
	data = data[1:]
	switch kind {
	case KindNull:
		return Null(), data, nil
	case KindBool:
		if len(data) < 1 {
			return Value{}, nil, fmt.Errorf("value: truncated bool")
		}
		return Bool(data[0] == 1), data[1:], nil
	case KindInt:
		if len(data) < 4 {
			return Value{}, nil, fmt.Errorf("value: truncated int")
		}
		return Int(int32(binary.BigEndian.Uint32(data))), data[4:], nil
	case KindFloat:
		if len(data) < 8 {
			return Value{}, nil, fmt.Errorf("value: truncated float")
		}
		return Float(math.Float64frombits(binary.BigEndian.Uint64(data))), data[8:], nil
	case KindString:
		if len(data) < 4 {
			return Value{}, nil, fmt.Errorf("value: truncated string length")
		}
		n := binary.BigEndian.Uint32(data)
		data = data[4:]
		if uint32(len(data)) < n {
			return Value{}, nil, fmt.Errorf("value: truncated string body")
		}
		return String(string(data[:n])), data[n:], nil
	case KindArray:
		if len(data) < 4 {
			return Value{}, nil, fmt.Errorf("value: truncated array length")
		}
		n := binary.BigEndian.Uint32(data)
		data = data[4:]
		elems := make([]Value, 0, n)
		for i := uint32(0); i < n; i++ {
			if len(data) < 4 {
				return Value{}, nil, fmt.Errorf("value: truncated array element length")
			}
			elLen := binary.BigEndian.Uint32(data)
			data = data[4:]
			if uint32(len(data)) < elLen {
				return Value{}, nil, fmt.Errorf("value: truncated array element body")
			}
			el, _, err := decode(data[:elLen])
			if err != nil {
				return Value{}, nil, err
			}
			elems = append(elems, el)
			data = data[elLen:]
		}
		return Array(elems), data, nil
	default:
		return Value{}, nil, fmt.Errorf("value: unknown kind byte %d", kind)
	}
}
