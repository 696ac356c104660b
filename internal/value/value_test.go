package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueRoundTrip(t *testing.T) {
	cases := []Value{
		Null(),
		String("hello"),
		Float(3.14159),
		Int(-42),
		Bool(true),
		Array([]Value{String("a"), Int(1), Bool(false)}),
	}

	for _, v := range cases {
		encoded := Encode(v)
		decoded, err := Decode(encoded)
		require.NoError(t, err)
		assert.True(t, v.Equal(decoded), "round-trip mismatch for kind %s", v.Kind())
	}
}

func TestValueEqualityIsStructural(t *testing.T) {
	assert.True(t, Int(5).Equal(Int(5)))
	assert.False(t, Int(5).Equal(Int(6)))
	assert.False(t, Int(5).Equal(Float(5)))
	assert.True(t, Array([]Value{Int(1), Int(2)}).Equal(Array([]Value{Int(1), Int(2)})))
	assert.False(t, Array([]Value{Int(1)}).Equal(Array([]Value{Int(1), Int(2)})))
}

func TestBuilderCoercionAndOverwrite(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.Set("name", "alice"))
	require.NoError(t, b.Set("age", 30))
	require.NoError(t, b.Set("age", 31)) // later entry overwrites earlier

	pm := b.Build()
	age, ok := pm["age"].IntVal()
	require.True(t, ok)
	assert.Equal(t, int32(31), age)
	assert.Len(t, pm, 2)
}

func TestJSONProjection(t *testing.T) {
	assert.Nil(t, Null().JSON())
	assert.Equal(t, true, Bool(true).JSON())
	assert.Equal(t, "x", String("x").JSON())
	assert.Equal(t, []any{int32(1), "two"}, Array([]Value{Int(1), String("two")}).JSON())
}
