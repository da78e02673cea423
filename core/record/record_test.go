package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueConstructors(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		v := String("Laptop")
		assert.Equal(t, KindString, v.Kind())
		s, ok := v.AsString()
		assert.True(t, ok)
		assert.Equal(t, "Laptop", s)
		_, ok = v.AsNumber()
		assert.False(t, ok)
	})

	t.Run("number", func(t *testing.T) {
		v := Number(49.99)
		assert.Equal(t, KindNumber, v.Kind())
		n, ok := v.AsNumber()
		assert.True(t, ok)
		assert.Equal(t, 49.99, n)
	})

	t.Run("boolean", func(t *testing.T) {
		v := Bool(true)
		assert.Equal(t, KindBoolean, v.Kind())
		b, ok := v.AsBool()
		assert.True(t, ok)
		assert.True(t, b)
	})

	t.Run("string set deduplicates", func(t *testing.T) {
		v := StringSet("a", "b", "a")
		set, ok := v.AsStringSet()
		assert.True(t, ok)
		assert.Equal(t, []string{"a", "b"}, set)
	})

	t.Run("string set is copied both ways", func(t *testing.T) {
		items := []string{"a", "b"}
		v := StringSet(items...)
		items[0] = "mutated"
		set, _ := v.AsStringSet()
		assert.Equal(t, []string{"a", "b"}, set)

		set[0] = "mutated again"
		again, _ := v.AsStringSet()
		assert.Equal(t, []string{"a", "b"}, again)
	})
}

func TestRecord(t *testing.T) {
	rec := New(map[string]Value{
		"name":  String("Laptop"),
		"price": Number(999),
	})

	t.Run("field lookup", func(t *testing.T) {
		v, ok := rec.Field("name")
		assert.True(t, ok)
		assert.Equal(t, "Laptop", v.Interface())

		_, ok = rec.Field("missing")
		assert.False(t, ok)
	})

	t.Run("fields are sorted", func(t *testing.T) {
		assert.Equal(t, []string{"name", "price"}, rec.Fields())
		assert.Equal(t, 2, rec.Len())
	})

	t.Run("source map is copied", func(t *testing.T) {
		fields := map[string]Value{"a": Number(1)}
		r := New(fields)
		fields["b"] = Number(2)
		assert.Equal(t, 1, r.Len())
	})
}

func TestCoerce(t *testing.T) {
	cases := []struct {
		name string
		in   any
		kind Kind
	}{
		{"string", "hi", KindString},
		{"bool", true, KindBoolean},
		{"int", 7, KindNumber},
		{"int64", int64(7), KindNumber},
		{"float64", 7.5, KindNumber},
		{"string slice", []string{"x"}, KindStringSet},
		{"any slice of strings", []any{"x", "y"}, KindStringSet},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, ok := Coerce(tc.in)
			require.True(t, ok)
			assert.Equal(t, tc.kind, v.Kind())
		})
	}

	t.Run("unsupported types", func(t *testing.T) {
		_, ok := Coerce(struct{}{})
		assert.False(t, ok)
		_, ok = Coerce([]any{"x", 1})
		assert.False(t, ok)
	})
}

func TestFromMap(t *testing.T) {
	rec, err := FromMap(map[string]any{
		"name":    "Laptop",
		"price":   999,
		"inStock": true,
		"tags":    []string{"electronics"},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, rec.Len())

	v, ok := rec.Field("price")
	require.True(t, ok)
	n, _ := v.AsNumber()
	assert.Equal(t, float64(999), n)

	_, err = FromMap(map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
}
