package filter

import (
	"testing"

	"github.com/asaidimu/go-sieve/core/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogRecords(t *testing.T) []record.Record {
	t.Helper()
	laptop, err := record.FromMap(map[string]any{
		"name": "Laptop Pro", "price": 999.99, "inStock": true,
		"tags": []string{"electronics", "computers"},
	})
	require.NoError(t, err)
	mouse, err := record.FromMap(map[string]any{
		"name": "Wireless Mouse", "price": 24.5, "inStock": true,
		"tags": []string{"electronics", "accessories"},
	})
	require.NoError(t, err)
	desk, err := record.FromMap(map[string]any{
		"name": "Standing Desk", "price": 450, "inStock": false,
		"tags": []string{"furniture"},
	})
	require.NoError(t, err)
	return []record.Record{laptop, mouse, desk}
}

func names(records []record.Record) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		v, _ := rec.Field("name")
		s, _ := v.AsString()
		out = append(out, s)
	}
	return out
}

func TestEngine_Filter(t *testing.T) {
	e := NewEngine(catalogCapabilities(t), nil)
	records := catalogRecords(t)

	t.Run("numeric less-than", func(t *testing.T) {
		matched, err := e.Filter("price", OperatorLt, 100, records)
		require.NoError(t, err)
		assert.Equal(t, []string{"Wireless Mouse"}, names(matched))
	})

	t.Run("boolean equality", func(t *testing.T) {
		matched, err := e.Filter("inStock", OperatorEq, true, records)
		require.NoError(t, err)
		assert.Equal(t, []string{"Laptop Pro", "Wireless Mouse"}, names(matched))
	})

	t.Run("string contains", func(t *testing.T) {
		matched, err := e.Filter("name", OperatorContains, "Mouse", records)
		require.NoError(t, err)
		assert.Equal(t, []string{"Wireless Mouse"}, names(matched))
	})

	t.Run("string-set contains", func(t *testing.T) {
		matched, err := e.Filter("tags", OperatorContains, "electronics", records)
		require.NoError(t, err)
		assert.Len(t, matched, 2)
	})

	t.Run("string in list", func(t *testing.T) {
		matched, err := e.Filter("name", OperatorIn, []string{"Standing Desk", "Laptop Pro"}, records)
		require.NoError(t, err)
		assert.Equal(t, []string{"Laptop Pro", "Standing Desk"}, names(matched))
	})

	t.Run("stable original order", func(t *testing.T) {
		matched, err := e.Filter("price", OperatorGt, 0, records)
		require.NoError(t, err)
		assert.Equal(t, []string{"Laptop Pro", "Wireless Mouse", "Standing Desk"}, names(matched))
	})

	t.Run("unknown field is an invalid request", func(t *testing.T) {
		_, err := e.Filter("secret", OperatorEq, "x", records)
		var invalid *InvalidRequest
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "secret", invalid.Field)
	})

	t.Run("unknown operator is an invalid request", func(t *testing.T) {
		_, err := e.Filter("name", Operator("regex"), ".*", records)
		var invalid *InvalidRequest
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("operator disallowed for kind is an invalid request", func(t *testing.T) {
		_, err := e.Filter("name", OperatorLt, "x", records)
		var invalid *InvalidRequest
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("idempotent", func(t *testing.T) {
		once, err := e.Filter("inStock", OperatorEq, true, records)
		require.NoError(t, err)
		twice, err := e.Filter("inStock", OperatorEq, true, once)
		require.NoError(t, err)
		assert.Equal(t, names(once), names(twice))
	})

	t.Run("literal type mismatch excludes record without failing batch", func(t *testing.T) {
		matched, err := e.Filter("price", OperatorLt, "not a number", records)
		require.NoError(t, err)
		assert.Empty(t, matched)
	})
}

func TestEpsilonEquality(t *testing.T) {
	e := NewEngine(catalogCapabilities(t), nil)
	// Added as float64 variables so the sum lands just above 0.3; constant
	// arithmetic would round to 0.3 exactly.
	tenth, fifth := 0.1, 0.2
	rec, err := record.FromMap(map[string]any{"price": tenth + fifth})
	require.NoError(t, err)

	// 0.1+0.2 != 0.3 exactly; epsilon equality must still match.
	matched, err := e.Filter("price", OperatorEq, 0.3, []record.Record{rec})
	require.NoError(t, err)
	assert.Len(t, matched, 1)

	matched, err = e.Filter("price", OperatorNeq, 0.3, []record.Record{rec})
	require.NoError(t, err)
	assert.Empty(t, matched)

	// Ordering comparisons stay exact.
	matched, err = e.Filter("price", OperatorGt, 0.3, []record.Record{rec})
	require.NoError(t, err)
	assert.Len(t, matched, 1)
}

func TestEngine_Match(t *testing.T) {
	e := NewEngine(catalogCapabilities(t), nil)
	records := catalogRecords(t)

	t.Run("nil filter matches everything", func(t *testing.T) {
		passes, err := e.Match(nil, records[0])
		require.NoError(t, err)
		assert.True(t, passes)
	})

	t.Run("and group", func(t *testing.T) {
		f := NewBuilder().WhereGroup(LogicalAnd).
			Where("name").Contains("Laptop").
			Where("price").Lt(1000).
			End().Build()

		passes, err := e.Match(f, records[0])
		require.NoError(t, err)
		assert.True(t, passes)

		passes, err = e.Match(f, records[1])
		require.NoError(t, err)
		assert.False(t, passes)
	})

	t.Run("or group", func(t *testing.T) {
		f := NewBuilder().WhereGroup(LogicalOr).
			Where("price").Lt(30).
			Where("inStock").Eq(false).
			End().Build()

		matched, err := e.FilterSet(f, records)
		require.NoError(t, err)
		assert.Equal(t, []string{"Wireless Mouse", "Standing Desk"}, names(matched))
	})

	t.Run("violation propagates instead of becoming false", func(t *testing.T) {
		f := NewBuilder().WhereGroup(LogicalOr).
			Where("inStock").Eq(true).
			Where("secret").Eq("x").
			End().Build()

		// The or short-circuits for an in-stock record, so the violating
		// clause is never reached.
		passes, err := e.Match(f, records[0])
		require.NoError(t, err)
		assert.True(t, passes)

		// For the out-of-stock record the violating clause is evaluated
		// and must surface, not degrade to a non-match.
		_, err = e.Match(f, records[2])
		var violation *CapabilityViolation
		require.ErrorAs(t, err, &violation)
		assert.Equal(t, ViolationFieldNotAllowed, violation.Kind)
	})

	t.Run("filter set fails on capability violation", func(t *testing.T) {
		f := NewBuilder().Where("secret").Eq("x").Build()
		_, err := e.FilterSet(f, records)
		var violation *CapabilityViolation
		require.ErrorAs(t, err, &violation)
	})

	t.Run("missing field is a non-match", func(t *testing.T) {
		sparse, err := record.FromMap(map[string]any{"name": "Bare"})
		require.NoError(t, err)
		f := NewBuilder().Where("price").Lt(10).Build()
		passes, err := e.Match(f, sparse)
		require.NoError(t, err)
		assert.False(t, passes)
	})
}
