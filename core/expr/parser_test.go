package expr

import (
	"testing"

	"github.com/asaidimu/go-sieve/core/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Comparison(t *testing.T) {
	node, err := Parse("price < 100")
	require.NoError(t, err)
	cmp, ok := node.(*Compare)
	require.True(t, ok)
	assert.Equal(t, FieldRef{Name: "price"}, cmp.Field)
	assert.Equal(t, filter.OperatorLt, cmp.Op)
	assert.Equal(t, float64(100), cmp.Value.Value)
}

func TestParse_ComparisonOperators(t *testing.T) {
	cases := []struct {
		in string
		op filter.Operator
	}{
		{"price == 1", filter.OperatorEq},
		{"price = 1", filter.OperatorEq},
		{"price != 1", filter.OperatorNeq},
		{"price < 1", filter.OperatorLt},
		{"price <= 1", filter.OperatorLte},
		{"price > 1", filter.OperatorGt},
		{"price >= 1", filter.OperatorGte},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			node, err := Parse(tc.in)
			require.NoError(t, err)
			cmp, ok := node.(*Compare)
			require.True(t, ok)
			assert.Equal(t, tc.op, cmp.Op)
		})
	}
}

func TestParse_Literals(t *testing.T) {
	cases := []struct {
		in    string
		value any
	}{
		{"price == 99.99", 99.99},
		{"price == -5", float64(-5)},
		{"name == 'Laptop'", "Laptop"},
		{`name == "Laptop"`, "Laptop"},
		{"inStock == true", true},
		{"inStock == FALSE", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			node, err := Parse(tc.in)
			require.NoError(t, err)
			cmp, ok := node.(*Compare)
			require.True(t, ok)
			assert.Equal(t, tc.value, cmp.Value.Value)
		})
	}
}

func TestParse_StringPredicates(t *testing.T) {
	cases := []struct {
		in   string
		pred filter.Operator
	}{
		{"name contains 'Laptop'", filter.OperatorContains},
		{"name startswith 'Lap'", filter.OperatorStartsWith},
		{"name endswith 'top'", filter.OperatorEndsWith},
		{"name CONTAINS 'Laptop'", filter.OperatorContains},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			node, err := Parse(tc.in)
			require.NoError(t, err)
			pred, ok := node.(*StringPred)
			require.True(t, ok)
			assert.Equal(t, "name", pred.Field)
			assert.Equal(t, tc.pred, pred.Pred)
		})
	}
}

func TestParse_SizeAccessor(t *testing.T) {
	node, err := Parse("size(tags) > 2")
	require.NoError(t, err)
	cmp, ok := node.(*Compare)
	require.True(t, ok)
	assert.Equal(t, FieldRef{Name: "tags", Size: true}, cmp.Field)
	assert.Equal(t, float64(2), cmp.Value.Value)
}

func TestParse_Logical(t *testing.T) {
	t.Run("and", func(t *testing.T) {
		node, err := Parse("name contains 'Laptop' and price < 1000")
		require.NoError(t, err)
		and, ok := node.(*And)
		require.True(t, ok)
		_, ok = and.Left.(*StringPred)
		assert.True(t, ok)
		_, ok = and.Right.(*Compare)
		assert.True(t, ok)
	})

	t.Run("and binds tighter than or", func(t *testing.T) {
		node, err := Parse("a == 1 or b == 2 and c == 3")
		require.NoError(t, err)
		or, ok := node.(*Or)
		require.True(t, ok)
		_, ok = or.Left.(*Compare)
		assert.True(t, ok)
		_, ok = or.Right.(*And)
		assert.True(t, ok)
	})

	t.Run("parentheses override precedence", func(t *testing.T) {
		node, err := Parse("(a == 1 or b == 2) and c == 3")
		require.NoError(t, err)
		and, ok := node.(*And)
		require.True(t, ok)
		_, ok = and.Left.(*Or)
		assert.True(t, ok)
	})
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"dangling operator", "price <"},
		{"missing operator", "price 100"},
		{"unterminated string", "name contains 'abc"},
		{"method call shape", "name.toUpper() == 'X'"},
		{"string predicate on size", "size(tags) contains 'x'"},
		{"string predicate without string", "name contains 42"},
		{"unbalanced paren", "(price < 100"},
		{"trailing tokens", "price < 100 100"},
		{"lone bang", "price ! 100"},
		{"object literal", "{a: 1}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			node, err := Parse(tc.in)
			assert.Nil(t, node, "rejected input must produce zero AST nodes")
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.GreaterOrEqual(t, parseErr.Pos, 0)
		})
	}
}

func TestParseError_Message(t *testing.T) {
	_, err := Parse("price <")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse error at position")
}
