package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoercePassThrough(t *testing.T) {
	t.Parallel()

	list := []any{"Go", "SQL"}
	assert.Equal(t, list, Coerce(list))

	m := map[string]any{"name": "Go"}
	assert.Equal(t, m, Coerce(m))

	assert.Equal(t, 42, Coerce(42))
	assert.Equal(t, "plain headline", Coerce("plain headline"))
}

func TestCoerceNilAndBlank(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Coerce(nil))
	assert.Nil(t, Coerce(""))
	assert.Nil(t, Coerce("   \t\n"))
}

func TestCoerceParsesPythonLiteralList(t *testing.T) {
	t.Parallel()

	got := Coerce("[{'name': 'X'}]")
	list, ok := got.([]any)
	require.True(t, ok, "expected []any, got %T", got)
	require.Len(t, list, 1)

	entry, ok := list[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "X", entry["name"])
}

func TestCoerceParsesJSONFirst(t *testing.T) {
	t.Parallel()

	got := Coerce(`[{"name": "Go", "endorsements": 7}]`)
	list, ok := got.([]any)
	require.True(t, ok)
	entry := list[0].(map[string]any)
	assert.Equal(t, "Go", entry["name"])
	assert.Equal(t, float64(7), entry["endorsements"])
}

func TestCoerceKeepsUnparseableStrings(t *testing.T) {
	t.Parallel()

	// Bracketed but not a literal: caller displays the raw string.
	assert.Equal(t, "[not a list", Coerce("[not a list"))
	assert.Equal(t, "[1, oops]", Coerce("[1, oops]"))
	assert.Equal(t, "not a list", Coerce("not a list"))
}

func TestParseLiteral(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  any
	}{
		{"nested dicts", "[{'title': 'Engineer', 'years': 3}]", []any{
			map[string]any{"title": "Engineer", "years": int64(3)},
		}},
		{"tuple becomes list", "('a', 'b')", []any{"a", "b"}},
		{"booleans and none", "[True, False, None]", []any{true, false, nil}},
		{"trailing comma", "['a', 'b',]", []any{"a", "b"}},
		{"escaped quote", `['it\'s fine']`, []any{"it's fine"}},
		{"double quoted", `{"k": "v"}`, map[string]any{"k": "v"}},
		{"floats", "[1.5, -2e3]", []any{1.5, -2000.0}},
		{"unicode escape", `['é']`, []any{"é"}},
		{"empty dict", "{}", map[string]any{}},
		{"empty list", "[]", []any{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLiteral(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseLiteralRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, input := range []string{
		"[1, 2", "{'k': }", "import os", "[1] trailing", "{'a' 'b'}",
	} {
		_, err := ParseLiteral(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Engineer", FirstNonEmpty(nil, "", "  ", "Engineer"))
	assert.Nil(t, FirstNonEmpty(nil, ""))
	assert.Nil(t, FirstNonEmpty())
	assert.Equal(t, "first", FirstNonEmpty("first", "second"))
	assert.Equal(t, 7, FirstNonEmpty(nil, 7))
}
