package medial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mappedDescriptor(t *testing.T) *Descriptor {
	t.Helper()

	d, err := NewDescriptor(EntitySpec{
		Table: "products",
		Properties: []Property{
			{Name: "id", Auto: true},
			{Name: "name"},
			{Name: "description"},
			{Name: "model_no"},
			{Name: "colour", Column: "color"},
		},
	})
	require.NoError(t, err)
	return d
}

func TestBuildInsert(t *testing.T) {
	var d = mappedDescriptor(t)

	st, err := BuildInsert(d, []string{"name", "colour"}, []any{"fridget", grey})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO products (name, color) VALUES (?, ?)", st.Text)
	assert.Equal(t, []any{"fridget", grey}, st.Args)
	assert.Equal(t, len(st.Args), CountPlaceholders(st.Text))

	_, err = BuildInsert(d, []string{"name"}, []any{"a", "b"})
	assert.Error(t, err)
	_, err = BuildInsert(d, nil, nil)
	assert.Error(t, err)
}

func TestBuildUpdate(t *testing.T) {
	var d = mappedDescriptor(t)

	st, err := BuildUpdate(d, []string{"description", "colour"}, []any{"A vibrating doohickey", black}, int64(1))
	require.NoError(t, err)
	assert.Equal(t, "UPDATE products SET description = ?, color = ? WHERE id = ?", st.Text)
	assert.Equal(t, []any{"A vibrating doohickey", black, int64(1)}, st.Args)
	assert.Equal(t, len(st.Args), CountPlaceholders(st.Text))
}

func TestBuildSelectAndDelete(t *testing.T) {
	var d = mappedDescriptor(t)

	var st = BuildSelect(d, nil, 5)
	assert.Equal(t, "SELECT * FROM products WHERE id = ?", st.Text)
	assert.Equal(t, []any{5}, st.Args)

	st = BuildSelect(d, []string{"name", "colour"}, 5)
	assert.Equal(t, "SELECT name, color FROM products WHERE id = ?", st.Text)

	st = BuildDelete(d, 5)
	assert.Equal(t, "DELETE FROM products WHERE id = ?", st.Text)
	assert.Equal(t, []any{5}, st.Args)
}

func TestBuildWithSchema(t *testing.T) {
	d, err := NewDescriptor(EntitySpec{
		Schema:     "shop",
		Table:      "products",
		Key:        "sku",
		Properties: []Property{{Name: "sku"}, {Name: "name"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "DELETE FROM shop.products WHERE sku = ?", BuildDelete(d, "X1").Text)
}

func TestBuildSelectWhere(t *testing.T) {
	var d = mappedDescriptor(t)

	st, err := BuildSelectWhere(d, Selection{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM products ORDER BY id", st.Text)
	assert.Empty(t, st.Args)

	st, err = BuildSelectWhere(d, Selection{
		Filter: map[string]any{
			"name":     "widget",
			"model_no": []int{2000, 3000},
		},
		Sort:   []string{"-colour"},
		Limit:  10,
		Offset: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM products WHERE model_no IN (?, ?) AND name = ? ORDER BY color DESC LIMIT 10 OFFSET 5", st.Text)
	assert.Equal(t, []any{2000, 3000, "widget"}, st.Args)

	st, err = BuildSelectWhere(d, Selection{
		Filter: map[string]any{
			"colour":      FilterNullFrom(false),
			"description": FilterStringContainsFrom("inky"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM products WHERE color IS NOT NULL AND description LIKE ? ORDER BY id", st.Text)
	assert.Equal(t, []any{"%inky%"}, st.Args)

	_, err = BuildSelectWhere(d, Selection{Filter: map[string]any{"price": 1}})
	assert.Error(t, err)

	_, err = BuildSelectWhere(d, Selection{Sort: []string{"name; DROP TABLE products"}})
	assert.Error(t, err)
}

func TestMakeSortClause(t *testing.T) {
	assert.Equal(t, "", MakeSortClause(nil, nil))
	assert.Equal(t, "name ASC, model DESC", MakeSortClause([]string{"+name", "-model_no"}, map[string]string{"model_no": "model"}))
}

func TestLimitOffsetClause(t *testing.T) {
	assert.Equal(t, "", LimitOffsetClause(0, 0))
	assert.Equal(t, "", LimitOffsetClause(-1, 0))
	assert.Equal(t, " LIMIT 5", LimitOffsetClause(5, 0))
	assert.Equal(t, " OFFSET 7", LimitOffsetClause(0, 7))
}

func TestParseFilterMapIntoWhereClause(t *testing.T) {
	where, args, err := ParseFilterMapIntoWhereClause(nil)
	require.NoError(t, err)
	assert.Equal(t, "", where)
	assert.Nil(t, args)

	// Single element slices compare with =, byte slices are scalars.
	where, args, err = ParseFilterMapIntoWhereClause(map[string]any{
		"a": []string{"x"},
		"b": []byte("raw"),
		"c": FilterNullFrom(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "a = ? AND b = ? AND c IS NULL", where)
	assert.Equal(t, []any{"x", []byte("raw")}, args)

	_, _, err = ParseFilterMapIntoWhereClause(map[string]any{"a": []string{}})
	assert.Error(t, err)
}
