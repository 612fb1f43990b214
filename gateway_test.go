package medial

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatementClassification(t *testing.T) {
	var cases = []struct {
		query      string
		read, rows bool
	}{
		{"SELECT * FROM products", true, true},
		{"  (SELECT 1) UNION (SELECT 2)", true, true},
		{"with x as (select 1) select * from x", true, true},
		{"PRAGMA table_info(products)", true, true},
		{"INSERT INTO products (name) VALUES (?)", false, false},
		{"INSERT INTO products (name) VALUES ($1) RETURNING id", false, true},
		{"UPDATE products SET name = ? WHERE id = ?", false, false},
		{"DELETE FROM products WHERE id = ?", false, false},
		{"CREATE TABLE t (id INTEGER)", false, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.read, isRead(tc.query), tc.query)
		assert.Equal(t, tc.rows, returnsRows(tc.query), tc.query)
	}
}

func TestResultSetIteration(t *testing.T) {
	db, _ := newProductsDB(t)

	rs, err := db.Execute(context.Background(), "SELECT id, name FROM products ORDER BY id")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, rs.Columns())
	assert.Equal(t, 2, rs.Len())

	var it RowIterator[Record] = rs
	var names []any
	for {
		rec, err := it.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, rec.Value("name"))
	}
	assert.Equal(t, []any{"widget", "squidget"}, names)
	require.NoError(t, it.Close())

	_, err = it.Next()
	assert.Equal(t, io.EOF, err)

	v, ok := rs.Records()[0].Get("id")
	assert.True(t, ok)
	assert.Equal(t, int64(1), v)
	_, ok = rs.Records()[0].Get("missing")
	assert.False(t, ok)
}

func TestGatewayTransaction(t *testing.T) {
	db, _ := newProductsDB(t)
	var ctx = context.Background()

	rs, err := db.Execute(ctx, "UPDATE products SET name = ? WHERE id = ?", "gidget", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rs.RowsAffected())

	// Reads see the open transaction.
	var rec = fetchOne(t, db, "SELECT name FROM products WHERE id = 1")
	assert.Equal(t, "gidget", rec.Value("name"))

	require.NoError(t, db.Rollback(ctx))
	rec = fetchOne(t, db, "SELECT name FROM products WHERE id = 1")
	assert.Equal(t, "widget", rec.Value("name"))

	_, err = db.Execute(ctx, "INSERT INTO products (name) VALUES (?)", "sprocket")
	require.NoError(t, err)
	key, err := db.LastInsertedKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), key)
	require.NoError(t, db.Commit(ctx))

	// Commit and Rollback without a transaction do nothing.
	require.NoError(t, db.Commit(ctx))
	require.NoError(t, db.Rollback(ctx))

	_, err = db.Execute(ctx, "SELECT * FROM nowhere")
	require.Error(t, err)
	assert.True(t, IsDatabaseError(err))
}
