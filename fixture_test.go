package medial

import (
	"context"
	"database/sql/driver"
	"testing"

	"github.com/stretchr/testify/require"
)

type colour string

const (
	grey   colour = "GRY"
	black  colour = "BLK"
	yellow colour = "YLW"
)

func (c colour) Value() (driver.Value, error) {
	return string(c), nil
}

var productSpec = EntitySpec{
	Table: "products",
	Properties: []Property{
		{Name: "id", Auto: true},
		{Name: "name"},
		{Name: "description"},
		{Name: "model_no"},
		{Name: "colour", Type: "colour", Default: grey},
	},
}

// partialProductSpec omits most columns of the products table.
var partialProductSpec = EntitySpec{
	Table: "products",
	Properties: []Property{
		{Name: "id", Auto: true},
		{Name: "name"},
	},
}

const (
	productsSchema = `CREATE TABLE products (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT,
	model_no INTEGER,
	colour TEXT
)`
	productsSeed = `INSERT INTO products (id, name, description, model_no, colour) VALUES
	(1, 'widget', 'A doohickey', 2000, NULL),
	(2, 'squidget', 'An inky squishy doohickey', NULL, 'BLK')`
)

// newProductsDB opens an in-memory SQLite database seeded with two products
// and registers the product entity on it.
func newProductsDB(t *testing.T) (*DB, *Descriptor) {
	t.Helper()

	db, err := Open("sqlite::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var ctx = context.Background()
	for _, stmt := range []string{productsSchema, productsSeed} {
		_, err := db.Execute(ctx, stmt)
		require.NoError(t, err)
	}
	require.NoError(t, db.Commit(ctx))

	d, err := db.Register("product", productSpec)
	require.NoError(t, err)

	return db, d
}

// fetchOne returns the single row selected by query.
func fetchOne(t *testing.T, db *DB, query string, args ...any) Record {
	t.Helper()

	rs, err := db.Execute(context.Background(), query, args...)
	require.NoError(t, err)
	require.Equal(t, 1, rs.Len(), query)

	rec, _ := rs.First()
	return rec
}
