package medial

import (
	"context"
	"io"
)

// Gateway executes statements against one database and controls its
// transaction.
type Gateway interface {
	// Execute runs query, given in canonical placeholder form, with args.
	Execute(ctx context.Context, query string, args ...any) (*ResultSet, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Close() error
	// LastInsertedKey returns the key generated by the last INSERT executed
	// on the same connection.
	LastInsertedKey(ctx context.Context) (any, error)
	Dialect() Dialect
}

// ColumnLister is implemented by gateways that can introspect tables.
type ColumnLister interface {
	TableColumns(ctx context.Context, schema, table string) ([]Column, error)
}

// Row is a result row addressable by column name.
type Row interface {
	Get(column string) (any, bool)
	Columns() []string
}

// Record is a materialised result row.
type Record struct {
	columns []string
	values  map[string]any
}

// NewRecord returns a Record over values with the given column order.
func NewRecord(columns []string, values map[string]any) Record {
	return Record{columns: columns, values: values}
}

func (r Record) Get(column string) (any, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Value returns the column value, or nil when the column is absent.
func (r Record) Value(column string) any {
	return r.values[column]
}

func (r Record) Columns() []string {
	return r.columns
}

// RowIterator iterates rows. Next returns io.EOF after the last row.
type RowIterator[T any] interface {
	Next() (*T, error)
	Close() error
}

// ResultSet is the result of Execute: rows for queries, counters for
// statements.
type ResultSet struct {
	columns      []string
	records      []Record
	pos          int
	rowsAffected int64
}

func (rs *ResultSet) Columns() []string {
	return rs.columns
}

// Records returns every row.
func (rs *ResultSet) Records() []Record {
	return rs.records
}

// First returns the first row.
func (rs *ResultSet) First() (Record, bool) {
	if len(rs.records) == 0 {
		return Record{}, false
	}
	return rs.records[0], true
}

func (rs *ResultSet) Len() int {
	return len(rs.records)
}

// RowsAffected is the count reported by the driver for statements.
func (rs *ResultSet) RowsAffected() int64 {
	return rs.rowsAffected
}

func (rs *ResultSet) Next() (*Record, error) {
	if rs.pos >= len(rs.records) {
		return nil, io.EOF
	}
	r := &rs.records[rs.pos]
	rs.pos++
	return r, nil
}

func (rs *ResultSet) Close() error {
	rs.pos = len(rs.records)
	return nil
}

var (
	_ RowIterator[Record] = (*ResultSet)(nil)
	_ Row                 = Record{}
)
