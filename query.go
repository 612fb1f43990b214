package medial

import (
	"fmt"
	"strings"
)

// Statement is query text in canonical placeholder form with its ordered
// arguments.
type Statement struct {
	Text string
	Args []any
}

func (s Statement) String() string {
	return s.Text
}

// BuildInsert returns an INSERT of the given properties. Columns and
// placeholders follow the order of props, which must match values.
func BuildInsert(d *Descriptor, props []string, values []any) (Statement, error) {
	if len(props) != len(values) {
		return Statement{}, fmt.Errorf("insert into %s: %d properties but %d values", d.Table, len(props), len(values))
	}
	if len(props) == 0 {
		return Statement{}, fmt.Errorf("insert into %s: no properties", d.Table)
	}

	cols := Map(props, d.Column)
	plh := strings.TrimSuffix(strings.Repeat("?, ", len(props)), ", ")
	qry := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", d.FullTableName(), strings.Join(cols, ", "), plh)

	return Statement{Text: qry, Args: append([]any(nil), values...)}, nil
}

// BuildUpdate returns an UPDATE of the given properties of the row
// identified by key. The key value is the last argument.
func BuildUpdate(d *Descriptor, props []string, values []any, key any) (Statement, error) {
	if len(props) != len(values) {
		return Statement{}, fmt.Errorf("update %s: %d properties but %d values", d.Table, len(props), len(values))
	}
	if len(props) == 0 {
		return Statement{}, fmt.Errorf("update %s: no properties", d.Table)
	}

	sets := Map(props, func(p string) string {
		return fmt.Sprintf("%s = ?", d.Column(p))
	})
	qry := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", d.FullTableName(), strings.Join(sets, ", "), d.KeyColumn())

	args := make([]any, 0, len(values)+1)
	args = append(args, values...)
	args = append(args, key)

	return Statement{Text: qry, Args: args}, nil
}

// BuildSelect returns a SELECT of the row identified by key. With no
// fields every column is selected.
func BuildSelect(d *Descriptor, fields []string, key any) Statement {
	cols := "*"
	if len(fields) > 0 {
		cols = strings.Join(Map(fields, d.Column), ", ")
	}
	qry := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", cols, d.FullTableName(), d.KeyColumn())

	return Statement{Text: qry, Args: []any{key}}
}

func BuildDelete(d *Descriptor, key any) Statement {
	qry := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", d.FullTableName(), d.KeyColumn())
	return Statement{Text: qry, Args: []any{key}}
}

// Selection narrows a bulk SELECT. Filter and Sort name properties; see
// ParseFilterMapIntoWhereClause and MakeSortClause for their forms.
type Selection struct {
	Filter map[string]any
	Sort   []string
	Limit  int
	Offset int64
}

// BuildSelectWhere returns a SELECT of every row matching sel. Rows are
// ordered by key unless sel.Sort says otherwise.
func BuildSelectWhere(d *Descriptor, sel Selection) (Statement, error) {
	colFilter := make(map[string]any, len(sel.Filter))
	for name, v := range sel.Filter {
		if _, ok := d.Property(name); !ok {
			return Statement{}, &UnknownProperty{Table: d.Table, Property: name}
		}
		colFilter[d.Column(name)] = v
	}

	where, args, err := ParseFilterMapIntoWhereClause(colFilter)
	if err != nil {
		return Statement{}, err
	}
	if where != "" {
		where = " WHERE " + where
	}

	sortFieldMap := make(map[string]string, len(d.properties))
	for _, p := range d.properties {
		sortFieldMap[strings.ToLower(p.Name)] = p.ColumnName()
	}
	for _, s := range sel.Sort {
		field := strings.ToLower(strings.TrimLeft(s, "+-"))
		if _, ok := sortFieldMap[field]; !ok {
			return Statement{}, &UnknownProperty{Table: d.Table, Property: s}
		}
	}
	order := MakeSortClause(sel.Sort, sortFieldMap)
	if order == "" {
		order = d.KeyColumn()
	}

	qry := fmt.Sprintf("SELECT * FROM %s%s ORDER BY %s%s", d.FullTableName(), where, order, LimitOffsetClause(sel.Limit, sel.Offset))
	return Statement{Text: qry, Args: args}, nil
}
