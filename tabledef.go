package medial

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

const defaultKey = "id"

// Descriptor is the built, immutable mapping between an entity type's
// properties and its table's columns.
type Descriptor struct {
	Schema string
	Table  string
	Key    string

	properties []Property
	byName     map[string]int
	columns    map[string]string // column -> property
}

// NewDescriptor builds a Descriptor from spec. Two properties mapping to the
// same column, an empty table name or an undeclared key property are errors.
func NewDescriptor(spec EntitySpec) (*Descriptor, error) {
	if strings.TrimSpace(spec.Table) == "" {
		return nil, fmt.Errorf("entity spec has no table name")
	}

	key := spec.Key
	if key == "" {
		key = defaultKey
	}

	d := &Descriptor{
		Schema:     spec.Schema,
		Table:      spec.Table,
		Key:        key,
		properties: make([]Property, len(spec.Properties)),
		byName:     make(map[string]int, len(spec.Properties)),
		columns:    make(map[string]string, len(spec.Properties)),
	}
	copy(d.properties, spec.Properties)

	log.WithField("table", spec.Table).Debug("building column map")

	for i, p := range d.properties {
		if p.Name == "" {
			return nil, fmt.Errorf("property %d of table '%s' has no name", i, spec.Table)
		}
		if _, ok := d.byName[p.Name]; ok {
			return nil, fmt.Errorf("property '%s' declared twice for table '%s'", p.Name, spec.Table)
		}

		col := p.ColumnName()
		if other, ok := d.columns[col]; ok {
			return nil, fmt.Errorf("properties '%s' and '%s' of table '%s' both map to column '%s'", other, p.Name, spec.Table, col)
		}

		d.byName[p.Name] = i
		d.columns[col] = p.Name
	}

	if _, ok := d.byName[key]; !ok {
		return nil, fmt.Errorf("key property '%s' is not declared for table '%s'", key, spec.Table)
	}

	return d, nil
}

// FullTableName returns the table name qualified with its schema, if any.
func (d *Descriptor) FullTableName() string {
	if d.Schema != "" {
		return fmt.Sprintf("%s.%s", d.Schema, d.Table)
	}
	return d.Table
}

// Properties returns the declared properties in declaration order.
func (d *Descriptor) Properties() []Property {
	return append([]Property(nil), d.properties...)
}

func (d *Descriptor) PropertyNames() []string {
	return Map(d.properties, func(p Property) string {
		return p.Name
	})
}

func (d *Descriptor) ColumnNames() []string {
	return Map(d.properties, func(p Property) string {
		return p.ColumnName()
	})
}

// Property looks up a property by name.
func (d *Descriptor) Property(name string) (Property, bool) {
	i, ok := d.byName[name]
	if !ok {
		return Property{}, false
	}
	return d.properties[i], true
}

// PropertyForColumn resolves a column name to its property name.
func (d *Descriptor) PropertyForColumn(column string) (string, bool) {
	name, ok := d.columns[column]
	return name, ok
}

// Column returns the column for a property name, or the name itself when the
// property is not declared.
func (d *Descriptor) Column(name string) string {
	if p, ok := d.Property(name); ok {
		return p.ColumnName()
	}
	return name
}

func (d *Descriptor) KeyColumn() string {
	return d.Column(d.Key)
}

func (d *Descriptor) KeyProperty() Property {
	p, _ := d.Property(d.Key)
	return p
}

// Verify compares the descriptor with the live table when the gateway can
// list columns. A table column with no property fails with SchemaMismatch.
// Gateways without introspection are accepted as-is.
func (d *Descriptor) Verify(ctx context.Context, gw Gateway) error {
	lister, ok := gw.(ColumnLister)
	if !ok {
		return nil
	}

	cols, err := lister.TableColumns(ctx, d.Schema, d.Table)
	if err != nil {
		return err
	}

	for _, col := range cols {
		if _, ok := d.columns[col.ColumnName]; !ok {
			log.WithFields(log.Fields{
				"table":  d.Table,
				"column": col.ColumnName,
			}).Error("could not get property for column (schema does not match object definition)")
			return &SchemaMismatch{Table: d.Table, Column: col.ColumnName}
		}
	}

	return nil
}

// Column is a live table column as reported by a ColumnLister.
type Column struct {
	ColumnName string `db:"column_name"`
	DataType   string `db:"data_type"`
	Nullable   bool   `db:"-"`
}
