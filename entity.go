package medial

import (
	"context"
	"reflect"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Entity is one in-memory record of a mapped table. It tracks which
// properties were assigned since the last commit and turns them into an
// INSERT or UPDATE on Commit.
//
// An Entity is not safe for concurrent use.
type Entity struct {
	db   *DB
	desc *Descriptor
	id   string

	values  map[string]any
	dirty   map[string]bool
	isNew   bool
	persist bool
}

func newEntity(db *DB, d *Descriptor, persist bool) *Entity {
	return &Entity{
		db:      db,
		desc:    d,
		id:      uuid.NewString(),
		values:  make(map[string]any, len(d.properties)),
		dirty:   make(map[string]bool),
		persist: persist,
	}
}

// ID identifies this in-memory instance. It is not the key.
func (e *Entity) ID() string {
	return e.id
}

func (e *Entity) Descriptor() *Descriptor {
	return e.desc
}

// IsNew reports whether the entity has not been inserted yet.
func (e *Entity) IsNew() bool {
	return e.isNew
}

func (e *Entity) IsPersistable() bool {
	return e.persist
}

// Key returns the value of the key property.
func (e *Entity) Key() any {
	return e.values[e.desc.Key]
}

// Get returns the value of a property, nil when unset.
func (e *Entity) Get(name string) any {
	return e.values[name]
}

// Lookup returns the value of a property and whether it is set.
func (e *Entity) Lookup(name string) (any, bool) {
	v, ok := e.values[name]
	return v, ok
}

// Dirty returns the properties assigned since the last commit, in
// declaration order.
func (e *Entity) Dirty() []string {
	return Filter(e.desc.PropertyNames(), func(name string) bool {
		return e.dirty[name]
	})
}

// Set assigns a property. Every assignment marks the property dirty, even
// when the value is unchanged.
func (e *Entity) Set(name string, value any) error {
	p, ok := e.desc.Property(name)
	if !ok {
		return &UnknownProperty{Table: e.desc.Table, Property: name}
	}
	if p.ReadOnly {
		return &SettingReadOnly{Property: name}
	}
	// The key of a stored row is fixed.
	if name == e.desc.Key && !e.isNew {
		return &SettingReadOnly{Property: name}
	}
	if p.Validator != nil && !p.Validator(value, p.ValidatorParams) {
		return &InvalidValue{Property: name, Value: value}
	}
	if p.SetterOverride != nil {
		value = p.SetterOverride(e, value)
	}

	e.dirty[name] = true
	e.values[name] = value

	return nil
}

// MustSet is like Set but panics on error.
func (e *Entity) MustSet(name string, value any) *Entity {
	if err := e.Set(name, value); err != nil {
		panic(err)
	}
	return e
}

// Load reads the entity's row by key, or only the given properties of it.
// The key itself is never overwritten.
func (e *Entity) Load(ctx context.Context, fields ...string) error {
	d := e.desc
	key := e.Key()
	if key == nil {
		return ErrKeyNotSet
	}
	for _, f := range fields {
		if _, ok := d.Property(f); !ok {
			return &UnknownProperty{Table: d.Table, Property: f}
		}
	}

	st := BuildSelect(d, fields, key)
	log.WithFields(log.Fields{
		"table":  d.Table,
		"query":  st.Text,
		"fields": fields,
	}).Debug("loading record")

	rs, err := e.db.gw.Execute(ctx, st.Text, st.Args...)
	if err != nil {
		return err
	}

	rec, ok := rs.First()
	if !ok {
		return &ObjectNotFound{Table: d.Table, Key: d.Key, Value: key}
	}

	keyColumn := d.KeyColumn()
	loaded := make(map[string]any, len(rec.Columns()))
	for _, col := range rec.Columns() {
		if col == keyColumn {
			continue
		}
		name, ok := d.PropertyForColumn(col)
		if !ok {
			log.WithFields(log.Fields{
				"table":  d.Table,
				"column": col,
			}).Error("could not get property for column (schema does not match object definition)")
			return &SchemaMismatch{Table: d.Table, Column: col}
		}
		loaded[name] = rec.Value(col)
	}

	for name, v := range loaded {
		e.values[name] = v
		delete(e.dirty, name)
	}
	e.isNew = false

	return nil
}

// Commit writes the dirty properties: an INSERT for a new entity, an
// UPDATE by key otherwise. It returns the committed property names; with
// nothing dirty it executes nothing and returns an empty list.
//
// On insert, an Auto key is read back from the database and assigned.
func (e *Entity) Commit(ctx context.Context) ([]string, error) {
	d := e.desc
	if !e.persist {
		log.WithField("entity", e.id).Error("commit called on an entity that must not be persisted")
		return nil, &PersistNonPersistent{ID: e.id}
	}

	dirty := e.Dirty()
	if len(dirty) == 0 {
		return nil, nil
	}

	values := Map(dirty, func(name string) any {
		return e.values[name]
	})

	var st Statement
	var err error
	if e.isNew {
		st, err = BuildInsert(d, dirty, values)
	} else {
		key := e.Key()
		if key == nil {
			return nil, ErrKeyNotSet
		}
		st, err = BuildUpdate(d, dirty, values, key)
	}
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"table": d.Table,
		"query": st.Text,
		"args":  st.Args,
	}).Debug("committing to database")

	gw := e.db.gw
	rs, err := gw.Execute(ctx, st.Text, st.Args...)
	if err != nil {
		e.db.rollback(ctx)
		return nil, err
	}
	if !e.isNew && rs.RowsAffected() == 0 {
		log.WithFields(log.Fields{
			"table": d.Table,
			"key":   e.Key(),
		}).Warn("update matched no row")
	}

	var generated any
	if e.isNew && d.KeyProperty().Auto && !e.dirty[d.Key] {
		if generated, err = gw.LastInsertedKey(ctx); err != nil {
			e.db.rollback(ctx)
			return nil, err
		}
	}

	if err := gw.Commit(ctx); err != nil {
		return nil, err
	}

	if generated != nil {
		e.values[d.Key] = generated
		log.WithFields(log.Fields{
			"table": d.Table,
			"key":   generated,
		}).Debug("key of newly inserted record")
	}
	e.dirty = make(map[string]bool)
	e.isNew = false

	return dirty, nil
}

// Duplicate returns a new, uncommitted copy of the entity. The key, the
// properties named in skip and properties with an empty value are not
// copied. Copied values are stored as-is, without validators or setter
// overrides, and marked dirty.
func (e *Entity) Duplicate(skip ...string) *Entity {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}

	dupe := e.db.New(e.desc)
	if !e.persist {
		dupe.persist = false
	}

	for _, p := range e.desc.properties {
		if p.Name == e.desc.Key || skipped[p.Name] {
			continue
		}
		v := e.values[p.Name]
		if isEmpty(v) {
			continue
		}
		dupe.values[p.Name] = v
		dupe.dirty[p.Name] = true
	}

	return dupe
}

// ToMap returns a snapshot of every declared property.
func (e *Entity) ToMap() map[string]any {
	m := make(map[string]any, len(e.desc.properties))
	for _, p := range e.desc.properties {
		m[p.Name] = e.values[p.Name]
	}
	return m
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return rv.IsZero()
}
