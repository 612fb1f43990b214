package medial

import (
	"context"
	"database/sql"
	"net/url"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DB is a handle on one configured database. Every persistence operation
// goes through a DB.
type DB struct {
	gw       Gateway
	registry *Registry
}

// Open connects to the database named by uri. The scheme selects the
// backend: sqlite, sqlite3 and file for SQLite, postgres and postgresql for
// Postgres, mysql for MySQL. Any other scheme fails with
// UnsupportedDatabase.
func Open(uri string, options ...Option) (*DB, error) {
	opt := &option{}
	for _, op := range options {
		op(opt)
	}

	scheme, rest := splitScheme(uri)

	var gw Gateway
	switch scheme {
	case "sqlite", "sqlite3", "file":
		g, err := openSqlite(rest)
		if err != nil {
			return nil, err
		}
		gw = g
	case "postgres", "postgresql":
		u, err := url.Parse(uri)
		if err != nil {
			return nil, errors.Wrap(err, "parsing postgres uri")
		}
		g, err := openPostgres(u)
		if err != nil {
			return nil, err
		}
		if opt.maxOpenConns > 0 {
			g.db.SetMaxOpenConns(opt.maxOpenConns)
		}
		gw = g
	case "mysql":
		u, err := url.Parse(uri)
		if err != nil {
			return nil, errors.Wrap(err, "parsing mysql uri")
		}
		g, err := openMysql(u)
		if err != nil {
			return nil, err
		}
		if opt.maxOpenConns > 0 {
			g.db.SetMaxOpenConns(opt.maxOpenConns)
		}
		gw = g
	default:
		return nil, &UnsupportedDatabase{Scheme: scheme}
	}

	log.WithField("dialect", gw.Dialect().Name()).Debug("database configured")

	return newDB(gw, opt)
}

// OpenDB wraps an already opened *sql.DB of the given dialect.
func OpenDB(dialect string, db *sql.DB, options ...Option) (*DB, error) {
	opt := &option{}
	for _, op := range options {
		op(opt)
	}

	d, err := DialectFor(dialect)
	if err != nil {
		return nil, err
	}

	var gw Gateway
	switch d.Name() {
	case SQLite:
		gw = newSqliteGateway(sqlx.NewDb(db, sqliteDriverName))
	case Postgres:
		gw = newPostgresGateway(sqlx.NewDb(db, "pgx"))
	case MySQL:
		gw = newMysqlGateway(sqlx.NewDb(db, "mysql"))
	}

	return newDB(gw, opt)
}

// NewDB returns a handle over any Gateway implementation.
func NewDB(gw Gateway, options ...Option) (*DB, error) {
	opt := &option{}
	for _, op := range options {
		op(opt)
	}
	return newDB(gw, opt)
}

func newDB(gw Gateway, opt *option) (*DB, error) {
	if opt.registerer != nil {
		if err := registerCollectors(opt.registerer); err != nil {
			return nil, errors.Wrap(err, "registering metrics")
		}
	}

	registry := opt.registry
	if registry == nil {
		registry = NewRegistry()
	}

	return &DB{gw: gw, registry: registry}, nil
}

func splitScheme(uri string) (scheme, rest string) {
	i := strings.Index(uri, ":")
	if i <= 0 {
		return "", uri
	}
	return strings.ToLower(uri[:i]), uri[i+1:]
}

func (db *DB) Gateway() Gateway {
	return db.gw
}

func (db *DB) Dialect() Dialect {
	return db.gw.Dialect()
}

func (db *DB) Registry() *Registry {
	return db.registry
}

// Register builds the descriptor for an entity type in the handle's
// registry.
func (db *DB) Register(name string, spec EntitySpec) (*Descriptor, error) {
	return db.registry.Register(name, spec)
}

// Descriptor returns the registered descriptor for name.
func (db *DB) Descriptor(name string) (*Descriptor, error) {
	d, ok := db.registry.Lookup(name)
	if !ok {
		return nil, errors.Errorf("entity '%s' is not registered", name)
	}
	return d, nil
}

// Execute runs raw SQL in canonical placeholder form.
func (db *DB) Execute(ctx context.Context, query string, args ...any) (*ResultSet, error) {
	return db.gw.Execute(ctx, query, args...)
}

func (db *DB) Commit(ctx context.Context) error {
	return db.gw.Commit(ctx)
}

func (db *DB) Rollback(ctx context.Context) error {
	return db.gw.Rollback(ctx)
}

func (db *DB) LastInsertedKey(ctx context.Context) (any, error) {
	return db.gw.LastInsertedKey(ctx)
}

func (db *DB) Close() error {
	return db.gw.Close()
}

// New returns a new, uncommitted entity with defaults applied.
func (db *DB) New(d *Descriptor, options ...EntityOption) *Entity {
	opt := newEntityOption(options)

	e := newEntity(db, d, opt.persist)
	e.isNew = true
	for _, p := range d.properties {
		if p.hasDefault() {
			e.values[p.Name] = p.Default
			// defaults must reach the first insert
			e.dirty[p.Name] = true
		}
	}

	return e
}

// Load returns the entity stored under key. A missing row fails with
// ObjectNotFound.
func (db *DB) Load(ctx context.Context, d *Descriptor, key any, options ...EntityOption) (*Entity, error) {
	opt := newEntityOption(options)

	e := newEntity(db, d, opt.persist)
	e.values[d.Key] = key
	if err := e.Load(ctx, opt.fields...); err != nil {
		return nil, err
	}

	return e, nil
}

// FromRecord builds a loaded entity from a result row. A column with no
// mapped property fails with SchemaMismatch.
func (db *DB) FromRecord(d *Descriptor, row Row, options ...EntityOption) (*Entity, error) {
	opt := newEntityOption(options)

	e := newEntity(db, d, opt.persist)
	for _, col := range row.Columns() {
		name, ok := d.PropertyForColumn(col)
		if !ok {
			log.WithFields(log.Fields{
				"table":  d.Table,
				"column": col,
			}).Error("could not get property for column (schema does not match object definition)")
			return nil, &SchemaMismatch{Table: d.Table, Column: col}
		}
		v, _ := row.Get(col)
		e.values[name] = v
	}

	return e, nil
}

// Query loads every entity matching sel.
func (db *DB) Query(ctx context.Context, d *Descriptor, sel Selection, options ...EntityOption) ([]*Entity, error) {
	st, err := BuildSelectWhere(d, sel)
	if err != nil {
		return nil, err
	}

	rs, err := db.gw.Execute(ctx, st.Text, st.Args...)
	if err != nil {
		return nil, err
	}

	entities := make([]*Entity, 0, rs.Len())
	for _, rec := range rs.Records() {
		e, err := db.FromRecord(d, rec, options...)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}

	return entities, nil
}

// Delete removes the row stored under key and commits. It does not check
// that the row existed.
func (db *DB) Delete(ctx context.Context, d *Descriptor, key any) error {
	st := BuildDelete(d, key)

	log.WithFields(log.Fields{
		"table": d.Table,
		"key":   key,
	}).Debug("deleting record")

	if _, err := db.gw.Execute(ctx, st.Text, st.Args...); err != nil {
		db.rollback(ctx)
		return err
	}

	return db.gw.Commit(ctx)
}

// Exists reports whether a row is stored under key.
func (db *DB) Exists(ctx context.Context, d *Descriptor, key any) (bool, error) {
	st := BuildSelect(d, []string{d.Key}, key)
	rs, err := db.gw.Execute(ctx, st.Text, st.Args...)
	if err != nil {
		return false, err
	}
	return rs.Len() > 0, nil
}

// Verify checks d against the live table; see Descriptor.Verify.
func (db *DB) Verify(ctx context.Context, d *Descriptor) error {
	return d.Verify(ctx, db.gw)
}

func (db *DB) rollback(ctx context.Context) {
	if err := db.gw.Rollback(ctx); err != nil {
		log.WithField("err", err).Warn("rollback failed")
	}
}
