package medial

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	"gopkg.in/guregu/null.v4"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// sqliteDriverName is the database/sql name registered by modernc.org/sqlite.
const sqliteDriverName = "sqlite"

type sqliteGateway struct {
	*sqlGateway
}

func newSqliteGateway(db *sqlx.DB) *sqliteGateway {
	// One connection: the lazily-opened transaction and reads must see the
	// same database, which for :memory: exists per connection.
	db.SetMaxOpenConns(1)

	g := &sqliteGateway{sqlGateway: newSQLGateway(db, MustDialect(SQLite))}
	g.wrapError = wrapSqliteError
	return g
}

// openSqlite opens the database named by the remainder of a sqlite or file
// URI, e.g. "file:///tmp/x.sqlite", "sqlite:///tmp/x.sqlite" or
// "sqlite::memory:".
func openSqlite(rest string) (*sqliteGateway, error) {
	dsn := sqliteDSN(rest)
	if dsn == "" {
		return nil, fmt.Errorf("sqlite uri has no database path")
	}

	log.WithField("dsn", dsn).Debug("opening sqlite database")

	db, err := sqlx.Open(sqliteDriverName, dsn)
	if err != nil {
		return nil, wrapSqliteError("open", err)
	}

	return newSqliteGateway(db), nil
}

func sqliteDSN(rest string) string {
	rest = strings.TrimPrefix(rest, "//")
	// file://localhost/path is the host form of file:///path.
	if strings.HasPrefix(rest, "localhost/") {
		rest = strings.TrimPrefix(rest, "localhost")
	}
	return rest
}

func (g *sqliteGateway) TableColumns(ctx context.Context, _ string, table string) ([]Column, error) {
	type columnInfo struct {
		CID       int         `db:"cid"`
		Name      string      `db:"name"`
		Type      string      `db:"type"`
		NotNull   int         `db:"notnull"`
		DfltValue null.String `db:"dflt_value"`
		Pk        int         `db:"pk"`
	}

	var ex sqlx.QueryerContext = g.db
	if g.tx != nil {
		ex = g.tx.Tx
	}

	qry := fmt.Sprintf("PRAGMA table_info(%s)", g.dialect.Quote(table))

	var cols []columnInfo
	if err := sqlx.SelectContext(ctx, ex, &cols, qry); err != nil {
		return nil, wrapSqliteError(kindQuery, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table '%s' does not exist", table)
	}

	return Map(cols, func(col columnInfo) Column {
		return Column{
			ColumnName: col.Name,
			DataType:   col.Type,
			Nullable:   col.NotNull == 0 && col.Pk == 0,
		}
	}), nil
}

func wrapSqliteError(op string, err error) error {
	var serr *sqlite.Error
	if errors.As(err, &serr) && serr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return &ConstraintViolation{Msg: serr.Error(), Err: err}
	}
	return &DatabaseError{Op: op, Err: err}
}
