package medial

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
	"gopkg.in/guregu/null.v4"
)

// PGConfig holds the parts of a Postgres connection URI.
type PGConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
	SSLMode  string
}

// URI returns the postgresql:// URI for the config.
func (c PGConfig) URI() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%s", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// ConnectPostgresql opens a handle on the database described by config.
func ConnectPostgresql(config PGConfig, options ...Option) (*DB, error) {
	return Open(config.URI(), options...)
}

type postgresGateway struct {
	*sqlGateway
}

func newPostgresGateway(db *sqlx.DB) *postgresGateway {
	g := &postgresGateway{sqlGateway: newSQLGateway(db, MustDialect(Postgres))}
	g.wrapError = wrapPostgresError
	g.lastKey = g.lastval
	return g
}

// openPostgres opens uri with pgx, or with lib/pq when the URI carries
// driver=pq. The driver parameter is not passed on.
func openPostgres(uri *url.URL) (*postgresGateway, error) {
	driverName := "pgx"

	u := *uri
	q := u.Query()
	if q.Get("driver") == "pq" {
		driverName = "postgres"
	}
	q.Del("driver")
	u.RawQuery = q.Encode()

	log.WithFields(log.Fields{
		"driver": driverName,
		"host":   u.Host,
		"db":     u.Path,
	}).Debug("opening postgres database")

	db, err := sqlx.Open(driverName, u.String())
	if err != nil {
		return nil, wrapPostgresError("open", err)
	}

	return newPostgresGateway(db), nil
}

// lastval reads the session's last sequence value. It must run on the
// connection of the INSERT, i.e. before the transaction commits.
func (g *postgresGateway) lastval(ctx context.Context) (any, error) {
	var ex sqlx.QueryerContext = g.db
	if g.tx != nil {
		ex = g.tx.Tx
	}

	var id int64
	if err := sqlx.GetContext(ctx, ex, &id, "SELECT lastval()"); err != nil {
		return nil, wrapPostgresError(kindQuery, err)
	}

	return id, nil
}

func (g *postgresGateway) TableColumns(ctx context.Context, schema, table string) ([]Column, error) {
	type columnInfo struct {
		Name       string   `db:"column_name"`
		DataType   string   `db:"data_type"`
		IsNullable string   `db:"is_nullable"`
		MaxLength  null.Int `db:"character_maximum_length"`
	}

	var ex sqlx.QueryerContext = g.db
	if g.tx != nil {
		ex = g.tx.Tx
	}

	qry := g.dialect.Rebind(`SELECT column_name, data_type, is_nullable, character_maximum_length
FROM information_schema.columns
WHERE table_schema = COALESCE(NULLIF(?, ''), current_schema()) AND table_name = ?
ORDER BY ordinal_position`)

	var cols []columnInfo
	if err := sqlx.SelectContext(ctx, ex, &cols, qry, schema, table); err != nil {
		return nil, wrapPostgresError(kindQuery, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table '%s' does not exist", table)
	}

	return Map(cols, func(col columnInfo) Column {
		dataType := col.DataType
		if col.MaxLength.Valid {
			dataType = fmt.Sprintf("%s(%d)", dataType, col.MaxLength.Int64)
		}
		return Column{
			ColumnName: col.Name,
			DataType:   dataType,
			Nullable:   col.IsNullable == "YES",
		}
	}), nil
}

func wrapPostgresError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		return &ConstraintViolation{Msg: pgErr.Message, Err: err}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		return &ConstraintViolation{Msg: pqErr.Message, Err: err}
	}

	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("%w. %s", ErrNoRow, err.Error())
	}

	return &DatabaseError{Op: op, Err: err}
}
