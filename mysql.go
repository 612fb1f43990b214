package medial

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	"gopkg.in/guregu/null.v4"
)

const mysqlDefaultPort = "3306"

// MySQL error numbers reported for integrity constraint failures.
var mysqlConstraintErrors = map[uint16]bool{
	1048: true, // column cannot be null
	1062: true, // duplicate entry
	1216: true,
	1217: true,
	1451: true, // foreign key, parent row
	1452: true, // foreign key, child row
	3819: true, // check constraint
}

type mysqlGateway struct {
	*sqlGateway
}

func newMysqlGateway(db *sqlx.DB) *mysqlGateway {
	g := &mysqlGateway{sqlGateway: newSQLGateway(db, MustDialect(MySQL))}
	g.wrapError = wrapMysqlError
	g.normalize = normalizeMysqlValue
	return g
}

func openMysql(uri *url.URL) (*mysqlGateway, error) {
	cfg, err := mysqlConfig(uri)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"addr": cfg.Addr,
		"db":   cfg.DBName,
	}).Debug("opening mysql database")

	db, err := sqlx.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, wrapMysqlError("open", err)
	}

	return newMysqlGateway(db), nil
}

func mysqlConfig(uri *url.URL) (*mysql.Config, error) {
	if uri.Host == "" {
		return nil, fmt.Errorf("mysql uri has no host")
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.ParseTime = true
	cfg.Addr = uri.Host
	if _, _, err := net.SplitHostPort(uri.Host); err != nil {
		cfg.Addr = net.JoinHostPort(uri.Host, mysqlDefaultPort)
	}
	cfg.DBName = strings.TrimPrefix(uri.Path, "/")

	if uri.User != nil {
		cfg.User = uri.User.Username()
		cfg.Passwd, _ = uri.User.Password()
	}

	for k, v := range uri.Query() {
		if len(v) == 0 {
			continue
		}
		if cfg.Params == nil {
			cfg.Params = make(map[string]string)
		}
		cfg.Params[k] = v[0]
	}

	return cfg, nil
}

func (g *mysqlGateway) TableColumns(ctx context.Context, schema, table string) ([]Column, error) {
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

	qry := `SELECT COLUMN_NAME AS column_name, DATA_TYPE AS data_type, IS_NULLABLE AS is_nullable,
	CHARACTER_MAXIMUM_LENGTH AS character_maximum_length
FROM information_schema.columns
WHERE table_schema = COALESCE(NULLIF(?, ''), DATABASE()) AND table_name = ?
ORDER BY ORDINAL_POSITION`

	var cols []columnInfo
	if err := sqlx.SelectContext(ctx, ex, &cols, qry, schema, table); err != nil {
		return nil, wrapMysqlError(kindQuery, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table '%s' does not exist", table)
	}

	return Map(cols, func(col columnInfo) Column {
		return Column{
			ColumnName: col.Name,
			DataType:   col.DataType,
			Nullable:   col.IsNullable == "YES",
		}
	}), nil
}

// normalizeMysqlValue turns the driver's []byte text values into strings.
func normalizeMysqlValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func wrapMysqlError(op string, err error) error {
	var merr *mysql.MySQLError
	if errors.As(err, &merr) {
		if mysqlConstraintErrors[merr.Number] || string(merr.SQLState[:2]) == "23" {
			return &ConstraintViolation{Msg: merr.Message, Err: err}
		}
	}
	return &DatabaseError{Op: op, Err: err}
}
