package medial

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type sqlTransaction struct {
	Tx *sqlx.Tx
}

func (st *sqlTransaction) Rollback(_ context.Context) error {
	return st.Tx.Rollback()
}

func (st *sqlTransaction) Commit(_ context.Context) error {
	return st.Tx.Commit()
}

// sqlGateway is a Gateway over database/sql. Reads run on the open
// transaction if there is one, else directly on the pool; anything else
// lazily opens a transaction which lives until Commit or Rollback.
type sqlGateway struct {
	db      *sqlx.DB
	dialect Dialect
	tx      *sqlTransaction

	lastResult sql.Result

	// Backend hooks.
	wrapError func(op string, err error) error
	lastKey   func(ctx context.Context) (any, error)
	normalize func(v any) any
}

func newSQLGateway(db *sqlx.DB, dialect Dialect) *sqlGateway {
	g := &sqlGateway{
		db:      db,
		dialect: dialect,
	}
	g.wrapError = wrapDatabaseError
	g.lastKey = g.lastInsertID
	return g
}

func (g *sqlGateway) Dialect() Dialect {
	return g.dialect
}

// DB returns the underlying handle.
func (g *sqlGateway) DB() *sqlx.DB {
	return g.db
}

func (g *sqlGateway) Execute(ctx context.Context, query string, args ...any) (*ResultSet, error) {
	qry := g.dialect.Rebind(query)

	kind := kindExec
	if returnsRows(qry) {
		kind = kindQuery
	}

	log.WithFields(log.Fields{
		"dialect": g.dialect.Name(),
		"query":   qry,
		"args":    args,
	}).Debug("executing statement")

	start := time.Now()
	rs, err := g.execute(ctx, kind, qry, args)

	statementsTotal.WithLabelValues(g.dialect.Name(), kind).Inc()
	statementDurationSeconds.WithLabelValues(g.dialect.Name(), kind).Observe(time.Since(start).Seconds())

	if err != nil {
		statementFailuresTotal.WithLabelValues(g.dialect.Name(), kind).Inc()
		return nil, g.wrapError(kind, err)
	}

	return rs, nil
}

func (g *sqlGateway) execute(ctx context.Context, kind string, qry string, args []any) (*ResultSet, error) {
	var ex sqlx.ExtContext = g.db
	if g.tx != nil {
		ex = g.tx.Tx
	}

	if !isRead(qry) {
		tx, err := g.begin(ctx)
		if err != nil {
			return nil, err
		}
		ex = tx.Tx
	}

	if kind == kindQuery {
		rows, err := ex.QueryxContext(ctx, qry, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		return g.scanRows(rows)
	}

	res, err := ex.ExecContext(ctx, qry, args...)
	if err != nil {
		return nil, err
	}
	g.lastResult = res

	rs := &ResultSet{}
	if n, err := res.RowsAffected(); err == nil {
		rs.rowsAffected = n
	}

	return rs, nil
}

func (g *sqlGateway) scanRows(rows *sqlx.Rows) (*ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	rs := &ResultSet{columns: cols}
	for rows.Next() {
		values := make(map[string]any, len(cols))
		if err := rows.MapScan(values); err != nil {
			return nil, err
		}
		if g.normalize != nil {
			for k, v := range values {
				values[k] = g.normalize(v)
			}
		}
		rs.records = append(rs.records, NewRecord(cols, values))
	}

	return rs, rows.Err()
}

func (g *sqlGateway) begin(ctx context.Context) (*sqlTransaction, error) {
	if g.tx != nil {
		return g.tx, nil
	}

	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	g.tx = &sqlTransaction{Tx: tx}

	return g.tx, nil
}

func (g *sqlGateway) Commit(ctx context.Context) error {
	if g.tx == nil {
		return nil
	}

	tx := g.tx
	g.tx = nil

	statementsTotal.WithLabelValues(g.dialect.Name(), kindCommit).Inc()
	if err := tx.Commit(ctx); err != nil {
		statementFailuresTotal.WithLabelValues(g.dialect.Name(), kindCommit).Inc()
		return g.wrapError(kindCommit, err)
	}

	return nil
}

func (g *sqlGateway) Rollback(ctx context.Context) error {
	if g.tx == nil {
		return nil
	}

	tx := g.tx
	g.tx = nil

	if err := tx.Rollback(ctx); err != nil {
		return errors.Wrap(err, "rollback")
	}

	return nil
}

func (g *sqlGateway) Close() error {
	if g.tx != nil {
		if err := g.Rollback(context.Background()); err != nil {
			log.WithField("err", err).Warn("failed to roll back open transaction on close")
		}
	}
	return g.db.Close()
}

func (g *sqlGateway) LastInsertedKey(ctx context.Context) (any, error) {
	return g.lastKey(ctx)
}

func (g *sqlGateway) lastInsertID(_ context.Context) (any, error) {
	if g.lastResult == nil {
		return nil, fmt.Errorf("no statement has been executed")
	}

	id, err := g.lastResult.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "last insert id")
	}

	return id, nil
}

func wrapDatabaseError(op string, err error) error {
	return &DatabaseError{Op: op, Err: err}
}

var readKeywords = map[string]bool{
	"SELECT":   true,
	"WITH":     true,
	"PRAGMA":   true,
	"VALUES":   true,
	"SHOW":     true,
	"EXPLAIN":  true,
	"DESCRIBE": true,
}

func firstKeyword(qry string) string {
	qry = strings.TrimLeft(qry, " \t\r\n(")
	end := strings.IndexFunc(qry, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})
	if end < 0 {
		end = len(qry)
	}
	return strings.ToUpper(qry[:end])
}

// isRead reports whether qry only reads. Statements with RETURNING write.
func isRead(qry string) bool {
	return readKeywords[firstKeyword(qry)] && !hasReturning(qry)
}

func returnsRows(qry string) bool {
	return readKeywords[firstKeyword(qry)] || hasReturning(qry)
}

func hasReturning(qry string) bool {
	return strings.Contains(strings.ToUpper(qry), " RETURNING ")
}

func MakeSortClause(sorter []string, sortFieldMap map[string]string) string {
	if len(sorter) == 0 {
		return ""
	}

	var srt []string
	for _, s := range sorter {
		op := ""
		field := strings.ToLower(s)
		if s[:1] == "-" || s[:1] == "+" {
			op = s[:1]
			field = strings.ToLower(s[1:])
		}

		if op == "-" {
			op = "DESC"
		} else {
			op = "ASC"
		}

		if sortFieldMap != nil {
			if mf, ok := sortFieldMap[field]; ok {
				field = mf
			}
		}

		srt = append(srt, fmt.Sprintf("%s %s", field, op))
	}

	return strings.Join(srt, ", ")
}

// LimitOffsetClause returns " LIMIT n OFFSET m", omitting zero parts.
func LimitOffsetClause(limit int, offset int64) string {
	if limit < 0 {
		limit = 0
	}

	qry := strings.Builder{}

	if limit > 0 {
		qry.WriteString(fmt.Sprintf(" LIMIT %d", limit))
	}

	if offset > 0 {
		qry.WriteString(fmt.Sprintf(" OFFSET %d", offset))
	}

	return qry.String()
}

type FilterNull interface {
	IsNull() bool
}

type filterNull bool

func (fn filterNull) IsNull() bool {
	return bool(fn)
}

func FilterNullFrom(isNull bool) FilterNull {
	return filterNull(isNull)
}

type FilterStringContains interface {
	Contains() string
}

type filterStringContains string

func (fs filterStringContains) Contains() string {
	return fmt.Sprintf("%%%s%%", fs)
}

func FilterStringContainsFrom(str string) FilterStringContains {
	return filterStringContains(str)
}

// ParseFilterMapIntoWhereClause turns a column → value map into a WHERE
// clause in canonical placeholder form. Plain values compare with =,
// slices become IN (...), FilterNull becomes IS [NOT] NULL and
// FilterStringContains becomes LIKE. Conditions are ordered by column.
func ParseFilterMapIntoWhereClause(filterMap map[string]any) (whereClause string, args []any, err error) {
	keys := make([]string, 0, len(filterMap))
	for k := range filterMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	where := ""
	for _, k := range keys {
		val := filterMap[k]

		if fnull, ok := val.(FilterNull); ok {
			if len(where) > 0 {
				where += " AND "
			}
			isNot := ""
			if !fnull.IsNull() {
				isNot = "NOT "
			}
			where += fmt.Sprintf("%s IS %sNULL", k, isNot)
			continue
		}

		if fcontain, ok := val.(FilterStringContains); ok {
			if len(where) > 0 {
				where += " AND "
			}
			where += fmt.Sprintf("%s LIKE ?", k)
			args = append(args, fcontain.Contains())
			continue
		}

		vval := reflect.ValueOf(val)
		if vval.Kind() != reflect.Slice || vval.Type().Elem().Kind() == reflect.Uint8 {
			if len(where) > 0 {
				where += " AND "
			}
			where += k + " = ?"
			args = append(args, val)
			continue
		}

		f, arg, err := parameterizedFilterCriteriaSlice(k, val)
		if err != nil {
			return "", nil, err
		}
		if len(where) > 0 {
			where += " AND "
		}
		where += f
		args = append(args, arg)
	}

	if where == "" {
		return "", nil, nil
	}

	return sqlx.In(where, args...)
}

func parameterizedFilterCriteriaSlice(fieldname string, values interface{}) (string, any, error) {
	where := fieldname
	vtype := reflect.TypeOf(values)
	if vtype.Kind() == reflect.Ptr {
		vtype = vtype.Elem()
	}

	if vtype.Kind() != reflect.Slice {
		return "", nil, fmt.Errorf("expecting slice as values, got %s", vtype.Kind().String())
	}

	s := reflect.ValueOf(values)
	if s.Len() == 0 {
		return "", nil, fmt.Errorf("cannot use empty slice to parameterized %s", fieldname)
	}

	var value interface{}
	if s.Len() > 1 {
		where += " IN (?)"
		value = values
	} else {
		where += " = ?"
		value = s.Index(0).Interface()
	}

	return where, value, nil
}
