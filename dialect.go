package medial

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Dialect names.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
	MySQL    = "mysql"
)

// Dialect describes a backend's placeholder syntax and identifier quoting.
type Dialect struct {
	name     string
	bindType int
	quote    func(name string) string
}

var dialectAliases = map[string]string{
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
	"file":       SQLite,
	"postgres":   Postgres,
	"postgresql": Postgres,
	"pgx":        Postgres,
	"pq":         Postgres,
	"mysql":      MySQL,
}

// DialectFor returns the dialect for a driver, scheme or dialect name.
func DialectFor(name string) (Dialect, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	canonical, ok := dialectAliases[key]
	if !ok {
		return Dialect{}, &UnsupportedDatabase{Scheme: name}
	}

	d := Dialect{name: canonical, bindType: sqlx.BindType(canonical)}
	switch canonical {
	case SQLite:
		// sqlx does not know the modernc driver name.
		d.bindType = sqlx.QUESTION
		d.quote = quoteWith(`"`, `"`)
	case Postgres:
		d.quote = pq.QuoteIdentifier
	case MySQL:
		d.quote = quoteWith("`", "`")
	}

	return d, nil
}

// MustDialect is like DialectFor but panics on an unknown name.
func MustDialect(name string) Dialect {
	d, err := DialectFor(name)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Dialect) Name() string {
	return d.name
}

func (d Dialect) String() string {
	return d.name
}

// Placeholder returns the n-th (1-based) placeholder of the dialect.
func (d Dialect) Placeholder(n int) string {
	switch d.bindType {
	case sqlx.DOLLAR:
		return fmt.Sprintf("$%d", n)
	case sqlx.AT:
		return fmt.Sprintf("@p%d", n)
	case sqlx.NAMED:
		return fmt.Sprintf(":arg%d", n)
	default:
		return string(Marker)
	}
}

// Rebind rewrites canonical query text into the dialect's placeholder
// syntax. Markers inside single-quoted literals are kept.
func (d Dialect) Rebind(query string) string {
	if d.bindType == sqlx.QUESTION || d.bindType == sqlx.UNKNOWN {
		return query
	}
	return JoinSegments(Segments(query), d.Placeholder)
}

// Quote quotes each dot-separated part of an identifier.
func (d Dialect) Quote(ident string) string {
	if d.quote == nil {
		return ident
	}

	parts := strings.Split(ident, ".")
	for i, p := range parts {
		parts[i] = d.quote(p)
	}
	return strings.Join(parts, ".")
}

func quoteWith(begin, end string) func(string) string {
	return func(name string) string {
		name = strings.ReplaceAll(name, end, end+end)
		return begin + name + end
	}
}
