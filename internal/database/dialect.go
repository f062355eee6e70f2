package database

import (
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect hides what differs between the SQLite and PostgreSQL stores.
// Queries are written once with ? placeholders and passed through Rebind.
type Dialect interface {
	DriverName() string
	Rebind(query string) string
	// BlobType is the column type for serialized snapshots.
	BlobType() string
	IsDuplicateKeyError(err error) bool
}

// DialectType names a backend in configuration.
type DialectType string

const (
	DialectSQLite   DialectType = "sqlite"
	DialectPostgres DialectType = "postgres"
)

// NewDialect returns the Dialect for t. Anything unrecognised is SQLite.
func NewDialect(t DialectType) Dialect {
	if t == DialectPostgres {
		return PostgresDialect{}
	}
	return SQLiteDialect{}
}

// SQLiteDialect drives modernc.org/sqlite.
type SQLiteDialect struct{}

func (SQLiteDialect) DriverName() string { return "sqlite" }

func (SQLiteDialect) Rebind(query string) string { return query }

func (SQLiteDialect) BlobType() string { return "BLOB" }

func (SQLiteDialect) IsDuplicateKeyError(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// Extended result codes off.
		return strings.Contains(se.Error(), "UNIQUE constraint failed")
	}
	return false
}

// PostgresDialect drives lib/pq.
type PostgresDialect struct{}

func (PostgresDialect) DriverName() string { return "postgres" }

// Rebind numbers each ? as $1, $2, ... A ? inside a single-quoted literal
// is left alone.
func (PostgresDialect) Rebind(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	quoted := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
		case c == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func (PostgresDialect) BlobType() string { return "BYTEA" }

func (PostgresDialect) IsDuplicateKeyError(err error) bool {
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code.Name() == "unique_violation"
}
