package database

import (
	"net"
	"net/url"
	"strconv"
	"time"
)

// Config says which backend holds saved comparisons and how to reach it.
type Config struct {
	Driver     string // "sqlite" or "postgres"
	SQLitePath string
	Postgres   PostgresConfig
}

// SQLite returns a Config for the comparison file at path.
func SQLite(path string) Config {
	return Config{Driver: string(DialectSQLite), SQLitePath: path}
}

// sqlitePragmas run on every new connection; busy_timeout and foreign_keys
// are per connection in SQLite.
var sqlitePragmas = []string{"busy_timeout(5000)", "foreign_keys(1)", "journal_mode(WAL)"}

// sqliteDSN appends the pragmas as modernc.org/sqlite _pragma parameters.
func sqliteDSN(path string) string {
	return path + "?" + url.Values{"_pragma": sqlitePragmas}.Encode()
}

// PostgresConfig locates a PostgreSQL comparison store. Zero pool settings
// fall back to the package defaults when the store is opened.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 5
	DefaultConnMaxLifetime = 5 * time.Minute
)

func (p PostgresConfig) withPoolDefaults() PostgresConfig {
	if p.MaxOpenConns <= 0 {
		p.MaxOpenConns = DefaultMaxOpenConns
	}
	if p.MaxIdleConns <= 0 {
		p.MaxIdleConns = DefaultMaxIdleConns
	}
	if p.MaxIdleConns > p.MaxOpenConns {
		p.MaxIdleConns = p.MaxOpenConns
	}
	if p.ConnMaxLifetime <= 0 {
		p.ConnMaxLifetime = DefaultConnMaxLifetime
	}
	return p
}

// DSN renders the settings as a postgres:// URL for lib/pq. Credentials are
// escaped, so passwords may hold spaces or '@'.
func (p PostgresConfig) DSN() string {
	host := p.Host
	if host == "" {
		host = "localhost"
	}
	port := p.Port
	if port == 0 {
		port = 5432
	}
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		Path:     "/" + p.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	switch {
	case p.User != "" && p.Password != "":
		u.User = url.UserPassword(p.User, p.Password)
	case p.User != "":
		u.User = url.User(p.User)
	}
	return u.String()
}
