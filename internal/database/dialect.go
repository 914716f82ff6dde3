package database

import (
	"database/sql"
	"strconv"
	"strings"
)

// Dialect hides the differences between the supported SQL backends
type Dialect interface {
	// DriverName is the name registered with database/sql
	DriverName() string

	// DSN builds the data source name from the configured path or URL
	DSN(config DialectConfig) string

	// RewriteQuery turns the repositories' ? placeholders into the backend's syntax
	RewriteQuery(query string) string

	// SupportsLastInsertId reports whether inserted IDs come from sql.Result or need RETURNING
	SupportsLastInsertId() bool

	// ConfigureConnection sizes the pool and applies backend settings after the first ping
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir names the directory under the migrations path holding this backend's files
	MigrationsSubdir() string

	// CreateMigrationsTableQuery creates the table recording applied migration files
	CreateMigrationsTableQuery() string
}

// DialectConfig holds the connection target. SQLite uses Path, the server backends URL.
type DialectConfig struct {
	Path string
	URL  string
}

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, ... leaving quoted text alone
func rewritePlaceholdersToNumbered(query string) string {
	var (
		b       strings.Builder
		counter int
		quote   rune
	)
	b.Grow(len(query) + 8)
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '?':
			counter++
			b.WriteString("$" + strconv.Itoa(counter))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
