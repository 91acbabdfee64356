package database

import (
	"os"
	"strings"
)

// DetectDialect infers the dialect from a connection string.
func DetectDialect(connStr string) string {
	lower := strings.ToLower(strings.TrimSpace(connStr))

	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(lower, "mysql://"):
		return "mysql"
	case strings.HasPrefix(lower, "libsql://"), strings.HasPrefix(lower, "wss://"), strings.HasPrefix(lower, "ws://"):
		return "libsql"
	case strings.HasPrefix(lower, "sqlite://"), strings.HasPrefix(lower, "file:"), lower == ":memory:":
		return "sqlite"
	case strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"):
		return "sqlite"
	}

	// MySQL DSNs commonly look like user:pass@tcp(host:port)/dbname
	if strings.Contains(lower, "@tcp(") {
		return "mysql"
	}

	// A bare existing file path is a SQLite database
	if _, err := os.Stat(connStr); err == nil {
		return "sqlite"
	}

	return "postgres"
}

// SQLDriverName maps a dialect to the registered database/sql driver name.
func SQLDriverName(dialect string) string {
	switch dialect {
	case "postgres":
		return "postgres"
	case "mysql":
		return "mysql"
	case "libsql":
		return "libsql"
	default:
		return "sqlite"
	}
}

// NormalizeConnString strips URL-style prefixes that the underlying sql
// driver does not understand (sqlite:// paths).
func NormalizeConnString(dialect, connStr string) string {
	if dialect == "sqlite" {
		if rest, ok := strings.CutPrefix(connStr, "sqlite://"); ok {
			return rest
		}
	}
	if dialect == "mysql" {
		if rest, ok := strings.CutPrefix(connStr, "mysql://"); ok {
			return rest
		}
	}
	return connStr
}
