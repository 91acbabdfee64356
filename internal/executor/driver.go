package executor

import (
	"fmt"

	"github.com/schemacorrect/schemacorrect/database"
	"github.com/schemacorrect/schemacorrect/database/mysql"
	"github.com/schemacorrect/schemacorrect/database/postgres"
	"github.com/schemacorrect/schemacorrect/database/sqlite"
)

// NewDriver creates a database driver for the given dialect name. libsql
// databases speak the SQLite dialect.
func NewDriver(dialect string) (database.Driver, error) {
	switch dialect {
	case "postgres":
		return postgres.NewDriver(), nil
	case "mysql":
		return mysql.NewDriver(), nil
	case "sqlite", "libsql":
		return sqlite.NewDriver(), nil
	default:
		return nil, fmt.Errorf("unsupported database dialect: %s", dialect)
	}
}
