package sqlite

import (
	"github.com/schemacorrect/schemacorrect/database"
)

// Driver implements database.Driver for SQLite
type Driver struct {
	*Introspector
	*Generator
}

// NewDriver creates a new SQLite driver
func NewDriver() *Driver {
	return &Driver{
		Introspector: NewIntrospector(),
		Generator:    NewGenerator(),
	}
}

// Name returns the dialect name
func (d *Driver) Name() string {
	return "sqlite"
}

// Capabilities returns the SQLite schema-change capabilities
func (d *Driver) Capabilities() database.Capabilities {
	return database.Capabilities{
		AlterTableAddForeignKey: false,
		SessionTimeouts:         false,
		DeferredFKValidation:    false,
		InlineForeignKeys:       true,
	}
}

// Ensure Driver implements database.Driver
var _ database.Driver = (*Driver)(nil)

// Ensure Introspector implements database.Introspector
var _ database.Introspector = (*Introspector)(nil)

// Ensure Generator implements database.SQLGenerator
var _ database.SQLGenerator = (*Generator)(nil)
