package postgres

import (
	"github.com/schemacorrect/schemacorrect/database"
)

// Driver implements database.Driver for PostgreSQL
type Driver struct {
	*Introspector
	*Generator
}

// NewDriver creates a new PostgreSQL driver
func NewDriver() *Driver {
	return &Driver{
		Introspector: NewIntrospector(),
		Generator:    NewGenerator(),
	}
}

// Name returns the dialect name
func (d *Driver) Name() string {
	return "postgres"
}

// Capabilities returns the PostgreSQL schema-change capabilities
func (d *Driver) Capabilities() database.Capabilities {
	return database.Capabilities{
		AlterTableAddForeignKey: true,
		SessionTimeouts:         true,
		DeferredFKValidation:    true,
		InlineForeignKeys:       false,
	}
}

// Ensure Driver implements database.Driver
var _ database.Driver = (*Driver)(nil)

// Ensure Introspector implements database.Introspector
var _ database.Introspector = (*Introspector)(nil)

// Ensure Generator implements database.SQLGenerator
var _ database.SQLGenerator = (*Generator)(nil)
