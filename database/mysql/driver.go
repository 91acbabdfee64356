package mysql

import (
	"github.com/schemacorrect/schemacorrect/database"
)

// Driver implements database.Driver for MySQL
type Driver struct {
	*Introspector
	*Generator
}

// NewDriver creates a new MySQL driver
func NewDriver() *Driver {
	return &Driver{
		Introspector: NewIntrospector(),
		Generator:    NewGenerator(),
	}
}

// Name returns the dialect name
func (d *Driver) Name() string {
	return "mysql"
}

// Capabilities returns the MySQL schema-change capabilities. MySQL can add
// foreign keys via ALTER TABLE but always validates existing rows.
func (d *Driver) Capabilities() database.Capabilities {
	return database.Capabilities{
		AlterTableAddForeignKey: true,
		SessionTimeouts:         true,
		DeferredFKValidation:    false,
		InlineForeignKeys:       false,
	}
}

// Ensure Driver implements database.Driver
var _ database.Driver = (*Driver)(nil)

// Ensure Introspector implements database.Introspector
var _ database.Introspector = (*Introspector)(nil)

// Ensure Generator implements database.SQLGenerator
var _ database.SQLGenerator = (*Generator)(nil)
