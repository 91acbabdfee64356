package database

import (
	"context"
	"database/sql"
)

// Schema represents an introspected database schema
type Schema struct {
	Tables []Table `json:"tables"`
}

// Table represents a database table
type Table struct {
	Name        string       `json:"name"`
	Columns     []Column     `json:"columns"`
	Indexes     []Index      `json:"indexes,omitempty"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`
}

// Column represents a table column. IsPrimaryKey is carried for CREATE
// TABLE rendering only; the diff passes never compare it.
type Column struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Nullable     bool    `json:"nullable"`
	Default      *string `json:"default,omitempty"`
	IsPrimaryKey bool    `json:"is_primary_key,omitempty"`
}

// Index represents a table index
type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
}

// ForeignKey represents a foreign key constraint
type ForeignKey struct {
	Name              string   `json:"name"`
	Columns           []string `json:"columns"`
	ReferencedSchema  string   `json:"referenced_schema,omitempty"`
	ReferencedTable   string   `json:"referenced_table"`
	ReferencedColumns []string `json:"referenced_columns"`
	OnDelete          *string  `json:"on_delete,omitempty"`
	OnUpdate          *string  `json:"on_update,omitempty"`
}

// Capabilities describes what schema operations a dialect can perform.
// The planner and executor branch on these flags instead of dialect names,
// so supporting a new dialect is a data addition rather than a code change.
type Capabilities struct {
	// AlterTableAddForeignKey is true when the dialect can add a foreign
	// key to an existing table via ALTER TABLE ... ADD CONSTRAINT.
	AlterTableAddForeignKey bool

	// SessionTimeouts is true when the dialect supports session-level
	// lock-wait and statement timeouts.
	SessionTimeouts bool

	// DeferredFKValidation is true when new foreign keys can skip
	// validation of existing rows (Postgres NOT VALID).
	DeferredFKValidation bool

	// InlineForeignKeys is true when foreign keys must be embedded in
	// CREATE TABLE because they cannot be added afterwards (SQLite).
	InlineForeignKeys bool
}

// Introspector defines the interface for database schema introspection.
// schemaName is the optional namespace to introspect; dialects without
// schema namespaces ignore it.
type Introspector interface {
	// IntrospectSchema reads the entire database schema
	IntrospectSchema(ctx context.Context, db *sql.DB, schemaName string) (*Schema, error)

	// GetTables returns all table names in the database
	GetTables(ctx context.Context, db *sql.DB, schemaName string) ([]string, error)

	// GetColumns returns all columns for a given table
	GetColumns(ctx context.Context, db *sql.DB, schemaName, tableName string) ([]Column, error)

	// GetIndexes returns all indexes for a given table
	GetIndexes(ctx context.Context, db *sql.DB, schemaName, tableName string) ([]Index, error)

	// GetForeignKeys returns all foreign keys for a given table
	GetForeignKeys(ctx context.Context, db *sql.DB, schemaName, tableName string) ([]ForeignKey, error)
}

// SQLGenerator defines the interface for generating dialect-specific DDL.
// Generated statements end without a trailing semicolon; callers append it.
type SQLGenerator interface {
	// CreateTable generates SQL to create a table. Foreign keys are
	// embedded only when the dialect requires inline foreign keys.
	CreateTable(schemaName string, table Table) (sql string, description string)

	// AddColumn generates SQL to add a column to a table
	AddColumn(schemaName, tableName string, col Column) (sql string, description string)

	// AddIndex generates SQL to add an index
	AddIndex(schemaName, tableName string, idx Index) (sql string, description string)

	// AddForeignKey generates SQL to add a foreign key constraint
	AddForeignKey(schemaName, tableName string, fk ForeignKey) (sql string, description string)

	// QuoteIdentifier quotes a single identifier per dialect rules
	QuoteIdentifier(name string) string

	// QualifyTable returns the quoted, schema-qualified table name
	QualifyTable(schemaName, tableName string) string

	// RenderType canonicalizes an introspected type string so that
	// columns from two databases of the same dialect compare equal
	RenderType(raw string) string
}

// Driver represents a database dialect with introspection and SQL generation
type Driver interface {
	Introspector
	SQLGenerator

	// Name returns the dialect name (e.g., "postgres", "sqlite", "mysql")
	Name() string

	// Capabilities returns the dialect's schema-change capabilities
	Capabilities() Capabilities
}
