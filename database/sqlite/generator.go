package sqlite

import (
	"fmt"
	"strings"

	"github.com/schemacorrect/schemacorrect/database"
)

// Generator implements database.SQLGenerator for SQLite
type Generator struct{}

// NewGenerator creates a new SQLite SQL generator
func NewGenerator() *Generator {
	return &Generator{}
}

// CreateTable generates SQLite SQL to create a table. Foreign key
// constraints are embedded in the CREATE because SQLite cannot add them
// afterwards via ALTER TABLE. SQLite tolerates references to tables that
// do not exist yet, so inline constraints are safe even before parents
// are created.
func (g *Generator) CreateTable(_ string, table database.Table) (string, string) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("CREATE TABLE %s (\n", g.QuoteIdentifier(table.Name)))

	for i, col := range table.Columns {
		sb.WriteString("  ")
		sb.WriteString(g.formatColumnDefinition(col))
		if i < len(table.Columns)-1 || len(table.ForeignKeys) > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}

	for i, fk := range table.ForeignKeys {
		sb.WriteString("  ")
		sb.WriteString(g.formatForeignKeyConstraint(table.Name, fk))
		if i < len(table.ForeignKeys)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(")")

	description := fmt.Sprintf("Create table %s", table.Name)
	return sb.String(), description
}

// AddColumn generates SQLite SQL to add a column
func (g *Generator) AddColumn(_, tableName string, col database.Column) (string, string) {
	sql := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
		g.QuoteIdentifier(tableName),
		g.QuoteIdentifier(col.Name),
		g.RenderType(col.Type))
	description := fmt.Sprintf("Add column %s.%s", tableName, col.Name)
	return sql, description
}

// AddIndex generates SQLite SQL to add an index
func (g *Generator) AddIndex(_, tableName string, idx database.Index) (string, string) {
	uniqueStr := ""
	if idx.Unique {
		uniqueStr = "UNIQUE "
	}

	columns := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		columns[i] = g.QuoteIdentifier(c)
	}

	sql := fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
		uniqueStr, g.QuoteIdentifier(idx.Name),
		g.QuoteIdentifier(tableName),
		strings.Join(columns, ", "))

	description := fmt.Sprintf("Create index %s", idx.Name)
	return sql, description
}

// AddForeignKey cannot be expressed in SQLite; adding a constraint to an
// existing table requires staged table recreation. The planner never
// emits this operation for SQLite targets; the comment form is returned
// for completeness.
func (g *Generator) AddForeignKey(_, tableName string, fk database.ForeignKey) (string, string) {
	name := fk.Name
	if name == "" {
		name = database.SynthesizeFKName(tableName, fk)
	}
	sql := fmt.Sprintf("-- SQLite cannot add foreign key %s to %s via ALTER TABLE", name, tableName)
	description := fmt.Sprintf("Add foreign key %s.%s (requires table recreation)", tableName, name)
	return sql, description
}

// QuoteIdentifier quotes an identifier with double quotes, doubling any
// embedded quote characters.
func (g *Generator) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QualifyTable returns the quoted table name. SQLite has no schema
// namespaces, so the schema argument is ignored.
func (g *Generator) QualifyTable(_, tableName string) string {
	return g.QuoteIdentifier(tableName)
}

// RenderType canonicalizes a SQLite type string. SQLite type names are
// freeform; comparison only needs a consistent casing and spacing.
func (g *Generator) RenderType(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), " "))
}

// formatColumnDefinition formats one column for CREATE TABLE. PRIMARY KEY
// comes before NOT NULL in SQLite.
func (g *Generator) formatColumnDefinition(col database.Column) string {
	var sb strings.Builder

	sb.WriteString(g.QuoteIdentifier(col.Name))
	sb.WriteString(" ")
	sb.WriteString(g.RenderType(col.Type))

	if col.IsPrimaryKey {
		sb.WriteString(" PRIMARY KEY")
	}

	if !col.Nullable && !col.IsPrimaryKey {
		sb.WriteString(" NOT NULL")
	}

	if col.Default != nil {
		sb.WriteString(fmt.Sprintf(" DEFAULT %s", *col.Default))
	}

	return sb.String()
}

// formatForeignKeyConstraint formats an inline foreign key constraint for
// CREATE TABLE.
func (g *Generator) formatForeignKeyConstraint(tableName string, fk database.ForeignKey) string {
	name := fk.Name
	if name == "" {
		name = database.SynthesizeFKName(tableName, fk)
	}

	columns := make([]string, len(fk.Columns))
	for i, c := range fk.Columns {
		columns[i] = g.QuoteIdentifier(c)
	}
	refColumns := make([]string, len(fk.ReferencedColumns))
	for i, c := range fk.ReferencedColumns {
		refColumns[i] = g.QuoteIdentifier(c)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		g.QuoteIdentifier(name),
		strings.Join(columns, ", "),
		g.QuoteIdentifier(fk.ReferencedTable),
		strings.Join(refColumns, ", ")))

	if fk.OnDelete != nil {
		sb.WriteString(fmt.Sprintf(" ON DELETE %s", *fk.OnDelete))
	}
	if fk.OnUpdate != nil {
		sb.WriteString(fmt.Sprintf(" ON UPDATE %s", *fk.OnUpdate))
	}

	return sb.String()
}
