package mysql

import (
	"fmt"
	"strings"

	"github.com/schemacorrect/schemacorrect/database"
)

// Generator implements database.SQLGenerator for MySQL
type Generator struct{}

// NewGenerator creates a new MySQL SQL generator
func NewGenerator() *Generator {
	return &Generator{}
}

// CreateTable generates MySQL SQL to create a table. Foreign keys are
// never embedded; they are added afterwards via ALTER TABLE so that
// parent tables do not have to exist at CREATE time.
func (g *Generator) CreateTable(schemaName string, table database.Table) (string, string) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("CREATE TABLE %s (\n", g.QualifyTable(schemaName, table.Name)))

	for i, col := range table.Columns {
		sb.WriteString("  ")
		sb.WriteString(g.formatColumnDefinition(col))
		if i < len(table.Columns)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(")")

	description := fmt.Sprintf("Create table %s", table.Name)
	return sb.String(), description
}

// AddColumn generates MySQL SQL to add a column
func (g *Generator) AddColumn(schemaName, tableName string, col database.Column) (string, string) {
	sql := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
		g.QualifyTable(schemaName, tableName),
		g.QuoteIdentifier(col.Name),
		g.RenderType(col.Type))
	description := fmt.Sprintf("Add column %s.%s", tableName, col.Name)
	return sql, description
}

// AddIndex generates MySQL SQL to add an index
func (g *Generator) AddIndex(schemaName, tableName string, idx database.Index) (string, string) {
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
		g.QualifyTable(schemaName, tableName),
		strings.Join(columns, ", "))

	description := fmt.Sprintf("Create index %s", idx.Name)
	return sql, description
}

// AddForeignKey generates MySQL SQL to add a foreign key. MySQL validates
// existing rows at creation time; there is no NOT VALID equivalent.
func (g *Generator) AddForeignKey(schemaName, tableName string, fk database.ForeignKey) (string, string) {
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

	// The parent is qualified with the configured schema only; a schema
	// name introspected from the source side has no meaning on the target.
	sql := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		g.QualifyTable(schemaName, tableName),
		g.QuoteIdentifier(name),
		strings.Join(columns, ", "),
		g.QualifyTable(schemaName, fk.ReferencedTable),
		strings.Join(refColumns, ", "))

	if fk.OnDelete != nil {
		sql += fmt.Sprintf(" ON DELETE %s", *fk.OnDelete)
	}
	if fk.OnUpdate != nil {
		sql += fmt.Sprintf(" ON UPDATE %s", *fk.OnUpdate)
	}

	description := fmt.Sprintf("Add foreign key %s.%s", tableName, name)
	return sql, description
}

// formatColumnDefinition formats one column for CREATE TABLE
func (g *Generator) formatColumnDefinition(col database.Column) string {
	var sb strings.Builder

	sb.WriteString(g.QuoteIdentifier(col.Name))
	sb.WriteString(" ")
	sb.WriteString(g.RenderType(col.Type))

	if !col.Nullable {
		sb.WriteString(" NOT NULL")
	}

	if col.Default != nil {
		sb.WriteString(fmt.Sprintf(" DEFAULT %s", *col.Default))
	}

	if col.IsPrimaryKey {
		sb.WriteString(" PRIMARY KEY")
	}

	return sb.String()
}

// QuoteIdentifier quotes an identifier with backticks, doubling any
// embedded backtick characters.
func (g *Generator) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// QualifyTable returns the quoted table name, database-qualified when a
// schema is configured.
func (g *Generator) QualifyTable(schemaName, tableName string) string {
	if schemaName != "" {
		return g.QuoteIdentifier(schemaName) + "." + g.QuoteIdentifier(tableName)
	}
	return g.QuoteIdentifier(tableName)
}

// mysqlTypeSynonyms maps common type aliases to their canonical forms so
// that columns introspected from two databases compare equal.
var mysqlTypeSynonyms = map[string]string{
	"integer":  "INT",
	"int4":     "INT",
	"boolean":  "TINYINT(1)",
	"bool":     "TINYINT(1)",
	"dec":      "DECIMAL",
	"numeric":  "DECIMAL",
	"fixed":    "DECIMAL",
	"double":   "DOUBLE",
	"float8":   "DOUBLE",
	"real":     "DOUBLE",
	"char":     "CHAR",
	"varchar":  "VARCHAR",
	"nvarchar": "VARCHAR",
}

// RenderType canonicalizes an introspected MySQL type string. The
// column_type form already carries display widths and unsigned markers;
// those are preserved.
func (g *Generator) RenderType(raw string) string {
	trimmed := strings.Join(strings.Fields(raw), " ")
	base := trimmed
	suffix := ""
	if idx := strings.Index(trimmed, "("); idx >= 0 {
		base = strings.TrimSpace(trimmed[:idx])
		suffix = trimmed[idx:]
	}

	if canonical, ok := mysqlTypeSynonyms[strings.ToLower(base)]; ok {
		return canonical + suffix
	}
	return strings.ToUpper(base) + suffix
}
