package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/schemacorrect/schemacorrect/database"
)

// Introspector implements database.Introspector for MySQL. The schemaName
// argument selects a database; when empty the connection's current
// database is used.
type Introspector struct{}

// NewIntrospector creates a new MySQL introspector
func NewIntrospector() *Introspector {
	return &Introspector{}
}

func (i *Introspector) resolveSchema(ctx context.Context, db *sql.DB, schemaName string) (string, error) {
	if schemaName != "" {
		return schemaName, nil
	}
	var current sql.NullString
	if err := db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&current); err != nil {
		return "", fmt.Errorf("failed to resolve current database: %w", err)
	}
	if !current.Valid || current.String == "" {
		return "", fmt.Errorf("no database selected; specify a schema name")
	}
	return current.String, nil
}

// IntrospectSchema reads the entire MySQL database schema
func (i *Introspector) IntrospectSchema(ctx context.Context, db *sql.DB, schemaName string) (*database.Schema, error) {
	schema := &database.Schema{
		Tables: make([]database.Table, 0),
	}

	tables, err := i.GetTables(ctx, db, schemaName)
	if err != nil {
		return nil, err
	}

	for _, tableName := range tables {
		table := database.Table{Name: tableName}

		columns, err := i.GetColumns(ctx, db, schemaName, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
		}
		table.Columns = columns

		indexes, err := i.GetIndexes(ctx, db, schemaName, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to get indexes for table %s: %w", tableName, err)
		}
		table.Indexes = indexes

		foreignKeys, err := i.GetForeignKeys(ctx, db, schemaName, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to get foreign keys for table %s: %w", tableName, err)
		}
		table.ForeignKeys = foreignKeys

		schema.Tables = append(schema.Tables, table)
	}

	return schema, nil
}

// GetTables returns all table names in the MySQL database
func (i *Introspector) GetTables(ctx context.Context, db *sql.DB, schemaName string) ([]string, error) {
	dbName, err := i.resolveSchema(ctx, db, schemaName)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ?
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tableNames []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tableNames = append(tableNames, tableName)
	}

	return tableNames, rows.Err()
}

// GetColumns returns all columns for a given MySQL table
func (i *Introspector) GetColumns(ctx context.Context, db *sql.DB, schemaName, tableName string) ([]database.Column, error) {
	dbName, err := i.resolveSchema(ctx, db, schemaName)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT
			column_name,
			column_type,
			is_nullable,
			column_default,
			column_key = 'PRI'
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`, dbName, tableName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []database.Column
	for rows.Next() {
		var col database.Column
		var nullable string
		var defaultVal sql.NullString

		if err := rows.Scan(&col.Name, &col.Type, &nullable, &defaultVal, &col.IsPrimaryKey); err != nil {
			return nil, err
		}

		col.Type = strings.TrimSpace(col.Type)
		col.Nullable = nullable == "YES"
		if defaultVal.Valid {
			col.Default = &defaultVal.String
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// GetIndexes returns all indexes for a given MySQL table, excluding the
// primary key and indexes backing UNIQUE or FOREIGN KEY constraints.
func (i *Introspector) GetIndexes(ctx context.Context, db *sql.DB, schemaName, tableName string) ([]database.Index, error) {
	dbName, err := i.resolveSchema(ctx, db, schemaName)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT
			index_name,
			GROUP_CONCAT(column_name ORDER BY seq_in_index) as columns,
			MAX(non_unique) as non_unique
		FROM information_schema.statistics
		WHERE table_schema = ?
		  AND table_name = ?
		  AND index_name != 'PRIMARY'
		  AND index_name NOT IN (
			SELECT constraint_name
			FROM information_schema.table_constraints
			WHERE table_schema = ?
			  AND table_name = ?
			  AND constraint_type IN ('UNIQUE', 'FOREIGN KEY')
		  )
		GROUP BY index_name
		ORDER BY index_name
	`, dbName, tableName, dbName, tableName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var indexes []database.Index
	for rows.Next() {
		var idx database.Index
		var columns string
		var nonUnique int

		if err := rows.Scan(&idx.Name, &columns, &nonUnique); err != nil {
			return nil, err
		}

		idx.Columns = strings.Split(columns, ",")
		idx.Unique = nonUnique == 0

		indexes = append(indexes, idx)
	}

	return indexes, rows.Err()
}

// GetForeignKeys returns all foreign keys for a given MySQL table
func (i *Introspector) GetForeignKeys(ctx context.Context, db *sql.DB, schemaName, tableName string) ([]database.ForeignKey, error) {
	dbName, err := i.resolveSchema(ctx, db, schemaName)
	if err != nil {
		return nil, err
	}

	// The referenced schema is folded to empty when it is the table's own
	// database, so the same logical key introspected from two servers with
	// different database names compares equal.
	rows, err := db.QueryContext(ctx, `
		SELECT
			kcu.constraint_name,
			GROUP_CONCAT(kcu.column_name ORDER BY kcu.ordinal_position) as columns,
			NULLIF(kcu.referenced_table_schema, kcu.table_schema) as ref_schema,
			kcu.referenced_table_name,
			GROUP_CONCAT(kcu.referenced_column_name ORDER BY kcu.ordinal_position) as ref_columns,
			rc.update_rule,
			rc.delete_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
			ON kcu.constraint_name = rc.constraint_name
			AND kcu.table_schema = rc.constraint_schema
		WHERE kcu.table_schema = ?
		  AND kcu.table_name = ?
		  AND kcu.referenced_table_name IS NOT NULL
		GROUP BY kcu.constraint_name, ref_schema, kcu.referenced_table_name, rc.update_rule, rc.delete_rule
		ORDER BY kcu.constraint_name
	`, dbName, tableName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var foreignKeys []database.ForeignKey
	for rows.Next() {
		var name, columns, refTable, refColumns, updateRule, deleteRule string
		var refSchema sql.NullString

		if err := rows.Scan(&name, &columns, &refSchema, &refTable, &refColumns, &updateRule, &deleteRule); err != nil {
			return nil, err
		}

		fk := database.ForeignKey{
			Name:              name,
			Columns:           strings.Split(columns, ","),
			ReferencedSchema:  refSchema.String,
			ReferencedTable:   refTable,
			ReferencedColumns: strings.Split(refColumns, ","),
		}

		if updateRule != "NO ACTION" && updateRule != "RESTRICT" {
			fk.OnUpdate = &updateRule
		}
		if deleteRule != "NO ACTION" && deleteRule != "RESTRICT" {
			fk.OnDelete = &deleteRule
		}

		foreignKeys = append(foreignKeys, fk)
	}

	return foreignKeys, rows.Err()
}
