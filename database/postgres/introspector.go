package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/schemacorrect/schemacorrect/database"
)

// Introspector implements database.Introspector for PostgreSQL
type Introspector struct{}

// NewIntrospector creates a new PostgreSQL introspector
func NewIntrospector() *Introspector {
	return &Introspector{}
}

// IntrospectSchema reads the entire PostgreSQL database schema
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

// GetTables returns all table names in the PostgreSQL database
func (i *Introspector) GetTables(ctx context.Context, db *sql.DB, schemaName string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = COALESCE(NULLIF($1, ''), current_schema())
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, schemaName)
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

// GetColumns returns all columns for a given PostgreSQL table
func (i *Introspector) GetColumns(ctx context.Context, db *sql.DB, schemaName, tableName string) ([]database.Column, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable,
			c.column_default,
			COALESCE(
				(SELECT true
				 FROM information_schema.table_constraints tc
				 JOIN information_schema.key_column_usage kcu
				   ON tc.constraint_name = kcu.constraint_name
				   AND tc.table_schema = kcu.table_schema
				 WHERE tc.table_name = c.table_name
				   AND tc.table_schema = c.table_schema
				   AND tc.constraint_type = 'PRIMARY KEY'
				   AND kcu.column_name = c.column_name),
				false
			) as is_primary_key
		FROM information_schema.columns c
		WHERE c.table_schema = COALESCE(NULLIF($1, ''), current_schema())
		  AND c.table_name = $2
		ORDER BY c.ordinal_position
	`

	rows, err := db.QueryContext(ctx, query, schemaName, tableName)
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

// GetIndexes returns all indexes for a given PostgreSQL table.
// Excludes indexes that back PRIMARY KEY or UNIQUE constraints.
func (i *Introspector) GetIndexes(ctx context.Context, db *sql.DB, schemaName, tableName string) ([]database.Index, error) {
	query := `
		SELECT
			ic.relname AS index_name,
			array_to_string(array_agg(a.attname ORDER BY array_position(ix.indkey, a.attnum)), ',') AS columns,
			ix.indisunique
		FROM pg_class t
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class ic ON ic.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		LEFT JOIN pg_constraint con ON con.conindid = ix.indexrelid AND con.contype IN ('p', 'u')
		WHERE t.relname = $2
		  AND t.relkind = 'r'
		  AND n.nspname = COALESCE(NULLIF($1, ''), current_schema())
		  AND ix.indisprimary = false
		  AND con.oid IS NULL
		GROUP BY ic.relname, ix.indisunique
		ORDER BY ic.relname
	`

	rows, err := db.QueryContext(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes for table %q: %w", tableName, err)
	}
	defer func() { _ = rows.Close() }()

	var indexes []database.Index
	for rows.Next() {
		var idx database.Index
		var columns string

		if err := rows.Scan(&idx.Name, &columns, &idx.Unique); err != nil {
			return nil, err
		}

		if columns != "" {
			idx.Columns = strings.Split(columns, ",")
		}

		indexes = append(indexes, idx)
	}

	return indexes, rows.Err()
}

// foreignKeyRow is one (constraint, column position) pair from
// pg_constraint, already paired constrained-to-referenced by ordinality.
type foreignKeyRow struct {
	ConstraintName string
	ColumnName     string
	ForeignSchema  string
	ForeignTable   string
	ForeignColumn  string
	UpdateAction   string
	DeleteAction   string
}

// GetForeignKeys returns all foreign keys for a given PostgreSQL table.
// The query unnests conkey/confkey together so composite keys keep their
// per-position column pairing. The referenced schema is folded to empty
// when it matches the table's own schema, so signatures compare equal
// across databases with differently named namespaces.
func (i *Introspector) GetForeignKeys(ctx context.Context, db *sql.DB, schemaName, tableName string) ([]database.ForeignKey, error) {
	query := `
		SELECT
			con.conname AS constraint_name,
			src_att.attname AS column_name,
			COALESCE(NULLIF(fn.nspname, n.nspname), '') AS foreign_table_schema,
			ft.relname AS foreign_table_name,
			dst_att.attname AS foreign_column_name,
			con.confupdtype,
			con.confdeltype
		FROM pg_constraint con
		JOIN pg_class t ON t.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_class ft ON ft.oid = con.confrelid
		JOIN pg_namespace fn ON fn.oid = ft.relnamespace
		JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS cols(attnum, fattnum, ord) ON true
		JOIN pg_attribute src_att ON src_att.attrelid = con.conrelid AND src_att.attnum = cols.attnum
		JOIN pg_attribute dst_att ON dst_att.attrelid = con.confrelid AND dst_att.attnum = cols.fattnum
		WHERE con.contype = 'f'
			AND t.relname = $2
			AND n.nspname = COALESCE(NULLIF($1, ''), current_schema())
		ORDER BY con.conname, cols.ord
	`

	rows, err := db.QueryContext(ctx, query, schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var fkRows []foreignKeyRow
	for rows.Next() {
		var row foreignKeyRow
		if err := rows.Scan(&row.ConstraintName, &row.ColumnName, &row.ForeignSchema, &row.ForeignTable, &row.ForeignColumn, &row.UpdateAction, &row.DeleteAction); err != nil {
			return nil, err
		}
		fkRows = append(fkRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return groupForeignKeys(fkRows), nil
}

// groupForeignKeys folds ordered (constraint, column) rows into foreign
// keys, appending one column pair per row.
func groupForeignKeys(fkRows []foreignKeyRow) []database.ForeignKey {
	fkMap := make(map[string]*database.ForeignKey)
	var fkNames []string

	for _, row := range fkRows {
		if _, exists := fkMap[row.ConstraintName]; !exists {
			fkMap[row.ConstraintName] = &database.ForeignKey{
				Name:              row.ConstraintName,
				Columns:           []string{},
				ReferencedSchema:  row.ForeignSchema,
				ReferencedTable:   row.ForeignTable,
				ReferencedColumns: []string{},
				OnUpdate:          referentialAction(row.UpdateAction),
				OnDelete:          referentialAction(row.DeleteAction),
			}
			fkNames = append(fkNames, row.ConstraintName)
		}

		fkMap[row.ConstraintName].Columns = append(fkMap[row.ConstraintName].Columns, row.ColumnName)
		fkMap[row.ConstraintName].ReferencedColumns = append(fkMap[row.ConstraintName].ReferencedColumns, row.ForeignColumn)
	}

	var foreignKeys []database.ForeignKey
	for _, name := range fkNames {
		foreignKeys = append(foreignKeys, *fkMap[name])
	}
	return foreignKeys
}

// referentialAction maps a pg_constraint confupdtype/confdeltype code to
// its SQL spelling. NO ACTION is the default and maps to nil.
func referentialAction(code string) *string {
	var action string
	switch code {
	case "r":
		action = "RESTRICT"
	case "c":
		action = "CASCADE"
	case "n":
		action = "SET NULL"
	case "d":
		action = "SET DEFAULT"
	default:
		return nil
	}
	return &action
}
