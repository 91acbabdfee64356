package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/schemacorrect/schemacorrect/database"
)

// Introspector implements database.Introspector for SQLite. SQLite has no
// schema namespaces, so the schemaName argument is ignored throughout.
type Introspector struct{}

// NewIntrospector creates a new SQLite introspector
func NewIntrospector() *Introspector {
	return &Introspector{}
}

// IntrospectSchema reads the entire SQLite database schema
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

// GetTables returns all table names in the SQLite database
func (i *Introspector) GetTables(ctx context.Context, db *sql.DB, _ string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
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

// GetColumns returns all columns for a given SQLite table
func (i *Introspector) GetColumns(ctx context.Context, db *sql.DB, _, tableName string) ([]database.Column, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", quotePragmaArg(tableName))

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []database.Column
	for rows.Next() {
		var cid int
		var col database.Column
		var notNull int
		var defaultVal sql.NullString
		var pk int

		// PRAGMA table_info returns: cid, name, type, notnull, dflt_value, pk
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &defaultVal, &pk); err != nil {
			return nil, err
		}

		col.Nullable = notNull == 0
		col.IsPrimaryKey = pk > 0
		if defaultVal.Valid {
			col.Default = &defaultVal.String
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// GetIndexes returns all indexes for a given SQLite table. Auto-created
// indexes (primary key, unique constraint backing) are skipped.
func (i *Introspector) GetIndexes(ctx context.Context, db *sql.DB, _, tableName string) ([]database.Index, error) {
	query := fmt.Sprintf("PRAGMA index_list(%s)", quotePragmaArg(tableName))

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var indexes []database.Index
	for rows.Next() {
		var seq int
		var idx database.Index
		var origin string
		var partial int
		var unique int

		// PRAGMA index_list returns: seq, name, unique, origin, partial
		if err := rows.Scan(&seq, &idx.Name, &unique, &origin, &partial); err != nil {
			return nil, err
		}

		idx.Unique = unique == 1

		if origin != "c" || strings.HasPrefix(idx.Name, "sqlite_autoindex") {
			continue
		}

		cols, err := i.indexColumns(ctx, db, idx.Name)
		if err != nil {
			return nil, err
		}
		idx.Columns = cols

		indexes = append(indexes, idx)
	}

	return indexes, rows.Err()
}

func (i *Introspector) indexColumns(ctx context.Context, db *sql.DB, indexName string) ([]string, error) {
	query := fmt.Sprintf("PRAGMA index_info(%s)", quotePragmaArg(indexName))

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString

		// PRAGMA index_info returns: seqno, cid, name
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}

		if name.Valid {
			columns = append(columns, name.String)
		}
	}

	return columns, rows.Err()
}

// GetForeignKeys returns all foreign keys for a given SQLite table.
// SQLite does not name foreign keys, so names are synthesized from the
// table name and constraint id.
func (i *Introspector) GetForeignKeys(ctx context.Context, db *sql.DB, _, tableName string) ([]database.ForeignKey, error) {
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", quotePragmaArg(tableName))

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	// Group rows by constraint id to handle multi-column foreign keys
	fkMap := make(map[int]*database.ForeignKey)
	var fkIDs []int

	for rows.Next() {
		var id, seq int
		var table, from string
		var to sql.NullString
		var onUpdate, onDelete, match string

		// PRAGMA foreign_key_list returns: id, seq, table, from, to, on_update, on_delete, match
		if err := rows.Scan(&id, &seq, &table, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}

		if _, exists := fkMap[id]; !exists {
			fk := &database.ForeignKey{
				Name:              fmt.Sprintf("fk_%s_%d", tableName, id),
				Columns:           []string{},
				ReferencedTable:   table,
				ReferencedColumns: []string{},
			}

			if onUpdate != "NO ACTION" {
				fk.OnUpdate = &onUpdate
			}
			if onDelete != "NO ACTION" {
				fk.OnDelete = &onDelete
			}

			fkMap[id] = fk
			fkIDs = append(fkIDs, id)
		}

		fkMap[id].Columns = append(fkMap[id].Columns, from)
		if to.Valid {
			fkMap[id].ReferencedColumns = append(fkMap[id].ReferencedColumns, to.String)
		}
	}

	var foreignKeys []database.ForeignKey
	for _, id := range fkIDs {
		foreignKeys = append(foreignKeys, *fkMap[id])
	}

	return foreignKeys, rows.Err()
}

// quotePragmaArg quotes a table/index name for interpolation into a PRAGMA
// statement, which does not accept bind parameters.
func quotePragmaArg(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
