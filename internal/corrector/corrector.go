package corrector

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/schemacorrect/schemacorrect/database"
)

// Corrector diffs a reference (source) schema against a live target and
// produces an ordered, additive correction plan. Nothing it plans ever
// drops or rewrites existing data; every risky divergence becomes a
// report operation instead.
type Corrector struct {
	SourceDB *sql.DB
	TargetDB *sql.DB

	SourceDriver database.Driver
	TargetDriver database.Driver

	// SchemaName selects the namespace on both sides. Empty means the
	// dialect default (current_schema() on Postgres, the connected
	// database on MySQL).
	SchemaName string

	Logger *slog.Logger
}

// New creates a Corrector. A nil logger disables logging.
func New(sourceDB, targetDB *sql.DB, sourceDriver, targetDriver database.Driver, schemaName string, logger *slog.Logger) *Corrector {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Corrector{
		SourceDB:     sourceDB,
		TargetDB:     targetDB,
		SourceDriver: sourceDriver,
		TargetDriver: targetDriver,
		SchemaName:   schemaName,
		Logger:       logger,
	}
}

// Diff introspects both databases and builds the correction plan.
func (c *Corrector) Diff(ctx context.Context) (*Plan, error) {
	source, err := c.introspect(ctx, c.SourceDB, c.SourceDriver, "source")
	if err != nil {
		return nil, fmt.Errorf("failed to introspect source: %w", err)
	}

	target, err := c.introspect(ctx, c.TargetDB, c.TargetDriver, "target")
	if err != nil {
		return nil, fmt.Errorf("failed to introspect target: %w", err)
	}

	return c.BuildPlan(source, target), nil
}

// DiffAgainstSnapshot builds the plan from a pre-captured source snapshot
// instead of a live source connection.
func (c *Corrector) DiffAgainstSnapshot(ctx context.Context, source *database.Schema) (*Plan, error) {
	target, err := c.introspect(ctx, c.TargetDB, c.TargetDriver, "target")
	if err != nil {
		return nil, fmt.Errorf("failed to introspect target: %w", err)
	}
	return c.BuildPlan(source, target), nil
}

// introspect reads one side's schema. Table and column introspection
// failures abort; index and foreign key failures degrade to empty results
// with a warning so a partially-introspectable database still diffs.
func (c *Corrector) introspect(ctx context.Context, db *sql.DB, drv database.Driver, side string) (*database.Schema, error) {
	tables, err := drv.GetTables(ctx, db, c.SchemaName)
	if err != nil {
		return nil, err
	}

	schema := &database.Schema{Tables: make([]database.Table, 0, len(tables))}
	for _, tableName := range tables {
		table := database.Table{Name: tableName}

		columns, err := drv.GetColumns(ctx, db, c.SchemaName, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
		}
		table.Columns = columns

		indexes, err := drv.GetIndexes(ctx, db, c.SchemaName, tableName)
		if err != nil {
			c.Logger.Warn("index introspection failed; treating as none",
				"side", side, "table", tableName, "error", err)
			indexes = nil
		}
		table.Indexes = indexes

		foreignKeys, err := drv.GetForeignKeys(ctx, db, c.SchemaName, tableName)
		if err != nil {
			c.Logger.Warn("foreign key introspection failed; treating as none",
				"side", side, "table", tableName, "error", err)
			foreignKeys = nil
		}
		table.ForeignKeys = foreignKeys

		schema.Tables = append(schema.Tables, table)
	}

	return schema, nil
}

// BuildPlan compares two snapshots and returns the ordered plan. It is a
// pure function of the snapshots and the target dialect: no database I/O.
func (c *Corrector) BuildPlan(source, target *database.Schema) *Plan {
	gen := c.TargetDriver
	caps := c.TargetDriver.Capabilities()
	plan := &Plan{}

	sourceByName := make(map[string]database.Table, len(source.Tables))
	for _, t := range source.Tables {
		sourceByName[t.Name] = t
	}
	targetByName := make(map[string]database.Table, len(target.Tables))
	for _, t := range target.Tables {
		targetByName[t.Name] = t
	}

	// Pass 1: tables that exist only in the target are reported, never dropped.
	for _, t := range target.Tables {
		if _, ok := sourceByName[t.Name]; !ok {
			comment := fmt.Sprintf("EXTRA: table exists only in target: %s", t.Name)
			c.Logger.Warn(comment)
			plan.Operations = append(plan.Operations, report(comment))
		}
	}

	// Pass 2: missing tables, parents before dependents.
	var missing []database.Table
	for _, t := range source.Tables {
		if _, ok := targetByName[t.Name]; !ok {
			missing = append(missing, t)
		}
	}
	ordered := orderMissingTables(missing, c.Logger)

	// Pass 3: create each missing table, then its indexes. The generator
	// embeds foreign keys inline only on dialects that cannot add them later.
	for _, t := range ordered {
		sqlText, desc := gen.CreateTable(c.SchemaName, t)
		c.Logger.Info("planned table creation", "table", t.Name)
		plan.Operations = append(plan.Operations, Operation{Kind: KindCreateTable, SQL: sqlText, Comment: desc})

		for _, idx := range t.Indexes {
			sqlText, desc := gen.AddIndex(c.SchemaName, t.Name, idx)
			plan.Operations = append(plan.Operations, Operation{Kind: KindCreateIndex, SQL: sqlText, Comment: desc})
		}
	}

	// Passes 4 and 5: columns and indexes on tables present in both.
	for _, st := range source.Tables {
		tt, ok := targetByName[st.Name]
		if !ok {
			continue
		}

		targetCols := make(map[string]database.Column, len(tt.Columns))
		for _, col := range tt.Columns {
			targetCols[col.Name] = col
		}
		sourceCols := make(map[string]database.Column, len(st.Columns))
		for _, col := range st.Columns {
			sourceCols[col.Name] = col
		}

		for _, col := range tt.Columns {
			if _, ok := sourceCols[col.Name]; !ok {
				comment := fmt.Sprintf("EXTRA: column exists only in target: %s.%s", st.Name, col.Name)
				c.Logger.Warn(comment)
				plan.Operations = append(plan.Operations, report(comment))
			}
		}

		for _, col := range st.Columns {
			if _, ok := targetCols[col.Name]; !ok {
				sqlText, desc := gen.AddColumn(c.SchemaName, st.Name, col)
				c.Logger.Info("planned column addition", "table", st.Name, "column", col.Name)
				plan.Operations = append(plan.Operations, Operation{Kind: KindAddColumn, SQL: sqlText, Comment: desc})
			}
		}

		targetIdx := make(map[string]database.Index, len(tt.Indexes))
		for _, idx := range tt.Indexes {
			targetIdx[idx.Name] = idx
		}
		for _, idx := range st.Indexes {
			if _, ok := targetIdx[idx.Name]; !ok {
				sqlText, desc := gen.AddIndex(c.SchemaName, st.Name, idx)
				c.Logger.Info("planned index creation", "table", st.Name, "index", idx.Name)
				plan.Operations = append(plan.Operations, Operation{Kind: KindCreateIndex, SQL: sqlText, Comment: desc})
			}
		}
	}

	// Pass 6: foreign keys.
	c.planForeignKeys(plan, source, targetByName, ordered, gen, caps)

	// Pass 7: risky divergences on common columns. Never auto-applied:
	// tightening a constraint or changing a type on a populated table can
	// fail or corrupt data.
	for _, st := range source.Tables {
		tt, ok := targetByName[st.Name]
		if !ok {
			continue
		}
		targetCols := make(map[string]database.Column, len(tt.Columns))
		for _, col := range tt.Columns {
			targetCols[col.Name] = col
		}
		for _, sc := range st.Columns {
			tc, ok := targetCols[sc.Name]
			if !ok {
				continue
			}
			srcType := gen.RenderType(sc.Type)
			tgtType := gen.RenderType(tc.Type)
			if srcType != tgtType {
				comment := fmt.Sprintf("RISKY: type mismatch for %s.%s: source=%s target=%s",
					st.Name, sc.Name, srcType, tgtType)
				c.Logger.Warn(comment)
				plan.Operations = append(plan.Operations, report(comment))
			}
			if !sc.Nullable && tc.Nullable {
				comment := fmt.Sprintf("RISKY: nullable mismatch for %s.%s: source is NOT NULL, target allows NULL (needs staged backfill + ALTER)",
					st.Name, sc.Name)
				c.Logger.Warn(comment)
				plan.Operations = append(plan.Operations, report(comment))
			}
		}
	}

	return plan
}

// planForeignKeys emits the foreign key pass. On ALTER-capable dialects
// every foreign key missing by signature is added, both on newly created
// tables and on common tables. On dialects that cannot add foreign keys
// after creation the new tables already carry them inline; missing keys
// on common tables collapse into one report per table.
func (c *Corrector) planForeignKeys(plan *Plan, source *database.Schema, targetByName map[string]database.Table, created []database.Table, gen database.Driver, caps database.Capabilities) {
	if caps.AlterTableAddForeignKey {
		for _, t := range created {
			for _, fk := range t.ForeignKeys {
				sqlText, desc := gen.AddForeignKey(c.SchemaName, t.Name, fk)
				plan.Operations = append(plan.Operations, Operation{Kind: KindAddForeignKey, SQL: sqlText, Comment: desc})
			}
		}
	}

	for _, st := range source.Tables {
		tt, ok := targetByName[st.Name]
		if !ok {
			continue
		}

		var missingCount int
		for _, fk := range st.ForeignKeys {
			switch classifyForeignKey(fk, tt.ForeignKeys, c.SchemaName) {
			case fkMatched:
				continue
			case fkConflict:
				comment := fmt.Sprintf("CONFLICT: foreign key on %s(%s) referencing %s exists with different ON DELETE/ON UPDATE actions",
					st.Name, strings.Join(fk.Columns, ","), fk.ReferencedTable)
				c.Logger.Warn(comment)
				plan.Operations = append(plan.Operations, report(comment))
			case fkMissing:
				if caps.AlterTableAddForeignKey {
					sqlText, desc := gen.AddForeignKey(c.SchemaName, st.Name, fk)
					c.Logger.Info("planned foreign key addition", "table", st.Name, "referenced_table", fk.ReferencedTable)
					plan.Operations = append(plan.Operations, Operation{Kind: KindAddForeignKey, SQL: sqlText, Comment: desc})
				} else {
					missingCount++
				}
			}
		}

		if missingCount > 0 {
			comment := fmt.Sprintf("RISKY: dialect %s cannot add foreign keys via ALTER TABLE: table=%s, missing=%d (staged table recreation required)",
				c.TargetDriver.Name(), st.Name, missingCount)
			c.Logger.Warn(comment)
			plan.Operations = append(plan.Operations, report(comment))
		}
	}
}

type fkMatch int

const (
	fkMissing fkMatch = iota
	fkMatched
	fkConflict
)

// classifyForeignKey compares one source foreign key against the target
// table's keys. Matching is by signature: constrained columns, referenced
// schema/table/columns, and ON DELETE/ON UPDATE actions. A key whose
// columns and reference match but whose actions differ is a conflict, not
// a missing key: adding it would stack a duplicate constraint.
func classifyForeignKey(fk database.ForeignKey, targetFKs []database.ForeignKey, schemaName string) fkMatch {
	result := fkMissing
	for _, tfk := range targetFKs {
		if !stringSlicesEqual(fk.Columns, tfk.Columns) ||
			!stringSlicesEqual(fk.ReferencedColumns, tfk.ReferencedColumns) ||
			fk.ReferencedTable != tfk.ReferencedTable ||
			normalizeRefSchema(fk.ReferencedSchema, schemaName) != normalizeRefSchema(tfk.ReferencedSchema, schemaName) {
			continue
		}
		if actionsEqual(fk.OnDelete, tfk.OnDelete) && actionsEqual(fk.OnUpdate, tfk.OnUpdate) {
			return fkMatched
		}
		result = fkConflict
	}
	return result
}

// normalizeRefSchema folds the dialect-default namespace to the empty
// string so keys introspected with and without an explicit schema compare
// equal.
func normalizeRefSchema(refSchema, schemaName string) string {
	if refSchema == schemaName {
		return ""
	}
	if schemaName == "" && refSchema == "public" {
		return ""
	}
	return refSchema
}

func actionsEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return strings.EqualFold(*a, *b)
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
