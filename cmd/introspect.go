package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schemacorrect/schemacorrect/database"
	"github.com/schemacorrect/schemacorrect/internal/config"
	"github.com/schemacorrect/schemacorrect/internal/snapshot"
)

var introspectFlags struct {
	db     string
	env    string
	schema string
	format string
	out    string
}

var introspectCmd = &cobra.Command{
	Use:   "introspect",
	Short: "Capture a database schema as a snapshot",
	Long: `Introspect reads a database's schema and writes it as a JSON snapshot
or as CREATE statements. A JSON snapshot can later serve as the diff
source via sync --source-snapshot.`,
	RunE: runIntrospect,
}

func init() {
	introspectCmd.Flags().StringVar(&introspectFlags.db, "db", "", "Database connection string")
	introspectCmd.Flags().StringVar(&introspectFlags.env, "env", "", "Named environment from schemacorrect.toml (uses its source URL)")
	introspectCmd.Flags().StringVar(&introspectFlags.schema, "schema", "", "Schema name (defaults to the dialect's current schema)")
	introspectCmd.Flags().StringVar(&introspectFlags.format, "format", "json", "Output format: json or sql")
	introspectCmd.Flags().StringVar(&introspectFlags.out, "out", "", "Output file (defaults to stdout)")

	rootCmd.AddCommand(introspectCmd)
}

func runIntrospect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if introspectFlags.db == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		resolved, err := config.ResolveEnvironment(cfg, introspectFlags.env)
		if err != nil {
			return err
		}
		introspectFlags.db = resolved.SourceURL
		if introspectFlags.schema == "" {
			introspectFlags.schema = resolved.Schema
		}
	}
	if introspectFlags.db == "" {
		return fmt.Errorf("no database: set --db or configure an environment")
	}

	db, driver, _, err := openDatabase(introspectFlags.db)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	schema, err := driver.IntrospectSchema(ctx, db, introspectFlags.schema)
	if err != nil {
		return fmt.Errorf("failed to introspect: %w", err)
	}
	logger.Info("introspected schema", "tables", len(schema.Tables))

	var output []byte
	switch introspectFlags.format {
	case "json":
		output, err = snapshot.Marshal(schema)
		if err != nil {
			return err
		}
	case "sql":
		output = []byte(renderSchemaSQL(driver, introspectFlags.schema, schema))
	default:
		return fmt.Errorf("unknown format: %s (expected json or sql)", introspectFlags.format)
	}

	if introspectFlags.out == "" {
		_, err = os.Stdout.Write(output)
		return err
	}
	if err := os.WriteFile(introspectFlags.out, output, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", introspectFlags.out, err)
	}
	logger.Info("wrote snapshot", "path", introspectFlags.out)
	return nil
}

// renderSchemaSQL renders the whole schema as CREATE statements in the
// database's own dialect.
func renderSchemaSQL(driver database.Driver, schemaName string, schema *database.Schema) string {
	var sb strings.Builder
	caps := driver.Capabilities()

	for _, table := range schema.Tables {
		sqlText, _ := driver.CreateTable(schemaName, table)
		sb.WriteString(sqlText)
		sb.WriteString(";\n\n")

		for _, idx := range table.Indexes {
			sqlText, _ := driver.AddIndex(schemaName, table.Name, idx)
			sb.WriteString(sqlText)
			sb.WriteString(";\n\n")
		}
	}

	if caps.AlterTableAddForeignKey {
		for _, table := range schema.Tables {
			for _, fk := range table.ForeignKeys {
				sqlText, _ := driver.AddForeignKey(schemaName, table.Name, fk)
				sb.WriteString(sqlText)
				sb.WriteString(";\n\n")
			}
		}
	}

	return sb.String()
}
