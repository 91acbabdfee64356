package cmd

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/schemacorrect/schemacorrect/database"
	"github.com/schemacorrect/schemacorrect/internal/config"
	"github.com/schemacorrect/schemacorrect/internal/corrector"
	"github.com/schemacorrect/schemacorrect/internal/executor"
	"github.com/schemacorrect/schemacorrect/internal/snapshot"
	"github.com/schemacorrect/schemacorrect/internal/sqlcheck"
)

var syncFlags struct {
	source           string
	target           string
	schema           string
	env              string
	lockTimeout      int
	statementTimeout int
	apply            bool
	yes              bool
	sourceSnapshot   string
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Diff the reference schema against a target and apply additive corrections",
	Long: `Sync introspects the source (reference) and target databases, computes
the additive differences, and prints the correction plan. With --apply the
plan is executed against the target inside a single transaction.

Only additive, data-preserving operations are ever executed. Divergences
that would require dropping or rewriting data are reported, never applied.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncFlags.source, "source", "", "Source (reference) database connection string")
	syncCmd.Flags().StringVar(&syncFlags.target, "target", "", "Target database connection string")
	syncCmd.Flags().StringVar(&syncFlags.schema, "schema", "", "Schema name (defaults to the dialect's current schema)")
	syncCmd.Flags().StringVar(&syncFlags.env, "env", "", "Named environment from schemacorrect.toml")
	syncCmd.Flags().IntVar(&syncFlags.lockTimeout, "lock-timeout", 10, "Lock wait timeout in seconds (0 disables)")
	syncCmd.Flags().IntVar(&syncFlags.statementTimeout, "statement-timeout", 0, "Statement timeout in seconds (0 disables)")
	syncCmd.Flags().BoolVar(&syncFlags.apply, "apply", false, "Execute the plan instead of printing it")
	syncCmd.Flags().BoolVar(&syncFlags.yes, "yes", false, "Skip the confirmation prompt with --apply")
	syncCmd.Flags().StringVar(&syncFlags.sourceSnapshot, "source-snapshot", "", "Read the source schema from a snapshot file instead of a database")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := resolveSyncEnvironment(); err != nil {
		return err
	}
	if syncFlags.target == "" {
		return fmt.Errorf("no target database: set --target or configure an environment")
	}
	if syncFlags.source == "" && syncFlags.sourceSnapshot == "" {
		return fmt.Errorf("no source schema: set --source or --source-snapshot")
	}

	targetDB, targetDriver, targetDialect, err := openDatabase(syncFlags.target)
	if err != nil {
		return fmt.Errorf("failed to open target: %w", err)
	}
	defer func() { _ = targetDB.Close() }()

	c := corrector.New(nil, targetDB, nil, targetDriver, syncFlags.schema, logger)

	var plan *corrector.Plan
	if syncFlags.sourceSnapshot != "" {
		source, err := snapshot.Load(syncFlags.sourceSnapshot)
		if err != nil {
			return err
		}
		plan, err = c.DiffAgainstSnapshot(ctx, source)
		if err != nil {
			return err
		}
	} else {
		sourceDB, sourceDriver, _, err := openDatabase(syncFlags.source)
		if err != nil {
			return fmt.Errorf("failed to open source: %w", err)
		}
		defer func() { _ = sourceDB.Close() }()

		c.SourceDB = sourceDB
		c.SourceDriver = sourceDriver
		plan, err = c.Diff(ctx)
		if err != nil {
			return err
		}
	}

	if len(plan.Operations) == 0 {
		logger.Info("schemas match; nothing to do")
		return nil
	}

	if targetDialect == "postgres" {
		if err := verifyPlanSQL(plan, syncFlags.apply, logger); err != nil {
			return err
		}
	}

	opts := executor.Options{
		DryRun:           !syncFlags.apply,
		LockTimeout:      syncFlags.lockTimeout,
		StatementTimeout: syncFlags.statementTimeout,
		Dialect:          targetDialect,
		Capabilities:     targetDriver.Capabilities(),
		Logger:           logger,
	}

	if syncFlags.apply && !syncFlags.yes {
		n := len(plan.Executables())
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Apply %d operation(s) to %s", n, redactConnString(syncFlags.target)),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			logger.Info("apply cancelled")
			return nil
		}
	}

	return executor.Apply(ctx, targetDB, plan, opts)
}

// verifyPlanSQL parses every executable statement of the plan. Parse
// failures are logged as warnings either way; only an apply is refused,
// so a dry run still prints the offending plan for inspection.
func verifyPlanSQL(plan *corrector.Plan, apply bool, logger *slog.Logger) error {
	issues := sqlcheck.CheckPlan(plan)
	if len(issues) == 0 {
		return nil
	}
	for _, issue := range issues {
		logger.Warn("generated SQL failed to parse", "comment", issue.Comment, "error", issue.Message)
	}
	if apply {
		return fmt.Errorf("refusing to apply: %d generated statement(s) failed to parse", len(issues))
	}
	return nil
}

// resolveSyncEnvironment fills unset flags from schemacorrect.toml and the
// matching dotenv file. Explicit flags always win.
func resolveSyncEnvironment() error {
	if syncFlags.env == "" && syncFlags.source != "" && syncFlags.target != "" {
		return nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	resolved, err := config.ResolveEnvironment(cfg, syncFlags.env)
	if err != nil {
		return err
	}
	if syncFlags.env != "" && !resolved.FromConfig && !resolved.FromDotenv {
		return fmt.Errorf("unknown environment: %s", syncFlags.env)
	}

	if syncFlags.source == "" {
		syncFlags.source = resolved.SourceURL
	}
	if syncFlags.target == "" {
		syncFlags.target = resolved.TargetURL
	}
	if syncFlags.schema == "" {
		syncFlags.schema = resolved.Schema
	}
	return nil
}

// openDatabase detects the dialect, builds its driver, and opens the
// connection.
func openDatabase(connStr string) (*sql.DB, database.Driver, string, error) {
	dialect := database.DetectDialect(connStr)
	driver, err := executor.NewDriver(dialect)
	if err != nil {
		return nil, nil, "", err
	}

	db, err := sql.Open(database.SQLDriverName(dialect), database.NormalizeConnString(dialect, connStr))
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to connect: %w", err)
	}
	return db, driver, dialect, nil
}

// redactConnString hides the password portion of a URL-style connection
// string for display.
func redactConnString(connStr string) string {
	at := strings.LastIndex(connStr, "@")
	scheme := strings.Index(connStr, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return connStr
	}
	creds := connStr[scheme+3 : at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		return connStr[:scheme+3] + creds[:colon] + ":****" + connStr[at:]
	}
	return connStr
}
