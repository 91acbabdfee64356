package executor

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"

	"github.com/schemacorrect/schemacorrect/database"
	"github.com/schemacorrect/schemacorrect/internal/corrector"
	"github.com/schemacorrect/schemacorrect/internal/logging"
)

// Options controls how a plan is applied.
type Options struct {
	// DryRun prints every operation instead of executing anything.
	DryRun bool

	// LockTimeout bounds how long each DDL statement may wait on a lock,
	// in seconds. Zero disables the timeout.
	LockTimeout int

	// StatementTimeout bounds total statement runtime, in seconds. Zero
	// disables the timeout.
	StatementTimeout int

	// Dialect is the target dialect name; selects the session timeout SQL.
	Dialect string

	// Capabilities of the target dialect; gates session timeout setup.
	Capabilities database.Capabilities

	// Out receives dry-run output. Defaults to stdout.
	Out io.Writer

	Logger *slog.Logger
}

// Apply runs the plan against the target database inside one transaction.
// Report operations are skipped but logged; any failure rolls the whole
// transaction back so a partial plan is never left committed.
func Apply(ctx context.Context, db *sql.DB, plan *corrector.Plan, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	if opts.DryRun {
		printPlan(opts.Out, plan)
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if opts.Capabilities.SessionTimeouts {
		if err := applySessionTimeouts(ctx, tx, opts); err != nil {
			opts.Logger.Error("failed to set session timeouts", "error", err)
			logging.Critical(opts.Logger, "aborting apply; transaction rolled back")
			return fmt.Errorf("failed to set session timeouts: %w", err)
		}
	}

	for _, op := range plan.Operations {
		if !op.Executable() {
			opts.Logger.Info("skipping report operation", "comment", op.Comment)
			continue
		}

		opts.Logger.Info("executing operation", "kind", string(op.Kind), "comment", op.Comment)
		if _, err := tx.ExecContext(ctx, op.SQL); err != nil {
			opts.Logger.Error("operation failed", "kind", string(op.Kind), "comment", op.Comment, "error", err)
			logging.Critical(opts.Logger, "apply aborted; transaction rolled back", "comment", op.Comment)
			return fmt.Errorf("failed to execute %s (%s): %w", op.Kind, op.Comment, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// applySessionTimeouts sets lock-wait and statement timeouts for the
// transaction. The SQL differs per dialect family: Postgres takes
// duration strings, MySQL takes session variables (lock wait in seconds,
// execution time in milliseconds).
func applySessionTimeouts(ctx context.Context, tx *sql.Tx, opts Options) error {
	var stmts []string

	switch opts.Dialect {
	case "mysql":
		if opts.LockTimeout > 0 {
			stmts = append(stmts, fmt.Sprintf("SET SESSION lock_wait_timeout = %d", opts.LockTimeout))
		}
		if opts.StatementTimeout > 0 {
			stmts = append(stmts, fmt.Sprintf("SET SESSION max_execution_time = %d", opts.StatementTimeout*1000))
		}
	default:
		if opts.LockTimeout > 0 {
			stmts = append(stmts, fmt.Sprintf("SET lock_timeout = '%ds'", opts.LockTimeout))
		}
		if opts.StatementTimeout > 0 {
			stmts = append(stmts, fmt.Sprintf("SET statement_timeout = '%ds'", opts.StatementTimeout))
		}
	}

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

// printPlan writes one block per operation: a comment line with the kind
// and description, then the SQL.
func printPlan(w io.Writer, plan *corrector.Plan) {
	header := color.New(color.FgCyan)
	reportStyle := color.New(color.FgYellow)

	for i, op := range plan.Operations {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if op.Kind == corrector.KindReport {
			reportStyle.Fprintf(w, "-- %s: %s\n", op.Kind, op.Comment)
		} else {
			header.Fprintf(w, "-- %s: %s\n", op.Kind, op.Comment)
		}
		fmt.Fprintf(w, "%s;\n", op.SQL)
	}
}
