package executor

import (
	"bytes"
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/fatih/color"
	_ "modernc.org/sqlite"

	"github.com/schemacorrect/schemacorrect/database/sqlite"
	"github.com/schemacorrect/schemacorrect/internal/corrector"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustExec(t *testing.T, db *sql.DB, stmts ...string) {
	t.Helper()
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to exec %q: %v", stmt, err)
		}
	}
}

func TestApplyDryRunTouchesNothing(t *testing.T) {
	color.NoColor = true

	target := openTestDB(t)
	plan := &corrector.Plan{Operations: []corrector.Operation{
		{Kind: corrector.KindCreateTable, SQL: `CREATE TABLE "users" ("id" INTEGER PRIMARY KEY)`, Comment: "Create table users"},
		{Kind: corrector.KindReport, SQL: "-- no-op", Comment: "EXTRA: table exists only in target: notes"},
	}}

	var out bytes.Buffer
	err := Apply(context.Background(), target, plan, Options{DryRun: true, Out: &out})
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}

	if !strings.Contains(out.String(), "-- create_table: Create table users") {
		t.Errorf("missing operation header in output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "-- report: EXTRA: table exists only in target: notes") {
		t.Errorf("report should be printed for visibility:\n%s", out.String())
	}

	var n int
	if err := target.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table'`).Scan(&n); err != nil {
		t.Fatalf("failed to count tables: %v", err)
	}
	if n != 0 {
		t.Errorf("dry run must not create anything, found %d tables", n)
	}
}

func TestApplyConvergesAndPreservesData(t *testing.T) {
	source := openTestDB(t)
	mustExec(t, source,
		`CREATE TABLE users (
			id INTEGER PRIMARY KEY,
			email TEXT NOT NULL,
			age INTEGER
		)`,
		`CREATE INDEX ix_users_email ON users (email)`,
		`CREATE TABLE orders (
			id INTEGER PRIMARY KEY,
			user_id INTEGER,
			total NUMERIC,
			FOREIGN KEY (user_id) REFERENCES users (id)
		)`,
	)

	target := openTestDB(t)
	mustExec(t, target,
		`CREATE TABLE users (
			id INTEGER PRIMARY KEY,
			email TEXT,
			legacy TEXT
		)`,
		`CREATE TABLE notes (id INTEGER PRIMARY KEY, text TEXT)`,
		`INSERT INTO users (id, email, legacy) VALUES (1, 'a@example.com', 'keep me')`,
		`INSERT INTO notes (id, text) VALUES (7, 'still here')`,
	)

	drv := sqlite.NewDriver()
	c := corrector.New(source, target, drv, drv, "", nil)

	plan, err := c.Diff(context.Background())
	if err != nil {
		t.Fatalf("diff failed: %v", err)
	}
	if len(plan.Executables()) == 0 {
		t.Fatal("expected executable operations")
	}

	opts := Options{Dialect: "sqlite", Capabilities: drv.Capabilities()}
	if err := Apply(context.Background(), target, plan, opts); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	// A second diff finds nothing new to create.
	plan2, err := c.Diff(context.Background())
	if err != nil {
		t.Fatalf("second diff failed: %v", err)
	}
	for _, op := range plan2.Executables() {
		t.Errorf("apply did not converge, still planning: %s %s", op.Kind, op.Comment)
	}

	// Pre-existing rows survive untouched, including target-only entities.
	var email, legacy string
	if err := target.QueryRow(`SELECT email, legacy FROM users WHERE id = 1`).Scan(&email, &legacy); err != nil {
		t.Fatalf("failed to read users row: %v", err)
	}
	if email != "a@example.com" || legacy != "keep me" {
		t.Errorf("row changed: email=%q legacy=%q", email, legacy)
	}
	var text string
	if err := target.QueryRow(`SELECT text FROM notes WHERE id = 7`).Scan(&text); err != nil {
		t.Fatalf("failed to read notes row: %v", err)
	}
	if text != "still here" {
		t.Errorf("notes row changed: %q", text)
	}

	// The new entities exist.
	var n int
	if err := target.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'orders'`).Scan(&n); err != nil || n != 1 {
		t.Errorf("orders table missing (n=%d, err=%v)", n, err)
	}
	if err := target.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'index' AND name = 'ix_users_email'`).Scan(&n); err != nil || n != 1 {
		t.Errorf("ix_users_email missing (n=%d, err=%v)", n, err)
	}
}

func TestApplyRollsBackOnFailure(t *testing.T) {
	target := openTestDB(t)

	plan := &corrector.Plan{Operations: []corrector.Operation{
		{Kind: corrector.KindCreateTable, SQL: `CREATE TABLE "users" ("id" INTEGER PRIMARY KEY)`, Comment: "Create table users"},
		{Kind: corrector.KindCreateTable, SQL: `THIS IS NOT SQL`, Comment: "Broken operation"},
	}}

	err := Apply(context.Background(), target, plan, Options{})
	if err == nil {
		t.Fatal("expected apply to fail")
	}
	if !strings.Contains(err.Error(), "Broken operation") {
		t.Errorf("error should name the failed operation: %v", err)
	}

	var n int
	if err := target.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'users'`).Scan(&n); err != nil {
		t.Fatalf("failed to count tables: %v", err)
	}
	if n != 0 {
		t.Error("failed apply must roll back every operation")
	}
}

func TestNewDriver(t *testing.T) {
	cases := []struct {
		dialect string
		want    string
		wantErr bool
	}{
		{dialect: "postgres", want: "postgres"},
		{dialect: "mysql", want: "mysql"},
		{dialect: "sqlite", want: "sqlite"},
		{dialect: "libsql", want: "sqlite"},
		{dialect: "oracle", wantErr: true},
	}

	for _, tc := range cases {
		drv, err := NewDriver(tc.dialect)
		if tc.wantErr {
			if err == nil {
				t.Errorf("NewDriver(%q) should fail", tc.dialect)
			}
			continue
		}
		if err != nil {
			t.Errorf("NewDriver(%q) failed: %v", tc.dialect, err)
			continue
		}
		if drv.Name() != tc.want {
			t.Errorf("NewDriver(%q).Name() = %q, want %q", tc.dialect, drv.Name(), tc.want)
		}
	}
}
