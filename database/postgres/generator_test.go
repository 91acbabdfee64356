package postgres

import (
	"strings"
	"testing"

	"github.com/schemacorrect/schemacorrect/database"
)

func TestCreateTable(t *testing.T) {
	g := NewGenerator()
	table := database.Table{
		Name: "users",
		Columns: []database.Column{
			{Name: "id", Type: "integer", Nullable: false, IsPrimaryKey: true},
			{Name: "email", Type: "character varying(255)", Nullable: false},
			{Name: "age", Type: "integer", Nullable: true},
		},
		ForeignKeys: []database.ForeignKey{{
			Columns:           []string{"org_id"},
			ReferencedTable:   "orgs",
			ReferencedColumns: []string{"id"},
		}},
	}

	sql, desc := g.CreateTable("", table)
	if desc != "Create table users" {
		t.Errorf("unexpected description: %s", desc)
	}
	if !strings.HasPrefix(sql, `CREATE TABLE "users" (`) {
		t.Errorf("unexpected CREATE TABLE: %s", sql)
	}
	if !strings.Contains(sql, `"id" INTEGER NOT NULL PRIMARY KEY`) {
		t.Errorf("missing primary key column: %s", sql)
	}
	if !strings.Contains(sql, `"email" VARCHAR(255) NOT NULL`) {
		t.Errorf("missing canonicalized varchar column: %s", sql)
	}
	if strings.Contains(sql, "FOREIGN KEY") {
		t.Errorf("foreign keys must not be embedded: %s", sql)
	}
}

func TestCreateTableSchemaQualified(t *testing.T) {
	g := NewGenerator()
	table := database.Table{
		Name:    "users",
		Columns: []database.Column{{Name: "id", Type: "integer", Nullable: false}},
	}

	sql, _ := g.CreateTable("app", table)
	if !strings.HasPrefix(sql, `CREATE TABLE "app"."users" (`) {
		t.Errorf("expected schema-qualified name: %s", sql)
	}
}

func TestAddColumnNeverTightensNullability(t *testing.T) {
	g := NewGenerator()
	col := database.Column{Name: "age", Type: "integer", Nullable: false}

	sql, _ := g.AddColumn("", "users", col)
	if sql != `ALTER TABLE "users" ADD COLUMN "age" INTEGER` {
		t.Errorf("unexpected ADD COLUMN: %s", sql)
	}
	if strings.Contains(sql, "NOT NULL") {
		t.Errorf("added columns must stay nullable: %s", sql)
	}
}

func TestAddIndex(t *testing.T) {
	g := NewGenerator()

	sql, _ := g.AddIndex("", "users", database.Index{
		Name:    "ix_users_email",
		Columns: []string{"email"},
		Unique:  true,
	})
	if sql != `CREATE UNIQUE INDEX "ix_users_email" ON "users" ("email")` {
		t.Errorf("unexpected CREATE INDEX: %s", sql)
	}
}

func TestAddForeignKeyNotValid(t *testing.T) {
	g := NewGenerator()
	onDelete := "CASCADE"

	sql, _ := g.AddForeignKey("", "orders", database.ForeignKey{
		Name:              "fk_orders_user_id",
		Columns:           []string{"user_id"},
		ReferencedTable:   "users",
		ReferencedColumns: []string{"id"},
		OnDelete:          &onDelete,
	})

	want := `ALTER TABLE "orders" ADD CONSTRAINT "fk_orders_user_id" FOREIGN KEY ("user_id") REFERENCES "users" ("id") ON DELETE CASCADE NOT VALID`
	if sql != want {
		t.Errorf("unexpected ADD CONSTRAINT:\n got: %s\nwant: %s", sql, want)
	}
}

func TestAddForeignKeySynthesizesName(t *testing.T) {
	g := NewGenerator()

	sql, _ := g.AddForeignKey("", "orders", database.ForeignKey{
		Columns:           []string{"user_id"},
		ReferencedTable:   "users",
		ReferencedColumns: []string{"id"},
	})
	if !strings.Contains(sql, `"fk_orders_user_id_users"`) {
		t.Errorf("expected synthesized constraint name: %s", sql)
	}
}

func TestAddForeignKeyIgnoresSourceSchema(t *testing.T) {
	g := NewGenerator()

	sql, _ := g.AddForeignKey("", "orders", database.ForeignKey{
		Name:              "fk_orders_user_id",
		Columns:           []string{"user_id"},
		ReferencedSchema:  "staging_db",
		ReferencedTable:   "users",
		ReferencedColumns: []string{"id"},
	})
	if strings.Contains(sql, "staging_db") {
		t.Errorf("source-side schema must never reach the target SQL: %s", sql)
	}
	if !strings.Contains(sql, `REFERENCES "users" ("id")`) {
		t.Errorf("parent should be unqualified without a configured schema: %s", sql)
	}
}

func TestRenderType(t *testing.T) {
	g := NewGenerator()
	cases := []struct{ in, want string }{
		{"integer", "INTEGER"},
		{"int4", "INTEGER"},
		{"character varying(255)", "VARCHAR(255)"},
		{"timestamp without time zone", "TIMESTAMP"},
		{"timestamp with time zone", "TIMESTAMPTZ"},
		{"numeric(10,2)", "NUMERIC(10,2)"},
		{"jsonb", "JSONB"},
		{"citext", "CITEXT"},
	}

	for _, tc := range cases {
		if got := g.RenderType(tc.in); got != tc.want {
			t.Errorf("RenderType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestQuoteIdentifier(t *testing.T) {
	g := NewGenerator()
	if got := g.QuoteIdentifier(`we"ird`); got != `"we""ird"` {
		t.Errorf("unexpected quoting: %s", got)
	}
}
