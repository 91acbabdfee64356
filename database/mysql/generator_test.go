package mysql

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
			{Name: "id", Type: "int", Nullable: false, IsPrimaryKey: true},
			{Name: "email", Type: "varchar(255)", Nullable: false},
		},
		ForeignKeys: []database.ForeignKey{{
			Columns:           []string{"org_id"},
			ReferencedTable:   "orgs",
			ReferencedColumns: []string{"id"},
		}},
	}

	sql, _ := g.CreateTable("", table)
	if !strings.HasPrefix(sql, "CREATE TABLE `users` (") {
		t.Errorf("unexpected CREATE TABLE: %s", sql)
	}
	if !strings.Contains(sql, "`id` INT NOT NULL PRIMARY KEY") {
		t.Errorf("missing primary key column: %s", sql)
	}
	if strings.Contains(sql, "FOREIGN KEY") {
		t.Errorf("foreign keys must not be embedded: %s", sql)
	}
}

func TestAddForeignKeyNoNotValid(t *testing.T) {
	g := NewGenerator()

	sql, _ := g.AddForeignKey("shop", "orders", database.ForeignKey{
		Name:              "fk_orders_user_id",
		Columns:           []string{"user_id"},
		ReferencedTable:   "users",
		ReferencedColumns: []string{"id"},
	})

	want := "ALTER TABLE `shop`.`orders` ADD CONSTRAINT `fk_orders_user_id` FOREIGN KEY (`user_id`) REFERENCES `shop`.`users` (`id`)"
	if sql != want {
		t.Errorf("unexpected ADD CONSTRAINT:\n got: %s\nwant: %s", sql, want)
	}
	if strings.Contains(sql, "NOT VALID") {
		t.Errorf("mysql has no NOT VALID: %s", sql)
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
		t.Errorf("source-side database must never reach the target SQL: %s", sql)
	}
	if !strings.Contains(sql, "REFERENCES `users` (`id`)") {
		t.Errorf("parent should be unqualified without a configured schema: %s", sql)
	}
}

func TestAddIndex(t *testing.T) {
	g := NewGenerator()

	sql, _ := g.AddIndex("", "users", database.Index{
		Name:    "ix_users_email",
		Columns: []string{"email"},
		Unique:  false,
	})
	if sql != "CREATE INDEX `ix_users_email` ON `users` (`email`)" {
		t.Errorf("unexpected CREATE INDEX: %s", sql)
	}
}

func TestRenderType(t *testing.T) {
	g := NewGenerator()
	cases := []struct{ in, want string }{
		{"int", "INT"},
		{"integer", "INT"},
		{"varchar(255)", "VARCHAR(255)"},
		{"int(10) unsigned", "INT(10) unsigned"},
		{"boolean", "TINYINT(1)"},
	}

	for _, tc := range cases {
		if got := g.RenderType(tc.in); got != tc.want {
			t.Errorf("RenderType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestQuoteIdentifier(t *testing.T) {
	g := NewGenerator()
	if got := g.QuoteIdentifier("we`ird"); got != "`we``ird`" {
		t.Errorf("unexpected quoting: %s", got)
	}
}
