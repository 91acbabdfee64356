package snapshot

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/schemacorrect/schemacorrect/database"
)

func testSchema() *database.Schema {
	onDelete := "CASCADE"
	return &database.Schema{
		Tables: []database.Table{
			{
				Name: "users",
				Columns: []database.Column{
					{Name: "id", Type: "INTEGER", Nullable: false, IsPrimaryKey: true},
					{Name: "email", Type: "TEXT", Nullable: false},
				},
				Indexes: []database.Index{
					{Name: "ix_users_email", Columns: []string{"email"}, Unique: true},
				},
			},
			{
				Name: "orders",
				Columns: []database.Column{
					{Name: "id", Type: "INTEGER", Nullable: false, IsPrimaryKey: true},
					{Name: "user_id", Type: "INTEGER", Nullable: true},
				},
				ForeignKeys: []database.ForeignKey{{
					Name:              "fk_orders_user_id",
					Columns:           []string{"user_id"},
					ReferencedTable:   "users",
					ReferencedColumns: []string{"id"},
					OnDelete:          &onDelete,
				}},
			},
		},
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	want := testSchema()

	if err := Save(path, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(got.Tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(got.Tables))
	}
	if got.Tables[0].Name != "users" || got.Tables[1].Name != "orders" {
		t.Errorf("table order not preserved: %s, %s", got.Tables[0].Name, got.Tables[1].Name)
	}
	fk := got.Tables[1].ForeignKeys[0]
	if fk.OnDelete == nil || *fk.OnDelete != "CASCADE" {
		t.Errorf("fk on delete = %v, want CASCADE", fk.OnDelete)
	}
	if !got.Tables[0].Indexes[0].Unique {
		t.Error("index uniqueness lost")
	}
}

func TestParseRejectsUnknownShape(t *testing.T) {
	_, err := Parse([]byte(`{"operations": []}`))
	if err == nil {
		t.Fatal("a plan file must not pass snapshot validation")
	}
	if !strings.Contains(err.Error(), "invalid snapshot") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseRejectsMissingColumnFields(t *testing.T) {
	_, err := Parse([]byte(`{"tables": [{"name": "users", "columns": [{"name": "id"}]}]}`))
	if err == nil {
		t.Fatal("columns without type/nullable must be rejected")
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	_, err := Parse([]byte(`{"tables": [`))
	if err == nil {
		t.Fatal("malformed JSON must be rejected")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("missing file must be an error")
	}
}
