package postgres

import (
	"testing"
)

func TestGroupForeignKeysCompositePairing(t *testing.T) {
	rows := []foreignKeyRow{
		{ConstraintName: "fk_children_parents", ColumnName: "pa", ForeignTable: "parents", ForeignColumn: "a", UpdateAction: "a", DeleteAction: "c"},
		{ConstraintName: "fk_children_parents", ColumnName: "pb", ForeignTable: "parents", ForeignColumn: "b", UpdateAction: "a", DeleteAction: "c"},
		{ConstraintName: "fk_children_owner", ColumnName: "owner_id", ForeignTable: "users", ForeignColumn: "id", UpdateAction: "a", DeleteAction: "a"},
	}

	fks := groupForeignKeys(rows)
	if len(fks) != 2 {
		t.Fatalf("expected 2 foreign keys, got %d", len(fks))
	}

	composite := fks[0]
	if composite.Name != "fk_children_parents" {
		t.Fatalf("row order not preserved: %s", composite.Name)
	}
	if len(composite.Columns) != 2 || len(composite.ReferencedColumns) != 2 {
		t.Fatalf("composite key must keep one entry per position, got %v -> %v",
			composite.Columns, composite.ReferencedColumns)
	}
	// Pairing is positional: pa -> a, pb -> b.
	if composite.Columns[0] != "pa" || composite.ReferencedColumns[0] != "a" {
		t.Errorf("first pair = (%s, %s), want (pa, a)", composite.Columns[0], composite.ReferencedColumns[0])
	}
	if composite.Columns[1] != "pb" || composite.ReferencedColumns[1] != "b" {
		t.Errorf("second pair = (%s, %s), want (pb, b)", composite.Columns[1], composite.ReferencedColumns[1])
	}
	if composite.OnDelete == nil || *composite.OnDelete != "CASCADE" {
		t.Errorf("on delete = %v, want CASCADE", composite.OnDelete)
	}
	if composite.OnUpdate != nil {
		t.Errorf("on update = %v, want nil for NO ACTION", composite.OnUpdate)
	}

	single := fks[1]
	if len(single.Columns) != 1 || single.Columns[0] != "owner_id" {
		t.Errorf("unexpected single-column key: %v", single.Columns)
	}
}

func TestReferentialAction(t *testing.T) {
	cases := []struct {
		code string
		want string
	}{
		{code: "a", want: ""},
		{code: "r", want: "RESTRICT"},
		{code: "c", want: "CASCADE"},
		{code: "n", want: "SET NULL"},
		{code: "d", want: "SET DEFAULT"},
	}

	for _, tc := range cases {
		got := referentialAction(tc.code)
		if tc.want == "" {
			if got != nil {
				t.Errorf("referentialAction(%q) = %q, want nil", tc.code, *got)
			}
			continue
		}
		if got == nil || *got != tc.want {
			t.Errorf("referentialAction(%q) = %v, want %q", tc.code, got, tc.want)
		}
	}
}
