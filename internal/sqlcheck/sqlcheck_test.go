package sqlcheck

import (
	"strings"
	"testing"

	"github.com/schemacorrect/schemacorrect/internal/corrector"
)

func TestCheckPlanValid(t *testing.T) {
	plan := &corrector.Plan{Operations: []corrector.Operation{
		{Kind: corrector.KindCreateTable, SQL: `CREATE TABLE "users" ("id" INTEGER NOT NULL PRIMARY KEY, "email" TEXT NOT NULL)`, Comment: "Create table users"},
		{Kind: corrector.KindCreateIndex, SQL: `CREATE INDEX "ix_users_email" ON "users" ("email")`, Comment: "Create index ix_users_email"},
		{Kind: corrector.KindAddForeignKey, SQL: `ALTER TABLE "orders" ADD CONSTRAINT "fk" FOREIGN KEY ("user_id") REFERENCES "users" ("id") NOT VALID`, Comment: "Add foreign key orders.fk"},
	}}

	if issues := CheckPlan(plan); len(issues) != 0 {
		t.Fatalf("valid DDL reported issues: %v", issues)
	}
}

func TestCheckPlanSkipsReports(t *testing.T) {
	plan := &corrector.Plan{Operations: []corrector.Operation{
		{Kind: corrector.KindReport, SQL: "-- no-op", Comment: "EXTRA: table exists only in target: notes"},
	}}

	if issues := CheckPlan(plan); len(issues) != 0 {
		t.Fatalf("report operations must not be parsed: %v", issues)
	}
}

func TestCheckPlanInvalid(t *testing.T) {
	plan := &corrector.Plan{Operations: []corrector.Operation{
		{Kind: corrector.KindCreateTable, SQL: `CREATE TABLE`, Comment: "Broken create"},
		{Kind: corrector.KindAddColumn, SQL: `ALTER TABLE "users" ADD COLUMN "age" INTEGER`, Comment: "Add column users.age"},
	}}

	issues := CheckPlan(plan)
	if len(issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(issues))
	}
	if issues[0].Comment != "Broken create" {
		t.Errorf("issue should name the broken operation: %s", issues[0].Comment)
	}
	if !strings.Contains(issues[0].String(), "Broken create") {
		t.Errorf("unexpected issue string: %s", issues[0].String())
	}
}
