package sqlcheck

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/schemacorrect/schemacorrect/internal/corrector"
)

// Issue is one problem found in a generated statement.
type Issue struct {
	Comment string `json:"comment"`
	SQL     string `json:"sql"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Comment, i.Message)
}

// CheckPlan parses every executable statement of a Postgres plan with the
// PostgreSQL parser and returns the statements that fail to parse. A
// non-empty result means the generator produced broken DDL; callers treat
// it as a hard error before apply.
func CheckPlan(plan *corrector.Plan) []Issue {
	var issues []Issue
	for _, op := range plan.Operations {
		if !op.Executable() {
			continue
		}
		if _, err := pg_query.Parse(op.SQL); err != nil {
			issues = append(issues, Issue{
				Comment: op.Comment,
				SQL:     op.SQL,
				Message: err.Error(),
			})
		}
	}
	return issues
}
