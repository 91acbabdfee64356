package corrector

// Kind classifies a plan operation.
type Kind string

const (
	KindCreateTable   Kind = "create_table"
	KindAddColumn     Kind = "add_column"
	KindCreateIndex   Kind = "create_index"
	KindAddForeignKey Kind = "add_foreign_key"

	// KindReport marks a divergence that is surfaced but never executed:
	// extra objects in the target, type or nullability mismatches, and
	// constraints the dialect cannot add in place.
	KindReport Kind = "report"
)

// noOpSQL is the SQL carried by report operations.
const noOpSQL = "-- no-op"

// Operation is one step of a correction plan. Report operations carry
// noOpSQL and are skipped by the executor.
type Operation struct {
	Kind    Kind   `json:"kind"`
	SQL     string `json:"sql"`
	Comment string `json:"comment"`
}

// Plan is an ordered list of operations that makes the target schema a
// superset of the source schema. Order matters: parents before children,
// tables before their indexes and foreign keys.
type Plan struct {
	Operations []Operation `json:"operations"`
}

// Executable reports whether op carries SQL that should be run.
func (op Operation) Executable() bool {
	return op.Kind != KindReport
}

// report builds a report operation with the given comment.
func report(comment string) Operation {
	return Operation{Kind: KindReport, SQL: noOpSQL, Comment: comment}
}

// Reports returns only the report operations of the plan.
func (p *Plan) Reports() []Operation {
	var out []Operation
	for _, op := range p.Operations {
		if op.Kind == KindReport {
			out = append(out, op)
		}
	}
	return out
}

// Executables returns only the operations that carry runnable SQL.
func (p *Plan) Executables() []Operation {
	var out []Operation
	for _, op := range p.Operations {
		if op.Executable() {
			out = append(out, op)
		}
	}
	return out
}
