package corrector

import (
	"log/slog"

	"github.com/schemacorrect/schemacorrect/database"
)

// orderMissingTables sorts tables so that every table appears after the
// tables it references. Only dependencies among the given tables count;
// references to tables that already exist in the target are ignored.
// When the dependency graph has a cycle the input order is returned and a
// warning is logged; inline or deferred constraints make cycles safe to
// create in any order.
func orderMissingTables(tables []database.Table, logger *slog.Logger) []database.Table {
	inSet := make(map[string]int, len(tables))
	for i, t := range tables {
		inSet[t.Name] = i
	}

	// Kahn's algorithm over the edge parent -> child.
	indegree := make(map[string]int, len(tables))
	dependents := make(map[string][]string, len(tables))
	for _, t := range tables {
		indegree[t.Name] += 0
		for _, fk := range t.ForeignKeys {
			if fk.ReferencedTable == t.Name {
				continue
			}
			if _, ok := inSet[fk.ReferencedTable]; !ok {
				continue
			}
			indegree[t.Name]++
			dependents[fk.ReferencedTable] = append(dependents[fk.ReferencedTable], t.Name)
		}
	}

	// Seed with zero-indegree tables in input order for deterministic output.
	var queue []string
	for _, t := range tables {
		if indegree[t.Name] == 0 {
			queue = append(queue, t.Name)
		}
	}

	var ordered []database.Table
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		ordered = append(ordered, tables[inSet[name]])

		for _, dep := range dependents[name] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(ordered) != len(tables) {
		if logger != nil {
			logger.Warn("circular foreign key dependency among missing tables; using input order",
				"tables", tableNames(tables))
		}
		return tables
	}

	return ordered
}

func tableNames(tables []database.Table) []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names
}
