package database

import "strings"

// maxConstraintNameLen keeps synthesized names under the identifier length
// limits of all supported dialects (Postgres truncates at 63 bytes).
const maxConstraintNameLen = 60

// SynthesizeFKName builds a deterministic constraint name for a foreign
// key that was introspected without one.
func SynthesizeFKName(tableName string, fk ForeignKey) string {
	cols := strings.Join(fk.Columns, "_")
	ref := fk.ReferencedTable
	if ref == "" {
		ref = "ref"
	}
	name := "fk_" + tableName + "_" + cols + "_" + ref
	if len(name) > maxConstraintNameLen {
		name = name[:maxConstraintNameLen]
	}
	return name
}
