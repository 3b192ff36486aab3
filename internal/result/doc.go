// Package result aggregates per-node query payloads into typed, uniformly
// shaped rows.
//
// A ResultSet owns the mutable node→outcome map for one logical query. It is
// populated incrementally through Update as node attempts complete (always
// by the single goroutine draining the orchestrator's return channel, never
// concurrently by workers) and read afterwards through projections:
//
//	Lists      rows as ordered value slices
//	Dicts      rows as column-keyed maps
//	NamedRows  rows with ordered name/value pairs and by-name lookup
//	JSON       the dicts projection, serialized
//	Errors     node name → error message for every failed node
//
// Row derivation is the same for every projection: trim the body, split into
// lines, split each line on semicolons, resolve column names (explicit list,
// stats-synthesized names, or a consumed header line), pass every field
// through the query's post filters, then coerce per the column's declared
// type. Coercion is resolved once per column, not per field.
//
// Two result sets may be merged only when their queries render to identical
// request text; the merge is a shallow union where the later set wins per
// node key.
package result
