// Package query builds livestatus GET requests and models a single logical
// query against a set of monitor nodes.
//
// A livestatus request is a short block of newline-terminated text lines:
//
//	GET services
//	Columns: host_name state plugin_output
//	Filter: state != 0
//	ResponseHeader: fixed16
//
// Build assembles that text from its parts; Query wraps the parts together
// with client-side concerns that never appear on the wire (post-fetch field
// filters, the omit-monitor-column flag, type auto-detection).
//
// Filter lines come in two shapes. A plain expression is wrapped as a
// "Filter:" line. A line starting with one of the logical connective
// directives ("Or:", "And:", "Negate:") is emitted verbatim, because those
// combine the preceding Filter lines and must not themselves be wrapped.
//
// Queries are immutable after construction: accessors return copies, and the
// only state that may change later is the type-detection flag. Construction
// enforces the one protocol-level invariant the server cannot report cleanly:
// a stats query may name at most one explicit column.
package query
