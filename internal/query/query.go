package query

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStatsColumns is returned by New when a query combines stats expressions
// with more than one explicit column. The livestatus protocol computes stats
// per group, and grouping supports at most a single column.
var ErrStatsColumns = errors.New("a stats query cannot request more than one column")

// directives are the filter-line prefixes that must be emitted verbatim
// rather than wrapped as "Filter:" lines.
var directives = []string{"Or:", "And:", "Negate:"}

// PostFilter transforms one scalar field after protocol parsing and before
// type coercion. Filters are applied to every field of every row, in the
// order they were declared on the query.
type PostFilter func(string) string

// Query describes one logical request: what to ask every monitor node, and
// how to treat the fields that come back.
//
// A Query is immutable once constructed. Accessors return copies of slice
// state so callers cannot mutate a query that is shared with in-flight work.
// The single exception is the type-detection flag, which may be enabled after
// construction via EnableTypeDetection.
type Query struct {
	table       string
	columns     []string
	filters     []string
	postFilters []PostFilter
	stats       []string
	omitMonitor bool
	detectTypes bool
}

// Option configures optional query behavior at construction time.
type Option func(*Query)

// WithFilters adds server-side filter expressions, in order. Expressions
// starting with a logical directive ("Or:", "And:", "Negate:") are sent
// verbatim; all others are wrapped as "Filter:" lines.
func WithFilters(filters ...string) Option {
	return func(q *Query) { q.filters = append(q.filters, filters...) }
}

// WithPostFilters adds client-side transforms applied to every scalar field
// after retrieval, in declaration order.
func WithPostFilters(filters ...PostFilter) Option {
	return func(q *Query) { q.postFilters = append(q.postFilters, filters...) }
}

// WithStats adds stats expressions, each emitted as its own "Stats:" line.
func WithStats(stats ...string) Option {
	return func(q *Query) { q.stats = append(q.stats, stats...) }
}

// WithoutMonitorColumn suppresses the node-identity column that projections
// otherwise prepend to every row.
func WithoutMonitorColumn() Option {
	return func(q *Query) { q.omitMonitor = true }
}

// WithTypeDetection asks the client to run a schema preflight before the
// query so result fields can be coerced to their declared types.
func WithTypeDetection() Option {
	return func(q *Query) { q.detectTypes = true }
}

// New constructs a validated Query for the given table and column list.
//
// Returns ErrStatsColumns when the options request stats expressions together
// with more than one explicit column; this is the only synchronous validation
// failure in the whole query path, and it fires here rather than per node.
func New(table string, columns []string, opts ...Option) (*Query, error) {
	q := &Query{
		table:   table,
		columns: append([]string(nil), columns...),
	}
	for _, opt := range opts {
		opt(q)
	}
	if len(q.stats) > 0 && len(q.columns) > 1 {
		return nil, ErrStatsColumns
	}
	return q, nil
}

// Table returns the livestatus table this query targets.
func (q *Query) Table() string { return q.table }

// Columns returns a copy of the explicit column list; empty when the query
// relies on stats-synthesized names or a response header line.
func (q *Query) Columns() []string { return append([]string(nil), q.columns...) }

// Filters returns a copy of the server-side filter expressions.
func (q *Query) Filters() []string { return append([]string(nil), q.filters...) }

// PostFilters returns the post-fetch field transforms in declaration order.
func (q *Query) PostFilters() []PostFilter { return append([]PostFilter(nil), q.postFilters...) }

// Stats returns a copy of the stats expressions.
func (q *Query) Stats() []string { return append([]string(nil), q.stats...) }

// OmitMonitorColumn reports whether projections should leave the node
// identity out of result rows.
func (q *Query) OmitMonitorColumn() bool { return q.omitMonitor }

// DetectTypes reports whether the client should run the schema preflight.
func (q *Query) DetectTypes() bool { return q.detectTypes }

// EnableTypeDetection turns on the schema preflight for this query. It is the
// only mutation permitted after construction.
func (q *Query) EnableTypeDetection() { q.detectTypes = true }

// Text renders the query as wire-ready request text.
func (q *Query) Text() string {
	return Build(q.table, q.columns, q.filters, q.stats)
}

// Build assembles livestatus GET request text from its parts. It is
// deterministic and side-effect-free; Query.Text is a thin wrapper over it.
//
// The emitted grammar is:
//
//	GET <table>\n
//	Columns: <col1> <col2> ...\n     (omitted when columns is empty)
//	Filter: <expr>\n | <expr>\n      (directive lines verbatim)
//	Stats: <expr>\n                  (one line per expression)
//	ResponseHeader: fixed16\n
func Build(table string, columns, filters, stats []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "GET %s\n", table)
	if len(columns) > 0 {
		fmt.Fprintf(&b, "Columns: %s\n", strings.Join(columns, " "))
	}
	for _, f := range filters {
		if isDirective(f) {
			b.WriteString(f)
			b.WriteByte('\n')
		} else {
			fmt.Fprintf(&b, "Filter: %s\n", f)
		}
	}
	for _, s := range stats {
		fmt.Fprintf(&b, "Stats: %s\n", s)
	}
	b.WriteString("ResponseHeader: fixed16\n")
	return b.String()
}

// isDirective reports whether a filter expression is a logical connective
// that must be emitted without the "Filter:" wrapper.
func isDirective(f string) bool {
	for _, d := range directives {
		if strings.HasPrefix(f, d) {
			return true
		}
	}
	return false
}
