package result

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/dreamware/gander/internal/query"
)

// nodeResult is one node's stored outcome. Exactly one of data or errMsg is
// meaningful once an attempt has completed.
type nodeResult struct {
	data    string
	hasData bool
	errMsg  string
}

// ResultSet aggregates the per-node outcomes of one logical query.
//
// The set is mutated only through Update and Merge, and only ever by the
// single goroutine that drains the orchestrator's return channel, so no
// locking is needed. Per-node overwrite semantics make the final state
// independent of completion order.
type ResultSet struct {
	query      *query.Query
	results    map[string]nodeResult
	colTypes   map[string]ColumnType
	timeFormat TimeFormat
}

// Option configures a ResultSet at construction time.
type Option func(*ResultSet)

// WithColumnTypes seeds the column→type mapping used for field coercion,
// typically from the client's schema preflight.
func WithColumnTypes(types map[string]ColumnType) Option {
	return func(rs *ResultSet) {
		rs.colTypes = make(map[string]ColumnType, len(types))
		for k, v := range types {
			rs.colTypes[k] = v
		}
	}
}

// WithTimeFormat selects structured timestamps (default) or raw epoch
// numbers for time columns.
func WithTimeFormat(tf TimeFormat) Option {
	return func(rs *ResultSet) { rs.timeFormat = tf }
}

// New creates an empty ResultSet for the given query.
func New(q *query.Query, opts ...Option) *ResultSet {
	rs := &ResultSet{
		query:   q,
		results: make(map[string]nodeResult),
	}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

// Query returns the originating query.
func (rs *ResultSet) Query() *query.Query { return rs.query }

// TimeFormat returns the time representation mode.
func (rs *ResultSet) TimeFormat() TimeFormat { return rs.timeFormat }

// ColumnTypes returns a copy of the column→type mapping.
func (rs *ResultSet) ColumnTypes() map[string]ColumnType {
	out := make(map[string]ColumnType, len(rs.colTypes))
	for k, v := range rs.colTypes {
		out[k] = v
	}
	return out
}

// Update stores one node's outcome, overwriting any previous entry for the
// same node key. Pass errMsg == "" for a successful attempt; a non-empty
// errMsg marks the attempt failed and the data argument is ignored.
func (rs *ResultSet) Update(node, data, errMsg string) {
	if errMsg != "" {
		rs.results[node] = nodeResult{errMsg: errMsg}
		return
	}
	rs.results[node] = nodeResult{data: data, hasData: true}
}

// Errors returns node name → error message for every node whose stored
// attempt failed.
func (rs *ResultSet) Errors() map[string]string {
	errs := make(map[string]string)
	for name, nr := range rs.results {
		if nr.errMsg != "" {
			errs[name] = nr.errMsg
		}
	}
	return errs
}

// Merge folds another ResultSet into this one. Both sets must originate
// from queries that render to identical request text; otherwise nothing is
// merged and an error is returned. On key collision the other set wins.
func (rs *ResultSet) Merge(other *ResultSet) error {
	if rs.query.Text() != other.query.Text() {
		return fmt.Errorf("result set queries do not match")
	}
	for name, nr := range other.results {
		rs.results[name] = nr
	}
	return nil
}

// Len returns the number of data rows across all nodes.
func (rs *ResultSet) Len() int {
	rows, err := rs.parse(false)
	if err != nil {
		return 0
	}
	return len(rows)
}

// Columns returns the effective column names for this result set: the
// query's explicit columns, the stats-synthesized names, or, when neither
// exists, the header line of the first node that returned data.
func (rs *ResultSet) Columns() []string {
	if cols, ok := rs.declaredColumns(); ok {
		return cols
	}
	for _, name := range rs.nodeNames() {
		nr := rs.results[name]
		if !nr.hasData {
			continue
		}
		lines := bodyLines(nr.data)
		if len(lines) > 0 {
			return strings.Split(lines[0], ";")
		}
	}
	return nil
}

// Lists returns rows as ordered value slices, node identity prepended
// unless the query suppresses it.
func (rs *ResultSet) Lists() ([][]any, error) {
	return rs.lists(false)
}

// FlattenedLists is Lists with compound values rendered as single scalars:
// list columns stay raw text and structured timestamps become sortable
// strings. Used by consumers that need one value per cell, such as the
// SQLite export.
func (rs *ResultSet) FlattenedLists() ([][]any, error) {
	return rs.lists(true)
}

func (rs *ResultSet) lists(flatten bool) ([][]any, error) {
	parsed, err := rs.parse(flatten)
	if err != nil {
		return nil, err
	}
	omit := rs.query.OmitMonitorColumn()
	out := make([][]any, 0, len(parsed))
	for _, row := range parsed {
		var vals []any
		if !omit {
			vals = append(vals, any(row.monitor))
		}
		vals = append(vals, row.values...)
		out = append(out, vals)
	}
	return out, nil
}

// Dicts returns rows as column-keyed maps, with a "monitor" entry carrying
// the node identity unless the query suppresses it.
func (rs *ResultSet) Dicts() ([]map[string]any, error) {
	parsed, err := rs.parse(false)
	if err != nil {
		return nil, err
	}
	omit := rs.query.OmitMonitorColumn()
	out := make([]map[string]any, 0, len(parsed))
	for _, row := range parsed {
		d := make(map[string]any, len(row.columns)+1)
		for i, c := range row.columns {
			d[c] = row.values[i]
		}
		if !omit {
			d["monitor"] = row.monitor
		}
		out = append(out, d)
	}
	return out, nil
}

// Row is one result row with ordered, named fields.
type Row struct {
	names  []string
	values []any
}

// Names returns the field names in row order.
func (r Row) Names() []string { return append([]string(nil), r.names...) }

// Values returns the field values in row order.
func (r Row) Values() []any { return append([]any(nil), r.values...) }

// Get returns the value of the named field.
func (r Row) Get(name string) (any, bool) {
	for i, n := range r.names {
		if n == name {
			return r.values[i], true
		}
	}
	return nil, false
}

// NamedRows returns rows with ordered name/value pairs and by-name lookup,
// the node identity leading as a "monitor" field unless suppressed.
func (rs *ResultSet) NamedRows() ([]Row, error) {
	parsed, err := rs.parse(false)
	if err != nil {
		return nil, err
	}
	omit := rs.query.OmitMonitorColumn()
	out := make([]Row, 0, len(parsed))
	for _, row := range parsed {
		var r Row
		if !omit {
			r.names = append(r.names, "monitor")
			r.values = append(r.values, row.monitor)
		}
		r.names = append(r.names, row.columns...)
		r.values = append(r.values, row.values...)
		out = append(out, r)
	}
	return out, nil
}

// JSON serializes the dicts projection.
func (rs *ResultSet) JSON() (string, error) {
	dicts, err := rs.Dicts()
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(dicts)
	if err != nil {
		return "", fmt.Errorf("marshal result rows: %w", err)
	}
	return string(b), nil
}

// parsedRow is the projection-independent derivation of one body line.
type parsedRow struct {
	monitor string
	columns []string
	values  []any
}

// parse derives typed rows from every node with a present body: trim, split
// lines, resolve column names, split fields, apply post filters, coerce.
// Nodes are visited in name order so output is deterministic.
func (rs *ResultSet) parse(flatten bool) ([]parsedRow, error) {
	post := rs.query.PostFilters()
	var out []parsedRow

	for _, name := range rs.nodeNames() {
		nr := rs.results[name]
		if !nr.hasData {
			continue
		}
		lines := bodyLines(nr.data)
		if len(lines) == 0 {
			continue
		}

		columns, resolved := rs.declaredColumns()
		if !resolved {
			// No explicit columns and no stats: the first response line
			// carries the column names.
			columns = strings.Split(lines[0], ";")
			lines = lines[1:]
		}

		// Resolve each column's coercion once, not per field.
		convs := make([]converter, len(columns))
		for i, c := range columns {
			convs[i] = converterFor(rs.colTypes[c], rs.timeFormat, flatten)
		}

		for _, line := range lines {
			fields := strings.Split(line, ";")
			for _, f := range post {
				for i := range fields {
					fields[i] = f(fields[i])
				}
			}

			n := min(len(fields), len(columns))
			values := make([]any, n)
			for i := 0; i < n; i++ {
				v, err := convs[i](fields[i])
				if err != nil {
					return nil, fmt.Errorf("node %s, column %s: %w", name, columns[i], err)
				}
				values[i] = v
			}
			out = append(out, parsedRow{monitor: name, columns: columns[:n], values: values})
		}
	}
	return out, nil
}

// declaredColumns resolves column names that do not depend on response
// bodies. The second return reports whether resolution succeeded: false
// means the caller must consume a header line instead.
func (rs *ResultSet) declaredColumns() ([]string, bool) {
	explicit := rs.query.Columns()
	if stats := rs.query.Stats(); len(stats) > 0 {
		// A stats response row carries the group column (at most one, by
		// construction) followed by one value per stats expression.
		return append(explicit, stats...), true
	}
	if len(explicit) > 0 {
		return explicit, true
	}
	return nil, false
}

// nodeNames returns the stored node keys in sorted order.
func (rs *ResultSet) nodeNames() []string {
	names := make([]string, 0, len(rs.results))
	for name := range rs.results {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// bodyLines trims a raw body and splits it into data lines.
func bodyLines(data string) []string {
	data = strings.Trim(data, "\n ")
	if data == "" {
		return nil
	}
	return strings.Split(data, "\n")
}
