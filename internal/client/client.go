package client

import (
	"fmt"
	"log/slog"

	"github.com/dreamware/gander/internal/logging"
	"github.com/dreamware/gander/internal/monitor"
	"github.com/dreamware/gander/internal/query"
	"github.com/dreamware/gander/internal/result"
)

// Client runs queries against a set of registered monitor nodes. It is
// reusable across queries; each Run produces a fresh result set.
//
// The monitor roster is instance-owned and ordered. Registration enforces
// uniqueness on (address, port) and on name, because both key results and
// errors downstream.
type Client struct {
	monitors   []monitor.Node
	parallel   bool
	workers    int
	timeFormat result.TimeFormat
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithParallel enables concurrent node queries with up to workers in
// flight; workers == 0 means one worker per registered monitor.
func WithParallel(workers int) Option {
	return func(c *Client) {
		c.parallel = true
		c.workers = workers
	}
}

// WithTimeFormat selects how result sets represent time columns.
func WithTimeFormat(tf result.TimeFormat) Option {
	return func(c *Client) { c.timeFormat = tf }
}

// New creates a Client. Without options it queries monitors serially.
func New(opts ...Option) *Client {
	c := &Client{
		logger: logging.New("client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddMonitors registers monitor nodes, in order. A node whose (address,
// port) pair or name collides with an already registered node is rejected
// and nothing from that call onward is added.
func (c *Client) AddMonitors(nodes ...monitor.Node) error {
	for _, n := range nodes {
		for _, existing := range c.monitors {
			if existing.Addr == n.Addr && existing.Port == n.Port {
				return fmt.Errorf("duplicate monitor %s: address %s already registered", n.Name, n.HostPort())
			}
			if existing.Name == n.Name {
				return fmt.Errorf("duplicate monitor name %q", n.Name)
			}
		}
		c.monitors = append(c.monitors, n)
	}
	return nil
}

// Monitors returns a copy of the registered roster.
func (c *Client) Monitors() []monitor.Node {
	return append([]monitor.Node(nil), c.monitors...)
}

// Run executes the query against every registered monitor and returns the
// aggregate result set.
//
// Run always returns a usable result set, even when every node failed;
// callers must consult its Errors() to detect partial or total failure.
// When the query requests type detection, a schema preflight against the
// "columns" table runs first (through this same scatter machinery) to seed
// the set's coercion table.
func (c *Client) Run(q *query.Query) *result.ResultSet {
	opts := []result.Option{result.WithTimeFormat(c.timeFormat)}
	if q.DetectTypes() {
		if types := c.columnTypes(q); len(types) > 0 {
			opts = append(opts, result.WithColumnTypes(types))
		}
	}
	rs := result.New(q, opts...)
	c.scatter(q.Text(), rs)
	return rs
}

// columnTypes is the type-detection preflight: one extra query against the
// node's own schema table, filtered to the target table and the requested
// column names, mapping each column to its declared type.
//
// The preflight query never requests detection itself, so it cannot
// recurse. Nodes that fail the preflight simply contribute nothing; a
// column with no surviving declaration falls back to string.
func (c *Client) columnTypes(q *query.Query) map[string]result.ColumnType {
	columns := q.Columns()
	if len(columns) == 0 {
		return nil
	}

	filters := []string{fmt.Sprintf("table = %s", q.Table())}
	for _, col := range columns {
		filters = append(filters, fmt.Sprintf("name = %s", col))
	}
	if len(columns) > 1 {
		filters = append(filters, fmt.Sprintf("Or: %d", len(columns)))
	}

	schemaQuery, err := query.New("columns", []string{"name", "type"}, query.WithFilters(filters...))
	if err != nil {
		// Unreachable: the schema query carries no stats expressions.
		c.logger.Debug("schema preflight construction failed", "error", err)
		return nil
	}

	rs := c.Run(schemaQuery)
	for node, msg := range rs.Errors() {
		c.logger.Debug("schema preflight failed on node", "node", node, "error", msg)
	}

	rows, err := rs.NamedRows()
	if err != nil {
		c.logger.Debug("schema preflight rows unreadable", "error", err)
		return nil
	}

	types := make(map[string]result.ColumnType)
	for _, col := range columns {
		for _, row := range rows {
			name, _ := row.Get("name")
			if name != col {
				continue
			}
			if typeName, ok := row.Get("type"); ok {
				if s, ok := typeName.(string); ok {
					types[col] = result.TypeFromName(s)
				}
			}
			break
		}
	}
	return types
}
