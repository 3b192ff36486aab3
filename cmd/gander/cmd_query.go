package main

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dreamware/gander/internal/client"
	"github.com/dreamware/gander/internal/config"
	"github.com/dreamware/gander/internal/logging"
	"github.com/dreamware/gander/internal/query"
	"github.com/dreamware/gander/internal/result"
	"github.com/dreamware/gander/internal/store"
)

var queryFlags struct {
	configPath  string
	columns     []string
	filters     []string
	stats       []string
	detectTypes bool
	noMonitor   bool
	timeStamps  bool
	sqlStmt     string
	logLevel    string
	logFormat   string
}

var queryCmd = &cobra.Command{
	Use:   "query <table>",
	Short: "Run one livestatus query against every configured monitor",
	Long: `Query sends a single livestatus GET request to every monitor listed in
the config file and prints the merged rows as JSON.

Usage:
  gander query hosts -c name -c state
  gander query services -c state --filter "state > 0" --detect-types
  gander query services --stats "sum execution_time" --stats "max latency"
  gander query services -c host_name --sql "SELECT host_name FROM services WHERE state > 0"

Nodes that fail to answer are reported on stderr; their absence never
disturbs rows gathered from the nodes that did answer.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	f := queryCmd.Flags()
	f.StringVarP(&queryFlags.configPath, "config", "f", "gander.yaml", "Path to the monitor roster config")
	f.StringArrayVarP(&queryFlags.columns, "column", "c", nil, "Column to request (repeatable)")
	f.StringArrayVar(&queryFlags.filters, "filter", nil, "Filter line, e.g. \"state > 0\" (repeatable)")
	f.StringArrayVar(&queryFlags.stats, "stats", nil, "Stats line, e.g. \"sum latency\" (repeatable)")
	f.BoolVar(&queryFlags.detectTypes, "detect-types", false, "Preflight the columns table and coerce fields to native types")
	f.BoolVar(&queryFlags.noMonitor, "no-monitor-column", false, "Omit the monitor name from each row")
	f.BoolVar(&queryFlags.timeStamps, "time-stamps", false, "Render time columns as epoch numbers instead of structured times")
	f.StringVar(&queryFlags.sqlStmt, "sql", "", "Run a SQL statement over the exported results instead of printing JSON")
	f.StringVar(&queryFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	f.StringVar(&queryFlags.logFormat, "log-format", "", "Log format: text or json (overrides config)")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(queryFlags.configPath)
	if err != nil {
		return err
	}

	level, format := cfg.Log.Level, cfg.Log.Format
	if queryFlags.logLevel != "" {
		level = queryFlags.logLevel
	}
	if queryFlags.logFormat != "" {
		format = queryFlags.logFormat
	}
	logging.Init(level, format, nil)

	var clientOpts []client.Option
	if cfg.Parallel {
		clientOpts = append(clientOpts, client.WithParallel(cfg.Workers))
	}
	if queryFlags.timeStamps {
		clientOpts = append(clientOpts, client.WithTimeFormat(result.TimeStamp))
	}
	c := client.New(clientOpts...)
	if err := c.AddMonitors(cfg.Nodes()...); err != nil {
		return err
	}

	var queryOpts []query.Option
	if len(queryFlags.filters) > 0 {
		queryOpts = append(queryOpts, query.WithFilters(queryFlags.filters...))
	}
	if len(queryFlags.stats) > 0 {
		queryOpts = append(queryOpts, query.WithStats(queryFlags.stats...))
	}
	if queryFlags.noMonitor {
		queryOpts = append(queryOpts, query.WithoutMonitorColumn())
	}
	if queryFlags.detectTypes {
		queryOpts = append(queryOpts, query.WithTypeDetection())
	}
	q, err := query.New(args[0], queryFlags.columns, queryOpts...)
	if err != nil {
		return err
	}

	rs := c.Run(q)
	for node, msg := range rs.Errors() {
		fmt.Fprintf(os.Stderr, "%s: %s\n", node, msg)
	}

	if queryFlags.sqlStmt != "" {
		return printSQL(rs, queryFlags.sqlStmt)
	}

	out, err := rs.JSON()
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// printSQL runs one statement over the exported result set and prints each
// row as tab-separated text.
func printSQL(rs *result.ResultSet, stmt string) error {
	return store.Exec(rs, stmt, func(rows *sql.Rows) error {
		cols, err := rows.Columns()
		if err != nil {
			return err
		}
		for rows.Next() {
			values := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return err
			}
			fields := make([]string, len(cols))
			for i, v := range values {
				fields[i] = fmt.Sprint(v)
			}
			fmt.Println(strings.Join(fields, "\t"))
		}
		return nil
	})
}
