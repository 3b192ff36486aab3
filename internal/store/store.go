// Package store dumps result sets into an in-memory SQLite database so
// callers can query aggregated monitoring data with plain SQL.
//
// The export creates one table named after the query's table, with a
// "monitor" text column (unless the query suppresses node identity) and one
// column per result column typed from the set's coercion table, plus an
// errors(monitor, message) table holding every failed node.
package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/dreamware/gander/internal/result"
)

// Export builds an in-memory SQLite database from the result set. Rows come
// from the flattened lists projection so every cell is a single scalar.
// The caller owns the returned handle and must Close it.
func Export(rs *result.ResultSet) (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := create(db, rs); err != nil {
		db.Close()
		return nil, err
	}
	if err := fill(db, rs); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Exec exports the result set, runs one statement against it, and hands the
// rows to fn. Every database resource is released before Exec returns.
func Exec(rs *result.ResultSet, stmt string, fn func(*sql.Rows) error) error {
	db, err := Export(rs)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Query(stmt)
	if err != nil {
		return fmt.Errorf("query exported results: %w", err)
	}
	defer rows.Close()

	if err := fn(rows); err != nil {
		return err
	}
	return rows.Err()
}

func create(db *sql.DB, rs *result.ResultSet) error {
	var defs []string
	if !rs.Query().OmitMonitorColumn() {
		defs = append(defs, `"monitor" TEXT`)
	}
	types := rs.ColumnTypes()
	for _, col := range rs.Columns() {
		defs = append(defs, fmt.Sprintf("%q %s", col, sqliteType(types[col], rs.TimeFormat())))
	}
	if len(defs) == 0 {
		return fmt.Errorf("result set has no columns to export")
	}

	createData := fmt.Sprintf("CREATE TABLE %q (%s)", rs.Query().Table(), strings.Join(defs, ", "))
	if _, err := db.Exec(createData); err != nil {
		return fmt.Errorf("create data table: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE errors ("monitor" TEXT, "message" TEXT)`); err != nil {
		return fmt.Errorf("create errors table: %w", err)
	}
	return nil
}

func fill(db *sql.DB, rs *result.ResultSet) error {
	rows, err := rs.FlattenedLists()
	if err != nil {
		return fmt.Errorf("project rows: %w", err)
	}

	for _, row := range rows {
		params := strings.TrimSuffix(strings.Repeat("?,", len(row)), ",")
		insert := fmt.Sprintf("INSERT INTO %q VALUES (%s)", rs.Query().Table(), params)
		if _, err := db.Exec(insert, row...); err != nil {
			return fmt.Errorf("insert row: %w", err)
		}
	}

	for node, message := range rs.Errors() {
		if _, err := db.Exec("INSERT INTO errors VALUES (?, ?)", node, message); err != nil {
			return fmt.Errorf("insert error row: %w", err)
		}
	}
	return nil
}

// sqliteType maps a column's declared livestatus type to a SQLite column
// type under flatten-mode rendering.
func sqliteType(t result.ColumnType, tf result.TimeFormat) string {
	switch t {
	case result.TypeInt:
		return "INTEGER"
	case result.TypeFloat:
		return "REAL"
	case result.TypeTime:
		if tf == result.TimeStamp {
			return "REAL"
		}
		return "TEXT" // sortable rendered timestamp
	default:
		// string and list both flatten to raw text
		return "TEXT"
	}
}
