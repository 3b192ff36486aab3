package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/dreamware/gander/internal/query"
	"github.com/dreamware/gander/internal/result"
)

func sampleResultSet(t *testing.T) *result.ResultSet {
	t.Helper()
	q, err := query.New("services", []string{"host", "state", "last_check"})
	if err != nil {
		t.Fatalf("Failed to build query: %v", err)
	}
	rs := result.New(q, result.WithColumnTypes(map[string]result.ColumnType{
		"host":       result.TypeString,
		"state":      result.TypeInt,
		"last_check": result.TypeTime,
	}))
	rs.Update("mon01", "web01;0;1418675988\nweb02;2;1418675987\n", "")
	rs.Update("mon02", "", "mon02 did not return any data")
	return rs
}

// TestExport tests table shape, row content, and the errors table
func TestExport(t *testing.T) {
	db, err := Export(sampleResultSet(t))
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	defer db.Close()

	t.Run("data rows land typed", func(t *testing.T) {
		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM "services"`).Scan(&count); err != nil {
			t.Fatalf("Count query failed: %v", err)
		}
		if count != 2 {
			t.Errorf("Expected 2 rows, got %d", count)
		}

		var monitor, host string
		var state int
		var lastCheck string
		row := db.QueryRow(`SELECT monitor, host, state, last_check FROM "services" WHERE host = 'web02'`)
		if err := row.Scan(&monitor, &host, &state, &lastCheck); err != nil {
			t.Fatalf("Row scan failed: %v", err)
		}
		if monitor != "mon01" || state != 2 {
			t.Errorf("Unexpected row: monitor=%q state=%d", monitor, state)
		}
		want := time.Unix(1418675987, 0).Format("2006-01-02 15:04:05")
		if lastCheck != want {
			t.Errorf("Expected rendered timestamp %q, got %q", want, lastCheck)
		}
	})

	t.Run("aggregates work over typed columns", func(t *testing.T) {
		var worst int
		if err := db.QueryRow(`SELECT MAX(state) FROM "services"`).Scan(&worst); err != nil {
			t.Fatalf("Aggregate query failed: %v", err)
		}
		if worst != 2 {
			t.Errorf("Expected MAX(state) = 2, got %d", worst)
		}
	})

	t.Run("failed nodes land in errors", func(t *testing.T) {
		var message string
		row := db.QueryRow(`SELECT message FROM errors WHERE monitor = 'mon02'`)
		if err := row.Scan(&message); err != nil {
			t.Fatalf("Errors query failed: %v", err)
		}
		if message != "mon02 did not return any data" {
			t.Errorf("Unexpected message %q", message)
		}
	})
}

// TestExportOmitsMonitorColumn tests the suppressed-identity layout
func TestExportOmitsMonitorColumn(t *testing.T) {
	q, err := query.New("hosts", []string{"name"}, query.WithoutMonitorColumn())
	if err != nil {
		t.Fatalf("Failed to build query: %v", err)
	}
	rs := result.New(q)
	rs.Update("mon01", "web01\n", "")

	db, err := Export(rs)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	defer db.Close()

	if _, err := db.Query(`SELECT monitor FROM "hosts"`); err == nil {
		t.Error("Expected monitor column to be absent")
	}
	var name string
	if err := db.QueryRow(`SELECT name FROM "hosts"`).Scan(&name); err != nil {
		t.Fatalf("Row scan failed: %v", err)
	}
	if name != "web01" {
		t.Errorf("Expected 'web01', got %q", name)
	}
}

// TestExec tests the one-shot statement convenience
func TestExec(t *testing.T) {
	var hosts []string
	err := Exec(sampleResultSet(t), `SELECT host FROM "services" WHERE state > 0`, func(rows *sql.Rows) error {
		for rows.Next() {
			var h string
			if err := rows.Scan(&h); err != nil {
				return err
			}
			hosts = append(hosts, h)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if len(hosts) != 1 || hosts[0] != "web02" {
		t.Errorf("Expected [web02], got %v", hosts)
	}
}

// TestExportNoColumns tests the degenerate export
func TestExportNoColumns(t *testing.T) {
	q, err := query.New("hosts", nil, query.WithoutMonitorColumn())
	if err != nil {
		t.Fatalf("Failed to build query: %v", err)
	}
	rs := result.New(q)

	if _, err := Export(rs); err == nil {
		t.Error("Expected error for a result set with no columns")
	}
}
