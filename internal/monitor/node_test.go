package monitor

import (
	"net"
	"strings"
	"testing"

	"github.com/dreamware/gander/internal/testserver"
)

const sampleQuery = "GET services\n" +
	"Columns: col1 col2 col3 col4\n" +
	"Filter: state != 0\n" +
	"ResponseHeader: fixed16\n"

const sampleBody = "string1;1;1418675988;1,2,3\nstring2;2;1418675987;a,b,c\n"

// startNode starts a test server and returns a Node pointed at it.
func startNode(t *testing.T, respond testserver.RespondFunc) (*testserver.Server, Node) {
	t.Helper()
	srv, err := testserver.Start(respond)
	if err != nil {
		t.Fatalf("Failed to start test server: %v", err)
	}
	t.Cleanup(srv.Close)
	return srv, New(srv.Host(), srv.Port(), "")
}

// freePort returns a TCP port that was just released, so connecting to it
// is refused.
func freePort(t *testing.T) (string, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to reserve port: %v", err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()
	return "127.0.0.1", addr.Port
}

// TestNew tests node construction defaults
func TestNew(t *testing.T) {
	t.Run("name defaults to address", func(t *testing.T) {
		n := New("1.2.3.4", 6557, "")
		if n.Name != "1.2.3.4" {
			t.Errorf("Expected name '1.2.3.4', got %q", n.Name)
		}
	})

	t.Run("explicit name is kept", func(t *testing.T) {
		n := New("1.2.3.4", 6557, "mon01")
		if n.Name != "mon01" {
			t.Errorf("Expected name 'mon01', got %q", n.Name)
		}
	})

	t.Run("host port form", func(t *testing.T) {
		n := New("1.2.3.4", 6557, "")
		if n.HostPort() != "1.2.3.4:6557" {
			t.Errorf("Expected '1.2.3.4:6557', got %q", n.HostPort())
		}
	})
}

// TestRunQuery tests the happy path exchange against a well-behaved peer
func TestRunQuery(t *testing.T) {
	srv, node := startNode(t, testserver.OK(sampleBody))

	data, status, length, err := node.RunQuery(sampleQuery)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Did we send the right data?
	if got := srv.LastRequest(); got != sampleQuery {
		t.Errorf("Server received %q, want %q", got, sampleQuery)
	}

	// Did we get the right data back?
	if data != sampleBody {
		t.Errorf("Expected body %q, got %q", sampleBody, data)
	}
	if status != 200 {
		t.Errorf("Expected status 200, got %d", status)
	}
	if length != len(sampleBody) {
		t.Errorf("Expected declared length %d, got %d", len(sampleBody), length)
	}
}

// TestRunQueryEmptyBody tests that a 200 header with zero length succeeds at
// the protocol level; empty-body classification belongs to the caller
func TestRunQueryEmptyBody(t *testing.T) {
	_, node := startNode(t, testserver.OK(""))

	data, status, length, err := node.RunQuery(sampleQuery)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if data != "" || status != 200 || length != 0 {
		t.Errorf("Expected empty 200 response, got data=%q status=%d length=%d", data, status, length)
	}
}

// TestRunQueryFailures tests error classification per failure mode
func TestRunQueryFailures(t *testing.T) {
	t.Run("connection refused", func(t *testing.T) {
		host, port := freePort(t)
		node := New(host, port, "")

		_, _, _, err := node.RunQuery(sampleQuery)
		if !IsKind(err, ErrConnect) {
			t.Fatalf("Expected connect error, got %v", err)
		}
		if !strings.Contains(err.Error(), "could not connect to") {
			t.Errorf("Unexpected message %q", err.Error())
		}
	})

	t.Run("peer closes without answering", func(t *testing.T) {
		_, node := startNode(t, testserver.Mute())

		_, _, _, err := node.RunQuery(sampleQuery)
		if !IsKind(err, ErrHeader) {
			t.Fatalf("Expected header error, got %v", err)
		}
		if !strings.Contains(err.Error(), "did not return a proper response header") {
			t.Errorf("Unexpected message %q", err.Error())
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		_, node := startNode(t, testserver.BadHeader())

		_, _, _, err := node.RunQuery(sampleQuery)
		if !IsKind(err, ErrHeader) {
			t.Fatalf("Expected header error, got %v", err)
		}
	})

	t.Run("truncated body", func(t *testing.T) {
		_, node := startNode(t, testserver.Truncated(sampleBody, 10))

		_, _, _, err := node.RunQuery(sampleQuery)
		if !IsKind(err, ErrTruncated) {
			t.Fatalf("Expected truncated error, got %v", err)
		}
		if !strings.Contains(err.Error(), "lost connection with") {
			t.Errorf("Unexpected message %q", err.Error())
		}
	})
}

// TestRunQueryNonDefaultStatus tests that status codes pass through; the
// protocol client does not judge them
func TestRunQueryNonDefaultStatus(t *testing.T) {
	body := "invalid request\n"
	_, node := startNode(t, testserver.Status(452, body))

	data, status, _, err := node.RunQuery(sampleQuery)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if status != 452 {
		t.Errorf("Expected status 452, got %d", status)
	}
	if data != body {
		t.Errorf("Expected body %q, got %q", body, data)
	}
}

// TestHeaderPattern tests fixed16 validation against padded variants
func TestHeaderPattern(t *testing.T) {
	tests := []struct {
		name   string
		header string
		valid  bool
	}{
		{"standard padding", testserver.Header(200, 17), true},
		{"large length", testserver.Header(200, 123456789), true},
		{"no digits", "abcdefghijklmno\n", false},
		{"missing newline", "200 17         x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.header) != headerSize {
				t.Fatalf("Test header must be %d bytes, got %d", headerSize, len(tt.header))
			}
			if got := headerPattern.MatchString(tt.header); got != tt.valid {
				t.Errorf("Match(%q) = %v, want %v", tt.header, got, tt.valid)
			}
		})
	}
}

// TestIsKind tests the error kind predicate
func TestIsKind(t *testing.T) {
	n := New("1.2.3.4", 6557, "mon01")
	err := NewEmptyResultError(n)

	if !IsKind(err, ErrEmpty) {
		t.Error("Expected ErrEmpty kind")
	}
	if IsKind(err, ErrStatus) {
		t.Error("Did not expect ErrStatus kind")
	}
	if IsKind(nil, ErrEmpty) {
		t.Error("nil error has no kind")
	}
	if err.Error() != "mon01 did not return any data" {
		t.Errorf("Unexpected message %q", err.Error())
	}
}
