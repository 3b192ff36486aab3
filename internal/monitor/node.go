package monitor

import (
	"io"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// connectTimeout bounds the TCP handshake. This is a hard cap, not
	// configurable per call; everything after the handshake is unbounded.
	connectTimeout = 3 * time.Second

	// headerSize is the fixed16 response header width in bytes.
	headerSize = 16

	// recvChunkSize bounds each body read.
	recvChunkSize = 4096
)

// headerPattern matches a well-formed fixed16 header: a status code, the
// declared body length, space padding, and a terminating newline.
var headerPattern = regexp.MustCompile(`^\d+\s*\d+\s*\n$`)

// Node identifies one livestatus endpoint. Identity for deduplication and
// error keying is (Addr, Port) or Name; Name defaults to Addr.
//
// Nodes are immutable value types: create them with New and copy them
// freely.
type Node struct {
	Addr string // Host or IP the monitor listens on
	Port int    // TCP port of the livestatus socket
	Name string // Display name, used to key results and errors
}

// New creates a Node for the given endpoint. An empty name defaults to the
// address, matching how operators usually refer to a monitor.
func New(addr string, port int, name string) Node {
	if name == "" {
		name = addr
	}
	return Node{Addr: addr, Port: port, Name: name}
}

// HostPort returns the dialable "host:port" form of the endpoint.
func (n Node) HostPort() string {
	return net.JoinHostPort(n.Addr, strconv.Itoa(n.Port))
}

// RunQuery performs one request/response exchange against the node.
//
// The request text is written as-is (see the query package for the grammar),
// the write side is half-closed, and the fixed16 response header is read and
// validated before the body is read to exactly its declared length.
//
// Returns the raw body text, the header status code, and the declared body
// length. On failure the error is always a *NodeError:
//
//   - ErrConnect when the handshake or the request write fails
//   - ErrHeader when fewer than 16 header bytes arrive or they do not
//     match the fixed16 pattern
//   - ErrTruncated when the peer closes before the declared length arrives
//
// RunQuery never retries; the caller decides whether a failed or empty
// result is acceptable.
func (n Node) RunQuery(request string) (string, int, int, error) {
	conn, err := net.DialTimeout("tcp", n.HostPort(), connectTimeout)
	if err != nil {
		return "", 0, 0, newConnectError(n)
	}
	defer conn.Close()

	if _, err := io.WriteString(conn, request); err != nil {
		return "", 0, 0, newConnectError(n)
	}
	// Half-close the write side so the peer sees end-of-request.
	if tc, ok := conn.(*net.TCPConn); ok {
		if err := tc.CloseWrite(); err != nil {
			return "", 0, 0, newConnectError(n)
		}
	}

	status, length, err := n.readHeader(conn)
	if err != nil {
		return "", 0, 0, err
	}

	body, err := n.readBody(conn, length)
	if err != nil {
		return "", 0, 0, err
	}
	return body, status, length, nil
}

// readHeader reads and parses the fixed16 response header. It blocks until
// all 16 bytes arrive or the peer closes the connection.
func (n Node) readHeader(conn net.Conn) (status, length int, err error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(conn, buf); err != nil {
		return 0, 0, newHeaderError(n)
	}
	header := string(buf)
	if !headerPattern.MatchString(header) {
		return 0, 0, newHeaderError(n)
	}

	fields := strings.Fields(header)
	if len(fields) != 2 {
		return 0, 0, newHeaderError(n)
	}
	status, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, newHeaderError(n)
	}
	length, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, newHeaderError(n)
	}
	return status, length, nil
}

// readBody reads exactly length bytes in bounded chunks. A short read plus
// peer close before the total is reached is the truncated-body failure.
func (n Node) readBody(conn net.Conn, length int) (string, error) {
	var body strings.Builder
	body.Grow(length)

	buf := make([]byte, recvChunkSize)
	remaining := length
	for remaining > 0 {
		chunk := recvChunkSize
		if remaining < chunk {
			chunk = remaining
		}
		nr, err := conn.Read(buf[:chunk])
		body.Write(buf[:nr])
		remaining -= nr
		if err != nil && remaining > 0 {
			return "", newTruncatedError(n)
		}
	}
	return body.String(), nil
}
