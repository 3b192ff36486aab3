// Package testserver provides a synthetic livestatus endpoint for tests.
//
// A Server accepts one connection per exchange, reads the request until the
// client half-closes its write side, hands the request text to a pluggable
// respond function, writes whatever bytes that function returns, and closes
// the connection. Returning nil bytes models a peer that hangs up without
// answering.
//
// The package deliberately knows nothing about the testing package so it can
// be shared across test suites without leaking testing into non-test code.
package testserver

import (
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
)

// RespondFunc produces the full wire response (header and body) for one
// received request. Return nil to close the connection without answering.
type RespondFunc func(request string) []byte

// Server is a fake livestatus endpoint bound to an ephemeral localhost port.
type Server struct {
	ln      net.Listener
	respond RespondFunc

	mu       sync.Mutex
	requests []string

	wg sync.WaitGroup
}

// Start binds a server to 127.0.0.1 on an ephemeral port and begins
// accepting connections. Call Close when done.
func Start(respond RespondFunc) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("testserver listen: %w", err)
	}
	s := &Server{ln: ln, respond: respond}
	s.wg.Add(1)
	go s.serve()
	return s, nil
}

// Addr returns the dialable "host:port" address of the server.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Host returns the bound host (always 127.0.0.1).
func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.Addr())
	return host
}

// Port returns the bound TCP port.
func (s *Server) Port() int {
	addr := s.ln.Addr().(*net.TCPAddr)
	return addr.Port
}

// Requests returns a copy of all request texts received so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// LastRequest returns the most recently received request text, or "".
func (s *Server) LastRequest() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return ""
	}
	return s.requests[len(s.requests)-1]
}

// Close stops accepting connections and waits for in-flight exchanges.
func (s *Server) Close() {
	_ = s.ln.Close()
	s.wg.Wait()
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return // listener closed
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	// The client half-closes after sending, so read to EOF.
	req, err := io.ReadAll(conn)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.requests = append(s.requests, string(req))
	s.mu.Unlock()

	if s.respond == nil {
		return
	}
	if resp := s.respond(string(req)); resp != nil {
		_, _ = conn.Write(resp)
	}
}

// Header renders a well-formed fixed16 response header for the given status
// and body length: status, a space, the length, right-padded with spaces to
// 15 bytes, then a newline.
func Header(status, length int) string {
	h := fmt.Sprintf("%d %d", status, length)
	if pad := 15 - len(h); pad > 0 {
		h += strings.Repeat(" ", pad)
	}
	return h + "\n"
}

// OK responds to every request with a 200 header and the given body.
func OK(body string) RespondFunc {
	return func(string) []byte {
		return []byte(Header(200, len(body)) + body)
	}
}

// Status responds with an arbitrary status code and body.
func Status(status int, body string) RespondFunc {
	return func(string) []byte {
		return []byte(Header(status, len(body)) + body)
	}
}

// Truncated declares the full body length but sends short bytes, then
// closes. Models a connection lost mid-body.
func Truncated(body string, short int) RespondFunc {
	return func(string) []byte {
		return []byte(Header(200, len(body)) + body[:len(body)-short])
	}
}

// BadHeader sends bytes that are not a valid fixed16 header.
func BadHeader() RespondFunc {
	return func(string) []byte {
		return []byte("this is not a livestatus header\n")
	}
}

// Mute closes the connection without sending anything.
func Mute() RespondFunc {
	return func(string) []byte { return nil }
}
