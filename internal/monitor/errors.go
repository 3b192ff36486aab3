package monitor

import (
	"errors"
	"fmt"
)

// ErrorKind identifies the failure class of one node attempt. The set is
// closed: every way a node attempt can go wrong maps to exactly one kind.
type ErrorKind int

const (
	// ErrConnect: the TCP handshake could not be completed within the
	// connect deadline, or the request could not be written.
	ErrConnect ErrorKind = iota

	// ErrHeader: the response header was missing, short, or did not match
	// the fixed16 pattern.
	ErrHeader

	// ErrTruncated: the peer closed the connection before the declared
	// body length was received.
	ErrTruncated

	// ErrEmpty: status 200 with an empty or whitespace-only body. A
	// semantic error, not a protocol failure.
	ErrEmpty

	// ErrStatus: the header carried a status other than 200.
	ErrStatus
)

// NodeError is the failure of a single node attempt. It never aborts work
// against other nodes; the orchestrator records it under the node's key.
type NodeError struct {
	Kind    ErrorKind
	Node    string
	Message string
}

func (e *NodeError) Error() string { return e.Message }

// IsKind reports whether err is a NodeError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ne *NodeError
	return errors.As(err, &ne) && ne.Kind == kind
}

func newConnectError(n Node) *NodeError {
	return &NodeError{
		Kind:    ErrConnect,
		Node:    n.Name,
		Message: fmt.Sprintf("could not connect to %s", n.HostPort()),
	}
}

func newHeaderError(n Node) *NodeError {
	return &NodeError{
		Kind:    ErrHeader,
		Node:    n.Name,
		Message: fmt.Sprintf("%s did not return a proper response header", n.Name),
	}
}

func newTruncatedError(n Node) *NodeError {
	return &NodeError{
		Kind:    ErrTruncated,
		Node:    n.Name,
		Message: fmt.Sprintf("lost connection with %s while receiving data", n.Name),
	}
}

// NewEmptyResultError classifies a status-200 response whose body carried no
// data. Raised by the orchestration layer after a successful exchange.
func NewEmptyResultError(n Node) *NodeError {
	return &NodeError{
		Kind:    ErrEmpty,
		Node:    n.Name,
		Message: fmt.Sprintf("%s did not return any data", n.Name),
	}
}

// NewStatusError classifies a non-200 response, folding the body text into
// the message. Raised by the orchestration layer after a successful exchange.
func NewStatusError(n Node, status int, body string) *NodeError {
	return &NodeError{
		Kind:    ErrStatus,
		Node:    n.Name,
		Message: fmt.Sprintf("error %d: %q", status, body),
	}
}
