package remote

import "fmt"

// RejectionError carries a server-side validation or business-rule failure.
// Message is the server's text, surfaced to the user verbatim.
type RejectionError struct {
	StatusCode int
	Message    string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("submission rejected (%d): %s", e.StatusCode, e.Message)
}

// TransportError wraps a network or connectivity failure. The submission is
// not retried automatically; the artifacts it carried are stale by the time
// a retry could run.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
