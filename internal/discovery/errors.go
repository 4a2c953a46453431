package discovery

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
)

// Stage identifies the session setup step that failed
type Stage int

const (
	// StageBind is binding the local UDP socket
	StageBind Stage = iota
	// StageBroadcast is enabling SO_BROADCAST on the socket
	StageBroadcast
	// StageSend is sending the probe datagram
	StageSend
	// StageTimeout is configuring the receive timeout
	StageTimeout
)

// String returns a human-readable name for the stage
func (s Stage) String() string {
	switch s {
	case StageBind:
		return "bind socket"
	case StageBroadcast:
		return "enable broadcast"
	case StageSend:
		return "send probe"
	case StageTimeout:
		return "set receive timeout"
	default:
		return fmt.Sprintf("Stage(%d)", s)
	}
}

// SetupError is a fatal error raised while opening a session.
// The session cannot run without every setup step succeeding.
type SetupError struct {
	Stage Stage
	Err   error
}

// Error implements the error interface
func (e *SetupError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *SetupError) Unwrap() error {
	return e.Err
}

// ReceiveError reports that the session gave up after too many consecutive
// receive failures that were not timeouts.
type ReceiveError struct {
	Attempts int
	Err      error
}

// Error implements the error interface
func (e *ReceiveError) Error() string {
	return fmt.Sprintf("receive failed %d times in a row: %v", e.Attempts, e.Err)
}

// Unwrap returns the last receive error
func (e *ReceiveError) Unwrap() error {
	return e.Err
}

// ParseFailure classifies why a payload was not a device record
type ParseFailure int

const (
	// FailureInvalidUTF8 means the payload is not valid UTF-8 text
	FailureInvalidUTF8 ParseFailure = iota
	// FailureTooFewFields means fewer than three CR LF separated fields
	FailureTooFewFields
	// FailureEmptyStatus means the third field has no status character
	FailureEmptyStatus
)

// String returns the metric/log label for the failure
func (f ParseFailure) String() string {
	switch f {
	case FailureInvalidUTF8:
		return "invalid_utf8"
	case FailureTooFewFields:
		return "too_few_fields"
	case FailureEmptyStatus:
		return "empty_status"
	default:
		return fmt.Sprintf("ParseFailure(%d)", f)
	}
}

// ParseError describes a rejected payload. It never reaches the user; it
// exists for debug logging and metrics.
type ParseError struct {
	Reason ParseFailure
	Fields int // number of fields found (0 for invalid UTF-8)
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Reason == FailureTooFewFields {
		return fmt.Sprintf("malformed record: %s (got %d, want %d)", e.Reason, e.Fields, recordFields)
	}
	return fmt.Sprintf("malformed record: %s", e.Reason)
}

// IsTimeout reports whether err signals that no datagram arrived within the
// receive window. Both deadline expiry and would-block count.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}
