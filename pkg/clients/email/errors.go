package email

import (
	"context"
	"errors"
	"net"
	"net/textproto"
	"os"
	"strings"
	"syscall"
)

// AuthError means the relay rejected the account credentials.
type AuthError struct{ Err error }

func (e *AuthError) Error() string { return "smtp authentication failed: " + e.Err.Error() }
func (e *AuthError) Unwrap() error { return e.Err }

// ConnectionError means the relay could not be reached or timed out.
type ConnectionError struct{ Err error }

func (e *ConnectionError) Error() string { return "smtp connection failed: " + e.Err.Error() }
func (e *ConnectionError) Unwrap() error { return e.Err }

// UnknownTransportError is any other delivery failure.
type UnknownTransportError struct{ Err error }

func (e *UnknownTransportError) Error() string { return "smtp delivery failed: " + e.Err.Error() }
func (e *UnknownTransportError) Unwrap() error { return e.Err }

// SMTP reply codes that signal a credential problem.
var authReplyCodes = map[int]bool{
	530: true, // authentication required
	534: true, // authentication mechanism too weak
	535: true, // authentication credentials invalid
}

// Classify maps a raw transport error onto the package taxonomy.
// Errors that are already classified are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var (
		authErr    *AuthError
		connErr    *ConnectionError
		unknownErr *UnknownTransportError
	)
	if errors.As(err, &authErr) || errors.As(err, &connErr) || errors.As(err, &unknownErr) {
		return err
	}

	// A server reply is authoritative: only the auth reply codes count as
	// credential failures, any other rejection stays unclassified.
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		if authReplyCodes[protoErr.Code] {
			return &AuthError{Err: err}
		}
		return &UnknownTransportError{Err: err}
	}

	if isConnectionFailure(err) {
		return &ConnectionError{Err: err}
	}

	// Some relays close the session without a parseable reply; fall back
	// to the prefix go-mail puts on a failed AUTH exchange.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "smtp auth failed"):
		return &AuthError{Err: err}
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"), strings.Contains(msg, "dial"):
		return &ConnectionError{Err: err}
	}

	return &UnknownTransportError{Err: err}
}

func isConnectionFailure(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
