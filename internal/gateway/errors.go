package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorKind classifies a query outcome so callers can decide between
// skip-and-continue and abort without string matching.
type ErrorKind int

const (
	// KindValidation marks malformed input caught before any network call.
	KindValidation ErrorKind = iota
	// KindRemote marks a transport-level success whose query the API rejected.
	KindRemote
	// KindTimeout marks a round trip that exceeded the doubled query deadline.
	KindTimeout
	// KindTransport marks connection, DNS and other low-level failures.
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRemote:
		return "remote"
	case KindTimeout:
		return "timeout"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// QueryError is the typed result of a failed GraphQL call.
type QueryError struct {
	Kind ErrorKind
	// Hint is a coarse classification of remote application errors,
	// e.g. "not_found_error" or "variable_mismatch_error".
	Hint string
	Err  error
}

func (e *QueryError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("graphql %s (%s): %v", e.Kind, e.Hint, e.Err)
	}
	return fmt.Sprintf("graphql %s: %v", e.Kind, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// IsRecoverable reports whether the failure should be absorbed at the
// per-repository boundary rather than abort the whole run.
func (e *QueryError) IsRecoverable() bool {
	return e.Kind == KindTimeout || e.Kind == KindTransport || e.Kind == KindRemote
}

func validationError(msg string) *QueryError {
	return &QueryError{Kind: KindValidation, Err: errors.New(msg)}
}

// classifyQueryError maps an error returned by the GraphQL client onto the
// taxonomy. Context deadline wins over everything; net errors are transport;
// anything else means the call reached the API and was rejected there.
func classifyQueryError(err error) *QueryError {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &QueryError{Kind: KindTimeout, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &QueryError{Kind: KindTransport, Hint: "canceled", Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &QueryError{Kind: KindTimeout, Err: err}
		}
		return &QueryError{Kind: KindTransport, Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &QueryError{Kind: KindTransport, Err: err}
	}
	return &QueryError{Kind: KindRemote, Hint: classifyErrorHint(err.Error()), Err: err}
}

// classifyErrorHint buckets remote error messages for logs and metrics.
func classifyErrorHint(message string) string {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "token") || strings.Contains(m, "authentication") || strings.Contains(m, "bad credentials"):
		return "authentication_error"
	case strings.Contains(m, "could not resolve") || strings.Contains(m, "not found") || strings.Contains(m, "404"):
		return "not_found_error"
	case strings.Contains(m, "forbidden") || strings.Contains(m, "permission"):
		return "permission_error"
	case strings.Contains(m, "rate limit"):
		return "rate_limit_error"
	case strings.Contains(m, "variable") && (strings.Contains(m, "type") || strings.Contains(m, "invalid value")):
		return "variable_mismatch_error"
	case strings.Contains(m, "timeout"):
		return "timeout_error"
	case strings.Contains(m, "connection") || strings.Contains(m, "network"):
		return "network_error"
	default:
		return "unknown_error"
	}
}
