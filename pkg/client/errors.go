package client

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies a failed bridge call so callers can branch on the
// class instead of parsing messages.
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindValidation
	KindAuthentication
	KindBadRequest
	KindRateLimit
	KindServer
	KindTimeout
	KindConnection
	KindExtraction
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindBadRequest:
		return "bad request"
	case KindRateLimit:
		return "rate limit"
	case KindServer:
		return "server error"
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection error"
	case KindExtraction:
		return "extraction"
	default:
		return "unexpected"
	}
}

// Error is the single terminal error type surfaced by the bridge. StatusCode
// and Body are populated when the failure came from an HTTP response; Body
// carries the raw payload for diagnostics.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Body       []byte
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String() + " error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transient: rate limiting, server
// errors and network errors qualify, everything else is terminal on first
// occurrence.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindRateLimit, KindServer, KindTimeout, KindConnection:
		return true
	default:
		return false
	}
}

func newErrorf(kind ErrorKind, statusCode int, format string, args ...any) *Error {
	return &Error{Kind: kind, StatusCode: statusCode, Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool     { return hasKind(err, KindValidation) }
func IsAuthentication(err error) bool { return hasKind(err, KindAuthentication) }
func IsBadRequest(err error) bool     { return hasKind(err, KindBadRequest) }
func IsRateLimit(err error) bool      { return hasKind(err, KindRateLimit) }
func IsServer(err error) bool         { return hasKind(err, KindServer) }
func IsTimeout(err error) bool        { return hasKind(err, KindTimeout) }
func IsConnection(err error) bool     { return hasKind(err, KindConnection) }
func IsExtraction(err error) bool     { return hasKind(err, KindExtraction) }
func IsUnexpected(err error) bool     { return hasKind(err, KindUnexpected) }

// IsNetwork covers both network failure classes, timeouts and connection
// errors.
func IsNetwork(err error) bool {
	return hasKind(err, KindTimeout) || hasKind(err, KindConnection)
}

func hasKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
