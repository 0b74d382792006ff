package errors

// Upstream HTTP helpers for mapping status codes from external HR systems to
// project ErrorCode and for retry semantics

import (
	"context"
	stderrs "errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// StatusError carries the HTTP status and a response snippet from an upstream call.
// Adapters return it as the root cause so classification can happen in one place
type StatusError struct {
	Status int
	Body   string
}

// Error implements the error interface
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream status %d", e.Status)
	}
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Body)
}

// ExtractStatusError returns (*StatusError, true) if the root cause is a StatusError
func ExtractStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if stderrs.As(Root(err), &se) {
		return se, true
	}
	return nil, false
}

// IsStatus reports whether the error is an upstream error with the given HTTP status
func IsStatus(err error, status int) bool {
	se, ok := ExtractStatusError(err)
	return ok && se.Status == status
}

// Human-friendly predicates for common status classes.

// IsUpstreamNotFound reports whether the upstream answered 404
func IsUpstreamNotFound(err error) bool { return IsStatus(err, http.StatusNotFound) }

// IsUpstreamConflict reports whether the upstream answered 409
func IsUpstreamConflict(err error) bool { return IsStatus(err, http.StatusConflict) }

// IsUpstreamThrottled reports whether the upstream answered 429
func IsUpstreamThrottled(err error) bool { return IsStatus(err, http.StatusTooManyRequests) }

// UpstreamErrorCode maps an upstream HTTP status to an ErrorCode with an ok flag
// !ok means err wasn't a StatusError; caller may fall back to generic handling
func UpstreamErrorCode(err error) (ErrorCode, bool) {
	var se *StatusError
	if !stderrs.As(err, &se) {
		return ErrorCodeUnknown, false
	}

	switch {
	case se.Status == http.StatusNotFound:
		return ErrorCodeNotFound, true

	case se.Status == http.StatusConflict:
		return ErrorCodeConflict, true

	case se.Status == http.StatusTooManyRequests:
		return ErrorCodeTooManyRequests, true

	case se.Status == http.StatusUnauthorized:
		return ErrorCodeUnauthorized, true

	case se.Status == http.StatusForbidden:
		return ErrorCodeForbidden, true

	case se.Status == http.StatusBadRequest || se.Status == http.StatusUnprocessableEntity:
		return ErrorCodeInvalidArgument, true

	case se.Status == http.StatusRequestTimeout,
		se.Status == http.StatusBadGateway,
		se.Status == http.StatusServiceUnavailable,
		se.Status == http.StatusGatewayTimeout:
		// Transient/unavailable dependency
		return ErrorCodeUnavailable, true

	case se.Status >= 500:
		return ErrorCodeUpstream, true
	}

	// Default: still an upstream error
	return ErrorCodeUpstream, true
}

// FromUpstream wraps an upstream error with a mapped ErrorCode and message.
// If err is nil, returns nil
func FromUpstream(err error, msg string) error {
	if err == nil {
		return nil
	}
	if code, ok := UpstreamErrorCode(err); ok {
		return Wrap(err, code, msg)
	}
	return Wrap(err, ErrorCodeUpstream, msg)
}

// FromUpstreamf is the formatted variant of FromUpstream
func FromUpstreamf(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	if code, ok := UpstreamErrorCode(err); ok {
		return Wrap(err, code, fmt.Sprintf(format, a...))
	}
	return Wrap(err, ErrorCodeUpstream, fmt.Sprintf(format, a...))
}

// IsRetryable reports whether an upstream error represents a transient condition
// worth retrying. It handles structured *StatusError statuses, net-level failures,
// and the generic text seen from TLS/connection teardown
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Do not retry local cancellations/timeouts; let the caller decide higher-level retries
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Structured project errors by code
	switch CodeOf(err) {
	case ErrorCodeUnavailable, ErrorCodeTooManyRequests:
		return true
	}

	// Unwrap to the root cause so we can see either StatusError or the transport text
	root := Root(err)

	var se *StatusError
	if stderrs.As(root, &se) {
		switch se.Status {
		case http.StatusRequestTimeout,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}

	// Timeouts from the net stack are retryable even when wrapped by url.Error
	var nerr net.Error
	if stderrs.As(root, &nerr) && nerr.Timeout() {
		return true
	}

	// Fallback: text patterns from connection resets and TLS handshakes
	s := strings.ToLower(root.Error())
	switch {
	case strings.Contains(s, "connection reset by peer"),
		strings.Contains(s, "connection refused"),
		strings.Contains(s, "broken pipe"),
		strings.Contains(s, "tls handshake timeout"),
		strings.Contains(s, "unexpected eof"),
		strings.Contains(s, "i/o timeout"),
		strings.Contains(s, "no such host"):
		return true
	default:
		return false
	}
}
