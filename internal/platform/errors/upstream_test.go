package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"testing"
)

func up(status int, body string) error { return &StatusError{Status: status, Body: body} }

func TestUpstreamErrorCodeMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		want   ErrorCode
	}{
		{404, ErrorCodeNotFound},
		{409, ErrorCodeConflict},
		{429, ErrorCodeTooManyRequests},
		{401, ErrorCodeUnauthorized},
		{403, ErrorCodeForbidden},
		{400, ErrorCodeInvalidArgument},
		{422, ErrorCodeInvalidArgument},
		{408, ErrorCodeUnavailable},
		{502, ErrorCodeUnavailable},
		{503, ErrorCodeUnavailable},
		{504, ErrorCodeUnavailable},
		{500, ErrorCodeUpstream},
		{418, ErrorCodeUpstream}, // default branch
	}
	for _, c := range cases {
		got, ok := UpstreamErrorCode(up(c.status, ""))
		if !ok || got != c.want {
			t.Fatalf("UpstreamErrorCode(%d) = (%v, %v), want %v", c.status, got, ok, c.want)
		}
	}

	if _, ok := UpstreamErrorCode(stderrs.New("plain")); ok {
		t.Fatalf("UpstreamErrorCode should not classify non-status errors")
	}
}

func TestFromUpstreamVariants(t *testing.T) {
	t.Parallel()
	if FromUpstream(nil, "x") != nil {
		t.Fatalf("FromUpstream(nil) should be nil")
	}
	if FromUpstreamf(nil, "x %d", 1) != nil {
		t.Fatalf("FromUpstreamf(nil) should be nil")
	}

	err := FromUpstream(up(404, "no person"), "fetch person")
	if CodeOf(err) != ErrorCodeNotFound {
		t.Fatalf("FromUpstream map code = %v", CodeOf(err))
	}
	errf := FromUpstreamf(up(422, "bad field"), "patch: %s", "ctc")
	if CodeOf(errf) != ErrorCodeInvalidArgument {
		t.Fatalf("FromUpstreamf code = %v, want %v", CodeOf(errf), ErrorCodeInvalidArgument)
	}
}

func TestStatusPredicates(t *testing.T) {
	t.Parallel()
	wrapped := Wrap(up(409, "duplicate email"), ErrorCodeConflict, "create person")
	if !IsUpstreamConflict(wrapped) {
		t.Fatalf("IsUpstreamConflict should see through wrapping")
	}
	if !IsUpstreamNotFound(Wrap(up(404, ""), ErrorCodeNotFound, "x")) {
		t.Fatalf("IsUpstreamNotFound failed")
	}
	if !IsUpstreamThrottled(up(429, "")) {
		t.Fatalf("IsUpstreamThrottled failed")
	}
	if IsUpstreamConflict(stderrs.New("nope")) {
		t.Fatalf("predicate matched non-status error")
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	for _, status := range []int{408, 429, 500, 502, 503, 504} {
		if !IsRetryable(up(status, "")) {
			t.Fatalf("status %d should be retryable", status)
		}
	}
	for _, status := range []int{400, 401, 403, 404, 409, 422} {
		if IsRetryable(up(status, "")) {
			t.Fatalf("status %d should not be retryable", status)
		}
	}

	// Wrapped project errors classify by code
	if !IsRetryable(New(ErrorCodeUnavailable, "backend down")) {
		t.Fatalf("unavailable code should be retryable")
	}
	if IsRetryable(NotFoundf("gone")) {
		t.Fatalf("not found should not be retryable")
	}

	// Local cancellation is never retryable
	if IsRetryable(context.Canceled) || IsRetryable(context.DeadlineExceeded) {
		t.Fatalf("context errors should not be retryable")
	}

	// Transport text fallbacks
	if !IsRetryable(fmt.Errorf("read tcp: connection reset by peer")) {
		t.Fatalf("connection reset should be retryable")
	}
	if !IsRetryable(fmt.Errorf("net/http: TLS handshake timeout")) {
		t.Fatalf("tls handshake timeout should be retryable")
	}
	if IsRetryable(fmt.Errorf("some permanent failure")) {
		t.Fatalf("unknown text should not be retryable")
	}
}
