package http

import (
	"net/http"

	"hrhub/internal/platform/net/http/bind"
)

// JSONHandler binds the request body into T, calls fn, and envelopes the result.
// Bind failures surface as error envelopes before fn ever runs
func JSONHandler[T any](fn func(*http.Request, T) (any, error)) Handler {
	return Handle(func(r *http.Request) Response {
		in, err := bind.ParseJSON[T](r)
		if err != nil {
			return Error(err)
		}
		out, err := fn(r, in)
		if err != nil {
			return Error(err)
		}
		return OK(out)
	})
}

// JSONHandlerNoBody envelopes fn's result without touching the request body.
// Cron triggers and task callbacks that carry everything in the URL use this shape
func JSONHandlerNoBody(fn func(*http.Request) (any, error)) Handler {
	return Handle(func(r *http.Request) Response {
		out, err := fn(r)
		if err != nil {
			return Error(err)
		}
		return OK(out)
	})
}
