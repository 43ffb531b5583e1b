package server

import (
	"errors"
	"net/http"

	"github.com/rohmanhakim/pinned-repos/internal/resolver"
	"github.com/rohmanhakim/pinned-repos/pkg/failure"
)

// statusFor maps a resolve failure onto the response status.
func statusFor(err failure.ClassifiedError) int {
	var resolveErr *resolver.ResolveError
	if !errors.As(err, &resolveErr) {
		return http.StatusBadGateway
	}

	switch resolveErr.Cause {
	case resolver.ErrCauseInvalidIdentifier:
		return http.StatusBadRequest
	case resolver.ErrCauseNotFound:
		return http.StatusNotFound
	case resolver.ErrCauseTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// messageFor is the client-facing error text. Upstream details stay in
// the logs.
func messageFor(err failure.ClassifiedError) string {
	var resolveErr *resolver.ResolveError
	if !errors.As(err, &resolveErr) {
		return "upstream failure"
	}
	if resolveErr.Cause == resolver.ErrCauseInvalidIdentifier {
		return resolveErr.Message
	}
	return string(resolveErr.Cause)
}
