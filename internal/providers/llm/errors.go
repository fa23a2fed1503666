package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

type FailureClass string

const (
	ClassQuota       FailureClass = "quota"
	ClassAuth        FailureClass = "auth"
	ClassNotFound    FailureClass = "not_found"
	ClassNetwork     FailureClass = "network"
	ClassTimeout     FailureClass = "timeout"
	ClassServer      FailureClass = "server"
	ClassBadResponse FailureClass = "bad_response"
)

// ProviderError describes one failed provider call.
type ProviderError struct {
	Provider string
	Class    FailureClass
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Provider, e.Class, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Class, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Reachable reports whether the service answered (with an error payload) as opposed to
// being unreachable or timing out.
func (e *ProviderError) Reachable() bool {
	return e.Class != ClassNetwork && e.Class != ClassTimeout
}

// Retryable reports whether the same model is worth another attempt.
func (e *ProviderError) Retryable() bool {
	switch e.Class {
	case ClassNetwork, ClassTimeout, ClassServer, ClassQuota:
		return true
	default:
		return false
	}
}

func ClassifyHTTPStatus(code int) FailureClass {
	switch {
	case code == http.StatusTooManyRequests:
		return ClassQuota
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ClassAuth
	case code == http.StatusNotFound:
		return ClassNotFound
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return ClassTimeout
	case code >= 500:
		return ClassServer
	default:
		return ClassBadResponse
	}
}

func classifyTransport(err error) FailureClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ClassTimeout
	}
	return ClassNetwork
}

// AsProviderError normalizes any error into a ProviderError for logging.
func AsProviderError(provider string, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	return &ProviderError{Provider: provider, Class: classifyTransport(err), Err: err}
}
