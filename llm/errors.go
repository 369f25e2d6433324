// Error classification for LLM providers.
//
// Every provider failure is wrapped in an *Error carrying a closed
// ErrorKind, so callers branch on the kind with errors.As instead of
// inspecting provider-specific error strings. Unrecognized failures
// classify as KindOther.

package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is the closed set of failure categories a provider can report.
type ErrorKind int

const (
	// KindOther covers failures that fit no other category.
	KindOther ErrorKind = iota
	// KindBlocked means the request or response was refused by a safety filter.
	KindBlocked
	// KindRateLimited means the provider rejected the request for quota reasons.
	KindRateLimited
	// KindMalformed means the provider rejected the request as invalid.
	KindMalformed
	// KindTransient means a retry with the same request may succeed.
	KindTransient
)

// String returns the kind name for logging.
func (k ErrorKind) String() string {
	switch k {
	case KindBlocked:
		return "blocked"
	case KindRateLimited:
		return "rate_limited"
	case KindMalformed:
		return "malformed"
	case KindTransient:
		return "transient"
	default:
		return "other"
	}
}

// Error is a classified provider failure.
type Error struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s provider %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Kind extracts the classification from err, or KindOther when err was
// not produced by a provider in this package.
func Kind(err error) ErrorKind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return KindOther
}

// classifyStatus maps an HTTP status code to an ErrorKind.
func classifyStatus(status int) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindMalformed
	case status >= 500:
		return KindTransient
	default:
		return KindOther
	}
}

// wrapError builds a classified error for the named provider.
func wrapError(provider string, kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Err: err}
}

// blockedError marks a response refused by the provider's safety layer.
func blockedError(provider, reason string) *Error {
	return &Error{
		Kind:     KindBlocked,
		Provider: provider,
		Err:      fmt.Errorf("response blocked: %s", reason),
	}
}
