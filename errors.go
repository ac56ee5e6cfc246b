package indieauth

import (
	"fmt"
)

// RequestError is returned when an endpoint responds with an unexpected
// status. It is always wrapped together with one of the Err kinds below, so
// check with errors.Is for the kind and errors.As for the details.
type RequestError struct {
	StatusCode int
	MediaType  string
	Body       []byte
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("received a %d (%s) response", e.StatusCode, e.MediaType)
}

type clientError int

func (e clientError) Error() string {
	switch e {
	case ErrUnresolvableIdentity:
		return "could not resolve identity url"
	case ErrStateMismatch:
		return "state mismatch"
	case ErrInteractiveFlowRejected:
		return "interactive flow rejected"
	case ErrTokenExchangeRejected:
		return "could not validate authorization"
	case ErrRevocationRejected:
		return "could not revoke token"
	case ErrAuthorizationEndpointMissing:
		return "no authorization endpoint found"
	case ErrTokenEndpointMissing:
		return "no token endpoint found"
	case ErrPartialSession:
		return "stored session is incomplete"
	case ErrWatchTimeout:
		return "session did not change before timeout"
	default:
		panic("missing error definition")
	}
}

const (
	// ErrUnresolvableIdentity means fetching the identity URL did not return a
	// 200 response.
	ErrUnresolvableIdentity clientError = iota

	// ErrStateMismatch means the state returned on the redirect was not the one
	// sent, so the redirect may have been forged or intercepted.
	ErrStateMismatch

	// ErrInteractiveFlowRejected means the redirect capture was cancelled or
	// failed, or the authorization endpoint returned an error.
	ErrInteractiveFlowRejected

	// ErrTokenExchangeRejected means the token endpoint did not accept the
	// authorization code.
	ErrTokenExchangeRejected

	// ErrRevocationRejected means the token endpoint did not accept the
	// revocation request.
	ErrRevocationRejected

	// ErrAuthorizationEndpointMissing means an authorization endpoint could not
	// be found for the entered identity URL.
	ErrAuthorizationEndpointMissing

	// ErrTokenEndpointMissing means a token endpoint could not be found for the
	// entered identity URL, or is missing from the stored session.
	ErrTokenEndpointMissing

	// ErrPartialSession means storage holds some, but not all, of the session
	// fields.
	ErrPartialSession

	// ErrWatchTimeout means a Watch gave up before the session changed.
	ErrWatchTimeout
)
