package tokenauth

import (
	"errors"
	"net/http"
)

var (
	// ErrUnauthorized is the signal callers map to an HTTP 401 response.
	// Every *UnauthorizedError matches it through errors.Is.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSecretNotConfigured is returned by New when neither Config.Secret nor
	// JWT_SECRET provide a signing secret and the insecure fallback is not allowed.
	ErrSecretNotConfigured = errors.New("signing secret not configured")
	// ErrInvalidBearer is returned by New when the bearer keyword is blank or
	// contains a space.
	ErrInvalidBearer = errors.New("invalid bearer keyword")
	// ErrNilSigner is returned by New when WithSigner is given a nil signer.
	ErrNilSigner = errors.New("nil signer")
)

// UnauthorizedError reports a rejected credential.
//
// Detail is empty when the header was missing or malformed, and carries the
// verifier's message when a presented token failed verification.
type UnauthorizedError struct {
	Detail string
	Err    error
}

func (e *UnauthorizedError) Error() string {
	if e.Detail == "" {
		return ErrUnauthorized.Error()
	}
	return ErrUnauthorized.Error() + ": " + e.Detail
}

// Is reports whether target is ErrUnauthorized.
func (e *UnauthorizedError) Is(target error) bool {
	return target == ErrUnauthorized
}

func (e *UnauthorizedError) Unwrap() error {
	return e.Err
}

// StatusCode returns http.StatusUnauthorized.
func (e *UnauthorizedError) StatusCode() int {
	return http.StatusUnauthorized
}

func unauthorized(cause error) *UnauthorizedError {
	if cause == nil {
		return &UnauthorizedError{}
	}
	return &UnauthorizedError{Detail: cause.Error(), Err: cause}
}
