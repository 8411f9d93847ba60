package api

import "errors"

var (
	// ErrUnavailable means the service could not render a verdict at all:
	// connection failure, server error, or a response we could not parse.
	ErrUnavailable = errors.New("identity service unavailable")

	// ErrInvalidCredentials is an explicit rejection of a login attempt.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUnauthorized means the stored access token was rejected.
	ErrUnauthorized = errors.New("unauthorized")
)
