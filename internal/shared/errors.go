package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken occurs when a registration reuses an existing email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrTokenMissing occurs when a request carries no bearer token.
	ErrTokenMissing = errors.New("token missing")
	// ErrInvalidToken occurs when a bearer token fails verification.
	ErrInvalidToken = errors.New("invalid token")
)
