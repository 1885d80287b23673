// Package common defines sentinel errors and constants shared by the
// authentication core and its transports. Callers match them with errors.Is.
package common

import (
	"errors"
	"fmt"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// MaxPasswordBytes is the longest password bcrypt can hash without truncation.
const MaxPasswordBytes = 72

var (
	// Directory-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("username or email already exists")

	// Service-level errors.
	ErrorInternal        = errors.New("internal error")
	ErrorUnauthorized    = errors.New("unauthorized")
	ErrorInactiveAccount = errors.New("inactive account")

	// Validation errors. Password length violations are reported separately
	// from other malformed input but still match ErrorValidation.
	ErrorValidation       = errors.New("validation error")
	ErrorPasswordTooShort = fmt.Errorf("%w: password must be at least %d characters long", ErrorValidation, MinPasswordLength)
	ErrorPasswordTooLong  = fmt.Errorf("%w: password must be at most %d bytes long", ErrorValidation, MaxPasswordBytes)

	// Token errors. An expired token is also an invalid token.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrInvalidToken)
)
