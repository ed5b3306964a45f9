package auth

import "errors"

// ErrValidation is matched by every input validation error, so callers can
// map the whole family to a client error with errors.Is.
var ErrValidation = errors.New("validation failed")

var (
	ErrNameRequired     = validationError("name is required")
	ErrEmailRequired    = validationError("email is required")
	ErrPasswordRequired = validationError("password is required")
	ErrEmailInvalid     = validationError("invalid email format")
	ErrPasswordTooShort = validationError("password is too short")
	ErrPasswordTooLong  = validationError("password exceeds maximum length of 72 bytes")
	ErrTokenRequired    = validationError("token is required")
	ErrInvalidRole      = validationError("invalid role")
)

var (
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrUnauthenticated       = errors.New("authentication required")
	ErrForbidden             = errors.New("insufficient permissions")
	ErrStoreUnavailable      = errors.New("credential store unavailable")
)

// Bearer token failure kinds. Authorize wraps these in ErrUnauthenticated;
// the HTTP boundary reports all of them identically.
var (
	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
	ErrTokenExpired          = errors.New("token has expired")
	ErrTokenRevoked          = errors.New("token has been revoked")
)

type validationErr struct {
	msg string
}

func validationError(msg string) error {
	return &validationErr{msg: msg}
}

func (e *validationErr) Error() string { return e.msg }

func (e *validationErr) Is(target error) bool { return target == ErrValidation }
