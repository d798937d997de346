package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrIdentityNotFound is returned when the token subject has no matching user
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryAuth).
	WithTextCode("IDENTITY_NOT_FOUND").
	WithCode(errors.CodeUnauthorized)

// ErrIdentityInactive rejects credentials and tokens of deactivated users
var ErrIdentityInactive = errors.New("identity is inactive", errors.CategoryAuth).
	WithTextCode("INACTIVE_USER").
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword covers both unknown identifiers and bad
// passwords so callers cannot probe which emails are registered
var ErrMismatchedHashAndPassword = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS").
	WithCode(errors.CodeUnauthorized)

// ErrTooManyLoginAttempts is returned while the cooldown window is active
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryAuth).
	WithTextCode("TOO_MANY_ATTEMPTS").
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for tokens past their expiry timestamp
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers malformed tokens and invalid signatures
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(errors.CodeUnauthorized)

// ErrMissingCredential is returned when no bearer token is present
var ErrMissingCredential = errors.New("missing credential", errors.CategoryAuth).
	WithTextCode("MISSING_CREDENTIAL").
	WithCode(errors.CodeUnauthorized)

// ErrForbidden is the authorization failure, distinct from the
// authentication failures above
var ErrForbidden = errors.New("insufficient role", errors.CategoryAuthz).
	WithTextCode("FORBIDDEN").
	WithCode(errors.CodeForbidden)

// ErrDuplicateEmail surfaces the store's uniqueness violation on registration
var ErrDuplicateEmail = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode("DUPLICATE_EMAIL").
	WithCode(errors.CodeConflict)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryValidation).
	WithTextCode("EMPTY_VALUE").
	WithCode(errors.CodeBadRequest)

// ErrUnableToFindSession is the error when the request carries no token
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToDecodeSession is returned when claims cannot be decoded
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// NewValidationError builds a field attributed validation failure. The map
// carries every failing field, not just the first one.
func NewValidationError(fields map[string]string) *errors.Error {
	return errors.New("payload validation failed", errors.CategoryValidation).
		WithTextCode("VALIDATION_FAILED").
		WithCode(errors.CodeBadRequest).
		WithMetadata(map[string]any{"fields": fields})
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsUniqueViolation detects duplicate key failures across the dialects we
// run against: sqlite in dev/test, postgres in production.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value")
}
