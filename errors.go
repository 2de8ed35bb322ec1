package sessiongate

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	textCodeUnauthenticated     = "UNAUTHENTICATED"
	textCodePermissionDenied    = "PERMISSION_DENIED"
	textCodeInvalidArgument     = "INVALID_ARGUMENT"
	textCodeRequiresRecentLogin = "REQUIRES_RECENT_LOGIN"
	textCodeResolutionFailed    = "PROFILE_RESOLUTION_FAILED"
	textCodePurgeFailed         = "IDENTITY_PURGE_FAILED"
)

// ErrUnauthenticated is returned when an operation requires a signed-in caller.
var ErrUnauthenticated = errors.New("caller is not authenticated", errors.CategoryAuth).
	WithTextCode(textCodeUnauthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrPermissionDenied is returned when the caller's role does not allow the operation.
var ErrPermissionDenied = errors.New("caller lacks the required role", errors.CategoryAuthz).
	WithTextCode(textCodePermissionDenied).
	WithCode(errors.CodeForbidden)

// ErrInvalidArgument is returned for malformed capability requests, before any
// provider call is attempted.
var ErrInvalidArgument = errors.New("request is missing a required argument", errors.CategoryValidation).
	WithTextCode(textCodeInvalidArgument).
	WithCode(errors.CodeBadRequest)

// ErrProfileNotFound is returned when no profile record exists for an identity.
var ErrProfileNotFound = errors.New("profile not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrResolutionFailed wraps transient profile-lookup failures. The watcher
// treats it as unauthenticated under the strict policy.
var ErrResolutionFailed = errors.New("profile resolution failed", errors.CategoryOperation).
	WithTextCode(textCodeResolutionFailed)

// ErrRequiresRecentLogin mirrors the provider condition on sensitive updates.
// Callers must sign the user out rather than retry with the same credentials.
var ErrRequiresRecentLogin = errors.New("operation requires a recent sign-in", errors.CategoryAuth).
	WithTextCode(textCodeRequiresRecentLogin).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrMismatchedHashAndPassword is returned on credential mismatch.
var ErrMismatchedHashAndPassword = errors.New("credentials do not match", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString rejects empty secrets before hashing.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// IsRequiresRecentLoginError will check for the provider's recent-login condition
func IsRequiresRecentLoginError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) && rich.TextCode == textCodeRequiresRecentLogin {
		return true
	}
	return strings.Contains(err.Error(), "requires a recent sign-in")
}

// IsPermissionDenied will check for role rejections from the capability
func IsPermissionDenied(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.TextCode == textCodePermissionDenied
	}
	return false
}

// IsProfileNotFound reports whether err is the missing-profile condition, as
// opposed to a transient lookup failure.
func IsProfileNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrProfileNotFound) {
		return true
	}
	return errors.IsNotFound(err)
}
