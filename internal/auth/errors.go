package auth

import "errors"

// Access denial causes. They are rendered to callers only as a generic
// unauthorized or forbidden response.
var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrInsufficientRole = errors.New("insufficient role")
	ErrNotOwner         = errors.New("caller does not own resource")
	ErrRestrictedField  = errors.New("field change requires admin")
)

// DenialCode returns the internal code of an access denial, or "" for other errors.
func DenialCode(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "UNAUTHENTICATED"
	case errors.Is(err, ErrInsufficientRole):
		return "INSUFFICIENT_ROLE"
	case errors.Is(err, ErrNotOwner):
		return "NOT_OWNER"
	case errors.Is(err, ErrRestrictedField):
		return "RESTRICTED_FIELD"
	case errors.Is(err, ErrTokenInvalid):
		return "TOKEN_INVALID"
	default:
		return ""
	}
}
