package auth

import (
	"context"

	"github.com/spec-kit/kconnect-service/internal/domain"
)

type principalKey struct{}

// Principal is the authenticated caller for the duration of one request.
// It reflects the token as issued: a role change on the account is not seen
// until the caller obtains a new token.
type Principal struct {
	SubjectID   string
	Email       string
	Role        domain.Role
	DisplayName string
}

// IsAdmin reports whether the principal holds the ADMIN role.
func (p Principal) IsAdmin() bool {
	return p.Role == domain.RoleAdmin
}

// PrincipalFromEmployee builds the identity a token is issued for.
func PrincipalFromEmployee(emp *domain.Employee) Principal {
	return Principal{
		SubjectID:   emp.ID,
		Email:       emp.Email,
		Role:        emp.Role,
		DisplayName: emp.FullName,
	}
}

// ResolvePrincipal maps verified claims to a Principal. It does no I/O.
func ResolvePrincipal(claims *Claims) Principal {
	return Principal{
		SubjectID:   claims.SubjectID,
		Email:       claims.Subject,
		Role:        claims.Role,
		DisplayName: claims.Name,
	}
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext retrieves the authenticated caller, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
