package auth

import "github.com/spec-kit/kconnect-service/internal/domain"

// RequireRole returns ErrInsufficientRole unless p holds one of roles.
func RequireRole(p Principal, roles ...domain.Role) error {
	for _, r := range roles {
		if p.Role == r {
			return nil
		}
	}
	return ErrInsufficientRole
}

// RequireOwnerOrAdmin is the per-record check for single resource endpoints:
// admins pass, everyone else must be the resource owner.
func RequireOwnerOrAdmin(p Principal, ownerEmail string) error {
	if p.IsAdmin() {
		return nil
	}
	if ownerEmail != "" && p.Email == ownerEmail {
		return nil
	}
	return ErrNotOwner
}

// RequireAdminForRelations guards changes to ownership relevant fields such as
// department or role. Owning the record is not enough.
func RequireAdminForRelations(p Principal, changed bool) error {
	if !changed || p.IsAdmin() {
		return nil
	}
	return ErrRestrictedField
}
