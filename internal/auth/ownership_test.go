package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/kconnect-service/internal/domain"
)

func TestRequireOwnerOrAdmin(t *testing.T) {
	emp := Principal{SubjectID: "1", Email: "a@x", Role: domain.RoleEmployee}
	admin := Principal{SubjectID: "2", Email: "root@x", Role: domain.RoleAdmin}

	require.ErrorIs(t, RequireOwnerOrAdmin(emp, "b@x"), ErrNotOwner)
	require.NoError(t, RequireOwnerOrAdmin(emp, "a@x"))
	require.ErrorIs(t, RequireOwnerOrAdmin(emp, ""), ErrNotOwner)

	for _, owner := range []string{"a@x", "b@x", "root@x", ""} {
		require.NoError(t, RequireOwnerOrAdmin(admin, owner))
	}
}

func TestRequireAdminForRelations(t *testing.T) {
	emp := Principal{Email: "a@x", Role: domain.RoleEmployee}
	admin := Principal{Email: "root@x", Role: domain.RoleAdmin}

	require.NoError(t, RequireAdminForRelations(emp, false))
	require.ErrorIs(t, RequireAdminForRelations(emp, true), ErrRestrictedField)
	require.NoError(t, RequireAdminForRelations(admin, true))
}

func TestDenialCodesAreDistinct(t *testing.T) {
	require.Equal(t, "INSUFFICIENT_ROLE", DenialCode(ErrInsufficientRole))
	require.Equal(t, "NOT_OWNER", DenialCode(ErrNotOwner))
	require.Equal(t, "RESTRICTED_FIELD", DenialCode(ErrRestrictedField))
	require.Equal(t, "UNAUTHENTICATED", DenialCode(ErrUnauthenticated))
	require.Equal(t, "TOKEN_INVALID", DenialCode(&TokenError{Reason: ReasonExpired}))
	require.Empty(t, DenialCode(nil))
}
