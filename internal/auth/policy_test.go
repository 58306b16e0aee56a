package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/kconnect-service/internal/domain"
)

func defaultPolicy(t *testing.T) *Policy {
	t.Helper()
	p, err := NewPolicy(DefaultRules())
	require.NoError(t, err)
	return p
}

func principalWith(role domain.Role, email string) *Principal {
	return &Principal{SubjectID: "id-" + email, Email: email, Role: role}
}

func TestDefaultPolicyDecisions(t *testing.T) {
	p := defaultPolicy(t)
	admin := principalWith(domain.RoleAdmin, "admin@x")
	emp := principalWith(domain.RoleEmployee, "a@x")

	cases := []struct {
		method, path string
		caller       *Principal
		want         error
	}{
		{"POST", "/auth/login", nil, nil},
		{"POST", "/auth/register", nil, nil},
		{"GET", "/health/live", nil, nil},
		{"OPTIONS", "/employees/42", nil, nil},
		{"OPTIONS", "/anything/at/all", nil, nil},

		{"GET", "/employees", nil, ErrUnauthenticated},
		{"GET", "/employees", emp, ErrInsufficientRole},
		{"GET", "/employees", admin, nil},
		{"POST", "/employees", emp, ErrInsufficientRole},
		{"GET", "/employees/42", emp, nil},
		{"PUT", "/employees/42", emp, nil},
		{"DELETE", "/employees/42", emp, ErrInsufficientRole},
		{"DELETE", "/employees/42", admin, nil},

		{"GET", "/departments", emp, nil},
		{"GET", "/departments/stats", emp, nil},
		{"POST", "/departments", emp, ErrInsufficientRole},
		{"PUT", "/departments/9", emp, ErrInsufficientRole},
		{"DELETE", "/departments/9", admin, nil},

		{"GET", "/reports", emp, nil},
		{"POST", "/reports", emp, nil},
		{"PUT", "/reports/3", emp, nil},
		{"DELETE", "/reports/3", emp, ErrInsufficientRole},
		{"GET", "/reports/department/7", emp, ErrInsufficientRole},
		{"GET", "/reports/department/7", admin, nil},

		{"GET", "/unmapped", nil, ErrUnauthenticated},
		{"GET", "/unmapped", emp, nil},
	}

	for _, tc := range cases {
		err := p.Check(tc.method, tc.path, tc.caller)
		if tc.want == nil {
			require.NoError(t, err, "%s %s", tc.method, tc.path)
		} else {
			require.ErrorIs(t, err, tc.want, "%s %s", tc.method, tc.path)
		}
	}
}

func TestExactSegmentBeatsWildcard(t *testing.T) {
	rules := []AccessRule{
		{Pattern: "/docs/**", Require: PublicAccess()},
		{Pattern: "/docs/{id}", Require: AnyRole(domain.RoleEmployee)},
		{Pattern: "/docs/secret", Require: AnyRole(domain.RoleAdmin)},
	}
	p, err := NewPolicy(rules)
	require.NoError(t, err)

	ordered := p.Rules()
	require.Equal(t, "/docs/secret", ordered[0].Pattern)
	require.Equal(t, "/docs/{id}", ordered[1].Pattern)
	require.Equal(t, "/docs/**", ordered[2].Pattern)

	emp := principalWith(domain.RoleEmployee, "a@x")
	require.ErrorIs(t, p.Check("GET", "/docs/secret", emp), ErrInsufficientRole)
	require.NoError(t, p.Check("GET", "/docs/1", emp))
	require.ErrorIs(t, p.Check("GET", "/docs/1", nil), ErrUnauthenticated)
	require.NoError(t, p.Check("GET", "/docs/1/2", nil))
	require.NoError(t, p.Check("GET", "/docs", nil))
}

func TestMethodSpecificRuleBeatsAnyMethod(t *testing.T) {
	p, err := NewPolicy([]AccessRule{
		{Pattern: "/items", Require: AnyRole(domain.RoleAdmin)},
		{Method: "get", Pattern: "/items", Require: PublicAccess()},
	})
	require.NoError(t, err)

	require.NoError(t, p.Check("GET", "/items", nil))
	require.ErrorIs(t, p.Check("POST", "/items", nil), ErrUnauthenticated)
}

func TestEqualSpecificityKeepsTableOrder(t *testing.T) {
	p, err := NewPolicy([]AccessRule{
		{Method: "GET", Pattern: "/a/{x}", Require: PublicAccess()},
		{Method: "GET", Pattern: "/a/*", Require: AnyRole(domain.RoleAdmin)},
	})
	require.NoError(t, err)

	require.NoError(t, p.Check("GET", "/a/1", nil))
}

func TestPathMatchesRouterView(t *testing.T) {
	p := defaultPolicy(t)
	emp := principalWith(domain.RoleEmployee, "a@x")

	require.ErrorIs(t, p.Check("GET", "/employees/", emp), ErrInsufficientRole)

	// fiber routes "/reports/.." to /reports/:id with id "..", so the policy
	// must see the same single-segment id.
	for _, target := range []string{"/reports/..", "/employees/..", "/departments/..", "/reports/.", "/employees/%2e%2e"} {
		require.ErrorIs(t, p.Check("DELETE", target, emp), ErrInsufficientRole, target)
	}
	require.ErrorIs(t, p.Check("DELETE", "/reports/./3", emp), ErrInsufficientRole)
	require.ErrorIs(t, p.Check("GET", "/reports/department/..", emp), ErrInsufficientRole)

	// No route matches these, so the default rule applies.
	require.NoError(t, p.Check("GET", "//employees", emp))
	require.NoError(t, p.Check("GET", "/auth/../employees", nil))
}

func TestNewPolicyValidation(t *testing.T) {
	_, err := NewPolicy([]AccessRule{{Pattern: "employees"}})
	require.Error(t, err)

	_, err = NewPolicy([]AccessRule{{Pattern: "/a/**/b"}})
	require.Error(t, err)

	_, err = NewPolicy([]AccessRule{{Pattern: "/a", Require: AnyRole("ROOT")}})
	require.Error(t, err)

	for _, pattern := range []string{"/a//b", "/a/../b", "/./a"} {
		_, err = NewPolicy([]AccessRule{{Pattern: pattern}})
		require.Error(t, err, pattern)
	}
}

func TestLoadRules(t *testing.T) {
	doc := `
rules:
  - pattern: /auth/**
    public: true
  - method: GET
    pattern: /employees
    roles: [ADMIN]
  - method: GET
    pattern: /employees/{id}
    roles: [ADMIN, EMPLOYEE]
`
	rules, err := LoadRules(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, rules, 3)

	p, err := NewPolicy(rules)
	require.NoError(t, err)
	emp := principalWith(domain.RoleEmployee, "a@x")
	require.NoError(t, p.Check("POST", "/auth/login", nil))
	require.ErrorIs(t, p.Check("GET", "/employees", emp), ErrInsufficientRole)
	require.NoError(t, p.Check("GET", "/employees/5", emp))
}

func TestLoadRulesRejectsBadInput(t *testing.T) {
	_, err := LoadRules(strings.NewReader("rules:\n  - pattern: /a\n    roles: [SUPERUSER]\n"))
	require.Error(t, err)

	_, err = LoadRules(strings.NewReader("rules:\n  - pattern: /a\n    public: true\n    roles: [ADMIN]\n"))
	require.Error(t, err)

	_, err = LoadRules(strings.NewReader("rules:\n  - pattern: /a\n    owner: true\n"))
	require.Error(t, err)
}

func TestPolicyFromFileDefaults(t *testing.T) {
	p, err := PolicyFromFile("")
	require.NoError(t, err)
	require.Len(t, p.Rules(), len(DefaultRules()))
}
