package auth

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spec-kit/kconnect-service/internal/domain"
)

// Requirement is what a route demands of its caller. The zero value means
// "authenticated, any role".
type Requirement struct {
	Public bool
	Roles  []domain.Role
}

// PublicAccess lets anonymous callers through.
func PublicAccess() Requirement { return Requirement{Public: true} }

// Authenticated accepts any signed in caller.
func Authenticated() Requirement { return Requirement{} }

// AnyRole accepts callers holding one of roles.
func AnyRole(roles ...domain.Role) Requirement { return Requirement{Roles: roles} }

// Satisfied decides the requirement for an optional principal.
func (r Requirement) Satisfied(p *Principal) error {
	if r.Public {
		return nil
	}
	if p == nil {
		return ErrUnauthenticated
	}
	if len(r.Roles) == 0 {
		return nil
	}
	return RequireRole(*p, r.Roles...)
}

// AccessRule maps a method and path pattern to a Requirement. An empty Method
// matches every method.
type AccessRule struct {
	Method  string
	Pattern string
	Require Requirement

	segments []string
}

const (
	segLiteral = iota
	segParam
	segRest
)

func segmentKind(s string) int {
	switch {
	case s == "**":
		return segRest
	case s == "*", strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}"):
		return segParam
	default:
		return segLiteral
	}
}

// splitPath splits p into segments exactly as the router matches it: one
// trailing slash is ignored and nothing else is rewritten. "." and ".." stay
// literal segments because fiber routes the raw path.
func splitPath(p string) []string {
	p = strings.TrimSuffix(strings.TrimPrefix(p, "/"), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func (r AccessRule) matches(method string, segs []string) bool {
	if r.Method != "" && r.Method != method {
		return false
	}
	for i, pat := range r.segments {
		switch segmentKind(pat) {
		case segRest:
			return true
		case segParam:
			if i >= len(segs) {
				return false
			}
		default:
			if i >= len(segs) || segs[i] != pat {
				return false
			}
		}
	}
	return len(segs) == len(r.segments)
}

func (r AccessRule) hasRest() bool {
	n := len(r.segments)
	return n > 0 && r.segments[n-1] == "**"
}

// moreSpecific reports whether a must be tried before b.
func moreSpecific(a, b AccessRule) bool {
	n := len(a.segments)
	if len(b.segments) < n {
		n = len(b.segments)
	}
	for i := 0; i < n; i++ {
		ka, kb := segmentKind(a.segments[i]), segmentKind(b.segments[i])
		if ka != kb {
			return ka < kb
		}
	}
	if a.hasRest() != b.hasRest() {
		return !a.hasRest()
	}
	if len(a.segments) != len(b.segments) {
		return len(a.segments) > len(b.segments)
	}
	return a.Method != "" && b.Method == ""
}

// Policy is the static route table. It is immutable after NewPolicy and safe
// for concurrent use.
type Policy struct {
	rules []AccessRule
}

// NewPolicy validates rules and orders them most specific first. Rules of
// equal specificity keep their table order.
func NewPolicy(rules []AccessRule) (*Policy, error) {
	ordered := make([]AccessRule, 0, len(rules))
	for i, r := range rules {
		if !strings.HasPrefix(r.Pattern, "/") {
			return nil, fmt.Errorf("rule %d: pattern %q must start with /", i, r.Pattern)
		}
		r.Method = strings.ToUpper(strings.TrimSpace(r.Method))
		if r.Method == "*" {
			r.Method = ""
		}
		r.segments = splitPath(r.Pattern)
		for j, s := range r.segments {
			switch s {
			case "", ".", "..":
				return nil, fmt.Errorf("rule %d: pattern %q has an empty or dot segment", i, r.Pattern)
			case "**":
				if j != len(r.segments)-1 {
					return nil, fmt.Errorf("rule %d: ** is only allowed as the last segment", i)
				}
			}
		}
		for _, role := range r.Require.Roles {
			if !role.Valid() {
				return nil, fmt.Errorf("rule %d: unknown role %q", i, role)
			}
		}
		ordered = append(ordered, r)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return moreSpecific(ordered[i], ordered[j])
	})
	return &Policy{rules: ordered}, nil
}

// Rules returns the rules in evaluation order.
func (p *Policy) Rules() []AccessRule {
	out := make([]AccessRule, len(p.rules))
	copy(out, p.rules)
	return out
}

// Match returns the requirement for method and path. OPTIONS is always
// public; unmatched requests need an authenticated caller.
func (p *Policy) Match(method, reqPath string) Requirement {
	method = strings.ToUpper(method)
	if method == "OPTIONS" {
		return PublicAccess()
	}
	segs := splitPath(reqPath)
	for _, r := range p.rules {
		if r.matches(method, segs) {
			return r.Require
		}
	}
	return Authenticated()
}

// Check is the static authorization decision. It returns nil,
// ErrUnauthenticated or ErrInsufficientRole.
func (p *Policy) Check(method, reqPath string, principal *Principal) error {
	return p.Match(method, reqPath).Satisfied(principal)
}
