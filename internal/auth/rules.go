package auth

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/kconnect-service/internal/domain"
)

// DefaultRules is the access table the service ships with.
func DefaultRules() []AccessRule {
	admin := AnyRole(domain.RoleAdmin)
	staff := AnyRole(domain.RoleAdmin, domain.RoleEmployee)

	return []AccessRule{
		{Pattern: "/auth/**", Require: PublicAccess()},
		{Method: "GET", Pattern: "/health/**", Require: PublicAccess()},

		{Method: "GET", Pattern: "/employees", Require: admin},
		{Method: "POST", Pattern: "/employees", Require: admin},
		{Method: "GET", Pattern: "/employees/{id}", Require: staff},
		{Method: "PUT", Pattern: "/employees/{id}", Require: staff},
		{Method: "DELETE", Pattern: "/employees/{id}", Require: admin},

		{Method: "GET", Pattern: "/departments/**", Require: staff},
		{Method: "POST", Pattern: "/departments/**", Require: admin},
		{Method: "PUT", Pattern: "/departments/**", Require: admin},
		{Method: "DELETE", Pattern: "/departments/**", Require: admin},

		{Method: "GET", Pattern: "/reports/department/{departmentId}", Require: admin},
		{Method: "GET", Pattern: "/reports/**", Require: staff},
		{Method: "POST", Pattern: "/reports/**", Require: staff},
		{Method: "PUT", Pattern: "/reports/**", Require: staff},
		{Method: "DELETE", Pattern: "/reports/**", Require: admin},
	}
}

type ruleFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	Method  string   `yaml:"method"`
	Pattern string   `yaml:"pattern"`
	Public  bool     `yaml:"public"`
	Roles   []string `yaml:"roles"`
}

// LoadRules decodes an access table from YAML:
//
//	rules:
//	  - pattern: /auth/**
//	    public: true
//	  - method: GET
//	    pattern: /employees
//	    roles: [ADMIN]
func LoadRules(r io.Reader) ([]AccessRule, error) {
	var file ruleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode access rules: %w", err)
	}

	rules := make([]AccessRule, 0, len(file.Rules))
	for i, e := range file.Rules {
		if e.Public && len(e.Roles) > 0 {
			return nil, fmt.Errorf("rule %d: public rules cannot list roles", i)
		}
		req := Requirement{Public: e.Public}
		for _, name := range e.Roles {
			role, err := domain.ParseRole(name)
			if err != nil {
				return nil, fmt.Errorf("rule %d: %w", i, err)
			}
			req.Roles = append(req.Roles, role)
		}
		rules = append(rules, AccessRule{Method: e.Method, Pattern: e.Pattern, Require: req})
	}
	return rules, nil
}

// PolicyFromFile builds the policy from a YAML file, or from DefaultRules when
// filename is empty.
func PolicyFromFile(filename string) (*Policy, error) {
	if filename == "" {
		return NewPolicy(DefaultRules())
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open access rules: %w", err)
	}
	defer f.Close()

	rules, err := LoadRules(f)
	if err != nil {
		return nil, err
	}
	return NewPolicy(rules)
}
