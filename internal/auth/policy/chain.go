package policy

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/vcubone/library-boot/internal/auth"
	"github.com/vcubone/library-boot/internal/db/models"
)

// RequirementKind enumerates what a rule demands of the principal.
type RequirementKind int

const (
	RequirePublic RequirementKind = iota
	RequireRole
	RequireAuthenticated
)

// Requirement is Public, RequiresRole(name) or RequiresAnyAuthenticated.
type Requirement struct {
	Kind RequirementKind
	Role string
}

// Public admits every principal including Anonymous.
func Public() Requirement { return Requirement{Kind: RequirePublic} }

// RequiresRole admits identities whose role set contains name.
func RequiresRole(name string) Requirement { return Requirement{Kind: RequireRole, Role: name} }

// RequiresAnyAuthenticated admits any authenticated identity.
func RequiresAnyAuthenticated() Requirement { return Requirement{Kind: RequireAuthenticated} }

func (r Requirement) String() string {
	switch r.Kind {
	case RequirePublic:
		return "public"
	case RequireRole:
		return "role:" + r.Role
	case RequireAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("requirement(%d)", r.Kind)
	}
}

// Decision is the outcome of evaluating a chain.
type Decision int

const (
	Allow Decision = iota
	Unauthenticated
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Decide applies the requirement to p.
func (r Requirement) Decide(p auth.Principal) Decision {
	if r.Kind == RequirePublic {
		return Allow
	}
	id, ok := p.Identity()
	if !ok {
		return Unauthenticated
	}
	switch r.Kind {
	case RequireAuthenticated:
		return Allow
	case RequireRole:
		if id.HasRole(r.Role) {
			return Allow
		}
	}
	return Forbidden
}

// Rule pairs a path pattern with its requirement. A rule with Methods
// set only matches requests using one of them.
type Rule struct {
	Pattern     Pattern
	Methods     []string
	Requirement Requirement
}

// Matches reports whether the rule applies to a request.
func (r Rule) Matches(method, path string) bool {
	if len(r.Methods) > 0 && !slices.Contains(r.Methods, method) {
		return false
	}
	return r.Pattern.Match(path)
}

// Chain is an ordered, first-match rule list.
type Chain struct {
	Name    string
	Rules   []Rule
	Default Requirement
}

// Evaluate is EvaluateRequest for a GET.
func (c *Chain) Evaluate(path string, p auth.Principal) (Decision, Rule) {
	return c.EvaluateRequest(http.MethodGet, path, p)
}

// EvaluateRequest returns the decision of the first rule matching the
// request, or of the default requirement. The returned rule is the one
// that decided.
func (c *Chain) EvaluateRequest(method, path string, p auth.Principal) (Decision, Rule) {
	for _, rule := range c.Rules {
		if rule.Matches(method, path) {
			return rule.Requirement.Decide(p), rule
		}
	}
	fallback := Rule{Pattern: Regexp(".*"), Requirement: c.Default}
	return c.Default.Decide(p), fallback
}

func rules(req Requirement, patterns ...Pattern) []Rule {
	out := make([]Rule, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, Rule{Pattern: p, Requirement: req})
	}
	return out
}

// readOnly restricts rules to safe methods.
func readOnly(in []Rule) []Rule {
	for i := range in {
		in[i].Methods = []string{http.MethodGet, http.MethodHead}
	}
	return in
}

func adminDefault() Requirement {
	return RequiresRole(models.RoleAdmin)
}
