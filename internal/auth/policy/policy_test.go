package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vcubone/library-boot/internal/auth"
	"github.com/vcubone/library-boot/internal/db/models"
)

var (
	anonymous = auth.Anonymous()
	user      = auth.Authenticated(auth.NewIdentity(1, "user", []string{models.RoleUser}, 1))
	admin     = auth.Authenticated(auth.NewIdentity(2, "admin", []string{models.RoleAdmin}, 1))
	both      = auth.Authenticated(auth.NewIdentity(3, "both", []string{models.RoleUser, models.RoleAdmin}, 1))
)

func TestPatternMatch(t *testing.T) {
	tests := []struct {
		name    string
		pattern Pattern
		path    string
		want    bool
	}{
		{"exact hit", Exact("/books"), "/books", true},
		{"exact trailing slash", Exact("/books"), "/books/", false},
		{"exact child", Exact("/books"), "/books/1", false},
		{"prefix itself", Prefix("/webjars/**"), "/webjars", true},
		{"prefix slash", Prefix("/webjars/**"), "/webjars/", true},
		{"prefix nested", Prefix("/webjars/**"), "/webjars/a/b.js", true},
		{"prefix sibling", Prefix("/webjars/**"), "/webjarsX", false},
		{"regexp numeric", Regexp(`/books/-?\d+`), "/books/42", true},
		{"regexp negative", Regexp(`/books/-?\d+`), "/books/-1", true},
		{"regexp anchored end", Regexp(`/books/-?\d+`), "/books/42/release", false},
		{"regexp anchored start", Regexp(`/books/-?\d+`), "/api/books/42", false},
		{"regexp non numeric", Regexp(`/books/-?\d+`), "/books/new", false},
		{"regexp alternation anchored", Regexp(`/a|/b`), "/b/c", false},
		{"account subtree", Regexp(`/account/.+`), "/account/main", true},
		{"account root", Regexp(`/account/.+`), "/account/", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pattern.Match(tt.path))
		})
	}
}

func TestRequirementDecide(t *testing.T) {
	assert.Equal(t, Allow, Public().Decide(anonymous))
	assert.Equal(t, Unauthenticated, RequiresAnyAuthenticated().Decide(anonymous))
	assert.Equal(t, Allow, RequiresAnyAuthenticated().Decide(user))
	assert.Equal(t, Unauthenticated, RequiresRole(models.RoleUser).Decide(anonymous))
	assert.Equal(t, Allow, RequiresRole(models.RoleUser).Decide(user))
	assert.Equal(t, Forbidden, RequiresRole(models.RoleAdmin).Decide(user))
	// Roles are an explicit set test: admin does not imply user.
	assert.Equal(t, Forbidden, RequiresRole(models.RoleUser).Decide(admin))
}

func TestChainFirstMatchWins(t *testing.T) {
	c := &Chain{
		Rules: []Rule{
			{Pattern: Exact("/x"), Requirement: Public()},
			{Pattern: Exact("/x"), Requirement: RequiresRole(models.RoleAdmin)},
		},
		Default: RequiresRole(models.RoleAdmin),
	}

	d, rule := c.Evaluate("/x", anonymous)
	assert.Equal(t, Allow, d)
	assert.Equal(t, RequirePublic, rule.Requirement.Kind)

	d, rule = c.Evaluate("/unlisted", user)
	assert.Equal(t, Forbidden, d)
	assert.Equal(t, RequiresRole(models.RoleAdmin), rule.Requirement)
}

func TestAPIChain(t *testing.T) {
	chain := APIChain()

	tests := []struct {
		path      string
		principal auth.Principal
		want      Decision
	}{
		{"/api/books", anonymous, Allow},
		{"/api/books/7", anonymous, Allow},
		{"/api/books/-7", anonymous, Allow},
		{"/api/books/search", anonymous, Allow},
		{"/api/auth/register", anonymous, Allow},
		{"/api/auth/login", anonymous, Allow},
		{"/api/error", anonymous, Allow},
		{"/api", anonymous, Allow},

		{"/api/books/7/release", anonymous, Unauthenticated},
		{"/api/books/7/release", user, Allow},
		{"/api/books/7/addowner", user, Allow},
		{"/api/books/7/addowner", admin, Forbidden},
		{"/api/books/7/addowner", both, Allow},
		{"/api/account/main", user, Allow},
		{"/api/account/credentials/edit", user, Allow},
		{"/api/account/main", anonymous, Unauthenticated},

		{"/api/books/new", user, Forbidden},
		{"/api/books/new", admin, Allow},
		{"/api/books/7/edit", user, Forbidden},
		{"/api/people", user, Forbidden},
		{"/api/people", admin, Allow},
		{"/api/people/1/edit/addrole", anonymous, Unauthenticated},
		{"/api/anything/else", admin, Allow},
		{"/books", anonymous, Unauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.principal.String(), func(t *testing.T) {
			got, _ := chain.Evaluate(tt.path, tt.principal)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWebChain(t *testing.T) {
	chain := WebChain(WebPaths{LoginPage: "/signin", LoginProcessing: "/process_login", Logout: "/logout"})

	tests := []struct {
		path      string
		principal auth.Principal
		want      Decision
	}{
		{"/", anonymous, Allow},
		{"/books", anonymous, Allow},
		{"/books/3", anonymous, Allow},
		{"/books/search", anonymous, Allow},
		{"/auth/login", anonymous, Allow},
		{"/auth/register", anonymous, Allow},
		{"/signin", anonymous, Allow},
		{"/process_login", anonymous, Allow},
		{"/logout", anonymous, Allow},
		{"/error", anonymous, Allow},
		{"/health", anonymous, Allow},

		{"/swagger-ui.html", anonymous, Allow},
		{"/swagger-ui/index.html", anonymous, Allow},
		{"/v3/api-docs", anonymous, Allow},
		{"/v3/api-docs/swagger-config", anonymous, Allow},
		{"/webjars/x.js", anonymous, Allow},
		{"/swagger-resources", anonymous, Allow},
		{"/swagger-resources/configuration/ui", anonymous, Allow},
		{"/v2/api-docs", anonymous, Allow},

		{"/books/3/release", user, Allow},
		{"/books/3/addowner", anonymous, Unauthenticated},
		{"/account/main", user, Allow},
		{"/account/main", admin, Forbidden},

		{"/books/new", user, Forbidden},
		{"/books/3/edit", user, Forbidden},
		{"/people", admin, Allow},
		{"/admin", user, Forbidden},
		{"/admin", anonymous, Unauthenticated},
		{"/api/books", anonymous, Unauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.principal.String(), func(t *testing.T) {
			got, _ := chain.Evaluate(tt.path, tt.principal)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWebChain_SkipsEmptyPaths(t *testing.T) {
	chain := WebChain(WebPaths{})
	got, _ := chain.Evaluate("", anonymous)
	assert.Equal(t, Unauthenticated, got)
}

func TestChain_BookDetailIsReadOnly(t *testing.T) {
	tests := []struct {
		chain  *Chain
		method string
		path   string
		want   Decision
	}{
		{APIChain(), "GET", "/api/books/7", Allow},
		{APIChain(), "HEAD", "/api/books/7", Allow},
		{APIChain(), "DELETE", "/api/books/7", Unauthenticated},
		{WebChain(WebPaths{}), "DELETE", "/books/7", Unauthenticated},
		{WebChain(WebPaths{}), "PATCH", "/books/7/release", Unauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			got, _ := tt.chain.EvaluateRequest(tt.method, tt.path, anonymous)
			assert.Equal(t, tt.want, got)
		})
	}

	got, _ := APIChain().EvaluateRequest("DELETE", "/api/books/7", user)
	assert.Equal(t, Forbidden, got)
	got, _ = APIChain().EvaluateRequest("DELETE", "/api/books/7", admin)
	assert.Equal(t, Allow, got)
}
