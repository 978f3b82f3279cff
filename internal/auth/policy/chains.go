package policy

import (
	"github.com/vcubone/library-boot/internal/db/models"
)

// APIPrefix is the namespace of the stateless surface.
const APIPrefix = "/api"

// WebPaths are the configurable form-login paths of the stateful surface.
type WebPaths struct {
	LoginPage       string
	LoginProcessing string
	Logout          string
}

// APIChain returns the rules for the stateless bearer-token surface.
func APIChain() *Chain {
	var r []Rule
	r = append(r, readOnly(rules(Public(),
		Regexp(`/api/books/-?\d+`),
	))...)
	r = append(r, rules(Public(),
		Exact("/api/auth/register"),
		Exact("/api/auth/login"),
		Exact("/api/error"),
		Exact("/api"),
		Exact("/api/books"),
		Exact("/api/books/search"),
	)...)
	r = append(r, rules(RequiresRole(models.RoleUser),
		Regexp(`/api/books/\d+/addowner`),
		Regexp(`/api/books/\d+/release`),
		Regexp(`/api/account/.+`),
	)...)

	return &Chain{Name: "api", Rules: r, Default: adminDefault()}
}

// WebChain returns the rules for the stateful session surface.
func WebChain(web WebPaths) *Chain {
	var r []Rule
	r = append(r, readOnly(rules(Public(),
		Regexp(`/books/-?\d+`),
	))...)
	r = append(r, rules(Public(),
		Exact("/v2/api-docs"),
		Exact("/swagger-resources"),
		Prefix("/swagger-resources/**"),
		Exact("/configuration/ui"),
		Exact("/configuration/security"),
		Exact("/swagger-ui.html"),
		Prefix("/webjars/**"),
		Prefix("/v3/api-docs/**"),
		Prefix("/swagger-ui/**"),
	)...)

	public := []Pattern{
		Exact("/auth/register"),
		Exact("/auth/login"),
		Exact("/error"),
		Exact("/"),
		Exact("/books"),
		Exact("/books/search"),
		Exact("/health"),
	}
	for _, path := range []string{web.LoginPage, web.LoginProcessing, web.Logout} {
		if path != "" {
			public = append(public, Exact(path))
		}
	}
	r = append(r, rules(Public(), public...)...)

	r = append(r, rules(RequiresRole(models.RoleUser),
		Regexp(`/books/\d+/addowner`),
		Regexp(`/books/\d+/release`),
		Regexp(`/account/.+`),
	)...)

	return &Chain{Name: "web", Rules: r, Default: adminDefault()}
}
