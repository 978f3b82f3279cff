package server

import (
	"net/http"

	"github.com/vcubone/library-boot/internal/apperr"
	"github.com/vcubone/library-boot/internal/auth"
	"github.com/vcubone/library-boot/internal/db/models"
)

type homeResponse struct {
	Principal string   `json:"principal"`
	Roles     []string `json:"roles,omitempty"`
	Admin     bool     `json:"admin"`
}

type loginPageResponse struct {
	Action string `json:"action"`
	Failed bool   `json:"failed"`
}

func handleHome(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())
	resp := homeResponse{Principal: p.String(), Admin: p.HasRole(models.RoleAdmin)}
	if id, ok := p.Identity(); ok {
		resp.Roles = id.Roles
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLoginPage describes the login form; the failure redirect carries
// an "error" query parameter.
func handleLoginPage(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, failed := r.URL.Query()["error"]
		writeJSON(w, http.StatusOK, loginPageResponse{Action: action, Failed: failed})
	}
}

func handleAdminHome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, "admin")
}

func handleError(w http.ResponseWriter, _ *http.Request) {
	apperr.WriteStatus(w, http.StatusOK, "error")
}

func handleAPIIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"auth":    "/api/auth",
		"books":   "/api/books",
		"people":  "/api/people",
		"account": "/api/account",
	})
}
