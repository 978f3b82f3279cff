package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vcubone/library-boot/internal/apperr"
	"github.com/vcubone/library-boot/internal/auth"
)

// statusOK is the body of successful mutations.
const statusOK = "OK"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, statusOK)
}

// decodeJSON reads the request body into v. A malformed body is a
// Validation error.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Wrap(apperr.KindValidation, "malformed request body", err)
	}
	return nil
}

// pathID parses the named chi URL parameter as an id.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.Validation(fmt.Sprintf("invalid %s %q", name, raw))
	}
	return id, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("invalid %s %q", name, raw))
	}
	return &v, nil
}

// queryInt64 parses an optional id query parameter.
func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("invalid %s %q", name, raw))
	}
	return &v, nil
}

// caller returns the authenticated identity of the request. The access
// policy guarantees one on every route that calls it.
func caller(r *http.Request) (auth.Identity, error) {
	id, ok := auth.PrincipalFrom(r.Context()).Identity()
	if !ok {
		return auth.Identity{}, apperr.Authentication("Full authentication is required to access this resource")
	}
	return id, nil
}

// formInt parses an integer form field. A missing field is zero.
func formInt(r *http.Request, name string) (int, error) {
	raw := r.PostFormValue(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation(fmt.Sprintf("invalid %s %q", name, raw))
	}
	return v, nil
}
