package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vcubone/library-boot/internal/apperr"
	"github.com/vcubone/library-boot/internal/services/people"
)

// AccountHandlers serves the self-service routes of the signed-in person.
type AccountHandlers struct {
	people *people.Service
}

// NewAccountHandlers creates the account handlers.
func NewAccountHandlers(svc *people.Service) *AccountHandlers {
	return &AccountHandlers{people: svc}
}

// Mount registers the routes under /account on r.
func (h *AccountHandlers) Mount(r chi.Router) {
	r.Route("/account", func(r chi.Router) {
		r.Get("/main", h.main)
		r.Patch("/edit", h.update)
		r.Patch("/credentials/edit", h.changePassword)
	})
}

func (h *AccountHandlers) main(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	person, err := h.people.GetByUsername(r.Context(), who.Username)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	books, err := h.people.Books(r.Context(), person.ID)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	person.Books = books
	writeJSON(w, http.StatusOK, toPerson(person))
}

func (h *AccountHandlers) update(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		apperr.Write(w, err)
		return
	}
	if err := h.people.UpdateByUsername(r.Context(), who.Username, people.UpdateInput(req)); err != nil {
		apperr.Write(w, err)
		return
	}
	writeOK(w)
}

// changePassword expires every session of the caller, the current one included.
func (h *AccountHandlers) changePassword(w http.ResponseWriter, r *http.Request) {
	who, err := caller(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		apperr.Write(w, err)
		return
	}
	if err := h.people.ChangePasswordByUsername(r.Context(), who.Username, req.Password); err != nil {
		apperr.Write(w, err)
		return
	}
	writeOK(w)
}
