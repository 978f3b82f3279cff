package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vcubone/library-boot/internal/apperr"
	"github.com/vcubone/library-boot/internal/services/people"
)

// PeopleHandlers serves the admin people routes of both surfaces.
type PeopleHandlers struct {
	people *people.Service
}

// NewPeopleHandlers creates the people handlers.
func NewPeopleHandlers(svc *people.Service) *PeopleHandlers {
	return &PeopleHandlers{people: svc}
}

// Mount registers the routes under /people on r.
func (h *PeopleHandlers) Mount(r chi.Router) {
	r.Route("/people", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/new", h.create)
		r.Get("/roles", h.roles)
		r.Get("/{id}", h.get)
		r.Patch("/{id}/edit", h.update)
		r.Patch("/{id}/credentials/edit", h.changePassword)
		r.Patch("/{id}/edit/addrole", h.addRole)
		r.Patch("/{id}/edit/deleterole", h.removeRole)
		r.Delete("/{id}", h.delete)
	})
}

func (h *PeopleHandlers) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.people.List(r.Context())
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeople(list))
}

func (h *PeopleHandlers) roles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.people.Roles(r.Context())
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoles(roles))
}

func (h *PeopleHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if err := decodeJSON(r, &req); err != nil {
		apperr.Write(w, err)
		return
	}
	if _, err := h.people.Register(r.Context(), people.RegisterInput(req)); err != nil {
		apperr.Write(w, err)
		return
	}
	writeOK(w)
}

func (h *PeopleHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	person, err := h.people.Get(r.Context(), id)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPerson(person))
}

func (h *PeopleHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		apperr.Write(w, err)
		return
	}
	if err := h.people.Update(r.Context(), id, people.UpdateInput(req)); err != nil {
		apperr.Write(w, err)
		return
	}
	writeOK(w)
}

func (h *PeopleHandlers) changePassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		apperr.Write(w, err)
		return
	}
	if err := h.people.ChangePassword(r.Context(), id, req.Password); err != nil {
		apperr.Write(w, err)
		return
	}
	writeOK(w)
}

func (h *PeopleHandlers) addRole(w http.ResponseWriter, r *http.Request) {
	h.mutateRole(w, r, h.people.AddRole)
}

func (h *PeopleHandlers) removeRole(w http.ResponseWriter, r *http.Request) {
	h.mutateRole(w, r, h.people.RemoveRole)
}

func (h *PeopleHandlers) mutateRole(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id int64, role string) (int, error)) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	var req roleRequest
	if err := decodeJSON(r, &req); err != nil {
		apperr.Write(w, err)
		return
	}
	if req.Name == "" {
		apperr.Write(w, apperr.Validation("name - name shouldn't be empty;"))
		return
	}
	if _, err := apply(r.Context(), id, req.Name); err != nil {
		apperr.Write(w, err)
		return
	}
	writeOK(w)
}

func (h *PeopleHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	if err := h.people.Delete(r.Context(), id); err != nil {
		apperr.Write(w, err)
		return
	}
	writeOK(w)
}
