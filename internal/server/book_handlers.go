package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vcubone/library-boot/internal/apperr"
	"github.com/vcubone/library-boot/internal/auth"
	"github.com/vcubone/library-boot/internal/services/books"
)

// BookHandlers serves the catalog routes of both surfaces.
type BookHandlers struct {
	books *books.Service
}

// NewBookHandlers creates the catalog handlers.
func NewBookHandlers(svc *books.Service) *BookHandlers {
	return &BookHandlers{books: svc}
}

// Mount registers the routes under /books on r.
func (h *BookHandlers) Mount(r chi.Router) {
	r.Route("/books", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/search", h.search)
		r.Post("/new", h.create)
		r.Get("/{id}", h.get)
		r.Patch("/{id}/edit", h.update)
		r.Delete("/{id}", h.delete)
		r.Patch("/{id}/addowner", h.addOwner)
		r.Patch("/{id}/release", h.release)
	})
}

func (h *BookHandlers) list(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	size, err := queryInt(r, "itemsPerPage")
	if err != nil {
		apperr.Write(w, err)
		return
	}

	list, err := h.books.List(r.Context(), books.ListOptions{
		SortByYear:   r.URL.Query().Get("sortByYear") == "true",
		Page:         page,
		ItemsPerPage: size,
	})
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBooks(list))
}

func (h *BookHandlers) search(w http.ResponseWriter, r *http.Request) {
	found, err := h.books.Search(r.Context(), r.URL.Query().Get("findRequest"))
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBooks(found))
}

func (h *BookHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	book, err := h.books.GetFor(r.Context(), id, auth.PrincipalFrom(r.Context()))
	if err != nil {
		apperr.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBook(book))
}

func (h *BookHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decodeJSON(r, &req); err != nil {
		apperr.Write(w, err)
		return
	}
	if _, err := h.books.Create(r.Context(), books.Input(req)); err != nil {
		apperr.Write(w, err)
		return
	}
	writeOK(w)
}

func (h *BookHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	var req bookRequest
	if err := decodeJSON(r, &req); err != nil {
		apperr.Write(w, err)
		return
	}
	if err := h.books.Update(r.Context(), id, books.Input(req)); err != nil {
		apperr.Write(w, err)
		return
	}
	writeOK(w)
}

func (h *BookHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	if err := h.books.Delete(r.Context(), id); err != nil {
		apperr.Write(w, err)
		return
	}
	writeOK(w)
}

func (h *BookHandlers) addOwner(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	ownerID, err := queryInt64(r, "ownersId")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	who, err := caller(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	if err := h.books.AddOwner(r.Context(), id, who, ownerID); err != nil {
		apperr.Write(w, err)
		return
	}
	writeOK(w)
}

func (h *BookHandlers) release(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		apperr.Write(w, err)
		return
	}
	who, err := caller(r)
	if err != nil {
		apperr.Write(w, err)
		return
	}
	if err := h.books.Release(r.Context(), id, who); err != nil {
		apperr.Write(w, err)
		return
	}
	writeOK(w)
}
