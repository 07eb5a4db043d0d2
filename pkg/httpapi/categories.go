package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unowned-ai/daybook/pkg/journal"
	"github.com/unowned-ai/daybook/pkg/logging"
	"github.com/unowned-ai/daybook/pkg/stores"
)

type categoryHandler struct {
	store *stores.CategoryStore
	log   logging.Logger
}

func (h *categoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.Categories(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *categoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, ok, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if !ok {
		writeError(w, r, h.log, fmt.Errorf("%w: %s", journal.ErrCategoryNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *categoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in journal.NewCategory
	if !decodeJSON(w, r, &in) {
		return
	}
	c, err := h.store.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *categoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p journal.CategoryPatch
	if !decodeJSON(w, r, &p) {
		return
	}
	c, err := h.store.Update(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete removes the category; its entries are kept without one.
func (h *categoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reorderReq struct {
	IDs []string `json:"ids"`
}

func (h *categoryHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.store.Reorder(r.Context(), req.IDs); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	h.List(w, r)
}
