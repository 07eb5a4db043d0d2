package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unowned-ai/daybook/pkg/journal"
	"github.com/unowned-ai/daybook/pkg/logging"
	"github.com/unowned-ai/daybook/pkg/stores"
)

type tagHandler struct {
	store *stores.TagStore
	repo  *journal.TagRepository
	log   logging.Logger
}

func (h *tagHandler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.store.Tags(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (h *tagHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, ok, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if !ok {
		writeError(w, r, h.log, fmt.Errorf("%w: %s", journal.ErrTagNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *tagHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in journal.NewTag
	if !decodeJSON(w, r, &in) {
		return
	}
	t, err := h.store.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *tagHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p journal.TagPatch
	if !decodeJSON(w, r, &p) {
		return
	}
	t, err := h.store.Update(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *tagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tagCountResp struct {
	TagID   string `json:"tag_id"`
	Entries int    `json:"entries"`
}

// Count reports how many live entries carry the tag.
func (h *tagHandler) Count(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.repo.GetByID(r.Context(), id); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	n, err := h.repo.GetEntryCountForTag(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, tagCountResp{TagID: id, Entries: n})
}
