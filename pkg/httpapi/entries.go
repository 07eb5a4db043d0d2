package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/unowned-ai/daybook/pkg/journal"
	"github.com/unowned-ai/daybook/pkg/logging"
	"github.com/unowned-ai/daybook/pkg/stores"
)

const dateLayout = "2006-01-02"

type entryHandler struct {
	store         *stores.EntryStore
	tags          *stores.TagStore
	repo          *journal.EntryRepository
	log           logging.Logger
	loc           *time.Location
	retentionDays int
}

// List answers GET /entries. ?tag, ?mood and ?category narrow the cached
// list; ?from and ?to (YYYY-MM-DD, inclusive) query a date range instead.
func (h *entryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Has("from") || q.Has("to") {
		start, end, ok := h.dateRange(w, q.Get("from"), q.Get("to"))
		if !ok {
			return
		}
		entries, err := h.repo.GetByDateRange(r.Context(), start, end)
		if err != nil {
			writeError(w, r, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
		return
	}

	mood, err := journal.ParseMood(q.Get("mood"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	entries, err := h.store.Filtered(r.Context(), stores.EntryFilter{
		TagID:      q.Get("tag"),
		Mood:       mood,
		CategoryID: q.Get("category"),
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *entryHandler) dateRange(w http.ResponseWriter, from, to string) (time.Time, time.Time, bool) {
	start := time.Time{}
	end := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	if from != "" {
		t, err := time.ParseInLocation(dateLayout, from, h.loc)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid from (YYYY-MM-DD)")
			return start, end, false
		}
		start = t
	}
	if to != "" {
		t, err := time.ParseInLocation(dateLayout, to, h.loc)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid to (YYYY-MM-DD)")
			return start, end, false
		}
		end = t.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	return start, end, true
}

// Get answers for live and trashed entries alike.
func (h *entryHandler) Get(w http.ResponseWriter, r *http.Request) {
	e, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *entryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in journal.NewEntry
	if !decodeJSON(w, r, &in) {
		return
	}
	e, err := h.store.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *entryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p journal.EntryPatch
	if !decodeJSON(w, r, &p) {
		return
	}
	e, err := h.store.Update(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// Delete moves the entry to the trash.
func (h *entryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *entryHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Restore(r.Context(), id); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	h.Get(w, r)
}

func (h *entryHandler) PermanentDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.PermanentDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setTagsReq struct {
	TagIDs []string `json:"tag_ids"`
}

// SetTags replaces the entry's whole tag set.
func (h *entryHandler) SetTags(w http.ResponseWriter, r *http.Request) {
	var req setTagsReq
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.tags.SetTagsForEntry(r.Context(), chi.URLParam(r, "id"), req.TagIDs); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	h.Get(w, r)
}

func (h *entryHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	if err := h.tags.AddTagToEntry(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "tagID")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	h.Get(w, r)
}

func (h *entryHandler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	if err := h.tags.RemoveTagFromEntry(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "tagID")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	h.Get(w, r)
}

func (h *entryHandler) Trash(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.Deleted(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type purgeResp struct {
	Days   int   `json:"days"`
	Purged int64 `json:"purged"`
}

// Purge empties trash older than ?days, defaulting to the retention window.
// days=0 empties the whole trash.
func (h *entryHandler) Purge(w http.ResponseWriter, r *http.Request) {
	days := h.retentionDays
	if s := r.URL.Query().Get("days"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeMessage(w, http.StatusBadRequest, "days must be zero or a positive integer")
			return
		}
		days = n
	}

	n, err := h.store.PurgeOldDeleted(r.Context(), days)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	h.log.Info(r.Context(), "trash purged", "days", days, "purged", n)
	writeJSON(w, http.StatusOK, purgeResp{Days: days, Purged: n})
}
