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

type searchHandler struct {
	store  *stores.SearchStore
	search *journal.SearchService
	log    logging.Logger
	loc    *time.Location
	limit  int
}

// Search answers GET /search?q=...&tag=...&mood=...&start=...&end=...&limit=...
// tag may repeat; start and end are YYYY-MM-DD and inclusive.
func (h *searchHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := h.limit
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeMessage(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	mood, err := journal.ParseMood(q.Get("mood"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	f := journal.SearchFilters{TagIDs: q["tag"], Mood: mood}
	if s := q.Get("start"); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, h.loc)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid start (YYYY-MM-DD)")
			return
		}
		f.StartDate = &t
	}
	if s := q.Get("end"); s != "" {
		t, err := time.ParseInLocation(dateLayout, s, h.loc)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid end (YYYY-MM-DD)")
			return
		}
		t = t.AddDate(0, 0, 1).Add(-time.Millisecond)
		f.EndDate = &t
	}

	results, err := h.store.Perform(r.Context(), q.Get("q"), f, limit)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *searchHandler) Recent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.History.Recent())
}

func (h *searchHandler) ClearRecent(w http.ResponseWriter, r *http.Request) {
	h.store.History.Clear()
	w.WriteHeader(http.StatusNoContent)
}

type monthResp struct {
	Year     int                    `json:"year"`
	Month    int                    `json:"month"`
	Days     []int                  `json:"days"`
	Moods    map[int][]journal.Mood `json:"moods"`
	Dominant map[int]journal.Mood   `json:"dominant"`
}

// Month answers GET /calendar/{year}/{month} with the days that have entries
// and the moods recorded on each.
func (h *searchHandler) Month(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1 {
		writeMessage(w, http.StatusBadRequest, "invalid year")
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		writeMessage(w, http.StatusBadRequest, "invalid month")
		return
	}

	days, err := h.search.GetDatesWithEntries(r.Context(), year, time.Month(month))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	moods, err := h.search.GetMoodsByDate(r.Context(), year, time.Month(month))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	dominant := make(map[int]journal.Mood, len(moods))
	for day, list := range moods {
		dominant[day] = journal.DominantMood(list)
	}
	writeJSON(w, http.StatusOK, monthResp{
		Year:     year,
		Month:    month,
		Days:     days,
		Moods:    moods,
		Dominant: dominant,
	})
}

func (h *searchHandler) Day(w http.ResponseWriter, r *http.Request) {
	date, err := time.ParseInLocation(dateLayout, chi.URLParam(r, "date"), h.loc)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid date (YYYY-MM-DD)")
		return
	}
	entries, err := h.search.GetEntriesByDate(r.Context(), date)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
