// Package httpapi serves the journal over a local JSON HTTP API.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/unowned-ai/daybook/pkg/journal"
	"github.com/unowned-ai/daybook/pkg/logging"
	"github.com/unowned-ai/daybook/pkg/metrics"
	"github.com/unowned-ai/daybook/pkg/stores"
)

// Deps is everything the router needs. Lists are served from Stores; lookups
// that bypass the cache go to Services. Metrics, Log and Location are optional.
type Deps struct {
	Stores   *stores.Stores
	Services *journal.Services
	Metrics  *metrics.Metrics
	Log      logging.Logger
	Location *time.Location

	CORSOrigins   []string
	SearchLimit   int
	RetentionDays int
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = logging.Nop()
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.SearchLimit <= 0 {
		d.SearchLimit = journal.DefaultSearchLimit
	}
	if d.RetentionDays <= 0 {
		d.RetentionDays = journal.DefaultRetentionDays
	}
	d.Log = d.Log.With("component", "http")

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if d.Metrics != nil {
		r.Use(instrument(d.Metrics))
	}
	if len(d.CORSOrigins) > 0 {
		r.Use(corsHandler(d.CORSOrigins))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Get("/moods", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, journal.Moods())
	})

	eh := &entryHandler{store: d.Stores.Entries, tags: d.Stores.Tags, repo: d.Services.Entries, log: d.Log, loc: d.Location, retentionDays: d.RetentionDays}
	r.Route("/entries", func(r chi.Router) {
		r.Get("/", eh.List)
		r.Post("/", eh.Create)
		r.Get("/{id}", eh.Get)
		r.Patch("/{id}", eh.Update)
		r.Delete("/{id}", eh.Delete)
		r.Post("/{id}/restore", eh.Restore)
		r.Delete("/{id}/permanent", eh.PermanentDelete)
		r.Put("/{id}/tags", eh.SetTags)
		r.Put("/{id}/tags/{tagID}", eh.AddTag)
		r.Delete("/{id}/tags/{tagID}", eh.RemoveTag)
	})
	r.Route("/trash", func(r chi.Router) {
		r.Get("/", eh.Trash)
		r.Post("/purge", eh.Purge)
	})

	th := &tagHandler{store: d.Stores.Tags, repo: d.Services.Tags, log: d.Log}
	r.Route("/tags", func(r chi.Router) {
		r.Get("/", th.List)
		r.Post("/", th.Create)
		r.Get("/{id}", th.Get)
		r.Patch("/{id}", th.Update)
		r.Delete("/{id}", th.Delete)
		r.Get("/{id}/count", th.Count)
	})

	ch := &categoryHandler{store: d.Stores.Categories, log: d.Log}
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", ch.List)
		r.Post("/", ch.Create)
		r.Put("/order", ch.Reorder)
		r.Get("/{id}", ch.Get)
		r.Patch("/{id}", ch.Update)
		r.Delete("/{id}", ch.Delete)
	})

	sh := &searchHandler{store: d.Stores.Search, search: d.Services.Search, log: d.Log, loc: d.Location, limit: d.SearchLimit}
	r.Route("/search", func(r chi.Router) {
		r.Get("/", sh.Search)
		r.Get("/recent", sh.Recent)
		r.Delete("/recent", sh.ClearRecent)
	})
	r.Route("/calendar", func(r chi.Router) {
		r.Get("/{year}/{month}", sh.Month)
		r.Get("/day/{date}", sh.Day)
	})

	return r
}
