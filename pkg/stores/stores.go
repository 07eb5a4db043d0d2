// Package stores keeps cached copies of repository results for readers that
// render them, such as the HTTP API. Every write goes through the repository
// and then invalidates the affected lists; Load always refetches.
package stores

import (
	"context"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/unowned-ai/daybook/pkg/journal"
	"github.com/unowned-ai/daybook/pkg/logging"
)

// DefaultTTL bounds how long a cached list is served without a reload.
const DefaultTTL = 5 * time.Minute

const (
	keyEntries    = "entries"
	keyDeleted    = "entries:deleted"
	keyTags       = "tags"
	keyCategories = "categories"
)

// CacheRecorder receives cache hits and misses. *metrics.Metrics implements it.
type CacheRecorder interface {
	ObserveCacheLookup(store string, hit bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCacheLookup(string, bool) {}

type options struct {
	ttl      time.Duration
	log      logging.Logger
	recorder CacheRecorder
}

type Option func(*options)

// WithTTL sets the cache lifetime. Zero or negative means DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

func WithLogger(log logging.Logger) Option {
	return func(o *options) { o.log = log }
}

func WithRecorder(r CacheRecorder) Option {
	return func(o *options) { o.recorder = r }
}

// Stores groups the application stores. They share one cache so a write in
// one store can invalidate lists held by another.
type Stores struct {
	Entries    *EntryStore
	Tags       *TagStore
	Categories *CategoryStore
	Search     *SearchStore
}

// New builds the stores over svc.
func New(svc *journal.Services, opts ...Option) *Stores {
	c := newShared(opts)
	return &Stores{
		Entries:    &EntryStore{repo: svc.Entries, c: c},
		Tags:       &TagStore{repo: svc.Tags, c: c},
		Categories: &CategoryStore{repo: svc.Categories, c: c},
		Search:     NewSearchStore(svc.Search),
	}
}

func newShared(opts []Option) *shared {
	o := options{ttl: DefaultTTL, log: logging.Nop(), recorder: nopRecorder{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ttl <= 0 {
		o.ttl = DefaultTTL
	}
	if o.log == nil {
		o.log = logging.Nop()
	}
	if o.recorder == nil {
		o.recorder = nopRecorder{}
	}

	// No cleanup interval: expired items are dropped on read and no janitor
	// goroutine is started.
	return &shared{cache: cache.New(o.ttl, 0), opts: o}
}

type shared struct {
	cache *cache.Cache
	opts  options
}

// cached returns a copy of the list under key, loading it on a miss.
func cached[T any](ctx context.Context, c *shared, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if v, ok := c.cache.Get(key); ok {
		c.opts.recorder.ObserveCacheLookup(key, true)
		return slices.Clone(v.([]T)), nil
	}
	c.opts.recorder.ObserveCacheLookup(key, false)
	return reload(ctx, c, key, load)
}

// reload fetches the list under key and caches it.
func reload[T any](ctx context.Context, c *shared, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	items, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, items)
	return slices.Clone(items), nil
}

func (c *shared) invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		c.cache.Delete(key)
	}
	c.opts.log.Debug(ctx, "store cache invalidated", "keys", keys)
}
