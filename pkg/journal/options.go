package journal

import (
	"database/sql"
	"time"

	"github.com/unowned-ai/daybook/pkg/logging"
)

const (
	// DefaultRetentionDays is how long soft-deleted entries stay in the trash.
	DefaultRetentionDays = 30
	// DefaultSearchLimit caps result sets when the caller passes limit <= 0.
	DefaultSearchLimit = 50

	DefaultTagColor      = "#0D9488"
	DefaultCategoryColor = "#6366F1"
)

// Database hands out the shared connection. *db.Manager implements it.
type Database interface {
	DB() (*sql.DB, error)
	SearchIndexAvailable() bool
}

// Recorder receives repository and search activity. *metrics.Metrics implements it.
type Recorder interface {
	ObserveSearch(kind string, fallback bool, results int, elapsed time.Duration)
	ObserveMutation(entity, op string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSearch(string, bool, int, time.Duration) {}
func (nopRecorder) ObserveMutation(string, string)                 {}

type options struct {
	now     func() time.Time
	log     logging.Logger
	loc     *time.Location
	metrics Recorder
}

// Option configures the repositories and the search service.
type Option func(*options)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(log logging.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithLocation sets the time zone used for calendar days. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.loc = loc }
}

func WithRecorder(r Recorder) Option {
	return func(o *options) { o.metrics = r }
}

func buildOptions(component string, opts []Option) options {
	o := options{
		now:     time.Now,
		log:     logging.Nop(),
		loc:     time.Local,
		metrics: nopRecorder{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logging.Nop()
	}
	o.log = o.log.With("component", component)
	return o
}

// Services bundles the repositories built over one Database.
type Services struct {
	Entries    *EntryRepository
	Tags       *TagRepository
	Categories *CategoryRepository
	Search     *SearchService
}

func NewServices(db Database, opts ...Option) *Services {
	return &Services{
		Entries:    NewEntryRepository(db, opts...),
		Tags:       NewTagRepository(db, opts...),
		Categories: NewCategoryRepository(db, opts...),
		Search:     NewSearchService(db, opts...),
	}
}
