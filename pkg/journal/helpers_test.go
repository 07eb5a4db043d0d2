package journal

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unowned-ai/daybook/pkg/db"
)

var baseTime = time.Date(2024, time.March, 14, 9, 30, 0, 0, time.UTC)

// testClock is a settable clock shared by the repositories under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestManager(t *testing.T) *db.Manager {
	t.Helper()
	m := db.NewManager(db.Options{Driver: db.DriverModernc, Path: ":memory:", Sync: "NORMAL"}, nil)
	require.NoError(t, m.Initialize(context.Background()))
	t.Cleanup(func() { m.Close() })
	return m
}

func setupServices(t *testing.T, opts ...Option) (*Services, *db.Manager, *testClock) {
	t.Helper()
	m := newTestManager(t)
	clock := &testClock{now: baseTime}
	opts = append([]Option{WithClock(clock.Now), WithLocation(time.UTC)}, opts...)
	return NewServices(m, opts...), m, clock
}

// noIndex hides the FTS index so the substring path is taken.
type noIndex struct {
	Database
}

func (noIndex) SearchIndexAvailable() bool { return false }

func rawDB(t *testing.T, m *db.Manager) *sql.DB {
	t.Helper()
	conn, err := m.DB()
	require.NoError(t, err)
	return conn
}

func ptr[T any](v T) *T {
	return &v
}

func entryIDs(entries []Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

func mustCreateEntry(t *testing.T, s *Services, in NewEntry) Entry {
	t.Helper()
	e, err := s.Entries.Create(context.Background(), in)
	require.NoError(t, err)
	return e
}

func mustCreateTag(t *testing.T, s *Services, name string) Tag {
	t.Helper()
	tag, err := s.Tags.Create(context.Background(), NewTag{Name: name})
	require.NoError(t, err)
	return tag
}
