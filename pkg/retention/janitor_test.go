package retention

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/unowned-ai/daybook/pkg/db"
	"github.com/unowned-ai/daybook/pkg/journal"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// database/sql keeps one opener goroutine per open *sql.DB.
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}

type fakePurger struct {
	mu    sync.Mutex
	calls []int
	err   error
	n     int64
}

func (f *fakePurger) PurgeOldDeleted(_ context.Context, days int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, days)
	return f.n, f.err
}

func (f *fakePurger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeRecorder struct {
	mu     sync.Mutex
	purged int64
	errors int
}

func (r *fakeRecorder) ObservePurge(n int64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.errors++
		return
	}
	r.purged += n
}

func TestNewJanitor_Defaults(t *testing.T) {
	j := NewJanitor(&fakePurger{}, 0, 0, nil, nil)
	assert.Equal(t, journal.DefaultRetentionDays, j.days)
	assert.Equal(t, DefaultInterval, j.interval)
}

func TestJanitor_RunTicksUntilCancelled(t *testing.T) {
	purger := &fakePurger{n: 2}
	rec := &fakeRecorder{}
	j := NewJanitor(purger, 7, 5*time.Millisecond, nil, rec)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	require.Eventually(t, func() bool { return purger.count() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancellation")
	}

	purger.mu.Lock()
	assert.Equal(t, 7, purger.calls[0])
	purger.mu.Unlock()

	rec.mu.Lock()
	assert.GreaterOrEqual(t, rec.purged, int64(6))
	rec.mu.Unlock()
}

func TestJanitor_KeepsRunningAfterFailure(t *testing.T) {
	purger := &fakePurger{err: errors.New("database is locked")}
	rec := &fakeRecorder{}
	j := NewJanitor(purger, 30, 5*time.Millisecond, nil, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	require.Eventually(t, func() bool { return purger.count() >= 2 }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	rec.mu.Lock()
	assert.GreaterOrEqual(t, rec.errors, 2)
	rec.mu.Unlock()
}

func TestJanitor_RunOncePurgesRealTrash(t *testing.T) {
	ctx := context.Background()
	m := db.NewManager(db.Options{Driver: db.DriverModernc, Path: ":memory:"}, nil)
	require.NoError(t, m.Initialize(ctx))
	defer m.Close()

	now := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	entries := journal.NewEntryRepository(m, journal.WithClock(clock))

	old, err := entries.Create(ctx, journal.NewEntry{Content: "old"})
	require.NoError(t, err)
	require.NoError(t, entries.SoftDelete(ctx, old.ID))

	now = now.AddDate(0, 0, 31)
	j := NewJanitor(entries, 30, time.Hour, nil, nil)
	n, err := j.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = entries.GetByID(ctx, old.ID)
	assert.ErrorIs(t, err, journal.ErrEntryNotFound)
}
