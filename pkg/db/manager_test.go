package db

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func newMemoryManager() *Manager {
	return NewManager(Options{Driver: DriverModernc, Path: ":memory:", Sync: "NORMAL"}, nil)
}

func TestManager_DBBeforeInitialize(t *testing.T) {
	m := newMemoryManager()

	if _, err := m.DB(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if err := m.RebuildSearchIndex(context.Background()); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized from RebuildSearchIndex, got %v", err)
	}
}

func TestManager_InitializeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager()
	defer m.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- m.Initialize(ctx)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}
	}

	conn, err := m.DB()
	if err != nil {
		t.Fatalf("DB after Initialize: %v", err)
	}

	var categories int
	if err := conn.QueryRow("SELECT COUNT(*) FROM categories").Scan(&categories); err != nil {
		t.Fatalf("count categories: %v", err)
	}
	if categories != len(DefaultCategories) {
		t.Errorf("expected %d seeded categories after concurrent init, got %d", len(DefaultCategories), categories)
	}

	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("repeated Initialize failed: %v", err)
	}
	again, _ := m.DB()
	if again != conn {
		t.Errorf("repeated Initialize must keep the same connection")
	}
}

func TestManager_SearchIndexAndRebuild(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager()
	defer m.Close()

	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if !m.SearchIndexAvailable() {
		t.Fatalf("expected the search index to be available")
	}
	if err := m.RebuildSearchIndex(ctx); err != nil {
		t.Errorf("RebuildSearchIndex failed: %v", err)
	}
}

func TestManager_CloseResetsState(t *testing.T) {
	ctx := context.Background()
	m := newMemoryManager()

	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := m.DB(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized after Close, got %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}
