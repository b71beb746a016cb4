package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bowerhall/mediaqa/internal/media"
)

func TestSessionSetItemReplaces(t *testing.T) {
	s := &Session{}

	if _, ok := s.Item(); ok {
		t.Fatal("new session should hold no item")
	}

	first := media.NewItem("a.txt", "text/plain", 1, media.CategoryText)
	second := media.NewItem("b.png", "image/png", 1, media.CategoryImage)

	s.SetItem(first)
	s.SetItem(second)

	item, ok := s.Item()
	if !ok {
		t.Fatal("expected an item")
	}
	if item.ID != second.ID {
		t.Errorf("expected latest item to replace the previous one, got %s", item.Name)
	}
}

func TestSessionItemIsCopy(t *testing.T) {
	s := &Session{}
	s.SetItem(media.NewItem("a.txt", "text/plain", 1, media.CategoryText))

	item, _ := s.Item()
	item.Name = "modified"

	original, _ := s.Item()
	if original.Name != "a.txt" {
		t.Error("Item() should return a copy")
	}
}

func TestSessionRemove(t *testing.T) {
	s := &Session{}

	if s.Remove() {
		t.Error("Remove on empty session should report false")
	}

	s.SetItem(media.NewItem("a.txt", "text/plain", 1, media.CategoryText))
	if !s.Remove() {
		t.Error("Remove should report the held item")
	}
	if _, ok := s.Item(); ok {
		t.Error("expected empty working set after Remove")
	}
}

func TestSessionTryAcquireAndRelease(t *testing.T) {
	s := &Session{}

	// first acquire should succeed
	if !s.TryAcquire() {
		t.Error("first TryAcquire should succeed")
	}

	// second acquire should fail (already processing)
	if s.TryAcquire() {
		t.Error("second TryAcquire should fail")
	}

	// release and try again
	s.Release()

	if !s.TryAcquire() {
		t.Error("TryAcquire after Release should succeed")
	}
	s.Release()
}

func TestStoreAcquireBusy(t *testing.T) {
	store := NewStore()

	sess, err := store.Acquire("cli:1")
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}

	if _, err := store.Acquire("cli:1"); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}

	// other sessions are independent
	other, err := store.Acquire("cli:2")
	if err != nil {
		t.Fatalf("other session should not be blocked: %v", err)
	}
	other.Release()

	sess.Release()
	if again, err := store.Acquire("cli:1"); err != nil {
		t.Errorf("Acquire after Release failed: %v", err)
	} else {
		again.Release()
	}
}

func TestStoreGetCreatesSession(t *testing.T) {
	store := NewStore()

	sess1 := store.Get("telegram:123")
	if sess1 == nil {
		t.Fatal("Get should create new session")
	}

	// same ID should return same session
	sess2 := store.Get("telegram:123")
	if sess1 != sess2 {
		t.Error("Get should return same session for same ID")
	}
}

func TestStoreSweep(t *testing.T) {
	store := NewStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.Get("old")
	busy := store.Get("busy")
	busy.TryAcquire()

	now = now.Add(2 * time.Hour)
	store.Get("fresh")

	if dropped := store.Sweep(time.Hour); dropped != 1 {
		t.Errorf("expected 1 session dropped, got %d", dropped)
	}
	if store.Len() != 2 {
		t.Errorf("expected busy and fresh sessions kept, got %d", store.Len())
	}

	busy.Release()
	if dropped := store.Sweep(time.Hour); dropped != 1 {
		t.Errorf("expected released idle session dropped, got %d", dropped)
	}
}

func TestStoreSweepDuringAcquireKeepsItem(t *testing.T) {
	store := NewStore()
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	store.Get("a")
	clock = clock.Add(2 * time.Hour)

	// the janitor fires while Acquire is resolving the session
	swept := false
	store.now = func() time.Time {
		if !swept {
			swept = true
			store.Sweep(time.Hour)
		}
		return clock
	}

	sess, err := store.Acquire("a")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if !swept {
		t.Fatal("expected the sweep to run during Acquire")
	}
	sess.SetItem(media.NewItem("a.txt", "text/plain", 1, media.CategoryText))
	sess.Release()

	if _, ok := store.Get("a").Item(); !ok {
		t.Error("item ingested after a concurrent sweep was lost")
	}
	if store.Len() != 1 {
		t.Errorf("expected one session, got %d", store.Len())
	}
}

func TestStoreConcurrentGet(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup

	seen := make([]*Session, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			seen[n] = store.Get("shared")
		}(i)
	}

	wg.Wait()

	for _, s := range seen {
		if s != seen[0] {
			t.Fatal("concurrent Get returned different sessions")
		}
	}
}
