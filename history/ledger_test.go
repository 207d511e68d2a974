package history

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"transcriber/transcription"
)

// fakeStore is an in-memory Store with scriptable delete behavior.
type fakeStore struct {
	mu          sync.Mutex
	items       map[string]Item
	insertErr   error
	listErr     error
	deleteErr   error
	deleteRows  *int64
	listCalls   int
	deleteCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: map[string]Item{}}
}

func (s *fakeStore) Insert(_ context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.items[item.ID] = item
	return nil
}

func (s *fakeStore) List(_ context.Context) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeStore) Delete(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCalls++
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	if s.deleteRows != nil {
		return *s.deleteRows, nil
	}
	if _, ok := s.items[id]; !ok {
		return 0, nil
	}
	delete(s.items, id)
	return 1, nil
}

func successItem(id string, at time.Time) Item {
	return Item{
		ID:         id,
		CreatedAt:  at,
		VideoURL:   "https://youtu.be/dQw4w9WgXcQ",
		VideoTitle: "A Talk",
		Duration:   "04:13",
		Status:     StatusSuccess,
		Content: &transcription.Result{
			Duration: "04:13",
			Language: "english",
			Segments: []transcription.Segment{{Timestamp: "00:00", Text: "hello"}},
		},
	}
}

func TestLedgerRefreshOrdersNewestFirst(t *testing.T) {
	store := newFakeStore()
	base := time.Now()
	_ = store.Insert(context.Background(), successItem("old", base.Add(-time.Hour)))
	_ = store.Insert(context.Background(), successItem("new", base))

	l := NewLedger(store)
	if err := l.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	items := l.Items()
	if len(items) != 2 || items[0].ID != "new" || items[1].ID != "old" {
		t.Fatalf("items = %+v", items)
	}
}

func TestLedgerRemoveConfirmed(t *testing.T) {
	store := newFakeStore()
	_ = store.Insert(context.Background(), successItem("a", time.Now()))
	l := NewLedger(store)
	_ = l.Refresh(context.Background())
	listCallsBefore := store.listCalls

	if err := l.Remove(context.Background(), "a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(l.Items()) != 0 {
		t.Fatalf("cache = %+v", l.Items())
	}
	if store.listCalls != listCallsBefore {
		t.Fatal("a confirmed delete should not need a resync")
	}
}

func TestLedgerRemoveZeroRowsResyncs(t *testing.T) {
	store := newFakeStore()
	_ = store.Insert(context.Background(), successItem("a", time.Now()))
	l := NewLedger(store)
	_ = l.Refresh(context.Background())

	var zero int64
	store.deleteRows = &zero
	listCallsBefore := store.listCalls

	err := l.Remove(context.Background(), "a")
	if err == nil {
		t.Fatal("zero-row delete must not report success")
	}
	if store.listCalls != listCallsBefore+1 {
		t.Fatal("zero-row delete must force a resync")
	}
	// The backend still holds the item, so the cache keeps it too.
	if len(l.Items()) != 1 {
		t.Fatalf("cache = %+v", l.Items())
	}
}

func TestLedgerRemoveBackendErrorResyncs(t *testing.T) {
	store := newFakeStore()
	_ = store.Insert(context.Background(), successItem("a", time.Now()))
	l := NewLedger(store)
	_ = l.Refresh(context.Background())

	store.deleteErr = errors.New("connection lost")
	listCallsBefore := store.listCalls

	if err := l.Remove(context.Background(), "a"); err == nil {
		t.Fatal("backend error must propagate")
	}
	if store.listCalls != listCallsBefore+1 {
		t.Fatal("failed delete must force a resync")
	}
	if len(l.Items()) != 1 {
		t.Fatalf("cache = %+v", l.Items())
	}
}

func TestLedgerGet(t *testing.T) {
	store := newFakeStore()
	_ = store.Insert(context.Background(), successItem("a", time.Now()))
	l := NewLedger(store)
	_ = l.Refresh(context.Background())

	if _, ok := l.Get("a"); !ok {
		t.Fatal("expected item a")
	}
	if _, ok := l.Get("missing"); ok {
		t.Fatal("unexpected item")
	}
}

func TestLedgerItemsSnapshotIsolated(t *testing.T) {
	store := newFakeStore()
	_ = store.Insert(context.Background(), successItem("a", time.Now()))
	l := NewLedger(store)
	_ = l.Refresh(context.Background())

	snapshot := l.Items()
	snapshot[0].ID = "mutated"

	if l.Items()[0].ID != "a" {
		t.Fatal("Items must return a copy")
	}
}
