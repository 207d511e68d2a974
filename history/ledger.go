package history

import (
	"context"
	"log"
	"sync"
	"time"

	"transcriber/fault"
	"transcriber/transcription"
)

// Status marks how a persisted job ended.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Item is one persisted job outcome. Items are never mutated after
// creation; the only write after insert is deletion.
type Item struct {
	ID           string                `json:"id"`
	CreatedAt    time.Time             `json:"created_at"`
	VideoURL     string                `json:"video_url"`
	VideoTitle   string                `json:"video_title"`
	Duration     string                `json:"duration"`
	Status       Status                `json:"status"`
	Content      *transcription.Result `json:"content,omitempty"`
	ErrorMessage string                `json:"error_message,omitempty"`
}

// Store is the persistence capability behind the ledger.
type Store interface {
	// Insert persists one item. The item's ID must already be assigned.
	Insert(ctx context.Context, item Item) error
	// List returns all items ordered by created_at descending.
	List(ctx context.Context) ([]Item, error)
	// Delete removes one item and reports how many rows were removed.
	Delete(ctx context.Context, id string) (int64, error)
}

// Ledger fronts a Store with a read-through cache. The backend is the
// source of truth: mutations reconcile the cache from confirmed backend
// answers instead of assuming they took effect.
type Ledger struct {
	mu    sync.RWMutex
	store Store
	items []Item
}

// NewLedger creates an empty ledger over store.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Refresh reloads the cache from the backend.
func (l *Ledger) Refresh(ctx context.Context) error {
	items, err := l.store.List(ctx)
	if err != nil {
		return fault.Wrap(fault.KindPersistence, "failed to load history", err)
	}

	l.mu.Lock()
	l.items = items
	l.mu.Unlock()
	return nil
}

// Items returns a snapshot of the cached list, newest first.
func (l *Ledger) Items() []Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Item{}, l.items...)
}

// Get returns one cached item by id.
func (l *Ledger) Get(id string) (Item, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, item := range l.items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// Insert persists item. The caller is expected to Refresh afterwards; the
// cache is not guessed at.
func (l *Ledger) Insert(ctx context.Context, item Item) error {
	if err := l.store.Insert(ctx, item); err != nil {
		return fault.Wrap(fault.KindPersistence, "failed to save history record", err)
	}
	return nil
}

// Remove deletes one item. The cache is updated only after the backend
// confirms at least one row was removed; a backend error or a zero-row
// deletion triggers a resync instead.
func (l *Ledger) Remove(ctx context.Context, id string) error {
	rows, err := l.store.Delete(ctx, id)
	if err == nil && rows > 0 {
		l.mu.Lock()
		kept := l.items[:0]
		for _, item := range l.items {
			if item.ID != id {
				kept = append(kept, item)
			}
		}
		l.items = kept
		l.mu.Unlock()
		return nil
	}

	if refreshErr := l.Refresh(ctx); refreshErr != nil {
		log.Printf("history resync after failed delete also failed: %v", refreshErr)
	}
	if err != nil {
		return fault.Wrap(fault.KindPersistence, "failed to delete history record", err)
	}
	return fault.New(fault.KindPersistence, "history record was not deleted")
}
