package selector

import (
	"log/slog"
	"sort"
	"time"
)

// Fresh retains items with created_time >= now - freshRetention and drains
// them sorted by created_time descending (newest first).
type Fresh[T any] struct {
	minFreshTime time.Time
	createdAt    func(T) time.Time
	idOf         func(T) string
	items        []T
}

// NewFresh builds a Fresh selector. now is passed explicitly rather than
// captured internally so tests can pin it.
func NewFresh[T any](now time.Time, freshRetention time.Duration, createdAt func(T) time.Time, idOf func(T) string) *Fresh[T] {
	return &Fresh[T]{
		minFreshTime: now.Add(-freshRetention),
		createdAt:    createdAt,
		idOf:         idOf,
	}
}

func (f *Fresh[T]) Take(item T) (T, bool) {
	if !f.createdAt(item).Before(f.minFreshTime) {
		slog.Debug("Adding item as fresh", "id", f.idOf(item), "time", f.createdAt(item))
		f.items = append(f.items, item)
		var zero T
		return zero, false
	}
	return item, true
}

func (f *Fresh[T]) LockedCount() int { return len(f.items) }

func (f *Fresh[T]) Drain() []T {
	sort.SliceStable(f.items, func(i, j int) bool {
		return f.createdAt(f.items[i]).After(f.createdAt(f.items[j]))
	})
	return f.items
}
