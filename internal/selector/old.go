package selector

import (
	"log/slog"
	"time"

	"github.com/kawamuray/photomuseum/internal/reservoir"
)

// Old retains every item offered to it in a fixed-capacity reservoir.
// LockedCount is always 0 — old items contribute no minimum guarantee,
// they only fill remaining room once fresh items are exhausted. Drains by
// repeated uniform random removal.
type Old[T any] struct {
	maxItems  int
	slots     *reservoir.Slots[T]
	createdAt func(T) time.Time
	idOf      func(T) string
}

// NewOld builds an Old selector with room for at most maxItems.
func NewOld[T any](maxItems int, createdAt func(T) time.Time, idOf func(T) string) *Old[T] {
	return &Old[T]{
		maxItems:  maxItems,
		slots:     reservoir.New[T](maxItems),
		createdAt: createdAt,
		idOf:      idOf,
	}
}

func (o *Old[T]) Take(item T) (T, bool) {
	slog.Debug("Adding item as old", "id", o.idOf(item), "time", o.createdAt(item))
	return o.slots.Push(item)
}

func (o *Old[T]) LockedCount() int { return 0 }

func (o *Old[T]) Drain() []T {
	items := make([]T, 0, o.maxItems)
	for i := 0; i < o.maxItems; i++ {
		item, ok := o.slots.PickRandom()
		if !ok {
			break
		}
		items = append(items, item)
	}
	return items
}
