package selector

import (
	"log/slog"
	"time"
)

// Previous preserves the positions of items already present in a prior
// playlist, keyed by id, and delegates items newer than the prior
// playlist's maximum created_time to an embedded Fresh selector, capped by
// remaining room to maxItems.
type Previous[T any] struct {
	maxItems    int
	prevItems   []*T
	orderMap    map[string]int
	newestTime  time.Time
	fresh       *Fresh[T]
	createdAt   func(T) time.Time
	idOf        func(T) string
}

// NewPrevious builds a Previous selector from the prior playlist.
func NewPrevious[T any](now time.Time, freshRetention time.Duration, maxItems int, prev []T, createdAt func(T) time.Time, idOf func(T) string) *Previous[T] {
	orderMap := make(map[string]int, len(prev))
	newest := time.Unix(0, 0).UTC()
	for i, item := range prev {
		if createdAt(item).After(newest) {
			newest = createdAt(item)
		}
		orderMap[idOf(item)] = i
	}

	return &Previous[T]{
		maxItems:   maxItems,
		prevItems:  make([]*T, len(orderMap)),
		orderMap:   orderMap,
		newestTime: newest,
		fresh:      NewFresh[T](now, freshRetention, createdAt, idOf),
		createdAt:  createdAt,
		idOf:       idOf,
	}
}

func (p *Previous[T]) isNewest(item T) bool {
	return p.createdAt(item).After(p.newestTime)
}

func (p *Previous[T]) Take(item T) (T, bool) {
	if slot, ok := p.orderMap[p.idOf(item)]; ok {
		slog.Debug("Re-selecting item", "id", p.idOf(item), "time", p.createdAt(item))
		v := item
		p.prevItems[slot] = &v
		var zero T
		return zero, false
	}

	if p.isNewest(item) && len(p.prevItems)+p.fresh.LockedCount() < p.maxItems {
		slog.Debug("Adding new item", "id", p.idOf(item), "time", p.createdAt(item))
		return p.fresh.Take(item)
	}
	return item, true
}

func (p *Previous[T]) filledCount() int {
	n := 0
	for _, v := range p.prevItems {
		if v != nil {
			n++
		}
	}
	return n
}

func (p *Previous[T]) LockedCount() int {
	return p.filledCount() + p.fresh.LockedCount()
}

func (p *Previous[T]) Drain() []T {
	items := p.fresh.Drain()
	for _, v := range p.prevItems {
		if v != nil {
			items = append(items, *v)
		}
	}
	return items
}
