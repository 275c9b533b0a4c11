// Package selector implements the composable item filters the playlist
// builder drives: a closed, small set of strategies (fresh, old, previous)
// that together partition an item stream into locked, sampled, and
// rejected sets. Represented as a Go interface with exactly three
// implementations rather than runtime plugin discovery, per the "small
// closed set" guidance — not an extension point for future selectors.
package selector

// Selector offers items one at a time and, at the end of a build, drains
// whatever it decided to keep.
type Selector[T any] interface {
	// Take offers item to the selector. If the selector retains it,
	// Take returns ok=false (the item is gone from the caller's hands).
	// If the selector passes on it, it is handed back unchanged with
	// ok=true so the next selector in the pipeline can have a turn. Old
	// may instead hand back, with ok=true, an earlier item that the
	// offered one displaced from its reservoir.
	Take(item T) (passed T, ok bool)
	// LockedCount is the number of items this selector guarantees to
	// contribute to the final playlist regardless of min_size shortfall.
	LockedCount() int
	// Drain yields every retained item in this selector's preferred
	// order. Called exactly once, after all Take calls are done.
	Drain() []T
}

// Pipeline is an ordered list of Selectors. Consume offers an item to each
// selector in turn, stopping at the first one that retains it.
type Pipeline[T any] struct {
	stages []Selector[T]
}

// NewPipeline builds a Pipeline from stages, evaluated in order.
func NewPipeline[T any](stages ...Selector[T]) *Pipeline[T] {
	return &Pipeline[T]{stages: stages}
}

// Consume offers item to the pipeline.
func (p *Pipeline[T]) Consume(item T) {
	for _, s := range p.stages {
		passed, ok := s.Take(item)
		if !ok {
			return
		}
		item = passed
	}
}

// LockedCount sums LockedCount across every stage.
func (p *Pipeline[T]) LockedCount() int {
	n := 0
	for _, s := range p.stages {
		n += s.LockedCount()
	}
	return n
}

// Select drains every stage in order into a result capped at max items.
// Draining a given stage stops once the result has reached min AND that
// stage's remaining locked contribution is zero, or once the result has
// reached max overall.
func (p *Pipeline[T]) Select(min, max int) []T {
	items := make([]T, 0, max)
outer:
	for _, s := range p.stages {
		locked := s.LockedCount()
		for _, item := range s.Drain() {
			if len(items) >= max {
				break outer
			}
			if len(items) >= min && locked == 0 {
				break
			}
			if locked > 0 {
				locked--
			}
			items = append(items, item)
		}
	}
	return items
}
