// Package playlist assembles the set of items a slideshow cycles through
// from an album's item stream, driving the fresh/old/previous selector
// pipeline and capping it to a chainable-config min/max size window.
package playlist

import (
	"log/slog"
	"time"

	"github.com/kawamuray/photomuseum/internal/album"
	"github.com/kawamuray/photomuseum/internal/selector"
)

const (
	defaultMinSize        = 30
	defaultMaxSize        = 100
	defaultFreshRetention = 14 * 24 * time.Hour
)

func itemID(i album.Item) string        { return i.ID }
func itemCreatedAt(i album.Item) time.Time { return i.CreatedTime }

// Builder builds a playlist from an album's item stream, or computes a
// refreshed version of a previously built one. Construct it with New, which
// applies the package defaults (a zero Builder has max_size 0 and builds
// empty playlists); the chainable setters mirror denpa's config-builder
// idiom.
type Builder struct {
	minSize        int
	maxSize        int
	freshRetention time.Duration
}

// New returns a Builder with default min_size=30, max_size=100, and
// fresh_retention=14 days.
func New() *Builder {
	return &Builder{
		minSize:        defaultMinSize,
		maxSize:        defaultMaxSize,
		freshRetention: defaultFreshRetention,
	}
}

// MinSize sets the expected minimum playlist size.
func (b *Builder) MinSize(n int) *Builder {
	b.minSize = n
	return b
}

// MaxSize sets the playlist's hard cap.
func (b *Builder) MaxSize(n int) *Builder {
	b.maxSize = n
	return b
}

// FreshRetention sets how recently an item must have been created to count
// as "fresh".
func (b *Builder) FreshRetention(d time.Duration) *Builder {
	b.freshRetention = d
	return b
}

// Build produces a fresh playlist from scratch: items newer than
// fresh_retention are always kept (up to max_size), and if that leaves fewer
// than min_size items, older items are randomly sampled to fill the gap.
func (b *Builder) Build(a album.Album) ([]album.Item, error) {
	now := time.Now()
	fresh := selector.NewFresh[album.Item](now, b.freshRetention, itemCreatedAt, itemID)
	old := selector.NewOld[album.Item](b.maxSize, itemCreatedAt, itemID)
	pipeline := selector.NewPipeline[album.Item](fresh, old)
	return b.doBuild(pipeline, a)
}

// Updated recomputes the playlist given the current album contents and the
// previously built playlist, preserving as many of prev's items (and their
// positions) as still apply. It returns (nil, nil) when the recomputed
// playlist is identical to prev — signaling the caller need not replace
// anything.
func (b *Builder) Updated(a album.Album, prev []album.Item) ([]album.Item, error) {
	now := time.Now()
	previous := selector.NewPrevious[album.Item](now, b.freshRetention, b.maxSize, prev, itemCreatedAt, itemID)
	pipeline := selector.NewPipeline[album.Item](previous)

	updated, err := b.doBuild(pipeline, a)
	if err != nil {
		return nil, err
	}
	if itemsEqual(updated, prev) {
		return nil, nil
	}
	return updated, nil
}

func (b *Builder) doBuild(pipeline *selector.Pipeline[album.Item], a album.Album) ([]album.Item, error) {
	it := a.Items()
	for {
		if pipeline.LockedCount() == b.maxSize {
			break
		}

		item, aerr, ok := it.Next()
		if !ok {
			break
		}
		if aerr != nil {
			if aerr.IsFatal() {
				return nil, aerr
			}
			slog.Warn("Skipping item by error", "error", aerr)
			continue
		}

		pipeline.Consume(item)
	}
	return pipeline.Select(b.minSize, b.maxSize), nil
}

func itemsEqual(a, b []album.Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
